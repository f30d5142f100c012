package adapter

import (
	"context"
	"io"
)

// AssetMeta carries what the download handler needs to set response headers.
// Size is -1 when the source does not report a length.
type AssetMeta struct {
	Filename    string
	ContentType string
	Size        int64
}

// AssetFetcher streams a purchased binary from its source. Implementations
// must never leak their long-lived credentials into the returned stream or
// metadata.
type AssetFetcher interface {
	// FetchDrive resolves a drive-hosted file id to metadata and a byte stream.
	FetchDrive(ctx context.Context, fileID string) (*AssetMeta, io.ReadCloser, error)
	// FetchURL proxies a directly-hosted file.
	FetchURL(ctx context.Context, url string) (*AssetMeta, io.ReadCloser, error)
}
