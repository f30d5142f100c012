// File: internal/infra/adapters/storage/drive.go
package storage

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"effects-store/internal/domain/ports/adapter"
)

var _ adapter.AssetFetcher = (*DriveFetcher)(nil)

const driveAPIBase = "https://www.googleapis.com/drive/v3"

// DriveFetcher streams drive-hosted assets via a service-account
// client-credentials exchange, and proxies directly-hosted URLs. The signing
// key never leaves this process; the short-lived access token lives only for
// the request that minted it.
type DriveFetcher struct {
	serviceAccount string
	signingKey     *rsa.PrivateKey
	tokenURL       string
	client         *http.Client
	apiBase        string
}

func NewDriveFetcher(serviceAccountEmail, privateKeyPEM, tokenURL string) (*DriveFetcher, error) {
	if serviceAccountEmail == "" {
		return nil, errors.New("service account email empty")
	}
	key, err := parseRSAKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("drive signing key: %w", err)
	}
	return &DriveFetcher{
		serviceAccount: serviceAccountEmail,
		signingKey:     key,
		tokenURL:       tokenURL,
		client:         &http.Client{Timeout: 60 * time.Second},
		apiBase:        driveAPIBase,
	}, nil
}

// SetAPIBase points the fetcher at a stand-in server. Tests only.
func (f *DriveFetcher) SetAPIBase(u string) { f.apiBase = u }

func parseRSAKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("key is not RSA")
	}
	return rsaKey, nil
}

// serviceToken exchanges a signed assertion for a short-lived access token.
// Not cached beyond the calling request.
func (f *DriveFetcher) serviceToken(ctx context.Context) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   f.serviceAccount,
		"scope": "https://www.googleapis.com/auth/drive.readonly",
		"aud":   f.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(5 * time.Minute).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(f.signingKey)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange: http %d", resp.StatusCode)
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("token exchange returned no access token")
	}
	return out.AccessToken, nil
}

// FetchDrive reads file metadata to recover the real filename, then opens the
// media stream.
func (f *DriveFetcher) FetchDrive(ctx context.Context, fileID string) (*adapter.AssetMeta, io.ReadCloser, error) {
	token, err := f.serviceToken(ctx)
	if err != nil {
		return nil, nil, err
	}

	metaURL := fmt.Sprintf("%s/files/%s?fields=name,mimeType,size", f.apiBase, url.PathEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	var fileMeta struct {
		Name     string `json:"name"`
		MimeType string `json:"mimeType"`
		Size     string `json:"size"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&fileMeta)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("drive metadata: http %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, nil, decodeErr
	}

	mediaURL := fmt.Sprintf("%s/files/%s?alt=media", f.apiBase, url.PathEscape(fileID))
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	media, err := f.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if media.StatusCode != http.StatusOK {
		media.Body.Close()
		return nil, nil, fmt.Errorf("drive media: http %d", media.StatusCode)
	}

	size := int64(-1)
	if n, err := strconv.ParseInt(fileMeta.Size, 10, 64); err == nil {
		size = n
	}
	return &adapter.AssetMeta{
		Filename:    fileMeta.Name,
		ContentType: fileMeta.MimeType,
		Size:        size,
	}, media.Body, nil
}

// FetchURL proxies a directly-hosted file, deriving the filename from the path.
func (f *DriveFetcher) FetchURL(ctx context.Context, fileURL string) (*adapter.AssetMeta, io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("file url: http %d", resp.StatusCode)
	}

	name := ""
	if u, err := url.Parse(fileURL); err == nil {
		if idx := strings.LastIndex(u.Path, "/"); idx >= 0 {
			name = u.Path[idx+1:]
		}
	}
	size := int64(-1)
	if resp.ContentLength >= 0 {
		size = resp.ContentLength
	}
	return &adapter.AssetMeta{
		Filename:    name,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        size,
	}, resp.Body, nil
}
