//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"effects-store/internal/domain"
	"effects-store/internal/domain/model"
	"effects-store/internal/domain/ports/adapter"
	"effects-store/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Repositories
// =============================

// ---- Mock PurchaseRepository ----

type MockPurchaseRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Purchase // by id

	EnsurePendingFunc func(ctx context.Context, p *model.Purchase) (string, error)
	UpdateStatusFunc  func(ctx context.Context, id string, status model.PurchaseStatus, ref string) (int64, error)
}

var _ repository.PurchaseRepository = (*MockPurchaseRepo)(nil)

func NewMockPurchaseRepo() *MockPurchaseRepo {
	return &MockPurchaseRepo{rows: map[string]*model.Purchase{}}
}

func (m *MockPurchaseRepo) FindByID(ctx context.Context, id string) (*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockPurchaseRepo) FindByUserAndProduct(ctx context.Context, userID, productID string) (*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.UserID == userID && p.ProductID == productID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPurchaseRepo) CompletedProductIDs(ctx context.Context, userID string, productIDs []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owned := map[string]bool{}
	for _, p := range m.rows {
		if p.UserID != userID || p.Status != model.PurchaseStatusCompleted {
			continue
		}
		for _, id := range productIDs {
			if p.ProductID == id {
				owned[id] = true
			}
		}
	}
	return owned, nil
}

func (m *MockPurchaseRepo) EnsurePending(ctx context.Context, p *model.Purchase) (string, error) {
	if m.EnsurePendingFunc != nil {
		return m.EnsurePendingFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.UserID == p.UserID && existing.ProductID == p.ProductID {
			if existing.Status == model.PurchaseStatusCompleted {
				return "", domain.ErrAlreadyOwned
			}
			existing.Status = model.PurchaseStatusPending
			existing.Provider = p.Provider
			return existing.ID, nil
		}
	}
	cp := *p
	m.rows[cp.ID] = &cp
	return cp.ID, nil
}

func (m *MockPurchaseRepo) SetExternalRef(ctx context.Context, ids []string, externalRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if p, ok := m.rows[id]; ok {
			p.ExternalRef = externalRef
		}
	}
	return nil
}

func (m *MockPurchaseRepo) UpdateStatus(ctx context.Context, id string, status model.PurchaseStatus, externalRef string) (int64, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, externalRef)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return 0, nil
	}
	p.Status = status
	if externalRef != "" {
		p.ExternalRef = externalRef
	}
	return 1, nil
}

func (m *MockPurchaseRepo) Upsert(ctx context.Context, p *model.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.UserID == p.UserID && existing.ProductID == p.ProductID {
			existing.Status = p.Status
			existing.Provider = p.Provider
			existing.ExternalRef = p.ExternalRef
			return nil
		}
	}
	cp := *p
	m.rows[cp.ID] = &cp
	return nil
}

func (m *MockPurchaseRepo) ListByUser(ctx context.Context, userID string) ([]*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Purchase
	for _, p := range m.rows {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Seed inserts a row directly, bypassing EnsurePending semantics.
func (m *MockPurchaseRepo) Seed(p *model.Purchase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.rows[cp.ID] = &cp
}

// Get returns the stored row, or nil.
func (m *MockPurchaseRepo) Get(id string) *model.Purchase {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[id]; ok {
		cp := *p
		return &cp
	}
	return nil
}

// ---- Mock CouponRepository ----

type MockCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*model.Coupon // by code
}

var _ repository.CouponRepository = (*MockCouponRepo)(nil)

func NewMockCouponRepo() *MockCouponRepo {
	return &MockCouponRepo{coupons: map[string]*model.Coupon{}}
}

func (m *MockCouponRepo) Save(ctx context.Context, c *model.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.coupons[cp.Code] = &cp
	return nil
}

func (m *MockCouponRepo) FindUnused(ctx context.Context, code string) (*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[code]
	if !ok || c.Used {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCouponRepo) MarkUsed(ctx context.Context, code, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[code]
	if !ok || c.Used {
		return domain.ErrInvalidCoupon
	}
	c.Used = true
	c.UsedBy = &userID
	return nil
}

func (m *MockCouponRepo) List(ctx context.Context, offset, limit int) ([]*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Coupon
	for _, c := range m.coupons {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// ---- Mock CatalogRepository ----

type MockCatalogRepo struct {
	mu       sync.Mutex
	products map[string]*model.Product
	bundles  map[string]*model.Bundle
}

var _ repository.CatalogRepository = (*MockCatalogRepo)(nil)

func NewMockCatalogRepo() *MockCatalogRepo {
	return &MockCatalogRepo{
		products: map[string]*model.Product{},
		bundles:  map[string]*model.Bundle{},
	}
}

func (m *MockCatalogRepo) AddProduct(p *model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.products[cp.ID] = &cp
}

func (m *MockCatalogRepo) AddBundle(b *model.Bundle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.bundles[cp.ID] = &cp
}

func (m *MockCatalogRepo) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockCatalogRepo) FindBundle(ctx context.Context, id string) (*model.Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bundles[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: map[string]*model.User{}}
}

func (m *MockUserRepo) Add(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[cp.ID] = &cp
}

func (m *MockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockUserRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func (m *MockUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	return nil
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	NameVal string

	CreateIntentFunc func(ctx context.Context, req adapter.IntentRequest) (*adapter.Intent, error)
	ConfirmFunc      func(ctx context.Context, identifier string) (*adapter.Confirmation, error)

	// LastIntent captures the most recent CreateIntent request when the
	// default behavior runs.
	LastIntent *adapter.IntentRequest
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string {
	if m.NameVal == "" {
		return "mockpay"
	}
	return m.NameVal
}

func (m *MockPaymentGateway) CreateIntent(ctx context.Context, req adapter.IntentRequest) (*adapter.Intent, error) {
	if m.CreateIntentFunc != nil {
		return m.CreateIntentFunc(ctx, req)
	}
	m.LastIntent = &req
	return &adapter.Intent{HostedURL: "https://pay.example/" + req.Reference.Encode(), OrderID: "ORDER-1"}, nil
}

func (m *MockPaymentGateway) Confirm(ctx context.Context, identifier string) (*adapter.Confirmation, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, identifier)
	}
	return &adapter.Confirmation{
		Status:    model.PurchaseStatusCompleted,
		Reference: model.ParseReference(identifier),
		PaymentID: "PAY-" + identifier,
	}, nil
}

// ---- Mock AssetFetcher ----

type MockAssetFetcher struct {
	FetchDriveFunc func(ctx context.Context, fileID string) (*adapter.AssetMeta, io.ReadCloser, error)
	FetchURLFunc   func(ctx context.Context, rawURL string) (*adapter.AssetMeta, io.ReadCloser, error)
}

var _ adapter.AssetFetcher = (*MockAssetFetcher)(nil)

func (m *MockAssetFetcher) FetchDrive(ctx context.Context, fileID string) (*adapter.AssetMeta, io.ReadCloser, error) {
	if m.FetchDriveFunc != nil {
		return m.FetchDriveFunc(ctx, fileID)
	}
	return &adapter.AssetMeta{Filename: fileID + ".zip", ContentType: "application/zip", Size: 4},
		io.NopCloser(strings.NewReader("data")), nil
}

func (m *MockAssetFetcher) FetchURL(ctx context.Context, rawURL string) (*adapter.AssetMeta, io.ReadCloser, error) {
	if m.FetchURLFunc != nil {
		return m.FetchURLFunc(ctx, rawURL)
	}
	return &adapter.AssetMeta{Filename: "asset.zip", ContentType: "application/zip", Size: 4},
		io.NopCloser(strings.NewReader("data")), nil
}
