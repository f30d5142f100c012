//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"effects-store/internal/domain"
	"effects-store/internal/domain/model"
)

func seedCatalog(t *testing.T, ctx context.Context) {
	t.Helper()
	cleanup(t)
	mustExec := func(q string, args ...any) {
		t.Helper()
		if _, err := testPool.Exec(ctx, q, args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	mustExec(`INSERT INTO users (id, email) VALUES ('user-1', 'buyer@example.com'), ('user-2', 'other@example.com')`)
	mustExec(`INSERT INTO products (id, title, price_cents, currency) VALUES
		('prod-1', 'Glow Pack', 10000, 'ILS'),
		('prod-2', 'Shake Pack', 6000, 'ILS')`)
	mustExec(`INSERT INTO bundles (id, title, price_cents, currency) VALUES ('bundle-1', 'Creator Bundle', 12000, 'ILS')`)
	mustExec(`INSERT INTO bundle_products (bundle_id, product_id, position) VALUES
		('bundle-1', 'prod-1', 0), ('bundle-1', 'prod-2', 1)`)
}

func TestPurchaseRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewPostgresPurchaseRepo(testPool)

	t.Run("should insert a fresh pending row", func(t *testing.T) {
		seedCatalog(t, ctx)

		id, err := repo.EnsurePending(ctx, &model.Purchase{
			ID: model.NewPurchaseID(), UserID: "user-1", ProductID: "prod-1",
			Status: model.PurchaseStatusPending, Provider: "mercadopago",
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		p, err := repo.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if p.Status != model.PurchaseStatusPending || p.Provider != "mercadopago" {
			t.Errorf("unexpected row %+v", p)
		}
	})

	t.Run("should reuse and reset a failed row on retry", func(t *testing.T) {
		seedCatalog(t, ctx)

		first, err := repo.EnsurePending(ctx, &model.Purchase{ID: model.NewPurchaseID(), UserID: "user-1", ProductID: "prod-1", Provider: "mercadopago"})
		if err != nil {
			t.Fatalf("first: %v", err)
		}
		if _, err := repo.UpdateStatus(ctx, first, model.PurchaseStatusFailed, "pay-1"); err != nil {
			t.Fatalf("fail: %v", err)
		}

		second, err := repo.EnsurePending(ctx, &model.Purchase{ID: model.NewPurchaseID(), UserID: "user-1", ProductID: "prod-1", Provider: "paypal"})
		if err != nil {
			t.Fatalf("second: %v", err)
		}
		if second != first {
			t.Errorf("expected the surviving row id %s, got %s", first, second)
		}
		p, _ := repo.FindByID(ctx, second)
		if p.Status != model.PurchaseStatusPending || p.Provider != "paypal" || p.ExternalRef != "" {
			t.Errorf("expected a reset pending row, got %+v", p)
		}
	})

	t.Run("should refuse to reset a completed row", func(t *testing.T) {
		seedCatalog(t, ctx)

		id, _ := repo.EnsurePending(ctx, &model.Purchase{ID: model.NewPurchaseID(), UserID: "user-1", ProductID: "prod-1", Provider: "mercadopago"})
		if _, err := repo.UpdateStatus(ctx, id, model.PurchaseStatusCompleted, "pay-1"); err != nil {
			t.Fatalf("complete: %v", err)
		}

		_, err := repo.EnsurePending(ctx, &model.Purchase{ID: model.NewPurchaseID(), UserID: "user-1", ProductID: "prod-1", Provider: "paypal"})
		if !errors.Is(err, domain.ErrAlreadyOwned) {
			t.Fatalf("expected ErrAlreadyOwned, got: %v", err)
		}
		p, _ := repo.FindByID(ctx, id)
		if p.Status != model.PurchaseStatusCompleted {
			t.Errorf("completed row must survive, got %+v", p)
		}
	})

	t.Run("should keep the prior external ref on a blank update", func(t *testing.T) {
		seedCatalog(t, ctx)

		id, _ := repo.EnsurePending(ctx, &model.Purchase{ID: model.NewPurchaseID(), UserID: "user-1", ProductID: "prod-1", Provider: "mercadopago"})
		if _, err := repo.UpdateStatus(ctx, id, model.PurchaseStatusCompleted, "pay-1"); err != nil {
			t.Fatalf("complete: %v", err)
		}
		if _, err := repo.UpdateStatus(ctx, id, model.PurchaseStatusCompleted, ""); err != nil {
			t.Fatalf("redeliver: %v", err)
		}
		p, _ := repo.FindByID(ctx, id)
		if p.ExternalRef != "pay-1" {
			t.Errorf("expected external ref pay-1, got %q", p.ExternalRef)
		}
	})

	t.Run("should report zero matches for an unknown id", func(t *testing.T) {
		seedCatalog(t, ctx)
		n, err := repo.UpdateStatus(ctx, "ghost", model.PurchaseStatusCompleted, "x")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 matched, got %d", n)
		}
	})

	t.Run("should filter owned products", func(t *testing.T) {
		seedCatalog(t, ctx)

		id, _ := repo.EnsurePending(ctx, &model.Purchase{ID: model.NewPurchaseID(), UserID: "user-1", ProductID: "prod-1", Provider: "mercadopago"})
		repo.UpdateStatus(ctx, id, model.PurchaseStatusCompleted, "pay-1")
		repo.EnsurePending(ctx, &model.Purchase{ID: model.NewPurchaseID(), UserID: "user-1", ProductID: "prod-2", Provider: "mercadopago"})

		owned, err := repo.CompletedProductIDs(ctx, "user-1", []string{"prod-1", "prod-2"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !owned["prod-1"] || owned["prod-2"] {
			t.Errorf("unexpected ownership %v", owned)
		}
	})

	t.Run("should upsert a postback row over a pending one", func(t *testing.T) {
		seedCatalog(t, ctx)

		repo.EnsurePending(ctx, &model.Purchase{ID: model.NewPurchaseID(), UserID: "user-1", ProductID: "prod-1", Provider: "mercadopago"})
		if err := repo.Upsert(ctx, &model.Purchase{
			ID: model.NewPurchaseID(), UserID: "user-1", ProductID: "prod-1",
			Status: model.PurchaseStatusCompleted, Provider: "payt", ExternalRef: "TXN-1",
		}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		p, err := repo.FindByUserAndProduct(ctx, "user-1", "prod-1")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if p.Status != model.PurchaseStatusCompleted || p.Provider != "payt" {
			t.Errorf("unexpected row %+v", p)
		}
	})
}

func TestCatalogRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewPostgresCatalogRepo(testPool)

	seedCatalog(t, ctx)

	t.Run("should load a bundle with constituents in position order", func(t *testing.T) {
		b, err := repo.FindBundle(ctx, "bundle-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(b.ProductIDs) != 2 || b.ProductIDs[0] != "prod-1" || b.ProductIDs[1] != "prod-2" {
			t.Errorf("unexpected constituents %v", b.ProductIDs)
		}
		if b.PriceCents != 12000 {
			t.Errorf("unexpected price %d", b.PriceCents)
		}
	})

	t.Run("should return not found for an unknown product", func(t *testing.T) {
		if _, err := repo.FindProduct(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got: %v", err)
		}
	})
}
