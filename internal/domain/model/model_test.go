//go:build !integration

package model_test

import (
	"testing"
	"time"

	"effects-store/internal/domain/model"
)

func TestReference(t *testing.T) {
	t.Run("should round-trip a multi-id reference", func(t *testing.T) {
		ref := model.NewReference("a", "b", "c")
		encoded := ref.Encode()
		if encoded != "a,b,c" {
			t.Fatalf("expected 'a,b,c', got %q", encoded)
		}
		parsed := model.ParseReference(encoded)
		if len(parsed) != 3 || parsed[0] != "a" || parsed[2] != "c" {
			t.Errorf("unexpected parse result %v", parsed)
		}
	})

	t.Run("should drop empty segments", func(t *testing.T) {
		if got := model.ParseReference(",a,,b,"); len(got) != 2 {
			t.Errorf("expected 2 ids, got %v", got)
		}
		if got := model.NewReference("", "a", ""); len(got) != 1 {
			t.Errorf("expected 1 id, got %v", got)
		}
	})

	t.Run("should treat a blank string as empty", func(t *testing.T) {
		if !model.ParseReference("").Empty() {
			t.Error("expected empty reference")
		}
	})
}

func TestCouponApply(t *testing.T) {
	cases := []struct {
		name    string
		percent int
		price   int64
		want    int64
	}{
		{"20 percent off 100.00", 20, 10000, 8000},
		{"33 percent off 9.99", 33, 999, 669},
		{"100 percent free", 100, 10000, 0},
		{"1 percent rounds half up", 1, 50, 50}, // 49.5 cents rounds to 50
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &model.Coupon{Code: "X", DiscountPercent: tc.percent}
			if got := c.Apply(tc.price); got != tc.want {
				t.Errorf("Apply(%d) = %d, want %d", tc.price, got, tc.want)
			}
		})
	}
}

func TestNewCoupon(t *testing.T) {
	t.Run("should normalize the code", func(t *testing.T) {
		c, err := model.NewCoupon("  launch20 ", 20)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if c.Code != "LAUNCH20" {
			t.Errorf("expected LAUNCH20, got %s", c.Code)
		}
	})

	t.Run("should reject out-of-range discounts", func(t *testing.T) {
		if _, err := model.NewCoupon("X", 0); err == nil {
			t.Error("expected error for 0 percent")
		}
		if _, err := model.NewCoupon("X", 101); err == nil {
			t.Error("expected error for 101 percent")
		}
		if _, err := model.NewCoupon("   ", 10); err == nil {
			t.Error("expected error for blank code")
		}
	})
}

func TestParsePurchaseStatus(t *testing.T) {
	cases := map[string]model.PurchaseStatus{
		"COMPLETED": model.PurchaseStatusCompleted,
		"pending":   model.PurchaseStatusPending,
		"Failed":    model.PurchaseStatusFailed,
		"weird":     model.PurchaseStatus("weird"),
	}
	for in, want := range cases {
		if got := model.ParsePurchaseStatus(in); got != want {
			t.Errorf("ParsePurchaseStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPurchaseIDOrdering(t *testing.T) {
	// Reference order relies on ids sorting by creation time.
	a := model.NewPurchaseID()
	time.Sleep(2 * time.Millisecond)
	b := model.NewPurchaseID()
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("expected 26-char ids, got %q %q", a, b)
	}
	if b < a {
		t.Errorf("expected %q <= %q", a, b)
	}
}
