package products

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
)

func TestCapturedPriceWithoutOffer(t *testing.T) {
	t.Parallel()

	product := &models.Product{PriceCents: 1299}
	unit, original := CapturedPrice(product, time.Now())
	if unit != 1299 || original != nil {
		t.Fatalf("expected list price with no original, got %d / %v", unit, original)
	}
}

func TestCapturedPriceInsideWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	starts := now.Add(-time.Hour)
	ends := now.Add(time.Hour)
	pct := decimal.NewFromFloat(12.5)

	product := &models.Product{
		PriceCents:      2000,
		OfferPercentOff: &pct,
		OfferStartsAt:   &starts,
		OfferEndsAt:     &ends,
	}
	unit, original := CapturedPrice(product, now)
	if unit != 1750 {
		t.Fatalf("expected 1750 after 12.5%% off 2000, got %d", unit)
	}
	if original == nil || *original != 2000 {
		t.Fatalf("expected original 2000, got %v", original)
	}
}

func TestCapturedPriceOutsideWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ends := now.Add(-time.Minute)
	starts := ends.Add(-time.Hour)
	pct := decimal.NewFromInt(50)

	product := &models.Product{
		PriceCents:      2000,
		OfferPercentOff: &pct,
		OfferStartsAt:   &starts,
		OfferEndsAt:     &ends,
	}
	unit, original := CapturedPrice(product, now)
	if unit != 2000 || original != nil {
		t.Fatalf("expired offer should not apply, got %d / %v", unit, original)
	}
}

func TestCapturedPriceOpenEndedOffer(t *testing.T) {
	t.Parallel()

	pct := decimal.NewFromInt(10)
	product := &models.Product{PriceCents: 999, OfferPercentOff: &pct}
	unit, original := CapturedPrice(product, time.Now())
	if unit != 899 {
		t.Fatalf("expected 899 after 10%% off 999 (round), got %d", unit)
	}
	if original == nil || *original != 999 {
		t.Fatalf("expected original 999, got %v", original)
	}
}
