package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
)

var oneHundred = decimal.NewFromInt(100)

// CapturedPrice returns the unit price to record for a cart line at this
// instant. When a percent-off offer is live the discounted price is returned
// along with the list price for strike-through display; otherwise the list
// price stands alone.
func CapturedPrice(p *models.Product, now time.Time) (unitCents int, originalCents *int) {
	if p == nil {
		return 0, nil
	}
	if !p.OfferActiveAt(now) {
		return p.PriceCents, nil
	}

	list := decimal.NewFromInt(int64(p.PriceCents))
	discounted := list.Mul(oneHundred.Sub(*p.OfferPercentOff)).DivRound(oneHundred, 0)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}

	original := p.PriceCents
	return int(discounted.IntPart()), &original
}
