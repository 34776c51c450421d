package portfolio

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Manas2412/8Byte/pkg/models"
)

// BuildSnapshot computes the enriched lines and totals for one portfolio.
// quotes must be aligned index-for-index with holdings; a holding whose fetch
// failed entirely carries an all-nil quote and is valued at purchase price.
func BuildSnapshot(userID string, holdings []models.Holding, quotes []models.Quote, now time.Time) *models.PortfolioSnapshot {
	lines := make([]models.StockLine, 0, len(holdings))

	totalInvestment := decimal.Zero
	investments := make([]decimal.Decimal, len(holdings))
	for i, h := range holdings {
		inv := decimal.NewFromFloat(h.PurchasePrice).Mul(decimal.NewFromFloat(h.Quantity)).Round(2)
		investments[i] = inv
		totalInvestment = totalInvestment.Add(inv)
	}

	for i, h := range holdings {
		q := models.Quote{}
		if i < len(quotes) {
			q = quotes[i]
		}

		effectivePrice := h.PurchasePrice
		if q.CMP != nil {
			effectivePrice = *q.CMP
		}

		presentValue := decimal.NewFromFloat(effectivePrice).Mul(decimal.NewFromFloat(h.Quantity)).Round(2)
		gainLoss := presentValue.Sub(investments[i]).Round(2)

		percent := decimal.Zero
		if totalInvestment.IsPositive() {
			percent = investments[i].Div(totalInvestment).Mul(decimal.NewFromInt(100)).Round(2)
		}

		lines = append(lines, models.StockLine{
			Symbol:           h.Symbol,
			Exchange:         h.Exchange,
			PurchasePrice:    h.PurchasePrice,
			Quantity:         h.Quantity,
			Investment:       investments[i].InexactFloat64(),
			CMP:              q.CMP,
			PERatio:          q.PERatio,
			LatestEarnings:   q.LatestEarnings,
			PresentValue:     presentValue.InexactFloat64(),
			GainLoss:         gainLoss.InexactFloat64(),
			PortfolioPercent: percent.InexactFloat64(),
		})
	}

	return &models.PortfolioSnapshot{
		UserID:          userID,
		Stocks:          lines,
		TotalInvestment: totalInvestment.Round(2).InexactFloat64(),
		CachedAt:        now,
	}
}
