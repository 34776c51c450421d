package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manas2412/8Byte/internal/testutils"
	"github.com/Manas2412/8Byte/pkg/models"
)

func TestBuildSnapshot_SingleHolding(t *testing.T) {
	holdings := []models.Holding{
		{UserID: "u1", Symbol: "TCS", Exchange: "NSE", PurchasePrice: 3500, Quantity: 10},
	}
	quotes := []models.Quote{{CMP: testutils.Float(3800)}}

	snap := BuildSnapshot("u1", holdings, quotes, time.Now())
	require.Len(t, snap.Stocks, 1)

	line := snap.Stocks[0]
	assert.Equal(t, 35000.0, line.Investment)
	assert.Equal(t, 38000.0, line.PresentValue)
	assert.Equal(t, 3000.0, line.GainLoss)
	assert.Equal(t, 100.0, line.PortfolioPercent)
	assert.Equal(t, 35000.0, snap.TotalInvestment)
}

func TestBuildSnapshot_MissingCMPFallsBackToPurchasePrice(t *testing.T) {
	holdings := []models.Holding{
		{Symbol: "TCS", PurchasePrice: 3500, Quantity: 10},
	}
	quotes := []models.Quote{{}}

	snap := BuildSnapshot("u1", holdings, quotes, time.Now())
	line := snap.Stocks[0]
	assert.Equal(t, 35000.0, line.PresentValue)
	assert.Equal(t, 0.0, line.GainLoss)
	assert.Nil(t, line.CMP)
}

func TestBuildSnapshot_PercentsSumToHundred(t *testing.T) {
	holdings := []models.Holding{
		{Symbol: "TCS", PurchasePrice: 3500, Quantity: 10},
		{Symbol: "INFY", PurchasePrice: 1500, Quantity: 7},
		{Symbol: "HDFCBANK", PurchasePrice: 1600.33, Quantity: 3},
	}
	quotes := make([]models.Quote, len(holdings))

	snap := BuildSnapshot("u1", holdings, quotes, time.Now())

	var sum float64
	for _, line := range snap.Stocks {
		sum += line.PortfolioPercent
	}
	assert.InDelta(t, 100.0, sum, 0.1)
}

func TestBuildSnapshot_RoundingInvariants(t *testing.T) {
	holdings := []models.Holding{
		{Symbol: "A", PurchasePrice: 123.456, Quantity: 3.3},
		{Symbol: "B", PurchasePrice: 9.99, Quantity: 7},
	}
	quotes := []models.Quote{
		{CMP: testutils.Float(130.111)},
		{CMP: testutils.Float(10.005)},
	}

	snap := BuildSnapshot("u1", holdings, quotes, time.Now())

	for i, line := range snap.Stocks {
		cmp := line.PurchasePrice
		if line.CMP != nil {
			cmp = *line.CMP
		}
		wantPV := math.Round(cmp*line.Quantity*100) / 100
		assert.InDelta(t, wantPV, line.PresentValue, 0.005, "line %d presentValue", i)
		assert.InDelta(t, line.PresentValue-line.Investment, line.GainLoss, 0.005, "line %d gainLoss", i)
	}
}

func TestBuildSnapshot_EmptyPortfolio(t *testing.T) {
	snap := BuildSnapshot("u1", nil, nil, time.Now())
	assert.Empty(t, snap.Stocks)
	assert.Equal(t, 0.0, snap.TotalInvestment)
	assert.True(t, models.IsLive(snap))
}

func TestBuildSnapshot_ZeroTotalInvestment(t *testing.T) {
	holdings := []models.Holding{
		{Symbol: "FREEBIE", PurchasePrice: 0, Quantity: 100},
	}
	snap := BuildSnapshot("u1", holdings, make([]models.Quote, 1), time.Now())
	assert.Equal(t, 0.0, snap.Stocks[0].PortfolioPercent)
}
