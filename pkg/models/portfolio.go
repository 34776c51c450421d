package models

import (
	"math"
	"time"
)

// Holding is a single position as stored in the persistent store.
type Holding struct {
	UserID        string  `bson:"user_id" json:"userId"`
	Symbol        string  `bson:"symbol" json:"symbol"`
	Exchange      string  `bson:"exchange" json:"exchange"`
	PurchasePrice float64 `bson:"purchase_price" json:"purchasePrice"`
	Quantity      float64 `bson:"quantity" json:"quantity"`
}

// Quote is the merged result of the provider fallback chain.
// Every field is optional: a provider that fails or returns garbage
// leaves its fields nil rather than zero.
type Quote struct {
	CMP            *float64 `json:"cmp,omitempty"`
	PERatio        *float64 `json:"peRatio,omitempty"`
	LatestEarnings *string  `json:"latestEarnings,omitempty"`
}

// StockLine is one enriched row of a portfolio snapshot.
type StockLine struct {
	Symbol           string   `json:"symbol"`
	Exchange         string   `json:"exchange"`
	PurchasePrice    float64  `json:"purchasePrice"`
	Quantity         float64  `json:"quantity"`
	Investment       float64  `json:"investment"`
	CMP              *float64 `json:"cmp,omitempty"`
	PERatio          *float64 `json:"peRatio,omitempty"`
	LatestEarnings   *string  `json:"latestEarnings,omitempty"`
	PresentValue     float64  `json:"presentValue"`
	GainLoss         float64  `json:"gainLoss"`
	PortfolioPercent float64  `json:"portfolioPercent"`
}

// PortfolioSnapshot is a whole-document portfolio valuation. It is built
// once and replaced atomically on refresh, never patched field-by-field.
type PortfolioSnapshot struct {
	UserID          string      `json:"userId"`
	Stocks          []StockLine `json:"stocks"`
	TotalInvestment float64     `json:"totalInvestment"`
	CachedAt        time.Time   `json:"cachedAt"`
}

// RefreshMessage is one entry of the refresh queue.
type RefreshMessage struct {
	StreamID string `json:"streamId"`
	UserID   string `json:"userId"`
}

// cmpTolerance is the price delta below which a fetched CMP is considered
// indistinguishable from the purchase price.
const cmpTolerance = 0.01

// IsLive reports whether a snapshot carries real market data: at least one
// line has a CMP that materially differs from its purchase price, or a
// positive P/E ratio. A snapshot failing this check is treated as stale
// regardless of remaining TTL and rebuilt on the next read.
//
// An empty portfolio is live: there is nothing to enrich, and caching it
// prevents repeated rebuilds.
//
// Known misclassification: a portfolio whose true market price equals its
// purchase price (and has no P/E) looks permanently stale. Each read then
// triggers one rebuild, but the unconditional cache write keeps that from
// turning into a hot loop.
func IsLive(snap *PortfolioSnapshot) bool {
	if snap == nil {
		return false
	}
	if len(snap.Stocks) == 0 {
		return true
	}
	for _, line := range snap.Stocks {
		if line.CMP != nil && math.Abs(*line.CMP-line.PurchasePrice) > cmpTolerance {
			return true
		}
		if line.PERatio != nil && *line.PERatio > 0 {
			return true
		}
	}
	return false
}
