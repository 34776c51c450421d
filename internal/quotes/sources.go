package quotes

import (
	"context"
	"math"
	"net"
	"net/http"
	"strings"
	"time"
)

// Source names double as cache-key segments.
const (
	sourceYahoo  = "yahoo"
	sourceStooq  = "stooq"
	sourceGoogle = "google"
)

// FullQuoteSource returns price, ratio and earnings in one call (provider A).
type FullQuoteSource interface {
	Name() string
	Fetch(ctx context.Context, symbol, exchange string) (FullQuote, error)
}

// PriceSource returns the current price only (provider B).
type PriceSource interface {
	Name() string
	FetchPrice(ctx context.Context, symbol, exchange string) (float64, error)
}

// RatioSource returns P/E ratio and latest earnings only (provider C).
type RatioSource interface {
	Name() string
	FetchRatios(ctx context.Context, symbol, exchange string) (RatioQuote, error)
}

// FullQuote is provider A's parsed response. CMP is mandatory for a call to
// count as successful; ratio and earnings stay nil when the upstream omits them.
type FullQuote struct {
	CMP            float64  `json:"cmp"`
	PERatio        *float64 `json:"peRatio,omitempty"`
	LatestEarnings *string  `json:"latestEarnings,omitempty"`
}

// RatioQuote is provider C's parsed response.
type RatioQuote struct {
	PERatio        *float64 `json:"peRatio,omitempty"`
	LatestEarnings *string  `json:"latestEarnings,omitempty"`
}

// pricePayload is provider B's cached shape.
type pricePayload struct {
	Price float64 `json:"price"`
}

// newHTTPClient builds the shared client for all provider calls. Connection
// reuse matters here: the refresh worker hits the same few hosts in bursts.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// sanePrice rejects non-finite and out-of-range prices. Bad numbers are
// treated as absent, never as zero.
func sanePrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 && v < 1e9
}

// saneRatio rejects non-finite and implausible P/E ratios.
func saneRatio(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 && v < 1e5
}

// yahooSymbol maps an (symbol, exchange) pair onto Yahoo's suffix scheme.
func yahooSymbol(symbol, exchange string) string {
	switch strings.ToUpper(exchange) {
	case "NSE":
		return symbol + ".NS"
	case "BSE":
		return symbol + ".BO"
	default:
		return symbol
	}
}

// stooqSymbol maps onto Stooq's lowercase convention. US listings carry a
// ".us" suffix; other exchanges pass through.
func stooqSymbol(symbol, exchange string) string {
	s := strings.ToLower(symbol)
	switch strings.ToUpper(exchange) {
	case "NYSE", "NASDAQ":
		return s + ".us"
	default:
		return s
	}
}

// googleSymbol maps onto Google Finance's SYMBOL:EXCHANGE path form.
func googleSymbol(symbol, exchange string) string {
	if exchange == "" {
		return strings.ToUpper(symbol)
	}
	return strings.ToUpper(symbol) + ":" + strings.ToUpper(exchange)
}
