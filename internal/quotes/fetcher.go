package quotes

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Manas2412/8Byte/pkg/config"
	"github.com/Manas2412/8Byte/pkg/models"
)

// Fetcher runs the three-provider fallback chain. Yahoo answers price, ratio
// and earnings in one call; when it fails, Stooq covers the price and Google
// Finance covers ratio and earnings. Each source has its own cache entry and
// its own rate gate, and a source's failure never touches another source's
// cache.
//
// FetchQuote never returns an error: total failure yields an all-nil quote.
type Fetcher struct {
	yahoo  FullQuoteSource
	stooq  PriceSource
	google RatioSource

	cache      *SourceCache
	yahooGate  *gate
	stooqGate  *gate
	googleGate *gate

	logger *zap.Logger
}

// NewFetcher wires the production chain from config and the shared clients.
func NewFetcher(cfg config.ProviderConfig, cacheCfg config.CacheConfig, rdb *redis.Client, logger *zap.Logger) *Fetcher {
	httpClient := newHTTPClient(cfg.Timeout)
	ttls := map[string]time.Duration{
		sourceYahoo:  cacheCfg.PriceTTL,
		sourceStooq:  cacheCfg.PriceTTL,
		sourceGoogle: cacheCfg.RatioTTL,
	}
	return &Fetcher{
		yahoo:      NewYahooClient(cfg.YahooBaseURL, httpClient),
		stooq:      NewStooqClient(cfg.StooqBaseURL, httpClient),
		google:     NewGoogleClient(cfg.GoogleBaseURL, httpClient),
		cache:      NewSourceCache(rdb, logger, ttls),
		yahooGate:  newGate(cfg.YahooMinInterval),
		stooqGate:  newGate(cfg.StooqMinInterval),
		googleGate: newGate(cfg.GoogleMinInterval),
		logger:     logger,
	}
}

// NewFetcherWithSources exists for tests and alternative wiring.
func NewFetcherWithSources(yahoo FullQuoteSource, stooq PriceSource, google RatioSource, cache *SourceCache, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		yahoo:      yahoo,
		stooq:      stooq,
		google:     google,
		cache:      cache,
		yahooGate:  newGate(0),
		stooqGate:  newGate(0),
		googleGate: newGate(0),
		logger:     logger,
	}
}

// FetchQuote consults the primary source first and returns immediately on
// success, leaving the fallbacks untouched. On primary failure it fills the
// price from Stooq and, independently of that outcome, the ratio and
// earnings from Google.
func (f *Fetcher) FetchQuote(ctx context.Context, symbol, exchange string) models.Quote {
	if full, ok := f.fullQuote(ctx, symbol, exchange); ok {
		return models.Quote{CMP: &full.CMP, PERatio: full.PERatio, LatestEarnings: full.LatestEarnings}
	}

	var q models.Quote
	if price, ok := f.price(ctx, symbol, exchange); ok {
		q.CMP = &price
	}
	if ratios, ok := f.ratios(ctx, symbol, exchange); ok {
		q.PERatio = ratios.PERatio
		q.LatestEarnings = ratios.LatestEarnings
	}
	return q
}

func (f *Fetcher) fullQuote(ctx context.Context, symbol, exchange string) (FullQuote, bool) {
	var cached FullQuote
	if f.cache.Get(ctx, sourceYahoo, symbol, exchange, &cached) {
		return cached, true
	}
	if err := f.yahooGate.wait(ctx); err != nil {
		return FullQuote{}, false
	}
	full, err := f.yahoo.Fetch(ctx, symbol, exchange)
	if err != nil {
		f.logger.Warn("primary quote source failed",
			zap.String("source", f.yahoo.Name()), zap.String("symbol", symbol), zap.Error(err))
		return FullQuote{}, false
	}
	f.cache.Put(ctx, sourceYahoo, symbol, exchange, full)
	return full, true
}

func (f *Fetcher) price(ctx context.Context, symbol, exchange string) (float64, bool) {
	var cached pricePayload
	if f.cache.Get(ctx, sourceStooq, symbol, exchange, &cached) {
		return cached.Price, true
	}
	if err := f.stooqGate.wait(ctx); err != nil {
		return 0, false
	}
	price, err := f.stooq.FetchPrice(ctx, symbol, exchange)
	if err != nil {
		f.logger.Warn("price fallback failed",
			zap.String("source", f.stooq.Name()), zap.String("symbol", symbol), zap.Error(err))
		return 0, false
	}
	f.cache.Put(ctx, sourceStooq, symbol, exchange, pricePayload{Price: price})
	return price, true
}

func (f *Fetcher) ratios(ctx context.Context, symbol, exchange string) (RatioQuote, bool) {
	var cached RatioQuote
	if f.cache.Get(ctx, sourceGoogle, symbol, exchange, &cached) {
		return cached, true
	}
	if err := f.googleGate.wait(ctx); err != nil {
		return RatioQuote{}, false
	}
	ratios, err := f.google.FetchRatios(ctx, symbol, exchange)
	if err != nil {
		f.logger.Warn("ratio fallback failed",
			zap.String("source", f.google.Name()), zap.String("symbol", symbol), zap.Error(err))
		return RatioQuote{}, false
	}
	f.cache.Put(ctx, sourceGoogle, symbol, exchange, ratios)
	return ratios, true
}
