package quotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYahooClient_FetchFullQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v10/finance/quoteSummary/TCS.NS")
		w.Write([]byte(`{"quoteSummary":{"result":[{
			"price":{"regularMarketPrice":{"raw":3800.5,"fmt":"3,800.50"}},
			"summaryDetail":{"trailingPE":{"raw":29.54}},
			"calendarEvents":{"earnings":{"earningsDate":[{"fmt":"2025-07-10"}]}}
		}]}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL, srv.Client())
	q, err := c.Fetch(context.Background(), "TCS", "NSE")
	require.NoError(t, err)
	assert.Equal(t, 3800.5, q.CMP)
	assert.Equal(t, 29.54, *q.PERatio)
	assert.Equal(t, "2025-07-10", *q.LatestEarnings)
}

func TestYahooClient_MissingPriceIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[{"summaryDetail":{"trailingPE":{"raw":29.54}}}]}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL, srv.Client())
	_, err := c.Fetch(context.Background(), "TCS", "NSE")
	assert.Error(t, err)
}

func TestYahooClient_MissingRatioStillSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[{"price":{"regularMarketPrice":{"raw":3800.5}}}]}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL, srv.Client())
	q, err := c.Fetch(context.Background(), "TCS", "NSE")
	require.NoError(t, err)
	assert.Equal(t, 3800.5, q.CMP)
	assert.Nil(t, q.PERatio)
	assert.Nil(t, q.LatestEarnings)
}

func TestYahooClient_InsanePriceIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[{"price":{"regularMarketPrice":{"raw":-1}}}]}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL, srv.Client())
	_, err := c.Fetch(context.Background(), "TCS", "NSE")
	assert.Error(t, err)
}

func TestYahooClient_Non200IsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL, srv.Client())
	_, err := c.Fetch(context.Background(), "TCS", "NSE")
	assert.Error(t, err)
}

func TestStooqClient_FetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tcs", r.URL.Query().Get("s"))
		w.Write([]byte("Symbol,Date,Time,Open,High,Low,Close,Volume\nTCS,2025-08-29,15:30:00,3750,3810,3740,3790.25,1200000\n"))
	}))
	defer srv.Close()

	c := NewStooqClient(srv.URL, srv.Client())
	price, err := c.FetchPrice(context.Background(), "TCS", "NSE")
	require.NoError(t, err)
	assert.Equal(t, 3790.25, price)
}

func TestStooqClient_UnknownSymbolIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Symbol,Date,Time,Open,High,Low,Close,Volume\nBOGUS,N/D,N/D,N/D,N/D,N/D,N/D,N/D\n"))
	}))
	defer srv.Close()

	c := NewStooqClient(srv.URL, srv.Client())
	_, err := c.FetchPrice(context.Background(), "BOGUS", "")
	assert.Error(t, err)
}

func TestSymbolMapping(t *testing.T) {
	assert.Equal(t, "TCS.NS", yahooSymbol("TCS", "NSE"))
	assert.Equal(t, "TCS.BO", yahooSymbol("TCS", "BSE"))
	assert.Equal(t, "AAPL", yahooSymbol("AAPL", "NASDAQ"))
	assert.Equal(t, "aapl.us", stooqSymbol("AAPL", "NASDAQ"))
	assert.Equal(t, "tcs", stooqSymbol("TCS", "NSE"))
	assert.Equal(t, "TCS:NSE", googleSymbol("tcs", "nse"))
}
