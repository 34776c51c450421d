package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// YahooClient reads the quote-summary endpoint, which returns price, trailing
// P/E and the next earnings date in a single response. The endpoint is
// unauthenticated and unversioned; every field is validated before use.
type YahooClient struct {
	baseURL string
	http    *http.Client
}

func NewYahooClient(baseURL string, client *http.Client) *YahooClient {
	return &YahooClient{baseURL: baseURL, http: client}
}

func (y *YahooClient) Name() string { return sourceYahoo }

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				RegularMarketPrice struct {
					Raw *float64 `json:"raw"`
				} `json:"regularMarketPrice"`
			} `json:"price"`
			SummaryDetail struct {
				TrailingPE struct {
					Raw *float64 `json:"raw"`
				} `json:"trailingPE"`
			} `json:"summaryDetail"`
			CalendarEvents struct {
				Earnings struct {
					EarningsDate []struct {
						Fmt *string `json:"fmt"`
					} `json:"earningsDate"`
				} `json:"earnings"`
			} `json:"calendarEvents"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// Fetch returns a FullQuote or an error. A missing or insane price is a
// source failure; missing ratio or earnings just leave those fields nil.
func (y *YahooClient) Fetch(ctx context.Context, symbol, exchange string) (FullQuote, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price%%2CsummaryDetail%%2CcalendarEvents",
		y.baseURL, url.PathEscape(yahooSymbol(symbol, exchange)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return FullQuote{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := y.http.Do(req)
	if err != nil {
		return FullQuote{}, fmt.Errorf("yahoo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FullQuote{}, fmt.Errorf("yahoo status %d", resp.StatusCode)
	}

	var body quoteSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return FullQuote{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if len(body.QuoteSummary.Result) == 0 {
		return FullQuote{}, fmt.Errorf("yahoo: empty result for %s", symbol)
	}

	res := body.QuoteSummary.Result[0]
	price := res.Price.RegularMarketPrice.Raw
	if price == nil || !sanePrice(*price) {
		return FullQuote{}, fmt.Errorf("yahoo: no usable price for %s", symbol)
	}

	q := FullQuote{CMP: *price}
	if pe := res.SummaryDetail.TrailingPE.Raw; pe != nil && saneRatio(*pe) {
		q.PERatio = pe
	}
	if dates := res.CalendarEvents.Earnings.EarningsDate; len(dates) > 0 && dates[0].Fmt != nil && *dates[0].Fmt != "" {
		q.LatestEarnings = dates[0].Fmt
	}
	return q, nil
}

const userAgent = "Mozilla/5.0 (compatible; 8byte-portfolio/1.0)"
