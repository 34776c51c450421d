package quotes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// GoogleClient scrapes the Google Finance quote page for P/E ratio and the
// latest earnings date. The page is plain HTML with no stable markup, so
// extraction is a keyword-adjacent pattern search over a bounded prefix of
// the body rather than DOM traversal.
type GoogleClient struct {
	baseURL string
	http    *http.Client
}

func NewGoogleClient(baseURL string, client *http.Client) *GoogleClient {
	return &GoogleClient{baseURL: baseURL, http: client}
}

func (g *GoogleClient) Name() string { return sourceGoogle }

// scanLimit bounds how much of the page is searched. The stats block sits
// near the top; scanning further only invites false positives from footers
// and related-news markup.
const scanLimit = 256 << 10

var (
	// "P/E ratio" label followed (within a short window of markup) by a number.
	peRatioPattern = regexp.MustCompile(`(?is)P/E\s*ratio.{0,400}?>\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*<`)

	// A date token is accepted only adjacent to an earnings keyword, to keep
	// unrelated dates (news timestamps, footer copyright) out.
	earningsPattern = regexp.MustCompile(`(?is)earnings.{0,400}?([A-Z][a-z]{2}\s+[0-9]{1,2},\s+[0-9]{4})`)
)

// FetchRatios fetches and scans the quote page. Failure to find the P/E and
// the earnings date both is a source failure; finding either one succeeds.
func (g *GoogleClient) FetchRatios(ctx context.Context, symbol, exchange string) (RatioQuote, error) {
	endpoint := fmt.Sprintf("%s/finance/quote/%s", g.baseURL, url.PathEscape(googleSymbol(symbol, exchange)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RatioQuote{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.http.Do(req)
	if err != nil {
		return RatioQuote{}, fmt.Errorf("google request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RatioQuote{}, fmt.Errorf("google status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, scanLimit))
	if err != nil {
		return RatioQuote{}, fmt.Errorf("google read body: %w", err)
	}

	q := extractRatios(body)
	if q.PERatio == nil && q.LatestEarnings == nil {
		return RatioQuote{}, fmt.Errorf("google: no ratio or earnings found for %s", symbol)
	}
	return q, nil
}

func extractRatios(body []byte) RatioQuote {
	var q RatioQuote

	if m := peRatioPattern.FindSubmatch(body); m != nil {
		raw := strings.ReplaceAll(string(m[1]), ",", "")
		if v, err := strconv.ParseFloat(raw, 64); err == nil && saneRatio(v) {
			q.PERatio = &v
		}
	}

	if m := earningsPattern.FindSubmatch(body); m != nil {
		date := normalizeSpaces(string(m[1]))
		q.LatestEarnings = &date
	}

	return q
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
