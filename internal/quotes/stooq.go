package quotes

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// StooqClient reads Stooq's CSV quote endpoint, which serves the last close
// price only. It is the price fallback when the primary source is down.
type StooqClient struct {
	baseURL string
	http    *http.Client
}

func NewStooqClient(baseURL string, client *http.Client) *StooqClient {
	return &StooqClient{baseURL: baseURL, http: client}
}

func (s *StooqClient) Name() string { return sourceStooq }

// FetchPrice returns the close price for one symbol. Stooq answers a header
// row plus one data row; an unknown symbol yields "N/D" in every column.
func (s *StooqClient) FetchPrice(ctx context.Context, symbol, exchange string) (float64, error) {
	endpoint := fmt.Sprintf("%s/q/l/?s=%s&f=sd2t2ohlcv&h&e=csv",
		s.baseURL, url.QueryEscape(stooqSymbol(symbol, exchange)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("stooq request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("stooq status %d", resp.StatusCode)
	}

	r := csv.NewReader(io.LimitReader(resp.Body, 64<<10))
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("stooq read header: %w", err)
	}
	row, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("stooq read row: %w", err)
	}

	closeIdx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), "close") {
			closeIdx = i
			break
		}
	}
	if closeIdx < 0 || closeIdx >= len(row) {
		return 0, fmt.Errorf("stooq: close column missing for %s", symbol)
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(row[closeIdx]), 64)
	if err != nil {
		return 0, fmt.Errorf("stooq: unparsable close %q for %s", row[closeIdx], symbol)
	}
	if !sanePrice(price) {
		return 0, fmt.Errorf("stooq: implausible close %v for %s", price, symbol)
	}
	return price, nil
}
