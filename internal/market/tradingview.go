package market

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crypto-alert-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// tradingViewResolutions maps Binance interval tokens to TradingView
// resolutions and their length in seconds.
var tradingViewResolutions = map[string]struct {
	Resolution string
	Step       int64
}{
	"15m": {"15", 15 * 60},
	"30m": {"30", 30 * 60},
	"1h":  {"60", 60 * 60},
	"4h":  {"240", 4 * 60 * 60},
	"1d":  {"D", 24 * 60 * 60},
}

// TradingViewClient reads the semi-public scanner and history endpoints.
// Symbols are looked up on the BINANCE exchange.
type TradingViewClient struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

func NewTradingViewClient(baseURL string, timeout time.Duration) *TradingViewClient {
	return &TradingViewClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

func (c *TradingViewClient) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	payload := map[string]interface{}{
		"symbols": map[string]interface{}{
			"tickers": []string{"BINANCE:" + strings.ToUpper(symbol)},
			"query":   map[string]interface{}{"types": []string{}},
		},
		"columns": []string{"close"},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return decimal.Zero, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/crypto/scan", bytes.NewReader(raw))
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "tradingview price %s", symbol)
	}

	var resp struct {
		Data []struct {
			D []decimal.NullDecimal `json:"d"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, errors.Wrapf(err, "tradingview price %s: decode", symbol)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].D) == 0 || !resp.Data[0].D[0].Valid {
		return decimal.Zero, errors.Wrapf(ErrNoData, "tradingview price %s", symbol)
	}
	return resp.Data[0].D[0].Decimal, nil
}

func (c *TradingViewClient) Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	res, ok := tradingViewResolutions[interval]
	if !ok {
		return nil, errors.Errorf("tradingview: unsupported interval %q", interval)
	}

	now := c.now().Unix()
	params := url.Values{
		"symbol":     {"BINANCE:" + strings.ToUpper(symbol)},
		"resolution": {res.Resolution},
		"from":       {strconv.FormatInt(now-res.Step*int64(limit), 10)},
		"to":         {strconv.FormatInt(now, 10)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "tradingview history %s %s", symbol, interval)
	}

	var hist struct {
		T []int64           `json:"t"`
		O []decimal.Decimal `json:"o"`
		H []decimal.Decimal `json:"h"`
		L []decimal.Decimal `json:"l"`
		C []decimal.Decimal `json:"c"`
	}
	if err := json.Unmarshal(body, &hist); err != nil {
		return nil, errors.Wrapf(err, "tradingview history %s %s: decode", symbol, interval)
	}

	n := minLen(len(hist.T), len(hist.O), len(hist.H), len(hist.L), len(hist.C))
	candles := make([]types.Candle, 0, n)
	for i := 0; i < n; i++ {
		candles = append(candles, types.Candle{
			OpenTime: time.Unix(hist.T[i], 0).UTC(),
			Open:     hist.O[i],
			High:     hist.H[i],
			Low:      hist.L[i],
			Close:    hist.C[i],
		})
	}
	return lastN(candles, limit), nil
}

func (c *TradingViewClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	log.WithFields(log.Fields{
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("tradingview request complete")

	return readBody(resp)
}

func minLen(lens ...int) int {
	m := lens[0]
	for _, l := range lens[1:] {
		if l < m {
			m = l
		}
	}
	return m
}
