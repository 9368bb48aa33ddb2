package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crypto-alert-bot/internal/types"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// BinanceClient reads the public spot REST API.
type BinanceClient struct {
	baseURL string
	client  *http.Client
}

func NewBinanceClient(baseURL string, timeout time.Duration) *BinanceClient {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &BinanceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *BinanceClient) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	params := url.Values{"symbol": {strings.ToUpper(symbol)}}
	body, err := c.get(ctx, "/api/v3/ticker/price", params)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "binance price %s", symbol)
	}

	var payload struct {
		Symbol string              `json:"symbol"`
		Price  decimal.NullDecimal `json:"price"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, errors.Wrapf(err, "binance price %s: decode", symbol)
	}
	if !payload.Price.Valid {
		return decimal.Zero, errors.Wrapf(ErrNoData, "binance price %s", symbol)
	}
	return payload.Price.Decimal, nil
}

// Candles returns up to limit klines, oldest first. Binance encodes each kline
// as a positional array with prices as strings.
func (c *BinanceClient) Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	params := url.Values{
		"symbol":   {strings.ToUpper(symbol)},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}
	body, err := c.get(ctx, "/api/v3/klines", params)
	if err != nil {
		return nil, errors.Wrapf(err, "binance klines %s %s", symbol, interval)
	}

	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.Wrapf(err, "binance klines %s %s: decode", symbol, interval)
	}

	candles := make([]types.Candle, 0, len(raw))
	for i, k := range raw {
		candle, err := parseKline(k)
		if err != nil {
			return nil, errors.Wrapf(err, "binance klines %s %s: entry %d", symbol, interval, i)
		}
		candles = append(candles, candle)
	}
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("binance klines %s %s: %s", symbol, interval, spew.Sdump(candles))
	}
	return lastN(candles, limit), nil
}

func parseKline(k []json.RawMessage) (types.Candle, error) {
	if len(k) < 5 {
		return types.Candle{}, errors.Errorf("short kline (%d fields)", len(k))
	}
	var openTime int64
	if err := json.Unmarshal(k[0], &openTime); err != nil {
		return types.Candle{}, errors.Wrap(err, "open time")
	}
	var ohlc [4]decimal.Decimal
	for i := range ohlc {
		if err := json.Unmarshal(k[i+1], &ohlc[i]); err != nil {
			return types.Candle{}, errors.Wrapf(err, "field %d", i+1)
		}
	}
	return types.Candle{
		OpenTime: time.UnixMilli(openTime).UTC(),
		Open:     ohlc[0],
		High:     ohlc[1],
		Low:      ohlc[2],
		Close:    ohlc[3],
	}, nil
}

func (c *BinanceClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	log.WithFields(log.Fields{
		"url":      endpoint,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("binance request complete")

	return readBody(resp)
}
