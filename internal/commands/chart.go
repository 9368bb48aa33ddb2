package commands

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"crypto-alert-bot/internal/types"
	"crypto-alert-bot/lib/helpers"
	"crypto-alert-bot/lib/translation"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultChartWindow = "1h"
	chartCandles       = 60
)

var (
	backgroundColor = drawing.Color{R: 55, G: 55, B: 55, A: 255}
	textColor       = drawing.Color{R: 200, G: 200, B: 200, A: 255}
	gridColor       = drawing.Color{R: 100, G: 100, B: 100, A: 128}
	seriesColor     = drawing.Color{R: 0, G: 122, B: 255, A: 255}
)

// Chart renders a PNG of the recent closes of a symbol. When the arguments
// are invalid it returns no data and the usage text as caption.
func (c *Commands) Chart(ctx context.Context, args string) ([]byte, string, error) {
	log.Debugf("processing command /chart with argument :%s", args)

	parts := fields(args)
	if len(parts) < 1 || len(parts) > 2 {
		return nil, translation.Translate("Usage: /chart <SYMBOL> [WINDOW] (e.g. /chart BTCUSDT 4h)"), nil
	}
	symbol, ok := parseSymbol(parts[0])
	if !ok {
		return nil, invalidSymbol(), nil
	}
	windowName := defaultChartWindow
	if len(parts) == 2 {
		windowName = parts[1]
	}
	w, ok := types.ResolveWindow(windowName)
	if !ok {
		return nil, translation.Translate("Unknown window %s. Use one of: %s", windowName, strings.Join(types.WindowNames(), ", ")), nil
	}

	key := symbol + "/" + w.Name
	if cachedItem, found := c.charts.get(key); found {
		log.Debugf("returning cached chart for %s", key)
		return cachedItem.ChartData, cachedItem.Caption, nil
	}

	candles, err := c.market.Candles(ctx, symbol, w.Interval, chartCandles)
	if err != nil {
		return nil, "", errors.Wrapf(err, "command /chart %s", key)
	}
	if len(candles) < 2 {
		return nil, translation.Translate("Not enough market data for %s", symbol), nil
	}

	chartData, err := renderChart(symbol, w, candles)
	if err != nil {
		return nil, "", errors.Wrapf(err, "render chart %s", key)
	}
	caption := chartCaption(symbol, w, candles)

	c.charts.set(key, chartData, caption, chartTTL)
	return chartData, caption, nil
}

func chartCaption(symbol string, w types.Window, candles []types.Candle) string {
	first := candles[0].Close
	last := candles[len(candles)-1].Close

	change := "n/a"
	if !first.IsZero() {
		change = helpers.FormatPercent(last.Sub(first).Div(first).Mul(decimal.NewFromInt(100)))
	}

	return fmt.Sprintf("*%s* %s\n%s",
		helpers.EscapeMarkdownV2(symbol),
		helpers.EscapeMarkdownV2(translation.Translate("%d × %s candles", len(candles), w.Name)),
		helpers.EscapeMarkdownV2(translation.Translate("Last: %s (%s)", helpers.FormatPriceUS(last, false), change)),
	)
}

func renderChart(symbol string, w types.Window, candles []types.Candle) ([]byte, error) {
	times := make([]time.Time, 0, len(candles))
	prices := make([]float64, 0, len(candles))
	for _, candle := range candles {
		times = append(times, candle.OpenTime)
		prices = append(prices, candle.Close.InexactFloat64())
	}

	minPrice, maxPrice := getMinMax(prices)
	padding := (maxPrice - minPrice) * 0.1
	if padding == 0 {
		padding = maxPrice*0.01 + 1e-8
	}

	timeFormat := "15:04"
	if w.Duration() >= 4*time.Hour {
		timeFormat = "02-Jan"
	}

	axisStyle := chart.Style{FontColor: textColor, StrokeColor: textColor, FontSize: 10}

	graph := chart.Chart{
		Title:      fmt.Sprintf("%s %s", symbol, w.Name),
		TitleStyle: chart.Style{FontColor: textColor, FontSize: 14},
		Width:      1200,
		Height:     600,
		Background: chart.Style{
			FillColor: backgroundColor,
			Padding:   chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: backgroundColor},
		XAxis: chart.XAxis{
			Style:          axisStyle,
			ValueFormatter: chart.TimeValueFormatterWithFormat(timeFormat),
		},
		YAxis: chart.YAxis{
			Style: axisStyle,
			Range: &chart.ContinuousRange{Min: minPrice - padding, Max: maxPrice + padding},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return helpers.FormatPriceUS(decimal.NewFromFloat(f), false)
				}
				return ""
			},
			GridMajorStyle: chart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    symbol,
				XValues: times,
				YValues: prices,
				Style: chart.Style{
					StrokeColor: seriesColor,
					StrokeWidth: 2,
					FillColor:   seriesColor.WithAlpha(25),
				},
			},
		},
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func getMinMax(prices []float64) (min, max float64) {
	if len(prices) == 0 {
		return 0, 1
	}

	min, max = prices[0], prices[0]
	for _, price := range prices {
		if price < min {
			min = price
		}
		if price > max {
			max = price
		}
	}
	return min, max
}
