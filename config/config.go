package config

import (
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const DefaultPollInterval = 15

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN", "TELEGRAM_TOKEN")
		viper.BindEnv("poll_interval", "POLL_INTERVAL")
		viper.BindEnv("db_driver", "DB_DRIVER")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("db_dsn", "DB_DSN")
		viper.BindEnv("market_source", "MARKET_SOURCE")
		viper.BindEnv("binance_api", "BINANCE_API")
		viper.BindEnv("tradingview_api", "TRADINGVIEW_API")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("fetch_concurrency", "FETCH_CONCURRENCY")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")

		viper.SetDefault("poll_interval", DefaultPollInterval)
		viper.SetDefault("db_driver", "sqlite")
		viper.SetDefault("db_path", "data/bot.db")
		viper.SetDefault("market_source", "binance")
		viper.SetDefault("binance_api", "https://api.binance.com")
		viper.SetDefault("tradingview_api", "https://scanner.tradingview.com")
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("fetch_concurrency", 4)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

// PollInterval returns the scheduler period. Anything that is not a positive
// whole number of seconds falls back to the default.
func PollInterval() time.Duration {
	InitConfig()
	return time.Duration(positiveInt("poll_interval", viper.Get("poll_interval"), DefaultPollInterval)) * time.Second
}

// FetchConcurrency bounds parallel market data requests within one pass.
func FetchConcurrency() int {
	InitConfig()
	return positiveInt("fetch_concurrency", viper.Get("fetch_concurrency"), 4)
}

// positiveInt reads raw as a base 10 integer. Env values arrive as strings
// and are parsed strictly so that "010" means ten, not an octal eight.
func positiveInt(key string, raw interface{}, def int) int {
	var n int
	var err error
	if s, ok := raw.(string); ok {
		n, err = strconv.Atoi(strings.TrimSpace(s))
	} else {
		n, err = cast.ToIntE(raw)
	}
	if err != nil || n <= 0 {
		log.WithField("key", key).Errorf("invalid value %q, using default %d", cast.ToString(raw), def)
		return def
	}
	return n
}
