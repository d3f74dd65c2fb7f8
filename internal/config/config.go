package config

import (
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

type Config struct {
	AppPort  string
	LogLevel string

	// 为空时不启用 Redis 共享缓存
	RedisAddr string
	CacheTTL  time.Duration
	WarmCron  string

	FeedsFile   string
	FeedTimeout time.Duration
	NewsOrder   string

	DoorayBaseURL    string
	DoorayAPIKey     string
	DoorayCalendarID string
	DoorayMemberID   string
}

func Load() *Config {
	cfg := &Config{
		AppPort:          getEnv("APP_PORT", "9000"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		CacheTTL:         getDuration("CACHE_TTL", 30*time.Minute),
		WarmCron:         getEnv("WARM_CRON", "*/30 * * * *"),
		FeedsFile:        getEnv("FEEDS_FILE", ""),
		FeedTimeout:      getDuration("FEED_TIMEOUT", 8*time.Second),
		NewsOrder:        getEnv("NEWS_ORDER", "shuffle"),
		DoorayBaseURL:    getEnv("DOORAY_BASE_URL", "https://api.dooray.com"),
		DoorayAPIKey:     getEnv("DOORAY_API_KEY", ""),
		DoorayCalendarID: getEnv("DOORAY_CALENDAR_ID", ""),
		DoorayMemberID:   getEnv("DOORAY_MEMBER_ID", ""),
	}

	log.Printf("config loaded: port=%s order=%s redis=%t dooray=%t",
		cfg.AppPort, cfg.NewsOrder, cfg.RedisAddr != "", cfg.DoorayAPIKey != "" && cfg.DoorayCalendarID != "")
	return cfg
}

// SetupLogging 按 LOG_LEVEL 设置 logrus 级别，无法识别时保持 info
func (c *Config) SetupLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		log.Warnf("unknown log level %q, using info", c.LogLevel)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getDuration 解析失败时使用默认值，例如 "30m"、"8s"
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warnf("invalid duration %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
