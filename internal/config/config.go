package config

import (
	"os"
	"strconv"
	"sync"
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort          string
	StorePath         string
	RemoteBaseURL     string
	ProbeTimeoutSec   int
	RequestTimeoutSec int
	MaxRetries        int
	ReminderLeadMin   int
	ActionLogCap      int
	SyncCooldownSec   int
	PollIntervalSec   int
	JWTSecret         string
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from env).
func Get() *Config {
	cfgOnce.Do(func() {
		cfg = &Config{
			HTTPPort:          getEnv("HTTP_PORT", "8080"),
			StorePath:         getEnv("STORE_PATH", "data/tasks.v2.json"),
			RemoteBaseURL:     getEnv("REMOTE_BASE_URL", "http://localhost:3000"),
			ProbeTimeoutSec:   getIntEnv("PROBE_TIMEOUT_SEC", 5),
			RequestTimeoutSec: getIntEnv("REQUEST_TIMEOUT_SEC", 15),
			MaxRetries:        getIntEnv("SYNC_MAX_RETRIES", 3),
			ReminderLeadMin:   getIntEnv("REMINDER_LEAD_MIN", 30),
			ActionLogCap:      getIntEnv("ACTION_LOG_CAP", 500),
			SyncCooldownSec:   getIntEnv("SYNC_COOLDOWN_SEC", 2),
			PollIntervalSec:   getIntEnv("REACHABILITY_POLL_SEC", 30),
			JWTSecret:         os.Getenv("JWT_SECRET"),
		}
	})
	return cfg
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
