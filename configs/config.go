package config

import (
	"os"
	"strconv"
)

type Config struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	BloggerBlogID      string
	PostgresURI        string
	RedisURI           string
	FrontendURL        string
	SecretKey          string
	CookieName         string
	SchedulerSpec      string
	TokenRefreshSpec   string
	PublishWorkers     int
	PublishTimeoutSec  int
}

func LoadConfig() *Config {
	return &Config{
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3000/login/callback"),
		BloggerBlogID:      getEnv("BLOGGER_BLOG_ID", ""),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", ""),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		SecretKey:          getEnv("SECRET_KEY", ""),
		CookieName:         getEnv("COOKIE_NAME", "blogflow_session"),
		SchedulerSpec:      getEnv("SCHEDULER_SPEC", "@every 0h1m0s"),
		TokenRefreshSpec:   getEnv("TOKEN_REFRESH_SPEC", "@every 0h10m0s"),
		PublishWorkers:     getEnvInt("PUBLISH_WORKERS", 5),
		PublishTimeoutSec:  getEnvInt("PUBLISH_TIMEOUT_SEC", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
