package config

import (
	"os"
	"strings"
)

type Config struct {
	ListenAddr   string
	StoreBackend string
	DBPath       string
	MySQLDSN     string
	FeedBackend  string
	RedisAddr    string
	RedisStream  string
	KafkaBrokers []string
	KafkaTopic   string
	JWTSecret    string
	Operator     string
	LogLevel     string
	LogFile      string
}

func Load() *Config {
	return &Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		StoreBackend: getEnv("STORE_BACKEND", "sqlite"),
		DBPath:       getEnv("DB_PATH", "/data/ledger.db"),
		MySQLDSN:     getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/ledger?parseTime=true"),
		FeedBackend:  getEnv("FEED_BACKEND", "log"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisStream:  getEnv("REDIS_STREAM", "ledger:events"),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "ledger-events"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		Operator:     getEnv("OPERATOR", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
