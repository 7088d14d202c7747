package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config captures everything main needs to wire the service.
type Config struct {
	Server   Server
	Database Database
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	RequestTimeout time.Duration
}

// Database captures connection-pool configuration. Field names mirror the
// DB_* environment variables the deployment already uses.
type Database struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	MaxConns     int
	QueryTimeout time.Duration
}

// DSN renders the lib/pq connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:           envString("ADDR", ":8080"),
			RequestTimeout: envDuration("HTTP_REQUEST_TIMEOUT", 30*time.Second),
		},
		Database: Database{
			Host:         envString("DB_HOST", "localhost"),
			Port:         envInt("DB_PORT", 5432),
			User:         envString("DB_USER", "postgres"),
			Password:     os.Getenv("DB_PASSWORD"),
			Name:         envString("DB_NAME", "persreg"),
			MaxConns:     envInt("DB_MAX_CONNS", 10),
			QueryTimeout: envDuration("DB_QUERY_TIMEOUT", 5*time.Second),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
