package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ServiceEndpoint is the network location of one backing service.
type ServiceEndpoint struct {
	Host string
	Port string
}

// BaseURL returns the http base URL of the endpoint, without trailing slash.
func (e ServiceEndpoint) BaseURL() string {
	if e.Port == "" {
		return "http://" + e.Host
	}
	return fmt.Sprintf("http://%s:%s", e.Host, e.Port)
}

// ServicesConfig holds the base locations of every downstream service consumed by the front.
type ServicesConfig struct {
	Author    ServiceEndpoint
	Paper     ServiceEndpoint
	Fulltext  ServiceEndpoint
	Thumbnail ServiceEndpoint
	Stats     ServiceEndpoint
}

// HTTPClientConfig holds the shared outbound connection pool settings.
type HTTPClientConfig struct {
	MaxIdleConnsPerHost int
	IdleConnTimeoutSec  int
}

// SearchConfig controls keyword validation on the home/search route.
type SearchConfig struct {
	// AllowSpace admits plain spaces inside a keyword.
	AllowSpace bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	Location       string
	RequestTimeout time.Duration
	Services       ServicesConfig
	HTTPClient     HTTPClientConfig
	Search         SearchConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		Port:           getEnv("PORT", "8080"),
		Location:       getEnv("LOCATION", "Asia/Tokyo"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 5)) * time.Second,
		Services: ServicesConfig{
			Author:    endpoint("AUTHOR", "author-app"),
			Paper:     endpoint("PAPER", "paper-app"),
			Fulltext:  endpoint("FULLTEXT", "fulltext-app"),
			Thumbnail: endpoint("THUMBNAIL", "thumbnail-app"),
			Stats:     endpoint("STATS", "stats-app"),
		},
		HTTPClient: HTTPClientConfig{
			MaxIdleConnsPerHost: getEnvInt("HTTP_MAX_IDLE_CONNS_PER_HOST", 32),
			IdleConnTimeoutSec:  getEnvInt("HTTP_IDLE_CONN_TIMEOUT_SEC", 90),
		},
		Search: SearchConfig{
			AllowSpace: getEnvBool("SEARCH_ALLOW_SPACE", true),
		},
	}
}

// LoadLocation resolves the configured timezone, falling back to UTC when unknown.
func (c *AppConfig) LoadLocation() *time.Location {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

func endpoint(name, defHost string) ServiceEndpoint {
	return ServiceEndpoint{
		Host: getEnv("SERVICE_"+name+"_HOST", defHost),
		Port: getEnv("SERVICE_"+name+"_PORT", "8000"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil && i > 0 {
			return i
		}
	}
	return def
}
