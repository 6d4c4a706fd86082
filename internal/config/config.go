// Package config provides runtime configuration for the stock synchronizer.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Feed sources.
const (
	FeedHTTP = "http"
	FeedFTP  = "ftp"
)

// Config holds every knob read from the environment.
type Config struct {
	CatalogLocation string
	FiltersFile     string

	FeedSource       string
	OrbeaEmail       string
	OrbeaPassword    string
	OrbeaLoginURL    string
	OrbeaDownloadURL string
	FTPHost          string
	FTPUser          string
	FTPPassword      string
	FTPPath          string
	FeedMaxAttempts  int
	FeedRetryDelay   time.Duration

	ShopifyShopURL    string
	ShopifyAPISecret  string
	ShopifyAPIVersion string
	ProductDelay      time.Duration
	SaveRetryDelay    time.Duration

	NotificationAPISecret string

	DatabaseURL          string
	HTTPAddr             string
	JWTSecret            string
	OperatorPasswordHash string

	AWSSecretID string

	LogFile  string
	LogLevel string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		CatalogLocation: getenv("CATALOG_LOCATION", "epos.xlsx"),
		FiltersFile:     getenv("FILTERS_FILE", ""),

		FeedSource:       strings.ToLower(getenv("FEED_SOURCE", FeedFTP)),
		OrbeaEmail:       getenv("ORBEA_EMAIL", ""),
		OrbeaPassword:    getenv("ORBEA_PASSWORD", ""),
		OrbeaLoginURL:    getenv("ORBEA_LOGIN_URL", "https://www.orbea.com/nl-en/kide/login/"),
		OrbeaDownloadURL: getenv("ORBEA_DOWNLOAD_URL", "https://www.orbea.com/nl-en/kide/available/csv/"),
		FTPHost:          getenv("FTP_HOST", ""),
		FTPUser:          getenv("FTP_USER", ""),
		FTPPassword:      getenv("FTP_PASSWORD", ""),
		FTPPath:          getenv("FTP_PATH", "STOCKS_simpl_Izaro.csv"),
		FeedMaxAttempts:  atoienv("FEED_MAX_ATTEMPTS", 30),
		FeedRetryDelay:   durenvms("FEED_RETRY_DELAY_MS", 2000),

		ShopifyShopURL:    getenv("SHOPIFY_SHOP_URL", ""),
		ShopifyAPISecret:  getenv("SHOPIFY_API_SECRET", ""),
		ShopifyAPIVersion: getenv("SHOPIFY_API_VERSION", "2022-10"),
		ProductDelay:      durenvms("PRODUCT_DELAY_MS", 500),
		SaveRetryDelay:    durenvms("SAVE_RETRY_DELAY_MS", 1000),

		NotificationAPISecret: getenv("NOTIFICATION_API_SECRET", ""),

		DatabaseURL:          getenv("DATABASE_URL", ""),
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		JWTSecret:            getenv("JWT_SECRET", ""),
		OperatorPasswordHash: getenv("OPERATOR_PASSWORD_HASH", ""),

		AWSSecretID: getenv("AWS_SECRET_ID", ""),

		LogFile:  getenv("LOG_FILE", "logs.txt"),
		LogLevel: getenv("LOG_LEVEL", "info"),
	}
}

// Validate reports every required setting that is missing for the chosen feed source.
func (c Config) Validate() error {
	required := map[string]string{
		"SHOPIFY_SHOP_URL":   c.ShopifyShopURL,
		"SHOPIFY_API_SECRET": c.ShopifyAPISecret,
		"CATALOG_LOCATION":   c.CatalogLocation,
	}
	switch c.FeedSource {
	case FeedHTTP:
		required["ORBEA_EMAIL"] = c.OrbeaEmail
		required["ORBEA_PASSWORD"] = c.OrbeaPassword
	case FeedFTP:
		required["FTP_HOST"] = c.FTPHost
		required["FTP_USER"] = c.FTPUser
		required["FTP_PASSWORD"] = c.FTPPassword
	default:
		return fmt.Errorf("FEED_SOURCE must be %q or %q, got %q", FeedHTTP, FeedFTP, c.FeedSource)
	}

	var missing []string
	for key, v := range required {
		if v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("environment variables not set: %s", strings.Join(missing, ", "))
	}
	if c.FeedMaxAttempts < 1 {
		return fmt.Errorf("FEED_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}
