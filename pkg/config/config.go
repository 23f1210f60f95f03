package config

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// New reads the configuration from the environment. All missing or malformed variables are
// reported at once.
func New() (Config, error) {
	var errs []error
	required := func(key string) string {
		value, err := requireEnv(key)
		errs = append(errs, err)
		return value
	}
	requiredInt := func(key string) int {
		value, err := requireEnvAsInt(key)
		errs = append(errs, err)
		return value
	}
	duration := func(key string, fallback time.Duration) time.Duration {
		value, err := envAsDuration(key, fallback)
		errs = append(errs, err)
		return value
	}

	apiURL := strings.TrimSuffix(required("API_URL"), "/")
	artifactVersion := envOrDefault("ARTIFACT_VERSION", "1.0.0")

	config := Config{
		BasePath:       envOrDefault("BASE_PATH", ""),
		Port:           envOrDefault("PORT", "8080"),
		AllowedOrigins: envAsList("CORS_ALLOWED_ORIGINS"),
		Logging: Logging{
			Level:       envOrDefault("LOG_LEVEL", "info"),
			PrettyPrint: envOrDefault("LOG_PRETTY", "false") == "true",
		},
		JaegerEndpoint: envOrDefault("JAEGER_ENDPOINT", ""),
		Postgresql: Postgresql{
			Host:         required("DATABASE_HOST"),
			Port:         requiredInt("DATABASE_PORT"),
			Username:     required("DATABASE_USERNAME"),
			Password:     required("DATABASE_PASSWORD"),
			DatabaseName: required("DATABASE_NAME"),
		},
		Redis: Redis{
			Host: required("REDIS_HOST"),
			Port: requiredInt("REDIS_PORT"),
		},
		RabbitMQ: RabbitMQ{
			URL:      envOrDefault("RABBITMQ_URL", ""),
			Exchange: envOrDefault("RABBITMQ_EXCHANGE", "kubervise"),
		},
		Authentication: Authentication{
			PublicKey: required("AUTHENTICATION_PUBLIC_KEY"),
		},
		Onboarding: Onboarding{
			TTL:             duration("ONBOARDING_TTL", 24*time.Hour),
			APIURL:          apiURL,
			DownloadBaseURL: apiURL,
			AgentImage:      envOrDefault("AGENT_IMAGE", "ghcr.io/kubervise/agent:"+artifactVersion),
		},
		Artifacts: Artifacts{
			Version:    artifactVersion,
			BaseURL:    strings.TrimSuffix(envOrDefault("DOWNLOAD_BASE_URL", "https://github.com/kubervise/kubervise/releases/download"), "/"),
			Bucket:     envOrDefault("ARTIFACT_BUCKET", ""),
			S3Endpoint: envOrDefault("S3_ENDPOINT", ""),
			PresignTTL: duration("ARTIFACT_PRESIGN_TTL", 15*time.Minute),
		},
		ClusterStaleAfter: duration("CLUSTER_STALE_AFTER", 5*time.Minute),
		StatsCacheTTL:     duration("STATS_CACHE_TTL", 10*time.Second),
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return config, nil
}

type Config struct {
	BasePath          string
	Port              string
	AllowedOrigins    []string
	Logging           Logging
	JaegerEndpoint    string
	Postgresql        Postgresql
	Redis             Redis
	RabbitMQ          RabbitMQ
	Authentication    Authentication
	Onboarding        Onboarding
	Artifacts         Artifacts
	ClusterStaleAfter time.Duration
	StatsCacheTTL     time.Duration
}

type Logging struct {
	Level       string
	PrettyPrint bool
}

// SlogLevel returns the configured level. Unknown levels fall back to info.
func (l Logging) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type Postgresql struct {
	Host         string
	Port         int
	Username     string
	Password     string
	DatabaseName string
}

type Redis struct {
	Host string
	Port int
}

// RabbitMQ notifications are only published if URL is set.
type RabbitMQ struct {
	URL      string
	Exchange string
}

type Authentication struct {
	// PublicKey is the PEM encoded RSA key access tokens are signed with.
	PublicKey string
}

// GetPublicKey parses the PEM encoded public key.
func (a Authentication) GetPublicKey() (*rsa.PublicKey, error) {
	key, err := jwk.ParseKey([]byte(a.PublicKey), jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %v", err)
	}

	var publicKey rsa.PublicKey
	if err := key.Raw(&publicKey); err != nil {
		return nil, fmt.Errorf("public key isn't an RSA key: %v", err)
	}

	return &publicKey, nil
}

type Onboarding struct {
	TTL time.Duration
	// APIURL is the URL installers and agents reach the API at.
	APIURL string
	// DownloadBaseURL is where the installer is downloaded from by the install commands. It's this
	// service which redirects to the actual artifact.
	DownloadBaseURL string
	AgentImage      string
}

// Artifacts are the installer binaries. They are served from Bucket if set and from BaseURL
// otherwise.
type Artifacts struct {
	Version    string
	BaseURL    string
	Bucket     string
	S3Endpoint string
	PresignTTL time.Duration
}

func requireEnv(key string) (string, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return "", fmt.Errorf("required environment variable %q not set", key)
	}
	return value, nil
}

func requireEnvAsInt(key string) (int, error) {
	valueStr, err := requireEnv(key)
	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse environment variable %q as int: %v", key, err)
	}
	return value, nil
}

func envOrDefault(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	return value
}

func envAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse environment variable %q as duration: %v", key, err)
	}
	return d, nil
}

func envAsList(key string) []string {
	value := envOrDefault(key, "")
	if value == "" {
		return nil
	}

	var list []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}
