// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
)

const (
	defaultWindow    = time.Hour
	defaultEndpoints = "/api:200:100"
)

type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	RateLimiter RateLimiterConfig
	Auth        AuthConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port              string
	TrustProxyHeaders bool
	MetricsEnabled    bool
}

type StorageConfig struct {
	Type  string
	Redis RedisConfig
}

type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// EndpointRule define os tetos padrão de um endpoint.
type EndpointRule struct {
	Endpoint string
	Window   time.Duration
	Limits   domain.RoleLimits
}

type RateLimiterConfig struct {
	Strategy      domain.Strategy
	FailurePolicy domain.FailurePolicy
	Endpoints     []EndpointRule
}

type AuthConfig struct {
	// JWTSecret vazio mantém a checagem simples do prefixo "Bearer ".
	JWTSecret string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load lê as variáveis de ambiente, opcionalmente a partir de um arquivo .env.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv constrói e valida a configuração a partir do ambiente atual.
func FromEnv() (Config, error) {
	trustProxy, err := getEnvBool("TRUST_PROXY_HEADERS", false)
	if err != nil {
		return Config{}, err
	}
	metricsEnabled, err := getEnvBool("METRICS_ENABLED", true)
	if err != nil {
		return Config{}, err
	}

	server := ServerConfig{
		Port:              getEnv("SERVER_PORT", "8080"),
		TrustProxyHeaders: trustProxy,
		MetricsEnabled:    metricsEnabled,
	}

	storageType := strings.ToLower(getEnv("STORAGE_TYPE", "redis"))
	if storageType != "redis" && storageType != "memory" {
		return Config{}, fmt.Errorf("invalid STORAGE_TYPE: %s", storageType)
	}

	redisConfig, err := buildRedisConfig()
	if err != nil {
		return Config{}, err
	}

	rateLimiterConfig, err := buildRateLimiterConfig()
	if err != nil {
		return Config{}, err
	}

	logConfig, err := buildLogConfig()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Server: server,
		Storage: StorageConfig{
			Type:  storageType,
			Redis: redisConfig,
		},
		RateLimiter: rateLimiterConfig,
		Auth:        AuthConfig{JWTSecret: os.Getenv("AUTH_JWT_SECRET")},
		Log:         logConfig,
	}, nil
}

func buildLogConfig() (LogConfig, error) {
	cfg := LogConfig{
		Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL: %s", cfg.Level)
	}
	if cfg.Format != "json" && cfg.Format != "text" {
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT: %s", cfg.Format)
	}
	return cfg, nil
}

func buildRedisConfig() (RedisConfig, error) {
	host := getEnv("REDIS_HOST", "localhost")
	port, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	dialTimeout, err := getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	if err != nil {
		return RedisConfig{}, err
	}
	readTimeout, err := getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	if err != nil {
		return RedisConfig{}, err
	}
	writeTimeout, err := getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Host:         host,
		Port:         port,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           db,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}, nil
}

func buildRateLimiterConfig() (RateLimiterConfig, error) {
	strategy, err := domain.ParseStrategy(getEnv("RATE_LIMIT_STRATEGY", string(domain.StrategySlidingLog)))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_STRATEGY: %w", err)
	}
	failurePolicy, err := domain.ParseFailurePolicy(getEnv("RATE_LIMIT_FAILURE_POLICY", string(domain.FailClosed)))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_FAILURE_POLICY: %w", err)
	}
	window, err := getEnvDuration("RATE_LIMIT_WINDOW", defaultWindow)
	if err != nil {
		return RateLimiterConfig{}, err
	}
	if window <= 0 {
		return RateLimiterConfig{}, fmt.Errorf("%w: RATE_LIMIT_WINDOW must be positive", domain.ErrInvalidRule)
	}

	endpoints, err := parseEndpointRules(getEnv("RATE_LIMIT_ENDPOINTS", defaultEndpoints), window)
	if err != nil {
		return RateLimiterConfig{}, err
	}

	return RateLimiterConfig{
		Strategy:      strategy,
		FailurePolicy: failurePolicy,
		Endpoints:     endpoints,
	}, nil
}

// parseEndpointRules interpreta ENDPOINT:AUTHENTICATED:UNAUTHENTICATED[:WINDOW] separados por vírgula.
func parseEndpointRules(raw string, defaultWindow time.Duration) ([]EndpointRule, error) {
	seen := make(map[string]struct{})
	var rules []EndpointRule

	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 3 && len(parts) != 4 {
			return nil, fmt.Errorf("%w: endpoint rule must follow ENDPOINT:AUTHENTICATED:UNAUTHENTICATED[:WINDOW]: %s",
				domain.ErrInvalidRule, item)
		}

		endpoint := strings.TrimSpace(parts[0])
		if endpoint == "" {
			return nil, fmt.Errorf("%w: empty endpoint in rule %s", domain.ErrInvalidRule, item)
		}
		if !strings.HasPrefix(endpoint, "/") {
			endpoint = "/" + endpoint
		}
		if _, dup := seen[endpoint]; dup {
			return nil, fmt.Errorf("%w: duplicated endpoint %s", domain.ErrInvalidRule, endpoint)
		}
		seen[endpoint] = struct{}{}

		authenticated, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid authenticated limit for endpoint %s: %w", endpoint, err)
		}
		unauthenticated, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("invalid unauthenticated limit for endpoint %s: %w", endpoint, err)
		}
		window := defaultWindow
		if len(parts) == 4 {
			window, err = time.ParseDuration(strings.TrimSpace(parts[3]))
			if err != nil {
				return nil, fmt.Errorf("invalid window for endpoint %s: %w", endpoint, err)
			}
		}

		rule := EndpointRule{
			Endpoint: endpoint,
			Window:   window,
			Limits:   domain.RoleLimits{Authenticated: authenticated, Unauthenticated: unauthenticated},
		}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: at least one endpoint rule is required", domain.ErrInvalidRule)
	}
	return rules, nil
}

func (r EndpointRule) Validate() error {
	if r.Window <= 0 {
		return fmt.Errorf("%w: window must be positive for endpoint %s", domain.ErrInvalidRule, r.Endpoint)
	}
	if err := r.Limits.Validate(); err != nil {
		return fmt.Errorf("endpoint %s: %w", r.Endpoint, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
