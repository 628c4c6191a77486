package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string
	Port        string

	// Backend Cheffy (source de vérité)
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Géocodage
	GeocodingAPIKey string
	GeocodingURL    string

	// Infrastructure
	RedisAddr string
	NatsUrl   string
	CacheTTL  time.Duration

	// Sécurité
	JWTPublicKeyPath string // vide = pas de vérification de signature
	RoutesFile       string
	AllowedOrigins   []string
	CookieSecure     bool

	// Telemetry
	OtelEndpoint string
}

// Load charge la configuration depuis l'ENV ou utilise des défauts
func Load() (*Config, error) {
	env := getEnv("APP_ENV", "local")
	cfg := &Config{
		Env:              env,
		ServiceName:      getEnv("SERVICE_NAME", "cheffy-web"),
		Port:             getEnv("PORT", "8080"),
		APIBaseURL:       strings.TrimRight(getEnv("API_BASE_URL", defaultAPI(env)), "/"),
		HTTPTimeout:      getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		GeocodingAPIKey:  getEnv("GEOCODING_API_KEY", ""),
		GeocodingURL:     getEnv("GEOCODING_URL", ""),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		NatsUrl:          getEnv("NATS_URL", "nats://localhost:4222"),
		CacheTTL:         getEnvDuration("CACHE_TTL", time.Minute),
		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", ""),
		RoutesFile:       getEnv("ROUTES_FILE", ""),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		CookieSecure:     getEnvBool("COOKIE_SECURE", env == "prod"),
		OtelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validation basique pour éviter de démarrer avec une config cassée
	if cfg.IsProd() && cfg.APIBaseURL == "" {
		return nil, errors.New("API_BASE_URL is required in production")
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", cfg.HTTPTimeout)
	}

	return cfg, nil
}

func (c *Config) IsProd() bool { return c.Env == "prod" }

// En local on vise le backend de dev, jamais en prod
func defaultAPI(env string) string {
	if env == "prod" {
		return ""
	}
	return "http://localhost:5000/api/v1"
}

// Routes est le contenu du fichier ROUTES_FILE.
type Routes struct {
	AdminPaths []string `yaml:"admin_paths"`
}

// LoadRoutes lit la liste des pages admin. Un chemin vide renvoie nil (défauts du guard).
func LoadRoutes(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes file: %w", err)
	}
	var routes Routes
	if err := yaml.Unmarshal(raw, &routes); err != nil {
		return nil, fmt.Errorf("parse routes file %s: %w", path, err)
	}
	for _, p := range routes.AdminPaths {
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("routes file %s: admin path %q must start with /", path, p)
		}
	}
	return routes.AdminPaths, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
