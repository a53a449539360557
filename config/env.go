package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultMongoURI      = "mongodb://localhost:27017"
	defaultMongoDatabase = "herbveda"
	defaultJWTSecret     = "change-me-in-production"
	defaultAppPort       = "8080"
	defaultAppEnv        = "local"
	defaultClientURL     = "http://localhost:5173"
	defaultRedisAddr     = "localhost:6379"
	defaultQueueDriver   = "memory"

	defaultResetTTLMinutes = 15
	defaultOtpTTLMinutes   = 10
	defaultOtpMaxAttempts  = 5
	defaultOtpRequestRate  = 5 // requests per IP per minute
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load reads configuration once, in increasing precedence:
// built-in defaults, config/app.json, .env, then the process environment.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromSources("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_PORT":                   defaultAppPort,
		"APP_ENV":                    defaultAppEnv,
		"MONGO_URI":                  defaultMongoURI,
		"MONGO_DB":                   defaultMongoDatabase,
		"JWT_SECRET":                 defaultJWTSecret,
		"RESET_PASSWORD_SECRET":      "",
		"RESET_PASSWORD_TTL_MINUTES": "",
		"CLIENT_URL":                 defaultClientURL,
		"QUEUE_DRIVER":               defaultQueueDriver,
		"REDIS_ADDR":                 defaultRedisAddr,
		"REDIS_PASSWORD":             "",
		"INVOICE_EMAIL_ENABLED":      "false",
	}
}

func MongoURI() string      { _ = Load(); return get("MONGO_URI", defaultMongoURI) }
func MongoDatabase() string { _ = Load(); return get("MONGO_DB", defaultMongoDatabase) }

func JWTSecret() string { _ = Load(); return get("JWT_SECRET", defaultJWTSecret) }

// ResetSecret returns the signing secret for password-reset tokens. It is kept
// distinct from the session secret; when unset it derives from the session
// secret so reset tokens never validate as session tokens.
func ResetSecret() string {
	_ = Load()
	if s := get("RESET_PASSWORD_SECRET", ""); s != "" {
		return s
	}
	return JWTSecret() + ":reset"
}

func ResetTokenTTL() time.Duration {
	return minutes("RESET_PASSWORD_TTL_MINUTES", defaultResetTTLMinutes)
}

func OtpTTL() time.Duration { return minutes("OTP_TTL_MINUTES", defaultOtpTTLMinutes) }

func OtpMaxAttempts() int { return integer("OTP_MAX_ATTEMPTS", defaultOtpMaxAttempts) }

// OtpRequestRate is the per-IP, per-minute cap on the OTP request endpoints.
func OtpRequestRate() int { return integer("OTP_REQUEST_RATE", defaultOtpRequestRate) }

func AppPort() string { _ = Load(); return get("APP_PORT", defaultAppPort) }
func AppEnv() string  { _ = Load(); return get("APP_ENV", defaultAppEnv) }

func IsProduction() bool {
	switch AppEnv() {
	case "production", "prod":
		return true
	}
	return false
}

// ClientOrigins returns the comma-separated CLIENT_URL list.
func ClientOrigins() []string {
	_ = Load()
	raw := get("CLIENT_URL", defaultClientURL)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ClientBase is the origin used when building password-reset links:
// the first CLIENT_URL entry, without a trailing slash.
func ClientBase() string {
	origins := ClientOrigins()
	if len(origins) == 0 {
		return defaultClientURL
	}
	return strings.TrimRight(origins[0], "/")
}

func InvoiceEmailEnabled() bool {
	_ = Load()
	return strings.EqualFold(get("INVOICE_EMAIL_ENABLED", "false"), "true")
}

// AdminEmail is the BCC / contact-relay mailbox, falling back to the SMTP user.
func AdminEmail() string {
	_ = Load()
	if a := get("ADMIN_EMAIL", ""); a != "" {
		return a
	}
	return get("SMTP_USER", "")
}

func QueueDriver() string {
	_ = Load()
	switch d := strings.ToLower(get("QUEUE_DRIVER", defaultQueueDriver)); d {
	case "memory", "redis":
		return d
	default:
		return defaultQueueDriver
	}
}

func RedisAddr() string     { _ = Load(); return get("REDIS_ADDR", defaultRedisAddr) }
func RedisPassword() string { _ = Load(); return get("REDIS_PASSWORD", "") }

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string   { _ = Load(); return get("STORAGE_DISK", "local") }
func StorageLocalRoot() string { _ = Load(); return get("STORAGE_LOCAL_ROOT", "storage") }
func StorageURL() string {
	_ = Load()
	return get("STORAGE_URL", "http://localhost:8080/storage")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

// ── Loading internals ────────────────────────────────────────────────────────

func loadFromSources(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mergeEnviron(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		s, ok := val.(string)
		if !ok {
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

// mergeEnviron applies real environment variables last so deployments can
// override file-based config without shipping a .env.
func mergeEnviron(out map[string]string) {
	for _, kv := range os.Environ() {
		idx := strings.IndexByte(kv, '=')
		if idx <= 0 {
			continue
		}
		key := kv[:idx]
		_, known := out[key]
		if known || strings.HasPrefix(key, "SMTP_") || strings.HasPrefix(key, "MAIL_") ||
			strings.HasPrefix(key, "S3_") || strings.HasPrefix(key, "STORAGE_") ||
			strings.HasPrefix(key, "OTP_") || strings.HasPrefix(key, "SEED_") ||
			key == "ADMIN_EMAIL" || key == "APP_KEY" || key == "LOG_MONGO" ||
			key == "MAX_BODY_BYTES" {
			out[key] = kv[idx+1:]
		}
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func integer(key string, fallback int) int {
	_ = Load()
	n, err := strconv.Atoi(get(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func minutes(key string, fallback int) time.Duration {
	return time.Duration(integer(key, fallback)) * time.Minute
}

// Get reads any config key by name with an optional fallback.
// Keys from .env, config/app.json and the environment are available after Load().
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}
