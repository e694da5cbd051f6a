package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Engine EngineConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
	Otel   OtelConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Backends soportados.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// EngineConfig parámetros del motor de asignación.
type EngineConfig struct {
	StoreBackend       string        // memory | postgres
	LockBackend        string        // memory | redis
	LockTimeout        time.Duration // plazo máximo para obtener el lock de un stock
	PublishTimeout     time.Duration // plazo para publicar movimientos tras el commit
	ExpiringWindowDays int           // ventana por defecto del reporte de vencimientos
}

// RedisConfig conexión a Redis para el lock distribuido.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration // vida máxima del lock si el proceso muere sin liberarlo
}

// KafkaConfig publicación del libro de movimientos. Sin brokers queda deshabilitado.
type KafkaConfig struct {
	Brokers        []string
	MovementsTopic string
}

// Enabled indica si hay brokers configurados.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// OtelConfig exportación de trazas OTLP/HTTP. Sin endpoint queda deshabilitado.
type OtelConfig struct {
	Endpoint   string
	AuthHeader string
	Insecure   bool
}

// Enabled indica si hay endpoint configurado.
func (c OtelConfig) Enabled() bool { return c.Endpoint != "" }

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, ENGINE_LOCK_TIMEOUT_MS, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "inventario-lotes"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "inventario_lotes"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "inventario-lotes"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Engine: EngineConfig{
			StoreBackend:       strings.ToLower(getString(v, "STORE_BACKEND", BackendMemory)),
			LockBackend:        strings.ToLower(getString(v, "LOCK_BACKEND", BackendMemory)),
			LockTimeout:        getMillis(v, "ENGINE_LOCK_TIMEOUT_MS", 3*time.Second),
			PublishTimeout:     getMillis(v, "ENGINE_PUBLISH_TIMEOUT_MS", 5*time.Second),
			ExpiringWindowDays: getInt(v, "EXPIRING_WINDOW_DAYS", 30),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			LockTTL:  getMillis(v, "REDIS_LOCK_TTL_MS", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(getString(v, "KAFKA_BROKERS", "")),
			MovementsTopic: getString(v, "KAFKA_MOVEMENTS_TOPIC", "inventory.movements"),
		},
		Otel: OtelConfig{
			Endpoint:   getString(v, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			AuthHeader: getString(v, "OTEL_AUTH_HEADER", ""),
			Insecure:   getBool(v, "OTEL_INSECURE", true),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Engine.StoreBackend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("STORE_BACKEND inválido: %q", c.Engine.StoreBackend)
	}
	switch c.Engine.LockBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("LOCK_BACKEND inválido: %q", c.Engine.LockBackend)
	}
	if c.Engine.LockTimeout <= 0 {
		return fmt.Errorf("ENGINE_LOCK_TIMEOUT_MS debe ser positivo")
	}
	if c.Engine.ExpiringWindowDays <= 0 {
		return fmt.Errorf("EXPIRING_WINDOW_DAYS debe ser positivo")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}

// getMillis lee un entero en milisegundos.
func getMillis(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	return time.Duration(getInt(v, key, int(def/time.Millisecond))) * time.Millisecond
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
