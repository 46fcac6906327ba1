package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	pkgconfig "github.com/Skotchmaster/shoe_store/pkg/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env         string
	ServiceName string
	Port        int
	LogLevel    string
	CORSOrigins []string
	CSRFEnabled bool
	ClientURL   string

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret    []byte
	JWTExpiresIn time.Duration

	StrictFilters bool

	Stripe StripeConfig
	Media  MediaConfig
	Events EventsConfig
	Search SearchConfig
}

type StripeConfig struct {
	SecretKey      string
	WebhookSecret  string
	Currency       string
	ShippingAmount int64
	ShippingName   string
	// AllowedCountries for shipping address collection.
	AllowedCountries []string
}

type MediaConfig struct {
	Driver           string
	Dir              string
	BaseURL          string
	MaxUploadBytes   int64
	DefaultUserImage string

	CloudinaryCloud  string
	CloudinaryKey    string
	CloudinarySecret string
}

type EventsConfig struct {
	Driver       string
	KafkaBrokers []string
	KafkaTopic   string
	AMQPURL      string
	AMQPQueue    string
}

type SearchConfig struct {
	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	Index           string
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("SERVICE_NAME", "shoe_store")
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("CSRF_ENABLED", false)
	v.SetDefault("CLIENT_URL", "http://localhost:5173")

	v.SetDefault("DB_DRIVER", "postgres")

	v.SetDefault("JWT_EXPIRES_IN", "2160h")
	v.SetDefault("QUERY_STRICT_FILTERS", false)

	v.SetDefault("STRIPE_CURRENCY", "usd")
	v.SetDefault("STRIPE_SHIPPING_AMOUNT", 1000)
	v.SetDefault("STRIPE_SHIPPING_NAME", "Standard Delivery")
	v.SetDefault("STRIPE_SHIPPING_COUNTRIES", "US,CA,GB")

	v.SetDefault("MEDIA_DRIVER", "disk")
	v.SetDefault("MEDIA_DIR", "./uploads")
	v.SetDefault("MEDIA_BASE_URL", "/uploads")
	v.SetDefault("MEDIA_MAX_UPLOAD_BYTES", 2<<20)
	v.SetDefault("DEFAULT_USER_IMAGE", "/uploads/default-user.jpg")

	v.SetDefault("EVENTS_DRIVER", "none")
	v.SetDefault("KAFKA_TOPIC", "shop_events")
	v.SetDefault("AMQP_QUEUE", "shop_events")

	v.SetDefault("ES_INDEX", "products")
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("no .env file, using process environment", "error", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	expires, err := time.ParseDuration(v.GetString("JWT_EXPIRES_IN"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}

	cfg := &Config{
		Env:         strings.ToLower(v.GetString("APP_ENV")),
		ServiceName: v.GetString("SERVICE_NAME"),
		Port:        v.GetInt("PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		CORSOrigins: pkgconfig.CSV(v.GetString("CORS_ORIGINS")),
		CSRFEnabled: v.GetBool("CSRF_ENABLED"),
		ClientURL:   strings.TrimRight(v.GetString("CLIENT_URL"), "/"),

		DatabaseDriver: strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:    v.GetString("DATABASE_URL"),

		JWTSecret:    []byte(v.GetString("JWT_SECRET")),
		JWTExpiresIn: expires,

		StrictFilters: v.GetBool("QUERY_STRICT_FILTERS"),

		Stripe: StripeConfig{
			SecretKey:        v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret:    v.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:         strings.ToLower(v.GetString("STRIPE_CURRENCY")),
			ShippingAmount:   v.GetInt64("STRIPE_SHIPPING_AMOUNT"),
			ShippingName:     v.GetString("STRIPE_SHIPPING_NAME"),
			AllowedCountries: pkgconfig.CSV(v.GetString("STRIPE_SHIPPING_COUNTRIES")),
		},
		Media: MediaConfig{
			Driver:           strings.ToLower(v.GetString("MEDIA_DRIVER")),
			Dir:              v.GetString("MEDIA_DIR"),
			BaseURL:          strings.TrimRight(v.GetString("MEDIA_BASE_URL"), "/"),
			MaxUploadBytes:   v.GetInt64("MEDIA_MAX_UPLOAD_BYTES"),
			DefaultUserImage: v.GetString("DEFAULT_USER_IMAGE"),
			CloudinaryCloud:  v.GetString("CLOUDINARY_CLOUD_NAME"),
			CloudinaryKey:    v.GetString("CLOUDINARY_API_KEY"),
			CloudinarySecret: v.GetString("CLOUDINARY_API_SECRET"),
		},
		Events: EventsConfig{
			Driver:       strings.ToLower(v.GetString("EVENTS_DRIVER")),
			KafkaBrokers: pkgconfig.CSV(v.GetString("KAFKA_BROKERS")),
			KafkaTopic:   v.GetString("KAFKA_TOPIC"),
			AMQPURL:      v.GetString("AMQP_URL"),
			AMQPQueue:    v.GetString("AMQP_QUEUE"),
		},
		Search: SearchConfig{
			ElasticURL:      v.GetString("ES_URL"),
			ElasticUser:     v.GetString("ES_USER"),
			ElasticPassword: v.GetString("ES_PASSWORD"),
			Index:           v.GetString("ES_INDEX"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	reqs := []pkgconfig.Required{
		{Env: "DATABASE_URL", Value: c.DatabaseURL},
		{Env: "JWT_SECRET", Value: string(c.JWTSecret)},
	}
	if c.Media.Driver == "cloudinary" {
		reqs = append(reqs,
			pkgconfig.Required{Env: "CLOUDINARY_CLOUD_NAME", Value: c.Media.CloudinaryCloud},
			pkgconfig.Required{Env: "CLOUDINARY_API_KEY", Value: c.Media.CloudinaryKey},
			pkgconfig.Required{Env: "CLOUDINARY_API_SECRET", Value: c.Media.CloudinarySecret},
		)
	}
	switch c.Events.Driver {
	case "kafka":
		reqs = append(reqs, pkgconfig.Required{Env: "KAFKA_BROKERS", Value: strings.Join(c.Events.KafkaBrokers, ",")})
	case "amqp":
		reqs = append(reqs, pkgconfig.Required{Env: "AMQP_URL", Value: c.Events.AMQPURL})
	}
	if err := pkgconfig.NonEmpty(reqs...); err != nil {
		return err
	}

	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes in production")
	}
	return nil
}
