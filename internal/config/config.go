package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// DotEnvErr is set when no .env file could be read; the environment is used as is.
	DotEnvErr error

	App     AppConfig
	Mongo   MongoConfig
	JWT     JWTConfig
	Catalog CatalogConfig
	Log     LogConfig
	SMTP    SMTPConfig
	Storage StorageConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Jobs    JobsConfig
}

type AppConfig struct {
	Env         string
	Port        string
	FrontendURL string
}

type MongoConfig struct {
	URI    string
	DBName string
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// ActionTokenTTL bounds activation and password reset links.
	ActionTokenTTL time.Duration
}

type CatalogConfig struct {
	PageSize         int
	TopProductsLimit int
}

type LogConfig struct {
	Level  string
	Format string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether outgoing mail should go through a real SMTP server.
func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != ""
}

type StorageConfig struct {
	Driver        string
	UploadDir     string
	PublicBaseURL string
	S3Endpoint    string
	S3Region      string
	S3Bucket      string
	S3AccessKey   string
	S3SecretKey   string
	S3PathStyle   bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TopTTL   time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type JobsConfig struct {
	CleanupInterval time.Duration
}

// Load reads .env (when present) and the process environment into a Config.
func Load() (*Config, error) {
	envErr := godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		DotEnvErr: envErr,
		App: AppConfig{
			Env:         v.GetString("APP_ENV"),
			Port:        v.GetString("PORT"),
			FrontendURL: strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		},
		Mongo: MongoConfig{
			URI:    strings.TrimSpace(v.GetString("MONGO_URI")),
			DBName: v.GetString("DB_NAME"),
		},
		JWT: JWTConfig{
			Secret:          strings.TrimSpace(v.GetString("JWT_SECRET")),
			AccessTokenTTL:  positiveDuration(v.GetInt("ACCESS_TOKEN_TTL"), 60, time.Minute),
			RefreshTokenTTL: positiveDuration(v.GetInt("REFRESH_TOKEN_TTL"), 7, 24*time.Hour),
			ActionTokenTTL:  positiveDuration(v.GetInt("ACTION_TOKEN_TTL"), 72, time.Hour),
		},
		Catalog: CatalogConfig{
			PageSize:         positiveInt(v.GetInt("PAGE_SIZE"), 8),
			TopProductsLimit: positiveInt(v.GetInt("TOP_PRODUCTS_LIMIT"), 5),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(v.GetString("STORAGE_DRIVER")),
			UploadDir:     v.GetString("UPLOAD_DIR"),
			PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
			S3Endpoint:    v.GetString("S3_ENDPOINT"),
			S3Region:      v.GetString("S3_REGION"),
			S3Bucket:      v.GetString("S3_BUCKET"),
			S3AccessKey:   v.GetString("S3_ACCESS_KEY"),
			S3SecretKey:   v.GetString("S3_SECRET_KEY"),
			S3PathStyle:   v.GetBool("S3_USE_PATH_STYLE"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TopTTL:   positiveDuration(v.GetInt("TOP_PRODUCTS_CACHE_TTL"), 300, time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Jobs: JobsConfig{
			CleanupInterval: positiveDuration(v.GetInt("CLEANUP_INTERVAL"), 60, time.Minute),
		},
	}

	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("DB_NAME", "smartshop")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "./public/media")
	v.SetDefault("PUBLIC_BASE_URL", "/media")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("KAFKA_TOPIC", "smartshop.events")
}

func (c *Config) validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Storage.Driver != "local" && c.Storage.Driver != "s3" {
		errs = append(errs, errors.New("STORAGE_DRIVER must be local or s3"))
	}
	if c.Storage.Driver == "s3" && c.Storage.S3Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3"))
	}
	return errors.Join(errs...)
}

func positiveDuration(value, fallback int, unit time.Duration) time.Duration {
	return time.Duration(positiveInt(value, fallback)) * unit
}

func positiveInt(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
