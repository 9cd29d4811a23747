package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from environment variables.
// It is built once at process start and passed to the components that need it.
type Config struct {
	AppEnv     string `validate:"required,oneof=development staging production test"`
	ServerPort string `validate:"required,numeric"`
	LogLevel   string `validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat  string `validate:"required,oneof=json console"`

	StoreDriver   string `validate:"required,oneof=mysql mongo"`
	MySQLDSN      string `validate:"required_if=StoreDriver mysql"`
	MongoURI      string `validate:"required_if=StoreDriver mongo"`
	MongoDatabase string `validate:"required_if=StoreDriver mongo"`
	ResetDB       bool

	RedisAddr string `validate:"required,hostname_port"`
	RedisDB   int    `validate:"gte=0,lte=15"`
	RedisPass string

	JWTSecret  string        `validate:"required,min=16"`
	TokenTTL   time.Duration `validate:"required,gt=0"`
	BcryptCost int           `validate:"gte=4,lte=31"`

	UploadBackend  string `validate:"required,oneof=local minio"`
	UploadDir      string `validate:"required"`
	UploadMaxBytes int64  `validate:"gt=0"`
	MinIOEndpoint  string `validate:"required_if=UploadBackend minio"`
	MinIOAccessKey string `validate:"required_if=UploadBackend minio"`
	MinIOSecretKey string `validate:"required_if=UploadBackend minio"`
	MinIOBucket    string
	MinIOUseSSL    bool

	CORSOrigins   []string
	AuthRateLimit float64 `validate:"gt=0"`

	SMTPHost     string
	SMTPPort     int `validate:"omitempty,gt=0,lte=65535"`
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string `validate:"required_with=SMTPHost"`
	ClientURL    string `validate:"omitempty,url"`

	SwaggerHost string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds Config from .env files and the environment with sensible defaults.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STORE_DRIVER", "mysql")
	v.SetDefault("MYSQL_DSN", "user:password@tcp(localhost:3306)/skillsync?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "skillsync")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("TOKEN_TTL", "720h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("UPLOAD_BACKEND", "local")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", 5<<20)
	v.SetDefault("MINIO_BUCKET", "skillsync-uploads")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("AUTH_RATE_LIMIT", 5)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("CLIENT_URL", "http://localhost:5173")

	ttl, err := time.ParseDuration(v.GetString("TOKEN_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	c := &Config{
		AppEnv:         v.GetString("APP_ENV"),
		ServerPort:     v.GetString("SERVER_PORT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		StoreDriver:    v.GetString("STORE_DRIVER"),
		MySQLDSN:       v.GetString("MYSQL_DSN"),
		MongoURI:       v.GetString("MONGO_URI"),
		MongoDatabase:  v.GetString("MONGO_DATABASE"),
		ResetDB:        v.GetBool("RESET_DB"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisDB:        v.GetInt("REDIS_DB"),
		RedisPass:      v.GetString("REDIS_PASSWORD"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TokenTTL:       ttl,
		BcryptCost:     v.GetInt("BCRYPT_COST"),
		UploadBackend:  v.GetString("UPLOAD_BACKEND"),
		UploadDir:      v.GetString("UPLOAD_DIR"),
		UploadMaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		MinIOEndpoint:  v.GetString("MINIO_ENDPOINT"),
		MinIOAccessKey: v.GetString("MINIO_ACCESS_KEY"),
		MinIOSecretKey: v.GetString("MINIO_SECRET_KEY"),
		MinIOBucket:    v.GetString("MINIO_BUCKET"),
		MinIOUseSSL:    v.GetBool("MINIO_USE_SSL"),
		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		AuthRateLimit:  v.GetFloat64("AUTH_RATE_LIMIT"),
		SMTPHost:       v.GetString("SMTP_HOST"),
		SMTPPort:       v.GetInt("SMTP_PORT"),
		SMTPUsername:   v.GetString("SMTP_USERNAME"),
		SMTPPassword:   v.GetString("SMTP_PASSWORD"),
		SMTPFrom:       v.GetString("SMTP_FROM"),
		ClientURL:      v.GetString("CLIENT_URL"),
		SwaggerHost:    v.GetString("SWAGGER_HOST"),
	}

	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
