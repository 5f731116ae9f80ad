package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Release   string

	Database       DatabaseConfig
	Redis          RedisConfig
	Mongo          MongoConfig
	JWT            JWTConfig
	CORS           CORSConfig
	Log            LogConfig
	Sentry         SentryConfig
	Cache          CacheConfig
	ObjectStorage  ObjectStorageConfig
	Mailbox        MailboxConfig
	LLM            LLMConfig
	OTP            OTPConfig
	Notice         NoticeConfig
	Quiz           QuizConfig
	Upload         UploadConfig
	PlatformAdmins []string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host        string
	Port        int
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
}

// MongoConfig points at the document store holding chat, quiz and OTP data.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SentryConfig enables error reporting when a DSN is provided.
type SentryConfig struct {
	DSN string
}

// CacheConfig governs list caching backed by Redis.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ObjectStorageConfig describes the S3 compatible bucket for attachments and images.
type ObjectStorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	PresignTTL   time.Duration
	CreateBucket bool
}

// MailboxConfig configures the IMAP inbox polled during OTP verification.
type MailboxConfig struct {
	Addr     string
	Username string
	Password string
	Folder   string
	Address  string
	Timeout  time.Duration
}

// LLMConfig configures the chat completion endpoint used for quizzes.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OTPConfig tunes one time password issuance.
type OTPConfig struct {
	TTL time.Duration
}

// NoticeConfig controls attachment staging and orphan reconciliation.
type NoticeConfig struct {
	StorageDir       string
	ReconcileWorkers int
	ReconcileRetries int
	ReconcileDelay   time.Duration
	StagingMaxAge    time.Duration
	MaxFileSizeBytes int64
}

// QuizConfig tunes generated quizzes.
type QuizConfig struct {
	QuestionCount     int
	PointsPerQuestion int
	ExamTypeName      string
}

// UploadConfig bounds profile image uploads.
type UploadConfig struct {
	MaxImageSizeBytes int64
	AllowedImageExts  []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Release = v.GetString("RELEASE")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:        v.GetString("REDIS_HOST"),
		Port:        v.GetInt("REDIS_PORT"),
		Password:    v.GetString("REDIS_PASSWORD"),
		DB:          v.GetInt("REDIS_DB"),
		PoolSize:    v.GetInt("REDIS_POOL_SIZE"),
		DialTimeout: v.GetDuration("REDIS_DIAL_TIMEOUT"),
	}

	cfg.Mongo = MongoConfig{
		URI:            v.GetString("MONGO_URI"),
		Database:       v.GetString("MONGO_DATABASE"),
		ConnectTimeout: parseDuration(v.GetString("MONGO_CONNECT_TIMEOUT"), 10*time.Second),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sentry = SentryConfig{DSN: v.GetString("SENTRY_DSN")}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.ObjectStorage = ObjectStorageConfig{
		Endpoint:     v.GetString("S3_ENDPOINT"),
		AccessKey:    v.GetString("S3_ACCESS_KEY"),
		SecretKey:    v.GetString("S3_SECRET_KEY"),
		Bucket:       v.GetString("S3_BUCKET"),
		Region:       v.GetString("S3_REGION"),
		UseSSL:       v.GetBool("S3_USE_SSL"),
		PresignTTL:   parseDuration(v.GetString("S3_PRESIGN_TTL"), 15*time.Minute),
		CreateBucket: v.GetBool("S3_CREATE_BUCKET"),
	}

	cfg.Mailbox = MailboxConfig{
		Addr:     v.GetString("IMAP_ADDR"),
		Username: v.GetString("IMAP_USERNAME"),
		Password: v.GetString("IMAP_PASSWORD"),
		Folder:   v.GetString("IMAP_FOLDER"),
		Address:  v.GetString("OTP_RECEIVER_ADDRESS"),
		Timeout:  parseDuration(v.GetString("IMAP_TIMEOUT"), 15*time.Second),
	}

	cfg.LLM = LLMConfig{
		APIKey:  v.GetString("LLM_API_KEY"),
		BaseURL: v.GetString("LLM_BASE_URL"),
		Model:   v.GetString("LLM_MODEL"),
		Timeout: parseDuration(v.GetString("LLM_TIMEOUT"), 60*time.Second),
	}

	cfg.OTP = OTPConfig{TTL: parseDuration(v.GetString("OTP_TTL"), 3*time.Minute)}

	maxNoticeFile := v.GetInt64("NOTICE_MAX_FILE_SIZE")
	if maxNoticeFile <= 0 {
		maxNoticeFile = 10 * 1024 * 1024
	}
	cfg.Notice = NoticeConfig{
		StorageDir:       v.GetString("NOTICE_STORAGE_DIR"),
		ReconcileWorkers: v.GetInt("NOTICE_RECONCILE_WORKERS"),
		ReconcileRetries: v.GetInt("NOTICE_RECONCILE_RETRIES"),
		ReconcileDelay:   parseDuration(v.GetString("NOTICE_RECONCILE_DELAY"), 30*time.Second),
		StagingMaxAge:    parseDuration(v.GetString("NOTICE_STAGING_MAX_AGE"), 24*time.Hour),
		MaxFileSizeBytes: maxNoticeFile,
	}

	cfg.Quiz = QuizConfig{
		QuestionCount:     v.GetInt("QUIZ_QUESTION_COUNT"),
		PointsPerQuestion: v.GetInt("QUIZ_POINTS_PER_QUESTION"),
		ExamTypeName:      v.GetString("QUIZ_EXAM_TYPE_NAME"),
	}

	maxImage := v.GetInt64("PROFILE_IMAGE_MAX_SIZE")
	if maxImage <= 0 {
		maxImage = 10 * 1024 * 1024
	}
	cfg.Upload = UploadConfig{
		MaxImageSizeBytes: maxImage,
		AllowedImageExts:  splitAndTrim(v.GetString("PROFILE_IMAGE_EXTENSIONS")),
	}

	cfg.PlatformAdmins = splitAndTrim(v.GetString("PLATFORM_ADMIN_IDS"))

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("RELEASE", "dev")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academy")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 20)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "3s")

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "academy")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "10s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "academy-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("S3_ENDPOINT", "localhost:9000")
	v.SetDefault("S3_ACCESS_KEY", "minioadmin")
	v.SetDefault("S3_SECRET_KEY", "minioadmin")
	v.SetDefault("S3_BUCKET", "academy")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", false)
	v.SetDefault("S3_PRESIGN_TTL", "15m")
	v.SetDefault("S3_CREATE_BUCKET", true)

	v.SetDefault("IMAP_ADDR", "imap.gmail.com:993")
	v.SetDefault("IMAP_FOLDER", "INBOX")
	v.SetDefault("IMAP_TIMEOUT", "15s")

	v.SetDefault("LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("LLM_TIMEOUT", "60s")

	v.SetDefault("OTP_TTL", "3m")

	v.SetDefault("NOTICE_STORAGE_DIR", "./storage")
	v.SetDefault("NOTICE_RECONCILE_WORKERS", 1)
	v.SetDefault("NOTICE_RECONCILE_RETRIES", 3)
	v.SetDefault("NOTICE_RECONCILE_DELAY", "30s")
	v.SetDefault("NOTICE_STAGING_MAX_AGE", "24h")
	v.SetDefault("NOTICE_MAX_FILE_SIZE", 10*1024*1024)

	v.SetDefault("QUIZ_QUESTION_COUNT", 10)
	v.SetDefault("QUIZ_POINTS_PER_QUESTION", 10)
	v.SetDefault("QUIZ_EXAM_TYPE_NAME", "퀴즈")

	v.SetDefault("PROFILE_IMAGE_MAX_SIZE", 10*1024*1024)
	v.SetDefault("PROFILE_IMAGE_EXTENSIONS", ".jpeg,.jpg,.png")

	v.SetDefault("PLATFORM_ADMIN_IDS", "")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
