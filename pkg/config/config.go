package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "ESTATEDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "ESTATEDESK_APP_ENV"
	EnvPort         = "ESTATEDESK_APP_PORT"
	EnvDBDSN        = "ESTATEDESK_DB_DSN"
	EnvDBHost       = "ESTATEDESK_DB_HOST"
	EnvDBUser       = "ESTATEDESK_DB_USER"
	EnvDBName       = "ESTATEDESK_DB_NAME"
	EnvRedisURL     = "ESTATEDESK_REDIS_URL"
	EnvJWTSecret    = "ESTATEDESK_JWT_SECRET"
	EnvJWTIssuer    = "ESTATEDESK_JWT_ISSUER"
	EnvJWTExpMins   = "ESTATEDESK_JWT_EXPIRATION_MINUTES"
	EnvGCPProjectID = "ESTATEDESK_GCP_PROJECT_ID"
	EnvGCSBucket    = "ESTATEDESK_GCS_BUCKET_NAME"
	EnvGCSPublicURL = "ESTATEDESK_GCS_PUBLIC_BASE_URL"
	EnvSaleLockTTL  = "ESTATEDESK_SALE_LOCK_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Sale         SaleConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"ESTATEDESK_APP_ENV" required:"true"`
	Port         string   `envconfig:"ESTATEDESK_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"ESTATEDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"ESTATEDESK_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"ESTATEDESK_LOG_FORMAT" default:"json"`
	CORSOrigins  []string `envconfig:"ESTATEDESK_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ESTATEDESK_DB_DSN"`
	Driver string `envconfig:"ESTATEDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ESTATEDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"ESTATEDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ESTATEDESK_DB_USER"`
	LegacyPassword string `envconfig:"ESTATEDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"ESTATEDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"ESTATEDESK_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"ESTATEDESK_DB_SQLITE_PATH" default:"estatedesk.db"`

	MaxOpenConns    int           `envconfig:"ESTATEDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ESTATEDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ESTATEDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ESTATEDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ESTATEDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ESTATEDESK_REDIS_ADDR"`
	Password     string        `envconfig:"ESTATEDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"ESTATEDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ESTATEDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ESTATEDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ESTATEDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ESTATEDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ESTATEDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ESTATEDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ESTATEDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ESTATEDESK_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ESTATEDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ESTATEDESK_AUTO_MIGRATE" default:"false"`
	UnitLock    bool `envconfig:"ESTATEDESK_FEATURE_UNIT_LOCK" default:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ESTATEDESK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"ESTATEDESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ESTATEDESK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string        `envconfig:"ESTATEDESK_GCS_BUCKET_NAME" required:"true"`
	PublicBaseURL string        `envconfig:"ESTATEDESK_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	UploadTimeout time.Duration `envconfig:"ESTATEDESK_GCS_UPLOAD_TIMEOUT" default:"30s"`
}

// SaleConfig tunes the unit sale finalization workflow.
type SaleConfig struct {
	LockTTL        time.Duration `envconfig:"ESTATEDESK_SALE_LOCK_TTL" default:"2m"`
	IdempotencyTTL time.Duration `envconfig:"ESTATEDESK_SALE_IDEMPOTENCY_TTL" default:"168h"`
	MaxUploadMB    int           `envconfig:"ESTATEDESK_SALE_MAX_UPLOAD_MB" default:"20"`
}

// MaxUploadBytes returns the per-request multipart limit.
func (s SaleConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 20 << 20
	}
	return int64(s.MaxUploadMB) << 20
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = "sqlite"
		db.DSN = db.SQLitePath
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
