package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	ServerPort string `env:"SERVER_PORT" envDefault:":3000"`
	CertFile   string `env:"CERT_FILE"`
	KeyFile    string `env:"KEY_FILE"`

	DBUser     string `env:"DB_USER" envDefault:"root"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"recruitgate"`
	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBMigrate  bool   `env:"DB_MIGRATE" envDefault:"false"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPEmail    string        `env:"SMTP_EMAIL"`
	SMTPPass     string        `env:"SMTP_PASS"`
	SMTPFrom     string        `env:"SMTP_FROM"`
	EmailTimeout time.Duration `env:"EMAIL_TIMEOUT" envDefault:"10s"`

	InviteTokenTTL time.Duration `env:"INVITE_TOKEN_TTL" envDefault:"168h"`
	InviteBaseURL  string        `env:"INVITE_BASE_URL" envDefault:"https://localhost:3000/invite"`

	SweepSchedule  string `env:"SWEEP_SCHEDULE" envDefault:"0 */6 * * *"`
	SweepBatchSize int    `env:"SWEEP_BATCH_SIZE" envDefault:"500"`

	ArtifactDir    string        `env:"ARTIFACT_DIR" envDefault:"data/videos"`
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"60s"`
	MaxVideoBytes  int64         `env:"MAX_VIDEO_BYTES" envDefault:"209715200"`
}

// Load reads an optional .env file and then parses the environment.
func Load(files ...string) (*Config, error) {
	// a missing .env is fine, the process environment may carry everything
	_ = godotenv.Load(files...)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SweepBatchSize <= 0 {
		return nil, fmt.Errorf("SWEEP_BATCH_SIZE must be positive, got %d", cfg.SweepBatchSize)
	}
	if cfg.InviteTokenTTL <= 0 {
		return nil, fmt.Errorf("INVITE_TOKEN_TTL must be positive, got %s", cfg.InviteTokenTTL)
	}
	return &cfg, nil
}

// DSN reports matched rather than changed rows from UPDATE so a conditional
// write that rewrites identical values still counts as applied.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&clientFoundRows=true", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
