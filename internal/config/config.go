package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr         string
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		CORSOrigins  []string      `mapstructure:"cors_origins"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN           string
		MigrationsDir string `mapstructure:"migrations_dir"`
		MaxConns      int32  `mapstructure:"max_conns"`
		MinConns      int32  `mapstructure:"min_conns"`
	} `mapstructure:"postgres"`

	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`

	Redis struct {
		Addr     string
		Password string
		DB       int
	} `mapstructure:"redis"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Tracing struct {
		Enabled     bool
		Endpoint    string
		ServiceName string `mapstructure:"service_name"`
	} `mapstructure:"tracing"`
}

// Load reads the YAML file at path, then applies a .env file (if any) and APP_* env
// overrides, e.g. APP_POSTGRES_DSN or APP_AUTH_JWT_SECRET.
func Load(path string) (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := gotenv.Load(".env"); err != nil {
			return Config{}, err
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "America/Sao_Paulo")
	v.SetDefault("http.addr", ":3002")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("postgres.migrations_dir", "migrations")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("tracing.service_name", "school-supply-api")

	// Without a key in the file or a default, AutomaticEnv never sees these.
	for _, k := range []string{"postgres.dsn", "auth.jwt_secret", "redis.addr", "redis.password", "telegram.token", "telegram.admin_chat_id", "tracing.endpoint"} {
		_ = v.BindEnv(k)
	}
}

func (c Config) Validate() error {
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	return nil
}
