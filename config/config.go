package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port           string   `mapstructure:"port"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
		// AuthRateLimit is the number of auth requests allowed per IP per minute.
		AuthRateLimit int `mapstructure:"auth_rate_limit"`
	} `mapstructure:"server"`
	Database struct {
		// Driver selects the principal store: "memory" or "postgres".
		Driver   string `mapstructure:"driver"`
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`
	JWT struct {
		AccessSecret     string        `mapstructure:"access_secret"`
		RefreshSecret    string        `mapstructure:"refresh_secret"`
		AccessTTL        time.Duration `mapstructure:"access_ttl"`
		RefreshTTL       time.Duration `mapstructure:"refresh_ttl"`
		Issuer           string        `mapstructure:"issuer"`
		SessionDigestKey string        `mapstructure:"session_digest_key"`
	} `mapstructure:"jwt"`
	Security struct {
		BcryptCost int `mapstructure:"bcrypt_cost"`
	} `mapstructure:"security"`
	Push struct {
		VAPIDPublicKey  string        `mapstructure:"vapid_public_key"`
		VAPIDPrivateKey string        `mapstructure:"vapid_private_key"`
		VAPIDSubject    string        `mapstructure:"vapid_subject"`
		TTL             int           `mapstructure:"ttl"`
		SendTimeout     time.Duration `mapstructure:"send_timeout"`
		DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
		DeepLinkURL     string        `mapstructure:"deep_link_url"`
	} `mapstructure:"push"`
	Notifications struct {
		Workers   int `mapstructure:"workers"`
		QueueSize int `mapstructure:"queue_size"`
	} `mapstructure:"notifications"`
	Realtime struct {
		SendBuffer   int           `mapstructure:"send_buffer"`
		PingInterval time.Duration `mapstructure:"ping_interval"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"realtime"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// PushConfigured reports whether all three VAPID values are present.
func (c *Config) PushConfigured() bool {
	return strings.TrimSpace(c.Push.VAPIDPublicKey) != "" &&
		strings.TrimSpace(c.Push.VAPIDPrivateKey) != "" &&
		strings.TrimSpace(c.Push.VAPIDSubject) != ""
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("config: jwt.access_secret and jwt.refresh_secret must be set")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("config: jwt.access_secret and jwt.refresh_secret must differ")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("config: jwt.access_ttl and jwt.refresh_ttl must be positive")
	}
	switch c.Database.Driver {
	case "memory", "postgres":
	default:
		return errors.New("config: database.driver must be memory or postgres")
	}
	return nil
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "4000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.auth_rate_limit", 60)

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "noxa")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("jwt.access_secret", "")
	v.SetDefault("jwt.refresh_secret", "")
	v.SetDefault("jwt.access_ttl", "15m")
	v.SetDefault("jwt.refresh_ttl", "720h")
	v.SetDefault("jwt.issuer", "noxa-api")
	v.SetDefault("jwt.session_digest_key", "")

	v.SetDefault("security.bcrypt_cost", 12)

	v.SetDefault("push.vapid_public_key", "")
	v.SetDefault("push.vapid_private_key", "")
	v.SetDefault("push.vapid_subject", "")
	v.SetDefault("push.ttl", 60)
	v.SetDefault("push.send_timeout", "10s")
	v.SetDefault("push.delivery_timeout", "30s")
	v.SetDefault("push.deep_link_url", "/dashboard")

	v.SetDefault("notifications.workers", 4)
	v.SetDefault("notifications.queue_size", 1024)

	v.SetDefault("realtime.send_buffer", 32)
	v.SetDefault("realtime.ping_interval", "30s")
	v.SetDefault("realtime.write_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads config.yml from path (if present) and the environment into AppConfig.
// Environment keys replace dots with underscores, e.g. JWT_ACCESS_SECRET.
func LoadConfig(path string) error {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	AppConfig = cfg
	return nil
}
