package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Mode string `mapstructure:"mode" validate:"oneof=debug release test"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	FollowingTTL time.Duration `mapstructure:"following_ttl"`
}

// CollaboratorConfig 外部协作方（社交关系、身份）地址与单次调用超时
type CollaboratorConfig struct {
	SocialGraphURL string        `mapstructure:"social_graph_url" validate:"required,url"`
	IdentityURL    string        `mapstructure:"identity_url" validate:"required,url"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"required"`
}

type SearchConfig struct {
	DefaultLimit int    `mapstructure:"default_limit" validate:"min=1"`
	MaxLimit     int    `mapstructure:"max_limit" validate:"min=1"`
	SuggestLimit int    `mapstructure:"suggest_limit" validate:"min=1"`
	DefaultSeed  string `mapstructure:"default_seed" validate:"required"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"min=0"`
	Burst int     `mapstructure:"burst" validate:"min=0"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Redis         RedisConfig        `mapstructure:"redis"`
	Collaborators CollaboratorConfig `mapstructure:"collaborators"`
	Search        SearchConfig       `mapstructure:"search"`
	Auth          AuthConfig         `mapstructure:"auth"`
	RateLimit     RateLimitConfig    `mapstructure:"ratelimit"`
	Sentry        SentryConfig       `mapstructure:"sentry"`
	Tracing       TracingConfig      `mapstructure:"tracing"`
	Log           LogConfig          `mapstructure:"log"`
}

// Load 读取 config.yaml 并允许环境变量覆盖（APP_SERVER_PORT 等）
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件可缺省，此时完全依赖默认值与环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3004)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:discovery.db?cache=shared")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.following_ttl", "30s")
	v.SetDefault("collaborators.social_graph_url", "http://localhost:3001/social")
	v.SetDefault("collaborators.identity_url", "http://localhost:3001/auth")
	v.SetDefault("collaborators.timeout", "2s")
	v.SetDefault("search.default_limit", 20)
	v.SetDefault("search.max_limit", 100)
	v.SetDefault("search.suggest_limit", 5)
	v.SetDefault("search.default_seed", "defaultseed")
	v.SetDefault("ratelimit.rps", 20)
	v.SetDefault("ratelimit.burst", 40)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("log.level", "info")
}
