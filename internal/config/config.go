package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`

	Backend BackendConfig `mapstructure:"backend"`

	Socket SocketConfig `mapstructure:"socket"`

	Tracker TrackerConfig `mapstructure:"tracker"`

	Store StoreConfig `mapstructure:"store"`

	Discord DiscordConfig `mapstructure:"discord"`

	Log LogConfig `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" validate:"required"`

	Port string `mapstructure:"port" validate:"required,numeric"`

	ApiKey string `mapstructure:"apiKey"`

	SignInPath string `mapstructure:"signInPath" validate:"required,startswith=/"`
}

type BackendConfig struct {
	BaseURL string `mapstructure:"baseURL" validate:"required,url"`

	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type SocketConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`

	Namespace string `mapstructure:"namespace" validate:"required"`

	ReconnectAttempts int `mapstructure:"reconnectAttempts" validate:"gte=0"`

	ReconnectDelay time.Duration `mapstructure:"reconnectDelay" validate:"gt=0"`

	AwaitConnectFrame bool `mapstructure:"awaitConnectFrame"`
}

type TrackerConfig struct {
	PollInterval time.Duration `mapstructure:"pollInterval" validate:"gt=0"`

	SafetyTimeout time.Duration `mapstructure:"safetyTimeout" validate:"gt=0"`

	DefaultShotTypes []string `mapstructure:"defaultShotTypes" validate:"min=1,dive,required"`
}

type StoreConfig struct {
	DSN string `mapstructure:"dsn" validate:"required"`
}

// DiscordConfig enables completion notifications when both fields are set.
type DiscordConfig struct {
	BotToken string `mapstructure:"botToken"`

	ChannelId string `mapstructure:"channelId" validate:"required_with=BotToken"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	Development bool `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "9000")
	v.SetDefault("server.signInPath", "/signin")
	v.SetDefault("backend.baseURL", "http://127.0.0.1:8000/api")
	v.SetDefault("backend.timeout", 60*time.Second)
	v.SetDefault("socket.url", "ws://127.0.0.1:8000")
	v.SetDefault("socket.namespace", "generation")
	v.SetDefault("socket.reconnectAttempts", 5)
	v.SetDefault("socket.reconnectDelay", time.Second)
	v.SetDefault("socket.awaitConnectFrame", true)
	v.SetDefault("tracker.pollInterval", 5*time.Second)
	v.SetDefault("tracker.safetyTimeout", 10*time.Minute)
	v.SetDefault("tracker.defaultShotTypes", []string{"duo", "solo", "flatlay_front"})
	v.SetDefault("store.dsn", "visualgen.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", true)
}

// Load reads config.yaml from the given paths, VISUALGEN_* env vars take precedence.
// A missing config file is not an error, defaults apply.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("visualgen")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
