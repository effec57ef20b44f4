package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort       int    `mapstructure:"APP_PORT"`
	DatabasePath  string `mapstructure:"DATABASE_PATH"`
	ClientOrigin  string `mapstructure:"CLIENT_ORIGIN"`
	OpenAIAPIKey  string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`
	Model         string `mapstructure:"OPENAI_MODEL"`
	SystemPrompt  string `mapstructure:"SYSTEM_PROMPT"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 4000)
	viper.SetDefault("DATABASE_PATH", "/data/chat.db")
	viper.SetDefault("CLIENT_ORIGIN", "http://localhost:5173")
	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("OPENAI_MODEL", "gpt-3.5-turbo")
	viper.SetDefault("SYSTEM_PROMPT", "You are a helpful assistant.")
	viper.SetDefault("LOG_LEVEL", "INFO")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// The provider credential has no sensible default. Refusing to start
	// beats failing on the first request.
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("required configuration value OPENAI_API_KEY is not set")
	}

	return &cfg, nil
}
