// internal/config/config.go
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config is the process configuration: defaults, overridden by an
// optional settings.json in the working directory, overridden by
// IMPOSTER_-prefixed environment variables.
type Config struct {
	ListenAddr       string `mapstructure:"listen_addr"`
	MaxPlayers       int    `mapstructure:"max_players"`
	MinPlayers       int    `mapstructure:"min_players"`
	RoundsBeforeVote int    `mapstructure:"rounds_before_vote"`
	WordsFile        string `mapstructure:"words_file"`
	BeaconEnabled    bool   `mapstructure:"beacon_enabled"`
	BeaconAddr       string `mapstructure:"beacon_addr"`
	DebugMode        bool   `mapstructure:"debug_mode"`
}

// Load resolves the configuration. A missing settings file is fine; a
// present but unreadable one is an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":5555")
	v.SetDefault("max_players", 10)
	v.SetDefault("min_players", 3)
	v.SetDefault("rounds_before_vote", 2)
	v.SetDefault("words_file", "words.txt")
	v.SetDefault("beacon_enabled", true)
	v.SetDefault("beacon_addr", "255.255.255.255:5556")
	v.SetDefault("debug_mode", false)

	v.SetConfigName("settings")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetEnvPrefix("imposter")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
