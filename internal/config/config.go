package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

const FileName = "framestudio.cfg.json"

// Settings is the typed view over the loaded configuration.
type Settings struct {
	LogLevel string `json:"logLevel" mapstructure:"logLevel"`

	Canvas struct {
		Width  int `json:"width" mapstructure:"width"`
		Height int `json:"height" mapstructure:"height"`
	} `json:"canvas" mapstructure:"canvas"`

	Tool struct {
		Width int    `json:"width" mapstructure:"width"`
		Color string `json:"color" mapstructure:"color"`
	} `json:"tool" mapstructure:"tool"`

	Playback struct {
		FPS int `json:"fps" mapstructure:"fps"`
	} `json:"playback" mapstructure:"playback"`

	Onion struct {
		Opacity float64 `json:"opacity" mapstructure:"opacity"`
	} `json:"onion" mapstructure:"onion"`

	Export ExportConfig `json:"export" mapstructure:"export"`

	Presence PresenceConfig `json:"presence" mapstructure:"presence"`
}

// ExportConfig holds archive export settings
type ExportConfig struct {
	FileName         string `json:"filename" mapstructure:"filename"`
	CompressionLevel int    `json:"compressionLevel" mapstructure:"compressionLevel"`
	Order            string `json:"order" mapstructure:"order"`
}

// PresenceConfig holds the viewer-count hub settings
type PresenceConfig struct {
	Enabled   bool `json:"enabled" mapstructure:"enabled"`
	Port      int  `json:"port" mapstructure:"port"`
	Advertise bool `json:"advertise" mapstructure:"advertise"`
}

// Load sets default values and reads the optional config file.
// configDir is the directory containing the config file. A missing file
// is not an error; a malformed one is.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("canvas.width", 640)
	viper.SetDefault("canvas.height", 480)

	viper.SetDefault("tool.width", 5)
	viper.SetDefault("tool.color", "#000000")

	viper.SetDefault("playback.fps", 12)
	viper.SetDefault("onion.opacity", 0.3)

	viper.SetDefault("export.filename", "animation_frames.zip")
	viper.SetDefault("export.compressionLevel", 6)
	viper.SetDefault("export.order", "id")

	viper.SetDefault("presence.enabled", true)
	viper.SetDefault("presence.port", 8888)
	viper.SetDefault("presence.advertise", true)

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// Get decodes the current configuration into Settings.
func Get() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}
