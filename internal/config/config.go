// Package config handles host-dispatcher configuration using Viper.
//
// The protocol core itself takes no file, CLI, or environment configuration
// (see the external-interfaces section of the specification); this package
// exists for the demo host dispatcher in cmd/compositord, which needs
// somewhere to source the socket name and the set of capabilities to
// advertise from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the demo dispatcher's configuration.
type Config struct {
	Seat       SeatConfig       `mapstructure:"seat"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
}

// SeatConfig describes the single seat the demo dispatcher advertises.
type SeatConfig struct {
	Name           string `mapstructure:"name"`
	EnablePointer  bool   `mapstructure:"enable_pointer"`
	EnableKeyboard bool   `mapstructure:"enable_keyboard"`
	EnableTouch    bool   `mapstructure:"enable_touch"`
}

// DispatcherConfig describes the host-level socket and protocol gating.
type DispatcherConfig struct {
	SocketName        string `mapstructure:"socket_name"`
	DataDeviceVersion uint32 `mapstructure:"data_device_version"`
	PointerVersion    uint32 `mapstructure:"pointer_version"`
}

var (
	// DefaultConfig provides sensible defaults.
	DefaultConfig = Config{
		Seat: SeatConfig{
			Name:           getHostname(),
			EnablePointer:  true,
			EnableKeyboard: true,
			EnableTouch:    false,
		},
		Dispatcher: DispatcherConfig{
			SocketName:        "wayland-0",
			DataDeviceVersion: 3,
			PointerVersion:    5,
		},
	}

	cfg *Config
)

// Init initializes the configuration system from (in order of precedence)
// /etc/wlcore, $HOME/.config/wlcore, and the current directory.
func Init() error {
	viper.SetConfigName("wlcore")
	viper.SetConfigType("toml")

	viper.AddConfigPath("/etc/wlcore")
	if home := os.Getenv("HOME"); home != "" {
		viper.AddConfigPath(filepath.Join(home, ".config", "wlcore"))
	}
	viper.AddConfigPath(".")

	viper.SetDefault("seat", DefaultConfig.Seat)
	viper.SetDefault("dispatcher", DefaultConfig.Dispatcher)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return nil
}

// Get returns the current configuration, falling back to defaults if Init
// was never called.
func Get() *Config {
	if cfg == nil {
		return &DefaultConfig
	}
	return cfg
}

// GetConfigPath returns the path a Save would write to.
func GetConfigPath() string {
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/wlcore/wlcore.toml"
	}
	return filepath.Join(home, ".config", "wlcore", "wlcore.toml")
}

// Save persists the current configuration to file.
func Save() error {
	configPath := GetConfigPath()
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		if os.IsPermission(err) && strings.Contains(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "seat0"
	}
	return hostname
}
