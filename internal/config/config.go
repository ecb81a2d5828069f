// Package config loads server configuration from a YAML file with viper,
// layering environment variables (TURF_ prefix) over file values over
// built-in defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for the turf server.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Replay  ReplayConfig  `mapstructure:"replay"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the network-facing settings.
type ServerConfig struct {
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

// WebSocketConfig configures the WebSocket gateway.
type WebSocketConfig struct {
	Address string `mapstructure:"address"`
}

// GameConfig holds the match rule constants. Time limits are in seconds.
type GameConfig struct {
	TurnTimeLimit     float64 `mapstructure:"turn_time_limit"`
	ReactionTimeLimit float64 `mapstructure:"reaction_time_limit"`
	GameTimeLimit     float64 `mapstructure:"game_time_limit"`
	HandLimit         int     `mapstructure:"hand_limit"`
	StartingHand      int     `mapstructure:"starting_hand"`
	TurfsPerPlayer    int     `mapstructure:"turfs_per_player"`
	GridRadius        int     `mapstructure:"grid_radius"`
	StairStep         float64 `mapstructure:"stair_step"`
}

// ReplayConfig configures match recording.
type ReplayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given path. A missing file is not an
// error: defaults and environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TURF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.websocket.address", ":8080")

	v.SetDefault("game.turn_time_limit", 60.0)
	v.SetDefault("game.reaction_time_limit", 10.0)
	v.SetDefault("game.game_time_limit", 900.0)
	v.SetDefault("game.hand_limit", 5)
	v.SetDefault("game.starting_hand", 4)
	v.SetDefault("game.turfs_per_player", 3)
	v.SetDefault("game.grid_radius", 3)
	v.SetDefault("game.stair_step", 0.25)

	v.SetDefault("replay.enabled", true)
	v.SetDefault("replay.dir", "replays")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate rejects rule constants a match cannot run with.
func (c *Config) Validate() error {
	g := c.Game
	if g.TurnTimeLimit <= 0 || g.ReactionTimeLimit <= 0 || g.GameTimeLimit <= 0 {
		return fmt.Errorf("time limits must be positive (turn=%v reaction=%v game=%v)",
			g.TurnTimeLimit, g.ReactionTimeLimit, g.GameTimeLimit)
	}
	if g.HandLimit < 1 || g.StartingHand < 0 || g.StartingHand > g.HandLimit {
		return fmt.Errorf("hand limits out of range (hand=%d starting=%d)", g.HandLimit, g.StartingHand)
	}
	if g.GridRadius < 1 {
		return fmt.Errorf("grid radius must be at least 1, got %d", g.GridRadius)
	}
	if g.TurfsPerPlayer < 1 {
		return fmt.Errorf("turfs per player must be at least 1, got %d", g.TurfsPerPlayer)
	}
	if c.Server.WebSocket.Address == "" {
		return fmt.Errorf("websocket address must not be empty")
	}
	return nil
}
