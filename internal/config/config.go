// Package config loads the HCL configuration for the poker backend:
// the server endpoint, the three bet-tier game definitions and the bot
// tuning knobs.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Bet tier labels.
const (
	TierLow    = "low"
	TierMedium = "medium"
	TierHigh   = "high"
)

// Config is the complete backend configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Games  []GameConfig   `hcl:"game,block"`
	Bot    BotSettings    `hcl:"bot,block"`
	Common CommonSettings `hcl:"common,block"`
}

// ServerSettings contains the listen endpoint and logging options.
type ServerSettings struct {
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	Database string `hcl:"database,optional"`
}

// GameConfig defines one bet tier of Texas Hold'em tables.
type GameConfig struct {
	Tier            string `hcl:"tier,label"`
	Name            string `hcl:"name,optional"`
	MinBet          int    `hcl:"min_bet"`
	MaxSeats        int    `hcl:"max_seats,optional"`
	MinPlayers      int    `hcl:"min_players,optional"`
	TurnTimeoutSecs int    `hcl:"turn_timeout_secs,optional"`
	AfterRoundSecs  int    `hcl:"after_round_secs,optional"`
	BotMinMoney     int    `hcl:"bot_min_money,optional"`
	BotRaiseAmounts []int  `hcl:"bot_raise_amounts,optional"`
}

// TurnTimeout returns the per-seat decision time.
func (g GameConfig) TurnTimeout() time.Duration {
	return time.Duration(g.TurnTimeoutSecs) * time.Second
}

// AfterRoundDelay returns the pause between a finished hand and the next.
func (g GameConfig) AfterRoundDelay() time.Duration {
	return time.Duration(g.AfterRoundSecs) * time.Second
}

// BotSettings contains tier-independent bot tuning.
type BotSettings struct {
	StartMoney    int `hcl:"start_money,optional"`
	TurnTimeMinMs int `hcl:"turn_time_min_ms,optional"`
	TurnTimeMaxMs int `hcl:"turn_time_max_ms,optional"`
}

// CommonSettings contains process-wide knobs.
type CommonSettings struct {
	StartGameDelayMs int `hcl:"start_game_delay_ms,optional"`
	StartingTables   int `hcl:"starting_tables,optional"`
}

// StartGameDelay returns the pause before a gathered table starts a hand.
func (c CommonSettings) StartGameDelay() time.Duration {
	return time.Duration(c.StartGameDelayMs) * time.Millisecond
}

// Default returns the stock configuration: three bet tiers matching the
// public deployment.
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Host:     "0.0.0.0",
			Port:     8000,
			LogLevel: "info",
			Database: "poker-pocket.db",
		},
		Games: []GameConfig{
			{
				Tier:            TierLow,
				Name:            "Texas Hold'em with low bets",
				MinBet:          10,
				MaxSeats:        6,
				MinPlayers:      2,
				TurnTimeoutSecs: 20,
				AfterRoundSecs:  10,
				BotMinMoney:     50,
				BotRaiseAmounts: []int{25, 35, 100, 500},
			},
			{
				Tier:            TierMedium,
				Name:            "Texas Hold'em with medium bets",
				MinBet:          100,
				MaxSeats:        6,
				MinPlayers:      2,
				TurnTimeoutSecs: 20,
				AfterRoundSecs:  10,
				BotMinMoney:     200,
				BotRaiseAmounts: []int{125, 150, 200, 250},
			},
			{
				Tier:            TierHigh,
				Name:            "Texas Hold'em with high bets",
				MinBet:          1000,
				MaxSeats:        6,
				MinPlayers:      2,
				TurnTimeoutSecs: 20,
				AfterRoundSecs:  10,
				BotMinMoney:     2000,
				BotRaiseAmounts: []int{1100, 1200, 1500, 2000},
			},
		},
		Bot: BotSettings{
			StartMoney:    10000,
			TurnTimeMinMs: 1000,
			TurnTimeMaxMs: 3000,
		},
		Common: CommonSettings{
			StartGameDelayMs: 3000,
			StartingTables:   4,
		},
	}
}

// Load reads the configuration from an HCL file. A missing file yields the
// defaults; a present file is merged over them field by field.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: parse %s: %s", filename, diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("config: decode %s: %s", filename, diags.Error())
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = def.Server.LogLevel
	}
	if cfg.Server.Database == "" {
		cfg.Server.Database = def.Server.Database
	}
	if len(cfg.Games) == 0 {
		cfg.Games = def.Games
	}
	for i := range cfg.Games {
		g := &cfg.Games[i]
		if g.MaxSeats == 0 {
			g.MaxSeats = 6
		}
		if g.MinPlayers == 0 {
			g.MinPlayers = 2
		}
		if g.TurnTimeoutSecs == 0 {
			g.TurnTimeoutSecs = 20
		}
		if g.AfterRoundSecs == 0 {
			g.AfterRoundSecs = 10
		}
		if g.BotMinMoney == 0 {
			g.BotMinMoney = g.MinBet * 5
		}
		if len(g.BotRaiseAmounts) == 0 {
			g.BotRaiseAmounts = []int{g.MinBet * 2, g.MinBet * 3, g.MinBet * 5, g.MinBet * 10}
		}
	}
	if cfg.Bot.StartMoney == 0 {
		cfg.Bot.StartMoney = def.Bot.StartMoney
	}
	if cfg.Bot.TurnTimeMinMs == 0 {
		cfg.Bot.TurnTimeMinMs = def.Bot.TurnTimeMinMs
	}
	if cfg.Bot.TurnTimeMaxMs == 0 {
		cfg.Bot.TurnTimeMaxMs = def.Bot.TurnTimeMaxMs
	}
	if cfg.Common.StartGameDelayMs == 0 {
		cfg.Common.StartGameDelayMs = def.Common.StartGameDelayMs
	}
	if cfg.Common.StartingTables == 0 {
		cfg.Common.StartingTables = def.Common.StartingTables
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if len(c.Games) == 0 {
		return fmt.Errorf("config: at least one game tier must be configured")
	}
	seen := map[string]bool{}
	for _, g := range c.Games {
		if seen[g.Tier] {
			return fmt.Errorf("config: duplicate game tier %q", g.Tier)
		}
		seen[g.Tier] = true
		if g.MinBet <= 0 {
			return fmt.Errorf("config: game %q: min_bet must be positive", g.Tier)
		}
		if g.MaxSeats < 2 || g.MaxSeats > 10 {
			return fmt.Errorf("config: game %q: max_seats must be between 2 and 10", g.Tier)
		}
		if g.MinPlayers < 2 || g.MinPlayers > g.MaxSeats {
			return fmt.Errorf("config: game %q: min_players must be between 2 and max_seats", g.Tier)
		}
	}
	if c.Bot.TurnTimeMinMs > c.Bot.TurnTimeMaxMs {
		return fmt.Errorf("config: bot turn_time_min_ms exceeds turn_time_max_ms")
	}
	return nil
}

// GameByTier returns the tier's game definition, or nil if unknown.
func (c *Config) GameByTier(tier string) *GameConfig {
	for i := range c.Games {
		if c.Games[i].Tier == tier {
			return &c.Games[i]
		}
	}
	return nil
}

// ListenAddr returns the host:port endpoint string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
