package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration
type Config struct {
	Server   ServerSettings   `hcl:"server,block"`
	Game     GameSettings     `hcl:"game,block"`
	Decision DecisionSettings `hcl:"decision,block"`
	Storage  StorageSettings  `hcl:"storage,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains default session rules
type GameSettings struct {
	MaxPlayers int `hcl:"max_players,optional"`
	ScoreToWin int `hcl:"score_to_win,optional"`
}

// DecisionSettings configures the external reasoning service
type DecisionSettings struct {
	Provider  string `hcl:"provider,optional"` // "openai" or "random"
	BaseURL   string `hcl:"base_url,optional"`
	Model     string `hcl:"model,optional"`
	APIKeyEnv string `hcl:"api_key_env,optional"`
	TimeoutMS int    `hcl:"timeout_ms,optional"`
}

// StorageSettings configures the persistence mirror
type StorageSettings struct {
	Path string `hcl:"path,optional"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: GameSettings{
			MaxPlayers: 8,
			ScoreToWin: 7,
		},
		Decision: DecisionSettings{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			TimeoutMS: 5000,
		},
		Storage: StorageSettings{
			Path: "cardczar.db",
		},
	}
}

// LoadConfig loads server configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Game.MaxPlayers == 0 {
		config.Game.MaxPlayers = 8
	}
	if config.Game.ScoreToWin == 0 {
		config.Game.ScoreToWin = 7
	}
	if config.Decision.Provider == "" {
		config.Decision.Provider = "openai"
	}
	if config.Decision.Model == "" {
		config.Decision.Model = "gpt-4o-mini"
	}
	if config.Decision.APIKeyEnv == "" {
		config.Decision.APIKeyEnv = "OPENAI_API_KEY"
	}
	if config.Decision.TimeoutMS == 0 {
		config.Decision.TimeoutMS = 5000
	}
	if config.Storage.Path == "" {
		config.Storage.Path = "cardczar.db"
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.MaxPlayers < 3 || c.Game.MaxPlayers > 20 {
		return fmt.Errorf("max players must be between 3 and 20, got %d", c.Game.MaxPlayers)
	}
	if c.Game.ScoreToWin < 1 {
		return fmt.Errorf("score to win must be positive, got %d", c.Game.ScoreToWin)
	}
	switch c.Decision.Provider {
	case "openai", "random":
	default:
		return fmt.Errorf("invalid decision provider: %s", c.Decision.Provider)
	}
	if c.Decision.TimeoutMS < 100 {
		return fmt.Errorf("decision timeout must be at least 100ms, got %d", c.Decision.TimeoutMS)
	}
	return nil
}

// ServerAddress returns the full listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// DecisionTimeout returns the decision timeout as a duration
func (c *Config) DecisionTimeout() time.Duration {
	return time.Duration(c.Decision.TimeoutMS) * time.Millisecond
}
