package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds CLI configuration. Flags override the environment.
type Config struct {
	ServerURL string `env:"QUIZCTL_SERVER" envDefault:"http://localhost:8080"`
	Token     string `env:"QUIZCTL_TOKEN"`
	TokenFile string `env:"QUIZCTL_TOKEN_FILE"`
	Output    string `env:"QUIZCTL_OUTPUT" envDefault:"text"`
	Verbose   bool   `env:"QUIZCTL_VERBOSE"`
}

// DefaultConfig returns a Config populated from the environment
func DefaultConfig() *Config {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		cfg = Config{ServerURL: "http://localhost:8080", Output: "text"}
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = defaultTokenFile()
	}
	return &cfg
}

// LoadToken loads the token from file if not already set
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No token file is fine
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken saves the token to the token file
func (c *Config) SaveToken(token string) error {
	c.Token = token

	dir := filepath.Dir(c.TokenFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.TokenFile, []byte(token), 0600)
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".quizctl", "token")
	}
	return filepath.Join(home, ".quizctl", "token")
}
