package config

import (
	"os"
	"path/filepath"
	"strings"

	"nftmarket/crypto"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress         string `toml:"RPCAddress"`
	DataDir            string `toml:"DataDir"`
	Environment        string `toml:"Environment"`
	EscrowKeystorePath string `toml:"EscrowKeystorePath"`
	EscrowAddress      string `toml:"EscrowAddress"`
	EventHistory       int    `toml:"EventHistory"`
	RPCReadTimeout     int    `toml:"RPCReadTimeout"`
	RPCWriteTimeout    int    `toml:"RPCWriteTimeout"`
	RPCIdleTimeout     int    `toml:"RPCIdleTimeout"`
}

// Load loads the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.EscrowAddress) == "" {
		if err := ensureEscrowKey(path, cfg); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if cfg.EventHistory <= 0 {
		cfg.EventHistory = 1024
	}

	return cfg, nil
}

// ensureEscrowKey generates the escrow custody key when the config does not
// name one, and records the derived address back into the file so restarts
// keep the same escrow account.
func ensureEscrowKey(configPath string, cfg *Config) error {
	keystorePath := cfg.EscrowKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveEscrowKey(keystorePath, key, ""); err != nil {
			return err
		}
		cfg.EscrowAddress = key.PubKey().Address().String()
	} else if err != nil {
		return err
	} else {
		key, loadErr := crypto.LoadEscrowKey(keystorePath, "")
		if loadErr != nil {
			return loadErr
		}
		cfg.EscrowAddress = key.PubKey().Address().String()
	}

	cfg.EscrowKeystorePath = keystorePath
	return persist(configPath, cfg)
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveEscrowKey(keystorePath, key, ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:         ":8080",
		DataDir:            "./market-data",
		Environment:        "local",
		EscrowKeystorePath: keystorePath,
		EscrowAddress:      key.PubKey().Address().String(),
		EventHistory:       1024,
		RPCReadTimeout:     20,
		RPCWriteTimeout:    20,
		RPCIdleTimeout:     120,
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "escrow.keystore")
}
