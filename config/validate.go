package config

import (
	"fmt"
	"strings"

	"nftmarket/crypto"
)

// Validate checks a loaded configuration for values the daemon cannot run
// with. The escrow address must decode so custody transfers have a target.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress must not be empty")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if _, err := crypto.DecodeAddress(cfg.EscrowAddress); err != nil {
		return fmt.Errorf("config: invalid EscrowAddress: %w", err)
	}
	if cfg.EventHistory <= 0 {
		return fmt.Errorf("config: EventHistory must be positive")
	}
	if cfg.RPCReadTimeout < 0 || cfg.RPCWriteTimeout < 0 || cfg.RPCIdleTimeout < 0 {
		return fmt.Errorf("config: RPC timeouts must not be negative")
	}
	return nil
}
