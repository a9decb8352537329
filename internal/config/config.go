package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config is built once at startup and passed by value into every component.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Backends    BackendConfig     `yaml:"backends"`
	Sponsorship SponsorshipConfig `yaml:"sponsorship"`
	Wallet      WalletConfig      `yaml:"wallet"`
}

// Load reads the optional CONFIG_FILE and then lets environment variables
// override it. Validation is left to the caller since the gateway and the
// wallet CLI require different keys.
func Load() Config {
	ensureEnvLoaded()
	var cfg Config
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		file, err := loadFile(path)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = file
	}
	return fromEnv(cfg)
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func fromEnv(base Config) Config {
	return Config{
		Server:      loadServer(base.Server),
		Backends:    loadBackends(base.Backends),
		Sponsorship: loadSponsorship(base.Sponsorship),
		Wallet:      loadWallet(base.Wallet),
	}
}

// Validate checks everything the gateway needs and reports all missing or
// malformed keys at once.
func (c Config) Validate() error {
	var errs []error
	errs = append(errs, c.Backends.validate()...)
	errs = append(errs, c.Sponsorship.validate()...)
	return errors.Join(errs...)
}

// ValidateWallet checks the keys the wallet CLI needs.
func (c Config) ValidateWallet() error {
	var errs []error
	errs = append(errs, c.Backends.validateBundler()...)
	if !c.Wallet.SelfFunded && c.Backends.PaymasterURL == "" {
		errs = append(errs, missing("PAYMASTER_URL"))
	}
	if c.Sponsorship.ChainID == 0 {
		errs = append(errs, missing("CHAIN_ID"))
	}
	errs = append(errs, addressErr("ENTRY_POINT", c.Sponsorship.EntryPoint))
	errs = append(errs, c.Wallet.validate()...)
	return errors.Join(errs...)
}

func missing(key string) error {
	return fmt.Errorf("missing %s", key)
}

func addressErr(key, value string) error {
	if value == "" {
		return missing(key)
	}
	if !common.IsHexAddress(value) {
		return fmt.Errorf("%s is not a hex address: %q", key, value)
	}
	return nil
}
