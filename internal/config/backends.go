package config

import "time"

// BackendConfig holds the downstream JSON-RPC services the gateway talks to.
type BackendConfig struct {
	BundlerURL   string        `yaml:"bundler-url"`
	PaymasterURL string        `yaml:"paymaster-url"`
	GasPriceURL  string        `yaml:"gas-price-url"`
	Timeout      time.Duration `yaml:"timeout"`
}

func loadBackends(base BackendConfig) BackendConfig {
	bundler := getenv("BUNDLER_URL", base.BundlerURL)
	timeout := base.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return BackendConfig{
		BundlerURL:   bundler,
		PaymasterURL: getenv("PAYMASTER_URL", base.PaymasterURL),
		// pimlico-style bundlers serve the gas price method themselves
		GasPriceURL: getenv("GAS_PRICE_URL", or(base.GasPriceURL, bundler)),
		Timeout:     durationEnvSeconds("BACKEND_TIMEOUT", timeout),
	}
}

func (b BackendConfig) validate() []error {
	errs := b.validateBundler()
	if b.PaymasterURL == "" {
		errs = append(errs, missing("PAYMASTER_URL"))
	}
	return errs
}

func (b BackendConfig) validateBundler() []error {
	var errs []error
	if b.BundlerURL == "" {
		errs = append(errs, missing("BUNDLER_URL"))
	}
	if b.GasPriceURL == "" {
		errs = append(errs, missing("GAS_PRICE_URL"))
	}
	return errs
}
