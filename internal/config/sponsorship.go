package config

const (
	// DefaultChainID is Base mainnet.
	DefaultChainID uint64 = 8453
	// DefaultEntryPoint is the canonical v0.6 entrypoint.
	DefaultEntryPoint = "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"
)

// SponsorshipConfig is the allow-list the policy evaluator enforces.
type SponsorshipConfig struct {
	ChainID           uint64 `yaml:"chain-id"`
	EntryPoint        string `yaml:"entry-point"`
	FeeSweepAddress   string `yaml:"fee-sweep-address"`
	SponsoredContract string `yaml:"sponsored-contract"`
}

func loadSponsorship(base SponsorshipConfig) SponsorshipConfig {
	chainID := base.ChainID
	if chainID == 0 {
		chainID = DefaultChainID
	}
	return SponsorshipConfig{
		ChainID:           u64env("CHAIN_ID", chainID),
		EntryPoint:        getenv("ENTRY_POINT", or(base.EntryPoint, DefaultEntryPoint)),
		FeeSweepAddress:   getenv("FEE_SWEEP_ADDRESS", base.FeeSweepAddress),
		SponsoredContract: getenv("SPONSORED_CONTRACT_ADDRESS", base.SponsoredContract),
	}
}

func (s SponsorshipConfig) validate() []error {
	var errs []error
	if s.ChainID == 0 {
		errs = append(errs, missing("CHAIN_ID"))
	}
	for _, kv := range []struct{ key, value string }{
		{"ENTRY_POINT", s.EntryPoint},
		{"FEE_SWEEP_ADDRESS", s.FeeSweepAddress},
		{"SPONSORED_CONTRACT_ADDRESS", s.SponsoredContract},
	} {
		if err := addressErr(kv.key, kv.value); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
