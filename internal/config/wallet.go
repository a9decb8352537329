package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
)

// WalletConfig configures the smart account driven by the wallet CLI.
type WalletConfig struct {
	ChainRPCURL         string        `yaml:"chain-rpc-url"`
	OwnerPrivateKey     string        `yaml:"owner-private-key"`
	AccountAddress      string        `yaml:"account-address"`
	OwnerIndex          uint64        `yaml:"owner-index"`
	SelfFunded          bool          `yaml:"self-funded"`
	ReceiptPollInterval time.Duration `yaml:"receipt-poll-interval"`
}

func loadWallet(base WalletConfig) WalletConfig {
	poll := base.ReceiptPollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return WalletConfig{
		ChainRPCURL:         getenv("CHAIN_RPC_URL", base.ChainRPCURL),
		OwnerPrivateKey:     getenv("OWNER_PRIVATE_KEY", base.OwnerPrivateKey),
		AccountAddress:      getenv("ACCOUNT_ADDRESS", base.AccountAddress),
		OwnerIndex:          indexenv("ACCOUNT_OWNER_INDEX", base.OwnerIndex),
		SelfFunded:          boolenv("WALLET_SELF_FUNDED", base.SelfFunded),
		ReceiptPollInterval: durationEnvSeconds("RECEIPT_POLL_INTERVAL", poll),
	}
}

func (w WalletConfig) validate() []error {
	var errs []error
	if w.ChainRPCURL == "" {
		errs = append(errs, missing("CHAIN_RPC_URL"))
	}
	if w.OwnerPrivateKey == "" {
		errs = append(errs, missing("OWNER_PRIVATE_KEY"))
	} else if _, err := crypto.HexToECDSA(trim0x(w.OwnerPrivateKey)); err != nil {
		errs = append(errs, fmt.Errorf("OWNER_PRIVATE_KEY is not a valid secp256k1 key"))
	}
	if err := addressErr("ACCOUNT_ADDRESS", w.AccountAddress); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func trim0x(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
