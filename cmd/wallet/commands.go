package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"
	"time"

	"github.com/AlexanderTar/art-collection/internal/backend"
	cfgpkg "github.com/AlexanderTar/art-collection/internal/config"
	"github.com/AlexanderTar/art-collection/internal/smartaccount"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/urfave/cli/v2"
)

const defaultTimeout = 3 * time.Minute

type session struct {
	provider *smartaccount.Provider
	address  common.Address
	closers  []func()
}

func (s *session) Close() {
	for _, c := range s.closers {
		c()
	}
}

func openSession(ctx context.Context) (*session, error) {
	cfg := cfgpkg.Load()
	if err := cfg.ValidateWallet(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	s := &session{}
	dial := func(url string) (*rpc.Client, error) {
		c, err := backend.Dial(ctx, url, cfg.Backends.Timeout)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, c.Close)
		return c, nil
	}

	bundlerRPC, err := dial(cfg.Backends.BundlerURL)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("dial bundler: %w", err)
	}
	gasPriceRPC, err := dial(cfg.Backends.GasPriceURL)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("dial gas price oracle: %w", err)
	}
	chainRPC, err := dial(cfg.Wallet.ChainRPCURL)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}
	owner, err := smartaccount.NewSigner(cfg.Wallet.OwnerPrivateKey)
	if err != nil {
		s.Close()
		return nil, err
	}

	opts := smartaccount.CoinbaseOptions{
		Address:      common.HexToAddress(cfg.Wallet.AccountAddress),
		Owner:        owner,
		OwnerIndex:   cfg.Wallet.OwnerIndex,
		EntryPoint:   common.HexToAddress(cfg.Sponsorship.EntryPoint),
		ChainID:      cfg.Sponsorship.ChainID,
		Bundler:      backend.NewBundlerClient(bundlerRPC),
		GasPrice:     backend.NewGasPriceClient(gasPriceRPC),
		Chain:        ethclient.NewClient(chainRPC),
		Transport:    chainRPC,
		PollInterval: cfg.Wallet.ReceiptPollInterval,
		Logger:       log.New(os.Stderr, "wallet: ", log.LstdFlags),
	}
	if !cfg.Wallet.SelfFunded {
		paymasterRPC, err := dial(cfg.Backends.PaymasterURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("dial paymaster: %w", err)
		}
		opts.Paymaster = backend.NewPaymasterClient(paymasterRPC)
	}
	account, err := smartaccount.NewCoinbaseAccount(opts)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.address = opts.Address
	s.provider = smartaccount.NewProvider(account, log.New(os.Stderr, "provider: ", log.LstdFlags))
	return s, nil
}

func withSession(c *cli.Context, fn func(ctx context.Context, s *session) (any, error)) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	out, err := fn(ctx, s)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func accounts(c *cli.Context) error {
	return withSession(c, func(_ context.Context, s *session) (any, error) {
		return s.provider.Accounts(), nil
	})
}

func send(c *cli.Context) error {
	to := c.String("to")
	if !common.IsHexAddress(to) {
		return fmt.Errorf("--to is not a hex address: %q", to)
	}
	data, err := hexutil.Decode(c.String("data"))
	if err != nil {
		return fmt.Errorf("--data: %w", err)
	}
	value, ok := new(big.Int).SetString(c.String("value"), 0)
	if !ok || value.Sign() < 0 {
		return fmt.Errorf("--value: invalid amount %q", c.String("value"))
	}
	tx := smartaccount.Transaction{To: common.HexToAddress(to), Data: data, Value: (*math.HexOrDecimal256)(value)}
	return withSession(c, func(ctx context.Context, s *session) (any, error) {
		res, err := s.provider.SendTransaction(ctx, tx)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"userOpHash":      res.UserOpHash,
			"transactionHash": res.TransactionHash,
			"success":         res.Receipt.Success,
			"actualGasCost":   res.Receipt.ActualGasCost,
		}, nil
	})
}

func sign(c *cli.Context) error {
	msg := c.String("message")
	return withSession(c, func(ctx context.Context, s *session) (any, error) {
		params, err := personalSignParams(msg, s.address)
		if err != nil {
			return nil, err
		}
		return s.provider.Request(ctx, "personal_sign", params)
	})
}

func personalSignParams(msg string, addr common.Address) (json.RawMessage, error) {
	params, err := json.Marshal([]string{msg, addr.Hex()})
	if err != nil {
		return nil, fmt.Errorf("encode personal_sign params: %w", err)
	}
	return params, nil
}

func signTypedData(c *cli.Context) error {
	doc, err := os.ReadFile(c.Path("file"))
	if err != nil {
		return err
	}
	return withSession(c, func(ctx context.Context, s *session) (any, error) {
		sig, err := s.provider.SignTypedData(ctx, s.address.Hex(), doc)
		if err != nil {
			return nil, err
		}
		return hexutil.Bytes(sig), nil
	})
}

func request(c *cli.Context) error {
	params := json.RawMessage(c.String("params"))
	if !json.Valid(params) {
		return fmt.Errorf("--params is not valid JSON")
	}
	return withSession(c, func(ctx context.Context, s *session) (any, error) {
		return s.provider.Request(ctx, c.String("method"), params)
	})
}
