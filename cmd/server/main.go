package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexanderTar/art-collection/docs"
	"github.com/AlexanderTar/art-collection/internal/backend"
	"github.com/AlexanderTar/art-collection/internal/calldata"
	cfgpkg "github.com/AlexanderTar/art-collection/internal/config"
	"github.com/AlexanderTar/art-collection/internal/gateway"
	"github.com/AlexanderTar/art-collection/internal/policy"
	"github.com/AlexanderTar/art-collection/internal/server"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"
)

// @title Art Collection Sponsorship Gateway API
// @version 1.0
// @description ERC-4337 gas sponsorship gateway for the art collection contracts.
// @BasePath /
func main() {
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Title = "Art Collection Sponsorship Gateway API"
	docs.SwaggerInfo.BasePath = "/"

	cfg := cfgpkg.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration:\n%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Wallet.ChainRPCURL != "" {
		checkChainID(ctx, cfg.Wallet.ChainRPCURL, cfg.Sponsorship.ChainID)
	}

	rules, err := policy.RulesFromConfig(cfg.Sponsorship)
	if err != nil {
		log.Fatalf("sponsorship rules: %v", err)
	}
	evaluator := policy.New(rules, calldata.DefaultSchemas(), log.New(log.Writer(), "policy: ", log.LstdFlags))

	timeout := cfg.Backends.Timeout
	bundlerRPC, err := backend.Dial(ctx, cfg.Backends.BundlerURL, timeout)
	if err != nil {
		log.Fatalf("dial bundler: %v", err)
	}
	defer bundlerRPC.Close()
	paymasterRPC, err := backend.Dial(ctx, cfg.Backends.PaymasterURL, timeout)
	if err != nil {
		log.Fatalf("dial paymaster: %v", err)
	}
	defer paymasterRPC.Close()
	gasPriceRPC, err := backend.Dial(ctx, cfg.Backends.GasPriceURL, timeout)
	if err != nil {
		log.Fatalf("dial gas price oracle: %v", err)
	}
	defer gasPriceRPC.Close()

	deps := gateway.Deps{
		GasPrice:  backend.NewGasPriceClient(gasPriceRPC),
		Paymaster: backend.NewPaymasterClient(paymasterRPC),
		Bundler:   backend.NewBundlerClient(bundlerRPC),
		Relay:     backend.NewRelay(cfg.Backends.BundlerURL, timeout),
		Policy:    evaluator,
	}
	rpcH := gateway.NewHandler(gateway.VariantBundler, deps, log.New(log.Writer(), "rpc: ", log.LstdFlags))
	pmH := gateway.NewHandler(gateway.VariantPaymaster, deps, log.New(log.Writer(), "pm: ", log.LstdFlags))

	r := server.NewRouter(cfg, rpcH, pmH)
	srv := server.NewHTTP(cfg.Server.HTTPAddr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("gateway listening on %s (chain %d, entrypoint %s)", cfg.Server.HTTPAddr, rules.ChainID, rules.EntryPoint.Hex())
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdown)
	})
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

// checkChainID refuses to start when the node behind CHAIN_RPC_URL serves a
// different chain than the one sponsorship is configured for.
func checkChainID(ctx context.Context, url string, want uint64) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		log.Fatalf("failed to connect chain rpc: %v", err)
	}
	defer client.Close()
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	got, err := client.ChainID(cctx)
	if err != nil {
		log.Fatalf("failed to get chain id: %v", err)
	}
	if got.Uint64() != want {
		log.Fatalf("chain rpc serves chain %d, sponsorship configured for %d", got.Uint64(), want)
	}
}
