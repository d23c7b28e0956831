// Command auctionwatch follows a ranked auction for one project and one
// bidder account: it resolves the project's minter, opens an auction
// session, and prints the live countdown, pricing, and the account's bid
// set as they evolve. It is watch-only; no transactions are signed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	ethclients "github.com/Iwinswap/iwinswap-ethclients"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	ramauction "github.com/ryley-o/ab-mint-onchain"
	"github.com/ryley-o/ab-mint-onchain/config"
	"github.com/ryley-o/ab-mint-onchain/logs"
	"github.com/ryley-o/ab-mint-onchain/minter"
	"github.com/ryley-o/ab-mint-onchain/pricing"
)

func main() {
	var (
		configPath = flag.String("config", "auctionwatch.json", "path to the JSON configuration file")
		projectRef = flag.String("project", "", "project reference, 0xCORE-PROJECT (required)")
		rpcURL     = flag.String("rpc", "", "JSON-RPC endpoint, overrides the config file")
		account    = flag.String("account", "", "bidder address to watch, overrides the config file")
		fromBlock  = flag.Uint64("from-block", 0, "first block of the bid scan, overrides the config file")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := loadDotenv(); err != nil {
		logger.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	if err := run(logger, *configPath, *projectRef, *rpcURL, *account, *fromBlock); err != nil {
		logger.Error("auctionwatch failed", "error", err)
		os.Exit(1)
	}
}

func loadDotenv() error {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

func run(logger *slog.Logger, configPath, projectRef, rpcURL, account string, fromBlock uint64) error {
	if projectRef == "" {
		return fmt.Errorf("-project is required (0xCORE-PROJECT)")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if rpcURL == "" {
		rpcURL = cfg.RPCURL
	}
	if env := os.Getenv("RPC_URL"); rpcURL == "" && env != "" {
		rpcURL = env
	}
	if account == "" {
		account = cfg.Account
	}
	if fromBlock == 0 {
		fromBlock = cfg.StartBlock
	}
	if !common.IsHexAddress(account) {
		return fmt.Errorf("%q is not a bidder address", account)
	}

	core, project, err := config.ParseProjectRef(projectRef)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	defer client.Close()

	resolution, err := minter.NewResolver(cfg.SupportedMinterTypes, cfg.TrustedFilters()).Resolve(ctx, client, core, project)
	if err != nil {
		return fmt.Errorf("resolve minter: %w", err)
	}
	logger.Info("resolved project",
		"name", resolution.ProjectName,
		"artist", resolution.Artist,
		"minter", resolution.Minter.Hex(),
		"minter_type", resolution.MinterType,
	)

	scanner := logs.NewScanner(resolution.Minter, project, core, logger)
	priceSlots := pricing.NewBidPricer(cfg.MaxConcurrentPriceCalls)

	session, err := ramauction.Open(ctx, &ramauction.Config{
		SessionName:   "auctionwatch",
		PrometheusReg: prometheus.NewRegistry(),
		Project:       project,
		Core:          core,
		Minter:        resolution.Minter,
		Account:       common.HexToAddress(account),
		StartBlock:    fromBlock,
		GetClient: func() (ethclients.ETHClient, error) {
			return client, nil
		},
		HeadBlock: func(ctx context.Context, c ethclients.ETHClient) (uint64, error) {
			return c.BlockNumber(ctx)
		},
		ScanBids: scanner.Scan,
		EstimateStartBlock: func(ctx context.Context, c ethclients.ETHClient, timestamp int64) (uint64, error) {
			return logs.EstimateStartBlock(ctx, c, timestamp, time.Now())
		},
		AuctionDetails: func(ctx context.Context, c ethclients.ETHClient) (*pricing.AuctionSummary, error) {
			return pricing.AuctionDetails(ctx, c, resolution.Minter, project, core)
		},
		MinimumNextBid: func(ctx context.Context, c ethclients.ETHClient) (*big.Int, uint16, error) {
			return pricing.MinimumNextBid(ctx, c, resolution.Minter, project, core)
		},
		LowestBid: func(ctx context.Context, c ethclients.ETHClient) (*big.Int, error) {
			return pricing.LowestBidValue(ctx, c, resolution.Minter, project, core)
		},
		PriceSlots: func(ctx context.Context, c ethclients.ETHClient, slots []uint16) ([]*big.Int, []error) {
			return priceSlots(ctx, c, resolution.Minter, project, core, slots)
		},
		ErrorHandler: func(err error) {},
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	if _, err := session.LoadMyBids(ctx); err != nil {
		logger.Warn("initial bid scan failed, will keep the empty set", "error", err)
	}

	printView(logger, session)
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			printView(logger, session)
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		}
	}
}

func printView(logger *slog.Logger, session *ramauction.AuctionSession) {
	state, remaining, err := session.Status()
	if err != nil {
		logger.Warn("auction window is inconsistent", "error", err)
	} else {
		logger.Info("auction", "state", state.String(), "remaining", remaining)
	}

	summary := session.Summary()
	logger.Info("summary",
		"bids", summary.NumBids,
		"tokens", summary.NumTokensInAuction,
		"base_price", ramauction.FormatWei(summary.BasePrice),
		"lowest_bid", session.LowestBid(),
		"min_next_bid", session.MinimumNextBid(),
	)

	for _, bid := range session.MyBids() {
		logger.Info("my bid", "id", bid.BidID, "slot", bid.SlotIndex)
	}
}
