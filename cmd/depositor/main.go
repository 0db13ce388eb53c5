// Command depositor scans a holder's cross-chain balances, builds a deposit
// plan for a USD target and optionally executes it with a local private key.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"chainfund/internal/app/provider"
	"chainfund/internal/app/service"
	"chainfund/internal/domain/entity"
	"chainfund/internal/infrastructure/configloader"
	evmclient "chainfund/internal/infrastructure/network/client"
	"chainfund/internal/infrastructure/pricefeed"
	"chainfund/internal/infrastructure/routing"
	"chainfund/internal/pkg/logger"
	"chainfund/internal/pkg/metrics"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		cfgPath   = flag.String("config", "config/config.yaml", "path to the configuration file")
		holder    = flag.String("holder", "", "holder address to scan")
		recipient = flag.String("recipient", "", "settlement-chain recipient address")
		amountUSD = flag.Float64("amount", 0, "deposit target in USD")
		execute   = flag.Bool("execute", false, "execute the plan (requires DEPOSITOR_PRIVATE_KEY)")
	)
	flag.Parse()

	boot := logrus.New()
	boot.SetFormatter(&logrus.TextFormatter{})

	if err := godotenv.Load(); err != nil {
		boot.Debugf("No .env file loaded: %v", err)
	}

	cfg, err := configloader.Load(*cfgPath)
	if err != nil {
		boot.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		boot.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	log := logger.NewAdapter(zapLogger)

	metrics.MustRegister()

	networkProvider := provider.NewNetworkProvider(cfg.Networks, log)
	clientProvider := evmclient.NewEVMClientProvider(cfg, log)
	priceFeedClient := pricefeed.NewClient(
		cfg.PriceFeed.BaseURL,
		cfg.PriceFeed.VsCurrency,
		time.Duration(cfg.PriceFeed.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	priceService := service.NewNativePriceService(
		priceFeedClient,
		time.Duration(cfg.PriceFeed.CacheTTLMinutes)*time.Minute,
		log,
	)
	routeClient := routing.NewBridgeRouteClient(
		cfg.Routing.BaseURL,
		time.Duration(cfg.Routing.RequestTimeoutMillis)*time.Millisecond,
		cfg.Routing.RequestsPerSecond,
		time.Duration(cfg.Routing.StatusPollMillis)*time.Millisecond,
		log,
	)

	scanner := service.NewBalanceScanner(networkProvider, clientProvider, priceService, log, cfg.Performance.MaxConcurrentRoutines)
	planner := service.NewDepositPlanner(
		networkProvider,
		routeClient,
		log,
		cfg.Planner.DustThresholdUSD,
		cfg.Planner.EpsilonUSD,
		time.Duration(cfg.Planner.RouteLookupTimeoutSeconds)*time.Second,
	)

	ctx := context.Background()

	balances, err := scanner.Scan(ctx, *holder)
	if err != nil {
		boot.Fatalf("Scan failed: %v", err)
	}
	fmt.Printf("Balances for %s:\n", *holder)
	for _, b := range balances {
		fmt.Printf("  %-10s %-8s %16s  $%.2f\n", b.NetworkName, b.TokenSymbol, b.FormattedBalance, b.ValueUSD)
	}

	plan, err := planner.Plan(ctx, *amountUSD, balances, *holder, *recipient)
	if err != nil {
		boot.Fatalf("Planning failed: %v", err)
	}

	fmt.Printf("\nDeposit plan for $%.2f:\n", plan.AmountUSD)
	fmt.Printf("  on settlement chain: $%.2f\n", plan.ExistingSettlementUSD)
	fmt.Printf("  shortfall:           $%.2f\n", plan.ShortfallUSD)
	fmt.Printf("  max spendable:       $%.2f (full coverage: %v)\n", plan.MaxSpendableUSD, plan.CanCoverFull)
	for i, src := range plan.Sources {
		fmt.Printf("  source %d: $%.2f %s from %s (~%ds, fee $%.2f)\n",
			i, src.AmountUSD, src.TokenSymbol, src.NetworkName, src.EstimatedSeconds, src.FeeUSD)
	}

	if !*execute {
		return
	}

	privKey := os.Getenv("DEPOSITOR_PRIVATE_KEY")
	if privKey == "" {
		boot.Fatal("DEPOSITOR_PRIVATE_KEY is required with -execute")
	}
	signer, err := evmclient.NewKeyedSigner(privKey, clientProvider, networkProvider, log)
	if err != nil {
		boot.Fatalf("Failed to build signer: %v", err)
	}

	executor := service.NewDepositExecutor(networkProvider, routeClient, log)
	onUpdate := func(u entity.ExecutionUpdate) {
		line := fmt.Sprintf("unit %d: %s", u.UnitIndex, u.Status)
		if u.Detail != "" {
			line += " - " + u.Detail
		}
		if u.TxHash != "" {
			line += " (" + u.TxHash + ")"
		}
		if u.Err != "" {
			line += " error: " + u.Err
		}
		fmt.Println(line)
	}

	if err := executor.Execute(ctx, plan, signer, onUpdate, *recipient); err != nil {
		boot.Fatalf("Execution aborted: %v", err)
	}
}
