package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainfund/internal/app/provider"
	"chainfund/internal/app/service"
	"chainfund/internal/infrastructure/configloader"
	evmclient "chainfund/internal/infrastructure/network/client"
	"chainfund/internal/infrastructure/pricefeed"
	"chainfund/internal/infrastructure/restapi"
	"chainfund/internal/infrastructure/routing"
	"chainfund/internal/pkg/logger"
	"chainfund/internal/pkg/metrics"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

func main() {
	// Bootstrap logger until the real one is configured.
	boot := logrus.New()
	boot.SetFormatter(&logrus.JSONFormatter{})
	boot.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		boot.Debugf("No .env file loaded: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		boot.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		boot.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()
	log := logger.NewAdapter(zapLogger)
	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

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

	depositHandler := restapi.NewDepositHandler(scanner, planner, log)
	router := restapi.SetupRouter(depositHandler, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
