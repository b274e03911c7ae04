package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"usdcgateway/internal/api"
	"usdcgateway/internal/attestation"
	"usdcgateway/internal/blockchain/evm"
	"usdcgateway/internal/config"
	"usdcgateway/internal/database"
	"usdcgateway/internal/gateway"
	"usdcgateway/internal/service"
	"usdcgateway/internal/worker"
)

func main() {
	// Initialize logger
	logger, err := initLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting USDC Gateway Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("db_host", cfg.Database.Host),
		zap.String("gateway_address", cfg.Gateway.Address))

	// Connect to database
	db, err := database.Connect(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Run migrations
	migrationPath := "internal/database/migrations/001_schema.sql"
	if err := database.RunMigrations(db, migrationPath); err != nil {
		logger.Warn("Failed to run migrations (may already be applied)", zap.Error(err))
	} else {
		logger.Info("Database migrations applied successfully")
	}

	// Initialize chain client and contract bindings
	evmClient, err := evm.NewClient(&cfg.Chain, logger)
	if err != nil {
		logger.Fatal("Failed to initialize EVM client", zap.Error(err))
	}
	defer evmClient.Close()

	tokenMessenger, err := evm.NewTokenMessengerBinding(
		evmClient, common.HexToAddress(cfg.Chain.TokenMessengerAddress), logger)
	if err != nil {
		logger.Fatal("Failed to bind token messenger", zap.Error(err))
	}

	transmitter, err := evm.NewMessageTransmitterBinding(
		evmClient, common.HexToAddress(cfg.Chain.MessageTransmitterAddress), logger)
	if err != nil {
		logger.Fatal("Failed to bind message transmitter", zap.Error(err))
	}

	domainMessenger, err := evm.NewDomainMessengerBinding(
		evmClient, common.HexToAddress(cfg.Chain.DomainMessengerAddress), logger)
	if err != nil {
		logger.Fatal("Failed to bind domain messenger", zap.Error(err))
	}

	token, err := evm.NewERC20Binding(
		evmClient, common.HexToAddress(cfg.Gateway.L1Token), logger)
	if err != nil {
		logger.Fatal("Failed to bind token", zap.Error(err))
	}

	// Assemble the gateway orchestrator with the persistence journal
	journal := service.NewJournal(db, logger)

	orch, err := gateway.New(gateway.Config{
		Address:           common.HexToAddress(cfg.Gateway.Address),
		Counterpart:       common.HexToAddress(cfg.Gateway.Counterpart),
		Owner:             common.HexToAddress(cfg.Gateway.Owner),
		Router:            common.HexToAddress(cfg.Gateway.Router),
		L1Token:           common.HexToAddress(cfg.Gateway.L1Token),
		L2Token:           common.HexToAddress(cfg.Gateway.L2Token),
		DestinationDomain: cfg.Gateway.DestinationDomain,
		FinalizeGasLimit:  cfg.Gateway.FinalizeGasLimit,
	}, gateway.Dependencies{
		Token:       token,
		Messenger:   tokenMessenger,
		Transmitter: transmitter,
		Domain:      domainMessenger,
		Events:      journal,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("Failed to assemble gateway", zap.Error(err))
	}

	// Inbound bridge: envelopes relayed through the messenger contract that
	// target this gateway are mirrored into the in-process ledger.
	domainMessenger.Bind(common.HexToAddress(cfg.Gateway.Address), orch.Relay().Deliver)

	// Initialize services
	transferService := service.NewTransferService(orch, db, logger)
	budgetService := service.NewBudgetService(cfg, logger)

	// Restore the status ledger from journaled withdrawals
	restoreCtx, restoreCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := transferService.RestoreLedger(restoreCtx); err != nil {
		restoreCancel()
		logger.Fatal("Failed to restore ledger", zap.Error(err))
	}
	restoreCancel()

	logger.Info("Services initialized")

	// Rebind factory for the admin endpoint
	rebind := func(messengerAddr, transmitterAddr common.Address) (gateway.TokenMessenger, gateway.MessageTransmitter, error) {
		m, err := evm.NewTokenMessengerBinding(evmClient, messengerAddr, logger)
		if err != nil {
			return nil, nil, err
		}
		t, err := evm.NewMessageTransmitterBinding(evmClient, transmitterAddr, logger)
		if err != nil {
			return nil, nil, err
		}
		return m, t, nil
	}

	// Initialize API handlers
	apiHandler := api.NewHandler(transferService, budgetService, cfg, rebind, logger)
	router := api.SetupRouter(apiHandler, logger)

	// Create HTTP server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", serverAddr))
		serverErrors <- httpServer.ListenAndServe()
	}()

	// Start the claim automation workers
	attester := attestation.NewClient(cfg.Attestation.Endpoint, logger)
	workerManager := worker.NewManager(cfg, transferService, attester, logger)
	workerManager.Start()

	logger.Info("Service initialized successfully",
		zap.String("status", "ready"),
		zap.Int("port", cfg.Server.Port))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for interrupt signal or server error
	select {
	case err := <-serverErrors:
		logger.Fatal("HTTP server error", zap.Error(err))
	case sig := <-quit:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	logger.Info("Shutting down service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown workers first
	if err := workerManager.Shutdown(10 * time.Second); err != nil {
		logger.Error("Worker shutdown error", zap.Error(err))
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
		httpServer.Close()
	} else {
		logger.Info("HTTP server stopped gracefully")
	}

	logger.Info("Service stopped successfully")
}

func initLogger() (*zap.Logger, error) {
	env := os.Getenv("ENV")
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
