package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luminapos/credit-ledger/internal/config"
	"github.com/luminapos/credit-ledger/internal/handler"
	"github.com/luminapos/credit-ledger/internal/logging"
	"github.com/luminapos/credit-ledger/internal/middleware"
	"github.com/luminapos/credit-ledger/internal/repository"
	"github.com/luminapos/credit-ledger/internal/service/debtor"
	"github.com/luminapos/credit-ledger/internal/service/ledger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("credit-ledger", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	accounts := repository.NewCreditAccountRepository(db)
	sales := repository.NewCreditSaleRepository(db)
	payments := repository.NewPaymentRepository(db)

	ledgerSvc := ledger.NewService(sales, accounts, payments, db, cfg.ReconcileMaxAttempts)
	debtorSvc := debtor.NewService(accounts, sales, payments)

	saleHandler := handler.NewSaleHandler(ledgerSvc, debtorSvc)
	accountHandler := handler.NewAccountHandler(ledgerSvc, debtorSvc)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Check)
	mux.Handle("GET /metrics", promhttp.Handler())

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/credit-sales", saleHandler.Create)
	api.HandleFunc("GET /api/v1/credit-sales/{id}", saleHandler.Get)
	api.HandleFunc("POST /api/v1/credit-sales/{id}/payments", saleHandler.RegisterPayment)
	api.HandleFunc("GET /api/v1/credit-sales/{id}/payments", saleHandler.ListPayments)
	api.HandleFunc("GET /api/v1/debtors", accountHandler.ListDebtors)
	api.HandleFunc("GET /api/v1/customers/{id}/credit", accountHandler.GetCredit)
	api.HandleFunc("PUT /api/v1/customers/{id}/credit-limit", accountHandler.UpdateCreditLimit)

	authed := middleware.Auth(cfg.JWTSecret)(api)
	mux.Handle("/api/v1/", authed)

	root := middleware.Recovery(middleware.Tracing(middleware.Logging(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
