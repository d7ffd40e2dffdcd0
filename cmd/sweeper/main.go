package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gescom-app/ledger-engine/internal/accounts"
	"github.com/gescom-app/ledger-engine/internal/config"
	"github.com/gescom-app/ledger-engine/internal/journal"
	"github.com/gescom-app/ledger-engine/internal/logging"
	"github.com/gescom-app/ledger-engine/internal/repository"
	"github.com/gescom-app/ledger-engine/internal/service/payment"
)

// sweeper periodically marks invoices whose final payment date has passed
// as overdue, so late penalties start accruing without waiting for the next
// payment attempt.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("ledger-sweeper", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	invoices := repository.NewInvoiceRepository(db)
	payments := repository.NewPaymentRepository(db)
	sequences := repository.NewSequenceRepository(db)
	resolver := accounts.NewResolver(repository.NewChartRepository(db))
	generator := journal.NewGenerator(repository.NewJournalRepository(db), repository.NewPartyRepository(db), resolver, sequences)
	svc := payment.NewService(invoices, payments, generator, sequences, db)

	interval := time.Duration(cfg.SweepIntervalS) * time.Second
	slog.Info("sweeper started", "interval", interval)

	sweep(ctx, svc)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case <-ticker.C:
			sweep(ctx, svc)
		}
	}
}

func sweep(ctx context.Context, svc *payment.Service) {
	n, err := svc.SweepOverdue(ctx)
	if err != nil {
		slog.Error("overdue sweep failed", "error", err)
		return
	}
	slog.Info("overdue sweep finished", "marked", n)
}
