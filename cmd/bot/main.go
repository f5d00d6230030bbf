package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sheikh-saqib/subscription-billing-bot/internal/bot"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/config"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/events"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/subscription-billing-bot/internal/interfaces"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/ledger"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/logging"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/models"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/storage/gsheets"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/storage/memory"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("bot stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := newStore(cfg, logger)

	publisher, closePublishers, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublishers()

	ledgerService := ledger.NewLedger(store, ledger.Options{
		ResetSecret: cfg.ResetPassword,
		SpecialUser: cfg.SpecialUser,
		ViewRanges:  cfg.Sheets.ViewRanges,
		Publisher:   publisher,
		Logger:      logger,
	})

	handlers := bot.NewHandlers(ledgerService, logger, cfg.RequestTimeout)
	b, err := bot.New(cfg.Discord.Token, handlers, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: cfg.HealthAddr, Handler: healthMux(), ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("health endpoint listening", zap.String("addr", cfg.HealthAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("connecting to discord")
		if err := b.Open(); err != nil {
			return fmt.Errorf("open discord session: %w", err)
		}
		<-gctx.Done()
		return b.Close()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

func newStore(cfg *config.Config, logger *zap.Logger) interfaces.SheetStore {
	if cfg.Sheets.Backend == config.BackendMemory {
		logger.Warn("using in-memory sheet store; data is lost on exit")
		var names []string
		for _, l := range models.Ledgers() {
			names = append(names, l.Sheet)
		}
		return memory.NewMemorySheetStore(names...)
	}

	return gsheets.NewSheetsStore(cfg.Sheets.SpreadsheetID, gsheets.Credentials{
		ProjectID:    cfg.Google.ProjectID,
		PrivateKeyID: cfg.Google.PrivateKeyID,
		PrivateKey:   cfg.Google.PrivateKey,
		ClientEmail:  cfg.Google.ClientEmail,
		ClientID:     cfg.Google.ClientID,
	}, logger)
}

// newPublisher wires the optional event sinks. The returned func releases them.
func newPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (interfaces.EventPublisher, func(), error) {
	var sinks events.FanOut
	var closers []func()

	if len(cfg.Events.KafkaBrokers) > 0 {
		p := kafka.NewPublisher(cfg.Events.KafkaBrokers)
		sinks = append(sinks, p)
		closers = append(closers, func() { _ = p.Close() })
		logger.Info("publishing ledger events to kafka", zap.Strings("brokers", cfg.Events.KafkaBrokers))
	}

	if cfg.Events.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.Events.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open journal database: %w", err)
		}
		journal := postgres.NewPostgresJournal(db)
		if err := journal.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("journal schema: %w", err)
		}
		sinks = append(sinks, journal)
		closers = append(closers, func() { _ = db.Close() })
		logger.Info("journaling ledger events to postgres")
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(sinks) == 0 {
		return events.Nop{}, closeAll, nil
	}
	return sinks, closeAll, nil
}
