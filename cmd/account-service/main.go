// The account service owns accounts and transactions. It serves the REST
// API, consumes account lifecycle events and RPC requests from the broker,
// deactivates accounts when a client is deleted, and aggregates statement
// reports by looking client profiles up in the client service.
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

	gmux "github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/next-trace/scg-banking-services/account"
	"github.com/next-trace/scg-banking-services/adapters/kafka"
	"github.com/next-trace/scg-banking-services/adapters/nats"
	"github.com/next-trace/scg-banking-services/adapters/rabbitmq"
	"github.com/next-trace/scg-banking-services/client"
	"github.com/next-trace/scg-banking-services/config"
	"github.com/next-trace/scg-banking-services/consumer"
	"github.com/next-trace/scg-banking-services/contract/broker"
	"github.com/next-trace/scg-banking-services/httpapi"
	"github.com/next-trace/scg-banking-services/memory"
	"github.com/next-trace/scg-banking-services/rpc"
	"github.com/next-trace/scg-banking-services/statement"
	"github.com/next-trace/scg-banking-services/storage"
	"github.com/next-trace/scg-banking-services/storage/memstore"
)

const (
	defaultConfigPath      = "account-service.yaml"
	defaultDirectoryWait   = 5 * time.Second
	shutdownGrace          = 10 * time.Second
	defaultHTTPReadTimeout = 15 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(logger); err != nil {
		logger.Error("account service failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	path := defaultConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		accounts     account.Store
		transactions account.TransactionStore
	)

	if cfg.Database.DSN != "" {
		db, err := storage.Open(cfg.Database.DSN, &account.Account{}, &account.Transaction{})
		if err != nil {
			return err
		}

		accounts = storage.NewAccountStore(db)
		transactions = storage.NewTransactionStore(db)
	} else {
		logger.Warn("no database dsn configured, using volatile in-memory stores")

		accounts = memstore.NewAccountStore()
		transactions = memstore.NewTransactionStore()
	}

	bk, cleanup, err := dialBroker(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := bk.Declare(ctx, account.Topology()); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}

	pub, auditClose, err := auditedPublisher(bk, cfg, logger)
	if err != nil {
		return err
	}
	defer auditClose()

	accountSvc := account.NewService(accounts, pub, logger)
	transactionSvc := account.NewTransactionService(transactions, pub, logger)

	bridge, err := rpc.New(ctx, bk, cfg.Broker.ReplyQueue, logger)
	if err != nil {
		return fmt.Errorf("start rpc bridge: %w", err)
	}
	defer bridge.Close()

	directory, err := buildDirectory(cfg, bridge, logger)
	if err != nil {
		return err
	}

	aggregator := statement.NewAggregator(directory, accounts, transactions, logger)

	mux := consumer.NewMux(logger)
	if err := account.NewListener(accounts, transactions, bk, logger).Register(mux); err != nil {
		return fmt.Errorf("register listeners: %w", err)
	}

	stopConsumers, err := mux.Run(bk)
	if err != nil {
		return fmt.Errorf("start consumers: %w", err)
	}
	defer stopConsumers()

	router := gmux.NewRouter()
	httpapi.NewAccountAPI(accountSvc, transactionSvc, logger).Register(router)
	httpapi.NewReportAPI(aggregator, logger).Register(router)

	srv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     router,
		ReadTimeout: defaultHTTPReadTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("account service listening", slog.String("addr", cfg.HTTP.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func dialBroker(cfg *config.Config, logger *slog.Logger) (broker.Broker, func(), error) { //nolint:ireturn
	switch cfg.Broker.Kind {
	case "rabbitmq":
		b, err := rabbitmq.Dial(rabbitmq.Config{URL: cfg.Broker.URL, ConnTimeout: cfg.Broker.ConnTimeout.Std()}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
		}

		return b, func() { _ = b.Close() }, nil
	case "nats":
		b, cleanup, err := nats.Dial(nats.Config{
			URL:         cfg.Broker.URL,
			Name:        cfg.Service,
			ConnTimeout: cfg.Broker.ConnTimeout.Std(),
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("dial nats: %w", err)
		}

		return b, cleanup, nil
	default:
		b, cleanup := memory.New(logger)
		return b, cleanup, nil
	}
}

// auditedPublisher wraps the broker with the Kafka audit tee when configured.
func auditedPublisher(bk broker.Broker, cfg *config.Config, logger *slog.Logger) (broker.Publisher, func(), error) { //nolint:ireturn
	if len(cfg.Audit.Brokers) == 0 {
		return bk, func() {}, nil
	}

	w, cleanup, err := kafka.NewWriter(kafka.Config{Brokers: cfg.Audit.Brokers, ClientID: cfg.Service})
	if err != nil {
		return nil, nil, fmt.Errorf("audit writer: %w", err)
	}

	return kafka.NewAuditPublisher(bk, w, cfg.Audit.Topic, logger), cleanup, nil
}

func buildDirectory(cfg *config.Config, bridge *rpc.Bridge, logger *slog.Logger) (client.Directory, error) { //nolint:ireturn
	timeout := cfg.Directory.Timeout.Std()
	if timeout <= 0 {
		timeout = defaultDirectoryWait
	}

	var dir client.Directory

	switch cfg.Directory.Transport {
	case "", "broker":
		dir = client.NewBrokerDirectory(bridge, timeout)
	case "http":
		dir = client.NewHTTPDirectory(cfg.Directory.HTTPBase, &http.Client{Timeout: timeout})
	default:
		return nil, fmt.Errorf("unknown directory transport %q", cfg.Directory.Transport)
	}

	if cfg.Directory.Cache.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Directory.Cache.Addr})
		dir = client.NewCachedDirectory(dir, rdb, cfg.Directory.Cache.TTL.Std(), logger)
	}

	return dir, nil
}
