// The client service owns client profiles. It serves the REST API, publishes
// profile lifecycle events, and answers GetClientById requests arriving on
// its broker request queue.
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

	"github.com/next-trace/scg-banking-services/adapters/kafka"
	"github.com/next-trace/scg-banking-services/adapters/nats"
	"github.com/next-trace/scg-banking-services/adapters/rabbitmq"
	"github.com/next-trace/scg-banking-services/client"
	"github.com/next-trace/scg-banking-services/config"
	"github.com/next-trace/scg-banking-services/consumer"
	"github.com/next-trace/scg-banking-services/contract/broker"
	"github.com/next-trace/scg-banking-services/httpapi"
	"github.com/next-trace/scg-banking-services/memory"
	"github.com/next-trace/scg-banking-services/storage"
	"github.com/next-trace/scg-banking-services/storage/memstore"
)

const (
	defaultConfigPath      = "client-service.yaml"
	shutdownGrace          = 10 * time.Second
	defaultHTTPReadTimeout = 15 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(logger); err != nil {
		logger.Error("client service failed", slog.String("error", err.Error()))
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

	var clients client.Store

	if cfg.Database.DSN != "" {
		db, err := storage.Open(cfg.Database.DSN, &client.Profile{})
		if err != nil {
			return err
		}

		clients = storage.NewClientStore(db)
	} else {
		logger.Warn("no database dsn configured, using volatile in-memory store")

		clients = memstore.NewClientStore()
	}

	bk, cleanup, err := dialBroker(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := bk.Declare(ctx, client.Topology()); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}

	pub, auditClose, err := auditedPublisher(bk, cfg, logger)
	if err != nil {
		return err
	}
	defer auditClose()

	clientSvc := client.NewService(clients, pub, logger)

	mux := consumer.NewMux(logger)
	if err := client.NewRequestListener(clients, bk, logger).Register(mux); err != nil {
		return fmt.Errorf("register listeners: %w", err)
	}

	stopConsumers, err := mux.Run(bk)
	if err != nil {
		return fmt.Errorf("start consumers: %w", err)
	}
	defer stopConsumers()

	router := gmux.NewRouter()
	httpapi.NewClientAPI(clientSvc, logger).Register(router)

	srv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     router,
		ReadTimeout: defaultHTTPReadTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("client service listening", slog.String("addr", cfg.HTTP.Addr))
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
