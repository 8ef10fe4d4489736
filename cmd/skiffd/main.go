package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openrack/skiff/internal/api"
	"github.com/openrack/skiff/internal/events"
	"github.com/openrack/skiff/internal/server"
	"github.com/openrack/skiff/internal/storage"
)

type options struct {
	httpAddr    string
	metricsAddr string
	storePath   string
	backend     string
	natsURL     string
	apiKey      string
}

func main() {
	var opts options

	root := &cobra.Command{
		Use:           "skiffd",
		Short:         "skiffd serves the Skiff server-provisioning API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts)
		},
	}
	root.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "API listen address")
	root.Flags().StringVar(&opts.metricsAddr, "metrics-addr", ":9090", "Prometheus metrics listen address")
	root.Flags().StringVar(&opts.storePath, "store", "./data/servers.json", "store path (JSON file, or directory for the badger backend)")
	root.Flags().StringVar(&opts.backend, "backend", "file", "storage backend: file or badger")
	root.Flags().StringVar(&opts.natsURL, "nats-url", "", "NATS URL for lifecycle events (disabled when empty)")
	root.Flags().StringVar(&opts.apiKey, "api-key", "", "require this x-api-key header on API requests (disabled when empty)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "skiffd:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync()

	var store storage.Store
	switch opts.backend {
	case "file":
		store, err = storage.NewFileStore(opts.storePath)
	case "badger":
		store, err = storage.NewBadgerStore(opts.storePath)
	default:
		return fmt.Errorf("unknown backend %q", opts.backend)
	}
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	var publisher *events.Publisher
	if opts.natsURL != "" {
		publisher, err = events.NewPublisher(opts.natsURL, log)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer publisher.Close()
	}

	svc := server.New(store, log)
	handler := api.NewHTTPHandler(svc, publisher, log, api.Config{APIKey: opts.apiKey})

	httpServer := &http.Server{
		Addr:    opts.httpAddr,
		Handler: handler,
	}
	go func() {
		log.Info("API listening",
			zap.String("addr", opts.httpAddr),
			zap.String("backend", opts.backend))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http listen", zap.Error(err))
		}
	}()

	metricsServer := &http.Server{Addr: opts.metricsAddr}
	go func() {
		mux := http.NewServeMux()
		api.RegisterMetrics(mux)
		metricsServer.Handler = mux
		log.Info("metrics listening", zap.String("addr", opts.metricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutdown initiated")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("http server shutdown", zap.Error(err))
	}
	_ = metricsServer.Shutdown(ctx)

	log.Info("shutdown complete")
	return nil
}
