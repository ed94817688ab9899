// vita-server is the health-coaching backend: a chat API that routes each
// message to a specialist persona, commits structured health data, and
// streams model replies.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vita/internal/config"
	"vita/internal/llm"
	"vita/internal/logging"
	"vita/internal/orchestrator"
	"vita/internal/router"
	"vita/internal/security"
	"vita/internal/server"
	"vita/internal/specialist"
	"vita/internal/store"
	"vita/internal/telemetry"
	"vita/internal/toolregistry"
	"vita/internal/tools"
)

func main() {
	root := &cobra.Command{
		Use:          "vita-server",
		Short:        "Personal health coaching backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})
	logger := logging.NewComponentLogger("server")

	tracer, err := telemetry.NewTracerProvider(telemetry.TracingConfig{
		Enabled:      cfg.Tracing.Enabled,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StorePath, logging.NewComponentLogger("store"))
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	provider, err := llm.New(cfg.Provider, logging.NewComponentLogger("llm"))
	if err != nil {
		return err
	}

	registry := toolregistry.NewRegistry()
	if err := tools.RegisterBuiltins(registry); err != nil {
		return err
	}

	specialists, err := specialist.Load()
	if err != nil {
		return err
	}

	usage := telemetry.NewStoreSink(st, logging.NewComponentLogger("usage"))
	metrics := telemetry.NewMetrics()
	classifier := router.NewClassifier(provider, usage, logging.NewComponentLogger("router"))

	o := orchestrator.New(provider, registry, specialists, classifier, st, usage, metrics,
		logging.NewComponentLogger("orchestrator"))

	var cipher *security.KeyCipher
	if cfg.EncryptionKey != "" {
		cipher, err = security.NewKeyCipher(cfg.EncryptionKey)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(o, st, cipher, logger)
	err = srv.Run(ctx, cfg.ListenAddr)

	if shutdownErr := tracer.Shutdown(context.Background()); shutdownErr != nil {
		logger.Warn("tracer shutdown: %v", shutdownErr)
	}
	return err
}
