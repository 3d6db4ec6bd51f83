package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/dbdesk/internal/config"
	"github.com/koustreak/dbdesk/internal/filestore/minio"
	"github.com/koustreak/dbdesk/internal/logger"
	"github.com/koustreak/dbdesk/internal/savedquery"
	"github.com/koustreak/dbdesk/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, configFrom(cmd))
		},
	}
	cmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8080)")
	cmd.Flags().String("state", "", "saved query database (default dbdesk.db)")
	cmd.Flags().Int("max-rows", 0, "rows shown per ad-hoc query (default 100)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.FromContext(ctx)

	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log.With().Str("driver", cfg.Database.Driver).Logger().Info("database connected")

	saved, err := savedquery.Open(ctx, cfg.State.Path)
	if err != nil {
		return err
	}
	defer saved.Close()
	log.With().Str("state", saved.String()).Logger().Info("saved query store opened")

	opts := []server.Option{server.WithLogger(log), server.WithSavedQueries(saved)}

	sinkCfg := cfg.FilestoreConfig()
	if sinkCfg.Enabled {
		sink, err := minio.New(ctx, sinkCfg)
		if err != nil {
			return err
		}
		defer sink.Close()
		opts = append(opts, server.WithSink(sink))
		log.With().Str("endpoint", sinkCfg.Endpoint).Str("bucket", sinkCfg.Bucket).Logger().Info("export sink enabled")
	}

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		QueryTimeout:    cfg.Database.QueryTimeout,
		MaxRows:         cfg.Query.MaxRows,
		Limits:          cfg.RecordLimits(),
		Export:          sinkCfg,
	}, db, opts...)

	return srv.Serve(ctx)
}
