// server/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vinizap/notesync/server/auth"
	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/events"
	httphandlers "github.com/vinizap/notesync/server/http"
	"github.com/vinizap/notesync/server/metrics"
	"github.com/vinizap/notesync/server/notebook"
	"github.com/vinizap/notesync/server/postgres"
	"github.com/vinizap/notesync/server/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if addr, _ := flags.GetString("addr"); flags.Changed("addr") {
			cfg.Addr = addr
		}
		if publicURL, _ := flags.GetString("public-url"); flags.Changed("public-url") {
			cfg.PublicURL = publicURL
		}
		if noMigrate, _ := flags.GetBool("no-migrate"); noMigrate {
			cfg.MigrateOnStart = false
		}
		memory, _ := flags.GetBool("memory")
		seed, _ := flags.GetString("seed-user")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := serveStore(ctx, memory)
		if err != nil {
			return err
		}
		defer st.Close()

		users := auth.NewUsers(st)
		if seed != "" {
			if err := seedUser(ctx, users, seed); err != nil {
				return err
			}
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := metrics.New(reg)

		notes := notebook.New(st, notebook.WithLogger(logger), notebook.WithMetrics(m))
		hub := events.NewHub(logger)
		go hub.Run(ctx)

		srv := httphandlers.NewServer(notes, users, hub, httphandlers.Options{
			PublicURL: cfg.PublicURL,
			Metrics:   m,
			Gatherer:  reg,
			Logger:    logger,
		})
		app := srv.App()

		errc := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", cfg.Addr).Bool("memory", memory).Msg("server starting")
			errc <- app.Listen(cfg.Addr)
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func serveStore(ctx context.Context, memory bool) (store.Store, error) {
	if memory {
		logger.Warn().Msg("using in-memory store, data is lost on exit")
		return store.NewMemory(), nil
	}
	if err := requireDatabase(); err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := postgres.MigrateUp(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		logger.Info().Msg("migrations applied")
	}
	return postgres.Open(ctx, cfg.DatabaseURL, logger)
}

// seedUser registers a "name:password" account unless it already exists.
func seedUser(ctx context.Context, users *auth.Users, account string) error {
	name, password, ok := strings.Cut(account, ":")
	if !ok {
		return errors.New("--seed-user must be name:password")
	}
	u, err := users.Register(ctx, name, password)
	if errors.Is(err, domain.ErrConflict) {
		logger.Info().Str("username", name).Msg("seed user already exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	logger.Info().Str("username", u.Username).Str("user_id", u.ID).Msg("seed user created")
	return nil
}

func init() {
	flags := serveCmd.Flags()
	flags.String("addr", ":8080", "listen address (NOTESYNC_ADDR)")
	flags.String("public-url", "", "base URL for share links (NOTESYNC_PUBLIC_URL)")
	flags.Bool("memory", false, "keep everything in memory instead of PostgreSQL")
	flags.Bool("no-migrate", false, "skip applying migrations on start")
	flags.String("seed-user", "", "create a name:password account on start")
	rootCmd.AddCommand(serveCmd)
}
