package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"stockmaster/internal/audit"
	"stockmaster/internal/auth"
	"stockmaster/internal/handlers/admin"
	"stockmaster/internal/handlers/catalog"
	"stockmaster/internal/notify"
	"stockmaster/internal/server"
	"stockmaster/internal/shell"
)

func newServeCmd(e *env) *cobra.Command {
	var (
		addr        string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Boot the desktop shell and serve the HTTP API",
		Long: `Applies the runtime limits, resolves the database file (asking to open or
create one when it is missing), probes connectivity once and then serves the
list views, admin endpoints and the notification websocket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				e.cfg.Server.Addr = addr
			}
			prompter := shell.DefaultPrompter()
			if !interactive {
				prompter = shell.AutoPrompter{}
			}
			return runServe(cmd, e, prompter)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&interactive, "interactive", true, "ask before creating a missing database when attached to a terminal")
	return cmd
}

func runServe(cmd *cobra.Command, e *env, prompter shell.Prompter) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, log := e.cfg, e.log

	hub := notify.NewHub(log)
	sinks := []notify.Sink{notify.LogSink{Log: log}, hub}
	if cfg.Notify.NATSURL != "" {
		nats, err := notify.ConnectNATS(cfg.Notify.NATSURL, cfg.Notify.NATSSubject, cfg.Shell.AppName)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.Notify.NATSURL).Msg("nats unavailable, continuing without it")
		} else {
			defer nats.Close()
			sinks = append(sinks, nats)
		}
	}
	dispatcher := notify.NewDispatcher(log, sinks...)
	defer dispatcher.Wait()

	status, err := shell.Boot(ctx, cfg.Shell, cfg.Database.Path, shell.Deps{
		Prompter: prompter,
		Notifier: dispatcher,
		Client:   &http.Client{},
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	conn, pc, err := openStore(ctx, status.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	tokens, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	if cfg.Auth.EphemeralSecret {
		log.Warn().Msg("no jwt_secret configured; tokens will not survive a restart")
	}

	gin.SetMode(cfg.Server.Mode)
	app := &server.App{
		DB:        conn,
		Log:       log,
		Config:    cfg,
		PermCache: pc,
		Gate:      auth.NewGate(pc),
		Tokens:    tokens,
		Hub:       hub,
		Notifier:  dispatcher,
		Audit:     audit.New(conn, hub, log),
		Limits:    status.Limits,
		Shell:     status,
	}
	if days := cfg.Database.AuditRetentionDays; days > 0 {
		if n, err := app.Audit.Cleanup(ctx, days); err != nil {
			log.Warn().Err(err).Msg("audit cleanup failed")
		} else if n > 0 {
			log.Info().Int64("deleted", n).Int("retention_days", days).Msg("pruned audit log")
		}
	}

	deps := catalog.Deps{
		DB:        conn,
		Gate:      app.Gate,
		Notifier:  dispatcher,
		Audit:     app.Audit,
		Views:     server.NewViews[int64](cfg.Server.ViewTTL),
		Log:       log,
		MaxUpload: status.Limits.MaxUploadBytes,
	}

	modules := []server.Module{admin.New(app)}
	for _, s := range e.screens(deps) {
		modules = append(modules, s)
	}
	return server.Run(ctx, cfg.Server.Addr, server.NewRouter(app, modules...), log)
}
