package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"stockmaster/internal/listview"
	"stockmaster/internal/notify"
)

func newWatchCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print notifications published on the message bus",
		Long:  "Subscribes to notify.nats_subject and its channel subjects and prints every notification until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, e)
		},
	}
}

func runWatch(cmd *cobra.Command, e *env) error {
	cfg := e.cfg.Notify
	if cfg.NATSURL == "" {
		return errors.New("notify.nats_url is not configured")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(cfg.NATSURL, nats.Name(e.cfg.Shell.AppName+" watch"), nats.Timeout(2*time.Second))
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.NATSURL, err)
	}
	defer nc.Close()

	var mu sync.Mutex
	out := cmd.OutOrStdout()
	unsubscribe, err := notify.Listen(nc, cfg.NATSSubject, func(n listview.Notification) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, formatNotification(n))
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer unsubscribe()
	if err := nc.FlushTimeout(2 * time.Second); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	e.log.Debug().Str("subject", cfg.NATSSubject).Msg("watching notifications")
	cmd.PrintErrf("Watching %s\n", cfg.NATSSubject)
	<-ctx.Done()
	return nil
}

func formatNotification(n listview.Notification) string {
	line := fmt.Sprintf("[%s] %s: %s", n.Kind, n.Title, n.Message)
	if n.Channel != "" {
		line += " (" + n.Channel + ")"
	}
	return line
}
