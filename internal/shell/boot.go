package shell

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"stockmaster/internal/listview"
)

// Connectivity notifications.
var (
	OnlineNotification = listview.Notification{
		Title:   "✅ You are connected",
		Message: "Now you are connected to the server.",
		Kind:    "success",
	}
	OfflineNotification = listview.Notification{
		Title:   "🛑 Not connected",
		Message: "No Internet Connection.",
		Kind:    "error",
	}
)

// Deps are the collaborators Boot uses.
type Deps struct {
	Prompter Prompter
	Notifier listview.Notifier
	Client   *http.Client
	Log      zerolog.Logger
}

// Status is the outcome of Boot.
type Status struct {
	Database string `json:"database"`
	Online   bool   `json:"online"`
	Layout   Layout `json:"layout"`
	Limits   Limits `json:"limits"`
}

// Boot applies the runtime limits, resolves the database file, probes
// connectivity once and announces the result.
func Boot(ctx context.Context, cfg Config, dbPath string, deps Deps) (Status, error) {
	limits, err := ApplyRuntime(cfg.Runtime)
	if err != nil {
		return Status{}, fmt.Errorf("apply runtime: %w", err)
	}
	deps.Log.Debug().Int64("memory_limit", limits.MemoryLimit).Str("timezone", limits.Location.String()).Msg("runtime applied")

	layout := BuildLayout(cfg)

	path, err := ResolveDatabase(dbPath, deps.Prompter)
	if err != nil {
		return Status{}, err
	}
	deps.Log.Info().Str("path", path).Msg("database selected")

	url := cfg.ProbeURL
	if url == "" {
		url = DefaultProbeURL
	}
	online := Probe(ctx, deps.Client, url, cfg.ProbeTimeout)
	layout.SetConnectivity(online)

	n := OfflineNotification
	if online {
		n = OnlineNotification
	}
	if deps.Notifier != nil {
		deps.Notifier.Notify(ctx, n)
	}
	deps.Log.Info().Bool("online", online).Msg(n.Title)

	return Status{Database: path, Online: online, Layout: layout, Limits: limits}, nil
}
