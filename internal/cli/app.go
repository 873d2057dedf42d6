package cli

import (
	"context"
	"database/sql"
	"fmt"

	"stockmaster/internal/audit"
	"stockmaster/internal/auth"
	"stockmaster/internal/db"
	"stockmaster/internal/handlers/catalog"
	"stockmaster/internal/listview"
	"stockmaster/internal/notify"
	"stockmaster/internal/server"
)

// cliSubject is who batch commands act as.
var cliSubject = listview.Subject{Username: "cli", Role: "admin"}

// openStore opens, migrates and seeds the database at path and loads permissions.
func openStore(ctx context.Context, path string) (*sql.DB, *auth.PermCache, error) {
	conn, err := db.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Seed(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("seed database: %w", err)
	}
	pc := auth.NewPermCache()
	if err := auth.InitPermissionsTable(ctx, conn, pc); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("load permissions: %w", err)
	}
	return conn, pc, nil
}

// screens builds every catalog screen keyed by resource name.
func (e *env) screens(deps catalog.Deps) map[string]catalog.Resource {
	p := e.cfg.Pagination
	list := []catalog.Resource{
		catalog.NewCustomers(deps, p.Customers, p.Options),
		catalog.NewProducts(deps, p.Products, p.Options, e.cfg.Notify.TelegramChannel),
	}
	out := make(map[string]catalog.Resource, len(list))
	for _, s := range list {
		out[s.Resource()] = s
	}
	return out
}

// batch is the wiring shared by the export, import and sample commands.
type batch struct {
	conn       *sql.DB
	dispatcher *notify.Dispatcher
	screens    map[string]catalog.Resource
}

func (e *env) openBatch(ctx context.Context) (*batch, error) {
	conn, pc, err := openStore(ctx, e.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	d := notify.NewDispatcher(e.log, notify.LogSink{Log: e.log})
	deps := catalog.Deps{
		DB:       conn,
		Gate:     auth.NewGate(pc),
		Notifier: d,
		Audit:    audit.New(conn, nil, e.log),
		Views:    server.NewViews[int64](e.cfg.Server.ViewTTL),
		Log:      e.log,
	}
	return &batch{conn: conn, dispatcher: d, screens: e.screens(deps)}, nil
}

func (b *batch) screen(resource string) (catalog.Resource, error) {
	s, ok := b.screens[resource]
	if !ok {
		return nil, fmt.Errorf("unknown resource %q (want customers or products)", resource)
	}
	return s, nil
}

func (b *batch) Close() error {
	b.dispatcher.Wait()
	return b.conn.Close()
}
