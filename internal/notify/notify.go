// Package notify delivers user notifications to the live UI, the message bus
// and the log without making callers wait.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stockmaster/internal/listview"
)

// DeliveryTimeout bounds how long one sink may take with one notification.
const DeliveryTimeout = 5 * time.Second

// Sink is one notification destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n listview.Notification) error
}

// Dispatcher is a listview.Notifier that fans notifications out to sinks in
// the background. Sink failures are logged and otherwise ignored.
type Dispatcher struct {
	sinks []Sink
	log   zerolog.Logger
	wg    sync.WaitGroup
}

// NewDispatcher returns a Dispatcher delivering to sinks. Nil sinks are skipped.
func NewDispatcher(log zerolog.Logger, sinks ...Sink) *Dispatcher {
	d := &Dispatcher{log: log.With().Str("component", "notify").Logger()}
	for _, s := range sinks {
		if s != nil {
			d.sinks = append(d.sinks, s)
		}
	}
	return d
}

// Notify queues n for delivery and returns immediately.
func (d *Dispatcher) Notify(ctx context.Context, n listview.Notification) {
	if len(d.sinks) == 0 {
		return
	}
	// Delivery outlives the request that triggered it.
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, s := range d.sinks {
			d.deliver(ctx, s, n)
		}
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, s Sink, n listview.Notification) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("sink", s.Name()).Interface("panic", r).Msg("notification sink panicked")
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, DeliveryTimeout)
	defer cancel()
	if err := s.Deliver(ctx, n); err != nil {
		d.log.Warn().Err(err).Str("sink", s.Name()).Str("title", n.Title).Msg("notification not delivered")
	}
}

// Wait blocks until queued notifications have been delivered.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// LogSink writes notifications to a zerolog logger.
type LogSink struct {
	Log zerolog.Logger
}

func (LogSink) Name() string { return "log" }

func (s LogSink) Deliver(_ context.Context, n listview.Notification) error {
	ev := s.Log.Info()
	if n.Kind == "error" || n.Kind == "warning" {
		ev = s.Log.Warn()
	}
	ev.Str("kind", n.Kind).Str("resource", n.Resource).Str("channel", n.Channel).Str("title", n.Title).Msg(n.Message)
	return nil
}
