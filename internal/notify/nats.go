package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"stockmaster/internal/listview"
)

// Publish serializes v as JSON and publishes it to subject.
func Publish[T any](nc *nats.Conn, subject string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return nc.PublishMsg(&nats.Msg{Subject: subject, Data: data})
}

// Subscribe registers a handler for JSON messages of type T. Malformed messages are dropped.
func Subscribe[T any](nc *nats.Conn, subject string, handler func(T)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return
		}
		handler(v)
	})
}

// DefaultSubject is the base subject when none is configured.
const DefaultSubject = "stockmaster.notifications"

// Listen subscribes fn to every notification published under subject, channel
// subjects included. The returned func unsubscribes.
func Listen(nc *nats.Conn, subject string, fn func(listview.Notification)) (func(), error) {
	if subject == "" {
		subject = DefaultSubject
	}
	var subs []*nats.Subscription
	stop := func() {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
	}
	for _, subj := range []string{subject, subject + ".>"} {
		sub, err := Subscribe(nc, subj, fn)
		if err != nil {
			stop()
			return nil, err
		}
		subs = append(subs, sub)
	}
	return stop, nil
}

// NATSSink publishes notifications under a base subject. A notification with a
// Channel goes to "<subject>.<channel>".
type NATSSink struct {
	nc      *nats.Conn
	subject string
}

// ConnectNATS dials url and returns a sink publishing under subject.
func ConnectNATS(url, subject, name string) (*NATSSink, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return NewNATSSink(nc, subject), nil
}

// NewNATSSink wraps an existing connection.
func NewNATSSink(nc *nats.Conn, subject string) *NATSSink {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSSink{nc: nc, subject: subject}
}

func (s *NATSSink) Name() string { return "nats" }

// Subject returns the subject n is published to.
func (s *NATSSink) Subject(n listview.Notification) string {
	if n.Channel == "" {
		return s.subject
	}
	return s.subject + "." + subjectToken.Replace(n.Channel)
}

var subjectToken = strings.NewReplacer(" ", "_", ".", "_", "*", "_", ">", "_")

func (s *NATSSink) Deliver(ctx context.Context, n listview.Notification) error {
	if s.nc == nil || s.nc.IsClosed() {
		return errors.New("nats connection closed")
	}
	if err := Publish(s.nc, s.Subject(n), n); err != nil {
		return err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DeliveryTimeout)
		defer cancel()
	}
	return s.nc.FlushWithContext(ctx)
}

// Close drains the connection.
func (s *NATSSink) Close() error {
	if s.nc == nil {
		return nil
	}
	return s.nc.Drain()
}
