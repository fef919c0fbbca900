package natsadapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/kadal/internal/core/domain"
)

// Subjects published by the API and the monitor worker.
const (
	SubjectQueryPrefix   = "kadal.query."
	SubjectMonitorPrefix = "kadal.monitor."
	SubjectQueryAll      = "kadal.query.>"
	SubjectMonitorAll    = "kadal.monitor.>"
)

// Streams returns the JetStream configuration the publisher ensures.
func Streams() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:      "KADAL_QUERIES",
			Subjects:  []string{SubjectQueryAll},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "KADAL_MONITOR",
			Subjects:  []string{SubjectMonitorAll},
			Retention: nats.InterestPolicy,
			MaxAge:    30 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	for _, cfg := range Streams() {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				conn.Close()
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// QuerySubject is the subject for a processed query, keyed by status.
func QuerySubject(event *domain.QueryEvent) string {
	return SubjectQueryPrefix + string(event.Status)
}

// MonitorSubject is the subject for a monitor report, keyed by location.
func MonitorSubject(report *domain.MonitorReport) string {
	return SubjectMonitorPrefix + subjectToken(report.Location)
}

func (p *Publisher) PublishQueryEvent(ctx context.Context, event *domain.QueryEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(QuerySubject(event), data, nats.Context(ctx), nats.MsgId(event.QueryID))
	return err
}

func (p *Publisher) PublishMonitorReport(ctx context.Context, report *domain.MonitorReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(MonitorSubject(report), data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("kadal"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// subjectToken lowercases s and replaces characters NATS treats as
// separators or wildcards.
func subjectToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, s)
}
