// Package natsbus announces recorded scans on a NATS subject.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"phishdetect/internal/domain"
	"phishdetect/internal/ports"
)

const DefaultSubject = "phishdetect.scans.created"

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

type Publisher struct {
	conn    Conn
	subject string
	logger  *slog.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

func NewPublisher(conn Conn, subject string, logger *slog.Logger) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, subject: subject, logger: logger}
}

// Connect dials url with reconnects enabled.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("phishdetect"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("natsbus: connect %s: %w", url, err)
	}
	return nc, nil
}

func (p *Publisher) PublishScan(ctx context.Context, scan domain.ScanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("natsbus: marshal scan: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("natsbus: publish %s: %w", p.subject, err)
	}
	p.logger.Debug("scan event published", "subject", p.subject, "id", scan.ID, "verdict", scan.Verdict)
	return nil
}
