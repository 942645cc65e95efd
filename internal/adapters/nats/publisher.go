package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/olaizola/maplabel/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the labeling streams exist.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	streams := []nats.StreamConfig{
		{
			// Box lifecycle events: fan out to the websocket relay and
			// the tile prewarmer, kept a day for late consumers.
			Name:      "LABEL_BOXES",
			Subjects:  []string{"label.box.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			// Export requests: work items consumed exactly once by the
			// exporter.
			Name:      "LABEL_EXPORTS",
			Subjects:  []string{"label.export.request"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "LABEL_PROGRESS",
			Subjects:  []string{"label.export.progress"},
			Retention: nats.InterestPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist; fall back to update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishBoxCreated(ctx context.Context, box *domain.Box) error {
	ev := domain.BoxEvent{
		Action:     "created",
		DatasetID:  box.DatasetID,
		Box:        box,
		BoxID:      box.ID,
		OccurredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("label.box.created."+box.DatasetID, data)
	return err
}

func (p *Publisher) PublishBoxDeleted(ctx context.Context, datasetID, boxID string) error {
	ev := domain.BoxEvent{
		Action:     "deleted",
		DatasetID:  datasetID,
		BoxID:      boxID,
		OccurredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("label.box.deleted."+datasetID, data)
	return err
}

func (p *Publisher) PublishExportRequested(ctx context.Context, job *domain.ExportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("label.export.request", data)
	return err
}

func (p *Publisher) PublishExportProgress(ctx context.Context, progress *domain.ExportProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("label.export.progress", data)
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
