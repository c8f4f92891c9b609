package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	appoutbox "staybook/internal/app/outbox"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker relays outbox records to the broker as CloudEvents, one record per
// tick until the source is drained.
type Worker struct {
	Source      appoutbox.Source
	Producer    Producer
	Logger      *slog.Logger
	Interval    time.Duration
	TopicPrefix string
	SourceURI   string
	ID          string
	Backoff     []time.Duration
	Now         func() time.Time
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

func (w *Worker) Run(ctx context.Context) error {
	if w.Source == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && w.Logger != nil {
				w.Logger.Warn("outbox relay failed", "worker_id", w.ID, "error", err)
			}
		}
	}
}

// Drain publishes records until none is due and reports how many were sent.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	sent := 0
	for {
		ok, err := w.processOnce(ctx)
		if err != nil {
			return sent, err
		}
		if !ok {
			return sent, nil
		}
		sent++
	}
}

// processOnce returns false when nothing was claimed. Publish failures are
// rescheduled on the record and do not stop the relay.
func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	rec, err := w.Source.Claim(ctx, w.workerID())
	if err != nil || rec == nil {
		return false, err
	}
	topic := w.topicFor(rec.Name)
	payload, headers, err := w.formatPayload(rec)
	if err == nil {
		err = w.Producer.Publish(ctx, topic, rec.Aggregate, payload, headers)
	}
	if err != nil {
		if w.Logger != nil {
			w.Logger.Warn("outbox publish failed", "event_id", rec.ID, "event", rec.Name, "attempts", rec.Attempts+1, "error", err)
		}
		if markErr := w.Source.MarkFailed(ctx, rec.ID, w.nextRetry(rec.Attempts), err.Error()); markErr != nil {
			return false, markErr
		}
		return false, nil
	}
	if err := w.Source.MarkSent(ctx, rec.ID); err != nil {
		return false, err
	}
	if w.Logger != nil {
		w.Logger.Debug("outbox event published", "event_id", rec.ID, "event", rec.Name, "topic", topic)
	}
	return true, nil
}

func (w *Worker) formatPayload(rec *appoutbox.PendingRecord) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              rec.ID,
		"type":            rec.Name + ".v1",
		"source":          w.source(),
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := rec.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps "booking.created" to "<prefix>booking.events.v1".
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return "outbox-worker"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return w.now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return w.now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return w.now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.SourceURI != "" {
		return w.SourceURI
	}
	return "app://staybook"
}

// LogProducer writes events to the log instead of a broker; used when no
// Kafka brokers are configured.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(_ context.Context, topic string, key string, payload []byte, _ map[string]string) error {
	if p.Logger != nil {
		p.Logger.Info("event", "topic", topic, "key", key, "bytes", len(payload))
	}
	return nil
}
