package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appoutbox "alxtravel/internal/app/outbox"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker relays outbox records to the broker as CloudEvents. Delivery is at-least-once.
type Worker struct {
	Source      appoutbox.Source
	Producer    Producer
	Logger      *slog.Logger
	Interval    time.Duration
	TopicPrefix string
	SourceURI   string
	ID          string
	Backoff     []time.Duration
	// BatchSize caps records relayed per tick.
	BatchSize   int

	wakeOnce sync.Once
	wake     chan struct{}
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Source == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	wake := w.wakeup()
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-wake:
		}
		if err := w.drain(ctx); err != nil && ctx.Err() == nil {
			w.logger().WarnContext(ctx, "outbox relay pass failed", "err", err)
		}
	}
}

// Notify asks a running worker to poll now. It never blocks.
func (w *Worker) Notify() {
	select {
	case w.wakeup() <- struct{}{}:
	default:
	}
}

func (w *Worker) wakeup() chan struct{} {
	w.wakeOnce.Do(func() { w.wake = make(chan struct{}, 1) })
	return w.wake
}

func (w *Worker) drain(ctx context.Context) error {
	for i := 0; i < w.batchSize(); i++ {
		more, err := w.processOnce(ctx)
		if err != nil || !more {
			return err
		}
	}
	return nil
}

// processOnce relays at most one record and reports whether one was claimed.
func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	rec, err := w.Source.Claim(ctx, w.workerID())
	if err != nil || rec == nil {
		return false, err
	}
	topic := w.topicFor(rec.Name)
	payload, headers, err := w.formatPayload(rec)
	if err != nil {
		return true, w.fail(ctx, rec, err)
	}
	if err := w.Producer.Publish(ctx, topic, rec.Aggregate, payload, headers); err != nil {
		return true, w.fail(ctx, rec, err)
	}
	if err := w.Source.MarkSent(ctx, rec.ID); err != nil {
		return true, err
	}
	w.logger().DebugContext(ctx, "outbox record relayed", "event_id", rec.ID, "name", rec.Name, "topic", topic)
	return true, nil
}

func (w *Worker) fail(ctx context.Context, rec *appoutbox.Claimed, cause error) error {
	next := w.nextRetry(rec.Attempts)
	w.logger().WarnContext(ctx, "outbox publish failed", "event_id", rec.ID, "name", rec.Name, "attempts", rec.Attempts+1, "retry_at", next, "err", cause)
	return w.Source.MarkFailed(ctx, rec.ID, next, cause.Error())
}

func (w *Worker) formatPayload(rec *appoutbox.Claimed) ([]byte, map[string]string, error) {
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

func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = w.TopicPrefix + topic
	}
	return topic
}

func (w *Worker) workerID() string {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return w.ID
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 100
	}
	return w.BatchSize
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.SourceURI != "" {
		return w.SourceURI
	}
	return "app://alxtravel"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

var _ appoutbox.Notifier = (*Worker)(nil)
