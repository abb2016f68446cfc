package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bps3275/sinora/internal/ports"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeOutbox struct {
	mu           sync.Mutex
	pending      []ports.OutboxRecord
	published    []uuid.UUID
	failed       []uuid.UUID
	deadLettered []uuid.UUID
}

func (f *fakeOutbox) Enqueue(context.Context, ports.OutboxEvent) error { return nil }

func (f *fakeOutbox) ClaimUnpublished(_ context.Context, limit int, _ string, _ time.Time) ([]ports.OutboxRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	out := f.pending[:limit]
	f.pending = f.pending[limit:]
	return out, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, id uuid.UUID, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, id)
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, _, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeOutbox) MarkDeadLettered(_ context.Context, id uuid.UUID, _, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadLettered = append(f.deadLettered, id)
	return nil
}

type fakePublisher struct {
	fail map[string]bool
	keys []string
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, _ []byte, partitionKey string) error {
	if p.fail[eventType] {
		return errors.New("broker unavailable")
	}
	p.keys = append(p.keys, partitionKey)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessOnceRoutesOutcomes(t *testing.T) {
	ok := ports.OutboxRecord{OutboxID: uuid.New(), EventType: "mitra.created", PartitionKey: "S1"}
	retry := ports.OutboxRecord{OutboxID: uuid.New(), EventType: "kegiatan.created", PartitionKey: "7", RetryCount: 1}
	last := ports.OutboxRecord{OutboxID: uuid.New(), EventType: "kegiatan.created", PartitionKey: "8", RetryCount: 2}
	exhausted := ports.OutboxRecord{OutboxID: uuid.New(), EventType: "mitra.created", PartitionKey: "S2", RetryCount: 3}

	outbox := &fakeOutbox{pending: []ports.OutboxRecord{ok, retry, last, exhausted}}
	publisher := &fakePublisher{fail: map[string]bool{"kegiatan.created": true}}
	reg := prometheus.NewRegistry()
	metrics := NewOutboxMetrics(reg)
	worker := NewOutboxWorker(quietLogger(), outbox, publisher, metrics, OutboxWorkerConfig{MaxRetries: 3})

	result, err := worker.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Claimed: 4, Published: 1, Failed: 2, DeadLettered: 2}, result)

	assert.Equal(t, []uuid.UUID{ok.OutboxID}, outbox.published)
	assert.Equal(t, []uuid.UUID{retry.OutboxID}, outbox.failed)
	assert.ElementsMatch(t, []uuid.UUID{last.OutboxID, exhausted.OutboxID}, outbox.deadLettered)
	assert.Equal(t, []string{"S1"}, publisher.keys)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.events.WithLabelValues("mitra.created", outcomePublished)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.events.WithLabelValues("kegiatan.created", outcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.events.WithLabelValues("kegiatan.created", outcomeDeadLettered)))
}

func TestRunStopsOnCancel(t *testing.T) {
	outbox := &fakeOutbox{pending: []ports.OutboxRecord{{OutboxID: uuid.New(), EventType: "mitra.created"}}}
	worker := NewOutboxWorker(quietLogger(), outbox, &fakePublisher{}, nil, OutboxWorkerConfig{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	require.Eventually(t, func() bool {
		outbox.mu.Lock()
		defer outbox.mu.Unlock()
		return len(outbox.published) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestKafkaPublisherTopic(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "sinora.")
	require.Error(t, err)

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "sinora.")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	assert.Equal(t, "sinora.honor.rebuilt", p.Topic("honor.rebuilt"))
}
