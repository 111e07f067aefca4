package kafka

import (
	"context"
	"errors"
	"net"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-categories/internal/usecase"
	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/DRSN-tech/catalog-categories/pkg/logger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outboxRow struct {
	event   *usecase.OutboxEvent
	readyAt time.Time
}

type fakeOutboxRepo struct {
	mu        sync.Mutex
	pending   []outboxRow
	inflight  map[int64]*usecase.OutboxEvent
	processed []int64
	released  []int64
	delays    []time.Duration
	failed    map[int64]string
	fetchErr  error
}

func newFakeOutboxRepo(events ...*usecase.OutboxEvent) *fakeOutboxRepo {
	repo := &fakeOutboxRepo{
		inflight: make(map[int64]*usecase.OutboxEvent),
		failed:   make(map[int64]string),
	}
	for _, ev := range events {
		repo.pending = append(repo.pending, outboxRow{event: ev, readyAt: ev.CreatedAt})
	}
	return repo
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, outboxRow{event: event, readyAt: event.CreatedAt})
	return event, nil
}

// GetAndMarkAsProcessing выбирает только события с наступившим readyAt в порядке (readyAt, id).
func (f *fakeOutboxRepo) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	sort.SliceStable(f.pending, func(i, j int) bool {
		a, b := f.pending[i], f.pending[j]
		if !a.readyAt.Equal(b.readyAt) {
			return a.readyAt.Before(b.readyAt)
		}
		return a.event.ID < b.event.ID
	})

	now := time.Now()
	var batch []*usecase.OutboxEvent
	rest := f.pending[:0:0]
	for _, row := range f.pending {
		if len(batch) < limit && !row.readyAt.After(now) {
			row.event.Status = usecase.Processing
			f.inflight[row.event.ID] = row.event
			batch = append(batch, row.event)
			continue
		}
		rest = append(rest, row)
	}
	f.pending = rest
	return batch, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := f.inflight[id]; ok {
		ev.Status = usecase.Processed
		delete(f.inflight, id)
	}
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutboxRepo) ReleaseToPending(_ context.Context, id int64, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, id)
	f.delays = append(f.delays, delay)
	if ev, ok := f.inflight[id]; ok {
		ev.Status = usecase.Pending
		ev.Attempts++
		delete(f.inflight, id)
		f.pending = append(f.pending, outboxRow{event: ev, readyAt: time.Now().Add(delay)})
	}
	return nil
}

func (f *fakeOutboxRepo) MarkAsFailed(_ context.Context, id int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := f.inflight[id]; ok {
		ev.Status = usecase.Failed
		ev.Attempts++
		delete(f.inflight, id)
	}
	f.failed[id] = reason
	return nil
}

type fakeProducer struct {
	mu       sync.Mutex
	sent     []*usecase.WriteRawMessageReq
	calls    int
	failKeys map[string]error
}

func (f *fakeProducer) WriteRawMessage(_ context.Context, req *usecase.WriteRawMessageReq) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.failKeys[req.Key]; ok {
		return err
	}
	f.sent = append(f.sent, req)
	return nil
}

func newEvent(id int64, categoryID uuid.UUID) *usecase.OutboxEvent {
	ev := usecase.NewOutboxEvent(uuid.New(), usecase.CategoryUpdated, categoryID, []byte("payload"), time.Now())
	ev.ID = id
	return ev
}

func TestEventEncoderRoundTrip(t *testing.T) {
	event := &usecase.CategoryEvent{
		EventID:    uuid.New(),
		Type:       usecase.CategoryCreated,
		OccurredAt: time.Date(2024, 2, 3, 4, 5, 6, 7, time.UTC),
		Category: usecase.CategoryInfo{
			ID:          uuid.New(),
			Name:        "Books",
			Description: "",
			IsActive:    false,
			CreatedAt:   time.Date(2024, 2, 3, 4, 5, 0, 0, time.UTC),
		},
	}

	data, err := NewEventEncoder().Encode(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte{0xff, 0x01})
	assert.Error(t, err)

	_, err = DecodeEvent(nil)
	assert.Error(t, err)
}

func TestNewMessage(t *testing.T) {
	msg := newMessage(usecase.NewWriteRawMessageReq("key-1", usecase.CategoryActivated, []byte("v")))

	assert.Equal(t, []byte("key-1"), msg.Key)
	assert.Equal(t, []byte("v"), msg.Value)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, eventTypeHeader, msg.Headers[0].Key)
	assert.Equal(t, []byte("category.activated"), msg.Headers[0].Value)
}

func TestProcessBatch(t *testing.T) {
	okCategory, failCategory := uuid.New(), uuid.New()
	repo := newFakeOutboxRepo(
		newEvent(1, okCategory),
		newEvent(2, failCategory),
		newEvent(3, okCategory),
	)
	producer := &fakeProducer{failKeys: map[string]error{failCategory.String(): errors.New("broker not available")}}
	w := NewOutboxWorker(repo, logger.Nop{}, producer, "", "outbox_pending", 10)

	fetched, err := w.processBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, fetched)
	assert.Equal(t, []int64{1, 3}, repo.processed)
	assert.Equal(t, []int64{2}, repo.released)
	require.Len(t, repo.delays, 1)
	assert.GreaterOrEqual(t, repo.delays[0], retryBase)
	assert.Empty(t, repo.failed)
	require.Len(t, producer.sent, 2)
	assert.Equal(t, okCategory.String(), producer.sent[0].Key)
	assert.Equal(t, usecase.CategoryUpdated, producer.sent[0].EventType)
}

func TestDrainMovesPermanentFailuresAside(t *testing.T) {
	tooLarge, rejected, healthy := uuid.New(), uuid.New(), uuid.New()
	repo := newFakeOutboxRepo(
		newEvent(1, tooLarge),
		newEvent(2, rejected),
		newEvent(3, healthy),
	)
	producer := &fakeProducer{failKeys: map[string]error{
		tooLarge.String(): kafka.MessageSizeTooLarge,
		rejected.String(): errors.New("message too large"),
	}}
	w := NewOutboxWorker(repo, logger.Nop{}, producer, "", "outbox_pending", 2)

	for i := 0; i < 5; i++ {
		w.drain(context.Background())
	}

	assert.Equal(t, []int64{3}, repo.processed)
	assert.Len(t, repo.failed, 2)
	assert.Contains(t, repo.failed, int64(1))
	assert.Contains(t, repo.failed, int64(2))
	assert.Empty(t, repo.released)
	assert.Equal(t, 3, producer.calls)
	assert.Empty(t, repo.pending)
}

func TestDrainDefersRetryableFailures(t *testing.T) {
	flaky, healthy := uuid.New(), uuid.New()
	repo := newFakeOutboxRepo(newEvent(1, flaky), newEvent(2, healthy))
	producer := &fakeProducer{failKeys: map[string]error{flaky.String(): kafka.LeaderNotAvailable}}
	w := NewOutboxWorker(repo, logger.Nop{}, producer, "", "outbox_pending", 1)

	w.drain(context.Background())
	w.drain(context.Background())

	assert.Equal(t, []int64{2}, repo.processed)
	assert.Equal(t, []int64{1}, repo.released)
	assert.Empty(t, repo.failed)
	assert.Equal(t, 2, producer.calls)
	require.Len(t, repo.pending, 1)
	assert.Equal(t, 1, repo.pending[0].event.Attempts)
	assert.True(t, repo.pending[0].readyAt.After(time.Now()))
}

func TestProcessBatchGivesUpAfterMaxAttempts(t *testing.T) {
	categoryID := uuid.New()
	ev := newEvent(1, categoryID)
	ev.Attempts = maxAttempts - 1
	repo := newFakeOutboxRepo(ev)
	producer := &fakeProducer{failKeys: map[string]error{categoryID.String(): errors.New("dial tcp: connection refused")}}
	w := NewOutboxWorker(repo, logger.Nop{}, producer, "", "outbox_pending", 10)

	_, err := w.processBatch(context.Background())

	require.NoError(t, err)
	assert.Empty(t, repo.released)
	assert.Contains(t, repo.failed[1], "connection refused")
	assert.Equal(t, usecase.Failed, ev.Status)
	assert.Equal(t, maxAttempts, ev.Attempts)
}

func TestDrainProcessesAllBatches(t *testing.T) {
	categoryID := uuid.New()
	repo := newFakeOutboxRepo()
	for i := int64(1); i <= 5; i++ {
		ev := newEvent(i, categoryID)
		repo.pending = append(repo.pending, outboxRow{event: ev, readyAt: ev.CreatedAt})
	}
	producer := &fakeProducer{}
	w := NewOutboxWorker(repo, logger.Nop{}, producer, "", "outbox_pending", 2)

	w.drain(context.Background())

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, repo.processed)
	assert.Len(t, producer.sent, 5)
	assert.Empty(t, repo.pending)
}

func TestDrainStopsOnFetchError(t *testing.T) {
	repo := newFakeOutboxRepo()
	repo.fetchErr = errors.New("db down")
	w := NewOutboxWorker(repo, logger.Nop{}, &fakeProducer{}, "", "outbox_pending", 0)

	w.drain(context.Background())

	assert.Equal(t, defaultBatchLimit, w.batchLimit)
	assert.Empty(t, repo.processed)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("dial tcp: connection refused")))
	assert.True(t, isRetryableError(errors.New("read: I/O timeout")))
	assert.True(t, isRetryableError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}))
	assert.True(t, isRetryableError(context.DeadlineExceeded))
	assert.True(t, isRetryableError(kafka.LeaderNotAvailable))
	assert.True(t, isRetryableError(e.Wrap("write", kafka.NotLeaderForPartition)))
	assert.True(t, isRetryableError(kafka.WriteErrors{kafka.LeaderNotAvailable, nil}))

	assert.False(t, isRetryableError(errors.New("message too large")))
	assert.False(t, isRetryableError(kafka.MessageSizeTooLarge))
	assert.False(t, isRetryableError(e.Wrap("write", kafka.MessageSizeTooLarge)))
	assert.False(t, isRetryableError(kafka.WriteErrors{kafka.LeaderNotAvailable, kafka.MessageSizeTooLarge}))
	assert.False(t, isRetryableError(nil))
}
