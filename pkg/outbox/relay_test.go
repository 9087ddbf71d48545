package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Facugl/microservices-ecommerce/pkg/logging"
)

// memStore mirrors PGStore's status transitions: LockBatch claims
// pending rows, failed rows under the retry budget, and in_progress
// rows whose lease expired.
type memStore struct {
	events map[int64]*Event
	leases map[int64]time.Time
	order  []int64
	sent   []int64
	failed map[int64]string
}

func newMemStore(pending ...Event) *memStore {
	s := &memStore{
		events: make(map[int64]*Event),
		leases: make(map[int64]time.Time),
		failed: make(map[int64]string),
	}
	for i := range pending {
		e := pending[i]
		if e.Status == "" {
			e.Status = StatusPending
		}
		s.events[e.ID] = &e
		s.order = append(s.order, e.ID)
	}
	return s
}

func (s *memStore) LockBatch(_ context.Context, _ string, batchSize int, lease time.Duration) ([]Event, error) {
	var batch []Event
	now := time.Now()
	for _, id := range s.order {
		if len(batch) == batchSize {
			break
		}
		e := s.events[id]
		claimable := e.Status == StatusPending ||
			(e.Status == StatusFailed && e.RetryCount < maxDispatchAttempts) ||
			(e.Status == StatusInProgress && s.leases[id].Before(now))
		if !claimable {
			continue
		}
		e.Status = StatusInProgress
		s.leases[id] = now.Add(lease)
		batch = append(batch, *e)
	}
	return batch, nil
}

func (s *memStore) MarkSent(_ context.Context, ids []int64) error {
	for _, id := range ids {
		s.events[id].Status = StatusSent
	}
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *memStore) MarkFailed(_ context.Context, id int64, errMsg string) error {
	e := s.events[id]
	e.Status = StatusFailed
	e.RetryCount++
	s.failed[id] = errMsg
	return nil
}

type memProducer struct {
	messages []kafka.Message
	failKeys map[string]error
}

func (p *memProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if err := p.failKeys[string(m.Key)]; err != nil {
			return err
		}
		p.messages = append(p.messages, m)
	}
	return nil
}

func event(id int64, aggregateID string) Event {
	return Event{
		ID:            id,
		AggregateType: "order",
		AggregateID:   aggregateID,
		Type:          "OrderConfirmation",
		Payload:       []byte(`{"orderReference":"` + aggregateID + `"}`),
		Headers:       map[string]string{"source": "order-service"},
		Traceparent:   "00-0123456789abcdef0123456789abcdef-0123456789abcdef-01",
		CreatedAt:     time.Now().UTC(),
	}
}

func newTestRelay(store *memStore, producer *memProducer) *Relay {
	log := logging.New("relay-test")
	return NewRelay(log, store, NewDispatcher(log, producer, "order-confirmations"), "relay-1")
}

func TestRelayTick_DispatchesAndMarksSent(t *testing.T) {
	store := newMemStore(event(1, "ord-1"), event(2, "ord-2"))
	producer := &memProducer{}
	relay := newTestRelay(store, producer)

	require.NoError(t, relay.tick(context.Background()))

	require.Len(t, producer.messages, 2)
	assert.Equal(t, []int64{1, 2}, store.sent)
	assert.Empty(t, store.failed)

	msg := producer.messages[0]
	assert.Equal(t, "order-confirmations", msg.Topic)
	assert.Equal(t, []byte("ord-1"), msg.Key, "the aggregate id keys the partition")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "OrderConfirmation", headers["event_type"])
	assert.Equal(t, "order-service", headers["source"])
	assert.NotEmpty(t, headers["traceparent"])
}

func TestRelayTick_FailedDispatchDoesNotBlockBatch(t *testing.T) {
	store := newMemStore(event(1, "ord-1"), event(2, "ord-2"), event(3, "ord-3"))
	producer := &memProducer{failKeys: map[string]error{"ord-2": errors.New("broker unavailable")}}
	relay := newTestRelay(store, producer)

	require.NoError(t, relay.tick(context.Background()))

	assert.Equal(t, []int64{1, 3}, store.sent)
	assert.Contains(t, store.failed[2], "broker unavailable")
}

func TestRelayTick_RedeliversAfterBrokerRecovers(t *testing.T) {
	store := newMemStore(event(1, "ord-1"))
	producer := &memProducer{failKeys: map[string]error{"ord-1": errors.New("kafka unavailable")}}
	relay := newTestRelay(store, producer)

	require.NoError(t, relay.tick(context.Background()))
	require.Empty(t, store.sent)
	assert.Equal(t, StatusFailed, store.events[1].Status)

	producer.failKeys = nil
	require.NoError(t, relay.tick(context.Background()))

	require.Len(t, producer.messages, 1, "a failed event must be delivered once the broker recovers")
	assert.Equal(t, []int64{1}, store.sent)
	assert.Equal(t, StatusSent, store.events[1].Status)
}

func TestRelayTick_ReclaimsExpiredLease(t *testing.T) {
	crashed := event(1, "ord-1")
	crashed.Status = StatusInProgress
	store := newMemStore(crashed)
	store.leases[1] = time.Now().Add(-time.Minute)

	producer := &memProducer{}
	relay := newTestRelay(store, producer)

	require.NoError(t, relay.tick(context.Background()))

	require.Len(t, producer.messages, 1, "a row abandoned by a dead relay must be reclaimed after its lease")
	assert.Equal(t, []int64{1}, store.sent)
}

func TestRelayTick_FreshLeaseIsNotStolen(t *testing.T) {
	claimed := event(1, "ord-1")
	claimed.Status = StatusInProgress
	store := newMemStore(claimed)
	store.leases[1] = time.Now().Add(time.Minute)

	producer := &memProducer{}
	relay := newTestRelay(store, producer)

	require.NoError(t, relay.tick(context.Background()))
	assert.Empty(t, producer.messages)
}

func TestRelayTick_RetryBudgetParksEvent(t *testing.T) {
	store := newMemStore(event(1, "ord-1"))
	producer := &memProducer{failKeys: map[string]error{"ord-1": errors.New("kafka unavailable")}}
	relay := newTestRelay(store, producer)

	for i := 0; i < maxDispatchAttempts+3; i++ {
		require.NoError(t, relay.tick(context.Background()))
	}

	assert.Equal(t, maxDispatchAttempts, store.events[1].RetryCount,
		"redelivery stops once the attempt budget is spent")
	assert.Equal(t, StatusFailed, store.events[1].Status)
}

func TestRelayTick_EmptyBatchIsQuiet(t *testing.T) {
	store := newMemStore()
	producer := &memProducer{}
	relay := newTestRelay(store, producer)

	require.NoError(t, relay.tick(context.Background()))
	assert.Empty(t, producer.messages)
	assert.Empty(t, store.sent)
}

func TestRelayRun_StopsOnContextCancel(t *testing.T) {
	relay := newTestRelay(newMemStore(), &memProducer{})
	relay.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop after cancellation")
	}
}
