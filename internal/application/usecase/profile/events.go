package profile

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/pkg/logger"
)

const (
	eventShards     = 8
	eventShardQueue = 64
)

// eventDispatcher publishes in the background while keeping each owner's
// events in the order they were dispatched. An owner always maps to the same
// shard and every shard is drained by a single goroutine.
type eventDispatcher struct {
	publisher service.EventPublisher
	logger    logger.Logger
	shards    []chan service.ProfileEvent

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func newEventDispatcher(publisher service.EventPublisher, log logger.Logger) *eventDispatcher {
	d := &eventDispatcher{
		publisher: publisher,
		logger:    log,
		shards:    make([]chan service.ProfileEvent, eventShards),
	}
	for i := range d.shards {
		d.shards[i] = make(chan service.ProfileEvent, eventShardQueue)
		d.wg.Add(1)
		go d.run(d.shards[i])
	}
	return d
}

func (d *eventDispatcher) run(queue <-chan service.ProfileEvent) {
	defer d.wg.Done()
	for evt := range queue {
		if err := d.publisher.PublishProfileEvent(context.Background(), evt); err != nil {
			d.logger.Error("Failed to publish profile event", err,
				zap.String("event_type", string(evt.EventType)),
				zap.String("owner_id", evt.OwnerID.String()))
		}
	}
}

func shardFor(ownerID uuid.UUID, n int) int {
	return int(ownerID[len(ownerID)-1]) % n
}

// dispatch blocks only while the owner's shard queue is full.
func (d *eventDispatcher) dispatch(evt service.ProfileEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("Dropping profile event after shutdown",
			zap.String("event_type", string(evt.EventType)),
			zap.String("owner_id", evt.OwnerID.String()))
		return
	}
	d.shards[shardFor(evt.OwnerID, len(d.shards))] <- evt
}

// close stops accepting events and waits until queued ones are published.
func (d *eventDispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.shards {
		close(q)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
