package event

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/pkg/notify"
)

// subscriberBuffer is how many notifications a slow subscriber may lag behind before notifications
// are dropped for it.
const subscriberBuffer = 16

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[uuid.UUID]map[uuid.UUID]chan notify.Notification),
	}
}

// Broker fans out notifications to the subscribers of a team. It's local to this process, every
// replica only streams the notifications it published.
type Broker struct {
	lock        sync.Mutex
	closed      bool
	subscribers map[uuid.UUID]map[uuid.UUID]chan notify.Notification
}

// Subscribe returns the id of the subscription and the channel receiving the notifications of the
// team. The channel is closed on Unsubscribe.
func (b *Broker) Subscribe(teamID uuid.UUID) (uuid.UUID, <-chan notify.Notification) {
	b.lock.Lock()
	defer b.lock.Unlock()

	id := uuid.New()
	ch := make(chan notify.Notification, subscriberBuffer)
	if b.closed {
		close(ch)
		return id, ch
	}
	if b.subscribers[teamID] == nil {
		b.subscribers[teamID] = make(map[uuid.UUID]chan notify.Notification)
	}
	b.subscribers[teamID][id] = ch
	return id, ch
}

// Unsubscribe is safe to call more than once.
func (b *Broker) Unsubscribe(teamID, id uuid.UUID) {
	b.lock.Lock()
	defer b.lock.Unlock()

	ch, ok := b.subscribers[teamID][id]
	if !ok {
		return
	}
	close(ch)
	delete(b.subscribers[teamID], id)
	if len(b.subscribers[teamID]) == 0 {
		delete(b.subscribers, teamID)
	}
}

// Close closes the channels of all subscriptions which ends their streams. Subscriptions made after
// Close receive a closed channel.
func (b *Broker) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.closed = true
	for teamID, subscribers := range b.subscribers {
		for _, ch := range subscribers {
			close(ch)
		}
		delete(b.subscribers, teamID)
	}
}

// Subscribers returns the number of subscriptions of the team.
func (b *Broker) Subscribers(teamID uuid.UUID) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return len(b.subscribers[teamID])
}

// Publish sends n to every subscriber of its team without blocking.
func (b *Broker) Publish(_ context.Context, n notify.Notification) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	for _, ch := range b.subscribers[n.TeamID] {
		select {
		case ch <- n:
		default:
		}
	}
	return nil
}
