package kioto

import (
	"fmt"
	"sync"

	"github.com/streamspace-dev/kioto/kerr"
	"github.com/streamspace-dev/kioto/klog"
)

// Broker is the one-slot-per-destination inbox described in spec.md
// §4.7: at most one pending Message may sit addressed to a given commit
// id at any time. Send is a two-phase optimistic check — a cheap RLock
// read to reject the common "already occupied" case without blocking
// other readers, followed by a Lock-held re-check that turns a genuine
// race between two concurrent Sends into KindWriteRequestRaceCondition
// rather than silently overwriting one sender's message.
type Broker struct {
	mu    sync.RWMutex
	inbox map[CommitID]Message
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{inbox: make(map[CommitID]Message)}
}

// Send deposits msg for dest. It fails with KindPreviousUnhandledRequest
// if a message is already waiting there, or KindWriteRequestRaceCondition
// if another Send filled the slot between this call's optimistic check
// and its write lock.
func (b *Broker) Send(dest CommitID, msg Message) error {
	b.mu.RLock()
	_, occupied := b.inbox[dest]
	b.mu.RUnlock()
	if occupied {
		return kerr.PreviousUnhandledRequest(fmt.Sprintf("%016x", uint64(dest)))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, raced := b.inbox[dest]; raced {
		return kerr.WriteRequestRaceCondition(fmt.Sprintf("%016x", uint64(dest)))
	}
	b.inbox[dest] = msg
	klog.Broker().Debug().Str("dest", fmt.Sprintf("%016x", uint64(dest))).Msg("message enqueued")
	return nil
}

// Receive takes and clears any message waiting for commit, or returns
// Empty() if none is pending. It never blocks.
func (b *Broker) Receive(commit CommitID) Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg, ok := b.inbox[commit]
	if !ok {
		return Empty()
	}
	delete(b.inbox, commit)
	return msg
}

// Pending reports whether a message is currently waiting for commit,
// without consuming it.
func (b *Broker) Pending(commit CommitID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.inbox[commit]
	return ok
}
