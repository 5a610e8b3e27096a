// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package blockchain

import (
	"sync"

	"github.com/unitynet/unity/blockchain/types"
)

// NotificationKind is one of the four events spec.md §4.5 step 8 names.
type NotificationKind int

const (
	Imported NotificationKind = iota
	Enacted
	Retracted
	Sealed
)

func (k NotificationKind) String() string {
	switch k {
	case Imported:
		return "imported"
	case Enacted:
		return "enacted"
	case Retracted:
		return "retracted"
	case Sealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// Notification is one event fan-out to subscribers.
type Notification struct {
	Kind  NotificationKind
	Block *types.Block
}

// notifier is a minimal multi-subscriber fan-out, the same shape as the
// subscribe/unsubscribe call sites klaytn's node/sc package drives against
// event.Feed (e.g. bridge_manager.go's tokenReceived/tokenWithdraw feeds);
// the feed package itself isn't part of this module's dependency surface,
// so this reimplements the narrow slice it needs: broadcast to all live
// subscribers, non-blocking on slow readers.
type notifier struct {
	mu   sync.Mutex
	subs map[int]chan Notification
	next int
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]chan Notification)}
}

// Subscribe returns a channel receiving every future notification and an
// unsubscribe function.
func (n *notifier) Subscribe() (<-chan Notification, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	ch := make(chan Notification, 64)
	n.subs[id] = ch
	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if c, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(c)
		}
	}
}

func (n *notifier) publish(kind NotificationKind, block *types.Block) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- Notification{Kind: kind, Block: block}:
		default:
			// slow subscriber: drop rather than block the import pipeline.
		}
	}
}
