// Package presence tracks which users currently hold at least one live
// connection. A user with several open connections (multiple tabs,
// devices) is online until the last one closes.
package presence

import (
	"sync"

	"github.com/google/uuid"
)

// Tracker keeps a per-user count of open connections. All methods are
// safe for concurrent use; edge detection (0→1, 1→0) is exact under
// arbitrary interleavings.
type Tracker struct {
	counts sync.Map // uuid.UUID → int
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordConnect increments the user's connection count and reports
// whether the user just became online (count went 0→1).
func (t *Tracker) RecordConnect(userID uuid.UUID) bool {
	for {
		old, loaded := t.counts.LoadOrStore(userID, 1)
		if !loaded {
			return true
		}
		if t.counts.CompareAndSwap(userID, old, old.(int)+1) {
			return false
		}
		// Lost the race with another update for this user, retry.
	}
}

// RecordDisconnect decrements the user's connection count and reports
// whether the user just became offline (count went 1→0). A reached-zero
// entry is removed, never left behind, so IsOnline stays truthful.
func (t *Tracker) RecordDisconnect(userID uuid.UUID) bool {
	for {
		old, ok := t.counts.Load(userID)
		if !ok {
			return false
		}

		next := old.(int) - 1
		if next <= 0 {
			if t.counts.CompareAndDelete(userID, old) {
				return true
			}
		} else {
			if t.counts.CompareAndSwap(userID, old, next) {
				return false
			}
		}
		// A failed CAS means a concurrent connect/disconnect won; it is
		// never an offline edge. Re-read and decide again.
	}
}

func (t *Tracker) IsOnline(userID uuid.UUID) bool {
	_, ok := t.counts.Load(userID)
	return ok
}

// OnlineUserIDs returns a snapshot of every user with at least one
// open connection.
func (t *Tracker) OnlineUserIDs() []uuid.UUID {
	var ids []uuid.UUID
	t.counts.Range(func(key, _ any) bool {
		ids = append(ids, key.(uuid.UUID))
		return true
	})
	return ids
}
