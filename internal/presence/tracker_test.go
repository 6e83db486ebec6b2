package presence

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_SingleConnection(t *testing.T) {
	tr := NewTracker()
	user := uuid.New()

	require.False(t, tr.IsOnline(user))

	assert.True(t, tr.RecordConnect(user), "first connect is the online edge")
	assert.True(t, tr.IsOnline(user))

	assert.True(t, tr.RecordDisconnect(user), "last disconnect is the offline edge")
	assert.False(t, tr.IsOnline(user))
}

func TestTracker_MultipleConnectionsSameUser(t *testing.T) {
	tr := NewTracker()
	user := uuid.New()

	assert.True(t, tr.RecordConnect(user))
	assert.False(t, tr.RecordConnect(user), "second connection is not an edge")
	assert.False(t, tr.RecordConnect(user))

	assert.False(t, tr.RecordDisconnect(user))
	assert.False(t, tr.RecordDisconnect(user))
	assert.True(t, tr.IsOnline(user), "still one connection open")

	assert.True(t, tr.RecordDisconnect(user))
	assert.False(t, tr.IsOnline(user))
}

func TestTracker_DisconnectUnknownUser(t *testing.T) {
	tr := NewTracker()

	assert.False(t, tr.RecordDisconnect(uuid.New()), "never-connected user is not an offline edge")
}

func TestTracker_OnlineUserIDs(t *testing.T) {
	tr := NewTracker()
	u1, u2 := uuid.New(), uuid.New()

	tr.RecordConnect(u1)
	tr.RecordConnect(u2)
	tr.RecordConnect(u2)

	ids := tr.OnlineUserIDs()
	assert.ElementsMatch(t, []uuid.UUID{u1, u2}, ids)

	tr.RecordDisconnect(u2)
	assert.ElementsMatch(t, []uuid.UUID{u1, u2}, tr.OnlineUserIDs())

	tr.RecordDisconnect(u2)
	assert.ElementsMatch(t, []uuid.UUID{u1}, tr.OnlineUserIDs())
}

// Every connect is eventually paired with a disconnect; the number of
// online edges must equal the number of offline edges, and the tracker
// must end empty, no matter how the goroutines interleave.
func TestTracker_ConcurrentEdgeCount(t *testing.T) {
	tr := NewTracker()
	user := uuid.New()

	const workers = 32
	const rounds = 200

	var onlineEdges, offlineEdges atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if tr.RecordConnect(user) {
					onlineEdges.Add(1)
				}
				if tr.RecordDisconnect(user) {
					offlineEdges.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, onlineEdges.Load(), offlineEdges.Load(),
		"online and offline edges must pair up")
	require.Greater(t, onlineEdges.Load(), int64(0))
	assert.False(t, tr.IsOnline(user), "no stale count may remain")
	assert.Empty(t, tr.OnlineUserIDs())
}

func TestTracker_ConcurrentManyUsers(t *testing.T) {
	tr := NewTracker()

	const users = 50
	ids := make([]uuid.UUID, users)
	for i := range ids {
		ids[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			tr.RecordConnect(id)
			tr.RecordConnect(id)
			tr.RecordDisconnect(id)
		}(id)
	}
	wg.Wait()

	assert.Len(t, tr.OnlineUserIDs(), users, "each user still has one connection")
	for _, id := range ids {
		assert.True(t, tr.IsOnline(id))
	}
}
