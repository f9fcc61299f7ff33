package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryUnknownSessionIsEmpty(t *testing.T) {
	store := NewStore(20)
	history := store.History("nope")
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestAppendTrimsOldestPastLimit(t *testing.T) {
	store := NewStore(20)
	for i := 0; i < 24; i++ {
		store.Append("s1", RoleUser, fmt.Sprintf("message %d", i))
	}

	history := store.History("s1")
	require.Len(t, history, 20)
	assert.Equal(t, "message 4", history[0].Content)
	assert.Equal(t, "message 23", history[19].Content)
}

func TestHistoryReturnsCopy(t *testing.T) {
	store := NewStore(20)
	store.Append("s1", RoleUser, "original")

	history := store.History("s1")
	history[0].Content = "mutated"

	assert.Equal(t, "original", store.History("s1")[0].Content)
}

func TestClearRemovesHistoryAndBinding(t *testing.T) {
	store := NewStore(20)
	store.Append("s1", RoleUser, "hello")
	store.SetActiveTicket("s1", 42)

	store.Clear("s1")

	assert.Empty(t, store.History("s1"))
	_, bound := store.ActiveTicket("s1")
	assert.False(t, bound)

	// Clearing again is a no-op.
	store.Clear("s1")
}

func TestActiveTicketLastWriteWins(t *testing.T) {
	store := NewStore(20)
	store.SetActiveTicket("s1", 7)
	store.SetActiveTicket("s1", 9)

	id, bound := store.ActiveTicket("s1")
	require.True(t, bound)
	assert.Equal(t, int64(9), id)
}

func TestSweepRemovesIdleSessionsOnly(t *testing.T) {
	store := NewStore(20)
	current := time.Now()
	store.now = func() time.Time { return current }

	store.Append("old", RoleUser, "stale")
	current = current.Add(2 * time.Hour)
	store.Append("fresh", RoleUser, "recent")

	// Session with a binding but no turns has nothing to age on.
	store.SetActiveTicket("empty", 3)

	removed := store.Sweep(time.Hour)
	assert.Equal(t, 1, removed)
	assert.Empty(t, store.History("old"))
	assert.Len(t, store.History("fresh"), 1)
	_, bound := store.ActiveTicket("empty")
	assert.True(t, bound)
}

func TestLockSessionSerializesSameSession(t *testing.T) {
	store := NewStore(20)

	unlock := store.LockSession("s1")

	// A different session must not contend.
	done := make(chan struct{})
	go func() {
		u := store.LockSession("s2")
		u()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different session blocked")
	}

	unlock()
	u := store.LockSession("s1")
	u()
}

func TestLockSessionSurvivesClear(t *testing.T) {
	store := NewStore(20)
	store.Append("s1", RoleUser, "hello")

	unlock := store.LockSession("s1")
	store.Clear("s1")

	// A turn arriving after the clear must still wait for the in-flight one.
	acquired := make(chan struct{})
	go func() {
		u := store.LockSession("s1")
		u()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second turn acquired the gate while the first still held it")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second turn never acquired the gate")
	}
}

func TestLockSessionDoesNotCreateSession(t *testing.T) {
	store := NewStore(20)

	unlock := store.LockSession("one-shot")
	unlock()

	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.History("one-shot"))

	// The gate itself is dropped on release, leaving no trace.
	store.mu.RLock()
	_, exists := store.gates["one-shot"]
	store.mu.RUnlock()
	assert.False(t, exists)
}

func TestSweepSkipsInFlightSession(t *testing.T) {
	store := NewStore(20)
	current := time.Now()
	store.now = func() time.Time { return current }

	store.Append("busy", RoleUser, "stale")
	current = current.Add(2 * time.Hour)

	unlock := store.LockSession("busy")
	assert.Equal(t, 0, store.Sweep(time.Hour))
	assert.Len(t, store.History("busy"), 1)

	unlock()
	assert.Equal(t, 1, store.Sweep(time.Hour))
	assert.Empty(t, store.History("busy"))
}

func TestConcurrentAppends(t *testing.T) {
	store := NewStore(50)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				store.Append(fmt.Sprintf("s%d", n%3), RoleUser, "msg")
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 3, store.Len())
	assert.ElementsMatch(t, []string{"s0", "s1", "s2"}, store.SessionIDs())
}
