package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shophub-ai/assistant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateCreatesSession(t *testing.T) {
	store := NewMemoryStore()

	session := store.Update("sess-1", func(s *assistant.Session) {
		s.CustomerID = "CUST-001"
	})

	require.NotNil(t, session)
	assert.Equal(t, "sess-1", session.ID)
	assert.Equal(t, "CUST-001", session.CustomerID)
	assert.False(t, session.CreatedAt.IsZero())

	got, ok := store.Get("sess-1")
	require.True(t, ok)
	assert.Equal(t, "CUST-001", got.CustomerID)
}

func TestGetMissing(t *testing.T) {
	store := NewMemoryStore()
	_, ok := store.Get("nope")
	assert.False(t, ok)
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	store.Update("sess-1", func(s *assistant.Session) {
		s.History = append(s.History, assistant.Turn{Role: "user", Content: "hi", At: time.Now()})
	})

	got, ok := store.Get("sess-1")
	require.True(t, ok)
	got.History[0].Content = "mutated"
	got.CustomerID = "CUST-999"

	fresh, _ := store.Get("sess-1")
	assert.Equal(t, "hi", fresh.History[0].Content)
	assert.Empty(t, fresh.CustomerID)
}

func TestHistoryBounded(t *testing.T) {
	store := NewMemoryStore(WithMaxHistoryTurns(4))

	for i := 0; i < 10; i++ {
		content := fmt.Sprintf("turn %d", i)
		store.Update("sess-1", func(s *assistant.Session) {
			s.History = append(s.History, assistant.Turn{Role: "user", Content: content})
		})
	}

	got, _ := store.Get("sess-1")
	require.Len(t, got.History, 4)
	assert.Equal(t, "turn 6", got.History[0].Content)
	assert.Equal(t, "turn 9", got.History[3].Content)
}

func TestRemove(t *testing.T) {
	store := NewMemoryStore()
	store.Update("sess-1", nil)
	require.Equal(t, 1, store.Len())

	store.Remove("sess-1")
	_, ok := store.Get("sess-1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestPutReplaces(t *testing.T) {
	store := NewMemoryStore()
	store.Put(&assistant.Session{ID: "sess-1", CustomerID: "CUST-001"})
	store.Put(&assistant.Session{ID: "sess-1", CustomerID: "CUST-002"})

	got, ok := store.Get("sess-1")
	require.True(t, ok)
	assert.Equal(t, "CUST-002", got.CustomerID)
}

func TestConcurrentUpdatesSameSession(t *testing.T) {
	store := NewMemoryStore(WithMaxHistoryTurns(1000))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Update("sess-1", func(s *assistant.Session) {
				s.History = append(s.History, assistant.Turn{Role: "user", Content: "x"})
			})
		}()
	}
	wg.Wait()

	got, _ := store.Get("sess-1")
	assert.Len(t, got.History, 50)
}
