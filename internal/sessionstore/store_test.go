package sessionstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formpilotai/formpilot/internal/formctx"
)

func testFormContext() *formctx.FormContext {
	return &formctx.FormContext{
		Title:          "Leave Request",
		RequiredFields: []string{"leave_type"},
		FieldTypes:     map[string]formctx.FieldType{"leave_type": formctx.FieldDropdown},
		Schema: &formctx.FormSchema{
			FormID: "leave_request",
			Fields: []formctx.FormField{
				{ID: "leave_type", Type: formctx.FieldDropdown, Required: true, Options: []string{"Annual", "Sick"}},
			},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	store := New(time.Minute)
	sess := store.Create("", "leave_request.md", testFormContext())
	require.NotEmpty(t, sess.ConversationID)

	got, ok := store.Get(sess.ConversationID)
	require.True(t, ok)
	assert.Equal(t, sess.ConversationID, got.ConversationID)
}

func TestGet_ExpiredSessionEvicted(t *testing.T) {
	store := New(time.Millisecond)
	sess := store.Create("", "leave_request.md", testFormContext())
	time.Sleep(5 * time.Millisecond)

	_, ok := store.Get(sess.ConversationID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Count())
}

func TestDelete(t *testing.T) {
	store := New(time.Minute)
	sess := store.Create("", "leave_request.md", testFormContext())

	assert.True(t, store.Delete(sess.ConversationID))
	assert.False(t, store.Delete(sess.ConversationID))
}

func TestCleanupExpired_RemovesOnlyExpired(t *testing.T) {
	store := New(10 * time.Millisecond)
	fresh := store.Create("fresh", "leave_request.md", testFormContext())
	stale := store.Create("stale", "leave_request.md", testFormContext())

	// Simulate the stale session having gone idle.
	store.mu.Lock()
	store.sessions["stale"].LastAccessed = time.Now().Add(-time.Hour)
	store.mu.Unlock()

	removed := store.CleanupExpired()
	assert.Equal(t, 1, removed)

	_, ok := store.Get(fresh.ConversationID)
	assert.True(t, ok)
	_, ok = store.Get(stale.ConversationID)
	assert.False(t, ok)
}

func TestLockUnlock_SerializesPerConversation(t *testing.T) {
	store := New(time.Minute)
	store.Lock("abc")
	done := make(chan struct{})
	go func() {
		store.Lock("abc")
		store.Unlock("abc")
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second Lock should have blocked until Unlock")
	case <-time.After(20 * time.Millisecond):
	}
	store.Unlock("abc")
	<-done
}
