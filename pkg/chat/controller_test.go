package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, handler http.HandlerFunc) (*Controller, *Store, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	store := NewStore()
	client := NewClient(srv.URL, time.Second, time.Second)
	return NewController(store, client, "Esita", "the Esita team", 10), store, &calls
}

func replyWith(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{Reply: text})
	}
}

func TestSendCannedCreator(t *testing.T) {
	c, store, calls := newTestController(t, replyWith("unused"))

	c.Send(context.Background(), "who made you?")

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "who made you?", msgs[0].Text)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Contains(t, msgs[1].Text, "the Esita team")
	assert.Equal(t, int32(0), atomic.LoadInt32(calls), "canned replies must not hit the network")
	assert.False(t, c.Sending())
}

func TestSendCannedIdentity(t *testing.T) {
	c, store, calls := newTestController(t, replyWith("unused"))

	c.Send(context.Background(), "what is your name?")

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Text, "Esita")
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestSendEmptyInputIsNoOp(t *testing.T) {
	c, store, calls := newTestController(t, replyWith("unused"))

	c.Send(context.Background(), "   ")

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestSendSuccess(t *testing.T) {
	c, store, _ := newTestController(t, replyWith("Hi there!"))
	store.Append(RoleAssistant, "greeting")
	before := store.Len()

	c.Send(context.Background(), "hello")

	msgs := store.Messages()
	require.Len(t, msgs, before+2)
	assert.Equal(t, "Hi there!", msgs[len(msgs)-1].Text)
	assert.Equal(t, RoleAssistant, msgs[len(msgs)-1].Role)
	assert.True(t, c.Online())
	assert.False(t, c.Sending())
}

func TestSendTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	store := NewStore()
	client := NewClient(srv.URL, 50*time.Millisecond, time.Second)
	c := NewController(store, client, "Esita", "the Esita team", 10)

	c.Send(context.Background(), "hello")

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, timeoutReply, msgs[1].Text)
	assert.False(t, c.Online())
	assert.False(t, c.Sending())
}

func TestSendNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	store := NewStore()
	c := NewController(store, NewClient(url, time.Second, time.Second), "Esita", "the Esita team", 10)

	c.Send(context.Background(), "hello")

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, networkReply, msgs[1].Text)
	assert.False(t, c.Online())
}

func TestSendServerError(t *testing.T) {
	c, store, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"db down"}`))
	})

	c.Send(context.Background(), "hello")

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Text, "db down")
	assert.True(t, strings.HasPrefix(msgs[1].Text, errorMarkPrefix))
	assert.False(t, c.Online())
	assert.False(t, c.Sending())
}

func TestSendEmptyReplyKeepsOnline(t *testing.T) {
	c, store, _ := newTestController(t, replyWith(""))

	c.Send(context.Background(), "hello")

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, emptyReply, msgs[1].Text)
	assert.True(t, c.Online(), "transport succeeded, connectivity stays online")
}

func TestSendWhileSendingIsDropped(t *testing.T) {
	release := make(chan struct{})
	c, store, calls := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		json.NewEncoder(w).Encode(ChatResponse{Reply: "done"})
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Send(context.Background(), "first")
	}()

	require.Eventually(t, func() bool {
		return c.Sending() && store.Len() == 1
	}, time.Second, 5*time.Millisecond)
	lenDuring := store.Len()

	// Both a network-bound and a canned send must be dropped mid-flight.
	c.Send(context.Background(), "second")
	c.Send(context.Background(), "who made you?")

	assert.Equal(t, lenDuring, store.Len())
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	close(release)
	wg.Wait()

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "done", msgs[1].Text)
	assert.False(t, c.Sending())
}

func TestSendHistoryWindow(t *testing.T) {
	var got ChatRequest
	c, store, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(ChatResponse{Reply: "ok"})
	})

	for i := 0; i < 24; i++ {
		store.Append(RoleAssistant, "padding")
	}

	c.Send(context.Background(), "the newest message")

	require.Len(t, got.History, 10, "outgoing history must never exceed the window")
	assert.Equal(t, "the newest message", got.History[9].Text,
		"window includes the just-appended user turn")
	assert.Equal(t, "user", got.History[9].Role)
}

func TestProbeSetsConnectivity(t *testing.T) {
	c, _, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	assert.False(t, c.Online())
	c.Probe(context.Background())
	assert.True(t, c.Online())
}

func TestProbeFailureSetsOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewController(NewStore(), NewClient(url, time.Second, time.Second), "Esita", "the Esita team", 10)
	c.Probe(context.Background())
	assert.False(t, c.Online())
}
