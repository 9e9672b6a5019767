package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SINTEF/sensapp-sub001/errors"
	"github.com/SINTEF/sensapp-sub001/senml"
	"github.com/SINTEF/sensapp-sub001/topics"
)

func testRecords() []senml.Record {
	return []senml.Record{
		{Name: "x/in", Unit: "degC", Time: 80, Value: senml.NumberValue(20.2)},
	}
}

func TestSubscriptionValidate(t *testing.T) {
	tests := []struct {
		name    string
		sub     Subscription
		wantErr bool
	}{
		{"http with hook", Subscription{SensorID: "s1", Hooks: []string{"http://h1"}}, false},
		{"explicit http", Subscription{SensorID: "s1", Protocol: ProtocolHTTP, Hooks: []string{"http://h1"}}, false},
		{"websocket with topic", Subscription{SensorID: "s1", Protocol: ProtocolWebSocket, TopicID: "t1"}, false},
		{"missing sensor id", Subscription{Hooks: []string{"http://h1"}}, true},
		{"http without hooks", Subscription{SensorID: "s1"}, true},
		{"websocket without topic", Subscription{SensorID: "s1", Protocol: ProtocolWebSocket}, true},
		{"unknown protocol", Subscription{SensorID: "s1", Protocol: "smtp", Hooks: []string{"x"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sub.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, errors.ErrSubscriptionNotFound)

	sub := Subscription{SensorID: "s1", Hooks: []string{"http://h1"}}
	require.NoError(t, store.Put(ctx, sub))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	// Replace
	sub.Hooks = []string{"http://h1", "http://h2"}
	require.NoError(t, store.Put(ctx, sub))
	got, _ = store.Get(ctx, "s1")
	assert.Len(t, got.Hooks, 2)

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.ErrorIs(t, store.Delete(ctx, "s1"), errors.ErrSubscriptionNotFound)
}

func TestHTTPStrategyDeliversToAllHooks(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/senml+json", r.Header.Get("Content-Type"))
	}))
	defer server.Close()

	strategy := NewHTTPStrategy(DefaultHTTPStrategyConfig(), nil, nil)
	sub := Subscription{
		SensorID: "s1",
		Hooks:    []string{server.URL + "/a", server.URL + "/b", server.URL + "/c"},
	}

	require.NoError(t, strategy.Deliver(context.Background(), sub, []byte(`{"e":[]}`)))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestHTTPStrategyHookFailureIsIndependent(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	strategy := NewHTTPStrategy(DefaultHTTPStrategyConfig(), nil, nil)
	sub := Subscription{
		SensorID: "s1",
		Hooks:    []string{"http://127.0.0.1:1/dead", server.URL},
	}

	// The dead hook yields an informational error, the live hook is
	// still attempted.
	err := strategy.Deliver(context.Background(), sub, []byte(`{}`))
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHTTPStrategyNon2xxIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	strategy := NewHTTPStrategy(DefaultHTTPStrategyConfig(), nil, nil)
	sub := Subscription{SensorID: "s1", Hooks: []string{server.URL}}
	assert.Error(t, strategy.Deliver(context.Background(), sub, []byte(`{}`)))
}

func TestWebSocketStrategyDelivers(t *testing.T) {
	reg := topics.NewRegistry()
	conn := &recordingConn{}
	reg.Identify(conn, "topic-1")

	strategy := NewWebSocketStrategy(reg, nil, nil)
	sub := Subscription{SensorID: "s1", Protocol: ProtocolWebSocket, TopicID: "topic-1"}

	require.NoError(t, strategy.Deliver(context.Background(), sub, []byte(`{"e":[]}`)))
	assert.Equal(t, 1, conn.count())

	// No clients on the topic is a quiet no-op.
	empty := Subscription{SensorID: "s2", Protocol: ProtocolWebSocket, TopicID: "nobody"}
	assert.NoError(t, strategy.Deliver(context.Background(), empty, []byte(`{}`)))
}

func TestNotifierDeliversToSubscribedHooks(t *testing.T) {
	received := make(chan []byte, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
	}))
	defer server.Close()

	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), Subscription{
		SensorID: "x/in",
		Hooks:    []string{server.URL},
	}))

	httpStrategy := NewHTTPStrategy(DefaultHTTPStrategyConfig(), nil, nil)
	notifier := NewNotifier(DefaultNotifierConfig(), store, httpStrategy, nil, nil)
	require.NoError(t, notifier.Start(context.Background()))
	defer func() { _ = notifier.Stop(2 * time.Second) }()

	notifier.Notify(context.Background(), "x/in", testRecords())

	select {
	case payload := <-received:
		env, err := senml.DecodeJSON(payload)
		require.NoError(t, err)
		records := senml.Canonicalize(env)
		require.Len(t, records, 1)
		assert.Equal(t, "x/in", records[0].Name)
	case <-time.After(3 * time.Second):
		t.Fatal("notification never arrived")
	}
}

func TestNotifierNoSubscriptionIsNoop(t *testing.T) {
	httpStrategy := NewHTTPStrategy(DefaultHTTPStrategyConfig(), nil, nil)
	notifier := NewNotifier(DefaultNotifierConfig(), NewMemoryStore(), httpStrategy, nil, nil)
	require.NoError(t, notifier.Start(context.Background()))
	defer func() { _ = notifier.Stop(time.Second) }()

	// Must not panic, log-and-drop only.
	notifier.Notify(context.Background(), "unsubscribed", testRecords())
}

func TestNotifierAbsorbsDeliveryFailure(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), Subscription{
		SensorID: "x/in",
		Hooks:    []string{"http://127.0.0.1:1/dead"},
	}))

	httpStrategy := NewHTTPStrategy(HTTPStrategyConfig{Timeout: 1}, nil, nil)
	notifier := NewNotifier(DefaultNotifierConfig(), store, httpStrategy, nil, nil)
	require.NoError(t, notifier.Start(context.Background()))

	notifier.Notify(context.Background(), "x/in", testRecords())
	assert.NoError(t, notifier.Stop(5*time.Second))
}

// recordingConn implements topics.Conn for strategy tests.
type recordingConn struct {
	writes atomic.Int32
}

func (c *recordingConn) WriteMessage(messageType int, data []byte) error {
	c.writes.Add(1)
	return nil
}

func (c *recordingConn) SetWriteDeadline(t time.Time) error { return nil }
func (c *recordingConn) Close() error                       { return nil }
func (c *recordingConn) count() int                         { return int(c.writes.Load()) }
