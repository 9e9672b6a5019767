package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SINTEF/sensapp-sub001/senml"
	"github.com/SINTEF/sensapp-sub001/topics"
)

// stubDispatcher validates like the real router but routes nowhere.
type stubDispatcher struct {
	ignored []string
	gotEnv  *senml.Envelope
}

func (d *stubDispatcher) Dispatch(ctx context.Context, env *senml.Envelope) ([]string, error) {
	if err := senml.Check(env); err != nil {
		return nil, err
	}
	d.gotEnv = env
	return d.ignored, nil
}

func newTestServer(t *testing.T, cfg Config, dispatcher Dispatcher, reg *topics.Registry) *Server {
	t.Helper()
	server, err := NewServer(cfg, dispatcher, reg)
	require.NoError(t, err)
	return server
}

func TestDispatchEndpointJSON(t *testing.T) {
	dispatcher := &stubDispatcher{ignored: []string{}}
	server := newTestServer(t, DefaultConfig(), dispatcher, nil)

	body := `{"bn":"x/","bu":"degC","bt":100,"e":[{"n":"in","v":20.2,"t":-20}]}`
	req := httptest.NewRequest(http.MethodPost, "/dispatch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/senml+json")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp dispatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Ignored)

	require.NotNil(t, dispatcher.gotEnv)
	assert.Equal(t, "x/", dispatcher.gotEnv.BasePrefix)
}

func TestDispatchEndpointXML(t *testing.T) {
	dispatcher := &stubDispatcher{}
	server := newTestServer(t, DefaultConfig(), dispatcher, nil)

	body := `<senml xmlns="urn:ietf:params:xml:ns:senml" bu="degC"><e n="in" v="20.2" t="80"/></senml>`
	req := httptest.NewRequest(http.MethodPost, "/dispatch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/senml+xml")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, dispatcher.gotEnv)
	assert.Equal(t, "degC", dispatcher.gotEnv.BaseUnit)
}

func TestDispatchEndpointReportsIgnoredSensors(t *testing.T) {
	dispatcher := &stubDispatcher{ignored: []string{"x/out"}}
	server := newTestServer(t, DefaultConfig(), dispatcher, nil)

	body := `{"bu":"degC","bt":1,"e":[{"n":"x/out","v":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/dispatch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dispatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"x/out"}, resp.Ignored)
}

func TestDispatchEndpointValidationFailure(t *testing.T) {
	server := newTestServer(t, DefaultConfig(), &stubDispatcher{}, nil)

	body := `{"e":[{"n":"myname","v":0.0}]}`
	req := httptest.NewRequest(http.MethodPost, "/dispatch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AllUnitsUndefined", resp.Code)
}

func TestDispatchEndpointMalformedBody(t *testing.T) {
	server := newTestServer(t, DefaultConfig(), &stubDispatcher{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/dispatch", strings.NewReader(`{"e":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatchEndpointMethodNotAllowed(t *testing.T) {
	server := newTestServer(t, DefaultConfig(), &stubDispatcher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/dispatch", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDispatchEndpointBodyTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRequestSize = 16
	server := newTestServer(t, cfg, &stubDispatcher{}, nil)

	body := `{"bu":"degC","e":[{"n":"a","v":1},{"n":"b","v":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/dispatch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDispatchEndpointRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 1
	cfg.RateBurst = 1
	server := newTestServer(t, cfg, &stubDispatcher{}, nil)

	body := `{"bu":"degC","bt":1,"e":[{"n":"a","v":1}]}`
	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/dispatch", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Contains(t, statuses, http.StatusTooManyRequests)
}

func TestDispatchEndpointPropagatesRequestID(t *testing.T) {
	server := newTestServer(t, DefaultConfig(), &stubDispatcher{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/dispatch",
		strings.NewReader(`{"bu":"degC","bt":1,"e":[{"n":"a","v":1}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-abc123")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-abc123", rec.Header().Get("X-Request-ID"))
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t, DefaultConfig(), &stubDispatcher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWebSocketIdentifyAndPush(t *testing.T) {
	reg := topics.NewRegistry()
	server := newTestServer(t, DefaultConfig(), &stubDispatcher{}, reg)

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(clientCommand{Type: "identify", Topic: "topic-1"}))

	// Identify is processed asynchronously by the read loop.
	require.Eventually(t, func() bool {
		return reg.TopicSize("topic-1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	delivered := reg.Deliver("topic-1", []byte(`{"e":[]}`))
	assert.Equal(t, 1, delivered)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"e":[]}`, string(payload))
}

func TestWebSocketDisconnectRemovesClient(t *testing.T) {
	reg := topics.NewRegistry()
	server := newTestServer(t, DefaultConfig(), &stubDispatcher{}, reg)

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(clientCommand{Type: "identify", Topic: "topic-1"}))
	require.Eventually(t, func() bool {
		return reg.Size() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return reg.Size() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Addr = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RateLimit = 5
	cfg.RateBurst = 0
	assert.Error(t, cfg.Validate())
}
