package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/fstsim/internal/adapters/airtime"
	"github.com/lcalzada-xor/fstsim/internal/adapters/simloop"
	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/services/device"
)

type stubStorage struct {
	recs map[string][]domain.TransitionRecord
	err  error
}

func (s *stubStorage) SaveTransition(rec domain.TransitionRecord) error { return nil }

func (s *stubStorage) TransitionsForRun(runID string) ([]domain.TransitionRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.recs[runID], nil
}

func (s *stubStorage) Close() error { return nil }

func newTestDevices(t *testing.T) []*device.MultiBandDevice {
	t.Helper()
	sched := simloop.New()
	medium := airtime.New(sched)

	devA := device.New("00:00:00:00:00:01", sched, medium)
	devB := device.New("00:00:00:00:00:02", sched, medium)
	for _, d := range []*device.MultiBandDevice{devA, devB} {
		require.NoError(t, d.AddTechnology(domain.Standard80211ad, domain.StationClient, true))
		require.NoError(t, d.AddTechnology(domain.Standard80211n5GHz, domain.StationClient, true))
		require.NoError(t, d.Start())
	}
	require.NoError(t, devA.EstablishSession("00:00:00:00:00:02", domain.Band4_9GHz, 0))
	sched.Run()
	return []*device.MultiBandDevice{devA, devB}
}

func TestHandleDevices(t *testing.T) {
	s := NewServer(":0", newTestDevices(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var views []DeviceView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&views))
	require.Len(t, views, 2)
	assert.Equal(t, domain.MacAddr("00:00:00:00:00:01"), views[0].Address)
	assert.Equal(t, "802.11n-5GHz", views[0].ActiveStandard)
	assert.Len(t, views[0].Standards, 2)
	require.Len(t, views[0].Sessions, 1)
	assert.Equal(t, "transition_confirmed", views[0].Sessions[0].State)
	assert.Equal(t, "initiator", views[0].Sessions[0].Role)
}

func TestHandleSessions(t *testing.T) {
	s := NewServer(":0", newTestDevices(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/devices/00:00:00:00:00:02/sessions", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var views []SessionView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, domain.MacAddr("00:00:00:00:00:01"), views[0].Peer)
	assert.Equal(t, "responder", views[0].Role)
}

func TestHandleSessions_UnknownDevice(t *testing.T) {
	s := NewServer(":0", newTestDevices(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/devices/aa:bb:cc:dd:ee:ff/sessions", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleTransitions(t *testing.T) {
	store := &stubStorage{recs: map[string][]domain.TransitionRecord{
		"run-1": {
			{RunID: "run-1", Device: "00:00:00:00:00:01", Event: "band_switch", SimTime: 340 * time.Microsecond},
		},
	}}
	s := NewServer(":0", nil, store)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1/transitions", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var recs []domain.TransitionRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "band_switch", recs[0].Event)
}

func TestHandleTransitions_NoStorage(t *testing.T) {
	s := NewServer(":0", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1/transitions", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(":0", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebSocketStream(t *testing.T) {
	s := NewServer(":0", nil, nil)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub a moment to register the client before publishing.
	require.Eventually(t, func() bool {
		s.Hub.mu.Lock()
		defer s.Hub.mu.Unlock()
		return len(s.Hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	s.Hub.Publish(domain.TransitionRecord{
		RunID:  "run-1",
		Device: "00:00:00:00:00:01",
		Event:  "setup_request_tx",
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "transition", msg.Type)
}
