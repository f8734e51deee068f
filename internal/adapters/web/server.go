// Package web serves the simulator's status API and the live transition
// stream: device and session snapshots, the persisted audit log of a run,
// Prometheus metrics and a websocket feed.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/ports"
	"github.com/lcalzada-xor/fstsim/internal/core/services/device"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr    string
	Devices []*device.MultiBandDevice
	Storage ports.Storage
	Hub     *Hub
	srv     *http.Server
}

// NewServer creates a new web server over the given devices. storage may be
// nil when the run is not persisted.
func NewServer(addr string, devices []*device.MultiBandDevice, storage ports.Storage) *Server {
	return &Server{
		Addr:    addr,
		Devices: devices,
		Storage: storage,
		Hub:     NewHub(),
	}
}

// DeviceView is the JSON shape of one device in the status API.
type DeviceView struct {
	Address        domain.MacAddr `json:"address"`
	ActiveStandard string         `json:"active_standard"`
	Standards      []string       `json:"standards"`
	Sessions       []SessionView  `json:"sessions"`
}

// SessionView is the JSON shape of one FST session.
type SessionView struct {
	Peer       domain.MacAddr `json:"peer"`
	ID         uint32         `json:"id"`
	Role       string         `json:"role"`
	State      string         `json:"state"`
	TargetBand string         `json:"target_band"`
	LLT        uint32         `json:"llt"`
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/devices", s.handleDevices).Methods(http.MethodGet)
	r.HandleFunc("/api/devices/{addr}/sessions", s.handleSessions).Methods(http.MethodGet)
	r.HandleFunc("/api/runs/{id}/transitions", s.handleTransitions).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.Hub.HandleWebSocket)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	// Instrument with OpenTelemetry
	instrumentedHandler := otelhttp.NewHandler(s.Router(), "fstsim-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumentedHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Web Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web Server shutdown error: %v", err)
		}
		s.Hub.Close()
	}()

	log.Printf("Web server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	views := make([]DeviceView, 0, len(s.Devices))
	for _, d := range s.Devices {
		views = append(views, deviceView(d))
	}
	writeJSON(w, views)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	addr := domain.MacAddr(mux.Vars(r)["addr"])
	for _, d := range s.Devices {
		if d.Address() == addr {
			writeJSON(w, sessionViews(d))
			return
		}
	}
	http.Error(w, "unknown device", http.StatusNotFound)
}

func (s *Server) handleTransitions(w http.ResponseWriter, r *http.Request) {
	if s.Storage == nil {
		http.Error(w, "no storage configured", http.StatusNotFound)
		return
	}
	recs, err := s.Storage.TransitionsForRun(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, recs)
}

func deviceView(d *device.MultiBandDevice) DeviceView {
	standards := d.Registry().Standards()
	names := make([]string, len(standards))
	for i, std := range standards {
		names[i] = std.String()
	}
	return DeviceView{
		Address:        d.Address(),
		ActiveStandard: d.ActiveStandard().String(),
		Standards:      names,
		Sessions:       sessionViews(d),
	}
}

func sessionViews(d *device.MultiBandDevice) []SessionView {
	snapshot := d.Sessions()
	views := make([]SessionView, 0, len(snapshot))
	for peer, sess := range snapshot {
		views = append(views, SessionView{
			Peer:       peer,
			ID:         sess.ID,
			Role:       sess.Role.String(),
			State:      sess.State.String(),
			TargetBand: sess.TargetBand.String(),
			LLT:        sess.LLT,
		})
	}
	return views
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}
