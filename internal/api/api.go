// Package api exposes the address codec over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pinch-protocol/ss58/internal/convert"
	"github.com/pinch-protocol/ss58/internal/hub"
	"github.com/pinch-protocol/ss58/internal/registry"
	"github.com/pinch-protocol/ss58/internal/store"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 16

// Server holds the collaborators behind the HTTP routes.
type Server struct {
	svc      *convert.Service
	builtin  *registry.Table
	networks *store.NetworkStore
	hub      *hub.Hub
	gatherer prometheus.Gatherer
	ctx      context.Context
}

// Config lists the collaborators. Networks, Hub and Gatherer are optional;
// their routes answer 404 when unset.
type Config struct {
	Service  *convert.Service
	Builtin  *registry.Table
	Networks *store.NetworkStore
	Hub      *hub.Hub
	Gatherer prometheus.Gatherer
}

// NewRouter builds the chi router. serverCtx bounds WebSocket sessions.
func NewRouter(serverCtx context.Context, cfg Config) http.Handler {
	s := &Server{
		svc:      cfg.Service,
		builtin:  cfg.Builtin,
		networks: cfg.Networks,
		hub:      cfg.Hub,
		gatherer: cfg.Gatherer,
		ctx:      serverCtx,
	}
	if s.svc == nil {
		s.svc = convert.New()
	}
	if s.builtin == nil {
		s.builtin = registry.Builtin()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.hub != nil {
		r.Get("/ws", s.websocket)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/encode", s.encode)
		r.Post("/decode", s.decode)
		r.Post("/convert", s.convert)
		r.Get("/networks", s.listNetworks)
		r.Get("/networks/{prefix}", s.getNetwork)
		if s.networks != nil {
			r.Put("/networks/{prefix}", s.putNetwork)
			r.Delete("/networks/{prefix}", s.deleteNetwork)
		}
	})
	return r
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}

// writeCodecError maps codec failures to 422 and anything else to 500.
func writeCodecError(w http.ResponseWriter, err error) {
	kind := convert.ErrorKind(err)
	status := http.StatusUnprocessableEntity
	if kind == "internal" {
		status = http.StatusInternalServerError
	}
	writeError(w, status, kind, err)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return false
	}
	return true
}

func (s *Server) encode(w http.ResponseWriter, r *http.Request) {
	var req convert.EncodeRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Encode(req)
	if err != nil {
		writeCodecError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) {
	var req convert.DecodeRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Decode(req)
	if err != nil {
		writeCodecError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	var req convert.ConvertRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Convert(req)
	if err != nil {
		writeCodecError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type networkView struct {
	registry.Network
	Custom bool `json:"custom"`
}

func (s *Server) listNetworks(w http.ResponseWriter, r *http.Request) {
	out := make([]networkView, 0)
	for _, n := range s.builtin.Networks() {
		out = append(out, networkView{Network: n})
	}
	if s.networks != nil {
		custom, err := s.networks.List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err)
			return
		}
		for _, n := range custom {
			out = append(out, networkView{Network: n, Custom: true})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func prefixParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	prefix, err := strconv.Atoi(chi.URLParam(r, "prefix"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return 0, false
	}
	return prefix, true
}

func (s *Server) getNetwork(w http.ResponseWriter, r *http.Request) {
	prefix, ok := prefixParam(w, r)
	if !ok {
		return
	}
	if s.networks != nil {
		if n, ok := s.networks.Lookup(prefix); ok {
			writeJSON(w, http.StatusOK, networkView{Network: n, Custom: true})
			return
		}
	}
	if n, ok := s.builtin.Lookup(prefix); ok {
		writeJSON(w, http.StatusOK, networkView{Network: n})
		return
	}
	writeError(w, http.StatusNotFound, "not_found", registry.ErrUnknownNetwork)
}

func (s *Server) putNetwork(w http.ResponseWriter, r *http.Request) {
	prefix, ok := prefixParam(w, r)
	if !ok {
		return
	}
	var n registry.Network
	if !readJSON(w, r, &n) {
		return
	}
	n.Prefix = prefix
	if _, builtin := s.builtin.Lookup(prefix); builtin {
		writeError(w, http.StatusConflict, "conflict", registry.ErrDuplicateNetwork)
		return
	}
	if err := s.networks.Put(n); err != nil {
		if errors.Is(err, registry.ErrInvalidNetwork) || errors.Is(err, store.ErrReservedPrefix) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_network", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	slog.Info("network registered", "prefix", prefix, "network", n.Network)
	writeJSON(w, http.StatusOK, networkView{Network: n, Custom: true})
}

func (s *Server) deleteNetwork(w http.ResponseWriter, r *http.Request) {
	prefix, ok := prefixParam(w, r)
	if !ok {
		return
	}
	if err := s.networks.Delete(prefix); err != nil {
		if errors.Is(err, store.ErrNetworkNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	slog.Info("network removed", "prefix", prefix)
	w.WriteHeader(http.StatusNoContent)
}

// health reports the goroutine and session counts.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]int{
		"goroutines": runtime.NumGoroutine(),
	}
	if s.hub != nil {
		status["sessions"] = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, status)
}

// websocket upgrades the request and starts a conversion session.
func (s *Server) websocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}

	client := hub.NewClient(s.hub, conn, s.ctx)
	s.hub.Register(client)

	go client.ReadPump()
	go client.WritePump()
	go client.HeartbeatLoop()
}
