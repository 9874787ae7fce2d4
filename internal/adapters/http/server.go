// Package http exposes a read-mostly JSON API over a running patch: module
// and connection introspection, the Mermaid graph, a reconcile trigger and
// Prometheus metrics.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

// Patch is the slice of the routing facade the server consumes.
type Patch interface {
	Modules() []module.Module
	Connections() []signal.Connection
	Sinks() map[int]signal.PortRef
	Reconcile() error
	Reconciles() int64
	Graph() string
}

// Server serves patch introspection.
type Server struct {
	patch  Patch
	logger *slog.Logger
}

// NewHandler creates the HTTP handler for a patch.
func NewHandler(patch Patch, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{patch: patch, logger: logger}

	r := chi.NewRouter()
	r.Get("/modules", s.getModules)
	r.Get("/connections", s.getConnections)
	r.Get("/sinks", s.getSinks)
	r.Get("/graph", s.getGraph)
	r.Post("/reconcile", s.postReconcile)
	r.Handle("/metrics", promhttp.HandlerFor(s.newRegistry(), promhttp.HandlerOpts{}))
	return r
}

// newRegistry builds a registry whose collectors read the patch live on each
// scrape, so no update hook is needed anywhere in the core.
func (s *Server) newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "patchbay_modules",
		Help: "Number of registered modules.",
	}, func() float64 { return float64(len(s.patch.Modules())) }))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "patchbay_connections",
		Help: "Number of connections in the patch.",
	}, func() float64 { return float64(len(s.patch.Connections())) }))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "patchbay_output_channels",
		Help: "Number of bound physical output channels.",
	}, func() float64 { return float64(len(s.patch.Sinks())) }))
	reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "patchbay_reconciles_total",
		Help: "Reconciliation passes since startup.",
	}, func() float64 { return float64(s.patch.Reconciles()) }))
	return reg
}

// moduleView is the wire shape of one module.
type moduleView struct {
	Name       string         `json:"name"`
	State      string         `json:"state"`
	Inputs     []portView     `json:"inputs"`
	Outputs    []portView     `json:"outputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type portView struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type connectionView struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Type        string `json:"type"`
}

type sinkView struct {
	Channel int    `json:"channel"`
	Source  string `json:"source"`
}

func (s *Server) getModules(w http.ResponseWriter, r *http.Request) {
	mods := s.patch.Modules()
	views := make([]moduleView, 0, len(mods))
	for _, m := range mods {
		v := moduleView{
			Name:    m.Name(),
			State:   string(m.State()),
			Inputs:  portViews(m.Inputs()),
			Outputs: portViews(m.Outputs()),
		}
		if p, ok := m.(interface{ Parameters() map[string]any }); ok {
			v.Parameters = p.Parameters()
		}
		views = append(views, v)
	}
	s.writeJSON(w, views)
}

func (s *Server) getConnections(w http.ResponseWriter, r *http.Request) {
	conns := s.patch.Connections()
	views := make([]connectionView, 0, len(conns))
	for _, c := range conns {
		views = append(views, connectionView{
			Source:      c.Source.String(),
			Destination: c.Destination.String(),
			Type:        string(c.Type),
		})
	}
	s.writeJSON(w, views)
}

func (s *Server) getSinks(w http.ResponseWriter, r *http.Request) {
	sinks := s.patch.Sinks()
	views := make([]sinkView, 0, len(sinks))
	for ch, src := range sinks {
		views = append(views, sinkView{Channel: ch, Source: src.String()})
	}
	s.writeJSON(w, views)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(s.patch.Graph())); err != nil {
		s.logger.Error("graph write failed", "error", err)
	}
}

func (s *Server) postReconcile(w http.ResponseWriter, r *http.Request) {
	if err := s.patch.Reconcile(); err != nil {
		s.logger.Error("reconcile failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]int64{"reconciles": s.patch.Reconciles()})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func portViews(ports []signal.Port) []portView {
	out := make([]portView, 0, len(ports))
	for _, p := range ports {
		out = append(out, portView{Name: p.Name, Type: string(p.Type)})
	}
	return out
}
