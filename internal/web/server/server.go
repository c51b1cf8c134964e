// Package server exposes a loaded annotation registry over a read-only HTTP
// API: registered types, their mapping graphs, and merged-annotation
// resolution for declared elements.
package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/annokit/annokit/annotation"
	"github.com/annokit/annokit/errors"
	"github.com/annokit/annokit/internal/defs"
	"github.com/annokit/annokit/mapping"
	"github.com/annokit/annokit/search"
)

// Config holds inspection server configuration
type Config struct {
	// Address is the listen address (e.g. "localhost:8420")
	Address string

	// Registry holds the annotation types to serve. Required.
	Registry *annotation.Registry

	// Document supplies the declarations for /declarations endpoints.
	// Optional; without it only type endpoints answer.
	Document *defs.Document

	// Filter excludes annotation namespaces from graph traversal
	Filter mapping.Filter

	// Logger for request logging. Defaults to zap.NewNop.
	Logger *zap.Logger

	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
}

// DefaultConfig returns a production-ready configuration around the registry
func DefaultConfig(reg *annotation.Registry) *Config {
	return &Config{
		Address:           "localhost:8420",
		Registry:          reg,
		Filter:            mapping.FilterReserved,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Server is the inspection HTTP server
type Server struct {
	httpServer *http.Server
	config     *Config
	logger     *zap.Logger
	listener   net.Listener
}

// New creates the inspection server
func New(config *Config) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("server config cannot be nil")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{config: config, logger: logger}
	s.httpServer = &http.Server{
		Addr:              config.Address,
		Handler:           s.routes(),
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}
	return s, nil
}

// Handler returns the router for testing and embedding
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}

// ListenAndServe starts serving and blocks until the server closes
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener
	s.logger.Info("inspection server listening", zap.String("address", s.Addr()))
	return s.httpServer.Serve(listener)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/types", s.handleListTypes)
		r.Get("/types/{name}", s.handleType)
		r.Get("/types/{name}/graph", s.handleGraph)
		r.Get("/declarations", s.handleListDeclarations)
		r.Get("/declarations/{name}/annotations/{type}", s.handleResolve)
	})
	return r
}

type typeSummary struct {
	Name       string `json:"name"`
	Attributes int    `json:"attributes"`
	Metas      int    `json:"metas"`
	Aliases    int    `json:"aliases"`
	Container  bool   `json:"container,omitempty"`
}

func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	names := s.config.Registry.TypeNames()
	out := make([]typeSummary, 0, len(names))
	for _, name := range names {
		t := s.config.Registry.TypeOf(name)
		out = append(out, typeSummary{
			Name:       t.Name(),
			Attributes: t.Attributes().Len(),
			Metas:      len(t.MetaAnnotations()),
			Aliases:    len(t.AliasDeclarations()),
			Container:  t.IsContainer(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type attributeDetail struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
}

type typeDetail struct {
	Name          string                        `json:"name"`
	Attributes    []attributeDetail             `json:"attributes"`
	Aliases       []annotation.AliasDeclaration `json:"aliases,omitempty"`
	Metas         []string                      `json:"metas,omitempty"`
	ContainedType string                        `json:"contained_type,omitempty"`
}

func (s *Server) handleType(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t := s.config.Registry.TypeOf(name)
	if t == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("annotation type %q is not registered", name))
		return
	}

	detail := typeDetail{
		Name:          t.Name(),
		Aliases:       t.AliasDeclarations(),
		ContainedType: t.ContainedType(),
	}
	attrs := t.Attributes()
	for i := 0; i < attrs.Len(); i++ {
		attr := attrs.At(i)
		detail.Attributes = append(detail.Attributes, attributeDetail{
			Name:    attr.Name,
			Type:    attr.Type.String(),
			Default: attr.Default,
		})
	}
	for _, meta := range t.MetaAnnotations() {
		detail.Metas = append(detail.Metas, meta.Type)
	}
	writeJSON(w, http.StatusOK, detail)
}

type graphNode struct {
	Type          string `json:"type"`
	Distance      int    `json:"distance"`
	Source        string `json:"source,omitempty"`
	Synthesizable bool   `json:"synthesizable"`
	MirrorSets    int    `json:"mirror_sets,omitempty"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	graph, err := mapping.ForType(s.config.Registry, name, s.config.Filter, nil)
	if err != nil {
		writeResolutionError(w, err)
		return
	}

	out := make([]graphNode, 0, graph.Len())
	for i := 0; i < graph.Len(); i++ {
		node := graph.Get(i)
		gn := graphNode{
			Type:          node.Type().Name(),
			Distance:      node.Distance(),
			Synthesizable: node.Synthesizable(),
			MirrorSets:    node.Mirrors().Len(),
		}
		if node.Source() != nil {
			gn.Source = node.Source().Type().Name()
		}
		out = append(out, gn)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListDeclarations(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if s.config.Document != nil {
		names = s.config.Document.DeclarationNames()
	}
	writeJSON(w, http.StatusOK, names)
}

type resolution struct {
	Declaration string         `json:"declaration"`
	Type        string         `json:"type"`
	Distance    int            `json:"distance"`
	Aggregate   int            `json:"aggregate"`
	Values      map[string]any `json:"values"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	declName := chi.URLParam(r, "name")
	typeName := chi.URLParam(r, "type")

	if s.config.Document == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("no declarations loaded"))
		return
	}
	decl := s.config.Document.Declaration(declName)
	if decl == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("declaration %q is not defined", declName))
		return
	}

	anns := search.From(s.config.Registry, decl, search.StrategyHierarchy,
		search.WithFilter(s.config.Filter),
		search.WithLogger(s.logger))
	view, err := anns.Get(typeName)
	if err != nil {
		writeResolutionError(w, err)
		return
	}
	if view == nil {
		writeError(w, http.StatusNotFound,
			fmt.Errorf("annotation %q is not present on %q", typeName, declName))
		return
	}

	values, err := view.Synthesize()
	if err != nil {
		writeResolutionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolution{
		Declaration: declName,
		Type:        typeName,
		Distance:    view.Distance(),
		Aggregate:   view.AggregateIndex(),
		Values:      values,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeResolutionError maps configuration errors to 422 with their
// structured body; anything else is a 500.
func writeResolutionError(w http.ResponseWriter, err error) {
	if cfg := errors.AsConfig(err); cfg != nil {
		writeJSON(w, http.StatusUnprocessableEntity, cfg)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}
