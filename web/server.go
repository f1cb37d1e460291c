// Package web provides a REST API server over a single L5X project file.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"

	"l5xkit/project"
	"l5xkit/tag"
)

// Options configures the API server.
type Options struct {
	Host     string
	Port     int
	ReadOnly bool // Reject mutations and never write the file back
	Watch    bool // Reload the project when the file changes on disk
}

// Server is the REST API server. It owns the loaded project; every handler
// takes the project lock so concurrent reads and reloads do not interleave.
type Server struct {
	path    string
	opts    Options
	proj    *project.Project
	server  *http.Server
	watcher *fsnotify.Watcher
	running bool
	mu      sync.RWMutex
}

// NewServer loads the project file and prepares a server for it.
func NewServer(path string, opts Options) (*Server, error) {
	proj, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Port == 0 {
		opts.Port = 8085
	}
	return &Server{path: path, opts: opts, proj: proj}, nil
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the server address.
func (s *Server) Address() string {
	return fmt.Sprintf("http://%s:%d", s.opts.Host, s.opts.Port)
}

// Start begins the HTTP server and, when configured, the file watcher.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: corsMiddleware(s.Routes()),
	}

	if s.opts.Watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		if err := w.Add(s.path); err != nil {
			w.Close()
			return fmt.Errorf("failed to watch %s: %w", s.path, err)
		}
		s.watcher = w
		go s.watchLoop(w)
	}

	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			debugLog("server stopped: %v", err)
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}
	}()

	s.running = true
	debugLog("serving %s on %s", s.path, addr)
	return nil
}

// Stop halts the HTTP server and the watcher.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.server == nil {
		return nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.running = false
	s.server = nil
	return err
}

// watchLoop reloads the project when the file changes on disk. Edits made
// through the API are persisted through the same path, so a reload after our
// own write is harmless.
func (s *Server) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			proj, err := project.Load(s.path)
			if err != nil {
				debugLog("reload of %s failed: %v", s.path, err)
				continue
			}
			s.mu.Lock()
			s.proj = proj
			s.mu.Unlock()
			debugLog("reloaded %s", s.path)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			debugLog("watcher error: %v", err)
		}
	}
}

// Routes builds the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/project", s.handleProject)
		r.Get("/tags", s.handleListTags)
		r.Get("/datatypes", s.handleDataTypes)
		r.Get("/programs", s.handlePrograms)
		r.Route("/tags/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetTag)
			r.Put("/", s.handleSetTag)
			r.Get("/description", s.handleGetDescription)
			r.Put("/description", s.handleSetDescription)
			r.Delete("/description", s.handleClearDescription)
		})
	})
	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// statusFor maps core error kinds onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tag.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tag.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, tag.ErrNotApplicable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tag.ErrType),
		errors.Is(err, tag.ErrRange),
		errors.Is(err, tag.ErrDomain),
		errors.Is(err, project.ErrInvalidFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

const programPrefix = "Program:"

// resolveTag finds a tag by its scoped name. Controller tags use the bare
// tag name; program tags use the Logix-style "Program:Name.Tag" form.
func (s *Server) resolveTag(name string) (*tag.Tag, error) {
	if strings.HasPrefix(name, programPrefix) {
		rest := strings.TrimPrefix(name, programPrefix)
		prog, tagName, ok := strings.Cut(rest, ".")
		if !ok {
			return nil, fmt.Errorf("program tag name %q needs a Program:Name.Tag form: %w", name, tag.ErrDomain)
		}
		scope, err := s.proj.Program(prog)
		if err != nil {
			return nil, err
		}
		return scope.Tag(tagName)
	}
	scope, err := s.proj.Controller()
	if err != nil {
		return nil, err
	}
	return scope.Tag(name)
}

// persist writes the project back to its file after a successful mutation.
func (s *Server) persist() error {
	if s.opts.ReadOnly {
		return nil
	}
	return s.proj.Write(s.path)
}

// ProjectResponse is the JSON response for project metadata.
type ProjectResponse struct {
	TargetName     string `json:"target_name"`
	TargetType     string `json:"target_type"`
	SchemaRevision string `json:"schema_revision"`
	Controller     string `json:"controller"`
	ReadOnly       bool   `json:"read_only"`
	TagCount       int    `json:"tag_count"`
	ProgramCount   int    `json:"program_count"`
	DataTypeCount  int    `json:"data_type_count"`
}

// TagSummary is one entry in the tag list.
type TagSummary struct {
	Name     string `json:"name"`
	Scope    string `json:"scope"`
	TagType  string `json:"tag_type"`
	DataType string `json:"data_type,omitempty"`
	AliasFor string `json:"alias_for,omitempty"`
}

// TagResponse is the JSON response for a single tag.
type TagResponse struct {
	Name        string      `json:"name"`
	TagType     string      `json:"tag_type"`
	DataType    string      `json:"data_type,omitempty"`
	AliasFor    string      `json:"alias_for,omitempty"`
	Value       interface{} `json:"value,omitempty"`
	Description string      `json:"description,omitempty"`
	Error       string      `json:"error,omitempty"`
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tagCount := 0
	if scope, err := s.proj.Controller(); err == nil {
		tagCount = len(scope.TagNames())
	}
	writeJSON(w, ProjectResponse{
		TargetName:     s.proj.TargetName(),
		TargetType:     s.proj.TargetType(),
		SchemaRevision: s.proj.SchemaRevision(),
		Controller:     s.proj.ControllerName(),
		ReadOnly:       s.opts.ReadOnly,
		TagCount:       tagCount,
		ProgramCount:   len(s.proj.ProgramNames()),
		DataTypeCount:  len(s.proj.TypeNames()),
	})
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []TagSummary{}
	if scope, err := s.proj.Controller(); err == nil {
		out = append(out, scopeSummaries(scope, "controller", "")...)
	}
	for _, prog := range s.proj.ProgramNames() {
		scope, err := s.proj.Program(prog)
		if err != nil {
			continue
		}
		out = append(out, scopeSummaries(scope, prog, programPrefix+prog+".")...)
	}
	writeJSON(w, out)
}

func scopeSummaries(scope *tag.Scope, scopeName, prefix string) []TagSummary {
	var out []TagSummary
	for _, name := range scope.TagNames() {
		tg, err := scope.Tag(name)
		if err != nil {
			continue
		}
		out = append(out, TagSummary{
			Name:     prefix + name,
			Scope:    scopeName,
			TagType:  tg.TagType(),
			DataType: tg.DataType(),
			AliasFor: tg.AliasFor(),
		})
	}
	return out
}

func (s *Server) handleDataTypes(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]tag.Member)
	for _, name := range s.proj.TypeNames() {
		if members, ok := s.proj.TypeMembers(name); ok {
			out[name] = members
		}
	}
	writeJSON(w, out)
}

func (s *Server) handlePrograms(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := s.proj.ProgramNames()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, names)
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name := chi.URLParam(r, "name")
	tg, err := s.resolveTag(name)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := TagResponse{
		Name:     name,
		TagType:  tg.TagType(),
		DataType: tg.DataType(),
		AliasFor: tg.AliasFor(),
	}
	if text, ok := tg.Description(); ok {
		resp.Description = text
	}
	if v, err := tg.Value(); err == nil {
		resp.Value = v
	} else if !errors.Is(err, tag.ErrNotApplicable) {
		resp.Error = err.Error()
	}
	writeJSON(w, resp)
}

// SetTagRequest is the JSON request body for a value write.
type SetTagRequest struct {
	Value interface{} `json:"value"`
}

func (s *Server) handleSetTag(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.ReadOnly {
		err := fmt.Errorf("server is read-only: %w", tag.ErrReadOnly)
		writeError(w, statusFor(err), err.Error())
		return
	}

	name := chi.URLParam(r, "name")
	tg, err := s.resolveTag(name)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	var req SetTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if err := tg.SetValue(req.Value); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if err := s.persist(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	debugLog("wrote %s = %v", name, req.Value)

	resp := TagResponse{
		Name:     name,
		TagType:  tg.TagType(),
		DataType: tg.DataType(),
	}
	if v, err := tg.Value(); err == nil {
		resp.Value = v
	}
	writeJSON(w, resp)
}

func (s *Server) handleGetDescription(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tg, err := s.resolveTag(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	text, ok := tg.Description()
	if !ok {
		writeError(w, http.StatusNotFound, "no description")
		return
	}
	writeJSON(w, map[string]string{"description": text})
}

// SetDescriptionRequest is the JSON request body for a description write.
type SetDescriptionRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleSetDescription(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.ReadOnly {
		err := fmt.Errorf("server is read-only: %w", tag.ErrReadOnly)
		writeError(w, statusFor(err), err.Error())
		return
	}

	tg, err := s.resolveTag(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	var req SetDescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	tg.SetDescription(req.Description)
	if err := s.persist(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"description": req.Description})
}

func (s *Server) handleClearDescription(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.ReadOnly {
		err := fmt.Errorf("server is read-only: %w", tag.ErrReadOnly)
		writeError(w, statusFor(err), err.Error())
		return
	}

	tg, err := s.resolveTag(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	tg.ClearDescription()
	if err := s.persist(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
