// Package server exposes snapshot directory over HTTP so development servers
// could pick up compiled components of any pulled version.
package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"spritec/common"
	"spritec/markup"
	"spritec/snapshot"
	"spritec/transform"
	"spritec/translate"
)

// Server serves compiled versions from snapshot directory.
type Server struct {
	dir    string
	fw     common.Framework
	parser *markup.Parser
	opts   []translate.Option
	log    *zap.Logger
	router chi.Router
}

// VersionList is the body of versions listing.
type VersionList struct {
	Versions []string `json:"versions"`
	Latest   string   `json:"latest,omitempty"`
	Stable   string   `json:"stable,omitempty"`
}

// New creates server for snapshot directory dir. Sprites are translated for
// fw on every request, so fresh pulls are visible immediately.
func New(dir string, fw common.Framework, p *markup.Parser, log *zap.Logger, opts ...translate.Option) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if p == nil {
		p = markup.NewParser(log)
	}
	s := &Server{
		dir:    dir,
		fw:     fw,
		parser: p,
		opts:   append([]translate.Option{translate.WithSource(snapshot.MainSprite)}, opts...),
		log:    log.Named("server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/versions", s.listVersions)
	r.Route("/{version}", func(r chi.Router) {
		r.Use(s.checkVersion)
		r.Get("/sprite.js", s.spriteCode)
		r.Get("/"+snapshot.MainSprite+snapshot.TypedDefExt, s.spriteTypes)
		r.Get("/*", s.static)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Debug("Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)))
		}()
		next.ServeHTTP(ww, r)
	})
}

// validVersion rejects anything which could escape snapshot directory or
// reach hidden files.
func validVersion(v string) bool {
	return v != "" && !strings.HasPrefix(v, ".") && !strings.ContainsAny(v, `/\`)
}

func (s *Server) checkVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := chi.URLParam(r, "version")
		if !validVersion(v) {
			http.Error(w, "invalid version", http.StatusBadRequest)
			return
		}
		if info, err := os.Stat(filepath.Join(s.dir, v)); err != nil || !info.IsDir() {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listVersions(w http.ResponseWriter, _ *http.Request) {
	var (
		list VersionList
		err  error
	)
	if list.Versions, err = snapshot.Versions(s.dir); err == nil {
		if list.Latest, err = snapshot.LinkTarget(s.dir, snapshot.Latest); err == nil {
			list.Stable, err = snapshot.LinkTarget(s.dir, snapshot.Stable)
		}
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	if list.Versions == nil {
		list.Versions = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		s.log.Warn("Unable to write response", zap.Error(err))
	}
}

func (s *Server) sprite(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, chi.URLParam(r, "version"), snapshot.MainSprite))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
		} else {
			s.fail(w, err)
		}
		return nil, false
	}
	return data, true
}

func (s *Server) spriteCode(w http.ResponseWriter, r *http.Request) {
	data, ok := s.sprite(w, r)
	if !ok {
		return
	}
	res, err := transform.Source(data, s.fw, s.parser, s.opts...)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.warn(r, res.Warnings)
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	_, _ = w.Write([]byte(res.Code))
}

func (s *Server) spriteTypes(w http.ResponseWriter, r *http.Request) {
	data, ok := s.sprite(w, r)
	if !ok {
		return
	}
	root, err := s.parser.Parse(data, snapshot.MainSprite)
	if err != nil {
		s.fail(w, err)
		return
	}
	c, err := translate.TypedDefinition(root, s.fw, s.opts...)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.warn(r, c.Warnings)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(c.Buffer))
}

func (s *Server) static(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if !fs.ValidPath(name) || strings.HasPrefix(name, ".") || strings.Contains(name, "/.") {
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, os.DirFS(filepath.Join(s.dir, chi.URLParam(r, "version"))), name)
}

func (s *Server) warn(r *http.Request, warnings []error) {
	for _, w := range warnings {
		s.log.Warn("Translation warning", zap.String("path", r.URL.Path), zap.Error(w))
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.Error("Request failed", zap.Error(err))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
