package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"evocut/internal/bundle"
	"evocut/internal/config"
	"evocut/internal/demo"
	"evocut/internal/evolve"
	"evocut/internal/skeleton"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type skeletonRequest struct {
	FullCode string `json:"fullCode"`
	Cut      string `json:"cut"`
}

type skeletonResponse struct {
	Skeleton string            `json:"skeleton"`
	Strategy skeleton.Strategy `json:"strategy"`
}

func (s *Server) deriveSkeleton(w http.ResponseWriter, r *http.Request) {
	var req skeletonRequest
	if err := s.readJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	code, strategy := skeleton.DeriveWithStrategy(req.FullCode, req.Cut)
	s.respondJSON(w, http.StatusOK, skeletonResponse{Skeleton: code, Strategy: strategy})
}

type evolveRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type evolveResponse struct {
	Filename string          `json:"filename,omitempty"`
	Problem  string          `json:"problem"`
	Code     string          `json:"code"`
	Ranges   []evolve.Region `json:"ranges"`
}

// parseEvolve accepts either a JSON body or a multipart upload in "file".
func (s *Server) parseEvolve(w http.ResponseWriter, r *http.Request) {
	req, err := s.readEvolveRequest(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	doc, err := evolve.Parse(req.Content)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, evolveResponse{
		Filename: req.Filename,
		Problem:  evolve.DetectProblem(req.Filename, req.Content),
		Code:     doc.Code,
		Ranges:   doc.Regions,
	})
}

func (s *Server) readEvolveRequest(w http.ResponseWriter, r *http.Request) (evolveRequest, error) {
	var req evolveRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		err := s.readJSON(w, r, &req)
		return req, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.settings.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.settings.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return req, err
		}
		return req, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return req, fmt.Errorf("%w: missing file field: %v", errBadRequest, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return req, err
	}
	req.Filename = hdr.Filename
	req.Content = string(b)
	return req, nil
}

type optionsResponse struct {
	Actions []config.Action  `json:"actions"`
	Targets []targetResponse `json:"targets"`
}

type targetResponse struct {
	config.Target
	ParamSpecs []config.Param `json:"paramSpecs"`
}

func (s *Server) options(w http.ResponseWriter, r *http.Request) {
	resp := optionsResponse{Actions: config.Actions}
	for _, t := range config.Targets {
		resp.Targets = append(resp.Targets, targetResponse{Target: t, ParamSpecs: config.TargetParamSpecs(t)})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) listProblems(w http.ResponseWriter, r *http.Request) {
	problems := s.catalog.Load().Problems
	if problems == nil {
		problems = []config.Problem{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"problems": problems})
}

func (s *Server) problemTemplate(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog.Load()
	p, err := cat.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	code, err := cat.ReadTemplate(p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"problem": p, "code": code})
}

// buildReplay prepares the replay of the {id} problem, honoring an optional
// maxGenerations query parameter ("all" keeps every generation).
func (s *Server) buildReplay(r *http.Request) (*demo.Result, error) {
	req := demo.Request{ProblemID: chi.URLParam(r, "id")}
	if raw := r.URL.Query().Get("maxGenerations"); raw != "" {
		n := -1
		if raw != "all" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: maxGenerations must be an integer or \"all\"", errBadRequest)
			}
			n = v
		}
		req.MaxGenerations = &n
	}
	saved, err := s.loadSaved()
	if err != nil {
		return nil, err
	}
	return demo.Build(s.catalog.Load(), saved, req)
}

func (s *Server) problemReplay(w http.ResponseWriter, r *http.Request) {
	res, err := s.buildReplay(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) problemExport(w http.ResponseWriter, r *http.Request) {
	res, err := s.buildReplay(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := bundle.Encode(&buf, res.Replay, res.BundleMeta()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Problem.ID+"-replay.zip"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("Failed to write export", zap.Error(err))
	}
}

func (s *Server) loadSaved() (*config.RunConfig, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Load()
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.loadSaved()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if cfg == nil {
		s.fail(w, r, config.ErrNoConfig)
		return
	}
	s.respondJSON(w, http.StatusOK, cfg)
}

// putConfig saves a full configuration. A missing run id or creation time
// is filled in; the problem must exist in the catalog.
func (s *Server) putConfig(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusServiceUnavailable, "config store is not configured")
		return
	}
	var cfg config.RunConfig
	if err := s.readJSON(w, r, &cfg); err != nil {
		s.fail(w, r, err)
		return
	}
	if cfg.RunID == "" {
		cfg.RunID = config.NewRunID("demo")
	}
	if cfg.CreatedAt == "" {
		cfg.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if p, err := s.catalog.Load().Get(cfg.Problem.ID); err == nil {
		if cfg.Problem.Name == "" {
			cfg.Problem.Name = p.DisplayName()
		}
	} else if cfg.Problem.ID != "" {
		s.fail(w, r, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err))
		return
	}
	if err := s.store.Save(&cfg); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("Config saved", zap.String("runId", cfg.RunID), zap.String("problem", cfg.Problem.ID))
	s.respondJSON(w, http.StatusOK, &cfg)
}

type patchRequest struct {
	Path  string          `json:"path" validate:"required"`
	Value json.RawMessage `json:"value" validate:"required"`
}

func (s *Server) patchConfig(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusServiceUnavailable, "config store is not configured")
		return
	}
	var req patchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		s.fail(w, r, fmt.Errorf("%w: value: %v", errBadRequest, err))
		return
	}
	cfg, err := s.store.Set(req.Path, value)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) deleteConfig(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.store.Clear(); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
