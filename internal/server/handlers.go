package server

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/blockforge/pkg/block"
	"github.com/matzehuels/blockforge/pkg/cache"
	"github.com/matzehuels/blockforge/pkg/errors"
	"github.com/matzehuels/blockforge/pkg/render"
	"github.com/matzehuels/blockforge/pkg/wire"
	"github.com/matzehuels/blockforge/pkg/workspace"
)

// workspaceView is the serialized form of a workspace.
type workspaceView struct {
	ID        string       `json:"id"`
	Blocks    []wire.Block `json:"blocks"`
	UndoDepth int          `json:"undoDepth"`
	RedoDepth int          `json:"redoDepth"`
}

func viewOf(ws *workspace.Workspace) workspaceView {
	tops := ws.GetTopBlocks()
	blocks := make([]wire.Block, 0, len(tops))
	for _, b := range tops {
		blocks = append(blocks, b.Snapshot())
	}
	return workspaceView{
		ID:        ws.ID(),
		Blocks:    blocks,
		UndoDepth: ws.UndoStackSize(),
		RedoDepth: ws.RedoStackSize(),
	}
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, _ *http.Request) {
	ids := s.hub.ids()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, map[string]any{"workspaces": ids})
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess, err := s.hub.create(r.Context(), req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = sess.with(func(ws *workspace.Workspace) error {
		writeJSON(w, http.StatusCreated, viewOf(ws))
		return nil
	})
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	s.withWorkspace(w, r, func(ws *workspace.Workspace) (any, error) {
		return viewOf(ws), nil
	})
}

func (s *Server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workspaceID")
	if err := s.hub.remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateBlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type   string  `json:"type"`
		ID     string  `json:"id"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Shadow bool    `json:"shadow"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.withWorkspace(w, r, func(ws *workspace.Workspace) (any, error) {
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		var snap wire.Block
		err := ws.Group(func() error {
			b, err := ws.NewBlockWithID(req.Type, req.ID)
			if err != nil {
				return err
			}
			b.SetShadow(req.Shadow)
			if req.X != 0 || req.Y != 0 {
				if err := b.MoveTo(block.Point{X: req.X, Y: req.Y}); err != nil {
					return err
				}
			}
			snap = b.Snapshot()
			return nil
		})
		return snap, err
	})
}

func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	s.withBlock(w, r, func(_ *workspace.Workspace, b *block.Block) (any, error) {
		return b.Snapshot(), nil
	})
}

func (s *Server) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	heal := r.URL.Query().Get("heal") == "true"
	s.withBlock(w, r, func(_ *workspace.Workspace, b *block.Block) (any, error) {
		if !b.IsDeletable() {
			return nil, errors.New(errors.ErrCodeInvariant, "block %s is not deletable", b.ID())
		}
		if err := b.Dispose(heal); err != nil {
			return nil, err
		}
		return map[string]string{"deleted": b.ID()}, nil
	})
}

func (s *Server) handleMoveBlock(w http.ResponseWriter, r *http.Request) {
	var req wire.Location
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.withBlock(w, r, func(ws *workspace.Workspace, b *block.Block) (any, error) {
		if err := ws.PlaceBlock(b.ID(), req); err != nil {
			return nil, err
		}
		return b.Snapshot(), nil
	})
}

func (s *Server) handleUnplugBlock(w http.ResponseWriter, r *http.Request) {
	heal := r.URL.Query().Get("heal") == "true"
	s.withBlock(w, r, func(_ *workspace.Workspace, b *block.Block) (any, error) {
		if err := b.Unplug(heal); err != nil {
			return nil, err
		}
		return b.Snapshot(), nil
	})
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	name := chi.URLParam(r, "fieldName")
	s.withBlock(w, r, func(_ *workspace.Workspace, b *block.Block) (any, error) {
		if err := b.SetFieldValue(name, req.Value); err != nil {
			return nil, err
		}
		return b.Snapshot(), nil
	})
}

// handleConnect attaches a child block to a parent: to a named input, or
// below the parent in the stack when no input is given.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ParentID string `json:"parentId"`
		Input    string `json:"input"`
		ChildID  string `json:"childId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.withWorkspace(w, r, func(ws *workspace.Workspace) (any, error) {
		child, ok := ws.GetBlockByID(req.ChildID)
		if !ok {
			return nil, errors.New(errors.ErrCodeBlockNotFound, "block %q not found", req.ChildID)
		}
		loc := wire.Location{ParentID: req.ParentID, Input: req.Input}
		if err := ws.PlaceBlock(child.ID(), loc); err != nil {
			return nil, err
		}
		return child.Snapshot(), nil
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.withWorkspace(w, r, func(ws *workspace.Workspace) (any, error) {
		if err := ws.Undo(false); err != nil {
			return nil, err
		}
		return viewOf(ws), nil
	})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.withWorkspace(w, r, func(ws *workspace.Workspace) (any, error) {
		if err := ws.Undo(true); err != nil {
			return nil, err
		}
		return viewOf(ws), nil
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workspaceID")
	if _, err := s.hub.get(id); err != nil {
		writeError(w, err)
		return
	}
	log, err := s.hub.store.Load(r.Context(), id)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeStore, err, "load events for %s", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": log})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	detailed := r.URL.Query().Get("detailed") == "true"

	sess, err := s.hub.get(chi.URLParam(r, "workspaceID"))
	if err != nil {
		writeError(w, err)
		return
	}

	var dot string
	_ = sess.with(func(ws *workspace.Workspace) error {
		dot = render.ToDOT(ws, render.Options{Detailed: detailed})
		return nil
	})

	if format == "dot" {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(dot))
		return
	}

	// The DOT text determines the SVG, so its hash is the cache key.
	key := cache.ArtifactKey("svg", []byte(dot))
	if svg, hit, err := s.artifacts.Get(r.Context(), key); err == nil && hit {
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
		return
	}

	svg, err := render.RenderSVG(dot)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render svg"))
		return
	}
	_ = s.artifacts.Set(r.Context(), key, svg, renderCacheTTL)
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// =============================================================================
// Helpers
// =============================================================================

// withWorkspace resolves the workspace, runs fn under its lock, and
// writes the result or error.
func (s *Server) withWorkspace(w http.ResponseWriter, r *http.Request, fn func(ws *workspace.Workspace) (any, error)) {
	sess, err := s.hub.get(chi.URLParam(r, "workspaceID"))
	if err != nil {
		writeError(w, err)
		return
	}

	var out any
	err = sess.with(func(ws *workspace.Workspace) error {
		var ferr error
		out, ferr = fn(ws)
		return ferr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// withBlock additionally resolves the block from the URL.
func (s *Server) withBlock(w http.ResponseWriter, r *http.Request, fn func(ws *workspace.Workspace, b *block.Block) (any, error)) {
	blockID := chi.URLParam(r, "blockID")
	s.withWorkspace(w, r, func(ws *workspace.Workspace) (any, error) {
		b, ok := ws.GetBlockByID(blockID)
		if !ok {
			return nil, errors.New(errors.ErrCodeBlockNotFound, "block %q not found", blockID)
		}
		return fn(ws, b)
	})
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch {
	case code == errors.ErrCodeNotFound, code == errors.ErrCodeBlockNotFound,
		code == errors.ErrCodeInputNotFound, code == errors.ErrCodeFieldNotFound,
		code == errors.ErrCodeTypeNotFound, code == errors.ErrCodeVarNotFound:
		status = http.StatusNotFound
	case code == errors.ErrCodeInvalidInput, code == errors.ErrCodeInvalidDefinition,
		code == errors.ErrCodeInvalidEvent, code == errors.ErrCodeInvalidConfig:
		status = http.StatusBadRequest
	case errors.IsConnection(err), errors.IsInvariant(err):
		status = http.StatusConflict
	case code == errors.ErrCodeStore:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{
		Code:    string(code),
		Message: errors.UserMessage(err),
	})
}
