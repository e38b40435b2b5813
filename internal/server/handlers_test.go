package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matzehuels/blockforge/pkg/block"
	"github.com/matzehuels/blockforge/pkg/wire"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	reg := block.NewRegistry()
	defs := []*block.Definition{
		{
			Type:        "controls_if",
			HasPrevious: true,
			HasNext:     true,
			Inputs: []block.InputDef{
				{Kind: block.InputKindValue, Name: "IF0", Checks: []string{"Boolean"}},
				{Kind: block.InputKindStatement, Name: "DO0"},
			},
		},
		{
			Type:      "logic_boolean",
			HasOutput: true,
			Output:    []string{"Boolean"},
			Inputs: []block.InputDef{
				{Kind: block.InputKindDummy, Fields: []block.FieldDef{{Name: "BOOL", Value: "TRUE"}}},
			},
		},
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			t.Fatal(err)
		}
	}
	srv, err := New(Options{Registry: reg})
	if err != nil {
		t.Fatal(err)
	}
	return srv
}

// do runs one request against the router and decodes the JSON response
// into out (when out is non-nil).
func do(t *testing.T, h http.Handler, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec
}

func TestHealth(t *testing.T) {
	h := testServer(t).router()
	rec := do(t, h, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestWorkspaceLifecycle(t *testing.T) {
	h := testServer(t).router()

	var view workspaceView
	rec := do(t, h, http.MethodPost, "/api/workspaces/", map[string]string{"id": "ws1"}, &view)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	if view.ID != "ws1" || len(view.Blocks) != 0 {
		t.Errorf("created view = %+v", view)
	}

	// Duplicate id.
	if rec := do(t, h, http.MethodPost, "/api/workspaces/", map[string]string{"id": "ws1"}, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate create status = %d", rec.Code)
	}

	var list struct {
		Workspaces []string `json:"workspaces"`
	}
	do(t, h, http.MethodGet, "/api/workspaces/", nil, &list)
	if len(list.Workspaces) != 1 || list.Workspaces[0] != "ws1" {
		t.Errorf("list = %v", list.Workspaces)
	}

	if rec := do(t, h, http.MethodDelete, "/api/workspaces/ws1", nil, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/workspaces/ws1", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestBlockEndpoints(t *testing.T) {
	h := testServer(t).router()
	do(t, h, http.MethodPost, "/api/workspaces/", map[string]string{"id": "ws1"}, nil)

	var snap wire.Block
	rec := do(t, h, http.MethodPost, "/api/workspaces/ws1/blocks/",
		map[string]any{"type": "controls_if", "id": "if1", "x": 10, "y": 20}, &snap)
	if rec.Code != http.StatusOK {
		t.Fatalf("create block status = %d: %s", rec.Code, rec.Body.String())
	}
	if snap.ID != "if1" || snap.Type != "controls_if" || snap.X != 10 || snap.Y != 20 {
		t.Errorf("snapshot = %+v", snap)
	}

	// Unknown type is a 404 on the type, not a server error.
	if rec := do(t, h, http.MethodPost, "/api/workspaces/ws1/blocks/",
		map[string]any{"type": "nope"}, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown type status = %d", rec.Code)
	}
	// Unknown request fields are rejected.
	if rec := do(t, h, http.MethodPost, "/api/workspaces/ws1/blocks/",
		map[string]any{"type": "logic_boolean", "sparkle": true}, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d", rec.Code)
	}

	do(t, h, http.MethodPost, "/api/workspaces/ws1/blocks/",
		map[string]any{"type": "logic_boolean", "id": "bool1"}, nil)

	// Connect bool1 into if1's condition input.
	rec = do(t, h, http.MethodPost, "/api/workspaces/ws1/connect",
		map[string]string{"parentId": "if1", "input": "IF0", "childId": "bool1"}, &snap)
	if rec.Code != http.StatusOK {
		t.Fatalf("connect status = %d: %s", rec.Code, rec.Body.String())
	}

	var view workspaceView
	do(t, h, http.MethodGet, "/api/workspaces/ws1", nil, &view)
	if len(view.Blocks) != 1 {
		t.Fatalf("top blocks = %d, want 1 after connect", len(view.Blocks))
	}
	if len(view.Blocks[0].Inputs) != 1 || view.Blocks[0].Inputs[0].Block.ID != "bool1" {
		t.Errorf("attachment missing from view: %+v", view.Blocks[0])
	}

	// Incompatible connect is a conflict: a statement block cannot go
	// into a value input, and a block cannot connect to itself.
	rec = do(t, h, http.MethodPost, "/api/workspaces/ws1/connect",
		map[string]string{"parentId": "bool1", "input": "", "childId": "bool1"}, nil)
	if rec.Code != http.StatusConflict && rec.Code != http.StatusNotFound {
		t.Errorf("bad connect status = %d: %s", rec.Code, rec.Body.String())
	}

	// Field update.
	rec = do(t, h, http.MethodPut, "/api/workspaces/ws1/blocks/bool1/fields/BOOL",
		map[string]string{"value": "FALSE"}, &snap)
	if rec.Code != http.StatusOK {
		t.Fatalf("set field status = %d", rec.Code)
	}
	if snap.Fields["BOOL"] != "FALSE" {
		t.Errorf("fields = %v", snap.Fields)
	}
	if rec := do(t, h, http.MethodPut, "/api/workspaces/ws1/blocks/bool1/fields/NOPE",
		map[string]string{"value": "x"}, nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing field status = %d", rec.Code)
	}

	// Move to free coordinates detaches.
	rec = do(t, h, http.MethodPost, "/api/workspaces/ws1/blocks/bool1/move",
		wire.Location{X: 100, Y: 100}, &snap)
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d", rec.Code)
	}
	do(t, h, http.MethodGet, "/api/workspaces/ws1", nil, &view)
	if len(view.Blocks) != 2 {
		t.Errorf("top blocks = %d, want 2 after detach", len(view.Blocks))
	}

	// Delete.
	if rec := do(t, h, http.MethodDelete, "/api/workspaces/ws1/blocks/bool1", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("delete block status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/workspaces/ws1/blocks/bool1", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted block status = %d", rec.Code)
	}
}

func TestUndoRedoEndpoints(t *testing.T) {
	h := testServer(t).router()
	do(t, h, http.MethodPost, "/api/workspaces/", map[string]string{"id": "ws1"}, nil)
	do(t, h, http.MethodPost, "/api/workspaces/ws1/blocks/",
		map[string]any{"type": "logic_boolean", "id": "bool1"}, nil)

	var view workspaceView
	do(t, h, http.MethodGet, "/api/workspaces/ws1", nil, &view)
	if view.UndoDepth == 0 {
		t.Fatal("expected undoable history after block creation")
	}

	rec := do(t, h, http.MethodPost, "/api/workspaces/ws1/undo", nil, &view)
	if rec.Code != http.StatusOK {
		t.Fatalf("undo status = %d", rec.Code)
	}
	if len(view.Blocks) != 0 || view.RedoDepth == 0 {
		t.Errorf("view after undo = %+v", view)
	}

	rec = do(t, h, http.MethodPost, "/api/workspaces/ws1/redo", nil, &view)
	if rec.Code != http.StatusOK {
		t.Fatalf("redo status = %d", rec.Code)
	}
	if len(view.Blocks) != 1 {
		t.Errorf("blocks after redo = %d", len(view.Blocks))
	}
}

func TestEventsEndpoint(t *testing.T) {
	h := testServer(t).router()
	do(t, h, http.MethodPost, "/api/workspaces/", map[string]string{"id": "ws1"}, nil)
	do(t, h, http.MethodPost, "/api/workspaces/ws1/blocks/",
		map[string]any{"type": "logic_boolean", "id": "bool1"}, nil)

	var resp struct {
		Events []json.RawMessage `json:"events"`
	}
	rec := do(t, h, http.MethodGet, "/api/workspaces/ws1/events", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("events status = %d", rec.Code)
	}
	if len(resp.Events) != 1 {
		t.Errorf("events = %d, want the create", len(resp.Events))
	}

	if rec := do(t, h, http.MethodGet, "/api/workspaces/ghost/events", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing workspace status = %d", rec.Code)
	}
}

func TestRenderDOTEndpoint(t *testing.T) {
	h := testServer(t).router()
	do(t, h, http.MethodPost, "/api/workspaces/", map[string]string{"id": "ws1"}, nil)
	do(t, h, http.MethodPost, "/api/workspaces/ws1/blocks/",
		map[string]any{"type": "logic_boolean", "id": "bool1"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/workspaces/ws1/render?format=dot", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("render status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("bool1")) {
		t.Error("dot output does not mention the block")
	}
}

func TestErrorBodyShape(t *testing.T) {
	h := testServer(t).router()
	var resp errorResponse
	rec := do(t, h, http.MethodGet, "/api/workspaces/ghost", nil, &resp)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Code != "NOT_FOUND" || resp.Message == "" {
		t.Errorf("error body = %+v", resp)
	}
}
