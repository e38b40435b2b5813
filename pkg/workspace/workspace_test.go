package workspace

import (
	"testing"

	"github.com/matzehuels/blockforge/pkg/block"
	"github.com/matzehuels/blockforge/pkg/errors"
	"github.com/matzehuels/blockforge/pkg/events"
	"github.com/matzehuels/blockforge/pkg/wire"
)

// testRegistry builds the small block vocabulary the workspace tests use.
func testRegistry(t *testing.T) *block.Registry {
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
		{
			Type:        "text_print",
			HasPrevious: true,
			HasNext:     true,
			Inputs: []block.InputDef{
				{Kind: block.InputKindValue, Name: "TEXT"},
			},
		},
		{
			Type:      "variables_get",
			HasOutput: true,
			Inputs: []block.InputDef{
				{Kind: block.InputKindDummy, Fields: []block.FieldDef{{Name: VariableFieldName, Value: ""}}},
			},
		},
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			t.Fatalf("register %s: %v", def.Type, err)
		}
	}
	return reg
}

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := New(testRegistry(t), Options{ID: "ws-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ws
}

func TestNewWorkspace(t *testing.T) {
	ws, err := New(testRegistry(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if ws.ID() == "" {
		t.Error("empty options should generate an id")
	}
	if ws.BlockCount() != 0 || len(ws.GetTopBlocks()) != 0 {
		t.Error("new workspace should be empty")
	}

	if _, err := New(nil, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil registry: got %v", err)
	}
	if _, err := New(testRegistry(t), Options{ID: "bad/id"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("invalid id: got %v", err)
	}
}

func TestNewBlockFiresCreate(t *testing.T) {
	ws := newTestWorkspace(t)
	var fired []events.Event
	ws.AddChangeListener(func(ev events.Event) { fired = append(fired, ev) })

	b, err := ws.NewBlockWithID("logic_boolean", "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := ws.GetBlockByID("b1"); !ok || got != b {
		t.Error("block not retrievable by id")
	}
	if len(fired) != 1 || fired[0].Name() != events.TypeCreate {
		t.Fatalf("fired = %d events, want one create", len(fired))
	}
	if fired[0].WorkspaceID() != "ws-test" {
		t.Errorf("event workspace = %q", fired[0].WorkspaceID())
	}
	snap := fired[0].(*events.Create).Snap
	if snap.ID != "b1" || snap.Type != "logic_boolean" {
		t.Errorf("create snapshot = %s/%s", snap.ID, snap.Type)
	}

	if _, err := ws.NewBlockWithID("logic_boolean", "b1"); !errors.Is(err, errors.ErrCodeDuplicateBlockID) {
		t.Errorf("duplicate id: got %v", err)
	}
	if _, err := ws.NewBlock("no_such_type"); !errors.Is(err, errors.ErrCodeTypeNotFound) {
		t.Errorf("unknown type: got %v", err)
	}
}

func TestUndoRedoCreate(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := ws.NewBlockWithID("logic_boolean", "b1"); err != nil {
		t.Fatal(err)
	}
	if ws.UndoStackSize() != 1 {
		t.Fatalf("undo stack = %d, want 1", ws.UndoStackSize())
	}

	if err := ws.Undo(false); err != nil {
		t.Fatal(err)
	}
	if _, ok := ws.GetBlockByID("b1"); ok {
		t.Error("undo of create should remove the block")
	}
	if ws.UndoStackSize() != 0 || ws.RedoStackSize() != 1 {
		t.Errorf("stacks = %d/%d, want 0/1", ws.UndoStackSize(), ws.RedoStackSize())
	}

	if err := ws.Undo(true); err != nil {
		t.Fatal(err)
	}
	b, ok := ws.GetBlockByID("b1")
	if !ok {
		t.Fatal("redo should rebuild the block")
	}
	if v, _ := b.FieldValue("BOOL"); v != "TRUE" {
		t.Errorf("rebuilt field = %q", v)
	}
	if ws.UndoStackSize() != 1 || ws.RedoStackSize() != 0 {
		t.Errorf("stacks = %d/%d, want 1/0", ws.UndoStackSize(), ws.RedoStackSize())
	}

	// Empty-stack undo is a no-op.
	ws.ClearUndo()
	if err := ws.Undo(false); err != nil {
		t.Errorf("empty undo: %v", err)
	}
}

func TestUndoRedoMove(t *testing.T) {
	ws := newTestWorkspace(t)
	ifBlock, err := ws.NewBlockWithID("controls_if", "if1")
	if err != nil {
		t.Fatal(err)
	}
	cond, err := ws.NewBlockWithID("logic_boolean", "bool1")
	if err != nil {
		t.Fatal(err)
	}
	if err := cond.MoveTo(block.Point{X: 200, Y: 80}); err != nil {
		t.Fatal(err)
	}
	ws.ClearUndo()

	if err := ws.PlaceBlock("bool1", wire.Location{ParentID: "if1", Input: "IF0"}); err != nil {
		t.Fatal(err)
	}
	if got := ifBlock.InputTargetBlock("IF0"); got != cond {
		t.Fatal("block not attached")
	}

	if err := ws.Undo(false); err != nil {
		t.Fatal(err)
	}
	if ifBlock.InputTargetBlock("IF0") != nil {
		t.Error("undo should detach the block")
	}
	if got := cond.Position(); got != (block.Point{X: 200, Y: 80}) {
		t.Errorf("undo should restore coordinates, got %v", got)
	}

	if err := ws.Undo(true); err != nil {
		t.Fatal(err)
	}
	if ifBlock.InputTargetBlock("IF0") != cond {
		t.Error("redo should reattach the block")
	}
}

func TestUnplugHealUndoesAsOneUnit(t *testing.T) {
	ws := newTestWorkspace(t)
	p, err := ws.NewBlockWithID("text_print", "p1")
	if err != nil {
		t.Fatal(err)
	}
	q, err := ws.NewBlockWithID("text_print", "q1")
	if err != nil {
		t.Fatal(err)
	}
	r, err := ws.NewBlockWithID("text_print", "r1")
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.PlaceBlock("q1", wire.Location{ParentID: "p1"}); err != nil {
		t.Fatal(err)
	}
	if err := ws.PlaceBlock("r1", wire.Location{ParentID: "q1"}); err != nil {
		t.Fatal(err)
	}
	ws.ClearUndo()

	// Detach + heal is one user action even without an explicit group.
	if err := q.Unplug(true); err != nil {
		t.Fatal(err)
	}
	if p.NextBlock() != r {
		t.Fatal("heal should bridge p directly to r")
	}

	if err := ws.Undo(false); err != nil {
		t.Fatal(err)
	}
	if p.NextBlock() != q || q.NextBlock() != r {
		t.Errorf("one undo should restore the full stack, got p->%v q->%v",
			p.NextBlock(), q.NextBlock())
	}

	if err := ws.Undo(true); err != nil {
		t.Fatal(err)
	}
	if p.NextBlock() != r || q.Parent() != nil {
		t.Error("one redo should re-apply the healed unplug")
	}
}

func TestDisposeAttachedUndoesAsOneUnit(t *testing.T) {
	ws := newTestWorkspace(t)
	p, err := ws.NewBlockWithID("text_print", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.NewBlockWithID("text_print", "q1"); err != nil {
		t.Fatal(err)
	}
	r, err := ws.NewBlockWithID("text_print", "r1")
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.PlaceBlock("q1", wire.Location{ParentID: "p1"}); err != nil {
		t.Fatal(err)
	}
	if err := ws.PlaceBlock("r1", wire.Location{ParentID: "q1"}); err != nil {
		t.Fatal(err)
	}
	ws.ClearUndo()

	q, _ := ws.GetBlockByID("q1")
	if err := q.Dispose(true); err != nil {
		t.Fatal(err)
	}
	if p.NextBlock() != r {
		t.Fatal("healing dispose should bridge p directly to r")
	}

	if err := ws.Undo(false); err != nil {
		t.Fatal(err)
	}
	rebuilt, ok := ws.GetBlockByID("q1")
	if !ok {
		t.Fatal("undo should rebuild the disposed block")
	}
	if p.NextBlock() != rebuilt || rebuilt.NextBlock() != r {
		t.Errorf("one undo should restore the full stack, got p->%v q->%v",
			p.NextBlock(), rebuilt.NextBlock())
	}
}

func TestGroupUndoneAtomically(t *testing.T) {
	ws := newTestWorkspace(t)
	err := ws.Group(func() error {
		if _, err := ws.NewBlockWithID("text_print", "p1"); err != nil {
			return err
		}
		if _, err := ws.NewBlockWithID("text_print", "p2"); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if ws.UndoStackSize() != 2 {
		t.Fatalf("undo stack = %d, want 2", ws.UndoStackSize())
	}

	if err := ws.Undo(false); err != nil {
		t.Fatal(err)
	}
	if ws.BlockCount() != 0 {
		t.Error("grouped events should undo together")
	}

	if err := ws.Undo(true); err != nil {
		t.Fatal(err)
	}
	if ws.BlockCount() != 2 {
		t.Error("grouped events should redo together")
	}
}

func TestNestedGroupsJoin(t *testing.T) {
	ws := newTestWorkspace(t)
	outer := ws.OpenGroup()
	inner := ws.OpenGroup()
	if outer != inner {
		t.Error("nested open should join the outer group")
	}
	ws.CloseGroup()
	if ws.CurrentGroup() != outer {
		t.Error("inner close must not end the outer group")
	}
	ws.CloseGroup()
	if ws.CurrentGroup() != "" {
		t.Error("outer close should end the group")
	}
	// Unbalanced close is a no-op.
	ws.CloseGroup()
}

func TestNullEventsNotRecorded(t *testing.T) {
	ws := newTestWorkspace(t)
	b, err := ws.NewBlockWithID("logic_boolean", "b1")
	if err != nil {
		t.Fatal(err)
	}
	ws.ClearUndo()

	var fired int
	ws.AddChangeListener(func(events.Event) { fired++ })

	// Same-value change: delivered but not undoable.
	if err := b.SetFieldValue("BOOL", "TRUE"); err != nil {
		t.Fatal(err)
	}
	if fired != 1 {
		t.Errorf("null event fired %d times, want 1", fired)
	}
	if ws.UndoStackSize() != 0 {
		t.Error("null event must not be recorded")
	}
}

func TestSetRecordingSuppressesUndo(t *testing.T) {
	ws := newTestWorkspace(t)
	var fired int
	ws.AddChangeListener(func(events.Event) { fired++ })

	ws.SetRecording(false)
	if _, err := ws.NewBlockWithID("logic_boolean", "b1"); err != nil {
		t.Fatal(err)
	}
	if fired != 1 {
		t.Error("listeners still see events while not recording")
	}
	if ws.UndoStackSize() != 0 {
		t.Error("nothing should be recorded while recording is off")
	}

	ws.SetRecording(true)
	if _, err := ws.NewBlockWithID("logic_boolean", "b2"); err != nil {
		t.Fatal(err)
	}
	if ws.UndoStackSize() != 1 {
		t.Error("recording should resume")
	}
}

func TestMaxUndoDropsOldest(t *testing.T) {
	ws, err := New(testRegistry(t), Options{ID: "ws-cap", MaxUndo: 3})
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"b1", "b2", "b3", "b4", "b5"} {
		if _, err := ws.NewBlockWithID("logic_boolean", id); err != nil {
			t.Fatal(err)
		}
	}
	if ws.UndoStackSize() != 3 {
		t.Fatalf("undo stack = %d, want 3", ws.UndoStackSize())
	}
	ev, _ := ws.PeekUndo()
	if ev.BlockID() != "b5" {
		t.Errorf("top of stack = %s, want b5 (oldest dropped)", ev.BlockID())
	}
}

func TestRedoClearedByNewMutation(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := ws.NewBlockWithID("logic_boolean", "b1"); err != nil {
		t.Fatal(err)
	}
	if err := ws.Undo(false); err != nil {
		t.Fatal(err)
	}
	if ws.RedoStackSize() != 1 {
		t.Fatal("expected one redoable event")
	}

	if _, err := ws.NewBlockWithID("logic_boolean", "b2"); err != nil {
		t.Fatal(err)
	}
	if ws.RedoStackSize() != 0 {
		t.Error("a recorded mutation must clear the redo stack")
	}
}

func TestUndoErrorKeepsBatchOnStacks(t *testing.T) {
	ws := newTestWorkspace(t)
	err := ws.Group(func() error {
		for _, id := range []string{"b1", "b2", "b3"} {
			if _, err := ws.NewBlockWithID("logic_boolean", id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	// Remove the middle block behind the log's back so replaying the
	// batch fails partway through.
	b2, _ := ws.GetBlockByID("b2")
	ws.SetRecording(false)
	if err := b2.Dispose(false); err != nil {
		t.Fatal(err)
	}
	ws.SetRecording(true)

	if err := ws.Undo(false); !errors.Is(err, errors.ErrCodeInternal) {
		t.Fatalf("expected replay failure, got %v", err)
	}
	if ws.UndoStackSize() != 0 || ws.RedoStackSize() != 3 {
		t.Errorf("stacks = %d/%d, want 0/3: a failed replay must not drop recorded events",
			ws.UndoStackSize(), ws.RedoStackSize())
	}
}

func TestClearDisposesEverythingUndoably(t *testing.T) {
	ws := newTestWorkspace(t)
	ifBlock, err := ws.NewBlockWithID("controls_if", "if1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.NewBlockWithID("logic_boolean", "bool1"); err != nil {
		t.Fatal(err)
	}
	if err := ws.PlaceBlock("bool1", wire.Location{ParentID: "if1", Input: "IF0"}); err != nil {
		t.Fatal(err)
	}
	ws.ClearUndo()

	if err := ws.Clear(); err != nil {
		t.Fatal(err)
	}
	if ws.BlockCount() != 0 || len(ws.GetTopBlocks()) != 0 {
		t.Error("clear should remove every block")
	}
	if ifBlock.IsDisposed() != true {
		t.Error("clear should dispose blocks, not orphan them")
	}

	if err := ws.Undo(false); err != nil {
		t.Fatal(err)
	}
	if ws.BlockCount() != 2 {
		t.Errorf("undo of clear rebuilt %d blocks, want 2", ws.BlockCount())
	}
	restored, ok := ws.GetBlockByID("if1")
	if !ok || restored.InputTargetBlock("IF0") == nil {
		t.Error("undo of clear should restore the attachment")
	}
}

func TestVariables(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := ws.CreateVariable("count"); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.CreateVariable("count"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("duplicate variable: got %v", err)
	}
	if _, err := ws.CreateVariable(""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty name: got %v", err)
	}

	if err := ws.DeleteVariable("count"); err != nil {
		t.Fatal(err)
	}
	if ws.Variables().Len() != 0 {
		t.Error("delete should shrink the table")
	}
	if err := ws.DeleteVariable("count"); !errors.Is(err, errors.ErrCodeVarNotFound) {
		t.Errorf("missing variable: got %v", err)
	}
}

func TestRenameVariableRewritesFields(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := ws.CreateVariable("count"); err != nil {
		t.Fatal(err)
	}

	getter1, err := ws.NewBlockWithID("variables_get", "g1")
	if err != nil {
		t.Fatal(err)
	}
	getter2, err := ws.NewBlockWithID("variables_get", "g2")
	if err != nil {
		t.Fatal(err)
	}
	other, err := ws.NewBlockWithID("variables_get", "g3")
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range []*block.Block{getter1, getter2} {
		if err := b.SetFieldValue(VariableFieldName, "count"); err != nil {
			t.Fatal(err)
		}
	}
	if err := other.SetFieldValue(VariableFieldName, "total"); err != nil {
		t.Fatal(err)
	}
	ws.ClearUndo()

	if err := ws.RenameVariable("count", "total2"); err != nil {
		t.Fatal(err)
	}
	if _, ok := ws.Variables().Get("count"); ok {
		t.Error("old name still in table")
	}
	if _, ok := ws.Variables().Get("total2"); !ok {
		t.Error("new name missing from table")
	}
	for _, b := range []*block.Block{getter1, getter2} {
		if v, _ := b.FieldValue(VariableFieldName); v != "total2" {
			t.Errorf("bound field = %q, want total2", v)
		}
	}
	if v, _ := other.FieldValue(VariableFieldName); v != "total" {
		t.Error("unrelated binding must not change")
	}

	// The rewrites undo as one unit.
	if err := ws.Undo(false); err != nil {
		t.Fatal(err)
	}
	for _, b := range []*block.Block{getter1, getter2} {
		if v, _ := b.FieldValue(VariableFieldName); v != "count" {
			t.Errorf("after undo field = %q, want count", v)
		}
	}

	if err := ws.RenameVariable("nope", "x"); !errors.Is(err, errors.ErrCodeVarNotFound) {
		t.Errorf("rename missing: got %v", err)
	}
}

func TestListenersAddRemove(t *testing.T) {
	ws := newTestWorkspace(t)
	var a, b int
	la := ws.AddChangeListener(func(events.Event) { a++ })
	ws.AddChangeListener(func(events.Event) { b++ })

	if _, err := ws.NewBlock("logic_boolean"); err != nil {
		t.Fatal(err)
	}
	ws.RemoveChangeListener(la)
	if _, err := ws.NewBlock("logic_boolean"); err != nil {
		t.Fatal(err)
	}

	if a != 1 || b != 2 {
		t.Errorf("listener counts = %d/%d, want 1/2", a, b)
	}
}
