package block

import "testing"

func TestConnectionDBSortedByY(t *testing.T) {
	c := newTestContainer()
	// Three print blocks at staggered heights; each adds previous+next.
	a := mustBlock(t, c, printDef(), "a")
	b := mustBlock(t, c, printDef(), "b")
	d := mustBlock(t, c, printDef(), "d")
	if err := a.MoveTo(Point{Y: 200}); err != nil {
		t.Fatal(err)
	}
	if err := b.MoveTo(Point{Y: 50}); err != nil {
		t.Fatal(err)
	}
	if err := d.MoveTo(Point{Y: 125}); err != nil {
		t.Fatal(err)
	}

	// Rebuild a fresh index from the moved connections and check order.
	db := NewConnectionDB()
	for _, blk := range []*Block{a, b, d} {
		db.Add(blk.PreviousConnection())
		db.Add(blk.NextConnection())
	}
	prev := db.conns[0].Position().Y
	for _, conn := range db.conns[1:] {
		if conn.Position().Y < prev {
			t.Fatalf("index not sorted by Y: %v before %v", prev, conn.Position().Y)
		}
		prev = conn.Position().Y
	}

	// Double-add is a no-op; remove shrinks; removing twice is a no-op.
	n := db.Len()
	db.Add(a.PreviousConnection())
	if db.Len() != n {
		t.Error("double add grew the index")
	}
	db.Remove(a.PreviousConnection())
	db.Remove(a.PreviousConnection())
	if db.Len() != n-1 {
		t.Errorf("len after remove = %d, want %d", db.Len(), n-1)
	}
}

func TestClosestCandidate(t *testing.T) {
	c := newTestContainer()
	far := mustBlock(t, c, printDef(), "far")
	near := mustBlock(t, c, printDef(), "near")
	dragged := mustBlock(t, c, printDef(), "dragged")
	if err := far.MoveTo(Point{X: 0, Y: 300}); err != nil {
		t.Fatal(err)
	}
	if err := near.MoveTo(Point{X: 0, Y: 100}); err != nil {
		t.Fatal(err)
	}
	if err := dragged.MoveTo(Point{X: 0, Y: 90}); err != nil {
		t.Fatal(err)
	}

	// dragged.previous sits at (0, 90); near.next at (0, 124).
	cand, ok := c.db.ClosestCandidate(dragged.PreviousConnection(), 50, Point{}, nil)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.Connection != near.NextConnection() {
		t.Errorf("candidate = %v, want near's next", cand.Connection)
	}
	if cand.Distance != 34 {
		t.Errorf("distance = %v, want 34", cand.Distance)
	}

	// Radius excludes everything.
	if _, ok := c.db.ClosestCandidate(dragged.PreviousConnection(), 10, Point{}, nil); ok {
		t.Error("candidate found inside too-small radius")
	}

	// Offset shifts the probe point toward the far block.
	cand, ok = c.db.ClosestCandidate(dragged.PreviousConnection(), 50, Point{Y: 220}, nil)
	if !ok || cand.Connection != far.NextConnection() {
		t.Errorf("offset search: got %+v, %v; want far's next", cand, ok)
	}

	// Reject filter removes the otherwise-best candidate.
	reject := func(conn *Connection) bool { return conn.Owner() == near }
	if _, ok := c.db.ClosestCandidate(dragged.PreviousConnection(), 50, Point{}, reject); ok {
		t.Error("rejected candidate still returned")
	}
}

func TestClosestCandidateSkipsIllegal(t *testing.T) {
	c := newTestContainer()
	ifBlock := mustBlock(t, c, ifDef(), "if1")
	val := mustBlock(t, c, boolDef(), "bool1")
	num := mustBlock(t, c, numberDef(), "num1")

	// Pull the number block's output right on top of the Boolean socket:
	// distance zero, but the check sets are incompatible.
	sock := inputConn(t, ifBlock, "IF0")
	if err := num.MoveTo(sock.Position().Sub(Point{Y: rowHeight / 2})); err != nil {
		t.Fatal(err)
	}
	if err := val.MoveTo(sock.Position().Sub(Point{X: 0, Y: rowHeight/2 - 5})); err != nil {
		t.Fatal(err)
	}

	cand, ok := c.db.ClosestCandidate(sock, 50, Point{}, nil)
	if !ok {
		t.Fatal("expected the Boolean block to qualify")
	}
	if cand.Connection != val.OutputConnection() {
		t.Errorf("candidate = %v, want bool1's output", cand.Connection)
	}
}

func TestClosestCandidateFirstFoundWinsTies(t *testing.T) {
	c := newTestContainer()
	left := mustBlock(t, c, printDef(), "left")
	right := mustBlock(t, c, printDef(), "right")
	dragged := mustBlock(t, c, printDef(), "dragged")

	// Both next connections equidistant from the probe; the one with the
	// lower Y (scanned first) must win on every run.
	if err := left.MoveTo(Point{X: -10, Y: 76}); err != nil {
		t.Fatal(err)
	}
	if err := right.MoveTo(Point{X: 10, Y: 76}); err != nil {
		t.Fatal(err)
	}
	if err := dragged.MoveTo(Point{X: 0, Y: 100}); err != nil {
		t.Fatal(err)
	}

	for range 5 {
		cand, ok := c.db.ClosestCandidate(dragged.PreviousConnection(), 50, Point{}, nil)
		if !ok {
			t.Fatal("expected a candidate")
		}
		want := left.NextConnection()
		if left.NextConnection().Position().Y > right.NextConnection().Position().Y {
			want = right.NextConnection()
		}
		if cand.Connection != want {
			t.Fatal("tie not broken deterministically by scan order")
		}
	}
}
