package ui

import (
	"fmt"
	"testing"

	"github.com/piwi3910/lotcut/internal/model"
)

func TestNewHistory(t *testing.T) {
	h := NewHistory()
	if h.maxDepth != defaultMaxDepth {
		t.Errorf("expected maxDepth %d, got %d", defaultMaxDepth, h.maxDepth)
	}
	if h.CanUndo() {
		t.Error("new history should not be undoable")
	}
	if h.CanRedo() {
		t.Error("new history should not be redoable")
	}
}

func TestPushAndUndo(t *testing.T) {
	h := NewHistory()
	h.Push(MakeSnapshot(nil, nil, "initial"))

	if !h.CanUndo() {
		t.Fatal("should be able to undo after push")
	}

	orders := []model.OrderRow{{Color: "RED", Quantities: map[string]int{"32": 10}}}
	restored, ok := h.Undo(MakeSnapshot(orders, nil, "current"))
	if !ok {
		t.Fatal("undo should succeed")
	}
	if len(restored.Orders) != 0 {
		t.Errorf("expected 0 orders after undo, got %d", len(restored.Orders))
	}
	if restored.Label != "initial" {
		t.Errorf("expected label 'initial', got %q", restored.Label)
	}
	if !h.CanRedo() {
		t.Error("should be able to redo after undo")
	}
}

func TestUndoRedo(t *testing.T) {
	h := NewHistory()
	h.Push(MakeSnapshot(nil, nil, "empty"))

	rolls := []model.Roll{{RollNo: "R1", LotNo: "A", Length: 100}}
	current := MakeSnapshot(nil, rolls, "one roll")

	restored, ok := h.Undo(current)
	if !ok || len(restored.Rolls) != 0 {
		t.Fatalf("undo should restore the empty state, got %+v", restored)
	}

	redone, ok := h.Redo(restored)
	if !ok {
		t.Fatal("redo should succeed")
	}
	if len(redone.Rolls) != 1 || redone.Rolls[0].RollNo != "R1" {
		t.Errorf("redo should bring back the roll, got %+v", redone.Rolls)
	}
	if !h.CanUndo() || h.CanRedo() {
		t.Error("after redo: undo available, redo empty")
	}
}

func TestUndoEmpty(t *testing.T) {
	h := NewHistory()
	if _, ok := h.Undo(Snapshot{}); ok {
		t.Error("undo on empty history should fail")
	}
	if _, ok := h.Redo(Snapshot{}); ok {
		t.Error("redo on empty history should fail")
	}
}

func TestPushClearsRedo(t *testing.T) {
	h := NewHistory()
	h.Push(MakeSnapshot(nil, nil, "a"))
	h.Undo(MakeSnapshot(nil, nil, "b"))
	if !h.CanRedo() {
		t.Fatal("expected redo after undo")
	}
	h.Push(MakeSnapshot(nil, nil, "c"))
	if h.CanRedo() {
		t.Error("push should clear the redo stack")
	}
}

func TestMaxDepth(t *testing.T) {
	h := NewHistory()
	for i := 0; i < defaultMaxDepth+10; i++ {
		h.Push(MakeSnapshot(nil, nil, fmt.Sprintf("s%d", i)))
	}
	if len(h.undoStack) != defaultMaxDepth {
		t.Fatalf("expected %d snapshots, got %d", defaultMaxDepth, len(h.undoStack))
	}
	if h.undoStack[0].Label != "s10" {
		t.Errorf("oldest snapshots should be dropped, first is %q", h.undoStack[0].Label)
	}
}

func TestClear(t *testing.T) {
	h := NewHistory()
	h.Push(MakeSnapshot(nil, nil, "a"))
	h.Undo(Snapshot{})
	h.Clear()
	if h.CanUndo() || h.CanRedo() {
		t.Error("clear should empty both stacks")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	orders := []model.OrderRow{{Color: "RED", Quantities: map[string]int{"32": 10}}}
	rolls := []model.Roll{{RollNo: "R1", Length: 50}}
	snap := MakeSnapshot(orders, rolls, "copy")

	orders[0].Quantities["32"] = 99
	orders[0].Color = "BLUE"
	rolls[0].Length = 1

	if snap.Orders[0].Quantities["32"] != 10 || snap.Orders[0].Color != "RED" {
		t.Errorf("snapshot orders changed with the source: %+v", snap.Orders[0])
	}
	if snap.Rolls[0].Length != 50 {
		t.Errorf("snapshot rolls changed with the source: %+v", snap.Rolls[0])
	}
}

func TestMakeSnapshotNil(t *testing.T) {
	snap := MakeSnapshot(nil, nil, "nil")
	if snap.Orders != nil || snap.Rolls != nil {
		t.Error("nil inputs should stay nil")
	}
}
