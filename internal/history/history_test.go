package history

import (
	"fmt"
	"testing"
)

// addCmd appends/removes a value on a shared slice, standing in for the
// add-stroke command.
func addCmd(log *[]string, v string) Command {
	return Func{
		Tag:    "add-stroke",
		DoFn:   func() { *log = append(*log, v) },
		UndoFn: func() { *log = (*log)[:len(*log)-1] },
	}
}

func TestPushExecutesImmediately(t *testing.T) {
	var log []string
	s := NewStack(0)
	s.Push(addCmd(&log, "a"))
	if len(log) != 1 || log[0] != "a" {
		t.Fatalf("Do was not executed on Push, log=%v", log)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	var log []string
	s := NewStack(0)

	const n = 10
	for i := 0; i < n; i++ {
		s.Push(addCmd(&log, fmt.Sprintf("s%d", i)))
	}
	if len(log) != n {
		t.Fatalf("expected %d entries, got %d", n, len(log))
	}

	for i := 0; i < n; i++ {
		s.Undo()
	}
	if len(log) != 0 {
		t.Fatalf("undoing everything should empty the collection, got %v", log)
	}

	for i := 0; i < n; i++ {
		s.Redo()
	}
	if len(log) != n {
		t.Fatalf("redoing everything should restore %d entries, got %d", n, len(log))
	}
	for i, v := range log {
		if want := fmt.Sprintf("s%d", i); v != want {
			t.Errorf("entry %d = %q, want %q", i, v, want)
		}
	}
}

func TestUnderflowIsNoop(t *testing.T) {
	s := NewStack(0)
	s.Undo() // must not panic
	s.Redo()
	if s.CanUndo() || s.CanRedo() {
		t.Error("empty stack should report nothing to undo/redo")
	}
}

func TestPushInvalidatesRedo(t *testing.T) {
	var log []string
	s := NewStack(0)
	s.Push(addCmd(&log, "a"))
	s.Push(addCmd(&log, "b"))
	s.Undo()
	if !s.CanRedo() {
		t.Fatal("expected redo to be available after undo")
	}
	s.Push(addCmd(&log, "c"))
	if s.CanRedo() {
		t.Error("new command must clear the redo stack")
	}
	if len(log) != 2 || log[1] != "c" {
		t.Errorf("unexpected collection state: %v", log)
	}
}

func TestEvictionBound(t *testing.T) {
	var log []string
	s := NewStack(50)
	for i := 0; i < 51; i++ {
		s.Push(addCmd(&log, fmt.Sprintf("s%d", i)))
	}
	if s.Len() != 50 {
		t.Fatalf("done stack holds %d commands, want 50", s.Len())
	}

	// Undo everything that is still undoable: the first command's effect
	// must survive because it was evicted.
	for s.CanUndo() {
		s.Undo()
	}
	if len(log) != 1 || log[0] != "s0" {
		t.Errorf("oldest action should be unrecoverable via undo, log=%v", log)
	}
}

func TestClear(t *testing.T) {
	var log []string
	s := NewStack(0)
	s.Push(addCmd(&log, "a"))
	s.Undo()
	s.Clear()
	if s.CanUndo() || s.CanRedo() {
		t.Error("Clear should drop both stacks")
	}
}
