// Package history records reversible mutations of the stroke collection
// as do/undo command pairs on a bounded undo stack.
package history

// Command is a reversible action. Do and Undo must be safe to invoke
// exactly once per do/undo cycle; the stack guarantees they are never
// called out of order.
type Command interface {
	Do()
	Undo()
	// Action is a short tag describing the command ("add-stroke",
	// "clear", ...) used for logging and debugging.
	Action() string
}

// Func builds a Command from a pair of closures.
type Func struct {
	Tag    string
	DoFn   func()
	UndoFn func()
}

func (f Func) Do() {
	if f.DoFn != nil {
		f.DoFn()
	}
}

func (f Func) Undo() {
	if f.UndoFn != nil {
		f.UndoFn()
	}
}

func (f Func) Action() string { return f.Tag }

// DefaultLimit is how many commands the done stack keeps before the
// oldest entries are evicted and become permanently non-undoable.
const DefaultLimit = 50

// Stack is a bounded undo/redo stack. It is not safe for concurrent use;
// the engine drives it from a single goroutine.
type Stack struct {
	done  []Command
	redo  []Command
	limit int
}

// NewStack creates a Stack bounded at limit commands. A limit <= 0 falls
// back to DefaultLimit.
func NewStack(limit int) *Stack {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Stack{limit: limit}
}

// Push executes cmd.Do, records the command, and invalidates the redo
// stack. If the bound is exceeded the oldest command is dropped silently:
// a deliberate memory cap, not an error.
func (s *Stack) Push(cmd Command) {
	cmd.Do()
	s.done = append(s.done, cmd)
	if len(s.done) > s.limit {
		copy(s.done, s.done[1:])
		s.done[len(s.done)-1] = nil
		s.done = s.done[:len(s.done)-1]
	}
	s.redo = s.redo[:0]
}

// Undo reverses the most recent command. A no-op on an empty stack.
func (s *Stack) Undo() {
	if len(s.done) == 0 {
		return
	}
	cmd := s.done[len(s.done)-1]
	s.done = s.done[:len(s.done)-1]
	cmd.Undo()
	s.redo = append(s.redo, cmd)
}

// Redo re-applies the most recently undone command. A no-op on an empty
// redo stack.
func (s *Stack) Redo() {
	if len(s.redo) == 0 {
		return
	}
	cmd := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	cmd.Do()
	s.done = append(s.done, cmd)
}

// CanUndo reports whether an Undo would have any effect.
func (s *Stack) CanUndo() bool { return len(s.done) > 0 }

// CanRedo reports whether a Redo would have any effect.
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }

// Len returns the number of undoable commands.
func (s *Stack) Len() int { return len(s.done) }

// Clear empties both stacks. Used when switching pages; history is never
// shared across pages.
func (s *Stack) Clear() {
	s.done = nil
	s.redo = nil
}
