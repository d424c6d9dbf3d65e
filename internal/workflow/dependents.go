package workflow

import (
	"fmt"
	"strings"
)

// AddDependent appends one blank name entry to the booking form.
func (w *Workflow) AddDependent() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dependents = append(w.dependents, "")
}

// RemoveDependent removes the entry at index. The list never shrinks below
// one entry; removing the last one fails with ErrLastDependent.
func (w *Workflow) RemoveDependent(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if index < 0 || index >= len(w.dependents) {
		return fmt.Errorf("workflow: dependent index %d out of range", index)
	}
	if len(w.dependents) == 1 {
		return ErrLastDependent
	}
	w.dependents = append(w.dependents[:index], w.dependents[index+1:]...)
	return nil
}

// SetDependentName updates the entry at index in place. Names are not
// validated until submission.
func (w *Workflow) SetDependentName(index int, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if index < 0 || index >= len(w.dependents) {
		return fmt.Errorf("workflow: dependent index %d out of range", index)
	}
	w.dependents[index] = name
	return nil
}

// Dependents returns a copy of the entered names, blanks included.
func (w *Workflow) Dependents() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.dependents...)
}

// trimmedNonEmpty filters the entered names down to the list that would be
// submitted, preserving order. Duplicates are allowed.
func trimmedNonEmpty(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
