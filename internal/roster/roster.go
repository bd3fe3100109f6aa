// Package roster describes the ordered set of model backends evaluated in a run.
package roster

import "fmt"

// Entry identifies one backend in the roster.
type Entry struct {
	ID          string
	DisplayName string
}

// Name returns the display name, falling back to the id.
func (e Entry) Name() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.ID
}

// Roster is the configured backend order. Every record of a run reports
// answers in this order.
type Roster []Entry

// IDs returns the backend ids in roster order.
func (r Roster) IDs() []string {
	ids := make([]string, 0, len(r))
	for _, entry := range r {
		ids = append(ids, entry.ID)
	}
	return ids
}

// Index returns the position of id, or -1.
func (r Roster) Index(id string) int {
	for i, entry := range r {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

// Validate checks that the roster is non-empty with unique, non-empty ids.
func (r Roster) Validate() error {
	if len(r) == 0 {
		return fmt.Errorf("roster is empty")
	}
	seen := make(map[string]struct{}, len(r))
	for i, entry := range r {
		if entry.ID == "" {
			return fmt.Errorf("roster[%d]: id is required", i)
		}
		if _, ok := seen[entry.ID]; ok {
			return fmt.Errorf("roster[%d]: duplicate id %q", i, entry.ID)
		}
		seen[entry.ID] = struct{}{}
	}
	return nil
}
