package history

import "fmt"

// StructuralError reports a match record missing a field at a participant slot
type StructuralError struct {
	GameID int64
	Slot   int
	Field  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("match %d slot %d: missing %s", e.GameID, e.Slot, e.Field)
}
