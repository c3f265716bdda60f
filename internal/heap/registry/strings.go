package registry

import (
	"fmt"

	"github.com/mabhi256/hangdiag/internal/heap/model"
)

// StringRegistry holds the UTF8 records of the dump (class, method and field names).
type StringRegistry struct {
	*BaseRegistry[model.ID, string]
}

func NewStringRegistry() *StringRegistry {
	return &StringRegistry{
		BaseRegistry: NewBaseRegistry[model.ID, string](),
	}
}

// GetOrUnresolved returns the string value or a fallback for unresolved IDs
func (r *StringRegistry) GetOrUnresolved(stringID model.ID) string {
	if str, exists := r.Get(stringID); exists {
		return str
	}
	return fmt.Sprintf("unresolved_string_0x%x", uint64(stringID))
}
