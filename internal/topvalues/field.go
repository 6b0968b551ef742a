package topvalues

import (
	"github.com/hupe1980/fvcache/index"
)

// FieldValues identifies a cached field: its name and the type it is read as.
type FieldValues struct {
	Field string
	Type  index.ValueType
}

// Key returns the registry key of f.
func (f FieldValues) Key() string {
	return f.Field + "\x00" + f.Type.String()
}

func (f FieldValues) String() string {
	return f.Field + ":" + f.Type.String()
}
