package topvalues

import (
	"fmt"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/internal/slot"
)

// LeafDescription describes one built leaf.
type LeafDescription struct {
	Segment   index.SegmentID `json:"segment"`
	Kind      string          `json:"kind"`
	Bits      int             `json:"bits"`
	SizeBytes int64           `json:"size_bytes"`
	Refs      int64           `json:"refs"`
}

// Description is a snapshot of a TopValues for introspection.
type Description struct {
	Field     string            `json:"field"`
	Type      string            `json:"type"`
	Segments  int               `json:"segments"`
	Ready     int               `json:"ready"`
	Carried   int               `json:"carried"`
	Failed    int               `json:"failed"`
	SizeBytes int64             `json:"size_bytes"`
	Leaves    []LeafDescription `json:"leaves,omitempty"`
}

func (d Description) String() string {
	return fmt.Sprintf("%s:%s segments=%d ready=%d carried=%d failed=%d size=%d",
		d.Field, d.Type, d.Segments, d.Ready, d.Carried, d.Failed, d.SizeBytes)
}

// Describe returns a snapshot of t.
func (t *TopValues) Describe() Description {
	t.mu.Lock()
	defer t.mu.Unlock()

	d := Description{
		Field:    t.fv.Field,
		Type:     t.fv.Type.String(),
		Segments: len(t.segments),
		Carried:  t.carried,
	}
	for ord, s := range t.slots {
		if s == nil {
			continue
		}
		switch s.State() {
		case slot.Ready:
			l, _ := s.Value()
			d.Ready++
			d.SizeBytes += l.SizeInBytes()
			d.Leaves = append(d.Leaves, LeafDescription{
				Segment:   t.segments[ord].ID(),
				Kind:      l.Kind().String(),
				Bits:      l.BitsPerValue(),
				SizeBytes: l.SizeInBytes(),
				Refs:      l.Refs(),
			})
		case slot.Failed:
			d.Failed++
		}
	}
	return d
}

// Describe returns a snapshot of every published field, ordered by key.
func (r *Registry) Describe() []Description {
	fields := r.Fields()
	out := make([]Description, 0, len(fields))
	for _, t := range fields {
		out = append(out, t.Describe())
		t.DecRef()
	}
	return out
}
