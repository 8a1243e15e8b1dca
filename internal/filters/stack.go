package filters

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

var (
	ErrUnknownFilter = errors.New("unknown filter")
	ErrEntryNotFound = errors.New("filter entry not found")
)

// Entry is one filter in a stack.
type Entry struct {
	ID     string  `json:"id"`
	Kind   Kind    `json:"kind"`
	Amount float64 `json:"amount"` // blend weight, 0-100
}

// Apply runs entries over a copy of src in order. Entries with Amount <= 0 or an
// unregistered Kind are skipped; an empty stack returns an identical copy.
func Apply(src raster.PixelBuffer, entries []Entry) *raster.Buffer {
	work := raster.Copy(src)
	for _, e := range entries {
		amount := clampAmount(e.Amount)
		if amount == 0 {
			continue
		}
		fn, ok := Lookup(e.Kind)
		if !ok {
			continue
		}
		work = blend(work, fn(work), amount/100)
	}
	return work
}

// blend interpolates every channel of orig toward filtered by a.
func blend(orig, filtered *raster.Buffer, a float64) *raster.Buffer {
	if a >= 1 {
		return filtered
	}
	out := raster.New(orig.Width, orig.Height)
	for i := range out.Pix {
		out.Pix[i] = raster.Lerp(orig.Pix[i], filtered.Pix[i], a)
	}
	return out
}

func clampAmount(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Validate reports the first entry whose Kind is not registered.
func Validate(entries []Entry) error {
	for _, e := range entries {
		if _, ok := Lookup(e.Kind); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFilter, e.Kind)
		}
	}
	return nil
}

// Stack is a mutable, ordered filter list. It is not safe for concurrent use;
// a studio session owns exactly one.
type Stack struct {
	entries []Entry
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// NewStackFrom builds a stack from existing entries, assigning IDs where missing.
func NewStackFrom(entries []Entry) (*Stack, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}
	s := &Stack{entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.Amount = clampAmount(e.Amount)
		s.entries = append(s.entries, e)
	}
	return s, nil
}

// Add appends a filter at the end of the stack.
func (s *Stack) Add(kind Kind, amount float64) (Entry, error) {
	if _, ok := Lookup(kind); !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownFilter, kind)
	}
	e := Entry{ID: uuid.NewString(), Kind: kind, Amount: clampAmount(amount)}
	s.entries = append(s.entries, e)
	return e, nil
}

// Remove deletes the entry with id.
func (s *Stack) Remove(id string) error {
	i, err := s.index(id)
	if err != nil {
		return err
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return nil
}

// MoveUp swaps the entry with its predecessor. The first entry stays put.
func (s *Stack) MoveUp(id string) error {
	i, err := s.index(id)
	if err != nil {
		return err
	}
	if i > 0 {
		s.entries[i-1], s.entries[i] = s.entries[i], s.entries[i-1]
	}
	return nil
}

// MoveDown swaps the entry with its successor. The last entry stays put.
func (s *Stack) MoveDown(id string) error {
	i, err := s.index(id)
	if err != nil {
		return err
	}
	if i < len(s.entries)-1 {
		s.entries[i+1], s.entries[i] = s.entries[i], s.entries[i+1]
	}
	return nil
}

// SetAmount changes the blend weight of an entry, clamped to [0,100].
func (s *Stack) SetAmount(id string, amount float64) error {
	i, err := s.index(id)
	if err != nil {
		return err
	}
	s.entries[i].Amount = clampAmount(amount)
	return nil
}

// Entries returns a copy of the stack contents in application order.
func (s *Stack) Entries() []Entry {
	return append([]Entry{}, s.entries...)
}

// Len returns the number of entries.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Apply runs the stack over src.
func (s *Stack) Apply(src raster.PixelBuffer) *raster.Buffer {
	return Apply(src, s.entries)
}

func (s *Stack) index(id string) (int, error) {
	i := slices.IndexFunc(s.entries, func(e Entry) bool { return e.ID == id })
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return i, nil
}
