package grid

// DefaultBlockLength is the run of contiguous hours the poll asks for.
const DefaultBlockLength = 3

// SelectionState is the derived view published after every mutation.
type SelectionState struct {
	Size     int  // Number of selected cells
	HasBlock bool // Some day has a contiguous run of BlockLength slots
}

// ShowWarning reports whether the "no contiguous block" warning applies.
// An empty selection never warns.
func (s SelectionState) ShowWarning() bool {
	return s.Size > 0 && !s.HasBlock
}

// Selection is the set of currently selected cells for one session.
// It is owned by a single event loop and is not safe for concurrent use.
type Selection struct {
	cells       [NumCells]bool
	size        int
	blockLength int
	subscribers []func(SelectionState)
}

// NewSelection returns an empty selection that checks for runs of blockLength.
// A non-positive blockLength falls back to DefaultBlockLength.
func NewSelection(blockLength int) *Selection {
	if blockLength <= 0 {
		blockLength = DefaultBlockLength
	}
	return &Selection{blockLength: blockLength}
}

// Subscribe registers fn to be called with the derived state after every
// mutation that changes the set.
func (s *Selection) Subscribe(fn func(SelectionState)) {
	s.subscribers = append(s.subscribers, fn)
}

// Toggle inserts the cell if absent, removes it otherwise.
// Cells outside the grid are ignored.
func (s *Selection) Toggle(c Cell) {
	if !c.Valid() {
		return
	}
	s.set(c, !s.cells[c.index()])
}

// Select inserts the cell. Selecting a selected cell changes nothing.
func (s *Selection) Select(c Cell) {
	if !c.Valid() {
		return
	}
	s.set(c, true)
}

// Deselect removes the cell. Deselecting an unselected cell changes nothing.
func (s *Selection) Deselect(c Cell) {
	if !c.Valid() {
		return
	}
	s.set(c, false)
}

// IsSelected returns true if the cell is in the set.
func (s *Selection) IsSelected(c Cell) bool {
	if !c.Valid() {
		return false
	}
	return s.cells[c.index()]
}

// Size returns the number of selected cells.
func (s *Selection) Size() int {
	return s.size
}

// Clear empties the set.
func (s *Selection) Clear() {
	if s.size == 0 {
		return
	}
	s.cells = [NumCells]bool{}
	s.size = 0
	s.notify()
}

// Cells returns the selected cells, day-major then chronological.
func (s *Selection) Cells() []Cell {
	out := make([]Cell, 0, s.size)
	for i, on := range s.cells {
		if on {
			out = append(out, cellAt(i))
		}
	}
	return out
}

// State returns the derived state for the current contents.
func (s *Selection) State() SelectionState {
	return SelectionState{
		Size:     s.size,
		HasBlock: HasConsecutiveBlock(s, s.blockLength),
	}
}

// BlockLength returns the run length the selection checks for.
func (s *Selection) BlockLength() int {
	return s.blockLength
}

func (s *Selection) set(c Cell, on bool) {
	idx := c.index()
	if s.cells[idx] == on {
		return
	}
	s.cells[idx] = on
	if on {
		s.size++
	} else {
		s.size--
	}
	s.notify()
}

func (s *Selection) notify() {
	if len(s.subscribers) == 0 {
		return
	}
	state := s.State()
	for _, fn := range s.subscribers {
		fn(state)
	}
}

// Membership is the read side of a selection.
type Membership interface {
	IsSelected(c Cell) bool
}

// HasConsecutiveBlock rescans every day column in chronological order and
// reports whether any column holds n selected slots in a row.
func HasConsecutiveBlock(sel Membership, n int) bool {
	if n <= 0 {
		return true
	}
	for _, day := range Weekdays() {
		run := 0
		for _, slot := range TimeSlots() {
			if !sel.IsSelected(Cell{Day: day, Slot: slot}) {
				run = 0
				continue
			}
			run++
			if run >= n {
				return true
			}
		}
	}
	return false
}
