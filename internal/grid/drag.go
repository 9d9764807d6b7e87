package grid

// DragMode is the intent locked in for the duration of one gesture.
type DragMode int

const (
	DragIdle DragMode = iota
	DragSelecting
	DragDeselecting
)

func (m DragMode) String() string {
	switch m {
	case DragSelecting:
		return "selecting"
	case DragDeselecting:
		return "deselecting"
	default:
		return "idle"
	}
}

// DragController turns pointer gestures (down, enter, up) into selection
// mutations. The mode is decided once on Down from the starting cell and
// then applied to every cell entered until Up.
type DragController struct {
	sel  *Selection
	mode DragMode
}

// NewDragController returns an idle controller driving sel.
func NewDragController(sel *Selection) *DragController {
	return &DragController{sel: sel}
}

// Mode returns the current drag mode.
func (d *DragController) Mode() DragMode {
	return d.mode
}

// Dragging reports whether a gesture is in progress.
// Callers suppress text selection and similar defaults while true.
func (d *DragController) Dragging() bool {
	return d.mode != DragIdle
}

// Down starts a gesture on c. A press on a cell outside the grid does not
// start a gesture.
func (d *DragController) Down(c Cell) DragMode {
	if !c.Valid() {
		return d.mode
	}
	if d.sel.IsSelected(c) {
		d.mode = DragDeselecting
	} else {
		d.mode = DragSelecting
	}
	d.apply(c)
	return d.mode
}

// Enter applies the locked mode to c. It is a no-op while idle or when c
// lies outside the grid.
func (d *DragController) Enter(c Cell) {
	if d.mode == DragIdle || !c.Valid() {
		return
	}
	d.apply(c)
}

// Up ends the gesture. It is safe to call when no gesture is active, which
// covers releases delivered outside the grid.
func (d *DragController) Up() {
	d.mode = DragIdle
}

func (d *DragController) apply(c Cell) {
	switch d.mode {
	case DragSelecting:
		d.sel.Select(c)
	case DragDeselecting:
		d.sel.Deselect(c)
	}
}
