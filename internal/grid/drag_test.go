package grid

import "testing"

func TestDrag_SelectsAllVisitedCells(t *testing.T) {
	sel := NewSelection(0)
	// Pre-select a cell the gesture will pass over.
	sel.Select(Cell{0, 2})

	d := NewDragController(sel)
	if mode := d.Down(Cell{0, 0}); mode != DragSelecting {
		t.Fatalf("Down on unselected cell = %v, want selecting", mode)
	}
	d.Enter(Cell{0, 1})
	d.Enter(Cell{0, 2})
	d.Enter(Cell{0, 3})
	d.Up()

	for slot := 0; slot <= 3; slot++ {
		if !sel.IsSelected(Cell{0, TimeSlot(slot)}) {
			t.Errorf("slot %d should be selected", slot)
		}
	}
	if sel.Size() != 4 {
		t.Errorf("Size() = %d, want 4", sel.Size())
	}
	if d.Dragging() {
		t.Error("controller should be idle after Up")
	}
}

func TestDrag_DeselectsAllVisitedCells(t *testing.T) {
	sel := NewSelection(0)
	sel.Select(Cell{1, 0})
	sel.Select(Cell{1, 1})

	d := NewDragController(sel)
	if mode := d.Down(Cell{1, 0}); mode != DragDeselecting {
		t.Fatalf("Down on selected cell = %v, want deselecting", mode)
	}
	d.Enter(Cell{1, 1})
	d.Enter(Cell{1, 2}) // already unselected, stays unselected
	d.Up()

	if sel.Size() != 0 {
		t.Errorf("Size() = %d, want 0", sel.Size())
	}
}

func TestDrag_EnterWhileIdleIsNoop(t *testing.T) {
	sel := NewSelection(0)
	d := NewDragController(sel)

	d.Enter(Cell{2, 2})
	if sel.Size() != 0 {
		t.Errorf("Size() = %d, want 0", sel.Size())
	}

	d.Down(Cell{2, 2})
	d.Up()
	d.Enter(Cell{2, 3})
	if sel.IsSelected(Cell{2, 3}) {
		t.Error("Enter after Up must not select")
	}
}

func TestDrag_OutsideGridIsNoop(t *testing.T) {
	sel := NewSelection(0)
	d := NewDragController(sel)

	if mode := d.Down(Cell{Day: -1, Slot: 0}); mode != DragIdle {
		t.Errorf("Down outside grid = %v, want idle", mode)
	}

	d.Down(Cell{0, 0})
	d.Enter(Cell{Day: 7, Slot: 0})
	d.Enter(Cell{Day: 0, Slot: 20})
	if d.Mode() != DragSelecting {
		t.Errorf("mode = %v, want selecting after leaving grid", d.Mode())
	}
	d.Enter(Cell{0, 1})
	d.Up()

	if sel.Size() != 2 {
		t.Errorf("Size() = %d, want 2", sel.Size())
	}
}

func TestDrag_ModeLockedAtStart(t *testing.T) {
	sel := NewSelection(0)
	sel.Select(Cell{3, 5})
	d := NewDragController(sel)

	// Starting on an unselected cell keeps selecting even across a selected one.
	d.Down(Cell{3, 4})
	d.Enter(Cell{3, 5})
	d.Enter(Cell{3, 6})
	d.Up()
	for _, slot := range []TimeSlot{4, 5, 6} {
		if !sel.IsSelected(Cell{3, slot}) {
			t.Errorf("slot %d should be selected", slot)
		}
	}
}

func TestDrag_UpWithoutDownIsSafe(t *testing.T) {
	d := NewDragController(NewSelection(0))
	d.Up()
	d.Up()
	if d.Mode() != DragIdle {
		t.Errorf("mode = %v, want idle", d.Mode())
	}
}

func TestDragMode_String(t *testing.T) {
	tests := map[DragMode]string{
		DragIdle:        "idle",
		DragSelecting:   "selecting",
		DragDeselecting: "deselecting",
	}
	for mode, want := range tests {
		if got := mode.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", mode, got, want)
		}
	}
}
