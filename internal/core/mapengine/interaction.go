package mapengine

// Phase is the drag state machine state.
type Phase int

const (
	Idle Phase = iota
	Dragging
)

// PointerEventType enumerates the gesture events the host runtime delivers.
type PointerEventType int

const (
	PointerDown PointerEventType = iota
	PointerMove
	PointerUp
	PointerLeave
)

// PointerEvent is a single pointer/touch event in viewport pixel space.
// Primary is false for secondary touches of a multi-touch gesture; the
// controller only pans on the primary pointer and ignores the rest.
type PointerEvent struct {
	Type    PointerEventType
	X       float64
	Y       float64
	Primary bool
}

// State bundles the viewport with the gesture machine state. Reduce is a
// pure function over it, so the controller is testable without a UI
// runtime and events are applied strictly in delivery order.
type State struct {
	View   Viewport
	Phase  Phase
	StartX float64
	StartY float64
}

// NewState returns an idle state over a fresh viewport.
func NewState(cfg Config) State {
	return State{View: NewViewport(cfg)}
}

// Reduce applies one pointer event and returns the next state.
//
// Idle --pointerDown--> Dragging, recording the gesture start.
// Dragging --pointerMove--> Dragging, dragOffset = current - start.
// Dragging --pointerUp|pointerLeave--> Idle, committing the drag.
//
// pointerLeave commits exactly like pointerUp so a pointer escaping the
// viewport can never leave the machine stuck mid-drag.
func Reduce(s State, e PointerEvent) State {
	if !e.Primary {
		return s
	}

	switch s.Phase {
	case Idle:
		if e.Type == PointerDown {
			s.Phase = Dragging
			s.StartX = e.X
			s.StartY = e.Y
			s.View.DragOffset = Offset{}
		}

	case Dragging:
		switch e.Type {
		case PointerMove:
			s.View.DragOffset = Offset{DX: e.X - s.StartX, DY: e.Y - s.StartY}
		case PointerUp, PointerLeave:
			s.View.CommitDrag()
			s.Phase = Idle
			s.StartX, s.StartY = 0, 0
		}
	}

	return s
}

// ZoomIn steps zoom without touching the drag machine; it is valid in
// either phase and does not cancel an active drag.
func (s State) ZoomIn() State {
	s.View.ZoomIn()
	return s
}

// ZoomOut steps zoom out, preserving any active drag.
func (s State) ZoomOut() State {
	s.View.ZoomOut()
	return s
}

// Reset restores the default view. Like the zoom controls it leaves the
// gesture phase alone: an active drag keeps running and its next move
// event rebuilds the offset from the recorded start.
func (s State) Reset() State {
	s.View.Reset()
	return s
}
