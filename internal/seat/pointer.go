package seat

import (
	"github.com/bnema/wlcore/internal/constraints"
	"github.com/bnema/wlcore/internal/surface"
)

// ButtonState mirrors wl_pointer.button_state.
type ButtonState int

const (
	ButtonReleased ButtonState = iota
	ButtonPressed
)

// AxisSource mirrors wl_pointer.axis_source.
type AxisSource int

const (
	AxisSourceWheel AxisSource = iota
	AxisSourceFinger
	AxisSourceContinuous
	AxisSourceWheelTilt
)

// Axis selects the scroll axis.
type Axis int

const (
	AxisVertical Axis = iota
	AxisHorizontal
)

// PointerListener is the per-client delegate for pointer events (§4.3).
type PointerListener interface {
	PointerEnter(surf surface.ID, sx, sy float64, serial uint32)
	PointerLeave(serial uint32)
	PointerMotion(time uint32, sx, sy float64)
	PointerButton(serial, time, button uint32, state ButtonState)
	PointerAxis(time uint32, axis Axis, value float64, discrete int32, source AxisSource)
	PointerFrame()
}

type pointerState struct {
	focused       surface.ID
	sx, sy        float64
	buttons       map[uint32]bool
	buttonSerials map[uint32]uint32

	// dragSuppressed is true while a drag-and-drop session owns this
	// pointer's event stream (§4.6 "During the drag: all normal pointer...
	// event delivery to clients is suppressed").
	dragSuppressed bool
}

// PointerFocused returns the currently focused surface id, if any.
func (s *Seat) PointerFocused() (surface.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer.focused, s.pointer.focused != 0
}

// SetPointerDragSuppressed toggles whether normal pointer delivery is
// suppressed in favor of DataDevice drag routing (§4.6).
func (s *Seat) SetPointerDragSuppressed(suppressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointer.dragSuppressed = suppressed
}

// NotifyPointerEnter moves pointer focus to surf, leaving the previous
// focus first (§3 "at most one focused surface; entering a new surface
// first leaves the old one").
func (s *Seat) NotifyPointerEnter(surf surface.ID, sx, sy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pointer.focused == surf {
		s.pointer.sx, s.pointer.sy = sx, sy
		return
	}
	s.lockedLeavePointer()

	if _, ok := s.liveSurface(surf); !ok {
		return
	}
	s.pointer.focused = surf
	s.pointer.sx, s.pointer.sy = sx, sy

	if s.pointer.dragSuppressed {
		return
	}
	if l, ok := s.rt.PointerListenerFor(surf); ok {
		serial := s.lockedNextSerial()
		l.PointerEnter(surf, sx, sy, serial)
	}
}

// NotifyPointerLeave clears pointer focus, delivering leave to the current
// holder if any.
func (s *Seat) NotifyPointerLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockedLeavePointer()
}

func (s *Seat) lockedLeavePointer() {
	if s.pointer.focused == 0 {
		return
	}
	prev := s.pointer.focused
	s.pointer.focused = 0
	// Focus leaving the surface is itself a deactivation trigger for any
	// constraint bound to it (§4.4 "Deactivation triggers").
	if s.constraints != nil {
		if c, ok := s.constraints.Lookup(prev); ok && c.Active() {
			c.Deactivate()
		}
	}
	if s.pointer.dragSuppressed {
		return
	}
	if l, ok := s.rt.PointerListenerFor(prev); ok {
		serial := s.lockedNextSerial()
		l.PointerLeave(serial)
	}
}

// lockedPointerFocusTarget returns the currently focused surface id, or
// ok=false if there is none or it has since been destroyed — clearing the
// stale focus in the latter case so later calls don't keep rechecking it
// (§4.3 "Failure semantics: events delivered to a non-existent or destroyed
// focused surface are dropped silently").
func (s *Seat) lockedPointerFocusTarget() (surface.ID, bool) {
	if s.pointer.focused == 0 {
		return 0, false
	}
	if _, ok := s.liveSurface(s.pointer.focused); !ok {
		s.pointer.focused = 0
		return 0, false
	}
	return s.pointer.focused, true
}

// NotifyPointerMotion updates the pointer position and delivers motion to
// the focused client (§4.3 ordering: motion precedes button precedes axis
// precedes frame-end within a frame). An active pointer constraint on the
// focused surface clamps or suppresses the motion before delivery (§4.4).
func (s *Seat) NotifyPointerMotion(time uint32, sx, sy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceTime(time)

	focused, ok := s.lockedPointerFocusTarget()
	if !ok || s.pointer.dragSuppressed {
		return
	}

	if s.constraints != nil {
		if c, ok := s.constraints.Lookup(focused); ok && c.Active() {
			if c.Variant() == constraints.VariantLock {
				// Lock: motion is suppressed entirely; the reported
				// position stays pinned at activation (§4.4).
				return
			}
			surf, ok := s.liveSurface(focused)
			if !ok {
				return
			}
			cx, cy, ok := c.ClampConfine(surf, sx, sy)
			if !ok {
				// Outside the confine region: the position does not update.
				return
			}
			sx, sy = cx, cy
		}
	}

	s.pointer.sx, s.pointer.sy = sx, sy
	if l, ok := s.rt.PointerListenerFor(focused); ok {
		l.PointerMotion(time, sx, sy)
	}
}

// NotifyPointerButton records a fresh serial on press (remembered for
// later drag/move authorization) and delivers the button event.
func (s *Seat) NotifyPointerButton(time, button uint32, state ButtonState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceTime(time)

	var serial uint32
	if state == ButtonPressed {
		serial = s.lockedNextSerial()
		s.pointer.buttons[button] = true
		s.pointer.buttonSerials[button] = serial
	} else {
		serial = s.pointer.buttonSerials[button]
		delete(s.pointer.buttons, button)
	}

	focused, ok := s.lockedPointerFocusTarget()
	if !ok || s.pointer.dragSuppressed {
		return
	}
	if l, ok := s.rt.PointerListenerFor(focused); ok {
		l.PointerButton(serial, time, button, state)
	}
}

// ButtonPressSerial returns the serial recorded for button's most recent
// press, for drag-start authorization (§4.6 "Initiation").
func (s *Seat) ButtonPressSerial(button uint32) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pressed := s.pointer.buttons[button]
	serial, ok := s.pointer.buttonSerials[button]
	return serial, ok && pressed
}

// AuthorizesPointerDrag reports whether serial matches a button press whose
// button is still held down (§4.6 "Serial authorization: ... a pointer-
// button press whose button is still pressed").
func (s *Seat) AuthorizesPointerDrag(serial uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for button, pressed := range s.pointer.buttons {
		if pressed && s.pointer.buttonSerials[button] == serial {
			return true
		}
	}
	return false
}

// NotifyPointerAxis delivers a scroll/axis event to the focused client.
func (s *Seat) NotifyPointerAxis(time uint32, axis Axis, value float64, discrete int32, source AxisSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceTime(time)
	focused, ok := s.lockedPointerFocusTarget()
	if !ok || s.pointer.dragSuppressed {
		return
	}
	if l, ok := s.rt.PointerListenerFor(focused); ok {
		l.PointerAxis(time, axis, value, discrete, source)
	}
}

// NotifyPointerFrame closes out a burst of motion/button/axis as one
// protocol-visible grouping boundary (§4.3).
func (s *Seat) NotifyPointerFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	focused, ok := s.lockedPointerFocusTarget()
	if !ok || s.pointer.dragSuppressed {
		return
	}
	if l, ok := s.rt.PointerListenerFor(focused); ok {
		l.PointerFrame()
	}
}

func (s *Seat) lockedNextSerial() uint32 {
	s.serial++
	return s.serial
}
