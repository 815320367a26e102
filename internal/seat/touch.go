package seat

import "github.com/bnema/wlcore/internal/surface"

// TouchListener is the per-client delegate for touch events (§4.3).
type TouchListener interface {
	TouchDown(surf surface.ID, id int32, serial uint32, x, y float64)
	TouchMotion(id int32, time uint32, x, y float64)
	TouchUp(id int32, serial uint32)
}

type touchPoint struct {
	surface    surface.ID
	startX     float64
	startY     float64
	downSerial uint32
}

type touchState struct {
	points map[int32]*touchPoint

	// dragSuppressed mirrors pointerState.dragSuppressed but for the touch
	// device currently driving a touch-initiated drag (§4.6).
	dragSuppressed bool
}

// SetTouchDragSuppressed toggles normal touch delivery suppression during
// an active touch-initiated drag.
func (s *Seat) SetTouchDragSuppressed(suppressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch.dragSuppressed = suppressed
}

// TouchFocused returns the surface a live touch point is associated with.
func (s *Seat) TouchFocused(id int32) (surface.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.touch.points[id]
	if !ok {
		return 0, false
	}
	return p.surface, true
}

// NotifyTouchDown begins a new touch point on surf. Multiple touch ids may
// reference the same surface; each is tracked independently keyed by its
// own id (§3 "Touch state").
func (s *Seat) NotifyTouchDown(surf surface.ID, id int32, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.liveSurface(surf); !ok {
		return
	}
	serial := s.lockedNextSerial()
	s.touch.points[id] = &touchPoint{surface: surf, startX: x, startY: y, downSerial: serial}

	if s.touch.dragSuppressed {
		return
	}
	if l, ok := s.rt.TouchListenerFor(surf); ok {
		l.TouchDown(surf, id, serial, x, y)
	}
}

// NotifyTouchMotion delivers motion for an in-contact touch point.
func (s *Seat) NotifyTouchMotion(time uint32, id int32, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceTime(time)

	p, ok := s.touch.points[id]
	if !ok || s.touch.dragSuppressed {
		return
	}
	if l, ok := s.rt.TouchListenerFor(p.surface); ok {
		l.TouchMotion(id, time, x, y)
	}
}

// NotifyTouchUp ends a touch point, delivering up and forgetting it.
func (s *Seat) NotifyTouchUp(id int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.touch.points[id]
	if !ok {
		return
	}
	delete(s.touch.points, id)

	if s.touch.dragSuppressed {
		return
	}
	serial := s.lockedNextSerial()
	if l, ok := s.rt.TouchListenerFor(p.surface); ok {
		l.TouchUp(id, serial)
	}
}

// TouchStillDown reports whether id is still in contact, for drag-start
// serial authorization (§4.6 "a touch-down that is still in contact").
func (s *Seat) TouchStillDown(id int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.touch.points[id]
	return ok
}

// AuthorizesTouchDrag reports whether serial matches the down-serial of a
// touch point still in contact, returning that touch point's id.
func (s *Seat) AuthorizesTouchDrag(serial uint32) (int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.touch.points {
		if p.downSerial == serial {
			return id, true
		}
	}
	return 0, false
}

// NoTouchesDown reports whether there are no live touch points at all, used
// by the "last touch up" drop trigger for touch-initiated drags (§4.6).
func (s *Seat) NoTouchesDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.touch.points) == 0
}
