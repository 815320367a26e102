package seat

import "github.com/bnema/wlcore/internal/surface"

// KeyState mirrors wl_keyboard.key_state.
type KeyState int

const (
	KeyReleased KeyState = iota
	KeyPressed
)

// KeyboardListener is the per-client delegate for keyboard events (§4.3).
type KeyboardListener interface {
	KeyboardEnter(surf surface.ID, serial uint32)
	KeyboardLeave(serial uint32)
	KeyboardKey(serial, time, key uint32, state KeyState)
	KeyboardModifiers(depressed, latched, locked, group uint32)
}

type keyboardState struct {
	focused surface.ID
}

// KeyboardFocused returns the currently focused surface id, if any.
func (s *Seat) KeyboardFocused() (surface.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyboard.focused, s.keyboard.focused != 0
}

// SetFocusedKeyboardSurface moves keyboard focus, following the ordering
// contract of §4.3: leave(old, fresh serial), enter(new, serial), then the
// keyboard-refocus hook (selection/primary-selection resend, §4.5) before
// any key event is delivered.
func (s *Seat) SetFocusedKeyboardSurface(surf surface.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keyboard.focused == surf {
		return
	}

	if s.keyboard.focused != 0 {
		prev := s.keyboard.focused
		s.keyboard.focused = 0
		if l, ok := s.rt.KeyboardListenerFor(prev); ok {
			l.KeyboardLeave(s.lockedNextSerial())
		}
	}

	if surf != 0 {
		if _, ok := s.liveSurface(surf); !ok {
			return
		}
	}
	s.keyboard.focused = surf

	if surf == 0 {
		return
	}
	serial := s.lockedNextSerial()
	if l, ok := s.rt.KeyboardListenerFor(surf); ok {
		l.KeyboardEnter(surf, serial)
	}
	if s.keyboardRefocus != nil {
		s.keyboardRefocus(surf)
	}
}

// NotifyKeyboardKey delivers a key event to the focused client.
func (s *Seat) NotifyKeyboardKey(time, key uint32, state KeyState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceTime(time)
	if s.keyboard.focused == 0 {
		return
	}
	serial := s.lockedNextSerial()
	if l, ok := s.rt.KeyboardListenerFor(s.keyboard.focused); ok {
		l.KeyboardKey(serial, time, key, state)
	}
}

// NotifyKeyboardModifiers delivers a modifier-state change to the focused
// client and, independent of focus, to the modifiers hook so an active
// drag can re-run action negotiation (§4.6).
func (s *Seat) NotifyKeyboardModifiers(depressed, latched, locked, group uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modifiersHook != nil {
		s.modifiersHook(depressed, latched, locked, group)
	}
	if s.keyboard.focused == 0 {
		return
	}
	if l, ok := s.rt.KeyboardListenerFor(s.keyboard.focused); ok {
		l.KeyboardModifiers(depressed, latched, locked, group)
	}
}
