// Package seat implements the Seat abstraction: capability advertisement,
// the monotonic serial/timestamp pair every authorized request is checked
// against, and pointer/keyboard/touch focus routing on top of a
// surface.Compositor. It mirrors the teacher's Coordinator pattern (state
// tracking layered over a thin delegate interface) generalized from mouse
// events to the full Wayland input surface.
package seat

import (
	"sync"

	"github.com/bnema/wlcore/internal/constraints"
	"github.com/bnema/wlcore/internal/logger"
	"github.com/bnema/wlcore/internal/surface"
	"github.com/bnema/wlcore/internal/wlerr"
)

// Capability is a bit in the seat's advertised capability set (§3 "Seat").
type Capability uint32

const (
	CapabilityPointer Capability = 1 << iota
	CapabilityKeyboard
	CapabilityTouch
)

// Router resolves which client-facing listener owns a given surface. It
// stands in for the client/resource-binding layer a real wire
// implementation would have; the host dispatcher (in this repo, the demo
// router in cmd/compositord) implements it.
type Router interface {
	PointerListenerFor(surfaceID surface.ID) (PointerListener, bool)
	KeyboardListenerFor(surfaceID surface.ID) (KeyboardListener, bool)
	TouchListenerFor(surfaceID surface.ID) (TouchListener, bool)
}

// Seat is the compositor's single point of input-focus truth (§3, §4.3).
type Seat struct {
	mu sync.Mutex

	name string
	caps Capability
	comp *surface.Compositor
	rt   Router

	serial    uint32
	timestamp uint32

	pointer  pointerState
	keyboard keyboardState
	touch    touchState

	// constraints, if set, is consulted on every pointer motion/focus-leave
	// to apply an active Lock/Confine constraint (§4.4). Nil means no
	// constraints subsystem is wired in, e.g. in tests that don't need one.
	constraints *constraints.Registry

	// keyboardRefocus is invoked after a new keyboard-focus enter is
	// delivered and before any key event, so the datadevice subsystem can
	// resend the current selection/primary-selection offers (§4.3
	// "Contracts", §4.5 "Refocus behavior").
	keyboardRefocus func(client surface.ID)

	// modifiersHook is invoked on every modifier change, independent of
	// keyboard focus (§4.6 modifier-driven action renegotiation).
	modifiersHook func(depressed, latched, locked, group uint32)
}

// SetModifiersHook installs the callback driven on every modifier change,
// used by the DnD action-negotiation machinery.
func (s *Seat) SetModifiersHook(fn func(depressed, latched, locked, group uint32)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modifiersHook = fn
}

// SetConstraints wires a PointerConstraints registry into pointer-motion
// delivery and focus-leave handling (§4.4).
func (s *Seat) SetConstraints(r *constraints.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constraints = r
}

// New creates a Seat with the given name, advertised capabilities, and
// compositor for surface-existence checks.
func New(name string, caps Capability, comp *surface.Compositor, rt Router) *Seat {
	s := &Seat{
		name: name,
		caps: caps,
		comp: comp,
		rt:   rt,
	}
	s.pointer.buttons = make(map[uint32]bool)
	s.pointer.buttonSerials = make(map[uint32]uint32)
	s.touch.points = make(map[int32]*touchPoint)
	return s
}

// Name returns the seat's advertised name.
func (s *Seat) Name() string { return s.name }

// Capabilities returns the currently advertised capability bitset.
func (s *Seat) Capabilities() Capability {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caps
}

// SetCapabilities re-broadcasts a capability change (§3 "Lifecycle:
// capability changes re-broadcast"). The actual broadcast to bound clients
// is the host dispatcher's job; this just updates the authoritative value.
func (s *Seat) SetCapabilities(caps Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caps = caps
}

// SetKeyboardRefocusHook installs the callback driven on every keyboard
// focus change, after enter is delivered, before key events (§4.3, §4.5).
func (s *Seat) SetKeyboardRefocusHook(fn func(client surface.ID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyboardRefocus = fn
}

// NextSerial issues a fresh monotonically increasing serial.
func (s *Seat) NextSerial() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serial++
	return s.serial
}

// LatestSerial returns the most recently issued serial, for diagnostics and
// stale-serial logging.
func (s *Seat) LatestSerial() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serial
}

// IsIssuedSerial reports whether serial is one the seat has previously
// issued (§3 "a serial the seat previously issued; stale serials are
// ignored, not errors" — unknown/future serials fail this check and the
// caller drops the request silently rather than treating it as an error).
func (s *Seat) IsIssuedSerial(serial uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return serial >= 1 && serial <= s.serial
}

// advanceTime updates the seat's monotonic timestamp if t is newer.
func (s *Seat) advanceTime(t uint32) {
	if t > s.timestamp {
		s.timestamp = t
	}
}

// liveSurface resolves id through the compositor, logging and returning
// ok=false if it has been destroyed or never existed (§4.3 "Failure
// semantics": events to a non-existent surface are dropped silently).
func (s *Seat) liveSurface(id surface.ID) (*surface.Surface, bool) {
	surf, ok := s.comp.Lookup(id)
	if !ok {
		logger.Debugf("seat %q: %s", s.name, wlerr.VanishedSurface())
	}
	return surf, ok
}
