package seat

import (
	"testing"

	"github.com/bnema/wlcore/internal/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeListener struct {
	events []string
}

func (f *fakeListener) PointerEnter(surf surface.ID, sx, sy float64, serial uint32) {
	f.events = append(f.events, "pointer-enter")
}
func (f *fakeListener) PointerLeave(serial uint32) { f.events = append(f.events, "pointer-leave") }
func (f *fakeListener) PointerMotion(time uint32, sx, sy float64) {
	f.events = append(f.events, "pointer-motion")
}
func (f *fakeListener) PointerButton(serial, time, button uint32, state ButtonState) {
	f.events = append(f.events, "pointer-button")
}
func (f *fakeListener) PointerAxis(time uint32, axis Axis, value float64, discrete int32, source AxisSource) {
	f.events = append(f.events, "pointer-axis")
}
func (f *fakeListener) PointerFrame() { f.events = append(f.events, "pointer-frame") }

func (f *fakeListener) KeyboardEnter(surf surface.ID, serial uint32) {
	f.events = append(f.events, "keyboard-enter")
}
func (f *fakeListener) KeyboardLeave(serial uint32) { f.events = append(f.events, "keyboard-leave") }
func (f *fakeListener) KeyboardKey(serial, time, key uint32, state KeyState) {
	f.events = append(f.events, "keyboard-key")
}
func (f *fakeListener) KeyboardModifiers(depressed, latched, locked, group uint32) {
	f.events = append(f.events, "keyboard-modifiers")
}

func (f *fakeListener) TouchDown(surf surface.ID, id int32, serial uint32, x, y float64) {
	f.events = append(f.events, "touch-down")
}
func (f *fakeListener) TouchMotion(id int32, time uint32, x, y float64) {
	f.events = append(f.events, "touch-motion")
}
func (f *fakeListener) TouchUp(id int32, serial uint32) { f.events = append(f.events, "touch-up") }

// singleSurfaceRouter routes every surface to the same listener.
type singleSurfaceRouter struct{ l *fakeListener }

func (r singleSurfaceRouter) PointerListenerFor(surface.ID) (PointerListener, bool) {
	return r.l, true
}
func (r singleSurfaceRouter) KeyboardListenerFor(surface.ID) (KeyboardListener, bool) {
	return r.l, true
}
func (r singleSurfaceRouter) TouchListenerFor(surface.ID) (TouchListener, bool) {
	return r.l, true
}

func newTestSeat(t *testing.T) (*Seat, *surface.Compositor, *fakeListener) {
	t.Helper()
	comp := surface.NewCompositor()
	fl := &fakeListener{}
	st := New("seat0", CapabilityPointer|CapabilityKeyboard|CapabilityTouch, comp, singleSurfaceRouter{fl})
	return st, comp, fl
}

func TestPointerEnterLeavesOldFirst(t *testing.T) {
	st, comp, fl := newTestSeat(t)
	a := comp.CreateSurface()
	b := comp.CreateSurface()

	st.NotifyPointerEnter(a.ID(), 0, 0)
	st.NotifyPointerEnter(b.ID(), 1, 1)

	assert.Equal(t, []string{"pointer-enter", "pointer-leave", "pointer-enter"}, fl.events)
	focused, ok := st.PointerFocused()
	require.True(t, ok)
	assert.Equal(t, b.ID(), focused)
}

func TestButtonPressSerialRemembered(t *testing.T) {
	st, comp, _ := newTestSeat(t)
	a := comp.CreateSurface()
	st.NotifyPointerEnter(a.ID(), 0, 0)

	st.NotifyPointerButton(1, 272, ButtonPressed)
	serial, ok := st.ButtonPressSerial(272)
	require.True(t, ok)
	assert.NotZero(t, serial)

	st.NotifyPointerButton(2, 272, ButtonReleased)
	_, ok = st.ButtonPressSerial(272)
	assert.False(t, ok, "ButtonPressSerial should report not-pressed after release")
}

func TestKeyboardRefocusOrdering(t *testing.T) {
	st, comp, fl := newTestSeat(t)
	a := comp.CreateSurface()
	b := comp.CreateSurface()

	var refocusedAt int
	st.SetKeyboardRefocusHook(func(surface.ID) {
		refocusedAt = len(fl.events)
	})

	st.SetFocusedKeyboardSurface(a.ID())
	st.SetFocusedKeyboardSurface(b.ID())
	st.NotifyKeyboardKey(1, 30, KeyPressed)

	require.Equal(t, []string{"keyboard-enter", "keyboard-leave", "keyboard-enter", "keyboard-key"}, fl.events)
	assert.Equal(t, "keyboard-enter", fl.events[refocusedAt-1])
	assert.Equal(t, "keyboard-key", fl.events[refocusedAt])
}

func TestEventsToDestroyedSurfaceDroppedSilently(t *testing.T) {
	st, comp, fl := newTestSeat(t)
	a := comp.CreateSurface()
	st.NotifyPointerEnter(a.ID(), 0, 0)
	a.Destroy()

	// Motion to a focused-but-now-destroyed surface must not panic and
	// must not deliver further events (§4.3 "Failure semantics").
	before := len(fl.events)
	st.NotifyPointerMotion(1, 5, 5)
	assert.Len(t, fl.events, before)
}

func TestTouchReferenceCountedPerID(t *testing.T) {
	st, comp, _ := newTestSeat(t)
	a := comp.CreateSurface()

	st.NotifyTouchDown(a.ID(), 0, 1, 1)
	st.NotifyTouchDown(a.ID(), 1, 2, 2)

	surf, ok := st.TouchFocused(0)
	require.True(t, ok)
	assert.Equal(t, a.ID(), surf)
	assert.True(t, st.TouchStillDown(1))

	st.NotifyTouchUp(0)
	assert.False(t, st.TouchStillDown(0))
	assert.True(t, st.TouchStillDown(1), "touch id 1 should be unaffected by touch id 0 lifting")
}
