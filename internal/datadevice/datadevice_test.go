package datadevice

import (
	"testing"

	"github.com/bnema/wlcore/internal/ids"
	"github.com/bnema/wlcore/internal/seat"
	"github.com/bnema/wlcore/internal/surface"
	"github.com/bnema/wlcore/internal/wlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	cancelled     int
	dropPerformed int
	finished      int
	dndCancelled  int
	lastAction    Action
}

func (f *fakeSource) Send(string, uintptr)  {}
func (f *fakeSource) Cancelled()            { f.cancelled++ }
func (f *fakeSource) DndDropPerformed()     { f.dropPerformed++ }
func (f *fakeSource) DndFinished()          { f.finished++ }
func (f *fakeSource) DndCancelled()         { f.dndCancelled++ }
func (f *fakeSource) Action(action Action)  { f.lastAction = action }

type fakeDevice struct {
	selections        []*DataOffer
	primarySelections  []*DataOffer
	sourceActions     []Action
	enters            int
	lastEnterOffer    *DataOffer
	motions           int
	actions           []Action
	leaves            int
	drops             int
}

func (f *fakeDevice) Selection(o *DataOffer)        { f.selections = append(f.selections, o) }
func (f *fakeDevice) PrimarySelection(o *DataOffer) { f.primarySelections = append(f.primarySelections, o) }
func (f *fakeDevice) DragSourceActions(mask Action) { f.sourceActions = append(f.sourceActions, mask) }
func (f *fakeDevice) DragEnter(serial uint32, offer *DataOffer, x, y float64) {
	f.enters++
	f.lastEnterOffer = offer
}
func (f *fakeDevice) DragMotion(time uint32, x, y float64) { f.motions++ }
func (f *fakeDevice) DragAction(action Action)             { f.actions = append(f.actions, action) }
func (f *fakeDevice) DragLeave()                           { f.leaves++ }
func (f *fakeDevice) Drop()                                { f.drops++ }

type router struct{}

func (router) PointerListenerFor(surface.ID) (seat.PointerListener, bool) { return nil, false }
func (router) KeyboardListenerFor(surface.ID) (seat.KeyboardListener, bool) {
	return nil, false
}
func (router) TouchListenerFor(surface.ID) (seat.TouchListener, bool) { return nil, false }

func newHarness(t *testing.T) (*seat.Seat, *surface.Compositor, *Manager) {
	t.Helper()
	comp := surface.NewCompositor()
	st := seat.New("seat0", seat.CapabilityPointer|seat.CapabilityKeyboard, comp, router{})
	mgr := New(st, comp, 3)
	return st, comp, mgr
}

func TestReplaceSelectionCancelsPriorSource(t *testing.T) {
	st, comp, mgr := newHarness(t)
	y := comp.CreateSurface()
	mgr.SetSurfaceOwner(y.ID(), "Y")
	fd := &fakeDevice{}
	mgr.RegisterClient("Y", fd)
	st.SetFocusedKeyboardSurface(y.ID())

	fsA := &fakeSource{}
	srcA, err := mgr.CreateDataSource("X", fsA)
	require.NoError(t, err)
	srcA.Offer("text/plain")
	serial1 := st.NextSerial()
	require.NoError(t, mgr.SetSelection("X", srcA, serial1))

	fsB := &fakeSource{}
	srcB, err := mgr.CreateDataSource("X", fsB)
	require.NoError(t, err)
	srcB.Offer("text/plain")
	serial2 := st.NextSerial()
	require.NoError(t, mgr.SetSelection("X", srcB, serial2))

	assert.Equal(t, 1, fsA.cancelled)
	assert.Equal(t, 0, fsB.cancelled)
	// Focusing Y before any selection existed delivered a null selection
	// first; the two set_selection calls follow it.
	require.Len(t, fd.selections, 3)
	assert.NotNil(t, fd.selections[2])
}

func TestSelectionRefreshOnRefocus(t *testing.T) {
	st, comp, mgr := newHarness(t)
	x := comp.CreateSurface()
	y := comp.CreateSurface()
	mgr.SetSurfaceOwner(x.ID(), "X")
	mgr.SetSurfaceOwner(y.ID(), "Y")
	fdY := &fakeDevice{}
	mgr.RegisterClient("Y", fdY)
	mgr.RegisterClient("X", &fakeDevice{})

	src, err := mgr.CreateDataSource("X", &fakeSource{})
	require.NoError(t, err)
	src.Offer("text/plain")
	st.SetFocusedKeyboardSurface(x.ID())
	serial := st.NextSerial()
	require.NoError(t, mgr.SetSelection("X", src, serial))

	st.SetFocusedKeyboardSurface(0)
	st.SetFocusedKeyboardSurface(y.ID())

	require.Len(t, fdY.selections, 1)
	require.NotNil(t, fdY.selections[0])
	firstOffer := fdY.selections[0]

	st.SetFocusedKeyboardSurface(0)
	st.SetFocusedKeyboardSurface(y.ID())

	require.Len(t, fdY.selections, 2)
	assert.NotSame(t, firstOffer, fdY.selections[1], "second refocus offer should be a distinct object from the first")
}

func TestDragAndDropModifierPromotion(t *testing.T) {
	st, comp, mgr := newHarness(t)
	origin := comp.CreateSurface()
	target := comp.CreateSurface()
	mgr.SetSurfaceOwner(origin.ID(), "X")
	mgr.SetSurfaceOwner(target.ID(), "Y")
	mgr.RegisterClient("X", &fakeDevice{})
	fdY := &fakeDevice{}
	mgr.RegisterClient("Y", fdY)

	mgr.SetModifierTranslator(func(d, l, lo, g uint32) Action {
		var a Action
		if d&1 != 0 {
			a |= ActionCopy
		}
		if d&2 != 0 {
			a |= ActionMove
		}
		return a
	})

	fs := &fakeSource{}
	src, err := mgr.CreateDataSource("X", fs)
	require.NoError(t, err)
	require.NoError(t, src.SetActions(ActionCopy|ActionMove))

	st.NotifyPointerEnter(origin.ID(), 0, 0)
	st.NotifyPointerButton(1, 272, seat.ButtonPressed)
	serial, ok := st.ButtonPressSerial(272)
	require.True(t, ok, "expected button-press serial to be recorded")

	require.NoError(t, mgr.StartDrag("X", src, origin.ID(), nil, serial))

	mgr.DragFocusChanged(target.ID(), 5, 5)
	offer := fdY.lastEnterOffer
	require.NotNil(t, offer, "expected an enter offer")
	require.NoError(t, mgr.SetOfferActions(offer, ActionCopy|ActionMove, ActionMove))
	assert.Equal(t, ActionMove, offer.negotiatedAction(), "no modifier, preferred=Move")

	mgr.onModifiersChanged(1, 0, 0, 0) // Copy modifier held
	assert.Equal(t, ActionCopy, offer.negotiatedAction())

	mgr.onModifiersChanged(0, 0, 0, 0) // modifier released
	assert.Equal(t, ActionMove, offer.negotiatedAction(), "should return to Move after modifier release")

	offer.Accept(strPtr("text/plain"))
	mgr.DragButtonReleased()

	assert.Equal(t, 1, fdY.drops)
	assert.Equal(t, 1, fs.dropPerformed)

	require.NoError(t, mgr.FinishOffer(offer))
	assert.Equal(t, 1, fs.finished)
}

func TestDragCancelledBySourceDestructionMidFlight(t *testing.T) {
	st, comp, mgr := newHarness(t)
	origin := comp.CreateSurface()
	target := comp.CreateSurface()
	mgr.SetSurfaceOwner(origin.ID(), "X")
	mgr.SetSurfaceOwner(target.ID(), "Y")
	mgr.RegisterClient("X", &fakeDevice{})
	fdY := &fakeDevice{}
	mgr.RegisterClient("Y", fdY)

	fs := &fakeSource{}
	src, err := mgr.CreateDataSource("X", fs)
	require.NoError(t, err)

	st.NotifyPointerEnter(origin.ID(), 0, 0)
	st.NotifyPointerButton(1, 272, seat.ButtonPressed)
	serial, _ := st.ButtonPressSerial(272)
	require.NoError(t, mgr.StartDrag("X", src, origin.ID(), nil, serial))
	mgr.DragFocusChanged(target.ID(), 0, 0)

	mgr.DestroySource(src)

	assert.Equal(t, 1, fdY.leaves, "target should observe exactly one leave")
	assert.Equal(t, 0, fdY.drops, "no drop should be emitted")
	assert.Equal(t, 0, fs.dndCancelled, "the destroyed source itself must not receive dndCancelled")
}

func TestDropSurvivesOfferDestructionBriefly(t *testing.T) {
	st, comp, mgr := newHarness(t)
	origin := comp.CreateSurface()
	target := comp.CreateSurface()
	mgr.SetSurfaceOwner(origin.ID(), "X")
	mgr.SetSurfaceOwner(target.ID(), "Y")
	mgr.RegisterClient("X", &fakeDevice{})
	fdY := &fakeDevice{}
	mgr.RegisterClient("Y", fdY)

	fs := &fakeSource{}
	src, err := mgr.CreateDataSource("X", fs)
	require.NoError(t, err)
	require.NoError(t, src.SetActions(ActionCopy))

	st.NotifyPointerEnter(origin.ID(), 0, 0)
	st.NotifyPointerButton(1, 272, seat.ButtonPressed)
	serial, _ := st.ButtonPressSerial(272)
	require.NoError(t, mgr.StartDrag("X", src, origin.ID(), nil, serial))
	mgr.DragFocusChanged(target.ID(), 0, 0)

	offer := fdY.lastEnterOffer
	require.NoError(t, mgr.SetOfferActions(offer, ActionCopy, ActionCopy))
	offer.Accept(strPtr("text/plain"))
	mgr.DragButtonReleased()

	require.Equal(t, 1, fs.dropPerformed)

	mgr.DestroyOffer(offer)
	assert.Equal(t, 1, fs.dndCancelled, "destroying the offer before finish should dndCancel the source")
	assert.Equal(t, 0, fs.finished, "dndFinished must not fire when the offer was destroyed before finish")
}

func TestCreateDataSourceFailsWithNoMemoryWhenArenaFull(t *testing.T) {
	_, _, mgr := newHarness(t)
	mgr.sources = ids.NewBounded[*DataSource](1)

	first, err := mgr.CreateDataSource("X", &fakeSource{})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := mgr.CreateDataSource("X", &fakeSource{})
	assert.Nil(t, second)
	require.Error(t, err)
	var noMemory *wlerr.NoMemoryError
	assert.ErrorAs(t, err, &noMemory)

	mgr.DestroySource(first)
	third, err := mgr.CreateDataSource("X", &fakeSource{})
	assert.NoError(t, err)
	assert.NotNil(t, third)
}

func strPtr(s string) *string { return &s }
