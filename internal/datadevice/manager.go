package datadevice

import (
	"sync"

	"github.com/bnema/wlcore/internal/ids"
	"github.com/bnema/wlcore/internal/logger"
	"github.com/bnema/wlcore/internal/seat"
	"github.com/bnema/wlcore/internal/surface"
	"github.com/bnema/wlcore/internal/wlerr"
)

// Manager is the DataDeviceManager: it owns the source/offer arenas, the
// seat's current selection/primary-selection slots, the per-client
// DataDevice bookkeeping, and the active drag session (§3, §4.5–§4.8).
// Selection and primary selection are modeled as two independent slots of
// the same shape (a tagged variant, not a shared base class) per
// SPEC_FULL.md's supplemented primary-selection feature.
type Manager struct {
	mu sync.Mutex

	st   *seat.Seat
	comp *surface.Compositor

	version uint32

	sources *ids.Arena[*DataSource]
	offers  *ids.Arena[*DataOffer]

	devices      map[ClientID]*device
	surfaceOwner map[surface.ID]ClientID

	selection *DataSource
	primary   *DataSource

	modifiers         Action
	modifierTranslate func(depressed, latched, locked, group uint32) Action

	drag *dragSession
}

// maxDataSources bounds the source arena: past this many live DataSources
// for the whole seat, CreateDataSource fails with ResourceExhaustion (§7)
// instead of allocating. Offers are minted internally in response to
// selection/DnD events rather than directly requested by a client, so they
// are not bounded the same way.
const maxDataSources = 4096

// New creates a Manager bound to st/comp, wiring the seat's keyboard
// refocus and modifier hooks (§4.3, §4.5, §4.6). version is the
// DataDeviceManager protocol version offers are created at (§6 version
// gating).
func New(st *seat.Seat, comp *surface.Compositor, version uint32) *Manager {
	m := &Manager{
		st:           st,
		comp:         comp,
		version:      version,
		sources:      ids.NewBounded[*DataSource](maxDataSources),
		offers:       ids.New[*DataOffer](),
		devices:      make(map[ClientID]*device),
		surfaceOwner: make(map[surface.ID]ClientID),
	}
	st.SetKeyboardRefocusHook(m.onKeyboardRefocus)
	st.SetModifiersHook(m.onModifiersChanged)
	return m
}

// SetModifierTranslator installs the host's mapping from raw keyboard
// modifier state to the Copy/Move promotion bits §4.7 negotiates against.
func (m *Manager) SetModifierTranslator(fn func(depressed, latched, locked, group uint32) Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modifierTranslate = fn
}

func (m *Manager) onModifiersChanged(depressed, latched, locked, group uint32) {
	m.mu.Lock()
	if m.modifierTranslate != nil {
		m.modifiers = m.modifierTranslate(depressed, latched, locked, group)
	}
	drag := m.drag
	mods := m.modifiers
	m.mu.Unlock()

	if drag != nil {
		drag.onModifiersChanged(mods)
	}
}

// RegisterClient installs (or replaces) the DataDevice listener for
// client.
func (m *Manager) RegisterClient(client ClientID, listener DeviceListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[client]
	if !ok {
		d = &device{}
		m.devices[client] = d
	}
	d.listener = listener
}

func (m *Manager) deviceFor(client ClientID) *device {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.devices[client]
}

func (m *Manager) setDragOffer(client ClientID, offer *DataOffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.devices[client]; ok {
		d.dragOffer = offer
	}
}

// SetSurfaceOwner records which client owns surf, used to route
// keyboard-refocus offers and drag-target events (§4.5, §4.6). The host
// dispatcher calls this whenever a client creates a surface.
func (m *Manager) SetSurfaceOwner(surf surface.ID, client ClientID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surfaceOwner[surf] = client
}

// ClearSurfaceOwner forgets a destroyed surface's owner.
func (m *Manager) ClearSurfaceOwner(surf surface.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.surfaceOwner, surf)
}

func (m *Manager) ownerOf(surf surface.ID) (ClientID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.surfaceOwner[surf]
	return c, ok
}

// CreateDataSource allocates a new, initially empty DataSource owned by
// client. Fails with wlerr.NoMemoryError if the source arena is at capacity
// (§7 "ResourceExhaustion"); the core's own state is left unchanged.
func (m *Manager) CreateDataSource(client ClientID, listener SourceListener) (*DataSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := newSource(0, client, listener)
	id, ok := m.sources.TryInsert(src)
	if !ok {
		return nil, wlerr.NewNoMemory("wl_data_source")
	}
	src.id = id
	return src, nil
}

// DestroySource removes src. If it is the active drag's source, the drag
// is cancelled per §4.6 "Source destroyed mid-drag".
func (m *Manager) DestroySource(src *DataSource) {
	m.mu.Lock()
	m.sources.Remove(src.id)
	drag := m.drag
	isDragSource := drag != nil && drag.source == src
	m.mu.Unlock()

	if isDragSource {
		drag.onSourceDestroyed()
	}
}

func (m *Manager) removeOffer(id ids.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers.Remove(id)
}

func (m *Manager) newDnDOffer(client ClientID, source *DataSource, listener OfferListener) *DataOffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := newOffer(0, client, m.version, source, listener)
	o.id = m.offers.Insert(o)
	return o
}

// SetSelection implements set_selection for the clipboard slot (§4.5).
func (m *Manager) SetSelection(client ClientID, src *DataSource, serial uint32) error {
	return m.setSelection(client, src, serial, false)
}

// SetPrimarySelection implements set_selection for the primary-selection
// slot (§4.5, supplemented per SPEC_FULL.md).
func (m *Manager) SetPrimarySelection(client ClientID, src *DataSource, serial uint32) error {
	return m.setSelection(client, src, serial, true)
}

func (m *Manager) setSelection(client ClientID, src *DataSource, serial uint32, primary bool) error {
	if src != nil {
		if err := src.validateForSelection(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if !m.st.IsIssuedSerial(serial) {
		m.mu.Unlock()
		logger.Debugf("data device: %s", wlerr.StaleSerial(serial, m.st.LatestSerial()))
		return nil
	}

	var prev *DataSource
	if primary {
		prev = m.primary
	} else {
		prev = m.selection
	}
	if prev != nil && prev != src {
		prev.Cancel()
	}
	if primary {
		m.primary = src
	} else {
		m.selection = src
	}

	focusedSurf, hasFocus := m.st.KeyboardFocused()
	var focusedClient ClientID
	var hasFocusedClient bool
	if hasFocus {
		focusedClient, hasFocusedClient = m.surfaceOwner[focusedSurf]
	}
	m.mu.Unlock()

	if hasFocusedClient {
		m.sendSelectionOffer(focusedClient, src, primary)
	}
	return nil
}

// onKeyboardRefocus resends the current selection and primary-selection
// offers to the newly focused client (§4.3, §4.5 "Refocus behavior").
func (m *Manager) onKeyboardRefocus(surf surface.ID) {
	client, ok := m.ownerOf(surf)
	if !ok {
		return
	}
	m.mu.Lock()
	sel, prim := m.selection, m.primary
	m.mu.Unlock()

	m.sendSelectionOffer(client, sel, false)
	m.sendSelectionOffer(client, prim, true)
}

func (m *Manager) sendSelectionOffer(client ClientID, src *DataSource, primary bool) {
	dev := m.deviceFor(client)
	if dev == nil || dev.listener == nil {
		return
	}

	var offer *DataOffer
	if src != nil {
		m.mu.Lock()
		offer = newOffer(0, client, m.version, src, nil)
		offer.id = m.offers.Insert(offer)
		m.mu.Unlock()
	}

	m.mu.Lock()
	if primary {
		dev.primaryOffer = offer
	} else {
		dev.selectionOffer = offer
	}
	m.mu.Unlock()

	if primary {
		dev.listener.PrimarySelection(offer)
	} else {
		dev.listener.Selection(offer)
	}
}

// StartDrag implements start_drag (§4.6 "Initiation").
func (m *Manager) StartDrag(client ClientID, source *DataSource, origin surface.ID, icon *surface.Surface, serial uint32) error {
	if source != nil {
		if err := source.validateForDrag(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if m.drag != nil {
		m.mu.Unlock()
		return nil
	}

	mode := dragModePointer
	authorized := m.st.AuthorizesPointerDrag(serial)
	var touchID int32
	if !authorized {
		if id, ok := m.st.AuthorizesTouchDrag(serial); ok {
			authorized = true
			mode = dragModeTouch
			touchID = id
		}
	}
	if !authorized {
		m.mu.Unlock()
		logger.Debugf("data device: start_drag %s", wlerr.UnknownSerial())
		return nil
	}

	if icon != nil {
		if err := icon.SetRole(surface.RoleDragIcon); err != nil {
			m.mu.Unlock()
			return err
		}
	}

	d := &dragSession{
		mgr:           m,
		mode:          mode,
		touchID:       touchID,
		sourceClient:  client,
		source:        source,
		originSurface: origin,
		modifiers:     m.modifiers,
	}
	if icon != nil {
		d.iconSurface, d.hasIcon = icon.ID(), true
	}
	m.drag = d
	m.mu.Unlock()

	if mode == dragModePointer {
		m.st.SetPointerDragSuppressed(true)
	} else {
		m.st.SetTouchDragSuppressed(true)
	}
	logger.Debugf("drag started (client=%s)", client)
	return nil
}

func (m *Manager) activeDrag() *dragSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drag
}

func (m *Manager) endDrag() {
	m.mu.Lock()
	d := m.drag
	m.drag = nil
	m.mu.Unlock()
	if d == nil {
		return
	}
	if d.mode == dragModePointer {
		m.st.SetPointerDragSuppressed(false)
	} else {
		m.st.SetTouchDragSuppressed(false)
	}
}

// DragFocusChanged is driven by the host dispatcher whenever the
// drag-owning input device's focus moves to a different surface (0 for
// "no surface"), including when the focused surface is destroyed (§4.6
// "Focused surface destroyed: same as focus leaving").
func (m *Manager) DragFocusChanged(surf surface.ID, x, y float64) {
	if d := m.activeDrag(); d != nil {
		d.focusChanged(surf, x, y)
	}
}

// DragMotion is driven by the host on pointer/touch motion while a drag
// target is current (§4.6).
func (m *Manager) DragMotion(time uint32, x, y float64) {
	if d := m.activeDrag(); d != nil {
		d.motion(time, x, y)
	}
}

// DragButtonReleased is the pointer-drag drop trigger (§4.6 "Drop").
func (m *Manager) DragButtonReleased() {
	if d := m.activeDrag(); d != nil && d.mode == dragModePointer {
		d.drop()
	}
}

// DragTouchUp is the touch-drag drop trigger; only the authorizing touch
// point's final lift (seat reports no touches remain) ends the drag.
func (m *Manager) DragTouchUp(id int32) {
	d := m.activeDrag()
	if d == nil || d.mode != dragModeTouch || id != d.touchID {
		return
	}
	if !m.st.NoTouchesDown() {
		return
	}
	d.drop()
}

// AbortDrag is the compositor-requested abort path (e.g. session lock),
// treated identically to an ordinary cancel (§4.6).
func (m *Manager) AbortDrag() {
	d := m.activeDrag()
	if d == nil {
		return
	}
	d.cancelOutright()
	m.endDrag()
}

// AcceptOffer forwards accept(mime_or_null) to offer's source (§4.8).
func (m *Manager) AcceptOffer(offer *DataOffer, mime *string) {
	offer.Accept(mime)
}

// ReceiveOffer forwards receive(mime_type, fd) to offer's source, or
// reports a RecoverableRequest if the MIME was never offered or the
// source is gone (§4.8, §7).
func (m *Manager) ReceiveOffer(offer *DataOffer, mime string, fd uintptr) wlerr.Recoverable {
	return offer.Receive(mime, fd)
}

// FinishOffer completes a drag offer (§4.8 "finish()").
func (m *Manager) FinishOffer(offer *DataOffer) error {
	if err := offer.Finish(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.drag != nil && m.drag.targetOffer == offer {
		m.drag.targetOffer = nil
		m.drag.targetClient = ""
	}
	for _, d := range m.devices {
		if d.dragOffer == offer {
			d.dragOffer = nil
		}
	}
	m.mu.Unlock()
	m.removeOffer(offer.ID())
	return nil
}

// SetOfferActions implements set_actions on a DataOffer (§4.8).
func (m *Manager) SetOfferActions(offer *DataOffer, mask, preferred Action) error {
	if err := offer.SetActions(mask, preferred); err != nil {
		return err
	}
	m.mu.Lock()
	mods := m.modifiers
	m.mu.Unlock()
	offer.recomputeNegotiation(mods)
	return nil
}

// DestroyOffer destroys a client-held offer. If it was a drop-performed
// drag target destroyed before finish, the source is told dndCancelled
// instead of dndFinished (§8 scenario 5) — the drag session itself has
// already ended by the time destroy arrives, so this decides from the
// offer's own drop/finish state rather than the (gone) session.
func (m *Manager) DestroyOffer(offer *DataOffer) {
	if offer.wasDropPerformed() {
		offer.cancelIfUnfinished()
	}

	m.mu.Lock()
	if m.drag != nil && m.drag.targetOffer == offer {
		m.drag.targetOffer = nil
		m.drag.targetClient = ""
	}
	for _, d := range m.devices {
		if d.dragOffer == offer {
			d.dragOffer = nil
		}
	}
	m.mu.Unlock()

	offer.detach()
	m.removeOffer(offer.ID())
}
