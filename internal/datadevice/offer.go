package datadevice

import (
	"fmt"
	"sync"

	"github.com/bnema/wlcore/internal/ids"
	"github.com/bnema/wlcore/internal/wlerr"
)

// ClientID names the client half of a (seat, client) DataDevice pairing.
// The host dispatcher assigns these; the core treats them as opaque keys.
type ClientID string

// OfferListener delivers the compositor → target-client events for a
// single DataOffer (§4.8).
type OfferListener interface {
	Offer(mimeType string)
	SourceActions(mask Action)
	Action(action Action)
}

// DataOffer is the target client's handle on a DataSource (§3 "DataOffer").
// It holds source as a weak reference: once the source is gone, receive()
// calls become no-ops and the offer survives only to satisfy a pending
// finish (§5 "Weak references... destruction-observer pattern").
type DataOffer struct {
	mu sync.Mutex

	id       ids.ID
	client   ClientID
	version  uint32
	listener OfferListener

	source     *DataSource
	sourceGone bool

	supportedActions    Action
	supportedActionsSet bool
	preferredAction     Action
	preferredActionSet  bool

	negotiated Action

	dropPerformed bool
	destroyed     bool
}

func newOffer(id ids.ID, client ClientID, version uint32, source *DataSource, listener OfferListener) *DataOffer {
	o := &DataOffer{
		id:       id,
		client:   client,
		version:  version,
		source:   source,
		listener: listener,
	}
	if listener != nil {
		for _, mime := range source.MimeTypes() {
			listener.Offer(mime)
		}
	}
	return o
}

// ID returns the offer's arena id.
func (o *DataOffer) ID() ids.ID { return o.id }

// sourceView applies §6's version gating: pre-v3 offers are treated as if
// the client declared {Copy, Move} support with Copy preferred.
func (o *DataOffer) sourceView() (supported Action, preferred Action, preferredSet bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.version < 3 {
		return ActionCopy | ActionMove, ActionCopy, true
	}
	supported = ActionCopy | ActionMove | ActionAsk
	if o.supportedActionsSet {
		supported = o.supportedActions
	}
	return supported, o.preferredAction, o.preferredActionSet
}

// Accept forwards a target accept(mime_or_null) to the source, updating
// its accepted-state for the drop-allowance decision (§4.8).
func (o *DataOffer) Accept(mime *string) {
	o.mu.Lock()
	source := o.source
	o.mu.Unlock()
	if source != nil {
		source.Accept(mime)
	}
}

// Receive delegates a receive(mime_type, fd) request to the source, unless
// the MIME type was never offered or the source is gone, in which case fd
// must simply be closed by the caller (§7 RecoverableRequest; §5 fd
// ownership).
func (o *DataOffer) Receive(mime string, fd uintptr) wlerr.Recoverable {
	o.mu.Lock()
	source := o.source
	gone := o.sourceGone
	o.mu.Unlock()

	if gone || source == nil {
		return wlerr.Recoverable{Reason: "receive on a DataOffer whose source is gone"}
	}
	if !source.offers(mime) {
		return wlerr.UnofferedMIME(mime)
	}
	source.Send(mime, fd)
	return wlerr.Recoverable{}
}

// SetActions updates the client-declared negotiation inputs (§4.8).
func (o *DataOffer) SetActions(mask, preferred Action) error {
	obj := fmt.Sprintf("data_offer#%d", o.id)
	if err := checkMask(obj, mask); err != nil {
		return err
	}
	if err := checkPreferred(obj, preferred); err != nil {
		return err
	}
	o.mu.Lock()
	o.supportedActions = mask
	o.supportedActionsSet = true
	o.preferredAction = preferred
	o.preferredActionSet = true
	o.mu.Unlock()
	return nil
}

// Finish completes the drag successfully. Only valid after a drop; invalid
// otherwise (§4.8, §7 "finish before drop" is a fatal ProtocolViolation).
func (o *DataOffer) Finish() error {
	o.mu.Lock()
	dropped := o.dropPerformed
	source := o.source
	o.mu.Unlock()
	if !dropped {
		return wlerr.NewProtocolError(fmt.Sprintf("data_offer#%d", o.id), wlerr.CodeInvalidFinish, "finish() called before drop was performed")
	}
	if source != nil {
		source.Finish()
	}
	o.detach()
	return nil
}

// detach severs the offer's reference to its source, e.g. on ordinary
// destruction, drag-target change, or after finish.
func (o *DataOffer) detach() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.source = nil
	o.sourceGone = true
}

// markDropPerformed is called by the drag session when a drop lands on
// this offer, keeping it alive until finish (§3 "DataOffer" lifecycle).
func (o *DataOffer) markDropPerformed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropPerformed = true
}

func (o *DataOffer) wasDropPerformed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropPerformed
}

// cancelIfUnfinished notifies a still-attached source of DnD cancellation.
// Called when a drop-performed offer is destroyed before finish() arrives
// (§8 scenario 5); a no-op once the source has already been detached by a
// prior Finish or is otherwise gone.
func (o *DataOffer) cancelIfUnfinished() {
	o.mu.Lock()
	source := o.source
	o.mu.Unlock()
	if source != nil {
		source.CancelDrag()
	}
}

// onSourceGone is invoked when the underlying source is destroyed while
// this offer is still live (§5 destruction-observer pattern).
func (o *DataOffer) onSourceGone() {
	o.mu.Lock()
	o.sourceGone = true
	o.source = nil
	o.mu.Unlock()
}

// recomputeNegotiation recomputes the negotiated action against current
// modifiers/drop-state and notifies both sides if it changed (§4.7, §4.8).
func (o *DataOffer) recomputeNegotiation(modifiers Action) {
	o.mu.Lock()
	source := o.source
	dropped := o.dropPerformed
	o.mu.Unlock()
	if source == nil {
		return
	}

	supported, preferred, preferredSet := o.sourceView()
	next := negotiate(source.actions(), supported, preferred, preferredSet, modifiers, dropped)

	o.mu.Lock()
	changed := next != o.negotiated
	o.negotiated = next
	listener := o.listener
	version := o.version
	o.mu.Unlock()

	if !changed {
		return
	}
	// §6: source_actions/action events are emitted only to offers at
	// version >= 3; earlier versions never observe negotiation changes.
	if listener != nil && version >= 3 {
		listener.Action(next)
	}
	source.NotifyAction(next)
}

func (o *DataOffer) negotiatedAction() Action {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.negotiated
}

// MimeTypes returns the offered MIME types, or nil once the source is gone.
func (o *DataOffer) MimeTypes() []string {
	o.mu.Lock()
	src := o.source
	o.mu.Unlock()
	if src == nil {
		return nil
	}
	return src.MimeTypes()
}

// offerBridge adapts a DataDevice's DeviceListener into the narrower
// OfferListener a DnD DataOffer needs for negotiated-action mirroring; the
// source-actions push is delivered directly by the drag session at enter
// time (see drag.go), and per-MIME offer events are not forwarded to the
// DeviceListener (the target reads them through DataOffer.MimeTypes), so
// only Action is forwarded here.
type offerBridge struct {
	dev DeviceListener
}

func (b offerBridge) Offer(mimeType string)        {}
func (b offerBridge) SourceActions(mask Action)     {}
func (b offerBridge) Action(action Action) {
	if b.dev != nil {
		b.dev.DragAction(action)
	}
}
