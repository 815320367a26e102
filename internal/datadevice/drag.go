package datadevice

import (
	"github.com/bnema/wlcore/internal/logger"
	"github.com/bnema/wlcore/internal/surface"
)

// dragMode distinguishes pointer- from touch-initiated drags (§4.6
// "Record the drag mode (Pointer or Touch) per the authorizing serial").
type dragMode int

const (
	dragModePointer dragMode = iota
	dragModeTouch
)

// dragSession is the live state machine for one drag-and-drop operation:
// Created → (source-actions sent) → Enter → (motion)* → {Drop →
// Finish/Destroy | Cancel} (§4.8 "State machine").
type dragSession struct {
	mgr *Manager

	mode    dragMode
	touchID int32

	sourceClient ClientID
	source       *DataSource // nil: intra-client drag, no cross-client leak

	originSurface surface.ID
	iconSurface   surface.ID
	hasIcon       bool

	targetClient ClientID
	targetOffer  *DataOffer

	modifiers Action
}

// focusChanged handles the pointer/touch point entering newSurf (0 means
// no surface). It tears down the previous target first, then constructs a
// fresh offer and delivers source_actions + enter to the new one (§4.6
// "During the drag").
func (d *dragSession) focusChanged(newSurf surface.ID, x, y float64) {
	m := d.mgr
	d.leaveTarget()

	if newSurf == 0 {
		return
	}
	client, ok := m.ownerOf(newSurf)
	if !ok {
		return
	}
	if d.source == nil && client != d.sourceClient {
		// Intra-client drag: the compositor must not leak data to other
		// clients (§4.6 "Initiation").
		return
	}

	dev := m.deviceFor(client)
	if dev == nil || dev.listener == nil {
		return
	}

	var offer *DataOffer
	if d.source != nil {
		offer = m.newDnDOffer(client, d.source, offerBridge{dev: dev.listener})
	}

	d.targetClient = client
	d.targetOffer = offer
	m.setDragOffer(client, offer)

	if offer != nil && offer.version >= 3 {
		dev.listener.DragSourceActions(d.source.actions())
	}
	serial := m.st.NextSerial()
	dev.listener.DragEnter(serial, offer, x, y)

	if offer != nil {
		offer.recomputeNegotiation(d.modifiers)
	}
}

// leaveTarget tears down the current target, discarding its offer unless a
// drop has already been performed on it (§4.6 step 1; the drop-performed
// exception keeps the offer alive for finish, §3 "DataOffer" lifecycle).
func (d *dragSession) leaveTarget() {
	if d.targetClient == "" {
		return
	}
	m := d.mgr
	client := d.targetClient
	offer := d.targetOffer
	dropped := offer != nil && offer.wasDropPerformed()

	d.targetClient = ""
	d.targetOffer = nil
	m.setDragOffer(client, nil)

	if dev := m.deviceFor(client); dev != nil && dev.listener != nil {
		dev.listener.DragLeave()
	}
	if offer != nil && !dropped {
		offer.detach()
		m.removeOffer(offer.ID())
	}
}

// motion delivers a motion event to the current target, if any (§4.6 "On
// motion within the target surface").
func (d *dragSession) motion(time uint32, x, y float64) {
	if d.targetClient == "" {
		return
	}
	if dev := d.mgr.deviceFor(d.targetClient); dev != nil && dev.listener != nil {
		dev.listener.DragMotion(time, x, y)
	}
}

// onModifiersChanged re-runs negotiation unless the drop has already
// landed (§4.6 "after drop, modifiers no longer affect the chosen
// action").
func (d *dragSession) onModifiersChanged(mods Action) {
	d.modifiers = mods
	if d.targetOffer != nil && !d.targetOffer.wasDropPerformed() {
		d.targetOffer.recomputeNegotiation(mods)
	}
}

// drop is the pointer-button-release / last-touch-up trigger (§4.6
// "Drop").
func (d *dragSession) drop() {
	m := d.mgr
	offer := d.targetOffer

	allowed := offer != nil && offer.negotiatedAction() != ActionNone
	if allowed && d.source != nil {
		allowed = d.source.accepted()
	}

	if !allowed {
		d.cancelOutright()
		m.endDrag()
		return
	}

	offer.markDropPerformed()
	if dev := m.deviceFor(d.targetClient); dev != nil && dev.listener != nil {
		dev.listener.Drop()
	}
	if d.source != nil {
		d.source.MarkDropPerformed()
	}
	logger.Debugf("drag: drop delivered to client %s", d.targetClient)
	m.endDrag()
}

// cancelOutright is the "otherwise: cancel the drag" path (§4.6): leave
// any target and notify the source of cancellation.
func (d *dragSession) cancelOutright() {
	d.leaveTarget()
	if d.source != nil {
		d.source.CancelDrag()
	}
}

// onSourceDestroyed implements "Source destroyed mid-drag" (§4.6): leave
// the current target, end the drag, never notify the now-gone source.
func (d *dragSession) onSourceDestroyed() {
	if d.targetOffer != nil && d.targetOffer.wasDropPerformed() {
		d.targetOffer.onSourceGone()
	}
	d.source = nil
	d.leaveTarget()
	d.mgr.endDrag()
}
