package datadevice

// DeviceListener delivers the per-client DataDevice events: selection and
// primary-selection offer updates, and the drag-target events routed to
// whichever client's surface the drag point currently occupies (§4.5,
// §4.6, §4.8).
type DeviceListener interface {
	// Selection is called with nil to represent a null selection (§4.5
	// "send a null selection if the source is null").
	Selection(offer *DataOffer)
	PrimarySelection(offer *DataOffer)

	DragSourceActions(mask Action)
	DragEnter(serial uint32, offer *DataOffer, x, y float64)
	DragMotion(time uint32, x, y float64)
	// DragAction is the target-side mirror of a negotiated-action change
	// (§4.6 "emit action to both source and offer"); gated to version ≥ 3
	// offers per §6.
	DragAction(action Action)
	DragLeave()
	Drop()
}

// device is a (seat, client) pairing's bookkeeping: the client's current
// selection/primary-selection offers, tracked so a later cancellation or
// refocus can address the right objects (§3 "DataDevice").
type device struct {
	listener DeviceListener

	selectionOffer *DataOffer
	primaryOffer   *DataOffer

	dragOffer *DataOffer
}
