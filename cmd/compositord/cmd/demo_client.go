package cmd

import (
	"github.com/bnema/wlcore/internal/constraints"
	"github.com/bnema/wlcore/internal/datadevice"
	"github.com/bnema/wlcore/internal/logger"
	"github.com/bnema/wlcore/internal/seat"
	"github.com/bnema/wlcore/internal/surface"
)

// demoClient stands in for a real client connection: one struct
// implementing every listener interface the core delivers events through,
// logging each one instead of encoding it onto a wl_resource. A real host
// dispatcher would have one of these per connected client, backed by an
// actual Wayland socket.
type demoClient struct {
	name string
	id   datadevice.ClientID

	lastDragOffer *datadevice.DataOffer
}

func newDemoClient(name string) *demoClient {
	return &demoClient{name: name, id: datadevice.ClientID(name)}
}

// --- seat.PointerListener ---

func (c *demoClient) PointerEnter(surf surface.ID, sx, sy float64, serial uint32) {
	logger.Info("pointer.enter", "client", c.name, "surface", surf, "x", sx, "y", sy, "serial", serial)
}

func (c *demoClient) PointerLeave(serial uint32) {
	logger.Info("pointer.leave", "client", c.name, "serial", serial)
}

func (c *demoClient) PointerMotion(time uint32, sx, sy float64) {
	logger.Debug("pointer.motion", "client", c.name, "x", sx, "y", sy)
}

func (c *demoClient) PointerButton(serial, time, button uint32, state seat.ButtonState) {
	logger.Info("pointer.button", "client", c.name, "button", button, "state", state, "serial", serial)
}

func (c *demoClient) PointerAxis(time uint32, axis seat.Axis, value float64, discrete int32, source seat.AxisSource) {
	logger.Debug("pointer.axis", "client", c.name, "axis", axis, "value", value)
}

func (c *demoClient) PointerFrame() {
	logger.Debug("pointer.frame", "client", c.name)
}

// --- seat.KeyboardListener ---

func (c *demoClient) KeyboardEnter(surf surface.ID, serial uint32) {
	logger.Info("keyboard.enter", "client", c.name, "surface", surf, "serial", serial)
}

func (c *demoClient) KeyboardLeave(serial uint32) {
	logger.Info("keyboard.leave", "client", c.name, "serial", serial)
}

func (c *demoClient) KeyboardKey(serial, time, key uint32, state seat.KeyState) {
	logger.Info("keyboard.key", "client", c.name, "key", key, "state", state, "serial", serial)
}

func (c *demoClient) KeyboardModifiers(depressed, latched, locked, group uint32) {
	logger.Debug("keyboard.modifiers", "client", c.name, "depressed", depressed)
}

// --- seat.TouchListener ---

func (c *demoClient) TouchDown(surf surface.ID, id int32, serial uint32, x, y float64) {
	logger.Info("touch.down", "client", c.name, "surface", surf, "id", id, "serial", serial)
}

func (c *demoClient) TouchMotion(id int32, time uint32, x, y float64) {
	logger.Debug("touch.motion", "client", c.name, "id", id)
}

func (c *demoClient) TouchUp(id int32, serial uint32) {
	logger.Info("touch.up", "client", c.name, "id", id, "serial", serial)
}

// --- datadevice.DeviceListener ---

func (c *demoClient) Selection(offer *datadevice.DataOffer) {
	logger.Info("data_device.selection", "client", c.name, "offer", offerLabel(offer), "mime_types", offerMimes(offer))
}

func (c *demoClient) PrimarySelection(offer *datadevice.DataOffer) {
	logger.Info("data_device.primary_selection", "client", c.name, "offer", offerLabel(offer), "mime_types", offerMimes(offer))
}

func (c *demoClient) DragSourceActions(mask datadevice.Action) {
	logger.Info("data_device.source_actions", "client", c.name, "mask", mask)
}

func (c *demoClient) DragEnter(serial uint32, offer *datadevice.DataOffer, x, y float64) {
	c.lastDragOffer = offer
	logger.Info("data_device.enter", "client", c.name, "offer", offerLabel(offer), "x", x, "y", y, "serial", serial)
}

func (c *demoClient) DragMotion(time uint32, x, y float64) {
	logger.Debug("data_device.motion", "client", c.name, "x", x, "y", y)
}

func (c *demoClient) DragAction(action datadevice.Action) {
	logger.Info("data_device.action", "client", c.name, "action", action)
}

func (c *demoClient) DragLeave() {
	logger.Info("data_device.leave", "client", c.name)
	c.lastDragOffer = nil
}

func (c *demoClient) Drop() {
	logger.Info("data_device.drop", "client", c.name)
}

// --- datadevice.SourceListener ---

func (c *demoClient) Send(mimeType string, fd uintptr) {
	logger.Info("data_source.send", "client", c.name, "mime_type", mimeType)
}

func (c *demoClient) Cancelled() {
	logger.Info("data_source.cancelled", "client", c.name)
}

func (c *demoClient) DndDropPerformed() {
	logger.Info("data_source.dnd_drop_performed", "client", c.name)
}

func (c *demoClient) DndFinished() {
	logger.Info("data_source.dnd_finished", "client", c.name)
}

func (c *demoClient) DndCancelled() {
	logger.Info("data_source.dnd_cancelled", "client", c.name)
}

func (c *demoClient) Action(action datadevice.Action) {
	logger.Info("data_source.action", "client", c.name, "action", action)
}

// --- constraints.Listener ---

func (c *demoClient) Activated() {
	logger.Info("pointer_constraint.activated", "client", c.name)
}

func (c *demoClient) Deactivated() {
	logger.Info("pointer_constraint.deactivated", "client", c.name)
}

var _ seat.PointerListener = (*demoClient)(nil)
var _ seat.KeyboardListener = (*demoClient)(nil)
var _ seat.TouchListener = (*demoClient)(nil)
var _ datadevice.DeviceListener = (*demoClient)(nil)
var _ datadevice.SourceListener = (*demoClient)(nil)
var _ constraints.Listener = (*demoClient)(nil)

func offerLabel(offer *datadevice.DataOffer) string {
	if offer == nil {
		return "<null>"
	}
	return "data_offer"
}

func offerMimes(offer *datadevice.DataOffer) []string {
	if offer == nil {
		return nil
	}
	return offer.MimeTypes()
}
