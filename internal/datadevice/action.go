// Package datadevice implements the clipboard/primary-selection and
// drag-and-drop subsystem built on top of internal/seat and
// internal/surface: DataSource, DataOffer, DataDevice, the per-seat
// DataDeviceManager, the DnD session state machine, and action
// negotiation (§4.5–§4.8).
package datadevice

import "github.com/bnema/wlcore/internal/wlerr"

// Action is the DnD action bitmask; values are bit-exact with the protocol
// (§6): Copy=1, Move=2, Ask=4.
type Action uint32

const (
	ActionNone Action = 0
	ActionCopy Action = 1
	ActionMove Action = 2
	ActionAsk  Action = 4
)

const validActionBits = ActionCopy | ActionMove | ActionAsk

// ValidMask reports whether mask only uses the protocol's defined action
// bits (§6: any other bit is invalid_action_mask).
func ValidMask(mask Action) bool {
	return mask & ^validActionBits == 0
}

// ValidPreferred reports whether a is one of {None, Copy, Move, Ask}
// (§6: invalid_action otherwise).
func ValidPreferred(a Action) bool {
	switch a {
	case ActionNone, ActionCopy, ActionMove, ActionAsk:
		return true
	default:
		return false
	}
}

func checkMask(object string, mask Action) error {
	if !ValidMask(mask) {
		return wlerr.NewProtocolError(object, wlerr.CodeInvalidActionMask, "action mask %#x uses undefined bits", mask)
	}
	return nil
}

func checkPreferred(object string, preferred Action) error {
	if !ValidPreferred(preferred) {
		return wlerr.NewProtocolError(object, wlerr.CodeInvalidAction, "preferred action %#x is not one of none/copy/move/ask", preferred)
	}
	return nil
}

// negotiate implements §4.7's deterministic algorithm. preferredSet
// distinguishes "client never declared a preferred action" from an explicit
// one; the offer-side mask (including the pre-v3 default) is resolved by the
// caller, see DataOffer.sourceView.
func negotiate(source, offer Action, preferred Action, preferredSet bool, modifiers Action, dropped bool) Action {
	both := source & offer

	if !dropped {
		if modifiers&ActionCopy != 0 && both&ActionCopy != 0 {
			return ActionCopy
		}
		if modifiers&ActionMove != 0 && both&ActionMove != 0 {
			return ActionMove
		}
	}
	if preferredSet && preferred != ActionNone && source&preferred != 0 {
		return preferred
	}
	for _, candidate := range [3]Action{ActionCopy, ActionMove, ActionAsk} {
		if both&candidate != 0 {
			return candidate
		}
	}
	return ActionNone
}
