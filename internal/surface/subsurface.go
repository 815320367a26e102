package surface

import (
	"fmt"

	"github.com/bnema/wlcore/internal/wlerr"
)

// Mode is the sub-surface commit-propagation mode (§3 "SubSurface").
type Mode int

const (
	Synchronized Mode = iota
	Desynchronized
)

// SubSurfaceData is the role-specific state attached to a surface once it
// has been given the sub-surface role.
type SubSurfaceData struct {
	mode Mode

	pendingX, pendingY     int32
	committedX, committedY int32
}

// Mode returns the sub-surface's current commit-propagation mode.
func (s *Surface) Mode() (Mode, bool) {
	if s.sub == nil {
		return 0, false
	}
	return s.sub.mode, true
}

// SetMode changes Synchronized/Desynchronized. Unlike position, mode takes
// effect immediately (it is not part of the double-buffered pending state),
// matching the real wl_subsurface protocol. Switching into Desynchronized
// while now effectively desynchronized flushes any queued generation
// immediately in FIFO (stacking) order as one atomic batch (§4.2).
func (s *Surface) SetMode(mode Mode) error {
	if s.sub == nil {
		return wlerr.NewProtocolError(fmt.Sprintf("surface#%d", s.id), wlerr.CodeRole,
			"set_sync/set_desync on a surface without the sub-surface role")
	}
	s.sub.mode = mode
	if mode == Desynchronized && !s.effectivelySynchronized() {
		if s.queued != nil {
			s.mergeCommitted(*s.queued)
			s.queued = nil
		}
		s.cascadeChildren()
	}
	return nil
}

// SetPosition sets the pending position relative to the parent; applied on
// the next commit that takes effect for this surface.
func (s *Surface) SetPosition(x, y int32) error {
	if s.sub == nil {
		return wlerr.NewProtocolError(fmt.Sprintf("surface#%d", s.id), wlerr.CodeRole,
			"set_position on a surface without the sub-surface role")
	}
	s.sub.pendingX, s.sub.pendingY = x, y
	return nil
}

// Position returns the committed parent-relative position.
func (s *Surface) Position() (int32, int32) {
	if s.sub == nil {
		return 0, 0
	}
	return s.sub.committedX, s.sub.committedY
}

// AddSubSurface assigns child the sub-surface role (error if it already has
// a different role) and attaches it under parent. Cycles in the
// parent-child graph are a fatal protocol error (§3, §4.2).
func (c *Compositor) AddSubSurface(child, parent *Surface) error {
	if err := child.SetRole(RoleSubSurface); err != nil {
		return err
	}
	if wouldCycle(c, parent, child.id) {
		return wlerr.NewProtocolError(fmt.Sprintf("surface#%d", child.id), wlerr.CodeCyclicSubSurface,
			"sub-surface parenting would create a cycle")
	}
	if child.parent != 0 {
		if old, ok := c.Lookup(child.parent); ok {
			old.removeChild(child.id)
		}
	}
	child.parent = parent.id
	parent.children = append(parent.children, child.id)
	return nil
}

func wouldCycle(c *Compositor, candidateParent *Surface, childID ID) bool {
	cur := candidateParent
	for {
		if cur.id == childID {
			return true
		}
		if cur.parent == 0 {
			return false
		}
		next, ok := c.Lookup(cur.parent)
		if !ok {
			return false
		}
		cur = next
	}
}

// PlaceAbove reorders sibling such that child is immediately above
// reference in parent's pending stacking order. Reordering is itself
// double-buffered onto parent's pending state (§4.2 edge cases). parent
// need not be a sub-surface itself — any surface may parent sub-surfaces.
func (c *Compositor) PlaceAbove(parent *Surface, child, reference ID) {
	parent.ensurePendingOrder()
	parent.reorderPendingChildren(child, reference, true)
}

// PlaceBelow is PlaceAbove's mirror.
func (c *Compositor) PlaceBelow(parent *Surface, child, reference ID) {
	parent.ensurePendingOrder()
	parent.reorderPendingChildren(child, reference, false)
}

func (s *Surface) ensurePendingOrder() {
	if s.pendingChildOrder == nil {
		s.pendingChildOrder = append([]ID(nil), s.children...)
	}
}

func (s *Surface) reorderPendingChildren(child, reference ID, above bool) {
	order := s.pendingChildOrder
	idx := indexOf(order, child)
	if idx < 0 {
		return
	}
	order = append(order[:idx], order[idx+1:]...)
	refIdx := indexOf(order, reference)
	if refIdx < 0 {
		s.pendingChildOrder = append(order, child)
		return
	}
	if above {
		refIdx++
	}
	out := make([]ID, 0, len(order)+1)
	out = append(out, order[:refIdx]...)
	out = append(out, child)
	out = append(out, order[refIdx:]...)
	s.pendingChildOrder = out
}

func indexOf(ids []ID, id ID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
