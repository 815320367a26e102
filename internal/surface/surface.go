// Package surface implements the Surface abstraction and the sub-surface
// tree built on top of it: double-buffered pending/committed state, a
// once-only role tag, and synchronized/desynchronized commit propagation
// for nested sub-surface trees.
package surface

import (
	"fmt"

	"github.com/bnema/wlcore/internal/ids"
	"github.com/bnema/wlcore/internal/logger"
	"github.com/bnema/wlcore/internal/wlerr"
)

// Role fixes how a surface is interpreted. Once assigned it is immutable;
// re-assigning a different role is a protocol error, re-assigning the same
// one is idempotent (§4.1).
type Role string

const (
	RoleNone       Role = ""
	RoleSubSurface Role = "sub_surface"
	RoleDragIcon   Role = "dnd_icon"
	RoleCursor     Role = "cursor"
)

// Region is an opaque list of rectangles; the core never inspects pixel
// contents, only geometry needed for hit-testing and constraint clamping.
type Region struct {
	Rects []Rect
}

// Rect is an axis-aligned rectangle in surface-local coordinates.
type Rect struct {
	X, Y, W, H int32
}

// Contains reports whether (x, y) falls within any rectangle of the region.
// A nil region is treated as "no region" (see the caller's convention for
// unset regions — the default input region is the whole surface).
func (r *Region) Contains(x, y float64) bool {
	if r == nil {
		return true
	}
	for _, rect := range r.Rects {
		if x >= float64(rect.X) && x < float64(rect.X+rect.W) &&
			y >= float64(rect.Y) && y < float64(rect.Y+rect.H) {
			return true
		}
	}
	return false
}

// Buffer is an opaque renderable handle; the core never interprets its
// contents (§1 Non-goals: "the core does not inspect" buffer contents).
type Buffer any

// state is the double-buffered shape shared by pending and committed sides.
type state struct {
	buffer       Buffer
	bufferSet    bool
	dx, dy       int32 // attach offset, consumed into DragIcon cumulative offset
	damage       []Rect
	inputRegion  *Region
	opaqueRegion *Region
	frameCBs     []func()
}

func (s state) clone() state {
	cp := s
	cp.damage = append([]Rect(nil), s.damage...)
	cp.frameCBs = append([]func(){}, s.frameCBs...)
	return cp
}

// ID identifies a Surface within a Compositor's arena.
type ID = ids.ID

// Surface is an opaque renderable region with a committed state and a
// pending state (§3 "Surface").
type Surface struct {
	id         ID
	compositor *Compositor

	role Role
	sub  *SubSurfaceData // non-nil iff role == RoleSubSurface

	parent   ID // 0 = no parent
	children []ID

	// pendingChildOrder buffers a place_above/place_below reorder of this
	// surface's children (§4.2 edge cases). Unlike sub, it exists on every
	// surface regardless of role: any surface may parent sub-surfaces, not
	// only ones that are themselves sub-surfaces.
	pendingChildOrder []ID

	pending   state
	committed state
	queued    *state // deferred generation awaiting a desync ancestor commit

	destroyed bool
}

// Compositor owns the arena of live surfaces. It is the factory referenced
// by §3's Surface lifecycle ("created by the client via Compositor").
type Compositor struct {
	surfaces *ids.Arena[*Surface]
}

// NewCompositor creates an empty surface arena.
func NewCompositor() *Compositor {
	return &Compositor{surfaces: ids.New[*Surface]()}
}

// CreateSurface allocates a new root surface with no role and no parent.
func (c *Compositor) CreateSurface() *Surface {
	s := &Surface{compositor: c}
	s.id = c.surfaces.Insert(s)
	return s
}

// Lookup resolves a surface id, returning ok=false if it was destroyed or
// never existed.
func (c *Compositor) Lookup(id ID) (*Surface, bool) {
	s, ok := c.surfaces.Get(id)
	if !ok || s.destroyed {
		return nil, false
	}
	return s, true
}

// ID returns this surface's stable arena id.
func (s *Surface) ID() ID { return s.id }

// Role returns the surface's current role tag.
func (s *Surface) Role() Role { return s.role }

// SetRole assigns role exactly once (§4.1). A second call with a different
// tag is a protocol error; a second call with the same tag is a no-op.
func (s *Surface) SetRole(role Role) error {
	if s.role == RoleNone {
		s.role = role
		if role == RoleSubSurface {
			s.sub = &SubSurfaceData{mode: Synchronized}
		}
		return nil
	}
	if s.role == role {
		return nil
	}
	return wlerr.NewProtocolError(fmt.Sprintf("surface#%d", s.id), wlerr.CodeRole,
		"the wl_surface already has a role assigned (%s)", s.role)
}

// Attach sets the pending buffer and attach offset.
func (s *Surface) Attach(buf Buffer, dx, dy int32) {
	s.pending.buffer = buf
	s.pending.bufferSet = true
	s.pending.dx, s.pending.dy = dx, dy
}

// Damage records a pending damage rectangle.
func (s *Surface) Damage(r Rect) {
	s.pending.damage = append(s.pending.damage, r)
}

// SetInputRegion sets the pending input region (nil means "whole surface").
func (s *Surface) SetInputRegion(r *Region) {
	s.pending.inputRegion = r
}

// SetOpaqueRegion sets the pending opaque region.
func (s *Surface) SetOpaqueRegion(r *Region) {
	s.pending.opaqueRegion = r
}

// Frame registers a one-shot callback fired the next time this surface's
// pending state actually takes effect (immediately for desync surfaces,
// or when a desynchronized ancestor flushes this surface's queued
// generation). This is the "drag-icon surface continues to receive its
// frame callbacks" mechanism from §4.6.
func (s *Surface) Frame(cb func()) {
	s.pending.frameCBs = append(s.pending.frameCBs, cb)
}

// InputRegion returns the committed input region.
func (s *Surface) InputRegion() *Region { return s.committed.inputRegion }

// Buffer returns the committed buffer handle and whether one was ever
// attached.
func (s *Surface) Buffer() (Buffer, bool) { return s.committed.buffer, s.committed.bufferSet }

// AttachOffset returns the committed attach offset (consumed by DragIcon to
// accumulate its position, §4.6).
func (s *Surface) AttachOffset() (int32, int32) { return s.committed.dx, s.committed.dy }

// Parent returns the parent surface id and whether one is set.
func (s *Surface) Parent() (ID, bool) { return s.parent, s.parent != 0 }

// Children returns the child ids in stacking order (front to back or back
// to front is a host-dispatcher rendering concern; the core only needs a
// stable order for commit propagation).
func (s *Surface) Children() []ID { return append([]ID(nil), s.children...) }

// Destroy removes the surface from the arena and unlinks it from its parent
// and children. It notifies no other subsystem. Seat drops pointer focus on
// a destroyed surface at the next pointer event; keyboard and touch focus
// are not cleared, and a pointer constraint on the surface stays in its
// registry until Constraint.Destroy is called. Drag targets change only
// when the host calls DataDevice's DragFocusChanged.
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	if s.parent != 0 {
		if parent, ok := s.compositor.Lookup(s.parent); ok {
			parent.removeChild(s.id)
		}
	}
	// A parent-destroyed child becomes a root surface (§4.2 Failure
	// semantics); since this surface itself is gone there's nothing further
	// to reparent here, but we null out child->parent links for any
	// remaining children so they become roots rather than dangling.
	for _, childID := range s.children {
		if child, ok := s.compositor.Lookup(childID); ok {
			child.parent = 0
		}
	}
	s.compositor.surfaces.Remove(s.id)
}

func (s *Surface) removeChild(id ID) {
	for i, c := range s.children {
		if c == id {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// Commit atomically moves pending into committed (§4.1). For a sub-surface
// that is effectively synchronized, the pending state is stashed instead of
// applied, to be drained by the nearest desynchronized ancestor's commit
// (§4.2).
func (s *Surface) Commit() error {
	if s.role == RoleSubSurface && s.effectivelySynchronized() {
		snap := s.pending.clone()
		s.queued = &snap
		s.resetPending()
		logger.Debugf("surface#%d: commit deferred (effectively synchronized)", s.id)
		return nil
	}
	s.applyOwn()
	s.cascadeChildren()
	return nil
}

func (s *Surface) applyOwn() {
	s.mergeCommitted(s.pending)
	s.resetPending()
}

func (s *Surface) mergeCommitted(src state) {
	if src.bufferSet {
		s.committed.buffer = src.buffer
		s.committed.bufferSet = true
		s.committed.dx, s.committed.dy = src.dx, src.dy
	} else {
		s.committed.dx, s.committed.dy = 0, 0
	}
	if src.inputRegion != nil {
		s.committed.inputRegion = src.inputRegion
	}
	if src.opaqueRegion != nil {
		s.committed.opaqueRegion = src.opaqueRegion
	}
	s.committed.damage = src.damage
	for _, cb := range src.frameCBs {
		cb()
	}
	if s.sub != nil {
		s.sub.committedX, s.sub.committedY = s.sub.pendingX, s.sub.pendingY
	}
	if s.pendingChildOrder != nil {
		s.children = s.pendingChildOrder
		s.pendingChildOrder = nil
	}
}

func (s *Surface) resetPending() {
	s.pending = state{}
}

// cascadeChildren drains one queued generation from every sub-surface child,
// recursing down the whole subtree. A child's own mode isn't checked here:
// a child holds a queued generation only if it was effectively synchronized
// when it committed, which can be the case even with its own mode
// Desynchronized when an ancestor is Synchronized (§4.2 state machine).
func (s *Surface) cascadeChildren() {
	for _, childID := range s.children {
		child, ok := s.compositor.Lookup(childID)
		if !ok || child.role != RoleSubSurface {
			continue
		}
		if child.queued != nil {
			child.mergeCommitted(*child.queued)
			child.queued = nil
			logger.Debugf("surface#%d: flushed queued generation for surface#%d", s.id, child.id)
		}
		child.cascadeChildren()
	}
}

// effectivelySynchronized implements §4.2's recursive predicate:
// parent-effective-sync OR my-mode == Synchronized.
func (s *Surface) effectivelySynchronized() bool {
	if s.role != RoleSubSurface {
		return false
	}
	if s.sub.mode == Synchronized {
		return true
	}
	parent, ok := s.compositor.Lookup(s.parent)
	if !ok {
		return false
	}
	return parent.effectivelySynchronized()
}
