// Package constraints implements the server side of the pointer-constraints
// protocol: a per-(surface, pointer) registry handing out at most one
// Confine or Lock constraint, with OneShot/Persistent lifetime and
// double-buffered region / cursor-position-hint state (§4.4). Naming is
// grounded on the teacher's client-side binding in
// pointer_constraints/pointer_constraints.go, re-expressed here as the
// compositor granting the objects that package would request.
package constraints

import (
	"fmt"
	"sync"

	"github.com/bnema/wlcore/internal/logger"
	"github.com/bnema/wlcore/internal/surface"
	"github.com/bnema/wlcore/internal/wlerr"
)

// Lifetime mirrors zwp_pointer_constraints_v1's lifetime enum.
type Lifetime int

const (
	LifetimeOneShot Lifetime = iota + 1
	LifetimePersistent
)

// Variant distinguishes a lock from a confine constraint.
type Variant int

const (
	VariantLock Variant = iota
	VariantConfine
)

// Listener receives the activation/deactivation events for a constraint
// (locked/unlocked, confined/unconfined).
type Listener interface {
	Activated()
	Deactivated()
}

// Constraint is a live zwp_locked_pointer_v1 or zwp_confined_pointer_v1
// object (§3 "PointerConstraint").
type Constraint struct {
	mu sync.Mutex

	registry *Registry
	surf     surface.ID
	variant  Variant
	lifetime Lifetime
	listener Listener

	active bool

	region        *surface.Region // committed
	pendingRegion *surface.Region
	regionSet     bool

	cursorHint        struct{ x, y float64 } // committed, Lock only
	pendingCursorHint struct{ x, y float64 }
	cursorHintSet     bool

	lockX, lockY float64 // position snapshotted at activation, Lock only

	destroyed bool
}

// Registry grants and tracks constraints, enforcing the at-most-one rule
// per surface (§4.4: "keyed by (surface, pointer)"; this core models a
// single seat/pointer, so the key degenerates to surface id).
type Registry struct {
	mu   sync.Mutex
	comp *surface.Compositor
	byID map[surface.ID]*Constraint
}

// NewRegistry creates an empty constraint registry over comp.
func NewRegistry(comp *surface.Compositor) *Registry {
	return &Registry{comp: comp, byID: make(map[surface.ID]*Constraint)}
}

// Create grants a new constraint for surf, inactive (§4.4 "Creation").
// Fails with a protocol error if surf already has one live.
func (r *Registry) Create(surf *surface.Surface, variant Variant, lifetime Lifetime, region *surface.Region, listener Listener) (*Constraint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[surf.ID()]; exists {
		return nil, wlerr.NewProtocolError(fmt.Sprintf("surface#%d", surf.ID()), wlerr.CodeAlreadyConstrained,
			"a pointer constraint already exists for this surface")
	}

	c := &Constraint{
		registry:      r,
		surf:          surf.ID(),
		variant:       variant,
		lifetime:      lifetime,
		listener:      listener,
		region:        region,
		pendingRegion: region,
	}
	r.byID[surf.ID()] = c
	return c, nil
}

// Lookup returns the live constraint for a surface, if any.
func (r *Registry) Lookup(surf surface.ID) (*Constraint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[surf]
	return c, ok
}

func (r *Registry) remove(surf surface.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, surf)
}

// Variant reports whether this is a lock or a confine constraint.
func (c *Constraint) Variant() Variant { return c.variant }

// Active reports the current activation state.
func (c *Constraint) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetRegion sets the pending confine/lock region; applied on the next
// surface commit (§4.4 "Double-buffered state").
func (c *Constraint) SetRegion(region *surface.Region) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingRegion = region
	c.regionSet = true
}

// SetCursorPositionHint sets the pending cursor-position hint (Lock only);
// applied on the next surface commit.
func (c *Constraint) SetCursorPositionHint(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingCursorHint.x, c.pendingCursorHint.y = x, y
	c.cursorHintSet = true
}

// ApplyCommit moves the pending region/cursor-hint into the committed
// state. Called by whatever drives surface.Commit for this constraint's
// surface, since the surface package itself has no hook mechanism (§4.4
// "Double-buffered state... apply on the next surface commit").
func (c *Constraint) ApplyCommit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.regionSet {
		c.region = c.pendingRegion
		c.regionSet = false
	}
	if c.cursorHintSet {
		c.cursorHint = c.pendingCursorHint
		c.cursorHintSet = false
		if c.active && c.variant == VariantLock {
			c.lockX, c.lockY = c.cursorHint.x, c.cursorHint.y
		}
	}
	if c.active && c.region != nil && len(c.region.Rects) == 0 {
		// Region became empty: deactivation trigger (§4.4 "Deactivation
		// triggers: ... the region becomes empty").
		c.deactivateLocked()
	}
}

// Activate turns the constraint on (policy call: "common default: always
// activate when focused", §4.4). A Lock snaps the reported cursor to the
// current position.
func (c *Constraint) Activate(currentX, currentY float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active || c.destroyed {
		return
	}
	c.active = true
	if c.variant == VariantLock {
		c.lockX, c.lockY = currentX, currentY
	}
	if c.listener != nil {
		c.listener.Activated()
	}
	logger.Debugf("constraint on surface#%d activated (variant=%d)", c.surf, c.variant)
}

// Deactivate turns the constraint off. A OneShot constraint is destroyed by
// the registry immediately afterward; a Persistent one survives and may be
// reactivated later (§4.4 "Lifetime rule").
func (c *Constraint) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deactivateLocked()
}

func (c *Constraint) deactivateLocked() {
	if !c.active {
		return
	}
	c.active = false
	if c.listener != nil {
		c.listener.Deactivated()
	}
	if c.lifetime == LifetimeOneShot {
		c.destroyLocked()
	}
}

// Destroy removes the constraint from its registry unconditionally (client
// request, or surface destruction observed by a higher layer).
func (c *Constraint) Destroy() {
	c.mu.Lock()
	wasActive := c.active
	c.mu.Unlock()
	if wasActive {
		c.Deactivate()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyLocked()
}

func (c *Constraint) destroyLocked() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.registry.remove(c.surf)
}

// LockPosition returns the position the pointer is pinned at while an
// active Lock is in effect.
func (c *Constraint) LockPosition() (float64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lockX, c.lockY
}

// ClampConfine clamps (x, y) to the intersection of the constraint's region
// and the surface's input region (§4.4 "Confine: reported pointer motion is
// clamped to the constraint region ∩ surface input region; motion outside
// does not update the pointer position"). ok is false when the point falls
// outside the intersection, meaning the caller must not update the
// reported position.
func (c *Constraint) ClampConfine(surf *surface.Surface, x, y float64) (cx, cy float64, ok bool) {
	c.mu.Lock()
	region := c.region
	c.mu.Unlock()

	if region != nil && !region.Contains(x, y) {
		return 0, 0, false
	}
	if ir := surf.InputRegion(); ir != nil && !ir.Contains(x, y) {
		return 0, 0, false
	}
	return x, y, true
}
