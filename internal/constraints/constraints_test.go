package constraints

import (
	"testing"

	"github.com/bnema/wlcore/internal/surface"
)

type fakeListener struct {
	activations   int
	deactivations int
}

func (f *fakeListener) Activated()   { f.activations++ }
func (f *fakeListener) Deactivated() { f.deactivations++ }

func TestSecondConstraintOnSameSurfaceRejected(t *testing.T) {
	comp := surface.NewCompositor()
	s := comp.CreateSurface()
	r := NewRegistry(comp)

	if _, err := r.Create(s, VariantLock, LifetimeOneShot, nil, nil); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := r.Create(s, VariantConfine, LifetimeOneShot, nil, nil); err == nil {
		t.Fatal("expected protocol error creating a second constraint on the same surface")
	}
}

func TestOneShotDestroyedOnFirstDeactivation(t *testing.T) {
	comp := surface.NewCompositor()
	s := comp.CreateSurface()
	r := NewRegistry(comp)
	fl := &fakeListener{}

	c, err := r.Create(s, VariantLock, LifetimeOneShot, nil, fl)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c.Activate(0, 0)
	c.Deactivate()

	if fl.activations != 1 || fl.deactivations != 1 {
		t.Fatalf("activations=%d deactivations=%d; want 1,1", fl.activations, fl.deactivations)
	}
	if _, ok := r.Lookup(s.ID()); ok {
		t.Fatal("OneShot constraint should be gone from the registry after its first deactivation")
	}
}

func TestPersistentSurvivesDeactivation(t *testing.T) {
	comp := surface.NewCompositor()
	s := comp.CreateSurface()
	r := NewRegistry(comp)
	fl := &fakeListener{}

	c, err := r.Create(s, VariantLock, LifetimePersistent, nil, fl)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c.Activate(1, 1)
	c.Deactivate()

	if _, ok := r.Lookup(s.ID()); !ok {
		t.Fatal("Persistent constraint must survive deactivation")
	}

	c.Activate(2, 2)
	x, y := c.LockPosition()
	if x != 2 || y != 2 {
		t.Fatalf("LockPosition after reactivation = %v,%v; want 2,2", x, y)
	}
}

func TestConfineClampsToRegionIntersection(t *testing.T) {
	comp := surface.NewCompositor()
	s := comp.CreateSurface()
	s.SetInputRegion(&surface.Region{Rects: []surface.Rect{{X: 0, Y: 0, W: 100, H: 100}}})
	s.Commit()

	r := NewRegistry(comp)
	region := &surface.Region{Rects: []surface.Rect{{X: 10, Y: 10, W: 20, H: 20}}}
	c, err := r.Create(s, VariantConfine, LifetimePersistent, region, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c.Activate(15, 15)

	if _, _, ok := c.ClampConfine(s, 15, 15); !ok {
		t.Fatal("point inside the constraint region should be allowed")
	}
	if _, _, ok := c.ClampConfine(s, 50, 50); ok {
		t.Fatal("point outside the constraint region must not update position")
	}
}

func TestRegionBecomingEmptyDeactivates(t *testing.T) {
	comp := surface.NewCompositor()
	s := comp.CreateSurface()
	r := NewRegistry(comp)
	fl := &fakeListener{}

	c, err := r.Create(s, VariantConfine, LifetimePersistent, &surface.Region{Rects: []surface.Rect{{X: 0, Y: 0, W: 10, H: 10}}}, fl)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c.Activate(5, 5)

	c.SetRegion(&surface.Region{})
	c.ApplyCommit()

	if fl.deactivations != 1 {
		t.Fatalf("deactivations = %d; want 1 after region became empty", fl.deactivations)
	}
}
