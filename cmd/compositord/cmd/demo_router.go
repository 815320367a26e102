package cmd

import (
	"github.com/bnema/wlcore/internal/seat"
	"github.com/bnema/wlcore/internal/surface"
)

// demoRouter is the stand-in for the real client/resource-binding layer:
// it remembers which demoClient owns each surface and hands back that
// client as the seat.Router target for every input listener interface.
type demoRouter struct {
	owners map[surface.ID]*demoClient
}

func newDemoRouter() *demoRouter {
	return &demoRouter{owners: make(map[surface.ID]*demoClient)}
}

func (r *demoRouter) own(surf surface.ID, c *demoClient) {
	r.owners[surf] = c
}

func (r *demoRouter) PointerListenerFor(surf surface.ID) (seat.PointerListener, bool) {
	c, ok := r.owners[surf]
	return c, ok
}

func (r *demoRouter) KeyboardListenerFor(surf surface.ID) (seat.KeyboardListener, bool) {
	c, ok := r.owners[surf]
	return c, ok
}

func (r *demoRouter) TouchListenerFor(surf surface.ID) (seat.TouchListener, bool) {
	c, ok := r.owners[surf]
	return c, ok
}

var _ seat.Router = (*demoRouter)(nil)
