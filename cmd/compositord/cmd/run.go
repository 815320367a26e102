package cmd

import (
	"github.com/bnema/wlcore/internal/config"
	"github.com/bnema/wlcore/internal/constraints"
	"github.com/bnema/wlcore/internal/datadevice"
	"github.com/bnema/wlcore/internal/logger"
	"github.com/bnema/wlcore/internal/seat"
	"github.com/bnema/wlcore/internal/surface"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Wire the protocol core and drive a scripted demo session",
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	var caps seat.Capability
	if cfg.Seat.EnablePointer {
		caps |= seat.CapabilityPointer
	}
	if cfg.Seat.EnableKeyboard {
		caps |= seat.CapabilityKeyboard
	}
	if cfg.Seat.EnableTouch {
		caps |= seat.CapabilityTouch
	}

	comp := surface.NewCompositor()
	router := newDemoRouter()
	st := seat.New(cfg.Seat.Name, caps, comp, router)
	mgr := datadevice.New(st, comp, cfg.Dispatcher.DataDeviceVersion)
	cr := constraints.NewRegistry(comp)
	st.SetConstraints(cr)

	logger.Info("seat advertised", "name", st.Name(), "capabilities", st.Capabilities())

	alice := newDemoClient("alice")
	bob := newDemoClient("bob")

	aliceSurf := comp.CreateSurface()
	bobSurf := comp.CreateSurface()
	router.own(aliceSurf.ID(), alice)
	router.own(bobSurf.ID(), bob)
	mgr.SetSurfaceOwner(aliceSurf.ID(), alice.id)
	mgr.SetSurfaceOwner(bobSurf.ID(), bob.id)
	mgr.RegisterClient(alice.id, alice)
	mgr.RegisterClient(bob.id, bob)

	runSelectionScenario(st, mgr, alice, bob, aliceSurf, bobSurf)
	runDragAndDropScenario(st, mgr, alice, bob, aliceSurf, bobSurf)
	runPointerConstraintScenario(st, cr, alice, aliceSurf)

	logger.Info("demo session complete")
	return nil
}

// runSelectionScenario exercises set_selection and the refocus-resend
// behavior (§4.5): alice offers a clipboard payload, then focus moves to
// bob, who receives a fresh offer for it.
func runSelectionScenario(st *seat.Seat, mgr *datadevice.Manager, alice, bob *demoClient, aliceSurf, bobSurf *surface.Surface) {
	st.SetFocusedKeyboardSurface(aliceSurf.ID())

	src, err := mgr.CreateDataSource(alice.id, alice)
	if err != nil {
		logger.Errorf("create_data_source failed: %v", err)
		return
	}
	src.Offer("text/plain;charset=utf-8")
	src.Offer("text/html")

	serial := st.NextSerial()
	if err := mgr.SetSelection(alice.id, src, serial); err != nil {
		logger.Errorf("set_selection failed: %v", err)
		return
	}

	st.SetFocusedKeyboardSurface(bobSurf.ID())
}

// runDragAndDropScenario exercises start_drag through drop/finish (§4.6,
// §4.7): alice presses a button over her own surface, drags onto bob's,
// and bob accepts the negotiated action.
func runDragAndDropScenario(st *seat.Seat, mgr *datadevice.Manager, alice, bob *demoClient, aliceSurf, bobSurf *surface.Surface) {
	st.NotifyPointerEnter(aliceSurf.ID(), 0, 0)
	st.NotifyPointerButton(0, 272, seat.ButtonPressed)
	serial, ok := st.ButtonPressSerial(272)
	if !ok {
		logger.Error("no button-press serial recorded; aborting drag demo")
		return
	}

	src, err := mgr.CreateDataSource(alice.id, alice)
	if err != nil {
		logger.Errorf("create_data_source failed: %v", err)
		return
	}
	src.Offer("text/uri-list")
	if err := src.SetActions(datadevice.ActionCopy | datadevice.ActionMove); err != nil {
		logger.Errorf("set_actions failed: %v", err)
		return
	}

	if err := mgr.StartDrag(alice.id, src, aliceSurf.ID(), nil, serial); err != nil {
		logger.Errorf("start_drag failed: %v", err)
		return
	}

	mgr.DragFocusChanged(bobSurf.ID(), 10, 10)
	mgr.DragMotion(1, 12, 14)

	offer := bob.lastDragOffer
	if offer == nil {
		logger.Error("bob never received a drag offer")
		return
	}
	if err := mgr.SetOfferActions(offer, datadevice.ActionCopy|datadevice.ActionMove, datadevice.ActionMove); err != nil {
		logger.Errorf("offer.set_actions failed: %v", err)
		return
	}
	mime := "text/uri-list"
	mgr.AcceptOffer(offer, &mime)

	st.NotifyPointerButton(2, 272, seat.ButtonReleased)
	mgr.DragButtonReleased()

	if err := mgr.FinishOffer(offer); err != nil {
		logger.Errorf("offer.finish failed: %v", err)
	}
}

// runPointerConstraintScenario exercises confine/lock activation through the
// real NotifyPointerMotion/NotifyPointerLeave delivery path, not just the
// standalone clamp math (§4.4): a confined pointer's in-region motion is
// delivered clamped, out-of-region motion is dropped; a locked pointer's
// motion is suppressed entirely; and leaving the surface deactivates
// whichever constraint is still live.
func runPointerConstraintScenario(st *seat.Seat, cr *constraints.Registry, alice *demoClient, aliceSurf *surface.Surface) {
	region := &surface.Region{Rects: []surface.Rect{{X: 0, Y: 0, W: 200, H: 200}}}
	confine, err := cr.Create(aliceSurf, constraints.VariantConfine, constraints.LifetimePersistent, region, alice)
	if err != nil {
		logger.Errorf("pointer constraint creation failed: %v", err)
		return
	}

	st.NotifyPointerEnter(aliceSurf.ID(), 50, 50)
	confine.Activate(50, 50)

	st.NotifyPointerMotion(3, 150, 150) // inside the region: clamped through and delivered
	st.NotifyPointerMotion(4, 500, 500) // outside the region: dropped, position unchanged

	confine.Destroy()

	lock, err := cr.Create(aliceSurf, constraints.VariantLock, constraints.LifetimeOneShot, nil, alice)
	if err != nil {
		logger.Errorf("lock constraint creation failed: %v", err)
		return
	}
	lock.Activate(150, 150)
	st.NotifyPointerMotion(5, 160, 160) // Lock: motion suppressed entirely

	// Leaving the surface is itself a deactivation trigger; the OneShot
	// lock is destroyed as a side effect (§4.4 "Lifetime rule").
	st.NotifyPointerLeave()
}
