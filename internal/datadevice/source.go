package datadevice

import (
	"fmt"
	"sync"

	"github.com/bnema/wlcore/internal/ids"
	"github.com/bnema/wlcore/internal/logger"
	"github.com/bnema/wlcore/internal/wlerr"
)

// SourceListener delivers the compositor → source-client callbacks
// (§4.5 "DataSource → compositor callbacks", §4.6 drop outcomes).
type SourceListener interface {
	Send(mimeType string, fd uintptr)
	Cancelled()
	DndDropPerformed()
	DndFinished()
	DndCancelled()
	Action(action Action)
}

// DataSource is a client-offered payload: a selection, primary-selection,
// or drag-and-drop source (§3 "DataSource"). The three are not distinct
// Go types; which role a source plays is determined by how it is used
// (set_selection vs start_drag), not by a fixed tag, mirroring the real
// protocol where wl_data_source itself is single-purpose until consumed.
type DataSource struct {
	mu sync.Mutex

	id       ids.ID
	client   ClientID
	listener SourceListener

	mimeTypes []string
	mimeSet   map[string]bool

	actionMask Action

	usedAsSelection bool
	usedInDrag      bool

	acceptedMIME *string
	selected     Action

	cancelled     bool
	dropPerformed bool
	finished      bool
}

func newSource(id ids.ID, client ClientID, listener SourceListener) *DataSource {
	return &DataSource{
		id:       id,
		client:   client,
		listener: listener,
		mimeSet:  make(map[string]bool),
	}
}

// ID returns the source's arena id.
func (s *DataSource) ID() ids.ID { return s.id }

// Offer appends mime to the offered set in offer order; duplicates are
// ignored (§3 "DataSource" attributes).
func (s *DataSource) Offer(mime string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mimeSet[mime] {
		return
	}
	s.mimeSet[mime] = true
	s.mimeTypes = append(s.mimeTypes, mime)
}

// MimeTypes returns the offered MIME types in offer order.
func (s *DataSource) MimeTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.mimeTypes...)
}

func (s *DataSource) offers(mime string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mimeSet[mime]
}

// SetActions declares the DnD-action mask this source supports. A source
// with any action bits set may no longer be used as a selection (§3, §6).
func (s *DataSource) SetActions(mask Action) error {
	if err := checkMask(fmt.Sprintf("data_source#%d", s.id), mask); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actionMask = mask
	return nil
}

func (s *DataSource) actions() Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actionMask
}

// validateForSelection enforces §4.5's set_selection guards: no DnD
// actions declared, and not already consumed by a drag.
func (s *DataSource) validateForSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj := fmt.Sprintf("data_source#%d", s.id)
	if s.actionMask != ActionNone {
		return wlerr.NewProtocolError(obj, wlerr.CodeInvalidSource, "a source declaring DnD actions cannot be used as a selection")
	}
	if s.usedInDrag {
		return wlerr.NewProtocolError(obj, wlerr.CodeInvalidSource, "a source already consumed by a drag cannot be used as a selection")
	}
	s.usedAsSelection = true
	return nil
}

// validateForDrag enforces the mirror guard: a source already used as a
// selection cannot be recycled into a drag (supplemented guard, see
// SPEC_FULL.md).
func (s *DataSource) validateForDrag() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usedAsSelection {
		return wlerr.NewProtocolError(fmt.Sprintf("data_source#%d", s.id), wlerr.CodeInvalidSource, "a source already used as a selection cannot start a drag")
	}
	s.usedInDrag = true
	return nil
}

// Accept records the target's current best-accepted MIME type, or nil if
// nothing is currently accepted.
func (s *DataSource) Accept(mime *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acceptedMIME = mime
}

func (s *DataSource) accepted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acceptedMIME != nil
}

// Send forwards a receive() request from some target client to the source
// client (§4.5 "send(mime_type, fd)"). A source already cancelled by a
// newer selection still forwards, so offers made from it stay readable.
func (s *DataSource) Send(mime string, fd uintptr) {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return
	}
	listener.Send(mime, fd)
}

// Cancel marks the source replaced/cancelled and notifies its client
// (§4.5 step 1).
func (s *DataSource) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	listener := s.listener
	s.mu.Unlock()
	if listener != nil {
		listener.Cancelled()
	}
	logger.Debugf("data_source#%d: cancelled", s.id)
}

// MarkDropPerformed records that a drop target accepted the drag, which
// extends the source's lifetime until finish or offer destruction (§3
// invariant).
func (s *DataSource) MarkDropPerformed() {
	s.mu.Lock()
	s.dropPerformed = true
	listener := s.listener
	s.mu.Unlock()
	if listener != nil {
		listener.DndDropPerformed()
	}
}

func (s *DataSource) dropWasPerformed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropPerformed
}

// Finish signals successful completion after the target's finish()
// (§4.6, §4.8).
func (s *DataSource) Finish() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	listener := s.listener
	s.mu.Unlock()
	if listener != nil {
		listener.DndFinished()
	}
}

// CancelDrag signals the drag ended without a successful drop (§4.6
// "Otherwise: cancel the drag").
func (s *DataSource) CancelDrag() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	listener := s.listener
	s.mu.Unlock()
	if listener != nil {
		listener.DndCancelled()
	}
}

// NotifyAction mirrors the negotiated action to the source client.
func (s *DataSource) NotifyAction(action Action) {
	s.mu.Lock()
	s.selected = action
	listener := s.listener
	s.mu.Unlock()
	if listener != nil {
		listener.Action(action)
	}
}
