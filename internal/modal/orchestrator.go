package modal

import (
	"errors"
	"sync"
)

// Reporter receives failures that should surface to the user.
type Reporter interface {
	Report(err error)
}

// Orchestrator owns at most one active modal. Opening a modal replaces the previous one.
type Orchestrator struct {
	mu      sync.Mutex
	active  Modal
	version uint64
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{}
}

// Open makes m the active modal. A nil modal is a programming error.
func (o *Orchestrator) Open(m Modal) {
	if m == nil {
		panic("modal: Open called with nil modal")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = m
	o.version++
}

// Close dismisses the active modal; closing when nothing is open does nothing.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return
	}
	o.active = nil
	o.version++
}

// closeIf dismisses the active modal only if nothing was opened since version.
func (o *Orchestrator) closeIf(version uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil || o.version != version {
		return
	}
	o.active = nil
	o.version++
}

// Active returns the open modal, if any.
func (o *Orchestrator) Active() (Modal, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active, o.active != nil
}

// Current returns the active modal together with a close bound to it.
func (o *Orchestrator) Current() (Modal, CloseFunc, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return nil, func() {}, false
	}
	v := o.version
	return o.active, func() { o.closeIf(v) }, true
}

// Version changes every time a modal is opened or closed.
func (o *Orchestrator) Version() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.version
}

// Report shows err in the error modal, replacing whatever was open.
func (o *Orchestrator) Report(err error) {
	if err == nil {
		return
	}
	o.Open(ShowError{Message: err.Error()})
}

// ErrNoActiveModal is returned when an action targets a dialog that is not open.
var ErrNoActiveModal = errors.New("no modal is open")
