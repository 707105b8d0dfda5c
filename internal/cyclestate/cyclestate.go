// Package cyclestate guards the persisted status of a cycle. A cycle has two
// states and may move freely between them: reconciliation can settle a cycle
// and later debt can reopen it. What the machine rejects is any status other
// than active or settled.
package cyclestate

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/cleared-dev/debtbook/internal/model"
)

const (
	EventSettle = "settle"
	EventReopen = "reopen"
)

// Machine wraps the active/settled state machine of one cycle.
type Machine struct {
	fsm *fsm.FSM
}

// New returns a machine starting at status. An empty status is active.
func New(status model.EntryStatus) (*Machine, error) {
	if status == "" {
		status = model.EntryActive
	}
	if status != model.EntryActive && status != model.EntrySettled {
		return nil, fmt.Errorf("unknown cycle status %q", status)
	}

	m := fsm.NewFSM(
		string(status),
		fsm.Events{
			// active → settled once the balance is within tolerance
			{Name: EventSettle, Src: []string{string(model.EntryActive)}, Dst: string(model.EntrySettled)},

			// settled → active when new debt lands in the cycle
			{Name: EventReopen, Src: []string{string(model.EntrySettled)}, Dst: string(model.EntryActive)},
		},
		fsm.Callbacks{},
	)
	return &Machine{fsm: m}, nil
}

// Current returns the machine's status.
func (m *Machine) Current() model.EntryStatus {
	return model.EntryStatus(m.fsm.Current())
}

// MoveTo transitions to status. Staying in the same status is a no-op.
func (m *Machine) MoveTo(ctx context.Context, status model.EntryStatus) error {
	if status == m.Current() {
		return nil
	}

	var event string
	switch status {
	case model.EntrySettled:
		event = EventSettle
	case model.EntryActive:
		event = EventReopen
	default:
		return fmt.Errorf("unknown cycle status %q", status)
	}

	if err := m.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("cycle %s -> %s: %w", m.Current(), status, err)
	}
	return nil
}

// Transition validates moving a cycle from one persisted status to another.
// Every move between active and settled is legal, so in practice it fails
// only for unknown status values on either side.
func Transition(ctx context.Context, from, to model.EntryStatus) error {
	m, err := New(from)
	if err != nil {
		return err
	}
	return m.MoveTo(ctx, to)
}
