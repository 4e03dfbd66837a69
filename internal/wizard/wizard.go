// Package wizard drives the six-step invoice flow: upload a prior invoice,
// profile, client, items, payment, preview. Progress is saved to a session
// store after every change so the flow can resume across invocations.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"invoicer/internal/logger"
	"invoicer/internal/session"
	"invoicer/pkg/models"
)

// Step is a wizard stage.
type Step int

const (
	StepUpload Step = iota
	StepProfile
	StepClient
	StepItems
	StepPayment
	StepPreview
)

var stepNames = [...]string{"upload", "profile", "client", "items", "payment", "preview"}

func (s Step) String() string {
	if s < StepUpload || s > StepPreview {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

var (
	ErrInvalidStep = errors.New("invalid wizard step")
	ErrNoItem      = errors.New("no such line item")
)

// Wizard holds one session's state.
type Wizard struct {
	store session.Store
	state *session.State
	log   zerolog.Logger
}

// Start resumes the session stored under key, or begins a new one at the
// upload step with a fresh snapshot dated today.
func Start(ctx context.Context, store session.Store, key string, today time.Time) (*Wizard, error) {
	state, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	resumed := state != nil
	if !resumed {
		state = &session.State{Key: key, Step: int(StepUpload), Snapshot: models.NewSnapshot(today)}
	}

	w := &Wizard{store: store, state: state, log: logger.WithSession("wizard", key)}
	w.log.Debug().Bool("resumed", resumed).Stringer("step", w.Step()).Msg("Wizard started")
	return w, nil
}

func (w *Wizard) Key() string {
	return w.state.Key
}

func (w *Wizard) Step() Step {
	return Step(w.state.Step)
}

// Snapshot returns the snapshot being edited. Changes made through the pointer
// are persisted by the next navigation call or Save.
func (w *Wizard) Snapshot() *models.Snapshot {
	return w.state.Snapshot
}

// Save persists the current state.
func (w *Wizard) Save(ctx context.Context) error {
	return w.store.Put(ctx, w.state)
}

// Next validates the current step and advances. The preview step is terminal.
func (w *Wizard) Next(ctx context.Context) error {
	current := w.Step()
	if current == StepPreview {
		return nil
	}
	if err := Validate(current, w.state.Snapshot); err != nil {
		w.log.Debug().Stringer("step", current).Strs("fields", Fields(err)).Msg("Step invalid")
		return err
	}
	return w.moveTo(ctx, current+1)
}

// Back returns to the previous step without validation.
func (w *Wizard) Back(ctx context.Context) error {
	if w.Step() == StepUpload {
		return nil
	}
	return w.moveTo(ctx, w.Step()-1)
}

// GoTo jumps to step. Moving backwards is always allowed; moving forwards
// requires every step before the target to validate.
func (w *Wizard) GoTo(ctx context.Context, step Step) error {
	if step < StepUpload || step > StepPreview {
		return fmt.Errorf("%w: %d", ErrInvalidStep, int(step))
	}
	if step > w.Step() {
		for s := StepProfile; s < step; s++ {
			if err := Validate(s, w.state.Snapshot); err != nil {
				return err
			}
		}
	}
	return w.moveTo(ctx, step)
}

// Prefill adopts a copy of a snapshot decoded from a prior invoice and moves to
// the profile step.
func (w *Wizard) Prefill(ctx context.Context, decoded *models.Snapshot) error {
	if decoded == nil {
		return fmt.Errorf("prefill: %w", session.ErrNoSnapshot)
	}
	snap := decoded.Clone()
	if len(snap.Profile.AddressLines) == 0 {
		snap.Profile.AddressLines = []string{""}
	}
	if len(snap.Client.AddressLines) == 0 {
		snap.Client.AddressLines = []string{""}
	}
	prev := w.state.Snapshot
	w.state.Snapshot = snap
	if err := w.moveTo(ctx, StepProfile); err != nil {
		w.state.Snapshot = prev
		return err
	}
	w.log.Info().Str("invoice_number", snap.Invoice.Number).Msg("Prefilled from prior invoice")
	return nil
}

// Replace swaps in a copy of s, keeping the current step, and saves.
func (w *Wizard) Replace(ctx context.Context, s *models.Snapshot) error {
	if s == nil {
		return fmt.Errorf("replace: %w", session.ErrNoSnapshot)
	}
	prev := w.state.Snapshot
	w.state.Snapshot = s.Clone()
	if err := w.Save(ctx); err != nil {
		w.state.Snapshot = prev
		return err
	}
	return nil
}

// SetRegion changes the profile region and clears the tax identifier that no
// longer applies.
func (w *Wizard) SetRegion(region models.Region) {
	w.state.Snapshot.Profile.Region = region
	w.state.Snapshot.Profile.ApplyRegion()
}

// AddItem appends a line item.
func (w *Wizard) AddItem(item models.LineItem) {
	w.state.Snapshot.Items = append(w.state.Snapshot.Items, item)
}

// RemoveItem deletes the line item at zero-based index i.
func (w *Wizard) RemoveItem(i int) error {
	items := w.state.Snapshot.Items
	if i < 0 || i >= len(items) {
		return fmt.Errorf("%w: %d", ErrNoItem, i)
	}
	w.state.Snapshot.Items = append(items[:i:i], items[i+1:]...)
	return nil
}

func (w *Wizard) moveTo(ctx context.Context, step Step) error {
	from := w.Step()
	w.state.Step = int(step)
	if err := w.Save(ctx); err != nil {
		w.state.Step = int(from)
		return err
	}
	w.log.Debug().Stringer("from", from).Stringer("to", step).Msg("Step changed")
	return nil
}
