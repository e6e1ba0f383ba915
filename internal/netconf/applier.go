package netconf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"

	"dnsjumper/internal/profile"
	"dnsjumper/internal/storage"
	"dnsjumper/internal/storage/models"
	liberrors "dnsjumper/pkg/errors"
)

// ActiveConfiguration is the process-wide record of the applied DNS
// configuration. Readers always see a consistent snapshot; only a
// successful apply replaces it.
type ActiveConfiguration struct {
	Applied   *profile.Profile
	AppliedAt time.Time
	Previous  *profile.Profile
}

// Applier commits profiles as the system DNS configuration. At most one
// apply is in flight process-wide; a concurrent call fails with ErrBusy
// instead of queuing.
type Applier struct {
	applyMu sync.Mutex
	stateMu sync.RWMutex
	active  ActiveConfiguration
	conf    Configurator
	store   storage.Storage // optional apply log + persisted state, may be nil
}

// NewApplier creates an Applier, restoring the last applied configuration
// from storage when one was persisted.
func NewApplier(ctx context.Context, conf Configurator, store storage.Storage) (*Applier, error) {
	a := &Applier{conf: conf, store: store}
	if store == nil {
		return a, nil
	}

	persisted, err := store.GetActiveConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active configuration: %w", err)
	}
	if persisted != nil {
		a.active = ActiveConfiguration{
			Applied: &profile.Profile{
				Name:    persisted.ProfileName,
				Servers: persisted.Servers,
			},
			AppliedAt: persisted.AppliedAt,
		}
		if persisted.PreviousName != "" {
			a.active.Previous = &profile.Profile{
				Name:    persisted.PreviousName,
				Servers: persisted.PreviousServers,
			}
		}
	}
	return a, nil
}

// Active returns a snapshot of the current configuration.
func (a *Applier) Active() ActiveConfiguration {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.active.Clone()
}

// Clone deep-copies the configuration so callers cannot alias applier state.
func (c ActiveConfiguration) Clone() ActiveConfiguration {
	out := ActiveConfiguration{AppliedAt: c.AppliedAt}
	if c.Applied != nil {
		p := *c.Applied
		p.Servers = append([]string(nil), c.Applied.Servers...)
		out.Applied = &p
	}
	if c.Previous != nil {
		p := *c.Previous
		p.Servers = append([]string(nil), c.Previous.Servers...)
		out.Previous = &p
	}
	return out
}

// Apply validates p, pushes its servers through the configurator under a
// single privilege prompt, verifies the change took effect, and updates the
// active configuration. On verification mismatch it rolls back to the
// previous configuration. Applying the currently active servers is a no-op
// success that leaves AppliedAt untouched.
func (a *Applier) Apply(ctx context.Context, p profile.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if !a.applyMu.TryLock() {
		return liberrors.ErrBusy
	}
	defer a.applyMu.Unlock()

	snapshot := a.Active()
	if snapshot.Applied != nil && sameServers(snapshot.Applied.Servers, p.Servers) {
		return nil
	}

	conn, err := a.conf.ActiveConnection(ctx)
	if err != nil {
		return err
	}

	if err := a.conf.SetDNS(ctx, conn, p.Servers); err != nil {
		a.recordApply(ctx, p, false, err.Error())
		return err
	}

	if err := a.verify(ctx, conn, p.Servers); err != nil {
		a.rollback(ctx, conn, snapshot)
		applyErr := &liberrors.ApplyError{
			Attempted: p.Name,
			Previous:  previousName(snapshot),
			Err:       fmt.Errorf("%w: %v", liberrors.ErrApplyFailed, err),
		}
		a.recordApply(ctx, p, false, applyErr.Error())
		return applyErr
	}

	applied := p
	applied.Servers = append([]string(nil), p.Servers...)
	next := ActiveConfiguration{
		Applied:   &applied,
		AppliedAt: time.Now(),
		Previous:  snapshot.Applied,
	}
	if err := a.persist(ctx, next, p); err != nil {
		log.WithError(err).Warn("applied configuration could not be persisted")
	}

	a.stateMu.Lock()
	a.active = next
	a.stateMu.Unlock()
	return nil
}

// verify re-reads the system DNS configuration and checks every requested
// server is present.
func (a *Applier) verify(ctx context.Context, conn Connection, want []string) error {
	got, err := a.conf.CurrentDNS(ctx, conn)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(got))
	for _, s := range got {
		present[s] = true
	}
	for _, s := range want {
		if !present[s] {
			return fmt.Errorf("server %s missing from system configuration (got %v)", s, got)
		}
	}
	return nil
}

// rollback restores the previously applied servers, best-effort. When no
// previous profile exists there is nothing to restore.
func (a *Applier) rollback(ctx context.Context, conn Connection, snapshot ActiveConfiguration) {
	if snapshot.Applied == nil {
		return
	}
	if err := a.conf.SetDNS(ctx, conn, snapshot.Applied.Servers); err != nil {
		log.WithError(err).WithField("profile", snapshot.Applied.Name).Error("rollback failed")
	}
}

// persist stores the new active configuration and the apply-log row in one
// transaction so restarts never observe half of the transition.
func (a *Applier) persist(ctx context.Context, next ActiveConfiguration, p profile.Profile) error {
	if a.store == nil {
		return nil
	}

	cfg := &models.ActiveConfig{
		ProfileName: next.Applied.Name,
		Servers:     next.Applied.Servers,
		AppliedAt:   next.AppliedAt,
	}
	if next.Previous != nil {
		cfg.PreviousName = next.Previous.Name
		cfg.PreviousServers = next.Previous.Servers
	}

	tx, err := a.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := tx.SetActiveConfig(ctx, cfg); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.RecordApply(ctx, &models.ApplyRecord{
		ProfileName: p.Name,
		Servers:     p.Servers,
		Success:     true,
		AppliedAt:   next.AppliedAt,
	}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// recordApply logs a failed attempt, best-effort.
func (a *Applier) recordApply(ctx context.Context, p profile.Profile, success bool, message string) {
	if a.store == nil {
		return
	}
	a.store.RecordApply(ctx, &models.ApplyRecord{
		ProfileName:  p.Name,
		Servers:      p.Servers,
		Success:      success,
		ErrorMessage: message,
	})
}

func previousName(snapshot ActiveConfiguration) string {
	if snapshot.Applied == nil {
		return ""
	}
	return snapshot.Applied.Name
}

// sameServers compares two server lists as sets.
func sameServers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}
