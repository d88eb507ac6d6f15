// Package inventory holds the dealer's listing list with optimistic
// status transitions.
//
// Rollback invariant: a listing's local status may differ from the last
// server-confirmed status only while the transition call is in flight.
// On failure the prior status is restored and the error returned, so
// the view never shows an unconfirmed status without an error beside
// it.
package inventory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kigundalevi/carsawa/internal/errs"
	"github.com/kigundalevi/carsawa/internal/model"
)

// Gateway is the slice of the REST client the inventory needs.
type Gateway interface {
	DealerCars(ctx context.Context, dealerID string) ([]model.Car, error)
	UpdateStatus(ctx context.Context, id string, status model.CarStatus) (model.Car, error)
	DeleteCar(ctx context.Context, id string) error
}

// Snapshotter persists the last-known inventory across runs.
type Snapshotter interface {
	Put(dealerID string, cars []model.Car) error
	Get(dealerID string) ([]model.Car, error)
}

// Inventory is the local view of one dealer's listings.
type Inventory struct {
	gw       Gateway
	snap     Snapshotter // optional
	log      *zap.Logger
	dealerID string

	mu    sync.Mutex
	items []model.Car
}

// New builds an Inventory for the given dealer. snap may be nil.
func New(gw Gateway, snap Snapshotter, dealerID string, log *zap.Logger) *Inventory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inventory{gw: gw, snap: snap, log: log, dealerID: dealerID}
}

// Refresh replaces the local list with the server's and updates the
// snapshot. Snapshot write failures are diagnostic only.
func (inv *Inventory) Refresh(ctx context.Context) error {
	cars, err := inv.gw.DealerCars(ctx, inv.dealerID)
	if err != nil {
		return err
	}
	inv.mu.Lock()
	inv.items = cars
	inv.mu.Unlock()
	if inv.snap != nil {
		if err := inv.snap.Put(inv.dealerID, cars); err != nil {
			inv.log.Warn("writing inventory snapshot failed", zap.Error(err))
		}
	}
	return nil
}

// LoadCached populates the list from the last snapshot without touching
// the network. Reports whether a snapshot existed.
func (inv *Inventory) LoadCached() bool {
	if inv.snap == nil {
		return false
	}
	cars, err := inv.snap.Get(inv.dealerID)
	if err != nil {
		inv.log.Warn("reading inventory snapshot failed", zap.Error(err))
		return false
	}
	if len(cars) == 0 {
		return false
	}
	inv.mu.Lock()
	inv.items = cars
	inv.mu.Unlock()
	return true
}

// Items returns a snapshot of the full list.
func (inv *Inventory) Items() []model.Car {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]model.Car, len(inv.items))
	copy(out, inv.items)
	return out
}

// SetStatus transitions listing id to status. The local copy is updated
// first so the view reflects the change immediately; if the server call
// fails the prior status is rolled back and the error returned.
func (inv *Inventory) SetStatus(ctx context.Context, id string, status model.CarStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", errs.ErrValidation, status)
	}

	inv.mu.Lock()
	idx := inv.indexLocked(id)
	if idx < 0 {
		inv.mu.Unlock()
		return fmt.Errorf("%w: listing %s", errs.ErrNotFound, id)
	}
	prev := inv.items[idx].Fields.Status
	inv.items[idx].Fields.Status = status
	inv.mu.Unlock()

	if _, err := inv.gw.UpdateStatus(ctx, id, status); err != nil {
		inv.mu.Lock()
		if idx := inv.indexLocked(id); idx >= 0 {
			inv.items[idx].Fields.Status = prev
		}
		inv.mu.Unlock()
		inv.log.Warn("status transition rejected, rolled back",
			zap.String("listing", id),
			zap.String("from", string(prev)),
			zap.String("to", string(status)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Delete removes a listing after explicit confirmation. Deletion is not
// optimistic: the local entry goes away only once the server
// acknowledges, so a failed delete never vanishes a real listing.
func (inv *Inventory) Delete(ctx context.Context, id string, confirm func() bool) error {
	if confirm == nil || !confirm() {
		return nil
	}
	if err := inv.gw.DeleteCar(ctx, id); err != nil {
		return err
	}
	inv.mu.Lock()
	if idx := inv.indexLocked(id); idx >= 0 {
		inv.items = append(inv.items[:idx], inv.items[idx+1:]...)
	}
	inv.mu.Unlock()
	return nil
}

// ByStatus returns the listings whose status equals s. Pure projection,
// no state of its own.
func (inv *Inventory) ByStatus(s model.CarStatus) []model.Car {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	var out []model.Car
	for _, c := range inv.items {
		if c.Fields.Status == s {
			out = append(out, c)
		}
	}
	return out
}

// Partition splits the list by status. The partitions are disjoint and
// together reconstitute the full list.
func (inv *Inventory) Partition() map[model.CarStatus][]model.Car {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make(map[model.CarStatus][]model.Car)
	for _, c := range inv.items {
		out[c.Fields.Status] = append(out[c.Fields.Status], c)
	}
	return out
}

func (inv *Inventory) indexLocked(id string) int {
	for i := range inv.items {
		if inv.items[i].ID == id {
			return i
		}
	}
	return -1
}
