package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kigundalevi/carsawa/internal/errs"
	"github.com/kigundalevi/carsawa/internal/model"
)

type fakeGateway struct {
	cars     []model.Car
	listErr  error
	statErr  error
	delErr   error
	delCalls int

	gotStatusID string
	gotStatus   model.CarStatus
}

var _ Gateway = (*fakeGateway)(nil)

func (f *fakeGateway) DealerCars(_ context.Context, _ string) ([]model.Car, error) {
	return f.cars, f.listErr
}

func (f *fakeGateway) UpdateStatus(_ context.Context, id string, status model.CarStatus) (model.Car, error) {
	f.gotStatusID = id
	f.gotStatus = status
	if f.statErr != nil {
		return model.Car{}, f.statErr
	}
	return model.Car{ID: id}, nil
}

func (f *fakeGateway) DeleteCar(_ context.Context, _ string) error {
	f.delCalls++
	return f.delErr
}

type memSnap struct {
	cars   map[string][]model.Car
	putErr error
	getErr error
}

func newMemSnap() *memSnap { return &memSnap{cars: map[string][]model.Car{}} }

func (m *memSnap) Put(dealerID string, cars []model.Car) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.cars[dealerID] = cars
	return nil
}

func (m *memSnap) Get(dealerID string) ([]model.Car, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.cars[dealerID], nil
}

func listing(id string, status model.CarStatus) model.Car {
	return model.Car{ID: id, DealerID: "d1", Fields: model.CarFields{Name: id, Status: status}}
}

func TestRefreshReplacesListAndSnapshots(t *testing.T) {
	gw := &fakeGateway{cars: []model.Car{listing("c1", model.StatusAvailable)}}
	snap := newMemSnap()
	inv := New(gw, snap, "d1", nil)

	require.NoError(t, inv.Refresh(context.Background()))
	require.Len(t, inv.Items(), 1)
	require.Len(t, snap.cars["d1"], 1)

	gw.cars = []model.Car{listing("c2", model.StatusSold), listing("c3", model.StatusReserved)}
	require.NoError(t, inv.Refresh(context.Background()))
	items := inv.Items()
	require.Len(t, items, 2)
	require.Equal(t, "c2", items[0].ID)
}

func TestRefreshSnapshotFailureIsNotFatal(t *testing.T) {
	gw := &fakeGateway{cars: []model.Car{listing("c1", model.StatusAvailable)}}
	snap := newMemSnap()
	snap.putErr = errors.New("disk full")
	inv := New(gw, snap, "d1", nil)

	require.NoError(t, inv.Refresh(context.Background()), "snapshot write failure must not fail the refresh")
	require.Len(t, inv.Items(), 1)
}

func TestLoadCached(t *testing.T) {
	snap := newMemSnap()
	snap.cars["d1"] = []model.Car{listing("c1", model.StatusAvailable)}

	inv := New(&fakeGateway{}, snap, "d1", nil)
	require.True(t, inv.LoadCached())
	require.Len(t, inv.Items(), 1)

	empty := New(&fakeGateway{}, newMemSnap(), "d1", nil)
	require.False(t, empty.LoadCached())

	noSnap := New(&fakeGateway{}, nil, "d1", nil)
	require.False(t, noSnap.LoadCached())
}

func TestSetStatusOptimisticConfirmed(t *testing.T) {
	gw := &fakeGateway{cars: []model.Car{listing("c1", model.StatusAvailable)}}
	inv := New(gw, nil, "d1", nil)
	require.NoError(t, inv.Refresh(context.Background()))

	require.NoError(t, inv.SetStatus(context.Background(), "c1", model.StatusSold))
	require.Equal(t, "c1", gw.gotStatusID)
	require.Equal(t, model.StatusSold, gw.gotStatus)
	require.Equal(t, model.StatusSold, inv.Items()[0].Fields.Status)
}

func TestSetStatusRollsBackOnFailure(t *testing.T) {
	gw := &fakeGateway{cars: []model.Car{listing("c1", model.StatusAvailable)}}
	inv := New(gw, nil, "d1", nil)
	require.NoError(t, inv.Refresh(context.Background()))

	gw.statErr = errors.New("500 from server")
	err := inv.SetStatus(context.Background(), "c1", model.StatusSold)
	require.Error(t, err, "the caller must see the failure")
	require.Equal(t, model.StatusAvailable, inv.Items()[0].Fields.Status,
		"failed transition restores the last confirmed status")
}

func TestSetStatusValidation(t *testing.T) {
	inv := New(&fakeGateway{}, nil, "d1", nil)
	require.ErrorIs(t, inv.SetStatus(context.Background(), "c1", "Scrapped"), errs.ErrValidation)
	require.ErrorIs(t, inv.SetStatus(context.Background(), "nope", model.StatusSold), errs.ErrNotFound)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	gw := &fakeGateway{cars: []model.Car{listing("c1", model.StatusAvailable)}}
	inv := New(gw, nil, "d1", nil)
	require.NoError(t, inv.Refresh(context.Background()))

	require.NoError(t, inv.Delete(context.Background(), "c1", func() bool { return false }))
	require.Zero(t, gw.delCalls, "declined confirmation must not reach the network")
	require.Len(t, inv.Items(), 1)

	require.NoError(t, inv.Delete(context.Background(), "c1", nil))
	require.Zero(t, gw.delCalls)
}

func TestDeleteIsNotOptimistic(t *testing.T) {
	gw := &fakeGateway{cars: []model.Car{listing("c1", model.StatusAvailable)}}
	inv := New(gw, nil, "d1", nil)
	require.NoError(t, inv.Refresh(context.Background()))

	gw.delErr = errors.New("server down")
	err := inv.Delete(context.Background(), "c1", func() bool { return true })
	require.Error(t, err)
	require.Len(t, inv.Items(), 1, "a failed delete never vanishes the listing")

	gw.delErr = nil
	require.NoError(t, inv.Delete(context.Background(), "c1", func() bool { return true }))
	require.Empty(t, inv.Items())
}

func TestPartitionIsDisjointAndComplete(t *testing.T) {
	gw := &fakeGateway{cars: []model.Car{
		listing("c1", model.StatusAvailable),
		listing("c2", model.StatusSold),
		listing("c3", model.StatusAvailable),
		listing("c4", model.StatusReserved),
	}}
	inv := New(gw, nil, "d1", nil)
	require.NoError(t, inv.Refresh(context.Background()))

	parts := inv.Partition()
	total := 0
	seen := map[string]bool{}
	for status, cars := range parts {
		for _, c := range cars {
			require.Equal(t, status, c.Fields.Status)
			require.False(t, seen[c.ID], "partitions must be disjoint")
			seen[c.ID] = true
			total++
		}
	}
	require.Equal(t, 4, total, "partitions must reconstitute the full list")

	require.Len(t, inv.ByStatus(model.StatusAvailable), 2)
	require.Len(t, inv.ByStatus(model.StatusSold), 1)
	require.Len(t, inv.ByStatus(model.StatusReserved), 1)
}
