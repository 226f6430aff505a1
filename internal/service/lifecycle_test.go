package service

import (
	"context"
	"sync"
	"testing"

	"marketplace-service/internal/model"
	"marketplace-service/internal/realtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lifecycleFixture struct {
	*fixture
	supplierCtx context.Context
	vendorCtx   context.Context
	supplier    *model.Supplier
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	f := newFixture(t)
	supplierCtx, supplier, _ := supplierWithProduct(t, f, "ravi", "Rice")
	vendorCtx, _ := f.register(t, "asha", model.UserTypeVendor)
	return &lifecycleFixture{fixture: f, supplierCtx: supplierCtx, vendorCtx: vendorCtx, supplier: supplier}
}

func (lf *lifecycleFixture) submit(t *testing.T) *model.Order {
	t.Helper()
	d := draft(line("Rice", "2", "50"))
	d.SupplierID = &lf.supplier.ID
	order, err := lf.svc.Composer.Submit(lf.vendorCtx, d)
	require.NoError(t, err)
	return order
}

func TestAcceptIsIdempotent(t *testing.T) {
	lf := newLifecycleFixture(t)
	order := lf.submit(t)

	accepted, err := lf.svc.Lifecycle.Accept(lf.supplierCtx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, accepted.Status)

	again, err := lf.svc.Lifecycle.Accept(lf.supplierCtx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, again.Status)

	assert.Equal(t, 1, lf.rec.count(realtime.TableOrders, realtime.EventUpdate))
}

func TestDeclineThenAcceptIsRejected(t *testing.T) {
	lf := newLifecycleFixture(t)
	order := lf.submit(t)

	declined, err := lf.svc.Lifecycle.Decline(lf.supplierCtx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, declined.Status)

	_, err = lf.svc.Lifecycle.Accept(lf.supplierCtx, order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := lf.svc.Lifecycle.Get(lf.vendorCtx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, stored.Status)
}

func TestConcurrentAcceptDecline(t *testing.T) {
	lf := newLifecycleFixture(t)
	order := lf.submit(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = lf.svc.Lifecycle.Accept(lf.supplierCtx, order.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = lf.svc.Lifecycle.Decline(lf.supplierCtx, order.ID)
	}()
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrInvalidTransition)
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 1, lf.rec.count(realtime.TableOrders, realtime.EventUpdate))
}

func TestTransitionRequiresAddressedSupplier(t *testing.T) {
	lf := newLifecycleFixture(t)
	order := lf.submit(t)
	other, _, _ := supplierWithProduct(t, lf.fixture, "meena", "Dal")

	_, err := lf.svc.Lifecycle.Accept(other, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = lf.svc.Lifecycle.Decline(lf.vendorCtx, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	noRecord, _ := lf.register(t, "newbie", model.UserTypeSupplier)
	_, err = lf.svc.Lifecycle.Accept(noRecord, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = lf.svc.Lifecycle.Accept(lf.supplierCtx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForVendorFiltersByStatus(t *testing.T) {
	lf := newLifecycleFixture(t)
	first := lf.submit(t)
	second := lf.submit(t)

	_, err := lf.svc.Lifecycle.Accept(lf.supplierCtx, first.ID)
	require.NoError(t, err)

	all, err := lf.svc.Lifecycle.ListForVendor(lf.vendorCtx, "all")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")
	for _, o := range all {
		require.NotNil(t, o.TotalVerified)
		assert.True(t, *o.TotalVerified)
		require.NotNil(t, o.Supplier)
		require.NotNil(t, o.Supplier.Profile)
	}

	confirmed, err := lf.svc.Lifecycle.ListForVendor(lf.vendorCtx, "confirmed")
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, first.ID, confirmed[0].ID)

	shipped, err := lf.svc.Lifecycle.ListForVendor(lf.vendorCtx, "shipped")
	require.NoError(t, err)
	assert.Empty(t, shipped)

	_, err = lf.svc.Lifecycle.ListForVendor(lf.vendorCtx, "lost")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPendingForSupplier(t *testing.T) {
	lf := newLifecycleFixture(t)
	for i := 0; i < 3; i++ {
		lf.submit(t)
	}
	pending, err := lf.svc.Lifecycle.PendingForSupplier(lf.supplierCtx, 2)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = lf.svc.Lifecycle.Accept(lf.supplierCtx, pending[0].ID)
	require.NoError(t, err)

	pending, err = lf.svc.Lifecycle.PendingForSupplier(lf.supplierCtx, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	noRecord, _ := lf.register(t, "newbie", model.UserTypeSupplier)
	pending, err = lf.svc.Lifecycle.PendingForSupplier(noRecord, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGetOnlyForParties(t *testing.T) {
	lf := newLifecycleFixture(t)
	order := lf.submit(t)

	_, err := lf.svc.Lifecycle.Get(lf.supplierCtx, order.ID)
	assert.NoError(t, err)

	stranger, _ := lf.register(t, "stranger", model.UserTypeVendor)
	_, err = lf.svc.Lifecycle.Get(stranger, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStatsCountConfirmedRevenue(t *testing.T) {
	lf := newLifecycleFixture(t)
	first := lf.submit(t)
	lf.submit(t)
	_, err := lf.svc.Lifecycle.Accept(lf.supplierCtx, first.ID)
	require.NoError(t, err)

	stats, err := lf.svc.Directory.Stats(lf.supplierCtx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, "100", stats.TotalRevenue.String())
	assert.Equal(t, int64(1), stats.ActiveProducts)
	assert.True(t, stats.Rating.IsZero())

	_, err = lf.svc.Directory.Stats(lf.vendorCtx)
	assert.ErrorIs(t, err, ErrForbidden)
}
