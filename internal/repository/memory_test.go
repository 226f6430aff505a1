package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marketplace-service/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSupplier(t *testing.T, repo Repository, userID string) (*model.Profile, *model.Supplier) {
	t.Helper()
	ctx := context.Background()

	profile := &model.Profile{UserID: userID, FullName: "Ravi", BusinessName: "Ravi Traders", UserType: model.UserTypeSupplier}
	require.NoError(t, repo.CreateProfile(ctx, profile))

	supplier := model.NewLazySupplier(profile.ID, model.CategorySpices)
	inserted, err := repo.InsertSupplierIfAbsent(ctx, supplier)
	require.NoError(t, err)
	require.True(t, inserted)
	return profile, supplier
}

func TestMemoryProfileUniqueness(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	require.NoError(t, repo.CreateProfile(ctx, &model.Profile{UserID: "u1", FullName: "A", UserType: model.UserTypeVendor}))
	err := repo.CreateProfile(ctx, &model.Profile{UserID: "u1", FullName: "B", UserType: model.UserTypeVendor})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = repo.FindProfileByUserID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryInsertSupplierIfAbsent(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	profile, first := seedSupplier(t, repo, "u1")

	inserted, err := repo.InsertSupplierIfAbsent(ctx, model.NewLazySupplier(profile.ID, model.CategoryFruits))
	require.NoError(t, err)
	assert.False(t, inserted)

	found, err := repo.FindSupplierByProfileID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, []string{"Spices"}, []string(found.Specializations))

	withProfile, err := repo.GetSupplier(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, withProfile.Profile)
	assert.Equal(t, "Ravi Traders", withProfile.Profile.DisplayName())
}

func TestMemoryInsertSupplierIfAbsentConcurrent(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	profile := &model.Profile{UserID: "u1", FullName: "Ravi", UserType: model.UserTypeSupplier}
	require.NoError(t, repo.CreateProfile(ctx, profile))

	var wg sync.WaitGroup
	var mu sync.Mutex
	insertedCount := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := repo.InsertSupplierIfAbsent(ctx, model.NewLazySupplier(profile.ID, model.CategoryGrains))
			assert.NoError(t, err)
			if inserted {
				mu.Lock()
				insertedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, insertedCount)
	suppliers, err := repo.ListSuppliers(ctx, SupplierFilter{})
	require.NoError(t, err)
	assert.Len(t, suppliers, 1)
}

func TestMemoryStoredRecordsAreCopies(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	_, supplier := seedSupplier(t, repo, "u1")

	product := &model.Product{SupplierID: supplier.ID, Name: "Turmeric", Category: model.CategorySpices,
		Unit: model.UnitKg, PricePerUnit: decimal.RequireFromString("120"), ImageURLs: []string{"a"}, IsActive: true}
	require.NoError(t, repo.CreateProduct(ctx, product))

	product.ImageURLs[0] = "mutated"
	stored, err := repo.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, []string(stored.ImageURLs))
}

func TestMemoryFindProductByNameOldestFirst(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	_, supplier := seedSupplier(t, repo, "u1")

	first := &model.Product{SupplierID: supplier.ID, Name: "Onion", Category: model.CategoryVegetables, Unit: model.UnitKg, PricePerUnit: decimal.NewFromInt(30)}
	second := &model.Product{SupplierID: supplier.ID, Name: "Onion", Category: model.CategoryVegetables, Unit: model.UnitKg, PricePerUnit: decimal.NewFromInt(25), IsActive: true}
	require.NoError(t, repo.CreateProduct(ctx, first))
	require.NoError(t, repo.CreateProduct(ctx, second))

	found, err := repo.FindProductByName(ctx, "Onion")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	_, err = repo.FindProductByName(ctx, "onion")
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := repo.ListProducts(ctx, ProductFilter{SupplierID: &supplier.ID, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)
}

func TestMemoryTransitionOrderIsConditional(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	vendor := &model.Profile{UserID: "v1", FullName: "Vendor", UserType: model.UserTypeVendor}
	require.NoError(t, repo.CreateProfile(ctx, vendor))

	order := &model.Order{OrderNumber: "ORD-1", VendorID: vendor.ID, DeliveryAddress: "Market Rd",
		TotalAmount: decimal.NewFromInt(10), Status: model.OrderStatusPending}
	require.NoError(t, repo.CreateOrder(ctx, order))

	ok, err := repo.TransitionOrder(ctx, order.ID, model.OrderStatusPending, model.OrderStatusCancelled, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionOrder(ctx, order.ID, model.OrderStatusPending, model.OrderStatusConfirmed, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, stored.Status)
	require.NotNil(t, stored.Vendor)
	assert.Equal(t, "Vendor", stored.Vendor.FullName)
}

func TestMemoryOrderNumberConflict(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	require.NoError(t, repo.CreateOrder(ctx, &model.Order{OrderNumber: "ORD-7", VendorID: uuid.New()}))
	err := repo.CreateOrder(ctx, &model.Order{OrderNumber: "ORD-7", VendorID: uuid.New()})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryTransactionRollsBack(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	_, supplier := seedSupplier(t, repo, "u1")
	vendorID := uuid.New()

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx Repository) error {
		order := &model.Order{OrderNumber: "ORD-1", VendorID: vendorID, SupplierID: &supplier.ID}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.CreateOrderItem(ctx, &model.OrderItem{OrderID: order.ID, Quantity: decimal.NewFromInt(1)}); err != nil {
			return err
		}
		if err := tx.IncrementSupplierOrders(ctx, supplier.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	orders, err := repo.ListOrders(ctx, OrderFilter{VendorID: &vendorID})
	require.NoError(t, err)
	assert.Empty(t, orders)

	stored, err := repo.GetSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.TotalOrders)
}

func TestMemoryTransactionCommits(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	_, supplier := seedSupplier(t, repo, "u1")
	vendorID := uuid.New()

	var orderID uuid.UUID
	err := repo.Transaction(ctx, func(tx Repository) error {
		order := &model.Order{OrderNumber: "ORD-1", VendorID: vendorID, SupplierID: &supplier.ID,
			TotalAmount: decimal.NewFromInt(50), Status: model.OrderStatusPending}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		orderID = order.ID
		for i, qty := range []int64{2, 1} {
			item := &model.OrderItem{OrderID: order.ID, Position: i, Quantity: decimal.NewFromInt(qty),
				UnitPrice: decimal.NewFromInt(10), TotalPrice: decimal.NewFromInt(10 * qty)}
			if err := tx.CreateOrderItem(ctx, item); err != nil {
				return err
			}
		}
		return tx.IncrementSupplierOrders(ctx, supplier.ID)
	})
	require.NoError(t, err)

	order, err := repo.GetOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 0, order.Items[0].Position)
	assert.False(t, order.Verify())
	assert.Equal(t, "30", order.ItemsTotal.String())
	require.NotNil(t, order.Supplier)
	require.NotNil(t, order.Supplier.Profile)

	stored, err := repo.GetSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalOrders)
}

func TestMemorySupplierStats(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	_, supplier := seedSupplier(t, repo, "u1")

	for i, status := range []model.OrderStatus{model.OrderStatusConfirmed, model.OrderStatusPending, model.OrderStatusConfirmed} {
		require.NoError(t, repo.CreateOrder(ctx, &model.Order{
			OrderNumber: model.OrderNumber(time.UnixMilli(int64(i))),
			VendorID:    uuid.New(),
			SupplierID:  &supplier.ID,
			TotalAmount: decimal.RequireFromString("100.50"),
			Status:      status,
		}))
	}
	require.NoError(t, repo.CreateProduct(ctx, &model.Product{SupplierID: supplier.ID, Name: "A", IsActive: true}))
	require.NoError(t, repo.CreateProduct(ctx, &model.Product{SupplierID: supplier.ID, Name: "B"}))

	stats, err := repo.SupplierStats(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, "201", stats.ConfirmedRevenue.String())
	assert.Equal(t, int64(1), stats.ActiveProducts)
}

func TestMemoryListSuppliersSearchesEveryRow(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		profile := &model.Profile{UserID: uuid.NewString(), FullName: "Grain Co", City: "Pune", UserType: model.UserTypeSupplier}
		require.NoError(t, repo.CreateProfile(ctx, profile))
		s := model.NewLazySupplier(profile.ID, model.CategoryGrains)
		s.Rating = decimal.NewFromInt(int64(5 - i))
		_, err := repo.InsertSupplierIfAbsent(ctx, s)
		require.NoError(t, err)
	}
	profile := &model.Profile{UserID: "orchard", FullName: "Meena", BusinessName: "Meena 100% Orchards", City: "Nashik", UserType: model.UserTypeSupplier}
	require.NoError(t, repo.CreateProfile(ctx, profile))
	_, err := repo.InsertSupplierIfAbsent(ctx, model.NewLazySupplier(profile.ID, model.CategoryFruits))
	require.NoError(t, err)

	top, err := repo.ListSuppliers(ctx, SupplierFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.True(t, top[0].Rating.Equal(decimal.NewFromInt(5)))

	found, err := repo.ListSuppliers(ctx, SupplierFilter{Search: " NASHIK ", Limit: 2})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, profile.ID, found[0].ProfileID)

	literal, err := repo.ListSuppliers(ctx, SupplierFilter{Search: "100%"})
	require.NoError(t, err)
	assert.Len(t, literal, 1)

	grains, err := repo.ListSuppliers(ctx, SupplierFilter{Search: "grains", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, grains, 3)
}

func TestMemoryFavoritesAndMessages(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	_, supplier := seedSupplier(t, repo, "u1")
	vendorID := uuid.New()

	require.NoError(t, repo.AddFavorite(ctx, &model.Favorite{VendorID: vendorID, SupplierID: supplier.ID}))
	assert.ErrorIs(t, repo.AddFavorite(ctx, &model.Favorite{VendorID: vendorID, SupplierID: supplier.ID}), ErrConflict)

	favorites, err := repo.ListFavorites(ctx, vendorID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	require.NotNil(t, favorites[0].Supplier)

	deleted, err := repo.DeleteFavorite(ctx, vendorID, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, favorites[0].ID, deleted.ID)
	_, err = repo.DeleteFavorite(ctx, vendorID, supplier.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	msg := &model.Message{SenderID: vendorID, ReceiverID: supplier.ProfileID, Message: "hello"}
	require.NoError(t, repo.CreateMessage(ctx, msg))
	assert.ErrorIs(t, repo.MarkMessageRead(ctx, msg.ID, vendorID), ErrNotFound)
	require.NoError(t, repo.MarkMessageRead(ctx, msg.ID, supplier.ProfileID))

	messages, err := repo.ListMessages(ctx, supplier.ProfileID, nil)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsRead)
}
