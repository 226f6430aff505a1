package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace-service/internal/model"
	"marketplace-service/prometheus"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint violations
const uniqueViolation = "23505"

// GormRepository implements Repository on top of GORM and Postgres
type GormRepository struct {
	db *gorm.DB
}

// NewGorm creates a repository using the given database handle
func NewGorm(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// translate maps driver errors onto the repository sentinels
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func (r *GormRepository) CreateProfile(ctx context.Context, p *model.Profile) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormRepository) FindProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var p model.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormRepository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var p model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormRepository) UpdateProfile(ctx context.Context, p *model.Profile) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return translate(r.db.WithContext(ctx).Save(p).Error)
}

func (r *GormRepository) FindSupplierByProfileID(ctx context.Context, profileID uuid.UUID) (*model.Supplier, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var s model.Supplier
	if err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormRepository) GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var s model.Supplier
	if err := r.db.WithContext(ctx).Preload("Profile").Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormRepository) InsertSupplierIfAbsent(ctx context.Context, s *model.Supplier) (bool, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "profile_id"}}, DoNothing: true}).
		Create(s)
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// supplierSearchText mirrors model.Supplier.SearchText in SQL
const supplierSearchText = `LOWER(CONCAT_WS(' ', COALESCE(NULLIF(profiles.business_name, ''), profiles.full_name), ` +
	`profiles.city, profiles.state, array_to_string(suppliers.specializations, ' ')))`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *GormRepository) ListSuppliers(ctx context.Context, filter SupplierFilter) ([]model.Supplier, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var suppliers []model.Supplier
	query := r.db.WithContext(ctx).Preload("Profile").
		Order("suppliers.rating desc").Order("suppliers.created_at asc")
	if needle := strings.ToLower(strings.TrimSpace(filter.Search)); needle != "" {
		query = query.Select("suppliers.*").
			Joins("JOIN profiles ON profiles.id = suppliers.profile_id").
			Where(supplierSearchText+" LIKE ?", "%"+likeEscaper.Replace(needle)+"%")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&suppliers).Error; err != nil {
		return nil, translate(err)
	}
	return suppliers, nil
}

func (r *GormRepository) IncrementSupplierOrders(ctx context.Context, id uuid.UUID) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	result := r.db.WithContext(ctx).Model(&model.Supplier{}).
		Where("id = ?", id).
		UpdateColumn("total_orders", gorm.Expr("total_orders + ?", 1))
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormRepository) SaveProduct(ctx context.Context, p *model.Product) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return translate(r.db.WithContext(ctx).Omit("Supplier").Save(p).Error)
}

func (r *GormRepository) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var p model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	query := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var products []model.Product
	if err := query.Order("created_at desc").Find(&products).Error; err != nil {
		return nil, translate(err)
	}
	return products, nil
}

func (r *GormRepository) FindProductByName(ctx context.Context, name string) (*model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var p model.Product
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("created_at asc").Order("id asc").
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error)
}

func (r *GormRepository) CreateOrderItem(ctx context.Context, item *model.OrderItem) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error)
}

// withOrderGraph preloads everything the order views render
func withOrderGraph(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Items.Product").
		Preload("Supplier.Profile").
		Preload("Vendor")
}

func (r *GormRepository) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var o model.Order
	if err := withOrderGraph(r.db.WithContext(ctx)).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *GormRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	query := withOrderGraph(r.db.WithContext(ctx))
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var orders []model.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, translate(err)
	}
	return orders, nil
}

func (r *GormRepository) TransitionOrder(ctx context.Context, id uuid.UUID, from, to model.OrderStatus, at time.Time) (bool, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": at})
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *GormRepository) SupplierStats(ctx context.Context, supplierID uuid.UUID) (SupplierStats, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var stats SupplierStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Order{}).Where("supplier_id = ?", supplierID).Count(&stats.TotalOrders).Error; err != nil {
		return stats, translate(err)
	}

	revenue := decimal.Zero
	row := db.Model(&model.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("supplier_id = ? AND status = ?", supplierID, model.OrderStatusConfirmed).
		Row()
	if err := row.Scan(&revenue); err != nil {
		return stats, translate(err)
	}
	stats.ConfirmedRevenue = revenue

	if err := db.Model(&model.Product{}).
		Where("supplier_id = ? AND is_active = ?", supplierID, true).
		Count(&stats.ActiveProducts).Error; err != nil {
		return stats, translate(err)
	}
	return stats, nil
}

func (r *GormRepository) AddFavorite(ctx context.Context, f *model.Favorite) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(f).Error)
}

func (r *GormRepository) ListFavorites(ctx context.Context, vendorID uuid.UUID) ([]model.Favorite, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var favorites []model.Favorite
	err := r.db.WithContext(ctx).
		Preload("Supplier.Profile").
		Where("vendor_id = ?", vendorID).
		Order("created_at desc").
		Find(&favorites).Error
	if err != nil {
		return nil, translate(err)
	}
	return favorites, nil
}

func (r *GormRepository) DeleteFavorite(ctx context.Context, vendorID, supplierID uuid.UUID) (*model.Favorite, error) {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	var deleted []model.Favorite
	result := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("vendor_id = ? AND supplier_id = ?", vendorID, supplierID).
		Delete(&deleted)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if len(deleted) == 0 {
		return nil, ErrNotFound
	}
	return &deleted[0], nil
}

func (r *GormRepository) CreateMessage(ctx context.Context, m *model.Message) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *GormRepository) ListMessages(ctx context.Context, profileID uuid.UUID, orderID *uuid.UUID) ([]model.Message, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	query := r.db.WithContext(ctx).Where("sender_id = ? OR receiver_id = ?", profileID, profileID)
	if orderID != nil {
		query = query.Where("order_id = ?", *orderID)
	}

	var messages []model.Message
	if err := query.Order("created_at asc").Find(&messages).Error; err != nil {
		return nil, translate(err)
	}
	return messages, nil
}

func (r *GormRepository) MarkMessageRead(ctx context.Context, id, receiverID uuid.UUID) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	result := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND receiver_id = ?", id, receiverID).
		Update("is_read", true)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}
