package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"catalog-service/internal/model"
	"catalog-service/prometheus"
)

// ProductRepository owns the products and product_details tables. A product
// row and its detail row are written together: every multi-row write runs
// inside a single transaction so neither can exist without the other.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a product repository on the injected handle
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// mutable product columns replaced on update; OwnerID and CreatedAt are
// immutable and deliberately absent
var productUpdateColumns = []string{
	"seller_name", "name", "category", "short_description",
	"long_description", "price", "image_url", "image_id",
}

// CreateWithDetail inserts the product row and its detail row in one
// transaction. The product is inserted first so the detail's foreign key
// resolves. A duplicate product name reports ErrConflict.
func (r *ProductRepository) CreateWithDetail(ctx context.Context, p *model.Product, d *model.ProductDetail) error {
	defer prometheus.TrackDBOperation("product_create")(time.Now())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		d.ProductID = p.ID
		return tx.Create(d).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// GetByID returns the product and its detail row. A missing detail row is
// tolerated and returned as nil.
func (r *ProductRepository) GetByID(ctx context.Context, id uint) (*model.Product, *model.ProductDetail, error) {
	defer prometheus.TrackDBOperation("product_get")(time.Now())

	var product model.Product
	result := r.db.WithContext(ctx).First(&product, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, result.Error
	}

	var detail model.ProductDetail
	result = r.db.WithContext(ctx).Where("product_id = ?", id).First(&detail)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return &product, nil, nil
		}
		return nil, nil, result.Error
	}
	return &product, &detail, nil
}

// UpdateWithDetail replaces the mutable product columns and the detail row in
// one transaction. Zero rows affected means the product vanished concurrently
// and reports ErrNotFound; the transaction rolls back.
func (r *ProductRepository) UpdateWithDetail(ctx context.Context, p *model.Product, d *model.ProductDetail) error {
	defer prometheus.TrackDBOperation("product_update")(time.Now())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Product{}).
			Where("id = ?", p.ID).
			Select(productUpdateColumns).
			Updates(p)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		result = tx.Model(&model.ProductDetail{}).
			Where("product_id = ?", p.ID).
			Select("specifications", "applications", "packaging").
			Updates(d)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// detail row lost out-of-band, restore it
			d.ProductID = p.ID
			return tx.Create(d).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// DeleteWithDetail removes the detail row and then the product row in one
// transaction, in that dependency order. The product delete is scoped to the
// owner; zero rows affected reports ErrNotFound and rolls everything back.
func (r *ProductRepository) DeleteWithDetail(ctx context.Context, productID, ownerID uint) error {
	defer prometheus.TrackDBOperation("product_delete")(time.Now())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&model.ProductDetail{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND owner_id = ?", productID, ownerID).Delete(&model.Product{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// List returns products, optionally filtered by owner
func (r *ProductRepository) List(ctx context.Context, ownerID *uint) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("product_list")(time.Now())

	query := r.db.WithContext(ctx)
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	}

	var products []model.Product
	if err := query.Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// DetailsByProductIDs returns the detail rows for the given products keyed by
// product id. Products without a detail row are simply absent from the map.
func (r *ProductRepository) DetailsByProductIDs(ctx context.Context, ids []uint) (map[uint]model.ProductDetail, error) {
	defer prometheus.TrackDBOperation("detail_list")(time.Now())

	if len(ids) == 0 {
		return map[uint]model.ProductDetail{}, nil
	}

	var details []model.ProductDetail
	if err := r.db.WithContext(ctx).Where("product_id IN ?", ids).Find(&details).Error; err != nil {
		return nil, err
	}

	byProduct := make(map[uint]model.ProductDetail, len(details))
	for _, d := range details {
		byProduct[d.ProductID] = d
	}
	return byProduct, nil
}

// ListImageIDs returns every remote image id referenced by a product. This is
// the reconciliation hook for out-of-band orphan cleanup: any id in the
// remote store but not in this set has no referencing product.
func (r *ProductRepository) ListImageIDs(ctx context.Context) ([]string, error) {
	defer prometheus.TrackDBOperation("image_id_list")(time.Now())

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("image_id <> ''").
		Pluck("image_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
