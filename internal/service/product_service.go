package service

import (
	"bytes"
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"catalog-service/internal/apperr"
	"catalog-service/internal/imagestore"
	"catalog-service/internal/model"
	"catalog-service/internal/repository"
	"catalog-service/prometheus"
)

// ProductStore is the repository surface the lifecycle service depends on
type ProductStore interface {
	CreateWithDetail(ctx context.Context, p *model.Product, d *model.ProductDetail) error
	GetByID(ctx context.Context, id uint) (*model.Product, *model.ProductDetail, error)
	UpdateWithDetail(ctx context.Context, p *model.Product, d *model.ProductDetail) error
	DeleteWithDetail(ctx context.Context, productID, ownerID uint) error
	List(ctx context.Context, ownerID *uint) ([]model.Product, error)
	DetailsByProductIDs(ctx context.Context, ids []uint) (map[uint]model.ProductDetail, error)
	ListImageIDs(ctx context.Context) ([]string, error)
}

// OwnerStore resolves verified caller identities to user records
type OwnerStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

// ProductInput is the full replacement field set for create and update.
// Image carries raw bytes; when empty, create produces a product without an
// image and update keeps the existing one.
type ProductInput struct {
	Name             string
	Category         string
	ShortDescription string
	LongDescription  string
	Price            string
	Specifications   []string
	Applications     []string
	Packaging        []string
	Image            []byte
	ImageContentType string
}

// ImageRef is the resolved remote image reference in a product record
type ImageRef struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// Record is the assembled product returned to callers: the product row with
// decoded detail lists and the resolved image reference.
type Record struct {
	ID               uint            `json:"id"`
	OwnerID          uint            `json:"owner_id"`
	SellerName       string          `json:"seller_name"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	ShortDescription string          `json:"short_description"`
	LongDescription  string          `json:"long_description,omitempty"`
	Price            decimal.Decimal `json:"price"`
	Image            *ImageRef       `json:"image,omitempty"`
	Specifications   []string        `json:"specifications"`
	Applications     []string        `json:"applications"`
	Packaging        []string        `json:"packaging"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ProductService orchestrates product create/update/delete, coordinating the
// relational writes with the remote image store. The local commit is
// authoritative; remote image cleanup is advisory and never blocks the
// reported outcome once the primary operation has settled.
type ProductService struct {
	products ProductStore
	owners   OwnerStore
	images   imagestore.Store
	folder   string
	log      *zap.Logger
}

// NewProductService creates the lifecycle service with its collaborators
func NewProductService(products ProductStore, owners OwnerStore, images imagestore.Store, folder string, log *zap.Logger) *ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{
		products: products,
		owners:   owners,
		images:   images,
		folder:   folder,
		log:      log,
	}
}

// Create validates the input, uploads the image when present, and inserts the
// product and detail rows in one transaction. Validation failures return
// before any external call. If the database write fails after a successful
// upload, the uploaded image is deleted as best-effort compensation and the
// database error is the one surfaced.
func (s *ProductService) Create(ctx context.Context, ownerID uint, in ProductInput) (*Record, error) {
	price, err := validateInput(in)
	if err != nil {
		return nil, err
	}

	owner, err := s.owners.GetByID(ctx, ownerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.New(apperr.NotFound, "owner not found")
		}
		return nil, apperr.Wrap(err, apperr.Unavailable, "failed to look up owner")
	}

	// Upload before the transaction: an upload failure aborts the whole
	// operation while nothing durable has been written yet.
	var asset imagestore.Asset
	uploaded := false
	if len(in.Image) > 0 {
		asset, err = s.upload(ctx, in)
		if err != nil {
			return nil, err
		}
		uploaded = true
	}

	product := &model.Product{
		OwnerID:          ownerID,
		SellerName:       owner.Name,
		Name:             in.Name,
		Category:         in.Category,
		ShortDescription: in.ShortDescription,
		LongDescription:  in.LongDescription,
		Price:            price,
		ImageURL:         asset.URL,
		ImageID:          asset.PublicID,
	}
	detail := detailFromInput(in)

	if err := s.products.CreateWithDetail(ctx, product, detail); err != nil {
		if uploaded {
			s.compensate(ctx, asset.PublicID, "create_rollback")
		}
		if repository.IsConflict(err) {
			return nil, apperr.New(apperr.Conflict, "product with this name already exists")
		}
		return nil, apperr.Wrap(err, apperr.Unavailable, "failed to store product")
	}

	prometheus.RecordProductOperation("create")
	s.log.Info("product created",
		zap.Uint("product_id", product.ID),
		zap.Uint("owner_id", ownerID),
		zap.Bool("has_image", uploaded))
	return assemble(product, detail), nil
}

// Update replaces every mutable field of an owned product. Ownership is
// verified before any upload happens, so a rejected caller never costs a
// remote write. Swapping the image is not atomic with the database update:
// the old remote image is deleted and the new one uploaded before the
// transaction, and no compensation is attempted if the transaction then
// fails. The accepted cost is an orphaned blob, never a half-written record.
func (s *ProductService) Update(ctx context.Context, ownerID, productID uint, in ProductInput) (*Record, error) {
	price, err := validateInput(in)
	if err != nil {
		return nil, err
	}

	current, _, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.New(apperr.NotFound, "product not found")
		}
		return nil, apperr.Wrap(err, apperr.Unavailable, "failed to read product")
	}
	// Same answer as a missing product so callers cannot probe for other
	// users' ids.
	if current.OwnerID != ownerID {
		return nil, apperr.New(apperr.NotFound, "product not found")
	}

	owner, err := s.owners.GetByID(ctx, ownerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.New(apperr.NotFound, "owner not found")
		}
		return nil, apperr.Wrap(err, apperr.Unavailable, "failed to look up owner")
	}

	imageURL, imageID := current.ImageURL, current.ImageID
	if len(in.Image) > 0 {
		if current.HasImage() {
			s.compensate(ctx, current.ImageID, "update_replace")
		}
		asset, err := s.upload(ctx, in)
		if err != nil {
			return nil, err
		}
		imageURL, imageID = asset.URL, asset.PublicID
	}

	product := &model.Product{
		ID:               productID,
		OwnerID:          current.OwnerID,
		SellerName:       owner.Name,
		Name:             in.Name,
		Category:         in.Category,
		ShortDescription: in.ShortDescription,
		LongDescription:  in.LongDescription,
		Price:            price,
		ImageURL:         imageURL,
		ImageID:          imageID,
		CreatedAt:        current.CreatedAt,
	}
	detail := detailFromInput(in)
	detail.ProductID = productID

	if err := s.products.UpdateWithDetail(ctx, product, detail); err != nil {
		switch {
		case repository.IsNotFound(err):
			return nil, apperr.New(apperr.NotFound, "product not found")
		case repository.IsConflict(err):
			return nil, apperr.New(apperr.Conflict, "product with this name already exists")
		}
		return nil, apperr.Wrap(err, apperr.Unavailable, "failed to update product")
	}

	prometheus.RecordProductOperation("update")
	s.log.Info("product updated",
		zap.Uint("product_id", productID),
		zap.Uint("owner_id", ownerID),
		zap.Bool("image_replaced", len(in.Image) > 0))
	return assemble(product, detail), nil
}

// Delete removes the detail row and product row transactionally, then issues
// a best-effort delete of the remote image. The remote delete runs outside
// the transaction: if it fails the operation still reports success and the
// orphaned blob is left for out-of-band reconciliation. If the database
// delete fails nothing is removed remotely, since the record still references
// the image.
func (s *ProductService) Delete(ctx context.Context, ownerID, productID uint) error {
	current, _, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperr.New(apperr.NotFound, "product not found")
		}
		return apperr.Wrap(err, apperr.Unavailable, "failed to read product")
	}
	if current.OwnerID != ownerID {
		return apperr.New(apperr.NotFound, "product not found")
	}

	if err := s.products.DeleteWithDetail(ctx, productID, ownerID); err != nil {
		if repository.IsNotFound(err) {
			// vanished between the read and the delete
			return apperr.New(apperr.NotFound, "product not found")
		}
		return apperr.Wrap(err, apperr.Unavailable, "failed to delete product")
	}

	if current.HasImage() {
		s.compensate(ctx, current.ImageID, "delete_cleanup")
	}

	prometheus.RecordProductOperation("delete")
	s.log.Info("product deleted",
		zap.Uint("product_id", productID),
		zap.Uint("owner_id", ownerID))
	return nil
}

// Get returns a single assembled product record
func (s *ProductService) Get(ctx context.Context, productID uint) (*Record, error) {
	product, detail, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.New(apperr.NotFound, "product not found")
		}
		return nil, apperr.Wrap(err, apperr.Unavailable, "failed to read product")
	}
	return assemble(product, detail), nil
}

// List returns assembled records, optionally filtered by owner. Products
// whose detail row is missing get empty lists.
func (s *ProductService) List(ctx context.Context, ownerID *uint) ([]*Record, error) {
	products, err := s.products.List(ctx, ownerID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Unavailable, "failed to list products")
	}

	ids := make([]uint, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	details, err := s.products.DetailsByProductIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Unavailable, "failed to list product details")
	}

	records := make([]*Record, 0, len(products))
	for i := range products {
		var detail *model.ProductDetail
		if d, ok := details[products[i].ID]; ok {
			detail = &d
		}
		records = append(records, assemble(&products[i], detail))
	}
	return records, nil
}

// ReferencedImageIDs exposes the set of remote image ids referenced by any
// product, for out-of-band orphan reconciliation.
func (s *ProductService) ReferencedImageIDs(ctx context.Context) ([]string, error) {
	ids, err := s.products.ListImageIDs(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Unavailable, "failed to list image ids")
	}
	return ids, nil
}

func (s *ProductService) upload(ctx context.Context, in ProductInput) (imagestore.Asset, error) {
	asset, err := s.images.Upload(ctx, bytes.NewReader(in.Image), s.folder)
	if err != nil {
		prometheus.RecordImageStoreOperation("upload", "error")
		s.log.Error("image upload failed", zap.Error(err))
		return imagestore.Asset{}, apperr.Wrap(err, apperr.Unavailable, "image upload failed")
	}
	prometheus.RecordImageStoreOperation("upload", "ok")
	return asset, nil
}

// compensate issues a best-effort remote image delete. Failures are logged
// and counted, never escalated: the caller's outcome is already settled. The
// delete runs on a detached context so a disconnected caller cannot cancel
// the cleanup mid-flight.
func (s *ProductService) compensate(ctx context.Context, publicID, trigger string) {
	if err := s.images.Delete(context.WithoutCancel(ctx), publicID); err != nil {
		prometheus.RecordCompensation(trigger, "error")
		s.log.Warn("best-effort image delete failed, blob orphaned",
			zap.String("image_id", publicID),
			zap.String("trigger", trigger),
			zap.Error(err))
		return
	}
	prometheus.RecordCompensation(trigger, "ok")
}

func validateInput(in ProductInput) (decimal.Decimal, error) {
	switch {
	case in.Name == "":
		return decimal.Zero, apperr.New(apperr.InvalidArgument, "name is required")
	case in.Category == "":
		return decimal.Zero, apperr.New(apperr.InvalidArgument, "category is required")
	case in.ShortDescription == "":
		return decimal.Zero, apperr.New(apperr.InvalidArgument, "short description is required")
	case in.Price == "":
		return decimal.Zero, apperr.New(apperr.InvalidArgument, "price is required")
	}

	price, err := decimal.NewFromString(in.Price)
	if err != nil {
		return decimal.Zero, apperr.New(apperr.InvalidArgument, "price must be a decimal number")
	}
	if !price.IsPositive() {
		return decimal.Zero, apperr.New(apperr.InvalidArgument, "price must be greater than zero")
	}

	if len(in.Image) > 0 && !allowedImageTypes[in.ImageContentType] {
		return decimal.Zero, apperr.New(apperr.InvalidArgument, "unsupported image type")
	}
	return price, nil
}

func detailFromInput(in ProductInput) *model.ProductDetail {
	return &model.ProductDetail{
		Specifications: model.JoinLines(in.Specifications),
		Applications:   model.JoinLines(in.Applications),
		Packaging:      model.JoinLines(in.Packaging),
	}
}

func assemble(p *model.Product, d *model.ProductDetail) *Record {
	record := &Record{
		ID:               p.ID,
		OwnerID:          p.OwnerID,
		SellerName:       p.SellerName,
		Name:             p.Name,
		Category:         p.Category,
		ShortDescription: p.ShortDescription,
		LongDescription:  p.LongDescription,
		Price:            p.Price,
		Specifications:   []string{},
		Applications:     []string{},
		Packaging:        []string{},
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.HasImage() {
		record.Image = &ImageRef{URL: p.ImageURL, ID: p.ImageID}
	}
	if d != nil {
		record.Specifications = model.SplitLines(d.Specifications)
		record.Applications = model.SplitLines(d.Applications)
		record.Packaging = model.SplitLines(d.Packaging)
	}
	return record
}
