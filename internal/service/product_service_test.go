package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/apperr"
	"catalog-service/internal/imagestore"
	"catalog-service/internal/model"
	"catalog-service/internal/repository"
	"catalog-service/internal/service"
)

// fakeProductStore is an in-memory ProductStore with injectable failures
type fakeProductStore struct {
	nextID    uint
	products  map[uint]model.Product
	details   map[uint]model.ProductDetail
	createErr error
	updateErr error
	deleteErr error
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{
		products: map[uint]model.Product{},
		details:  map[uint]model.ProductDetail{},
	}
}

func (f *fakeProductStore) CreateWithDetail(_ context.Context, p *model.Product, d *model.ProductDetail) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now()
	d.ProductID = p.ID
	f.products[p.ID] = *p
	f.details[p.ID] = *d
	return nil
}

func (f *fakeProductStore) GetByID(_ context.Context, id uint) (*model.Product, *model.ProductDetail, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	d, ok := f.details[id]
	if !ok {
		return &p, nil, nil
	}
	return &p, &d, nil
}

func (f *fakeProductStore) UpdateWithDetail(_ context.Context, p *model.Product, d *model.ProductDetail) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	f.products[p.ID] = *p
	d.ProductID = p.ID
	f.details[p.ID] = *d
	return nil
}

func (f *fakeProductStore) DeleteWithDetail(_ context.Context, productID, ownerID uint) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	p, ok := f.products[productID]
	if !ok || p.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(f.products, productID)
	delete(f.details, productID)
	return nil
}

func (f *fakeProductStore) List(_ context.Context, ownerID *uint) ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		if ownerID == nil || p.OwnerID == *ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProductStore) DetailsByProductIDs(_ context.Context, ids []uint) (map[uint]model.ProductDetail, error) {
	out := map[uint]model.ProductDetail{}
	for _, id := range ids {
		if d, ok := f.details[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func (f *fakeProductStore) ListImageIDs(_ context.Context) ([]string, error) {
	var ids []string
	for _, p := range f.products {
		if p.ImageID != "" {
			ids = append(ids, p.ImageID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeOwnerStore struct {
	users map[uint]model.User
}

func (f *fakeOwnerStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// fakeImageStore records uploads and deletes and can fail either direction
type fakeImageStore struct {
	uploads   int
	deleted   []string
	lastAsset imagestore.Asset
	uploadErr error
	deleteErr error
}

func (f *fakeImageStore) Upload(_ context.Context, r io.Reader, folder string) (imagestore.Asset, error) {
	if f.uploadErr != nil {
		return imagestore.Asset{}, f.uploadErr
	}
	if _, err := io.ReadAll(r); err != nil {
		return imagestore.Asset{}, err
	}
	f.uploads++
	f.lastAsset = imagestore.Asset{
		URL:      fmt.Sprintf("https://images.example.com/%s/img-%d.jpg", folder, f.uploads),
		PublicID: fmt.Sprintf("%s/img-%d", folder, f.uploads),
	}
	return f.lastAsset, nil
}

func (f *fakeImageStore) Delete(_ context.Context, publicID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, publicID)
	return nil
}

func newService() (*service.ProductService, *fakeProductStore, *fakeImageStore) {
	products := newFakeProductStore()
	owners := &fakeOwnerStore{users: map[uint]model.User{
		1: {ID: 1, Name: "Alice Seller", Email: "alice@example.com"},
		2: {ID: 2, Name: "Bob Seller", Email: "bob@example.com"},
	}}
	images := &fakeImageStore{}
	svc := service.NewProductService(products, owners, images, "products", nil)
	return svc, products, images
}

func validInput() service.ProductInput {
	return service.ProductInput{
		Name:             "Oil A",
		Category:         "coconut",
		ShortDescription: "desc",
		Price:            "12.50",
		Specifications:   []string{"cold pressed", "1 litre"},
		Applications:     []string{"cooking", "hair care"},
		Packaging:        []string{"glass bottle"},
	}
}

func withImage(in service.ProductInput) service.ProductInput {
	in.Image = []byte("fake image bytes")
	in.ImageContentType = "image/jpeg"
	return in
}

func TestCreateWithoutImage(t *testing.T) {
	svc, _, images := newService()

	record, err := svc.Create(context.Background(), 1, validInput())
	require.NoError(t, err)

	assert.Equal(t, uint(1), record.OwnerID)
	assert.Equal(t, "Alice Seller", record.SellerName)
	assert.True(t, decimal.RequireFromString("12.50").Equal(record.Price))
	assert.Nil(t, record.Image)
	assert.Equal(t, 0, images.uploads)
}

func TestCreateWithImage(t *testing.T) {
	svc, _, images := newService()

	record, err := svc.Create(context.Background(), 1, withImage(validInput()))
	require.NoError(t, err)

	require.NotNil(t, record.Image)
	assert.NotEmpty(t, record.Image.URL)
	assert.NotEmpty(t, record.Image.ID)
	assert.Equal(t, 1, images.uploads)
}

func TestCreateDetailListsRoundTrip(t *testing.T) {
	svc, _, _ := newService()
	in := validInput()

	record, err := svc.Create(context.Background(), 1, in)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Specifications, got.Specifications)
	assert.Equal(t, in.Applications, got.Applications)
	assert.Equal(t, in.Packaging, got.Packaging)
}

func TestCreateValidationFailsFast(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*service.ProductInput)
	}{
		{"missing name", func(in *service.ProductInput) { in.Name = "" }},
		{"missing category", func(in *service.ProductInput) { in.Category = "" }},
		{"missing short description", func(in *service.ProductInput) { in.ShortDescription = "" }},
		{"missing price", func(in *service.ProductInput) { in.Price = "" }},
		{"malformed price", func(in *service.ProductInput) { in.Price = "twelve" }},
		{"negative price", func(in *service.ProductInput) { in.Price = "-5" }},
		{"zero price", func(in *service.ProductInput) { in.Price = "0" }},
		{"bad image type", func(in *service.ProductInput) {
			in.Image = []byte("x")
			in.ImageContentType = "application/pdf"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, products, images := newService()
			in := validInput()
			tc.mutate(&in)

			_, err := svc.Create(context.Background(), 1, in)
			require.Error(t, err)
			assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
			// fail fast: zero side effects
			assert.Empty(t, products.products)
			assert.Equal(t, 0, images.uploads)
		})
	}
}

func TestCreateUnknownOwner(t *testing.T) {
	svc, _, images := newService()

	_, err := svc.Create(context.Background(), 99, withImage(validInput()))
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.Equal(t, 0, images.uploads)
}

func TestCreateUploadFailureAbortsBeforeWrite(t *testing.T) {
	svc, products, images := newService()
	images.uploadErr = errors.New("cdn is down")

	_, err := svc.Create(context.Background(), 1, withImage(validInput()))
	require.Error(t, err)
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
	assert.Empty(t, products.products)
}

func TestCreateCompensatesUploadedImageOnInsertFailure(t *testing.T) {
	svc, products, images := newService()
	products.createErr = errors.New("connection reset")

	_, err := svc.Create(context.Background(), 1, withImage(validInput()))
	require.Error(t, err)

	// the database error is the one surfaced, not an upload error
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
	// the uploaded image must have been deleted again
	require.Equal(t, 1, images.uploads)
	assert.Equal(t, []string{images.lastAsset.PublicID}, images.deleted)
}

func TestCreateCompensationFailureKeepsPrimaryError(t *testing.T) {
	svc, products, images := newService()
	products.createErr = errors.New("connection reset")
	images.deleteErr = errors.New("cdn is down")

	_, err := svc.Create(context.Background(), 1, withImage(validInput()))
	require.Error(t, err)
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "failed to store product")
}

func TestCreateDuplicateName(t *testing.T) {
	svc, products, _ := newService()
	products.createErr = repository.ErrConflict

	_, err := svc.Create(context.Background(), 1, validInput())
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestUpdateOwnershipMismatchChecksBeforeUpload(t *testing.T) {
	svc, _, images := newService()

	record, err := svc.Create(context.Background(), 2, validInput())
	require.NoError(t, err)

	// caller 1 does not own the product: same answer as a missing product,
	// and no remote write happens
	_, err = svc.Update(context.Background(), 1, record.ID, withImage(validInput()))
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.Equal(t, 0, images.uploads)
}

func TestUpdateUnknownProduct(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Update(context.Background(), 1, 42, validInput())
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestUpdateKeepsImageWithoutNewBytes(t *testing.T) {
	svc, _, images := newService()

	created, err := svc.Create(context.Background(), 1, withImage(validInput()))
	require.NoError(t, err)

	in := validInput()
	in.Name = "Oil A Extra"
	updated, err := svc.Update(context.Background(), 1, created.ID, in)
	require.NoError(t, err)

	require.NotNil(t, updated.Image)
	assert.Equal(t, created.Image.ID, updated.Image.ID)
	assert.Equal(t, 1, images.uploads)
	assert.Empty(t, images.deleted)
}

func TestUpdateReplacesImage(t *testing.T) {
	svc, _, images := newService()

	created, err := svc.Create(context.Background(), 1, withImage(validInput()))
	require.NoError(t, err)
	oldID := created.Image.ID

	updated, err := svc.Update(context.Background(), 1, created.ID, withImage(validInput()))
	require.NoError(t, err)

	require.NotNil(t, updated.Image)
	assert.NotEqual(t, oldID, updated.Image.ID)
	assert.Equal(t, 2, images.uploads)
	// the old remote image was deleted before the new upload
	assert.Equal(t, []string{oldID}, images.deleted)
}

func TestUpdateFullReplaceOfMutableFields(t *testing.T) {
	svc, _, _ := newService()

	created, err := svc.Create(context.Background(), 1, validInput())
	require.NoError(t, err)

	in := service.ProductInput{
		Name:             "Oil B",
		Category:         "sesame",
		ShortDescription: "new desc",
		LongDescription:  "long form",
		Price:            "20.00",
		Specifications:   []string{"hot pressed"},
		Applications:     []string{},
		Packaging:        []string{"tin", "pouch"},
	}
	updated, err := svc.Update(context.Background(), 1, created.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "Oil B", updated.Name)
	assert.Equal(t, "sesame", updated.Category)
	assert.True(t, decimal.RequireFromString("20.00").Equal(updated.Price))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, uint(1), updated.OwnerID)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hot pressed"}, got.Specifications)
	assert.Equal(t, []string{}, got.Applications)
	assert.Equal(t, []string{"tin", "pouch"}, got.Packaging)
}

func TestUpdateVanishedConcurrently(t *testing.T) {
	svc, products, _ := newService()

	created, err := svc.Create(context.Background(), 1, validInput())
	require.NoError(t, err)

	products.updateErr = repository.ErrNotFound
	_, err = svc.Update(context.Background(), 1, created.ID, validInput())
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestDeleteRemovesRowsAndImage(t *testing.T) {
	svc, products, images := newService()

	created, err := svc.Create(context.Background(), 1, withImage(validInput()))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, created.ID))
	assert.Empty(t, products.products)
	assert.Empty(t, products.details)
	assert.Contains(t, images.deleted, created.Image.ID)
}

func TestDeleteTwiceReturnsNotFound(t *testing.T) {
	svc, _, _ := newService()

	created, err := svc.Create(context.Background(), 1, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, created.ID))
	err = svc.Delete(context.Background(), 1, created.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestDeleteOwnershipMismatch(t *testing.T) {
	svc, products, _ := newService()

	created, err := svc.Create(context.Background(), 2, validInput())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), 1, created.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.Len(t, products.products, 1)
}

func TestDeleteRemoteFailureStillReportsSuccess(t *testing.T) {
	svc, products, images := newService()

	created, err := svc.Create(context.Background(), 1, withImage(validInput()))
	require.NoError(t, err)

	// the remote cleanup is advisory: its failure leaves an orphaned blob
	// but the local delete decides the outcome
	images.deleteErr = errors.New("cdn is down")
	require.NoError(t, svc.Delete(context.Background(), 1, created.ID))
	assert.Empty(t, products.products)
}

func TestDeleteDatabaseFailureLeavesImage(t *testing.T) {
	svc, products, images := newService()

	created, err := svc.Create(context.Background(), 1, withImage(validInput()))
	require.NoError(t, err)

	products.deleteErr = errors.New("connection reset")
	err = svc.Delete(context.Background(), 1, created.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
	// the record still references the image, so it must not be touched
	assert.Empty(t, images.deleted)
}

func TestGetToleratesMissingDetailRow(t *testing.T) {
	svc, products, _ := newService()

	created, err := svc.Create(context.Background(), 1, validInput())
	require.NoError(t, err)
	delete(products.details, created.ID)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Specifications)
	assert.Equal(t, []string{}, got.Applications)
	assert.Equal(t, []string{}, got.Packaging)
}

func TestListFiltersByOwner(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Create(context.Background(), 1, validInput())
	require.NoError(t, err)
	other := validInput()
	other.Name = "Oil B"
	_, err = svc.Create(context.Background(), 2, other)
	require.NoError(t, err)

	all, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	owner := uint(2)
	mine, err := svc.List(context.Background(), &owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Oil B", mine[0].Name)
}

func TestReferencedImageIDs(t *testing.T) {
	svc, _, images := newService()

	_, err := svc.Create(context.Background(), 1, withImage(validInput()))
	require.NoError(t, err)
	plain := validInput()
	plain.Name = "Oil B"
	_, err = svc.Create(context.Background(), 1, plain)
	require.NoError(t, err)

	ids, err := svc.ReferencedImageIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{images.lastAsset.PublicID}, ids)
}
