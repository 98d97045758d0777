package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"catalog-service/internal/middleware"
	"catalog-service/internal/service"
	"catalog-service/pkg/logger"
)

// ProductHandler serves the product CRUD endpoints
type ProductHandler struct {
	products  *service.ProductService
	maxUpload int64
	debug     bool
}

// NewProductHandler creates the product handler
func NewProductHandler(products *service.ProductService, maxUpload int64, debug bool) *ProductHandler {
	return &ProductHandler{products: products, maxUpload: maxUpload, debug: debug}
}

// ListProducts handles retrieving all products with optional owner filtering
func (h *ProductHandler) ListProducts(c echo.Context) error {
	log := logger.FromEcho(c)

	var ownerID *uint
	if raw := c.QueryParam("owner_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			log.Warn("Invalid owner_id parameter", zap.String("value", raw), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner_id must be a positive integer"})
		}
		v := uint(id)
		ownerID = &v
		log.Info("Filtering products by owner", zap.Uint("owner_id", v))
	}

	records, err := h.products.List(c.Request().Context(), ownerID)
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return writeError(c, err, h.debug)
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(records)))
	return c.JSON(http.StatusOK, records)
}

// GetProduct handles retrieving a single product by ID
func (h *ProductHandler) GetProduct(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	log.Info("Getting product by ID", zap.Uint("product_id", id))

	record, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		log.Error("Product not found", zap.Uint("product_id", id), zap.Error(err))
		return writeError(c, err, h.debug)
	}

	return c.JSON(http.StatusOK, record)
}

// CreateProduct handles creating a new product from a multipart form
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	log := logger.FromEcho(c)

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		log.Warn("Missing user_id in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	input, err := h.bindProductForm(c)
	if err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return writeError(c, err, h.debug)
	}

	log.Info("Product creation request",
		zap.String("name", input.Name),
		zap.String("category", input.Category),
		zap.Uint("owner_id", ownerID),
		zap.Bool("has_image", len(input.Image) > 0))

	record, err := h.products.Create(c.Request().Context(), ownerID, *input)
	if err != nil {
		log.Error("Failed to create product",
			zap.String("name", input.Name),
			zap.Uint("owner_id", ownerID),
			zap.Error(err))
		return writeError(c, err, h.debug)
	}

	log.Info("Product created successfully",
		zap.Uint("product_id", record.ID),
		zap.String("name", record.Name))
	return c.JSON(http.StatusCreated, record)
}

// UpdateProduct handles the full replacement of an existing product
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	log := logger.FromEcho(c)

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		log.Warn("Missing user_id in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	input, err := h.bindProductForm(c)
	if err != nil {
		log.Error("Invalid request data", zap.Uint("product_id", id), zap.Error(err))
		return writeError(c, err, h.debug)
	}

	log.Info("Updating product",
		zap.Uint("product_id", id),
		zap.Uint("owner_id", ownerID),
		zap.Bool("has_image", len(input.Image) > 0))

	record, err := h.products.Update(c.Request().Context(), ownerID, id, *input)
	if err != nil {
		log.Error("Failed to update product",
			zap.Uint("product_id", id),
			zap.Uint("owner_id", ownerID),
			zap.Error(err))
		return writeError(c, err, h.debug)
	}

	log.Info("Product updated successfully",
		zap.Uint("product_id", record.ID),
		zap.String("name", record.Name))
	return c.JSON(http.StatusOK, record)
}

// DeleteProduct handles deleting a product and its remote image
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	log := logger.FromEcho(c)

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		log.Warn("Missing user_id in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	log.Info("Deleting product", zap.Uint("product_id", id), zap.Uint("owner_id", ownerID))

	if err := h.products.Delete(c.Request().Context(), ownerID, id); err != nil {
		log.Error("Failed to delete product",
			zap.Uint("product_id", id),
			zap.Uint("owner_id", ownerID),
			zap.Error(err))
		return writeError(c, err, h.debug)
	}

	log.Info("Product deleted successfully", zap.Uint("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

// bindProductForm decodes the multipart form into a service input. Scalar
// fields come from single form values, list fields from repeated values, and
// the optional image from the "image" file part, capped at the configured
// size.
func (h *ProductHandler) bindProductForm(c echo.Context) (*service.ProductInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, invalidForm("request body must be multipart/form-data", err)
	}

	input := &service.ProductInput{
		Name:             formValue(form, "name"),
		Category:         formValue(form, "category"),
		ShortDescription: formValue(form, "short_description"),
		LongDescription:  formValue(form, "long_description"),
		Price:            formValue(form, "price"),
		Specifications:   formValues(form, "specifications"),
		Applications:     formValues(form, "applications"),
		Packaging:        formValues(form, "packaging"),
	}

	files := form.File["image"]
	if len(files) == 0 {
		return input, nil
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, invalidForm("failed to read image upload", err)
	}
	defer f.Close()

	// read one byte past the cap to detect oversized uploads
	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return nil, invalidForm("failed to read image upload", err)
	}
	if int64(len(data)) > h.maxUpload {
		return nil, invalidForm("image exceeds the maximum upload size", nil)
	}

	input.Image = data
	input.ImageContentType = fh.Header.Get("Content-Type")
	return input, nil
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func formValue(form *multipart.Form, key string) string {
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func formValues(form *multipart.Form, key string) []string {
	return form.Value[key]
}
