package imagestore

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"catalog-service/pkg/config"
)

// incoming images are capped to 1000x1000 and recompressed on upload
const uploadTransformation = "c_limit,w_1000,h_1000/q_auto/f_auto"

// Cloudinary implements Store against the Cloudinary upload API
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinary creates a Cloudinary-backed image store from configuration
func NewCloudinary(cfg *config.CloudinaryConfig) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

// Upload stores the image under folder and returns its stable reference
func (s *Cloudinary) Upload(ctx context.Context, r io.Reader, folder string) (Asset, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         folder,
		Transformation: uploadTransformation,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if res.Error.Message != "" {
		return Asset{}, fmt.Errorf("cloudinary upload rejected: %s", res.Error.Message)
	}
	return Asset{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// Delete removes the image with the given public id. Deleting an id that was
// already removed reports success.
func (s *Cloudinary) Delete(ctx context.Context, publicID string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy failed: %w", err)
	}
	// "not found" counts as deleted
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("cloudinary destroy rejected: %s", res.Result)
	}
	return nil
}
