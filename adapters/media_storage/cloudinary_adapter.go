package media_storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/internal/application/service"
	"github.com/khoahotran/labour-connect/internal/config"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

type cloudinaryAdapter struct {
	cld          *cloudinary.Cloudinary
	uploadPreset string
	logger       logger.Logger
}

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (service.ImageHost, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	log.Info("Connect Cloudinary successfully.", zap.String("cloud_name", cfg.Cloudinary.CloudName))
	return &cloudinaryAdapter{cld: cld, uploadPreset: cfg.Cloudinary.UploadPreset, logger: log}, nil
}

// Upload returns the secure URL and the public id Cloudinary actually used.
// An upload preset may rewrite the folder or the id.
func (a *cloudinaryAdapter) Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, string, error) {
	uploadParams := uploader.UploadParams{
		PublicID:     publicID,
		Folder:       folder,
		UploadPreset: a.uploadPreset,
		ResourceType: "image",
	}
	result, err := a.cld.Upload.Upload(ctx, file, uploadParams)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}
	if result.PublicID == "" {
		return "", "", fmt.Errorf("cloudinary returned no public id")
	}
	a.logger.Debug("Image uploaded", zap.String("public_id", result.PublicID), zap.Int("bytes", result.Bytes))
	return result.SecureURL, result.PublicID, nil
}

func (a *cloudinaryAdapter) Delete(ctx context.Context, publicID string) error {
	result, err := a.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("failed to delete cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("cloudinary rejected delete: %s", result.Error.Message)
	}
	// "not found" means someone already removed it.
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("cloudinary delete returned %q", result.Result)
	}
	return nil
}
