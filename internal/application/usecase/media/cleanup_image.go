package media

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/internal/application/service"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

// CleanupImageUseCase removes photos that no profile references any more.
type CleanupImageUseCase struct {
	images service.ImageHost
	logger logger.Logger
}

func NewCleanupImageUseCase(images service.ImageHost, log logger.Logger) *CleanupImageUseCase {
	return &CleanupImageUseCase{images: images, logger: log}
}

func (uc *CleanupImageUseCase) Execute(ctx context.Context, ev service.ProfileEvent) error {
	if ev.OrphanedImageID == "" {
		uc.logger.Debug("No orphaned image, skip", zap.String("event_type", string(ev.EventType)), zap.String("user_id", ev.UserID))
		return nil
	}

	if err := uc.images.Delete(ctx, ev.OrphanedImageID); err != nil {
		return fmt.Errorf("delete orphaned image %s failed: %w", ev.OrphanedImageID, err)
	}

	uc.logger.Info("Removed orphaned profile image",
		zap.String("public_id", ev.OrphanedImageID),
		zap.String("user_id", ev.UserID),
		zap.String("event_type", string(ev.EventType)),
	)
	return nil
}
