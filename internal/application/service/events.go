package service

import "context"

type ProfileEventType string

const (
	ProfileEventSaved   ProfileEventType = "profile.saved"
	ProfileEventDeleted ProfileEventType = "profile.deleted"
)

type ProfileEvent struct {
	EventType ProfileEventType `json:"event_type"`
	UserID    string           `json:"user_id"`
	// OrphanedImageID is the host id of a photo no longer referenced by any
	// profile. Empty when nothing was orphaned.
	OrphanedImageID string `json:"orphaned_image_id,omitempty"`
}

type EventPublisher interface {
	PublishProfileEvent(ctx context.Context, ev ProfileEvent) error
}
