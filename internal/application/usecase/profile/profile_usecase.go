package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/internal/application/service"
	"github.com/khoahotran/labour-connect/internal/domain/labour"
	"github.com/khoahotran/labour-connect/pkg/apperror"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

const (
	msgFetchFailed  = "Error fetching profile data"
	msgSaved        = "Profile updated successfully!"
	msgSaveFailed   = "Error updating profile: "
	msgDeleted      = "Profile deleted successfully!"
	msgDeleteFailed = "Error deleting profile: "
	msgUploadFailed = "Failed to upload image. Please try again."
	msgBusy         = "Another profile operation is still in progress"
)

var tracer = otel.Tracer("profile_usecase")

type ProfileUseCase struct {
	identity    service.IdentityProvider
	profileRepo labour.Repository
	images      service.ImageHost
	sessions    SessionStore
	events      service.EventPublisher
	imageFolder string
	logger      logger.Logger
	guard       *inflight
	newImageID  func() string
}

func NewProfileUseCase(
	identity service.IdentityProvider,
	repo labour.Repository,
	images service.ImageHost,
	sessions SessionStore,
	events service.EventPublisher,
	imageFolder string,
	log logger.Logger,
) *ProfileUseCase {
	return &ProfileUseCase{
		identity:    identity,
		profileRepo: repo,
		images:      images,
		sessions:    sessions,
		events:      events,
		imageFolder: strings.Trim(imageFolder, "/"),
		logger:      log,
		guard:       newInflight(),
		newImageID:  uuid.NewString,
	}
}

func (uc *ProfileUseCase) currentUser(ctx context.Context) (string, error) {
	userID, ok := uc.identity.CurrentUser(ctx)
	if !ok || userID == "" {
		return "", apperror.NewAuthRequired("no authenticated identity in context")
	}
	return userID, nil
}

// loadSession returns the stored session or nil when none exists yet.
func (uc *ProfileUseCase) loadSession(ctx context.Context, userID string) (*Session, error) {
	sess, err := uc.sessions.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, apperror.NewInternal("failed to load edit session", err)
	}
	return sess, nil
}

func (uc *ProfileUseCase) storeSession(ctx context.Context, sess *Session) error {
	if err := uc.sessions.Put(ctx, sess); err != nil {
		return apperror.NewInternal("failed to store edit session", err)
	}
	return nil
}

// Open returns the caller's session, running the fetch protocol once when
// the session starts.
func (uc *ProfileUseCase) Open(ctx context.Context) (*Session, error) {
	userID, err := uc.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := uc.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		sess.Notice = nil
		return sess.Snapshot(), nil
	}

	return uc.fetch(ctx, newSession(userID))
}

// Fetch reloads the persisted record, discarding any draft.
func (uc *ProfileUseCase) Fetch(ctx context.Context) (*Session, error) {
	userID, err := uc.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := uc.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = newSession(userID)
	}
	return uc.fetch(ctx, sess)
}

func (uc *ProfileUseCase) fetch(ctx context.Context, sess *Session) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", sess.UserID))

	release, ok := uc.guard.acquire(sess.UserID)
	if !ok {
		return uc.busy(sess)
	}
	defer release()

	p, err := uc.profileRepo.Get(ctx, sess.UserID)
	switch {
	case err == nil:
		adopted := p.Clone()
		if adopted.Skills == nil {
			adopted.Skills = labour.Skills{}
		}
		sess.Profile = adopted
		sess.Persisted = true
		sess.PendingImage = nil
		sess.State = StateViewing
		sess.Notice = nil
	case errors.Is(err, labour.ErrProfileNotFound):
		sess.Profile = labour.NewEmpty(sess.UserID)
		sess.Persisted = false
		sess.PendingImage = nil
		sess.State = StateEditing
		sess.Notice = nil
	default:
		span.RecordError(err)
		uc.logger.Error("Failed to fetch labour profile", err, zap.String("user_id", sess.UserID))
		sess.Notice = errorNotice(msgFetchFailed, err)
		if storeErr := uc.storeSession(ctx, sess); storeErr != nil {
			uc.logger.Error("Failed to store edit session", storeErr, zap.String("user_id", sess.UserID))
		}
		return sess.Snapshot(), fmt.Errorf("fetch profile failed: %w", err)
	}

	if err := uc.storeSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// session loads the caller's session, starting one through the fetch
// protocol when there is none.
func (uc *ProfileUseCase) session(ctx context.Context) (*Session, error) {
	userID, err := uc.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := uc.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		sess.Notice = nil
		return sess, nil
	}
	if _, err := uc.fetch(ctx, newSession(userID)); err != nil {
		return nil, err
	}
	sess, err = uc.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, apperror.NewInternal("edit session vanished after fetch", ErrSessionNotFound)
	}
	return sess, nil
}

func (uc *ProfileUseCase) requireEditing(sess *Session) error {
	if sess.State != StateEditing {
		err := apperror.NewInvalidInput("profile is not in edit mode", nil)
		sess.Notice = errorNotice("Switch to edit mode first", err)
		return err
	}
	return nil
}

func (uc *ProfileUseCase) busy(sess *Session) (*Session, error) {
	err := apperror.NewBusy("profile")
	out := sess.Snapshot()
	out.Notice = errorNotice(msgBusy, err)
	return out, err
}

// Edit switches from viewing to editing without touching the record.
func (uc *ProfileUseCase) Edit(ctx context.Context) (*Session, error) {
	sess, err := uc.session(ctx)
	if err != nil {
		return nil, err
	}
	sess.State = StateEditing
	if err := uc.storeSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// Apply runs draft actions in order. Nothing is persisted.
func (uc *ProfileUseCase) Apply(ctx context.Context, actions ...labour.Action) (*Session, error) {
	sess, err := uc.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := uc.requireEditing(sess); err != nil {
		return sess.Snapshot(), err
	}

	next, err := labour.ReduceAll(sess.Profile, actions...)
	if err != nil {
		appErr := apperror.NewInvalidInput(err.Error(), err)
		out := sess.Snapshot()
		out.Notice = errorNotice(err.Error(), appErr)
		return out, appErr
	}
	sess.Profile = next

	if err := uc.storeSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// SelectImage attaches a photo to the draft; it is uploaded on save.
func (uc *ProfileUseCase) SelectImage(ctx context.Context, img PendingImage) (*Session, error) {
	sess, err := uc.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := uc.requireEditing(sess); err != nil {
		return sess.Snapshot(), err
	}
	if len(img.Data) == 0 || !strings.HasPrefix(img.ContentType, "image/") {
		appErr := apperror.NewInvalidInput("an image file is required", nil)
		out := sess.Snapshot()
		out.Notice = errorNotice("Please choose an image file", appErr)
		return out, appErr
	}

	sess.PendingImage = &img
	if err := uc.storeSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// Cancel leaves edit mode and reloads the persisted record. With no
// persisted record the session goes back to editing with the empty record.
// When the reload fails the draft stays on screen in viewing.
func (uc *ProfileUseCase) Cancel(ctx context.Context) (*Session, error) {
	sess, err := uc.session(ctx)
	if err != nil {
		return nil, err
	}
	sess.State = StateViewing
	return uc.fetch(ctx, sess)
}

// Save uploads a selected image, then writes the whole draft keyed by the
// caller's id. Any failure leaves the session in editing with the draft as is.
func (uc *ProfileUseCase) Save(ctx context.Context) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()

	userID, err := uc.currentUser(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("user_id", userID))

	sess, err := uc.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := uc.requireEditing(sess); err != nil {
		return sess.Snapshot(), err
	}

	release, ok := uc.guard.acquire(userID)
	if !ok {
		return uc.busy(sess)
	}
	defer release()

	fail := func(msg string, err error) (*Session, error) {
		span.RecordError(err)
		out := sess.Snapshot()
		out.Notice = errorNotice(msg, err)
		return out, err
	}

	if err := sess.Profile.Validate(); err != nil {
		appErr := apperror.NewInvalidInput(err.Error(), err)
		return fail(msgSaveFailed+err.Error(), appErr)
	}

	draft := sess.Profile.Clone()
	previousImageID := draft.ImagePublicID
	uploadedImageID := ""

	if sess.PendingImage != nil {
		folder := path.Join(uc.imageFolder, userID)
		publicID := uc.newImageID()
		url, hostID, err := uc.images.Upload(ctx, bytes.NewReader(sess.PendingImage.Data), folder, publicID)
		if err != nil {
			uc.logger.Error("Image upload failed", err, zap.String("user_id", userID))
			return fail(msgUploadFailed, apperror.NewUploadFailed("image host rejected the upload", err))
		}
		uploadedImageID = hostID
		draft.ImageURL = url
		draft.ImagePublicID = uploadedImageID
	}

	draft.UserID = userID
	draft.ID = userID

	if err := uc.profileRepo.Set(ctx, &draft); err != nil {
		uc.logger.Error("Failed to write labour profile", err, zap.String("user_id", userID))
		if uploadedImageID != "" {
			go func() {
				if delErr := uc.images.Delete(context.Background(), uploadedImageID); delErr != nil {
					uc.logger.Warn("Failed to remove unreferenced upload", zap.String("public_id", uploadedImageID), zap.Error(delErr))
				}
			}()
		}
		return fail(msgSaveFailed+apperror.CauseOf(err), fmt.Errorf("save profile failed: %w", err))
	}

	sess.Profile = draft
	sess.Persisted = true
	sess.PendingImage = nil
	sess.State = StateViewing
	sess.Notice = successNotice(msgSaved)

	orphaned := ""
	if uploadedImageID != "" && previousImageID != "" && previousImageID != uploadedImageID {
		orphaned = previousImageID
	}
	uc.publish(service.ProfileEvent{EventType: service.ProfileEventSaved, UserID: userID, OrphanedImageID: orphaned})

	uc.logger.Info("Labour profile saved", zap.String("user_id", userID), zap.Bool("image_replaced", uploadedImageID != ""))

	if err := uc.storeSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// Delete removes the caller's document once confirm says yes, then resets
// the session to the empty record in editing.
func (uc *ProfileUseCase) Delete(ctx context.Context, confirm Confirmer) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Delete")
	defer span.End()

	sess, err := uc.session(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	userID := sess.UserID
	span.SetAttributes(attribute.String("user_id", userID))

	if confirm == nil || !confirm(ctx) {
		return sess.Snapshot(), apperror.NewInvalidInput("profile deletion was not confirmed", nil)
	}

	release, ok := uc.guard.acquire(userID)
	if !ok {
		return uc.busy(sess)
	}
	defer release()

	imageID := sess.Profile.ImagePublicID

	if err := uc.profileRepo.Delete(ctx, userID); err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to delete labour profile", err, zap.String("user_id", userID))
		out := sess.Snapshot()
		out.Notice = errorNotice(msgDeleteFailed+apperror.CauseOf(err), err)
		return out, fmt.Errorf("delete profile failed: %w", err)
	}

	sess.Profile = labour.NewEmpty(userID)
	sess.Persisted = false
	sess.PendingImage = nil
	sess.State = StateEditing
	sess.Notice = successNotice(msgDeleted)

	uc.publish(service.ProfileEvent{EventType: service.ProfileEventDeleted, UserID: userID, OrphanedImageID: imageID})
	uc.logger.Info("Labour profile deleted", zap.String("user_id", userID))

	if err := uc.storeSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// Close ends the caller's edit session.
func (uc *ProfileUseCase) Close(ctx context.Context) error {
	userID, err := uc.currentUser(ctx)
	if err != nil {
		return err
	}
	if err := uc.sessions.Delete(ctx, userID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return apperror.NewInternal("failed to drop edit session", err)
	}
	return nil
}

func (uc *ProfileUseCase) publish(ev service.ProfileEvent) {
	if uc.events == nil {
		return
	}
	go func() {
		if err := uc.events.PublishProfileEvent(context.Background(), ev); err != nil {
			uc.logger.Error("Failed to publish profile event", err,
				zap.String("event_type", string(ev.EventType)),
				zap.String("user_id", ev.UserID),
			)
		}
	}()
}
