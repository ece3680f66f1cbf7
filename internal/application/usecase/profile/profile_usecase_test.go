package profile

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/labour-connect/internal/application/service"
	"github.com/khoahotran/labour-connect/internal/domain/labour"
	"github.com/khoahotran/labour-connect/pkg/apperror"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

// --- fakes ---

type fakeIdentity struct{ userID string }

func (f fakeIdentity) CurrentUser(context.Context) (string, bool) {
	return f.userID, f.userID != ""
}

type fakeRepo struct {
	mu      sync.Mutex
	docs    map[string]labour.Document
	getErr  error
	setErr  error
	delErr  error
	setCall int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: map[string]labour.Document{}}
}

func (r *fakeRepo) Get(_ context.Context, userID string) (*labour.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	doc, ok := r.docs[userID]
	if !ok {
		return nil, labour.ErrProfileNotFound
	}
	p := doc.Profile(userID)
	return &p, nil
}

func (r *fakeRepo) Set(_ context.Context, p *labour.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setCall++
	if r.setErr != nil {
		return r.setErr
	}
	r.docs[p.UserID] = labour.NewDocument(*p)
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.delErr != nil {
		return r.delErr
	}
	delete(r.docs, userID)
	return nil
}

type mockImageHost struct {
	mock.Mock
}

func (m *mockImageHost) Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, string, error) {
	args := m.Called(ctx, file, folder, publicID)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockImageHost) Delete(ctx context.Context, publicID string) error {
	return m.Called(ctx, publicID).Error(0)
}

type memSessions struct {
	mu    sync.Mutex
	items map[string]*Session
}

func newMemSessions() *memSessions {
	return &memSessions{items: map[string]*Session{}}
}

func (m *memSessions) Get(_ context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Snapshot(), nil
}

func (m *memSessions) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.UserID] = s.Snapshot()
	return nil
}

func (m *memSessions) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, userID)
	return nil
}

type chanPublisher struct {
	events chan service.ProfileEvent
}

func (p *chanPublisher) PublishProfileEvent(_ context.Context, ev service.ProfileEvent) error {
	p.events <- ev
	return nil
}

func (p *chanPublisher) next(t *testing.T) service.ProfileEvent {
	t.Helper()
	select {
	case ev := <-p.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no profile event published")
	}
	return service.ProfileEvent{}
}

type fixture struct {
	uc       *ProfileUseCase
	repo     *fakeRepo
	images   *mockImageHost
	sessions *memSessions
	events   *chanPublisher
	ctx      context.Context
}

const uid = "user-123"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newFakeRepo(),
		images:   new(mockImageHost),
		sessions: newMemSessions(),
		events:   &chanPublisher{events: make(chan service.ProfileEvent, 8)},
		ctx:      context.Background(),
	}
	f.uc = NewProfileUseCase(fakeIdentity{userID: uid}, f.repo, f.images, f.sessions, f.events, "labour-profiles", logger.Nop())
	f.uc.newImageID = func() string { return "img-1" }
	return f
}

func fillDraft(t *testing.T, f *fixture) {
	t.Helper()
	_, err := f.uc.Apply(f.ctx,
		labour.SetName("Rajesh Kumar"),
		labour.SetContact("9876543210"),
		labour.SetCharges(500),
		labour.SetLocation("Delhi"),
		labour.AddSkill("Plumbing"),
		labour.ToggleAvailability(labour.Monday),
		labour.ToggleAvailability(labour.Wednesday),
	)
	require.NoError(t, err)
}

// --- tests ---

func TestOpen_NoDocumentStartsEditingWithEmptyRecord(t *testing.T) {
	f := newFixture(t)

	sess, err := f.uc.Open(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, StateEditing, sess.State)
	assert.False(t, sess.Persisted)
	assert.Equal(t, labour.NewEmpty(uid), sess.Profile)
	assert.Zero(t, sess.Profile.Charges)
}

func TestOpen_ExistingDocumentStartsViewing(t *testing.T) {
	f := newFixture(t)
	f.repo.docs[uid] = labour.NewDocument(labour.Profile{Name: "Asha", Contact: "1", Location: "Pune", UserID: uid})

	sess, err := f.uc.Open(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, StateViewing, sess.State)
	assert.True(t, sess.Persisted)
	assert.Equal(t, "Asha", sess.Profile.Name)
}

func TestOpen_BackfillsMissingAvailability(t *testing.T) {
	f := newFixture(t)
	f.repo.docs[uid] = labour.Document{Name: "Old", Contact: "1", Location: "X", UserID: uid}

	sess, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, labour.Availability{}, sess.Profile.Availability)
	assert.Len(t, sess.Profile.Availability.Days(), 7)
}

func TestOpen_FetchFailureKeepsEmptyRecord(t *testing.T) {
	f := newFixture(t)
	f.repo.getErr = apperror.NewPersistence("get", errors.New("unavailable"))

	sess, err := f.uc.Open(f.ctx)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, apperror.ToHTTPStatus(err))
	require.NotNil(t, sess.Notice)
	assert.Equal(t, NoticeError, sess.Notice.Level)
	assert.Equal(t, "Error fetching profile data", sess.Notice.Message)
	assert.Equal(t, labour.NewEmpty(uid), sess.Profile)
}

func TestOpen_RequiresIdentity(t *testing.T) {
	f := newFixture(t)
	f.uc.identity = fakeIdentity{}

	_, err := f.uc.Open(f.ctx)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestScenario_FirstProfileSave(t *testing.T) {
	f := newFixture(t)

	sess, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	require.Equal(t, StateEditing, sess.State)

	fillDraft(t, f)
	assert.Equal(t, 0, f.repo.setCall, "edits must not persist before submit")

	sess, err = f.uc.Save(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, StateViewing, sess.State)
	require.NotNil(t, sess.Notice)
	assert.Equal(t, "Profile updated successfully!", sess.Notice.Message)

	stored, err := f.repo.Get(f.ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "Rajesh Kumar", stored.Name)
	assert.Equal(t, "9876543210", stored.Contact)
	assert.Equal(t, 500.0, stored.Charges)
	assert.Equal(t, "Delhi", stored.Location)
	assert.Equal(t, labour.Skills{"Plumbing"}, stored.Skills)
	assert.Equal(t, labour.Availability{Monday: true, Wednesday: true}, stored.Availability)
	assert.Equal(t, "", stored.ImageURL)
	assert.Equal(t, uid, stored.UserID)

	ev := f.events.next(t)
	assert.Equal(t, service.ProfileEventSaved, ev.EventType)
	assert.Empty(t, ev.OrphanedImageID)
	f.images.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSave_OverwritesStaleUserID(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	fillDraft(t, f)

	sess, err := f.sessions.Get(f.ctx, uid)
	require.NoError(t, err)
	sess.Profile.UserID = "someone-else"
	require.NoError(t, f.sessions.Put(f.ctx, sess))

	_, err = f.uc.Save(f.ctx)
	require.NoError(t, err)

	refetched, err := f.uc.Fetch(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uid, refetched.Profile.UserID)
	assert.Equal(t, "Rajesh Kumar", refetched.Profile.Name)
	_, stale := f.repo.docs["someone-else"]
	assert.False(t, stale)
}

func TestSave_WithImageUploadsFirst(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	fillDraft(t, f)

	_, err = f.uc.SelectImage(f.ctx, PendingImage{Filename: "me.png", ContentType: "image/png", Data: []byte{1, 2, 3}})
	require.NoError(t, err)

	f.images.On("Upload", mock.Anything, mock.Anything, "labour-profiles/"+uid, "img-1").
		Return("https://res.cloudinary.com/demo/me.png", "labour-profiles/"+uid+"/img-1", nil).Once()

	sess, err := f.uc.Save(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/me.png", sess.Profile.ImageURL)
	assert.Nil(t, sess.PendingImage)

	stored, _ := f.repo.Get(f.ctx, uid)
	assert.Equal(t, "https://res.cloudinary.com/demo/me.png", stored.ImageURL)
	assert.Equal(t, "labour-profiles/"+uid+"/img-1", stored.ImagePublicID)
	f.images.AssertExpectations(t)
}

func TestSave_ReplacingImagePublishesOrphan(t *testing.T) {
	f := newFixture(t)
	f.repo.docs[uid] = labour.NewDocument(labour.Profile{
		Name: "A", Contact: "1", Location: "L", UserID: uid,
		ImageURL: "https://old", ImagePublicID: "labour-profiles/" + uid + "/old",
	})
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	_, err = f.uc.Edit(f.ctx)
	require.NoError(t, err)
	_, err = f.uc.SelectImage(f.ctx, PendingImage{ContentType: "image/jpeg", Data: []byte{9}})
	require.NoError(t, err)

	f.images.On("Upload", mock.Anything, mock.Anything, mock.Anything, "img-1").Return("https://new", "labour-profiles/"+uid+"/img-1", nil).Once()

	_, err = f.uc.Save(f.ctx)
	require.NoError(t, err)

	ev := f.events.next(t)
	assert.Equal(t, "labour-profiles/"+uid+"/old", ev.OrphanedImageID)
}

func TestSave_StoresHostAssignedImageID(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	fillDraft(t, f)

	// the upload preset moves assets into its own folder
	_, err = f.uc.SelectImage(f.ctx, PendingImage{ContentType: "image/png", Data: []byte{1}})
	require.NoError(t, err)
	f.images.On("Upload", mock.Anything, mock.Anything, "labour-profiles/"+uid, "img-1").
		Return("https://res.cloudinary.com/demo/presets/x/first.png", "presets/x/first", nil).Once()

	sess, err := f.uc.Save(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "presets/x/first", sess.Profile.ImagePublicID)
	stored, _ := f.repo.Get(f.ctx, uid)
	assert.Equal(t, "presets/x/first", stored.ImagePublicID)
	assert.Empty(t, f.events.next(t).OrphanedImageID)

	_, err = f.uc.Edit(f.ctx)
	require.NoError(t, err)
	_, err = f.uc.SelectImage(f.ctx, PendingImage{ContentType: "image/png", Data: []byte{2}})
	require.NoError(t, err)
	f.uc.newImageID = func() string { return "img-2" }
	f.images.On("Upload", mock.Anything, mock.Anything, "labour-profiles/"+uid, "img-2").
		Return("https://res.cloudinary.com/demo/presets/x/second.png", "presets/x/second", nil).Once()

	_, err = f.uc.Save(f.ctx)
	require.NoError(t, err)
	stored, _ = f.repo.Get(f.ctx, uid)
	assert.Equal(t, "presets/x/second", stored.ImagePublicID)
	assert.Equal(t, "presets/x/first", f.events.next(t).OrphanedImageID)
	f.images.AssertExpectations(t)
}

func TestSave_UploadFailureAbortsWithoutWrite(t *testing.T) {
	f := newFixture(t)
	f.repo.docs[uid] = labour.NewDocument(labour.Profile{Name: "A", Contact: "1", Location: "L", UserID: uid, ImageURL: "https://keep"})
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	_, err = f.uc.Edit(f.ctx)
	require.NoError(t, err)
	_, err = f.uc.Apply(f.ctx, labour.SetName("B"))
	require.NoError(t, err)
	_, err = f.uc.SelectImage(f.ctx, PendingImage{ContentType: "image/png", Data: []byte{1}})
	require.NoError(t, err)

	f.images.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", "", errors.New("413")).Once()

	sess, err := f.uc.Save(f.ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrUpload)
	assert.Equal(t, StateEditing, sess.State)
	assert.Equal(t, "B", sess.Profile.Name)
	assert.Equal(t, "https://keep", sess.Profile.ImageURL)
	assert.NotNil(t, sess.PendingImage)
	assert.Equal(t, "Failed to upload image. Please try again.", sess.Notice.Message)

	assert.Equal(t, 0, f.repo.setCall)
	stored, _ := f.repo.Get(f.ctx, uid)
	assert.Equal(t, "A", stored.Name)
	assert.Equal(t, "https://keep", stored.ImageURL)
}

func TestSave_WriteFailureKeepsDraftAndRemovesUpload(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	fillDraft(t, f)
	_, err = f.uc.SelectImage(f.ctx, PendingImage{ContentType: "image/png", Data: []byte{1}})
	require.NoError(t, err)

	deleted := make(chan string, 1)
	f.images.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("https://new", "labour-profiles/"+uid+"/img-1", nil).Once()
	f.images.On("Delete", mock.Anything, "labour-profiles/"+uid+"/img-1").
		Run(func(args mock.Arguments) { deleted <- args.String(1) }).Return(nil).Once()
	f.repo.setErr = apperror.NewPersistence("set", errors.New("quota exceeded"))

	sess, err := f.uc.Save(f.ctx)
	require.Error(t, err)
	assert.Equal(t, StateEditing, sess.State)
	assert.Equal(t, "Error updating profile: quota exceeded", sess.Notice.Message)
	assert.Equal(t, "", sess.Profile.ImageURL)

	select {
	case <-deleted:
	case <-time.After(2 * time.Second):
		t.Fatal("orphaned upload was not removed")
	}
}

func TestSave_RequiresFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	_, err = f.uc.Apply(f.ctx, labour.SetName("Only Name"))
	require.NoError(t, err)

	sess, err := f.uc.Save(f.ctx)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, StateEditing, sess.State)
	assert.Equal(t, 0, f.repo.setCall)
}

func TestSave_RequiresIdentity(t *testing.T) {
	f := newFixture(t)
	f.uc.identity = fakeIdentity{}

	_, err := f.uc.Save(f.ctx)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, 0, f.repo.setCall)
}

func TestApply_RejectedWhileViewing(t *testing.T) {
	f := newFixture(t)
	f.repo.docs[uid] = labour.NewDocument(labour.Profile{Name: "A", Contact: "1", Location: "L", UserID: uid})
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)

	sess, err := f.uc.Apply(f.ctx, labour.SetName("B"))
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, "A", sess.Profile.Name)
}

func TestApply_InvalidActionLeavesDraft(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)

	sess, err := f.uc.Apply(f.ctx, labour.SetName("X"), labour.SetCharges(-3))
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, "", sess.Profile.Name)
}

func TestSelectImage_RejectsNonImage(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)

	_, err = f.uc.SelectImage(f.ctx, PendingImage{ContentType: "application/pdf", Data: []byte{1}})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestCancel_DiscardsEdits(t *testing.T) {
	f := newFixture(t)
	f.repo.docs[uid] = labour.NewDocument(labour.Profile{Name: "A", Contact: "1", Location: "L", UserID: uid})
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	_, err = f.uc.Edit(f.ctx)
	require.NoError(t, err)
	_, err = f.uc.Apply(f.ctx, labour.SetName("Changed"), labour.AddSkill("Welding"))
	require.NoError(t, err)

	sess, err := f.uc.Cancel(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, StateViewing, sess.State)
	assert.Equal(t, "A", sess.Profile.Name)
	assert.Empty(t, sess.Profile.Skills)
}

func TestCancel_WithoutDocumentStaysEditing(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	_, err = f.uc.Apply(f.ctx, labour.SetName("Draft"))
	require.NoError(t, err)

	sess, err := f.uc.Cancel(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, StateEditing, sess.State)
	assert.Equal(t, labour.NewEmpty(uid), sess.Profile)
}

func TestCancel_FetchFailureShowsDraftInViewing(t *testing.T) {
	f := newFixture(t)
	f.repo.docs[uid] = labour.NewDocument(labour.Profile{Name: "A", Contact: "1", Location: "L", UserID: uid})
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	_, err = f.uc.Edit(f.ctx)
	require.NoError(t, err)
	_, err = f.uc.Apply(f.ctx, labour.SetName("B"))
	require.NoError(t, err)

	f.repo.getErr = apperror.NewPersistence("get", errors.New("unavailable"))
	sess, err := f.uc.Cancel(f.ctx)
	require.Error(t, err)
	assert.Equal(t, StateViewing, sess.State)
	assert.Equal(t, "B", sess.Profile.Name)
	require.NotNil(t, sess.Notice)
	assert.Equal(t, "Error fetching profile data", sess.Notice.Message)

	f.repo.getErr = nil
	stored, err := f.sessions.Get(f.ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, StateViewing, stored.State)
}

func TestDelete_ThenFetchReturnsEmptyEditing(t *testing.T) {
	f := newFixture(t)
	f.repo.docs[uid] = labour.NewDocument(labour.Profile{
		Name: "A", Contact: "1", Location: "L", UserID: uid, ImagePublicID: "labour-profiles/" + uid + "/p",
	})
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)

	sess, err := f.uc.Delete(f.ctx, Confirmed(true))
	require.NoError(t, err)
	assert.Equal(t, StateEditing, sess.State)
	assert.Equal(t, labour.NewEmpty(uid), sess.Profile)
	assert.Equal(t, "Profile deleted successfully!", sess.Notice.Message)

	ev := f.events.next(t)
	assert.Equal(t, service.ProfileEventDeleted, ev.EventType)
	assert.Equal(t, "labour-profiles/"+uid+"/p", ev.OrphanedImageID)

	sess, err = f.uc.Fetch(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, StateEditing, sess.State)
	assert.False(t, sess.Persisted)
	assert.Equal(t, uid, sess.Profile.UserID)
}

func TestDelete_DeclinedChangesNothing(t *testing.T) {
	f := newFixture(t)
	f.repo.docs[uid] = labour.NewDocument(labour.Profile{Name: "A", Contact: "1", Location: "L", UserID: uid})
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)

	sess, err := f.uc.Delete(f.ctx, Confirmed(false))
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, StateViewing, sess.State)
	_, stillThere := f.repo.docs[uid]
	assert.True(t, stillThere)
}

func TestDelete_FailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	f.repo.docs[uid] = labour.NewDocument(labour.Profile{Name: "A", Contact: "1", Location: "L", UserID: uid})
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	f.repo.delErr = apperror.NewPersistence("delete", errors.New("permission-denied"))

	sess, err := f.uc.Delete(f.ctx, Confirmed(true))
	require.Error(t, err)
	assert.Equal(t, StateViewing, sess.State)
	assert.Equal(t, "A", sess.Profile.Name)
	assert.Equal(t, "Error deleting profile: permission-denied", sess.Notice.Message)
}

func TestGuard_RejectsConcurrentOperation(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)
	fillDraft(t, f)

	release, ok := f.uc.guard.acquire(uid)
	require.True(t, ok)

	sess, err := f.uc.Save(f.ctx)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, StateEditing, sess.State)

	release()
	_, err = f.uc.Save(f.ctx)
	assert.NoError(t, err)
}

func TestClose_DropsSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Open(f.ctx)
	require.NoError(t, err)

	require.NoError(t, f.uc.Close(f.ctx))
	_, err = f.sessions.Get(f.ctx, uid)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
