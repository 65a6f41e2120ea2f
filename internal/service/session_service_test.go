package service

import (
	"context"
	"sync"
	"testing"

	"github.com/u9401066/medvision-mcp/internal/apperror"
	"github.com/u9401066/medvision-mcp/internal/canvas"
	"github.com/u9401066/medvision-mcp/internal/dto"
	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/pkg/keylock"
	"github.com/u9401066/medvision-mcp/internal/repository/memory"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
	"github.com/u9401066/medvision-mcp/pkg/audit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// okTransport confirms every delivery.
type okTransport struct{}

func (okTransport) Deliver(ctx context.Context, sessionId uuid.UUID, event *entity.CanvasEvent) error {
	return nil
}

type fixture struct {
	factory     *memory.RepositoryFactory
	coordinator *canvas.Coordinator
	sessions    ISessionService
	annotations IAnnotationService
	canvasSvc   ICanvasService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	factory := memory.NewRepositoryFactory()
	locks := keylock.New()
	coordinator := canvas.NewCoordinator(okTransport{}, nopLogger{})
	publisher := audit.NoopPublisher{}

	annotations := NewAnnotationService(factory, locks, coordinator, publisher)
	return &fixture{
		factory:     factory,
		coordinator: coordinator,
		sessions:    NewSessionService(factory, locks, coordinator, nil, publisher),
		annotations: annotations,
		canvasSvc:   NewCanvasService(factory, locks, coordinator, annotations),
	}
}

func (f *fixture) openSessionWithImage(t *testing.T) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	created, err := f.sessions.Create(ctx, &dto.CreateSessionRequest{Name: "reading-room"})
	require.NoError(t, err)

	img, err := f.sessions.AddImage(ctx, &dto.AddImageRequest{
		SessionId: created.Id,
		Path:      "/data/cxr_001.png",
		Width:     512,
		Height:    512,
	})
	require.NoError(t, err)

	return created.Id, img.Id
}

func bboxPayload(coords ...float64) dto.RegionPayload {
	return dto.RegionPayload{Type: "bbox", Coordinates: coords, Frame: "pixel"}
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sessionId, imageId := f.openSessionWithImage(t)

	status, err := f.sessions.Status(ctx, sessionId)
	require.NoError(t, err)
	assert.Equal(t, "reading-room", status.Name)
	assert.False(t, status.Closed)
	require.NotNil(t, status.CurrentImageId)
	assert.Equal(t, imageId, *status.CurrentImageId)
	assert.Equal(t, int64(1), status.ImageCount)
	assert.Equal(t, "CXR", func() string {
		uow := f.factory.NewUnitOfWork(ctx)
		img, _ := uow.ImageRepository().FindOne(ctx, specification.ByID{ID: imageId})
		return string(img.Type)
	}(), "png image type auto-detected as CXR")

	require.NoError(t, f.sessions.Close(ctx, sessionId))
	require.NoError(t, f.sessions.Close(ctx, sessionId), "close is idempotent")

	// A closed session refuses new images and reads as absent to the caller.
	_, err = f.sessions.AddImage(ctx, &dto.AddImageRequest{
		SessionId: sessionId, Path: "/data/x.png", Width: 10, Height: 10,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestStatusUnknownSessionIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.sessions.Status(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestAnnotationRejectsForeignImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sessionA, _ := f.openSessionWithImage(t)
	_, imageB := f.openSessionWithImage(t)

	_, err := f.annotations.Create(ctx, &dto.CreateAnnotationRequest{
		SessionId: sessionA,
		ImageId:   imageB,
		Region:    bboxPayload(0, 0, 10, 10),
		Label:     "Pneumonia",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound),
		"image from another session must read as absent")
}

func TestAnnotationInvalidRegion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionId, imageId := f.openSessionWithImage(t)

	cases := []struct {
		name   string
		region dto.RegionPayload
	}{
		{"inverted bbox", bboxPayload(100, 100, 10, 10)},
		{"out of bounds", bboxPayload(0, 0, 600, 600)},
		{"bad arity", bboxPayload(1, 2, 3)},
		{"relative out of range", dto.RegionPayload{Type: "bbox", Coordinates: []float64{0, 0, 1.5, 1.0}, Frame: "relative"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.annotations.Create(ctx, &dto.CreateAnnotationRequest{
				SessionId: sessionId,
				ImageId:   imageId,
				Region:    tc.region,
				Label:     "x",
			})
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeInvalidRegion))
		})
	}
}

func TestCanvasSeqIsGaplessUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionId, imageId := f.openSessionWithImage(t)

	const writers = 24
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.annotations.Create(ctx, &dto.CreateAnnotationRequest{
				SessionId: sessionId,
				ImageId:   imageId,
				Region:    bboxPayload(0, 0, 50, 50),
				Label:     "Nodule",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	uow := f.factory.NewUnitOfWork(ctx)
	events, err := uow.CanvasEventRepository().FindAfter(ctx, sessionId, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, writers)

	seen := make(map[int64]bool)
	for _, ev := range events {
		seen[ev.Seq] = true
	}
	for seq := int64(1); seq <= int64(writers); seq++ {
		assert.True(t, seen[seq], "seq %d missing, sequence has a gap", seq)
	}
}

func TestEditSupersedeProtocol(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionId, imageId := f.openSessionWithImage(t)

	created, err := f.annotations.Create(ctx, &dto.CreateAnnotationRequest{
		SessionId: sessionId,
		ImageId:   imageId,
		Region:    bboxPayload(10, 10, 100, 100),
		Label:     "Mass",
	})
	require.NoError(t, err)

	edited, err := f.annotations.Edit(ctx, &dto.EditAnnotationRequest{
		Id: created.Id, Label: "Nodule", Note: "smaller than it looked",
	})
	require.NoError(t, err)
	assert.Equal(t, created.Id, edited.Supersedes)
	assert.NotEqual(t, created.Id, edited.Id)

	// Editing the superseded original is a lost-update attempt.
	_, err = f.annotations.Edit(ctx, &dto.EditAnnotationRequest{Id: created.Id, Label: "Effusion"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConcurrencyConflict))

	// The successor keeps the frozen geometry and source.
	list, err := f.annotations.List(ctx, sessionId, nil, true)
	require.NoError(t, err)
	require.Len(t, list.Annotations, 2)

	var successor *dto.AnnotationItem
	for i := range list.Annotations {
		if list.Annotations[i].Id == edited.Id {
			successor = &list.Annotations[i]
		}
	}
	require.NotNil(t, successor)
	assert.Equal(t, []float64{10, 10, 100, 100}, successor.Region.Coordinates)
	assert.Equal(t, "Nodule", successor.Label)

	// Default listing hides the superseded original.
	current, err := f.annotations.List(ctx, sessionId, nil, false)
	require.NoError(t, err)
	require.Len(t, current.Annotations, 1)
	assert.Equal(t, edited.Id, current.Annotations[0].Id)
}

func TestConcurrentEditsExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionId, imageId := f.openSessionWithImage(t)

	created, err := f.annotations.Create(ctx, &dto.CreateAnnotationRequest{
		SessionId: sessionId,
		ImageId:   imageId,
		Region:    bboxPayload(0, 0, 30, 30),
		Label:     "Opacity",
	})
	require.NoError(t, err)

	const editors = 16
	var wg sync.WaitGroup
	var successes, conflicts int
	var mu sync.Mutex

	for i := 0; i < editors; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.annotations.Edit(ctx, &dto.EditAnnotationRequest{Id: created.Id, Label: "Edited"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if apperror.IsCode(err, apperror.CodeConcurrencyConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one editor wins")
	assert.Equal(t, editors-1, conflicts, "everyone else sees the conflict")
}

func TestRelativeRegionRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionId, imageId := f.openSessionWithImage(t)

	coords := []float64{0.25, 0.25, 0.75, 0.75}
	created, err := f.annotations.Create(ctx, &dto.CreateAnnotationRequest{
		SessionId: sessionId,
		ImageId:   imageId,
		Region:    dto.RegionPayload{Type: "bbox", Coordinates: coords, Frame: "relative"},
		Label:     "Cardiomegaly",
	})
	require.NoError(t, err)

	list, err := f.annotations.List(ctx, sessionId, &imageId, false)
	require.NoError(t, err)
	require.Len(t, list.Annotations, 1)
	assert.Equal(t, created.Id, list.Annotations[0].Id)
	assert.Equal(t, coords, list.Annotations[0].Region.Coordinates,
		"stored coordinates must come back unrescaled")
	assert.Equal(t, "relative", list.Annotations[0].Region.Frame)
}

func TestCanvasPushAndSyncCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionId, imageId := f.openSessionWithImage(t)

	_, err := f.annotations.Create(ctx, &dto.CreateAnnotationRequest{
		SessionId: sessionId,
		ImageId:   imageId,
		Region:    bboxPayload(0, 0, 20, 20),
		Label:     "Effusion",
	})
	require.NoError(t, err)

	pushed, err := f.canvasSvc.Push(ctx, &dto.PushToCanvasRequest{
		SessionId: sessionId,
		Action:    "highlight",
		Payload:   map[string]interface{}{"layer": "effusion"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pushed.Seq, "push continues the annotation's sequence")

	// Fresh client: cursor 0 replays everything in order.
	sync0, err := f.canvasSvc.Sync(ctx, &dto.SyncCanvasStateRequest{SessionId: sessionId, Cursor: 0})
	require.NoError(t, err)
	require.Len(t, sync0.Events, 2)
	assert.Equal(t, int64(1), sync0.Events[0].Seq)
	assert.Equal(t, int64(2), sync0.Events[1].Seq)
	assert.Equal(t, int64(2), sync0.Cursor)

	// Resumed client: nothing past its cursor, nothing redelivered.
	sync2, err := f.canvasSvc.Sync(ctx, &dto.SyncCanvasStateRequest{SessionId: sessionId, Cursor: sync0.Cursor})
	require.NoError(t, err)
	assert.Empty(t, sync2.Events)
	assert.Equal(t, sync0.Cursor, sync2.Cursor)
}

func TestSyncRecordsUserDrawings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionId, _ := f.openSessionWithImage(t)

	res, err := f.canvasSvc.Sync(ctx, &dto.SyncCanvasStateRequest{
		SessionId: sessionId,
		Cursor:    0,
		Drawings: []dto.UserDrawing{
			{Region: bboxPayload(5, 5, 60, 60), Label: "suspicious area"},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.AnnotationIds, 1)

	list, err := f.annotations.List(ctx, sessionId, nil, false)
	require.NoError(t, err)
	require.Len(t, list.Annotations, 1)
	assert.Equal(t, "user", list.Annotations[0].Source)
	assert.Equal(t, "suspicious area", list.Annotations[0].Label)
}
