package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
	"github.com/u9401066/medvision-mcp/internal/repository/unitofwork"
	"github.com/u9401066/medvision-mcp/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.SessionRepository())
	assert.NotNil(t, uow.ReferenceCaseRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Session Repository", func(t *testing.T) {
		count, err := uow.SessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Session count: %d", count)
	})

	t.Run("Check Transactional Annotation Write", func(t *testing.T) {
		ctx := context.Background()

		session := &entity.Session{
			Id:   uuid.New(),
			Name: "integration-" + uuid.New().String(),
		}
		require.NoError(t, uow.SessionRepository().Create(ctx, session))

		image := &entity.Image{
			Id:        uuid.New(),
			SessionId: session.Id,
			Path:      "/data/integration_cxr.png",
			Type:      entity.ImageTypeCXR,
			Width:     512,
			Height:    512,
		}
		require.NoError(t, uow.ImageRepository().Create(ctx, image))

		// Transaction Test: annotation and its canvas event land together.
		txUow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, txUow.Begin(ctx))
		defer txUow.Rollback()

		annotation := &entity.Annotation{
			Id:        uuid.New(),
			SessionId: session.Id,
			ImageId:   image.Id,
			Region: entity.Region{
				Type:        entity.RegionBBox,
				Coordinates: []float64{10, 10, 100, 100},
				Frame:       entity.FramePixel,
			},
			Label:   "Nodule",
			Source:  entity.SourceUser,
			Visible: true,
		}
		require.NoError(t, txUow.AnnotationRepository().Create(ctx, annotation))

		maxSeq, err := txUow.CanvasEventRepository().MaxSeq(ctx, session.Id)
		require.NoError(t, err)

		event := &entity.CanvasEvent{
			Id:        uuid.New(),
			SessionId: session.Id,
			Seq:       maxSeq + 1,
			Action:    entity.ActionAddLayer,
			Payload:   map[string]interface{}{"annotation_id": annotation.Id.String()},
		}
		require.NoError(t, txUow.CanvasEventRepository().Create(ctx, event))
		require.NoError(t, txUow.Commit())

		// Read back outside the transaction.
		stored, err := uow.AnnotationRepository().FindOne(ctx, specification.ByID{ID: annotation.Id})
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, []float64{10, 10, 100, 100}, stored.Region.Coordinates)

		events, err := uow.CanvasEventRepository().FindAfter(ctx, session.Id, maxSeq, 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, maxSeq+1, events[0].Seq)

		// Annotations come back in insertion order regardless of how
		// Postgres happens to lay the rows out.
		var created []uuid.UUID
		created = append(created, annotation.Id)
		for i := 0; i < 4; i++ {
			next := &entity.Annotation{
				Id:        uuid.New(),
				SessionId: session.Id,
				ImageId:   image.Id,
				Region: entity.Region{
					Type:        entity.RegionBBox,
					Coordinates: []float64{float64(i), 0, float64(i + 20), 20},
					Frame:       entity.FramePixel,
				},
				Label:   "Opacity",
				Source:  entity.SourceUser,
				Visible: true,
			}
			require.NoError(t, uow.AnnotationRepository().Create(ctx, next))
			created = append(created, next.Id)
		}

		listed, err := uow.AnnotationRepository().FindAll(ctx,
			specification.BySessionID{SessionID: session.Id},
			specification.OrderBy{Field: "created_at"},
			specification.OrderBy{Field: "id"},
		)
		require.NoError(t, err)
		require.Len(t, listed, len(created))
		for i := 1; i < len(listed); i++ {
			assert.False(t, listed[i].CreatedAt.Before(listed[i-1].CreatedAt),
				"created_at must be non-decreasing")
		}
		// Timestamps are distinct in practice (writes are sequential here),
		// so insertion order is fully reproduced.
		for i, id := range created {
			assert.Equal(t, id, listed[i].Id)
		}

		// Close rather than delete; rows are cheap and the history stays
		// inspectable after a failed run.
		session.Closed = true
		assert.NoError(t, uow.SessionRepository().Update(ctx, session))
	})
}
