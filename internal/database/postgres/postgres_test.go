//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/kozaktomas/barface/internal/config"
	"github.com/kozaktomas/barface/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil || container == nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg, quietLogger())
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return pool, func() {
		pool.Close()
		container.Terminate(ctx)
	}
}

func embedding(hot int) []float32 {
	v := make([]float32, database.FaceEmbeddingDim)
	v[hot] = 1
	return v
}

func TestFaceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewFaceRepository(pool)

	t.Run("CreateCollection", func(t *testing.T) {
		if err := repo.CreateCollection(ctx, "bar"); err != nil {
			t.Fatalf("CreateCollection failed: %v", err)
		}
		err := repo.CreateCollection(ctx, "bar")
		if !errors.Is(err, database.ErrCollectionExists) {
			t.Errorf("expected ErrCollectionExists, got %v", err)
		}
		exists, err := repo.HasCollection(ctx, "bar")
		if err != nil || !exists {
			t.Errorf("expected collection to exist, got %v (err %v)", exists, err)
		}
	})

	t.Run("SaveFaceUnknownCollection", func(t *testing.T) {
		face := &database.StoredFace{FaceID: "ghost", CollectionID: "missing", Embedding: embedding(0), Dim: 512}
		err := repo.SaveFace(ctx, face)
		if !errors.Is(err, database.ErrCollectionNotFound) {
			t.Errorf("expected ErrCollectionNotFound, got %v", err)
		}
	})

	t.Run("SaveAndFindPostgres", func(t *testing.T) {
		face := &database.StoredFace{
			FaceID:       "face-1",
			CollectionID: "bar",
			Embedding:    embedding(1),
			BBox:         []float64{10, 20, 110, 140},
			DetScore:     0.98,
			Model:        "buffalo_l",
			Dim:          512,
		}
		if err := repo.SaveFace(ctx, face); err != nil {
			t.Fatalf("SaveFace failed: %v", err)
		}
		if face.ID == 0 {
			t.Error("expected database ID to be set")
		}

		faces, distances, err := repo.FindSimilarWithDistance(ctx, "bar", embedding(1), 1, 0.5)
		if err != nil {
			t.Fatalf("FindSimilarWithDistance failed: %v", err)
		}
		if len(faces) != 1 || faces[0].FaceID != "face-1" {
			t.Fatalf("expected face-1, got %+v", faces)
		}
		if distances[0] > 1e-6 {
			t.Errorf("expected distance ~0, got %f", distances[0])
		}
		if len(faces[0].BBox) != 4 || faces[0].Model != "buffalo_l" {
			t.Errorf("unexpected face fields: %+v", faces[0])
		}

		faces, _, err = repo.FindSimilarWithDistance(ctx, "bar", embedding(2), 1, 0.5)
		if err != nil {
			t.Fatalf("FindSimilarWithDistance failed: %v", err)
		}
		if len(faces) != 0 {
			t.Errorf("expected no match for orthogonal embedding, got %d", len(faces))
		}
	})

	t.Run("HNSW", func(t *testing.T) {
		indexPath := filepath.Join(t.TempDir(), "faces.hnsw")
		if err := repo.EnableHNSW(ctx, indexPath); err != nil {
			t.Fatalf("EnableHNSW failed: %v", err)
		}
		if repo.HNSWCount() != 1 {
			t.Errorf("expected 1 face in index, got %d", repo.HNSWCount())
		}

		face := &database.StoredFace{FaceID: "face-2", CollectionID: "bar", Embedding: embedding(3), Dim: 512}
		if err := repo.SaveFace(ctx, face); err != nil {
			t.Fatalf("SaveFace failed: %v", err)
		}
		if repo.HNSWCount() != 2 {
			t.Errorf("expected 2 faces in index, got %d", repo.HNSWCount())
		}

		faces, _, err := repo.FindSimilarWithDistance(ctx, "bar", embedding(3), 1, 0.5)
		if err != nil {
			t.Fatalf("FindSimilarWithDistance failed: %v", err)
		}
		if len(faces) != 1 || faces[0].FaceID != "face-2" {
			t.Errorf("expected face-2, got %+v", faces)
		}

		if err := repo.SaveHNSWIndex(); err != nil {
			t.Fatalf("SaveHNSWIndex failed: %v", err)
		}
		reloaded := NewFaceRepository(pool)
		if err := reloaded.EnableHNSW(ctx, indexPath); err != nil {
			t.Fatalf("EnableHNSW from disk failed: %v", err)
		}
		if reloaded.HNSWCount() != 2 {
			t.Errorf("expected 2 faces after reload, got %d", reloaded.HNSWCount())
		}

		repo.DisableHNSW()
		if repo.IsHNSWEnabled() {
			t.Fatal("expected HNSW to be disabled")
		}
		faces, _, err = repo.FindSimilarWithDistance(ctx, "bar", embedding(3), 1, 0.5)
		if err != nil {
			t.Fatalf("FindSimilarWithDistance without HNSW failed: %v", err)
		}
		if len(faces) != 1 || faces[0].FaceID != "face-2" {
			t.Errorf("expected face-2 from PostgreSQL search, got %+v", faces)
		}
	})

	t.Run("Count", func(t *testing.T) {
		count, err := repo.Count(ctx, "bar")
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 faces, got %d", count)
		}
	})
}

func TestProfileRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewProfileRepository(pool)

	t.Run("Missing", func(t *testing.T) {
		got, err := repo.GetProfile(ctx, "nobody")
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil profile, got %+v", got)
		}
	})

	t.Run("PutAndGet", func(t *testing.T) {
		profile := &database.Profile{
			FaceID: "face-1",
			Name:   "Jimmy",
			FaceDetail: database.FaceDetail{
				Gender: database.Attribute{Value: database.GenderMale, Confidence: 99.1},
				Smile:  database.BoolAttribute{Value: true, Confidence: 87},
			},
			FavDrinks: []string{"Beer", "Mojito"},
		}
		if err := repo.PutProfile(ctx, profile); err != nil {
			t.Fatalf("PutProfile failed: %v", err)
		}

		got, err := repo.GetProfile(ctx, "face-1")
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected profile, got nil")
		}
		if got.Name != "Jimmy" || got.FaceDetail.Gender.Value != database.GenderMale || !got.FaceDetail.Smile.Value {
			t.Errorf("unexpected profile: %+v", got)
		}
		if got.LastDrink() != "Mojito" {
			t.Errorf("expected last drink 'Mojito', got %q", got.LastDrink())
		}
	})

	t.Run("NoDrinks", func(t *testing.T) {
		if err := repo.PutProfile(ctx, &database.Profile{FaceID: "face-2", Name: "Anna"}); err != nil {
			t.Fatalf("PutProfile failed: %v", err)
		}
		got, err := repo.GetProfile(ctx, "face-2")
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if len(got.FavDrinks) != 0 {
			t.Errorf("expected no drinks, got %v", got.FavDrinks)
		}
	})

	t.Run("Count", func(t *testing.T) {
		count, err := repo.CountProfiles(ctx)
		if err != nil {
			t.Fatalf("CountProfiles failed: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 profiles, got %d", count)
		}
	})
}

func TestMigrations(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	versions, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("MigrationsApplied failed: %v", err)
	}
	if len(versions) == 0 || versions[0] != "001_init.sql" {
		t.Errorf("expected 001_init.sql to be applied, got %v", versions)
	}

	// Second run is a no-op.
	if err := pool.Migrate(ctx); err != nil {
		t.Errorf("second Migrate failed: %v", err)
	}
}
