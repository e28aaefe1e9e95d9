package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/kozaktomas/barface/internal/database"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
)

// Postgres SQLSTATE for foreign_key_violation.
const errCodeForeignKeyViolation = "23503"

const faceColumns = `id, face_id, collection_id, embedding, bbox, det_score, model, dim, created_at`

// FaceRepository provides PostgreSQL-backed face collections with optional in-memory HNSW index.
type FaceRepository struct {
	pool          *Pool
	hnswIndex     *database.HNSWIndex
	hnswEnabled   bool
	hnswIndexPath string // Path to persist HNSW index (optional)
	hnswMu        sync.RWMutex
}

// NewFaceRepository creates a new PostgreSQL face repository.
func NewFaceRepository(pool *Pool) *FaceRepository {
	return &FaceRepository{pool: pool}
}

// CreateCollection creates an empty collection.
// Returns database.ErrCollectionExists if the collection is already present.
func (r *FaceRepository) CreateCollection(ctx context.Context, collectionID string) error {
	result, err := r.pool.Exec(ctx,
		"INSERT INTO collections (id) VALUES ($1) ON CONFLICT (id) DO NOTHING", collectionID)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	if n == 0 {
		return database.ErrCollectionExists
	}
	return nil
}

// HasCollection checks if a collection exists.
func (r *FaceRepository) HasCollection(ctx context.Context, collectionID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM collections WHERE id = $1)", collectionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check collection: %w", err)
	}
	return exists, nil
}

// Count returns the number of faces enrolled in a collection.
func (r *FaceRepository) Count(ctx context.Context, collectionID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM faces WHERE collection_id = $1", collectionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count faces: %w", err)
	}
	return count, nil
}

// SaveFace enrolls a face into its collection and adds it to the HNSW index when enabled.
func (r *FaceRepository) SaveFace(ctx context.Context, face *database.StoredFace) error {
	var model sql.NullString
	if face.Model != "" {
		model = sql.NullString{String: face.Model, Valid: true}
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO faces (face_id, collection_id, embedding, bbox, det_score, model, dim)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, face.FaceID, face.CollectionID, pgvector.NewVector(face.Embedding),
		pq.Float64Array(face.BBox), face.DetScore, model, face.Dim,
	).Scan(&face.ID, &face.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == errCodeForeignKeyViolation {
			return fmt.Errorf("%w: %s", database.ErrCollectionNotFound, face.CollectionID)
		}
		return fmt.Errorf("insert face: %w", err)
	}

	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	if r.hnswEnabled && r.hnswIndex != nil {
		stored := *face
		r.hnswIndex.Add(&stored)
	}
	return nil
}

// FindSimilarWithDistance finds faces of a collection closer than maxDistance, nearest first.
func (r *FaceRepository) FindSimilarWithDistance(
	ctx context.Context, collectionID string, embedding []float32, limit int, maxDistance float64,
) ([]database.StoredFace, []float64, error) {
	if r.IsHNSWEnabled() {
		return r.findSimilarWithDistanceHNSW(collectionID, embedding, limit, maxDistance)
	}
	return r.findSimilarWithDistancePostgres(ctx, collectionID, embedding, limit, maxDistance)
}

// findSimilarWithDistanceHNSW uses the in-memory HNSW index for similarity search.
func (r *FaceRepository) findSimilarWithDistanceHNSW(
	collectionID string, embedding []float32, limit int, maxDistance float64,
) ([]database.StoredFace, []float64, error) {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()

	if r.hnswIndex == nil {
		return nil, nil, errors.New("HNSW index not initialized")
	}
	if r.hnswIndex.IsEmpty() {
		return nil, nil, nil
	}

	// Request more candidates to ensure we have enough after distance filtering.
	searchK := max(limit*database.HNSWSearchMultiplier, database.HNSWEfSearch)

	candidates, distances, err := r.hnswIndex.Search(collectionID, embedding, searchK)
	if err != nil {
		return nil, nil, fmt.Errorf("HNSW search: %w", err)
	}

	results := make([]database.StoredFace, 0, limit)
	distancesOut := make([]float64, 0, limit)
	for i := range candidates {
		if distances[i] >= maxDistance {
			continue
		}
		results = append(results, candidates[i])
		distancesOut = append(distancesOut, distances[i])
		if len(results) >= limit {
			break
		}
	}
	return results, distancesOut, nil
}

// findSimilarWithDistancePostgres uses pgvector for similarity search with ef_search optimization.
func (r *FaceRepository) findSimilarWithDistancePostgres(
	ctx context.Context, collectionID string, embedding []float32, limit int, maxDistance float64,
) ([]database.StoredFace, []float64, error) {
	tx, err := r.pool.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only transaction

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", database.HNSWEfSearch)); err != nil {
		return nil, nil, fmt.Errorf("set ef_search: %w", err)
	}

	query := `
		SELECT ` + faceColumns + `,
		       embedding <=> $1::vector AS distance
		FROM faces
		WHERE collection_id = $2 AND embedding <=> $1::vector < $3
		ORDER BY distance
		LIMIT $4
	`

	rows, err := tx.QueryContext(ctx, query, pgvector.NewVector(embedding), collectionID, maxDistance, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("query similar faces: %w", err)
	}
	defer rows.Close()

	var faces []database.StoredFace
	var distances []float64
	for rows.Next() {
		var dist float64
		face, err := scanFaceRow(rows, &dist)
		if err != nil {
			return nil, nil, err
		}
		faces = append(faces, face)
		distances = append(distances, dist)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate faces: %w", err)
	}
	return faces, distances, nil
}

// scanFaceRow scans a single row into a StoredFace, with optional extra scan destinations
// appended after the face columns (e.g., a distance column).
func scanFaceRow(scanner interface{ Scan(...any) error }, extraDest ...any) (database.StoredFace, error) {
	var face database.StoredFace
	var vec pgvector.Vector
	var bbox pq.Float64Array
	var model sql.NullString

	dest := append([]any{
		&face.ID,
		&face.FaceID,
		&face.CollectionID,
		&vec,
		&bbox,
		&face.DetScore,
		&model,
		&face.Dim,
		&face.CreatedAt,
	}, extraDest...)

	if err := scanner.Scan(dest...); err != nil {
		return face, fmt.Errorf("scan face: %w", err)
	}

	face.Embedding = vec.Slice()
	face.BBox = []float64(bbox)
	face.Model = model.String
	return face, nil
}

// GetAllFaces retrieves the faces of every collection.
func (r *FaceRepository) GetAllFaces(ctx context.Context) ([]database.StoredFace, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+faceColumns+" FROM faces ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query all faces: %w", err)
	}
	defer rows.Close()

	var faces []database.StoredFace
	for rows.Next() {
		face, err := scanFaceRow(rows)
		if err != nil {
			return nil, err
		}
		faces = append(faces, face)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}
	return faces, nil
}

// faceStats returns the face count and highest face ID, used to detect a stale index file.
func (r *FaceRepository) faceStats(ctx context.Context) (count, maxID int64, err error) {
	err = r.pool.QueryRow(ctx, "SELECT COUNT(*), COALESCE(MAX(id), 0) FROM faces").Scan(&count, &maxID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get face stats: %w", err)
	}
	return count, maxID, nil
}

// tryLoadFaceIndex attempts to load the face HNSW index from disk.
// Returns true if a fresh index was loaded.
func (r *FaceRepository) tryLoadFaceIndex(indexPath string, dbFaceCount, dbMaxFaceID int64) bool {
	log := r.pool.log.WithField("path", indexPath)

	metadata, err := database.LoadHNSWMetadata(indexPath)
	if err != nil {
		log.WithError(err).Info("face index metadata unavailable, rebuilding")
		return false
	}
	if metadata.FaceCount != dbFaceCount || metadata.MaxFaceID != dbMaxFaceID {
		log.WithFields(logrus.Fields{
			"db_count": dbFaceCount, "db_max_id": dbMaxFaceID,
			"cached_count": metadata.FaceCount, "cached_max_id": metadata.MaxFaceID,
		}).Info("face index is stale, rebuilding")
		return false
	}

	index := database.NewHNSWIndex()
	if err := index.LoadWithFaceMetadata(indexPath); err != nil {
		log.WithError(err).Warn("failed to load face index, rebuilding")
		return false
	}
	if index.IsEmpty() {
		return false
	}

	r.hnswIndex = index
	log.WithField("faces", index.Count()).Info("face index loaded from disk")
	return true
}

// EnableHNSW loads or builds an in-memory HNSW index for O(log N) similarity search.
// If indexPath is provided, it will try to load from disk first and save after building.
// This should be called once at startup.
func (r *FaceRepository) EnableHNSW(ctx context.Context, indexPath string) error {
	r.hnswMu.Lock()
	defer r.hnswMu.Unlock()

	r.hnswIndexPath = indexPath

	dbFaceCount, dbMaxFaceID, err := r.faceStats(ctx)
	if err != nil {
		return err
	}

	if indexPath != "" && r.tryLoadFaceIndex(indexPath, dbFaceCount, dbMaxFaceID) {
		r.hnswEnabled = true
		return nil
	}

	faces, err := r.GetAllFaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to load faces: %w", err)
	}

	r.hnswIndex = database.NewHNSWIndex()
	r.hnswIndex.BuildFromFaces(faces)
	r.hnswEnabled = true

	if indexPath != "" && len(faces) > 0 {
		if err := r.hnswIndex.SaveWithFaceMetadata(indexPath); err != nil {
			r.pool.log.WithError(err).Warn("failed to save face index to disk")
		}
	}
	return nil
}

// DisableHNSW disables the in-memory HNSW index, falling back to PostgreSQL queries.
func (r *FaceRepository) DisableHNSW() {
	r.hnswMu.Lock()
	defer r.hnswMu.Unlock()
	r.hnswEnabled = false
	r.hnswIndex = nil
}

// IsHNSWEnabled returns whether the in-memory HNSW index is enabled.
func (r *FaceRepository) IsHNSWEnabled() bool {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	return r.hnswEnabled && r.hnswIndex != nil
}

// HNSWCount returns the number of faces in the HNSW index.
func (r *FaceRepository) HNSWCount() int {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	if r.hnswIndex == nil {
		return 0
	}
	return r.hnswIndex.Count()
}

// SaveHNSWIndex saves the current HNSW index to disk (if path configured).
func (r *FaceRepository) SaveHNSWIndex() error {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()

	if r.hnswIndexPath == "" || r.hnswIndex == nil {
		return nil
	}

	if err := r.hnswIndex.SaveWithFaceMetadata(r.hnswIndexPath); err != nil {
		return fmt.Errorf("saving HNSW face index: %w", err)
	}
	r.pool.log.WithFields(logrus.Fields{
		"path":  r.hnswIndexPath,
		"faces": r.hnswIndex.Count(),
	}).Info("face index saved")
	return nil
}
