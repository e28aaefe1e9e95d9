// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/barface/internal/database"
)

// MockProfileStore is a mock implementation of database.ProfileWriter
type MockProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*database.Profile
	puts     int

	// Error injection
	GetError   error
	PutError   error
	CountError error
}

// NewMockProfileStore creates a new mock profile store
func NewMockProfileStore() *MockProfileStore {
	return &MockProfileStore{
		profiles: make(map[string]*database.Profile),
	}
}

func cloneProfile(p *database.Profile) *database.Profile {
	c := *p
	c.FavDrinks = slices.Clone(p.FavDrinks)
	return &c
}

// AddProfile adds a profile to the mock store
func (m *MockProfileStore) AddProfile(p database.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.FaceID] = cloneProfile(&p)
}

// GetProfile retrieves a copy of a profile by face ID, nil if not found
func (m *MockProfileStore) GetProfile(ctx context.Context, faceID string) (*database.Profile, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[faceID]
	if !ok {
		return nil, nil
	}
	return cloneProfile(p), nil
}

// PutProfile stores a copy of the profile
func (m *MockProfileStore) PutProfile(ctx context.Context, p *database.Profile) error {
	if m.PutError != nil {
		return m.PutError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m.profiles[p.FaceID] = cloneProfile(p)
	m.puts++
	return nil
}

// CountProfiles returns the number of stored profiles
func (m *MockProfileStore) CountProfiles(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles), nil
}

// PutCount returns how many times PutProfile succeeded
func (m *MockProfileStore) PutCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}

// MockFaceStore is a mock implementation of database.FaceWriter
// using brute-force cosine search.
type MockFaceStore struct {
	mu          sync.RWMutex
	collections map[string]bool
	faces       []database.StoredFace
	nextID      int64

	// Error injection
	CreateCollectionError error
	SaveError             error
	FindSimilarError      error
	CountError            error
}

// NewMockFaceStore creates a new mock face store
func NewMockFaceStore() *MockFaceStore {
	return &MockFaceStore{
		collections: make(map[string]bool),
		nextID:      1,
	}
}

// CreateCollection creates a collection, database.ErrCollectionExists if present
func (m *MockFaceStore) CreateCollection(ctx context.Context, collectionID string) error {
	if m.CreateCollectionError != nil {
		return m.CreateCollectionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collections[collectionID] {
		return database.ErrCollectionExists
	}
	m.collections[collectionID] = true
	return nil
}

// HasCollection checks if a collection exists
func (m *MockFaceStore) HasCollection(ctx context.Context, collectionID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collections[collectionID], nil
}

// SaveFace enrolls a face, assigning a sequential ID
func (m *MockFaceStore) SaveFace(ctx context.Context, face *database.StoredFace) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.collections[face.CollectionID] {
		return fmt.Errorf("%w: %s", database.ErrCollectionNotFound, face.CollectionID)
	}
	face.ID = m.nextID
	m.nextID++
	if face.CreatedAt.IsZero() {
		face.CreatedAt = time.Now()
	}
	m.faces = append(m.faces, *face)
	return nil
}

// Count returns the number of faces in a collection
func (m *MockFaceStore) Count(ctx context.Context, collectionID string) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, f := range m.faces {
		if f.CollectionID == collectionID {
			n++
		}
	}
	return n, nil
}

// FindSimilarWithDistance finds faces of a collection closer than maxDistance, nearest first
func (m *MockFaceStore) FindSimilarWithDistance(
	ctx context.Context, collectionID string, embedding []float32, limit int, maxDistance float64,
) ([]database.StoredFace, []float64, error) {
	if m.FindSimilarError != nil {
		return nil, nil, m.FindSimilarError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	type match struct {
		face database.StoredFace
		dist float64
	}
	var matches []match
	for _, f := range m.faces {
		if f.CollectionID != collectionID {
			continue
		}
		d := database.CosineDistance(embedding, f.Embedding)
		if d < maxDistance {
			matches = append(matches, match{f, d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].dist < matches[j].dist })
	if len(matches) > limit {
		matches = matches[:limit]
	}

	faces := make([]database.StoredFace, len(matches))
	distances := make([]float64, len(matches))
	for i, mt := range matches {
		faces[i] = mt.face
		distances[i] = mt.dist
	}
	return faces, distances, nil
}
