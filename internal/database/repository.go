package database

import (
	"context"
	"errors"
)

// ErrCollectionExists is returned by CreateCollection when the collection is already present.
var ErrCollectionExists = errors.New("collection already exists")

// ErrCollectionNotFound is returned when enrolling into or searching an unknown collection.
var ErrCollectionNotFound = errors.New("collection not found")

// ProfileReader provides read-only access to profiles
type ProfileReader interface {
	// GetProfile retrieves a profile by face ID, returns nil if not found
	GetProfile(ctx context.Context, faceID string) (*Profile, error)
	// CountProfiles returns the total number of profiles stored
	CountProfiles(ctx context.Context) (int, error)
}

// ProfileWriter provides write access to profiles
type ProfileWriter interface {
	ProfileReader

	// PutProfile stores a profile, replacing any profile with the same face ID
	PutProfile(ctx context.Context, profile *Profile) error
}

// FaceReader provides read-only access to enrolled face embeddings
type FaceReader interface {
	// HasCollection checks if a collection exists
	HasCollection(ctx context.Context, collectionID string) (bool, error)
	// Count returns the number of faces enrolled in a collection
	Count(ctx context.Context, collectionID string) (int, error)
	// FindSimilarWithDistance finds faces of a collection closer than maxDistance, nearest first
	FindSimilarWithDistance(ctx context.Context, collectionID string, embedding []float32, limit int, maxDistance float64) ([]StoredFace, []float64, error)
}

// FaceWriter provides write access to face collections
type FaceWriter interface {
	FaceReader

	// CreateCollection creates an empty collection, ErrCollectionExists if present
	CreateCollection(ctx context.Context, collectionID string) error
	// SaveFace enrolls a face and sets its database ID
	SaveFace(ctx context.Context, face *StoredFace) error
}
