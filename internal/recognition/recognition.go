// Package recognition searches and enrolls faces in named collections.
package recognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kozaktomas/barface/internal/ai"
	"github.com/kozaktomas/barface/internal/database"
	"github.com/kozaktomas/barface/internal/fingerprint"
	"github.com/sirupsen/logrus"
)

// ErrCollectionExists is returned by CreateCollection when the collection is already present.
var ErrCollectionExists = database.ErrCollectionExists

// ErrNoFaceDetected is returned when the image holds no usable face.
var ErrNoFaceDetected = errors.New("no face detected")

// cropPadding grows the detected box before the crop is sent to the analyzer.
const cropPadding = 0.3

// Face identifies an enrolled face.
type Face struct {
	FaceID       string
	CollectionID string
}

// FaceMatch is a collection face similar to a searched image.
type FaceMatch struct {
	Face       Face
	Similarity float64 // percent, 100 is identical
}

// FaceRecord is a face enrolled by IndexFaces together with its detected attributes.
type FaceRecord struct {
	Face       Face
	FaceDetail database.FaceDetail
}

// Recognizer searches and enrolls faces.
type Recognizer interface {
	CreateCollection(ctx context.Context, collectionID string) error
	SearchFacesByImage(ctx context.Context, collectionID string, image []byte, maxFaces int) ([]FaceMatch, error)
	IndexFaces(ctx context.Context, collectionID string, image []byte) ([]FaceRecord, error)
}

// Embedder detects faces and computes their embeddings.
type Embedder interface {
	ComputeFaceEmbeddings(ctx context.Context, imageData []byte) (*fingerprint.FaceResponse, error)
}

// Service implements Recognizer on top of the embedding server, a face store
// and an optional attribute analyzer.
type Service struct {
	embedder    Embedder
	analyzer    ai.FaceAnalyzer
	faces       database.FaceWriter
	maxDistance float64
	log         logrus.FieldLogger
	newID       func() string
}

// NewService creates a recognition service.
// A nil analyzer enrolls faces without gender or smile attributes.
func NewService(
	embedder Embedder, analyzer ai.FaceAnalyzer, faces database.FaceWriter, maxDistance float64, log logrus.FieldLogger,
) *Service {
	return &Service{
		embedder:    embedder,
		analyzer:    analyzer,
		faces:       faces,
		maxDistance: maxDistance,
		log:         log.WithField("component", "recognition"),
		newID:       uuid.NewString,
	}
}

// SetIDGenerator replaces the face ID generator. Used by tests.
func (s *Service) SetIDGenerator(fn func() string) {
	s.newID = fn
}

// CreateCollection creates an empty collection, ErrCollectionExists if present.
func (s *Service) CreateCollection(ctx context.Context, collectionID string) error {
	if err := s.faces.CreateCollection(ctx, collectionID); err != nil {
		if errors.Is(err, database.ErrCollectionExists) {
			return ErrCollectionExists
		}
		return fmt.Errorf("create collection %s: %w", collectionID, err)
	}
	return nil
}

// detectFace returns the most confident face in the image.
func (s *Service) detectFace(ctx context.Context, image []byte) (*fingerprint.FaceDetection, string, error) {
	resp, err := s.embedder.ComputeFaceEmbeddings(ctx, image)
	if err != nil {
		return nil, "", fmt.Errorf("compute face embeddings: %w", err)
	}
	face := resp.Best()
	if face == nil {
		return nil, "", ErrNoFaceDetected
	}
	return face, resp.Model, nil
}

// SearchFacesByImage finds up to maxFaces collection faces matching the most
// confident face in the image, most similar first.
func (s *Service) SearchFacesByImage(
	ctx context.Context, collectionID string, image []byte, maxFaces int,
) ([]FaceMatch, error) {
	face, _, err := s.detectFace(ctx, image)
	if err != nil {
		return nil, err
	}

	stored, distances, err := s.faces.FindSimilarWithDistance(ctx, collectionID, face.Embedding, maxFaces, s.maxDistance)
	if err != nil {
		return nil, fmt.Errorf("search collection %s: %w", collectionID, err)
	}

	matches := make([]FaceMatch, len(stored))
	for i := range stored {
		matches[i] = FaceMatch{
			Face:       Face{FaceID: stored[i].FaceID, CollectionID: stored[i].CollectionID},
			Similarity: database.SimilarityPercent(distances[i]),
		}
	}
	s.log.WithFields(logrus.Fields{
		"collection": collectionID,
		"matches":    len(matches),
	}).Debug("searched faces")
	return matches, nil
}

// IndexFaces enrolls the most confident face in the image under a new face ID.
func (s *Service) IndexFaces(ctx context.Context, collectionID string, image []byte) ([]FaceRecord, error) {
	face, model, err := s.detectFace(ctx, image)
	if err != nil {
		return nil, err
	}

	detail, err := s.analyze(ctx, image, face)
	if err != nil {
		return nil, err
	}

	stored := &database.StoredFace{
		FaceID:       s.newID(),
		CollectionID: collectionID,
		Embedding:    face.Embedding,
		BBox:         face.BBox,
		DetScore:     face.DetScore,
		Model:        model,
		Dim:          len(face.Embedding),
	}
	if err := s.faces.SaveFace(ctx, stored); err != nil {
		return nil, fmt.Errorf("save face: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"collection": collectionID,
		"face_id":    stored.FaceID,
		"gender":     detail.Gender.Value,
		"smile":      detail.Smile.Value,
	}).Info("enrolled face")

	return []FaceRecord{{
		Face:       Face{FaceID: stored.FaceID, CollectionID: collectionID},
		FaceDetail: detail,
	}}, nil
}

// analyze detects the face attributes on a crop around the detected box.
func (s *Service) analyze(ctx context.Context, image []byte, face *fingerprint.FaceDetection) (database.FaceDetail, error) {
	detail := database.FaceDetail{BoundingBox: face.BBox, DetScore: face.DetScore}
	if s.analyzer == nil {
		return detail, nil
	}

	crop := image
	if len(face.BBox) == 4 {
		if c, err := ai.CropFace(image, face.BBox, cropPadding); err == nil {
			crop = c
		} else {
			s.log.WithError(err).Debug("face crop failed, analyzing full image")
		}
	}

	attrs, err := s.analyzer.AnalyzeFace(ctx, crop)
	if errors.Is(err, ai.ErrNoFace) {
		return detail, ErrNoFaceDetected
	}
	if err != nil {
		return detail, fmt.Errorf("analyze face: %w", err)
	}

	analyzed := attrs.Detail()
	analyzed.BoundingBox = detail.BoundingBox
	analyzed.DetScore = detail.DetScore
	return analyzed, nil
}
