package recognition

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/kozaktomas/barface/internal/ai"
	"github.com/kozaktomas/barface/internal/database"
	"github.com/kozaktomas/barface/internal/database/mock"
	"github.com/kozaktomas/barface/internal/fingerprint"
	"github.com/sirupsen/logrus"
)

type fakeEmbedder struct {
	faces map[string][]fingerprint.FaceDetection
	err   error
}

func (f *fakeEmbedder) ComputeFaceEmbeddings(ctx context.Context, imageData []byte) (*fingerprint.FaceResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	faces := f.faces[string(imageData)]
	return &fingerprint.FaceResponse{FacesCount: len(faces), Faces: faces, Model: "buffalo_l"}, nil
}

type fakeAnalyzer struct {
	attrs *ai.FaceAttributes
	err   error
	calls int
}

func (f *fakeAnalyzer) Name() string      { return "fake" }
func (f *fakeAnalyzer) GetUsage() ai.Usage { return ai.Usage{} }
func (f *fakeAnalyzer) AnalyzeFace(ctx context.Context, imageData []byte) (*ai.FaceAttributes, error) {
	f.calls++
	return f.attrs, f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func vec(values ...float32) []float32 { return values }

func newTestService(t *testing.T, embedder Embedder, analyzer ai.FaceAnalyzer) (*Service, *mock.MockFaceStore) {
	t.Helper()
	store := mock.NewMockFaceStore()
	svc := NewService(embedder, analyzer, store, 0.5, quietLogger())
	ids := 0
	svc.SetIDGenerator(func() string {
		ids++
		return []string{"face-a", "face-b", "face-c"}[ids-1]
	})
	if err := svc.CreateCollection(context.Background(), "bar"); err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}
	return svc, store
}

func TestCreateCollection_Exists(t *testing.T) {
	svc, _ := newTestService(t, &fakeEmbedder{}, nil)
	err := svc.CreateCollection(context.Background(), "bar")
	if !errors.Is(err, ErrCollectionExists) {
		t.Errorf("expected ErrCollectionExists, got %v", err)
	}
}

func TestCreateCollection_OtherError(t *testing.T) {
	store := mock.NewMockFaceStore()
	store.CreateCollectionError = errors.New("connection refused")
	svc := NewService(&fakeEmbedder{}, nil, store, 0.5, quietLogger())

	err := svc.CreateCollection(context.Background(), "bar")
	if err == nil || errors.Is(err, ErrCollectionExists) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestIndexThenSearch(t *testing.T) {
	embedder := &fakeEmbedder{faces: map[string][]fingerprint.FaceDetection{
		"alice":       {{Embedding: vec(1, 0, 0), BBox: []float64{1, 1, 5, 5}, DetScore: 0.9}},
		"alice-again": {{Embedding: vec(0.99, 0.05, 0), DetScore: 0.8}},
		"bob":         {{Embedding: vec(0, 1, 0), DetScore: 0.95}},
	}}
	analyzer := &fakeAnalyzer{attrs: &ai.FaceAttributes{
		Gender: database.GenderFemale, GenderConfidence: 99, Smiling: true, SmileConfidence: 90,
	}}
	svc, store := newTestService(t, embedder, analyzer)
	ctx := context.Background()

	records, err := svc.IndexFaces(ctx, "bar", []byte("alice"))
	if err != nil {
		t.Fatalf("IndexFaces failed: %v", err)
	}
	if len(records) != 1 || records[0].Face.FaceID != "face-a" {
		t.Fatalf("unexpected records: %+v", records)
	}
	detail := records[0].FaceDetail
	if detail.Gender.Value != database.GenderFemale || !detail.Smile.Value {
		t.Errorf("unexpected face detail: %+v", detail)
	}
	if len(detail.BoundingBox) != 4 || detail.DetScore != 0.9 {
		t.Errorf("expected bounding box and det score to be kept, got %+v", detail)
	}
	if n, _ := store.Count(ctx, "bar"); n != 1 {
		t.Errorf("expected 1 stored face, got %d", n)
	}

	matches, err := svc.SearchFacesByImage(ctx, "bar", []byte("alice-again"), 1)
	if err != nil {
		t.Fatalf("SearchFacesByImage failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Face.FaceID != "face-a" {
		t.Fatalf("expected match on face-a, got %+v", matches)
	}
	if matches[0].Similarity < 95 || matches[0].Similarity > 100 {
		t.Errorf("expected similarity in (95, 100], got %f", matches[0].Similarity)
	}

	matches, err = svc.SearchFacesByImage(ctx, "bar", []byte("bob"), 1)
	if err != nil {
		t.Fatalf("SearchFacesByImage failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no match for a different face, got %+v", matches)
	}
}

func TestSearch_NoFace(t *testing.T) {
	svc, _ := newTestService(t, &fakeEmbedder{}, nil)
	_, err := svc.SearchFacesByImage(context.Background(), "bar", []byte("empty room"), 1)
	if !errors.Is(err, ErrNoFaceDetected) {
		t.Errorf("expected ErrNoFaceDetected, got %v", err)
	}
}

func TestSearch_EmbedderError(t *testing.T) {
	svc, _ := newTestService(t, &fakeEmbedder{err: errors.New("timeout")}, nil)
	_, err := svc.SearchFacesByImage(context.Background(), "bar", []byte("x"), 1)
	if err == nil || errors.Is(err, ErrNoFaceDetected) {
		t.Errorf("expected embedder error, got %v", err)
	}
}

func TestIndexFaces_WithoutAnalyzer(t *testing.T) {
	embedder := &fakeEmbedder{faces: map[string][]fingerprint.FaceDetection{
		"carl": {{Embedding: vec(0, 0, 1), DetScore: 0.7}},
	}}
	svc, _ := newTestService(t, embedder, nil)

	records, err := svc.IndexFaces(context.Background(), "bar", []byte("carl"))
	if err != nil {
		t.Fatalf("IndexFaces failed: %v", err)
	}
	if records[0].FaceDetail.Gender.Value != "" {
		t.Errorf("expected empty gender without analyzer, got %q", records[0].FaceDetail.Gender.Value)
	}
}

func TestIndexFaces_AnalyzerErrors(t *testing.T) {
	embedder := &fakeEmbedder{faces: map[string][]fingerprint.FaceDetection{
		"dana": {{Embedding: vec(1, 1, 0), DetScore: 0.7}},
	}}

	tests := []struct {
		name      string
		err       error
		wantNoFac bool
	}{
		{"no face", ai.ErrNoFace, true},
		{"api error", errors.New("quota exceeded"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newTestService(t, embedder, &fakeAnalyzer{err: tc.err})
			_, err := svc.IndexFaces(context.Background(), "bar", []byte("dana"))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrNoFaceDetected) != tc.wantNoFac {
				t.Errorf("ErrNoFaceDetected = %v, want %v (err %v)", errors.Is(err, ErrNoFaceDetected), tc.wantNoFac, err)
			}
			if n, _ := store.Count(context.Background(), "bar"); n != 0 {
				t.Errorf("expected no stored face after analyzer failure, got %d", n)
			}
		})
	}
}

func TestIndexFaces_UnknownCollection(t *testing.T) {
	embedder := &fakeEmbedder{faces: map[string][]fingerprint.FaceDetection{
		"eve": {{Embedding: vec(1, 0, 1), DetScore: 0.7}},
	}}
	svc, _ := newTestService(t, embedder, nil)

	_, err := svc.IndexFaces(context.Background(), "nope", []byte("eve"))
	if !errors.Is(err, database.ErrCollectionNotFound) {
		t.Errorf("expected ErrCollectionNotFound, got %v", err)
	}
}
