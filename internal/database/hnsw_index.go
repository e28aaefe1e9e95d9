package database

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/coder/hnsw"
)

// HNSWIndexMetadata stores metadata for validating cached HNSW indexes.
type HNSWIndexMetadata struct {
	FaceCount int64     `json:"face_count"`
	MaxFaceID int64     `json:"max_face_id"`
	BuildTime time.Time `json:"build_time"`
	Version   int       `json:"version"`
}

const hnswMetadataVersion = 2

// HNSWIndex wraps the HNSW graph for face embedding search.
// A single graph holds the faces of every collection; searches filter by collection.
type HNSWIndex struct {
	graph      *hnsw.Graph[int64]
	savedGraph *hnsw.SavedGraph[int64]
	idToFace   map[int64]*StoredFace // HNSW node key to face
	mu         sync.RWMutex
}

// NewHNSWIndex creates a new empty HNSW index.
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{
		idToFace: make(map[int64]*StoredFace),
	}
}

func newFaceGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors)
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.CosineDistance
	return g
}

// BuildFromFaces builds the index from a slice of faces.
func (h *HNSWIndex) BuildFromFaces(faces []StoredFace) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.savedGraph = nil
	h.idToFace = make(map[int64]*StoredFace, len(faces))
	if len(faces) == 0 {
		h.graph = nil
		return
	}

	g := newFaceGraph()
	for i := range faces {
		face := &faces[i]
		if len(face.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(face.ID, face.Embedding))
		h.idToFace[face.ID] = face
	}
	h.graph = g
}

// Search finds up to k faces of the given collection nearest to the query embedding.
// Returns faces and their cosine distances, nearest first.
func (h *HNSWIndex) Search(collectionID string, query []float32, k int) ([]StoredFace, []float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil && h.savedGraph == nil {
		return nil, nil, errors.New("index not initialized")
	}

	// Other collections share the graph, so ask for more candidates than needed.
	candidates := k * HNSWSearchMultiplier
	var neighbors []hnsw.Node[int64]
	if h.savedGraph != nil {
		neighbors = h.savedGraph.Search(query, candidates)
	} else {
		neighbors = h.graph.Search(query, candidates)
	}

	faces := make([]StoredFace, 0, k)
	distances := make([]float64, 0, k)
	for _, n := range neighbors {
		face, ok := h.idToFace[n.Key]
		if !ok || face.CollectionID != collectionID {
			continue
		}
		faces = append(faces, *face)
		distances = append(distances, CosineDistance(query, n.Value))
		if len(faces) == k {
			break
		}
	}

	return faces, distances, nil
}

// Add adds a single face to the index.
func (h *HNSWIndex) Add(face *StoredFace) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(face.Embedding) == 0 {
		return
	}

	if h.graph == nil {
		if h.savedGraph != nil {
			// Promote the loaded graph so new faces join the existing ones.
			h.graph = h.savedGraph.Graph
			h.savedGraph = nil
		} else {
			h.graph = newFaceGraph()
		}
	}

	h.graph.Add(hnsw.MakeNode(face.ID, face.Embedding))
	h.idToFace[face.ID] = face
}

// Count returns the number of indexed faces.
func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.idToFace)
}

// IsEmpty returns true if the index has no graph data loaded.
func (h *HNSWIndex) IsEmpty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph == nil && h.savedGraph == nil
}

// maxFaceID returns the highest database ID in the index.
func (h *HNSWIndex) maxFaceID() int64 {
	var maxID int64
	for id := range h.idToFace {
		if id > maxID {
			maxID = id
		}
	}
	return maxID
}

// Metadata describes the current index contents for staleness detection.
func (h *HNSWIndex) Metadata() HNSWIndexMetadata {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HNSWIndexMetadata{
		FaceCount: int64(len(h.idToFace)),
		MaxFaceID: h.maxFaceID(),
		BuildTime: time.Now(),
	}
}

// LoadHNSWMetadata loads metadata from a separate .meta file.
func LoadHNSWMetadata(path string) (HNSWIndexMetadata, error) {
	var metadata HNSWIndexMetadata

	data, err := os.ReadFile(path + ".meta") //nolint:gosec // path is from trusted config
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata file: %w", err)
	}

	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if metadata.Version != hnswMetadataVersion {
		return metadata, fmt.Errorf("unsupported index version %d", metadata.Version)
	}

	return metadata, nil
}

// saveFaceMetadata saves face metadata to a .faces file for fast loading at startup.
func saveFaceMetadata(path string, faces []StoredFace) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(faces); err != nil {
		return fmt.Errorf("failed to encode faces: %w", err)
	}

	if err := os.WriteFile(path+".faces", buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write faces file: %w", err)
	}
	return nil
}

// loadFaceMetadata loads face metadata from a .faces file.
func loadFaceMetadata(path string) ([]StoredFace, error) {
	data, err := os.ReadFile(path + ".faces") //nolint:gosec // path is from trusted config
	if err != nil {
		return nil, fmt.Errorf("failed to read faces file: %w", err)
	}

	var faces []StoredFace
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&faces); err != nil {
		return nil, fmt.Errorf("failed to decode faces: %w", err)
	}
	return faces, nil
}

// LoadWithFaceMetadata loads both the HNSW graph and face metadata from disk.
func (h *HNSWIndex) LoadWithFaceMetadata(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("HNSW index file not found: %s", path)
	}

	saved, err := hnsw.LoadSavedGraph[int64](path)
	if err != nil {
		return fmt.Errorf("failed to load HNSW index: %w", err)
	}

	faces, err := loadFaceMetadata(path)
	if err != nil {
		return fmt.Errorf("failed to load face metadata: %w", err)
	}

	h.graph = nil
	h.savedGraph = saved
	h.idToFace = make(map[int64]*StoredFace, len(faces))
	for i := range faces {
		h.idToFace[faces[i].ID] = &faces[i]
	}
	return nil
}

func (h *HNSWIndex) exportGraph(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to create HNSW index file: %w", err)
	}
	defer f.Close()

	if h.savedGraph != nil {
		err = h.savedGraph.Export(f)
	} else {
		err = h.graph.Export(f)
	}
	if err != nil {
		return fmt.Errorf("failed to export HNSW graph: %w", err)
	}
	return nil
}

// SaveWithFaceMetadata persists the graph, its metadata and the face records to disk.
// An empty index removes any files left from a previous save.
func (h *HNSWIndex) SaveWithFaceMetadata(path string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil && h.savedGraph == nil {
		_ = os.Remove(path)
		_ = os.Remove(path + ".meta")
		_ = os.Remove(path + ".faces")
		return nil
	}

	if err := h.exportGraph(path); err != nil {
		return err
	}

	metadata := HNSWIndexMetadata{
		FaceCount: int64(len(h.idToFace)),
		MaxFaceID: h.maxFaceID(),
		BuildTime: time.Now(),
		Version:   hnswMetadataVersion,
	}
	metaData, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", metaData, 0600); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	faces := make([]StoredFace, 0, len(h.idToFace))
	for _, face := range h.idToFace {
		faces = append(faces, *face)
	}
	if err := saveFaceMetadata(path, faces); err != nil {
		return fmt.Errorf("failed to save face metadata: %w", err)
	}
	return nil
}
