package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/kozaktomas/barface/internal/constants"
	"github.com/kozaktomas/barface/internal/database"
	"github.com/sirupsen/logrus"
)

// statsCache holds cached stats with expiry
type statsCache struct {
	mu        sync.RWMutex
	data      *StatsResponse
	expiresAt time.Time
}

func (c *statsCache) get() (*StatsResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *statsCache) set(data *StatsResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
	c.expiresAt = time.Now().Add(constants.StatsCacheTTL)
}

// StatsHandler reports how many faces and profiles are enrolled
type StatsHandler struct {
	collectionID string
	faces        database.FaceReader
	profiles     database.ProfileReader
	log          logrus.FieldLogger
	cache        statsCache
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(collectionID string, faces database.FaceReader, profiles database.ProfileReader, log logrus.FieldLogger) *StatsHandler {
	return &StatsHandler{
		collectionID: collectionID,
		faces:        faces,
		profiles:     profiles,
		log:          log.WithField("handler", "stats"),
	}
}

// StatsResponse represents the statistics response
type StatsResponse struct {
	CollectionID  string `json:"collection_id"`
	TotalFaces    int    `json:"total_faces"`
	TotalProfiles int    `json:"total_profiles"`
}

// Get returns enrollment statistics
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.cache.get(); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	faces, err := h.faces.Count(r.Context(), h.collectionID)
	if err != nil {
		h.log.WithError(err).Error("failed to count faces")
		respondError(w, http.StatusInternalServerError, "failed to count faces")
		return
	}
	profiles, err := h.profiles.CountProfiles(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to count profiles")
		respondError(w, http.StatusInternalServerError, "failed to count profiles")
		return
	}

	stats := &StatsResponse{CollectionID: h.collectionID, TotalFaces: faces, TotalProfiles: profiles}
	h.cache.set(stats)
	respondJSON(w, http.StatusOK, stats)
}
