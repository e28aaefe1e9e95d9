package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kozaktomas/barface/internal/constants"
	"github.com/kozaktomas/barface/internal/pipeline"
	"github.com/kozaktomas/barface/internal/speech"
	"github.com/sirupsen/logrus"
)

// ImageRunner runs the image pipeline.
type ImageRunner interface {
	Run(ctx context.Context, image []byte) (*speech.Audio, error)
}

// ImageHandler handles camera snapshots posted by the kiosk page.
type ImageHandler struct {
	runner ImageRunner
	log    logrus.FieldLogger
}

// NewImageHandler creates a new image handler
func NewImageHandler(runner ImageRunner, log logrus.FieldLogger) *ImageHandler {
	return &ImageHandler{
		runner: runner,
		log:    log.WithField("handler", "image"),
	}
}

// ImageRequest is the /image request body
type ImageRequest struct {
	Image string `json:"image"` // data:image/jpeg;base64,...
}

// Post recognizes the face in the image and answers with the spoken order sentence.
// Pipeline failures are answered with an empty 500.
func (h *ImageHandler) Post(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxImageBodySize)

	var req ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.WithError(err).Error("failed to decode image request")
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	image, err := pipeline.DecodeDataURL(req.Image)
	if err != nil {
		h.log.WithError(err).Error("no usable image given")
		if errors.Is(err, pipeline.ErrEmptyImage) {
			respondError(w, http.StatusBadRequest, "no image given")
		} else {
			respondError(w, http.StatusBadRequest, "invalid image")
		}
		return
	}

	audio, err := h.runner.Run(r.Context(), image)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyImage) {
			h.log.WithError(err).Error("no usable image given")
			respondError(w, http.StatusBadRequest, "no image given")
			return
		}
		// Logged with the failing step by the pipeline.
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	respondAudio(w, audio)
}
