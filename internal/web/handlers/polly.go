package handlers

import (
	"net/http"

	"github.com/kozaktomas/barface/internal/config"
	"github.com/kozaktomas/barface/internal/constants"
	"github.com/kozaktomas/barface/internal/speech"
	"github.com/sirupsen/logrus"
)

// PollyHandler synthesizes arbitrary text.
type PollyHandler struct {
	speech config.SpeechConfig
	synth  speech.Synthesizer
	log    logrus.FieldLogger
}

// NewPollyHandler creates a new ad-hoc TTS handler
func NewPollyHandler(cfg config.SpeechConfig, synth speech.Synthesizer, log logrus.FieldLogger) *PollyHandler {
	return &PollyHandler{
		speech: cfg,
		synth:  synth,
		log:    log.WithField("handler", "polly"),
	}
}

// Get speaks the text query parameter. The status is always 200; a failed
// synthesis is logged and answered with an empty body.
func (h *PollyHandler) Get(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		text = constants.DefaultPollyText
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")

	audio, err := h.synth.Synthesize(r.Context(), speech.DefaultParams(h.speech, text))
	if err != nil {
		h.log.WithError(err).WithField("text", sanitizeForLog(text)).Error("speech synthesis failed")
		w.WriteHeader(http.StatusOK)
		return
	}

	respondAudio(w, audio)
}
