package handlers

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Content types of the audio endpoint. Partial responses are labelled
// video/mp4, full responses audio/mpeg.
const (
	fullAudioContentType    = "audio/mpeg"
	partialAudioContentType = "video/mp4"
)

var errUnsatisfiableRange = errors.New("unsatisfiable range")

// byteRange is an inclusive span of a file.
type byteRange struct {
	start, end int64
}

func (br byteRange) length() int64 {
	return br.end - br.start + 1
}

// parseRange parses a single "bytes=start-end" or "bytes=-suffix" range against a file of size total.
// A missing end means the rest of the file; an end past the file is clamped.
func parseRange(header string, total int64) (byteRange, error) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return byteRange{}, errUnsatisfiableRange
	}
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok || total <= 0 {
		return byteRange{}, errUnsatisfiableRange
	}

	if startStr == "" {
		suffix, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || suffix <= 0 {
			return byteRange{}, errUnsatisfiableRange
		}
		return byteRange{start: max(total-suffix, 0), end: total - 1}, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 || start >= total {
		return byteRange{}, errUnsatisfiableRange
	}
	end := total - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return byteRange{}, errUnsatisfiableRange
		}
		end = min(end, total-1)
	}
	return byteRange{start: start, end: end}, nil
}

// AudioHandler serves one local audio file with byte range support.
type AudioHandler struct {
	path string
	log  logrus.FieldLogger
}

// NewAudioHandler creates a handler for the audio file at path
func NewAudioHandler(path string, log logrus.FieldLogger) *AudioHandler {
	return &AudioHandler{
		path: path,
		log:  log.WithField("handler", "audio"),
	}
}

// Get streams the file, or the requested part of it.
func (h *AudioHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.path)
	if err != nil {
		h.fileError(w, err)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		h.fileError(w, err)
		return
	}
	if stat.IsDir() {
		h.fileError(w, fmt.Errorf("%s is a directory: %w", h.path, fs.ErrNotExist))
		return
	}
	total := stat.Size()

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Length", strconv.FormatInt(total, 10))
		w.Header().Set("Content-Type", fullAudioContentType)
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, f); err != nil {
			h.log.WithError(err).Debug("client went away during audio stream")
		}
		return
	}

	br, err := parseRange(rangeHeader, total)
	if err != nil {
		h.log.WithField("range", sanitizeForLog(rangeHeader)).Warn("unsatisfiable range")
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", total))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if _, err := f.Seek(br.start, io.SeekStart); err != nil {
		h.fileError(w, err)
		return
	}

	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", br.start, br.end, total))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(br.length(), 10))
	w.Header().Set("Content-Type", partialAudioContentType)
	w.WriteHeader(http.StatusPartialContent)
	if _, err := io.CopyN(w, f, br.length()); err != nil {
		h.log.WithError(err).Debug("client went away during audio stream")
	}
}

func (h *AudioHandler) fileError(w http.ResponseWriter, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		h.log.WithField("path", h.path).Warn("audio file not found")
		respondError(w, http.StatusNotFound, "audio file not found")
		return
	}
	h.log.WithError(err).WithField("path", h.path).Error("failed to open audio file")
	respondError(w, http.StatusInternalServerError, "failed to read audio file")
}
