// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Face matching constants
const (
	// DefaultDistanceThreshold is the default maximum cosine distance for face matching
	// Lower values = stricter matching
	DefaultDistanceThreshold = 0.5

	// FacesToRecognize is the number of matches requested when searching a collection
	FacesToRecognize = 1
)

// Server lifecycle constants
const (
	// ShutdownTimeout bounds the graceful shutdown of the web server
	ShutdownTimeout = 30 * time.Second
)
