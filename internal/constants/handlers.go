// Package constants provides shared constants used across the codebase.
package constants

import "time"

// Handler constants
const (
	// MaxImageBodySize is the largest accepted /image request body
	MaxImageBodySize = 50 << 20

	// StatsCacheTTL is how long collection statistics are served from cache
	StatsCacheTTL = 30 * time.Second

	// DefaultPollyText is spoken by /polly when no text is given
	DefaultPollyText = "I do work son"
)
