// Package server provides HTTP and WebSocket handlers
package server

import "time"

// Server configuration constants
const (
	// Per-connection message rate limiting
	RateLimitMessages = 30          // Max messages per connection per window
	RateLimitWindow   = time.Second // Sliding window duration

	// JPEG quality for the downscaled preview endpoint
	PreviewQuality = 80

	// Default number of runs returned by the history endpoint
	DefaultHistoryLimit = 20

	// Upload size cap for template images
	MaxTemplateBytes = 8 << 20
)
