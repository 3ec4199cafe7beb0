// pkg/nix/types.go
package nix

import (
	"time"

	"github.com/charmbracelet/log"
)

// CacheConfig configures the binary cache client
type CacheConfig struct {
	CacheURL string        // Default: https://cache.nixos.org
	Timeout  time.Duration // Default: 30s
	Logger   *log.Logger   // Custom logger (optional)
}

// NARInfo contains metadata about a store path in a binary cache
type NARInfo struct {
	StorePath   string
	URL         string
	Compression string
	FileHash    string
	FileSize    int64
	NarHash     string
	NarSize     int64
	References  []string
	Deriver     string
	Signature   string
}
