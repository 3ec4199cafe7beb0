// pkg/platform/resolver.go
package platform

import (
	"fmt"

	"github.com/arc-language/uenv/pkg/nix"
)

// ResolveSystem picks the nix system to resolve environments for.
//
// Priority:
// 1. User-specified system in config
// 2. Detected host system
func ResolveSystem(p *Platform, configured string) (nix.Platform, error) {
	if configured != "" {
		system, err := nix.ParsePlatform(configured)
		if err != nil {
			return "", fmt.Errorf("configured system: %w", err)
		}
		return system, nil
	}

	if p == nil || p.System == "" {
		return "", fmt.Errorf("no nix system for this host; set nix.system in the config")
	}
	return p.System, nil
}

// RequireEngines fails unless the host can build environments
func RequireEngines(p *Platform) error {
	if p.CanBuild() {
		return nil
	}

	var missing []string
	for _, engine := range []string{"nix-build", "nix-shell"} {
		if !contains(p.Available, engine) {
			missing = append(missing, engine)
		}
	}
	return fmt.Errorf("building requires %v, which are not installed", missing)
}
