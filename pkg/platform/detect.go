// pkg/platform/detect.go
package platform

import (
	"fmt"
	"runtime"

	"github.com/arc-language/uenv/pkg/nix"
)

// engines are the nix binaries uenv can hand environments to
var engines = []string{"nix-build", "nix-shell", "nix"}

// Platform represents the detected host
type Platform struct {
	OS        string       // linux, darwin
	Arch      string       // amd64, arm64, 386, arm
	System    nix.Platform // Nix platform triple, empty when nix has no build for the host
	Available []string     // Available nix binaries
}

// Detect detects the current platform and available nix binaries
func Detect() (*Platform, error) {
	return detect(runtime.GOOS, runtime.GOARCH, commandExists)
}

func detect(goos, goarch string, exists func(string) bool) (*Platform, error) {
	switch goos {
	case "linux", "darwin":
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", goos)
	}

	p := &Platform{
		OS:        goos,
		Arch:      goarch,
		Available: []string{},
	}

	// unknown architectures can still render expressions for other systems
	if system, err := nix.PlatformFor(goos, goarch); err == nil {
		p.System = system
	}

	for _, engine := range engines {
		if exists(engine) {
			p.Available = append(p.Available, engine)
		}
	}

	return p, nil
}

// CanBuild reports whether nix-build and nix-shell are both available
func (p *Platform) CanBuild() bool {
	return contains(p.Available, "nix-build") && contains(p.Available, "nix-shell")
}

// String returns a string representation of the platform
func (p *Platform) String() string {
	return fmt.Sprintf("%s/%s (system: %s, available: %v)",
		p.OS, p.Arch, p.System, p.Available)
}
