package env

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Layout defines where files live inside a built prefix
type Layout struct {
	Libraries []string // Relative paths to library directories
	Includes  []string // Relative paths to include directories
	PkgConfig []string // Relative paths to pkg-config directories
	Binaries  []string // Relative paths to binary directories
}

// Library represents a found library file
type Library struct {
	Name     string // Library name (e.g., "ssl")
	Path     string // Absolute path to library file
	Type     string // Extension: ".so", ".a", ".dylib", ".dll", ".lib"
	IsStatic bool   // True for .a files
}

// CompilerFlags holds compiler and linker flags
type CompilerFlags struct {
	IncludeFlags []string // -I flags
	LibraryFlags []string // -L flags
}

// Variable is a search-path environment variable exported on activation
type Variable struct {
	Name  string
	Paths []string
}

// Prefix is the root of a built environment
type Prefix struct {
	Root   string
	Layout Layout
}

// LayoutFor returns the layout of a prefix kind ("nix" or "fhs")
func LayoutFor(kind string) Layout {
	switch kind {
	case "fhs":
		return getFHSLayout()
	default:
		return getNixLayout()
	}
}

// Nix buildEnv outputs use a flat structure
func getNixLayout() Layout {
	return Layout{
		Libraries: []string{
			"lib",
			"lib64",
		},
		Includes: []string{
			"include",
		},
		PkgConfig: []string{
			filepath.Join("lib", "pkgconfig"),
			filepath.Join("share", "pkgconfig"),
		},
		Binaries: []string{
			"bin",
		},
	}
}

// FHS-like prefix (usr/ hierarchy)
func getFHSLayout() Layout {
	return Layout{
		Libraries: []string{
			filepath.Join("usr", "lib"),
			filepath.Join("lib"),
		},
		Includes: []string{
			filepath.Join("usr", "include"),
		},
		PkgConfig: []string{
			filepath.Join("usr", "lib", "pkgconfig"),
		},
		Binaries: []string{
			filepath.Join("usr", "bin"),
			filepath.Join("bin"),
		},
	}
}

// NewPrefix returns a prefix with the nix layout
func NewPrefix(root string) *Prefix {
	return &Prefix{Root: root, Layout: LayoutFor("nix")}
}

// existing joins rel paths onto the root and keeps the directories that exist
func (p *Prefix) existing(rels []string) []string {
	var dirs []string
	for _, rel := range rels {
		dir := filepath.Join(p.Root, rel)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// BinaryPaths returns the binary directories present in the prefix
func (p *Prefix) BinaryPaths() []string { return p.existing(p.Layout.Binaries) }

// LibraryPaths returns the library directories present in the prefix
func (p *Prefix) LibraryPaths() []string { return p.existing(p.Layout.Libraries) }

// IncludePaths returns the include directories present in the prefix
func (p *Prefix) IncludePaths() []string { return p.existing(p.Layout.Includes) }

// PkgConfigPaths returns the pkg-config directories present in the prefix
func (p *Prefix) PkgConfigPaths() []string { return p.existing(p.Layout.PkgConfig) }

// Variables returns the search-path variables to prepend on activation.
// Variables with no existing directory are omitted.
func (p *Prefix) Variables() []Variable {
	candidates := []Variable{
		{Name: "PATH", Paths: p.BinaryPaths()},
		{Name: "LIBRARY_PATH", Paths: p.LibraryPaths()},
		{Name: "C_INCLUDE_PATH", Paths: p.IncludePaths()},
		{Name: "PKG_CONFIG_PATH", Paths: p.PkgConfigPaths()},
	}

	var vars []Variable
	for _, v := range candidates {
		if len(v.Paths) > 0 {
			vars = append(vars, v)
		}
	}
	return vars
}

// CompilerFlags returns -I and -L flags for the prefix
func (p *Prefix) CompilerFlags() CompilerFlags {
	var flags CompilerFlags
	for _, dir := range p.IncludePaths() {
		flags.IncludeFlags = append(flags.IncludeFlags, "-I"+dir)
	}
	for _, dir := range p.LibraryPaths() {
		flags.LibraryFlags = append(flags.LibraryFlags, "-L"+dir)
	}
	return flags
}

// FindLibrary searches for a specific library by name.
// Returns the first match found in library search paths.
func (p *Prefix) FindLibrary(name string) *Library {
	for _, dir := range p.LibraryPaths() {
		for _, ext := range libraryExtensions() {
			// Try lib{name}{ext} pattern (e.g., libssl.so)
			filename := "lib" + name + ext
			fullPath := filepath.Join(dir, filename)

			if fileExists(fullPath) {
				return newLibrary(name, fullPath, ext)
			}

			// Try versioned: lib{name}{ext}.* (e.g., libssl.so.3)
			matches, _ := filepath.Glob(filepath.Join(dir, filename+"*"))
			if len(matches) > 0 {
				return newLibrary(name, matches[0], ext)
			}
		}
	}

	return nil
}

// ListLibraryNames returns the names of all libraries found, without duplicates
func (p *Prefix) ListLibraryNames() []string {
	var names []string
	seen := make(map[string]bool)

	for _, dir := range p.LibraryPaths() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !hasLibraryExtension(entry.Name()) {
				continue
			}
			// Strip "lib" prefix, extension and version
			libName := strings.TrimPrefix(entry.Name(), "lib")
			libName = strings.Split(libName, ".")[0]
			if !seen[libName] {
				names = append(names, libName)
				seen[libName] = true
			}
		}
	}
	return names
}

func newLibrary(name, path, ext string) *Library {
	return &Library{
		Name:     name,
		Path:     path,
		Type:     ext,
		IsStatic: ext == ".a" || ext == ".lib",
	}
}

func hasLibraryExtension(name string) bool {
	for _, ext := range libraryExtensions() {
		if strings.HasSuffix(name, ext) || strings.Contains(name, ext+".") {
			return true
		}
	}
	return false
}

// libraryExtensions returns file extensions to look for based on OS
func libraryExtensions() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{".dylib", ".a"}
	case "windows":
		return []string{".dll", ".lib"}
	default: // linux, etc.
		return []string{".so", ".a"}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
