package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/arc-language/uenv/pkg/core"
	"github.com/arc-language/uenv/pkg/registry"
)

// cacheRecord is an entry of a binary-cache JSON index
type cacheRecord struct {
	Attribute   string `json:"Attribute"`
	NameVersion string `json:"NameVersion"`
	StorePath   string `json:"StorePath"`
}

// Load reads an index from path. Directories are read as a deps/ registry,
// files are dispatched on their extension (.json, .jsonc, .yaml, .yml).
func Load(path string) (*Index, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	if info.IsDir() {
		return LoadRegistry(path)
	}
	return LoadFile(path)
}

// LoadFile reads a single index file
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", ".jsonc":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported index format: %q", ext)
	}
}

// ParseJSON parses a JSON index. Comments and trailing commas are tolerated.
func ParseJSON(data []byte) (*Index, error) {
	var records []cacheRecord
	if err := json.Unmarshal(jsonc.ToJSON(data), &records); err != nil {
		return nil, fmt.Errorf("parsing json index: %w", err)
	}

	ix := New()
	for i, rec := range records {
		if rec.Attribute == "" {
			return nil, fmt.Errorf("parsing json index: record %d has no Attribute", i)
		}
		_, version := core.SplitNameVersion(rec.NameVersion)
		ix.Set(core.PackageRef{
			Name:      rec.Attribute,
			Attribute: rec.Attribute,
			Version:   version,
			StorePath: rec.StorePath,
			Origin:    core.OriginBase,
		})
	}
	return ix, nil
}

// ParseYAML parses a YAML list of package references
func ParseYAML(data []byte) (*Index, error) {
	var refs []core.PackageRef
	if err := yaml.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("parsing yaml index: %w", err)
	}

	ix := New()
	for i, ref := range refs {
		if ref.Name == "" {
			return nil, fmt.Errorf("parsing yaml index: entry %d has no name", i)
		}
		ix.Set(ref.WithOrigin(core.OriginBase))
	}
	return ix, nil
}

// LoadRegistry reads every entry of a deps/ registry rooted at dir
func LoadRegistry(dir string) (*Index, error) {
	entries, err := registry.New(dir).LoadAll()
	if err != nil {
		return nil, err
	}

	ix := New()
	for _, entry := range entries {
		ix.Set(entry.Ref().WithOrigin(core.OriginBase))
	}
	return ix, nil
}
