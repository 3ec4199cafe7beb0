// parser.go
package nix

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNARInfo parses a .narinfo file
func ParseNARInfo(content string) (*NARInfo, error) {
	info := &NARInfo{}
	lines := strings.Split(content, "\n")

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "StorePath":
			info.StorePath = value
		case "URL":
			info.URL = value
		case "Compression":
			info.Compression = value
		case "FileHash":
			info.FileHash = value
		case "FileSize":
			info.FileSize, err = strconv.ParseInt(value, 10, 64)
		case "NarHash":
			info.NarHash = value
		case "NarSize":
			info.NarSize, err = strconv.ParseInt(value, 10, 64)
		case "References":
			if value != "" {
				info.References = strings.Fields(value)
			}
		case "Deriver":
			info.Deriver = value
		case "Sig":
			info.Signature = value
		}
		if err != nil {
			return nil, fmt.Errorf("parsing narinfo %s: %w", key, err)
		}
	}

	if info.StorePath == "" {
		return nil, fmt.Errorf("missing StorePath in narinfo")
	}
	if info.Compression == "" {
		info.Compression = CompressionBZip2
	}

	return info, nil
}
