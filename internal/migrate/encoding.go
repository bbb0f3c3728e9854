package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ownerchain/internal/ir"
)

// Format is a bundle file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Anything other than
// .yaml or .yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat validates a format name. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown bundle format %q (want json or yaml)", s)
	}
}

// Encode serializes a bundle. JSON output is indented for human review.
func Encode(b Bundle, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return nil, fmt.Errorf("encode yaml bundle: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml bundle: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json bundle: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown bundle format %q", f)
	}
}

// Decode reads the schema version tag and decodes data into the bundle type
// of that version. An unknown version is UNSUPPORTED_VERSION.
func Decode(data []byte, f Format) (Bundle, error) {
	unmarshal := json.Unmarshal
	if f == FormatYAML {
		unmarshal = yaml.Unmarshal
	}

	var h Header
	if err := unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode bundle header: %w", err)
	}

	var b Bundle
	switch h.SchemaVersion {
	case Version1_0:
		b = &BundleV1_0{}
	case Version1_1:
		b = &BundleV1_1{}
	case Version1_6:
		b = &BundleV1_6{}
	case Version1_9:
		b = &BundleV1_9{}
	case "":
		return nil, ir.NewError(ir.CodeUnsupportedVersion, "bundle has no schema_version")
	default:
		return nil, ir.NewError(ir.CodeUnsupportedVersion,
			fmt.Sprintf("bundle schema version %q is not supported", h.SchemaVersion))
	}

	if err := unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("decode %s bundle: %w", h.SchemaVersion, err)
	}
	return b, nil
}

// Digest returns the content digest of a bundle: the hash of its canonical
// JSON form. Equal bundles have equal digests regardless of file format.
// Bundles with null lists have no canonical form; Export never produces them.
func Digest(b Bundle) (string, error) {
	return ir.BundleDigest(b)
}
