package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads and unmarshals a Manifest from path, choosing the codec by
// file extension: .yaml/.yml via gopkg.in/yaml.v3 (the teacher's own
// node-tree format), .toml via BurntSushi/toml (picked up from the pack for
// the TOML variant the distilled spec's "YAML/TOML/JSON node tree" names).
// JSON manifests are accepted too, since YAML is a superset of JSON and the
// yaml.v3 decoder parses both.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read %s: %w", path, err)
	}

	var m Manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("model: parse toml %s: %w", path, err)
		}
	case ".yaml", ".yml", ".json":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("model: parse yaml %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("model: unsupported manifest extension %q", ext)
	}

	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseBytes unmarshals a Manifest already read into memory — used when the
// bytes came from a vcs.Backend revision rather than the live filesystem —
// choosing the codec by hintPath's extension the same way Load does.
func ParseBytes(data []byte, hintPath string) (*Manifest, error) {
	var m Manifest
	switch ext := strings.ToLower(filepath.Ext(hintPath)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("model: parse toml: %w", err)
		}
	case ".yaml", ".yml", ".json":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("model: parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("model: unsupported manifest extension %q", ext)
	}

	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

var validate = validator.New()

// hostEntry and procEntry are struct-tag-validated mirrors of the fields
// that matter per host/proc — go-playground/validator/v10 operates on
// struct tags, and Manifest's own fields are keyed maps, not directly
// taggable for "required".
type hostEntry struct {
	Hostname string `validate:"required,hostname_rfc1123|fqdn"`
	SSHDest  string `validate:"required"`
}

type procEntry struct {
	Kind string `validate:"required,oneof=exec check update"`
	Run  int    `validate:"gte=0"`
}

// Validate checks a loaded Manifest's structural invariants: every host has
// a hostname and SSH destination, every proc names a known kind, and
// ProcUpdateKind is the only kind permitted to declare Watches.
func Validate(m *Manifest) error {
	for name, h := range m.Hosts {
		if err := validate.Struct(hostEntry{Hostname: h.Hostname, SSHDest: h.SSHDest}); err != nil {
			return fmt.Errorf("model: host %q: %w", name, err)
		}
	}

	for name, p := range m.Procs {
		if err := validate.Struct(procEntry{Kind: string(p.Kind), Run: len(p.Run)}); err != nil {
			return fmt.Errorf("model: proc %q: %w", name, err)
		}
		if len(p.Watches) > 0 && p.Kind != ProcUpdateKind {
			return fmt.Errorf("model: proc %q: watch is only valid on an update proc", name)
		}
	}

	return nil
}
