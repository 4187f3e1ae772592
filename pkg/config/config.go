// Package config loads and validates the declarative bridge configuration
// that maps logical section names onto target files, marker tokens, and
// anchor policies. The registry is reloaded fresh on every invocation and
// treated as an immutable value for the lifetime of one run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigRelative is the bridge config location inside a project.
const DefaultConfigRelative = ".docbridge/bridge.yaml"

// CodeInvalidConfig is carried by every ConfigError; configuration problems
// are fatal and block all operations before any file is touched.
const CodeInvalidConfig = "DOC_BRIDGE_INVALID_CONFIG"

const invalidConfigRemediation = "Update .docbridge/bridge.yaml to match the bridge schema and section invariants."

// Mode selects how a section's content reaches its destination.
type Mode string

const (
	// ModeManaged writes a marker-delimited span inside a host Markdown file.
	ModeManaged Mode = "managed"
	// ModeExternal hands content to a target-specific adapter instead of
	// writing markers.
	ModeExternal Mode = "external"
)

// AnchorKind identifies the insertion policy for a not-yet-present region.
type AnchorKind string

const (
	AnchorAfterHeading AnchorKind = "after_heading"
	AnchorBeforeMarker AnchorKind = "before_marker"
	AnchorAppendEnd    AnchorKind = "append_end"
)

// Anchor describes where a new managed region is first materialized.
type Anchor struct {
	Kind  AnchorKind `json:"kind"`
	Value string     `json:"value,omitempty"`
}

// AdapterOptions carries adapter-specific settings for external sections.
type AdapterOptions struct {
	Title       string `yaml:"title" json:"title,omitempty"`
	Doc         string `yaml:"doc" json:"doc,omitempty"`
	InsertAfter string `yaml:"insert_after" json:"insert_after,omitempty"`
	Sidebar     string `yaml:"sidebar" json:"sidebar,omitempty"`
	DocID       string `yaml:"doc_id" json:"doc_id,omitempty"`
	Category    string `yaml:"category" json:"category,omitempty"`
	Space       string `yaml:"space" json:"space,omitempty"`
	AncestorID  string `yaml:"ancestor_id" json:"ancestor_id,omitempty"`
	Slug        string `yaml:"slug" json:"slug,omitempty"`
}

// SectionConfig is the immutable description of one bridge section.
type SectionConfig struct {
	Name     string         `json:"name"`
	Mode     Mode           `json:"mode"`
	Target   string         `json:"target"`
	Marker   string         `json:"marker,omitempty"`
	Anchor   Anchor         `json:"anchor"`
	Adapter  string         `json:"adapter,omitempty"`
	Options  AdapterOptions `json:"options,omitempty"`
	MaxBytes int            `json:"max_bytes,omitempty"`
}

// BridgeConfig is the validated section registry for one invocation.
type BridgeConfig struct {
	Version  int             `json:"version"`
	Root     string          `json:"root"`
	Sections []SectionConfig `json:"sections"`
	Path     string          `json:"path"`
	Exists   bool            `json:"exists"`
}

// ConfigError reports invalid configuration with a machine-readable code and
// a remediation string suitable for direct display.
type ConfigError struct {
	Code        string
	Message     string
	Remediation string
}

func (e *ConfigError) Error() string { return e.Message }

func invalid(format string, args ...interface{}) *ConfigError {
	return &ConfigError{
		Code:        CodeInvalidConfig,
		Message:     fmt.Sprintf(format, args...),
		Remediation: invalidConfigRemediation,
	}
}

// Section returns the section named name.
func (c *BridgeConfig) Section(name string) (SectionConfig, bool) {
	for _, s := range c.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return SectionConfig{}, false
}

// AbsoluteRoot resolves the docs root against the project root.
func (c *BridgeConfig) AbsoluteRoot(projectRoot string) string {
	if filepath.IsAbs(c.Root) {
		return c.Root
	}
	return filepath.Join(projectRoot, c.Root)
}

// TargetPath resolves a section's target file against the docs root.
func (c *BridgeConfig) TargetPath(projectRoot string, sec SectionConfig) string {
	return filepath.Join(c.AbsoluteRoot(projectRoot), filepath.FromSlash(sec.Target))
}

type rawSection struct {
	Mode               string         `yaml:"mode"`
	Target             string         `yaml:"target"`
	Marker             string         `yaml:"marker"`
	InsertAfterHeading string         `yaml:"insert_after_heading"`
	InsertBeforeMarker string         `yaml:"insert_before_marker"`
	Adapter            string         `yaml:"adapter"`
	MaxBytes           int            `yaml:"max_bytes"`
	Options            AdapterOptions `yaml:"options"`
}

type rawConfig struct {
	Version  int                   `yaml:"version"`
	Root     string                `yaml:"root"`
	Sections map[string]rawSection `yaml:"sections"`
}

// Resolve locates the bridge config file for a project. An explicit override
// wins; otherwise viper searches the project's .docbridge directory. A
// missing file is not an error: Load falls back to the default registry.
func Resolve(projectRoot, override string) (string, bool) {
	if override != "" {
		_, err := os.Stat(override)
		return override, err == nil
	}
	v := viper.New()
	v.SetConfigName("bridge")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(projectRoot, ".docbridge"))
	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed(), true
	}
	return filepath.Join(projectRoot, filepath.FromSlash(DefaultConfigRelative)), false
}

// Load reads, schema-validates, and decodes the bridge configuration.
// Invalid configuration yields a *ConfigError before any file is touched.
func Load(projectRoot, override string) (*BridgeConfig, error) {
	path, exists := Resolve(projectRoot, override)
	if !exists {
		cfg := Default()
		cfg.Path = path
		return cfg, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path resolved from project config discovery
	if err != nil {
		return nil, invalid("cannot read bridge config %s: %v", path, err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.Exists = true
	return cfg, nil
}

// Parse validates raw YAML bytes against the embedded schema and builds the
// typed registry, enforcing invariants the schema cannot express.
func Parse(data []byte, path string) (*BridgeConfig, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, invalid("invalid YAML in %s: %v", path, err)
	}
	if raw.Version != 1 {
		return nil, invalid("unsupported bridge config version %d in %s", raw.Version, path)
	}
	root := raw.Root
	if root == "" {
		root = "docs"
	}

	names := make([]string, 0, len(raw.Sections))
	for name := range raw.Sections {
		names = append(names, name)
	}
	sort.Strings(names)

	markerPerTarget := make(map[string]string) // target+"\x00"+marker -> section name
	sections := make([]SectionConfig, 0, len(names))
	for _, name := range names {
		def := raw.Sections[name]
		sec, err := buildSection(name, def)
		if err != nil {
			return nil, err
		}
		if sec.Mode == ModeManaged {
			key := sec.Target + "\x00" + sec.Marker
			if prev, dup := markerPerTarget[key]; dup {
				return nil, invalid("sections %q and %q share marker %q in target %q", prev, name, sec.Marker, sec.Target)
			}
			markerPerTarget[key] = name
		}
		sections = append(sections, sec)
	}

	return &BridgeConfig{
		Version:  raw.Version,
		Root:     root,
		Sections: sections,
		Path:     path,
	}, nil
}

func buildSection(name string, def rawSection) (SectionConfig, error) {
	if strings.TrimSpace(name) == "" {
		return SectionConfig{}, invalid("section names must be non-empty")
	}
	mode := Mode(def.Mode)
	if mode == "" {
		mode = ModeManaged
	}
	switch mode {
	case ModeManaged:
		if def.Target == "" {
			return SectionConfig{}, invalid("section %q must define 'target'", name)
		}
	case ModeExternal:
		if def.Adapter == "" {
			return SectionConfig{}, invalid("section %q requires 'adapter' when mode is external", name)
		}
		if def.Target == "" {
			return SectionConfig{}, invalid("section %q requires 'target' when mode is external", name)
		}
	default:
		return SectionConfig{}, invalid("unsupported mode %q for section %q", def.Mode, name)
	}

	if def.InsertAfterHeading != "" && def.InsertBeforeMarker != "" {
		return SectionConfig{}, invalid("section %q cannot set both insert_after_heading and insert_before_marker", name)
	}
	anchor := Anchor{Kind: AnchorAppendEnd}
	if v := strings.TrimSpace(def.InsertAfterHeading); v != "" {
		anchor = Anchor{Kind: AnchorAfterHeading, Value: v}
	} else if v := strings.TrimSpace(def.InsertBeforeMarker); v != "" {
		anchor = Anchor{Kind: AnchorBeforeMarker, Value: v}
	}

	marker := def.Marker
	if mode == ModeManaged && marker == "" {
		marker = "docbridge-" + name
	}

	return SectionConfig{
		Name:     name,
		Mode:     mode,
		Target:   def.Target,
		Marker:   marker,
		Anchor:   anchor,
		Adapter:  def.Adapter,
		Options:  def.Options,
		MaxBytes: def.MaxBytes,
	}, nil
}

// Default is the registry used by projects without a bridge config file.
func Default() *BridgeConfig {
	return &BridgeConfig{
		Version: 1,
		Root:    "docs",
		Sections: []SectionConfig{
			{
				Name:   "adr_index",
				Mode:   ModeManaged,
				Target: "adr/index.md",
				Marker: "docbridge-adr-index",
				Anchor: Anchor{Kind: AnchorAppendEnd},
			},
			{
				Name:   "architecture_overview",
				Mode:   ModeManaged,
				Target: "architecture/overview.md",
				Marker: "docbridge-architecture-overview",
				Anchor: Anchor{Kind: AnchorAppendEnd},
			},
			{
				Name:   "rfc_index",
				Mode:   ModeManaged,
				Target: "rfc/index.md",
				Marker: "docbridge-rfc-index",
				Anchor: Anchor{Kind: AnchorAppendEnd},
			},
		},
	}
}
