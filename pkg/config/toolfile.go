package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scanrelay/scanrelay/pkg/registry"
)

// ToolFile is the YAML document operators use to register extra local tools
// without rebuilding the server. Example:
//
//	tools:
//	  - name: amass
//	    binary: amass
//	    description: In-depth attack surface mapping.
//	    requires_target: true
//	    default_args: [enum]
//	    target_hint: domain, e.g. example.com
//	    builder: flag
//	    target_flag: -d
type ToolFile struct {
	Tools []ToolSpec `yaml:"tools"`
}

// ToolSpec is one tool definition in the YAML file.
type ToolSpec struct {
	Name           string   `yaml:"name"`
	Binary         string   `yaml:"binary"`
	Description    string   `yaml:"description"`
	RequiresTarget bool     `yaml:"requires_target"`
	DefaultArgs    []string `yaml:"default_args"`
	TargetHint     string   `yaml:"target_hint"`
	Builder        string   `yaml:"builder"`     // default, flag, subcommand
	TargetFlag     string   `yaml:"target_flag"` // for builder: flag
	Verb           string   `yaml:"verb"`        // for builder: subcommand
}

// Descriptor converts the spec into a registry descriptor, validating the
// builder variant.
func (s ToolSpec) Descriptor() (registry.Descriptor, error) {
	if s.Name == "" {
		return registry.Descriptor{}, fmt.Errorf("tool with empty name")
	}
	if s.Binary == "" {
		return registry.Descriptor{}, fmt.Errorf("tool %s: binary required", s.Name)
	}

	var args registry.ArgSpec
	switch registry.BuilderKind(s.Builder) {
	case registry.BuilderDefault, "":
		args = registry.DefaultArgs()
	case registry.BuilderFlag:
		if s.TargetFlag == "" {
			return registry.Descriptor{}, fmt.Errorf("tool %s: builder flag requires target_flag", s.Name)
		}
		args = registry.FlagArgs(s.TargetFlag)
	case registry.BuilderSubcommand:
		if s.Verb == "" {
			return registry.Descriptor{}, fmt.Errorf("tool %s: builder subcommand requires verb", s.Name)
		}
		args = registry.SubcommandArgs(s.Verb)
	default:
		return registry.Descriptor{}, fmt.Errorf("tool %s: unknown builder %q", s.Name, s.Builder)
	}

	return registry.Descriptor{
		Name:           s.Name,
		Binary:         s.Binary,
		Description:    s.Description,
		RequiresTarget: s.RequiresTarget,
		DefaultArgs:    s.DefaultArgs,
		TargetHint:     s.TargetHint,
		Args:           args,
	}, nil
}

// LoadToolFile reads and validates a YAML tool file.
func LoadToolFile(path string) ([]registry.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tool file: %w", err)
	}

	var tf ToolFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse tool file %s: %w", path, err)
	}

	descriptors := make([]registry.Descriptor, 0, len(tf.Tools))
	for _, spec := range tf.Tools {
		d, err := spec.Descriptor()
		if err != nil {
			return nil, fmt.Errorf("tool file %s: %w", path, err)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// BuildCatalog combines the builtin catalog with the optional tool file.
// File entries are appended after the builtins; duplicate names are rejected
// by the registry.
func BuildCatalog(toolsFile string) ([]registry.Descriptor, error) {
	catalog := registry.BuiltinCatalog()
	if toolsFile == "" {
		return catalog, nil
	}
	extra, err := LoadToolFile(toolsFile)
	if err != nil {
		return nil, err
	}
	return append(catalog, extra...), nil
}
