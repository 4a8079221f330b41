package registry

// BuilderKind selects one of the argument construction strategies.
// Each supported tool's CLI falls into one of three calling conventions;
// a tagged variant evaluated by a single dispatch keeps the set closed.
type BuilderKind string

const (
	// BuilderDefault appends the target after all arguments:
	//   [binary, args..., target?]
	BuilderDefault BuilderKind = "default"

	// BuilderFlag places the target right after a named flag, before any
	// other arguments:
	//   [binary, flag, target?, args...]
	// Used by tools like dirsearch (-u), subfinder (-d), nuclei (-u).
	// Note the target comes before the extra arguments in this family,
	// unlike BuilderDefault.
	BuilderFlag BuilderKind = "flag"

	// BuilderSubcommand places the target after a verb:
	//   [binary, verb, target?, args...]
	// Used by verb-style CLIs like dalfox ("url").
	BuilderSubcommand BuilderKind = "subcommand"
)

// ArgSpec captures a tool's CLI calling convention as data.
type ArgSpec struct {
	Kind BuilderKind `json:"kind" yaml:"kind"`

	// Flag is the target flag for BuilderFlag (e.g. "-u", "-d").
	Flag string `json:"flag,omitempty" yaml:"flag,omitempty"`

	// Verb is the subcommand for BuilderSubcommand (e.g. "url").
	Verb string `json:"verb,omitempty" yaml:"verb,omitempty"`
}

// Build produces the literal argument vector handed to process creation.
// The vector starts with the resolved binary path. Pure and deterministic:
// no validation happens here (the HTTP boundary rejects missing targets
// before this point), and arguments are never joined into a shell string.
// Target and args pass through as single literal tokens, so shell
// metacharacters are inert.
func (s ArgSpec) Build(binaryPath, target string, args []string) []string {
	argv := make([]string, 0, len(args)+3)
	argv = append(argv, binaryPath)

	switch s.Kind {
	case BuilderFlag:
		if target != "" {
			argv = append(argv, s.Flag, target)
		}
		argv = append(argv, args...)
	case BuilderSubcommand:
		argv = append(argv, s.Verb)
		if target != "" {
			argv = append(argv, target)
		}
		argv = append(argv, args...)
	default:
		argv = append(argv, args...)
		if target != "" {
			argv = append(argv, target)
		}
	}
	return argv
}

// FlagArgs returns an ArgSpec for the flag-prefixed family.
func FlagArgs(flag string) ArgSpec {
	return ArgSpec{Kind: BuilderFlag, Flag: flag}
}

// SubcommandArgs returns an ArgSpec for verb-style CLIs.
func SubcommandArgs(verb string) ArgSpec {
	return ArgSpec{Kind: BuilderSubcommand, Verb: verb}
}

// DefaultArgs returns the default target-last ArgSpec.
func DefaultArgs() ArgSpec {
	return ArgSpec{Kind: BuilderDefault}
}
