// Package options parses the create command's raw argument vector. The create
// surface deliberately bypasses cobra flag parsing: single-dash tokens cluster
// getopt-style, and unrecognized flags must be preserved in order for the
// backend, which pflag cannot do.
package options

import (
	"fmt"
	"strings"

	"github.com/venvman/venvman/internal/messages"
)

// Set is the parsed uniform option surface for create.
type Set struct {
	Force          bool
	Upgrade        bool
	Quiet          bool
	Verbose        bool
	SkipPip        bool
	SkipSetuptools bool
	// PythonOverride is the interpreter requested via -p/--python. It is never
	// forwarded verbatim; each backend translates it into its own flag.
	PythonOverride string

	// Version, Help, and Complete short-circuit the build.
	Version  bool
	Help     bool
	Complete bool
}

// Parsed bundles the option set with positional arguments and the residual
// backend passthrough flags.
type Parsed struct {
	Options     Set
	Positionals []string
	// Passthrough holds unrecognized flags, re-prefixed with a double dash,
	// in their original order.
	Passthrough []string
}

// Parse consumes the raw argument vector. A token starting with a single dash
// is split into one flag per character; a double-dash token is one long flag;
// anything else is positional.
func Parse(argv []string) (Parsed, error) {
	var parsed Parsed
	for i := 0; i < len(argv); i++ {
		token := argv[i]
		switch {
		case strings.HasPrefix(token, "--"):
			consumed, err := parseLong(&parsed, token, argv[i+1:])
			if err != nil {
				return Parsed{}, err
			}
			i += consumed
		case strings.HasPrefix(token, "-") && len(token) > 1:
			consumed, err := parseShortCluster(&parsed, token, argv[i+1:])
			if err != nil {
				return Parsed{}, err
			}
			i += consumed
		default:
			parsed.Positionals = append(parsed.Positionals, token)
		}
	}
	if parsed.Options.Quiet && parsed.Options.Verbose {
		return Parsed{}, fmt.Errorf(messages.OptionsQuietVerboseConflict)
	}
	return parsed, nil
}

// parseLong handles a --name or --name=value token. It returns how many
// following tokens were consumed as values.
func parseLong(parsed *Parsed, token string, rest []string) (int, error) {
	name, value, hasValue := strings.Cut(strings.TrimPrefix(token, "--"), "=")
	switch name {
	case "force":
		parsed.Options.Force = true
	case "upgrade":
		parsed.Options.Upgrade = true
	case "quiet":
		parsed.Options.Quiet = true
	case "verbose", "debug":
		parsed.Options.Verbose = true
	case "no-pip", "without-pip":
		parsed.Options.SkipPip = true
	case "no-setuptools":
		parsed.Options.SkipSetuptools = true
	case "python":
		if hasValue {
			parsed.Options.PythonOverride = value
			return 0, nil
		}
		if len(rest) == 0 {
			return 0, fmt.Errorf(messages.OptionsUnknownValueFmt, token)
		}
		parsed.Options.PythonOverride = rest[0]
		return 1, nil
	case "version":
		parsed.Options.Version = true
	case "help":
		parsed.Options.Help = true
	case "complete":
		parsed.Options.Complete = true
	default:
		// Preserved verbatim for the backend.
		if hasValue {
			parsed.Passthrough = append(parsed.Passthrough, "--"+name+"="+value)
		} else {
			parsed.Passthrough = append(parsed.Passthrough, "--"+name)
		}
	}
	return 0, nil
}

// parseShortCluster splits -abc into one flag per character. It returns how
// many following tokens were consumed as values.
func parseShortCluster(parsed *Parsed, token string, rest []string) (int, error) {
	consumed := 0
	chars := strings.TrimPrefix(token, "-")
	for idx, ch := range chars {
		switch ch {
		case 'f':
			parsed.Options.Force = true
		case 'q':
			parsed.Options.Quiet = true
		case 'v':
			parsed.Options.Verbose = true
		case 'u':
			parsed.Options.Upgrade = true
		case 'h':
			parsed.Options.Help = true
		case 'p':
			// -p consumes the remainder of the cluster as its value if
			// present, otherwise the next token.
			remainder := chars[idx+len(string(ch)):]
			if remainder != "" {
				parsed.Options.PythonOverride = remainder
				return consumed, nil
			}
			if len(rest) <= consumed {
				return 0, fmt.Errorf(messages.OptionsUnknownValueFmt, "-p")
			}
			parsed.Options.PythonOverride = rest[consumed]
			consumed++
			return consumed, nil
		default:
			// Unknown short flags travel to the backend re-prefixed with a
			// double dash, matching the uniform passthrough convention.
			parsed.Passthrough = append(parsed.Passthrough, "--"+string(ch))
		}
	}
	return consumed, nil
}
