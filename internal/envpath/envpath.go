// Package envpath computes canonical and legacy filesystem paths for a new
// environment under the version manager's directory conventions.
package envpath

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/venvman/venvman/internal/messages"
)

// SystemVersion is the reserved sentinel for the system interpreter.
const SystemVersion = "system"

// Paths holds the resolved locations for an environment.
type Paths struct {
	// Name is the resolved name relative to the versions directory, e.g.
	// "3.9.0/envs/tools" or "tools" for a system-based environment.
	Name string
	// Canonical is the primary directory for the environment.
	Canonical string
	// Legacy is the compatibility path older tooling expects.
	Legacy string
}

// NeedsCompatLink reports whether a compatibility symlink should be
// maintained. A link is only created when the legacy path is distinct from
// the canonical one.
func (p Paths) NeedsCompatLink() bool {
	return p.Legacy != "" && p.Legacy != p.Canonical
}

// BinDir returns the environment's executable directory.
func (p Paths) BinDir() string {
	return filepath.Join(p.Canonical, "bin")
}

// PrefixLookup resolves the existing version-root segment for a source
// version, reporting ok=false when none is installed. It lets the resolver
// reuse a previously materialized version tree whose on-disk segment differs
// from the requested version string.
type PrefixLookup func(version string) (segment string, ok bool)

// ValidateName enforces the environment name constraints: not the reserved
// sentinel, no whitespace, and at most one path segment unless the name
// already matches the canonical <version>/envs/<name> shape.
func ValidateName(name string) error {
	if name == "" || path.Base(name) == SystemVersion {
		return fmt.Errorf(messages.ValidateNameReserved)
	}
	if strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf(messages.ValidateNameWhitespaceFmt, name)
	}
	segments := strings.Split(strings.Trim(name, "/"), "/")
	if len(segments) > 1 && !isCanonicalShape(segments) {
		return fmt.Errorf(messages.ValidateNameShapeFmt, name)
	}
	return nil
}

func isCanonicalShape(segments []string) bool {
	return len(segments) == 3 && segments[1] == "envs"
}

// Resolve computes the environment paths from the version manager root, the
// source version, and the requested name.
//
// Resolution rules, in order:
//  1. A "system" source flattens: the canonical name is the final segment of
//     the requested name, with no envs nesting.
//  2. If lookup reports an existing version tree under a different on-disk
//     segment, that segment is reused.
//  3. Otherwise the canonical name is <version>/envs/<final segment>.
//
// The legacy path is always <root>/versions/<final segment>; callers consult
// NeedsCompatLink to decide whether a symlink is warranted.
func Resolve(root, sourceVersion, name string, lookup PrefixLookup) (Paths, error) {
	if err := ValidateName(name); err != nil {
		return Paths{}, err
	}
	if sourceVersion == "" {
		return Paths{}, fmt.Errorf(messages.ValidateVersionRequired)
	}

	final := path.Base(strings.Trim(name, "/"))
	resolved := resolveName(sourceVersion, name, final, lookup)

	versionsDir := filepath.Join(root, "versions")
	paths := Paths{
		Name:      resolved,
		Canonical: filepath.Join(versionsDir, filepath.FromSlash(resolved)),
		Legacy:    filepath.Join(versionsDir, final),
	}
	return paths, nil
}

func resolveName(sourceVersion, name, final string, lookup PrefixLookup) string {
	if sourceVersion == SystemVersion {
		// Never create a system/envs directory.
		return final
	}
	if segments := strings.Split(strings.Trim(name, "/"), "/"); isCanonicalShape(segments) {
		// The requested name already carries the canonical nesting.
		return strings.Trim(name, "/")
	}
	if lookup != nil {
		if segment, ok := lookup(sourceVersion); ok && segment != "" && segment != sourceVersion {
			return segment + "/envs/" + final
		}
	}
	return sourceVersion + "/envs/" + final
}
