package envpath

import (
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "myenv", false},
		{"canonical shape", "3.9.0/envs/myenv", false},
		{"reserved", "system", true},
		{"reserved final segment", "3.9.0/envs/system", true},
		{"whitespace", "my env", true},
		{"tab", "my\tenv", true},
		{"two segments", "foo/bar", true},
		{"wrong middle segment", "3.9.0/lib/myenv", true},
		{"empty", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.input)
			if tc.wantErr && err == nil {
				t.Fatalf("ValidateName(%q) = nil, want error", tc.input)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("ValidateName(%q) = %v", tc.input, err)
			}
		})
	}
}

func TestResolveVersioned(t *testing.T) {
	paths, err := Resolve("/R", "3.9.0", "myenv", nil)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if paths.Canonical != "/R/versions/3.9.0/envs/myenv" {
		t.Fatalf("canonical = %s", paths.Canonical)
	}
	if paths.Legacy != "/R/versions/myenv" {
		t.Fatalf("legacy = %s", paths.Legacy)
	}
	if !paths.NeedsCompatLink() {
		t.Fatal("versioned environment should keep a compatibility link")
	}
}

func TestResolveSystemFlattens(t *testing.T) {
	paths, err := Resolve("/R", "system", "myenv", nil)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if paths.Canonical != "/R/versions/myenv" {
		t.Fatalf("canonical = %s", paths.Canonical)
	}
	if paths.NeedsCompatLink() {
		t.Fatal("system environment must not get a compatibility link")
	}
}

func TestResolveReusesExistingSegment(t *testing.T) {
	lookup := func(version string) (string, bool) {
		if version == "3.9" {
			return "3.9.18", true
		}
		return "", false
	}
	paths, err := Resolve("/R", "3.9", "myenv", lookup)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if paths.Canonical != "/R/versions/3.9.18/envs/myenv" {
		t.Fatalf("canonical = %s", paths.Canonical)
	}
}

func TestResolveCanonicalShapeNamePreserved(t *testing.T) {
	paths, err := Resolve("/R", "3.9.0", "3.8.2/envs/other", nil)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if paths.Canonical != "/R/versions/3.8.2/envs/other" {
		t.Fatalf("canonical = %s", paths.Canonical)
	}
	if paths.Legacy != "/R/versions/other" {
		t.Fatalf("legacy = %s", paths.Legacy)
	}
}

// A name whose final segment happens to be "envs" is a single segment and
// resolves like any other; the string-shape rule only fires on the full
// <version>/envs/<name> form.
func TestResolveEnvsLiteralName(t *testing.T) {
	paths, err := Resolve("/R", "3.9.0", "envs", nil)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if paths.Canonical != "/R/versions/3.9.0/envs/envs" {
		t.Fatalf("canonical = %s", paths.Canonical)
	}
}

func TestResolveMissingVersion(t *testing.T) {
	if _, err := Resolve("/R", "", "myenv", nil); err == nil {
		t.Fatal("expected error for empty source version")
	}
}
