package options

import (
	"reflect"
	"testing"
)

func TestParseLongFlags(t *testing.T) {
	parsed, err := Parse([]string{"--force", "--upgrade", "--no-pip", "3.9.0", "tools"})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !parsed.Options.Force || !parsed.Options.Upgrade || !parsed.Options.SkipPip {
		t.Fatalf("expected force, upgrade, and no-pip to be set: %+v", parsed.Options)
	}
	if got := parsed.Positionals; !reflect.DeepEqual(got, []string{"3.9.0", "tools"}) {
		t.Fatalf("positionals = %v", got)
	}
	if len(parsed.Passthrough) != 0 {
		t.Fatalf("unexpected passthrough: %v", parsed.Passthrough)
	}
}

func TestParseShortCluster(t *testing.T) {
	parsed, err := Parse([]string{"-fq", "tools"})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !parsed.Options.Force || !parsed.Options.Quiet {
		t.Fatalf("expected force and quiet: %+v", parsed.Options)
	}
}

func TestParsePythonOverrideForms(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"long inline", []string{"--python=python3.11", "tools"}, "python3.11"},
		{"long separate", []string{"--python", "python3.11", "tools"}, "python3.11"},
		{"short separate", []string{"-p", "python3.11", "tools"}, "python3.11"},
		{"short attached", []string{"-ppython3.11", "tools"}, "python3.11"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if parsed.Options.PythonOverride != tc.want {
				t.Fatalf("PythonOverride = %q, want %q", parsed.Options.PythonOverride, tc.want)
			}
			if !reflect.DeepEqual(parsed.Positionals, []string{"tools"}) {
				t.Fatalf("positionals = %v", parsed.Positionals)
			}
			if len(parsed.Passthrough) != 0 {
				t.Fatalf("python override must never reach passthrough: %v", parsed.Passthrough)
			}
		})
	}
}

func TestParsePythonOverrideMissingValue(t *testing.T) {
	if _, err := Parse([]string{"-p"}); err == nil {
		t.Fatal("expected error for -p without a value")
	}
	if _, err := Parse([]string{"--python"}); err == nil {
		t.Fatal("expected error for --python without a value")
	}
}

func TestParsePassthroughPreservedInOrder(t *testing.T) {
	parsed, err := Parse([]string{"--system-site-packages", "--prompt=myenv", "-x", "tools"})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := []string{"--system-site-packages", "--prompt=myenv", "--x"}
	if !reflect.DeepEqual(parsed.Passthrough, want) {
		t.Fatalf("passthrough = %v, want %v", parsed.Passthrough, want)
	}
}

func TestParseQuietVerboseConflict(t *testing.T) {
	if _, err := Parse([]string{"--quiet", "--verbose", "tools"}); err == nil {
		t.Fatal("expected error for --quiet with --verbose")
	}
}

func TestParseModeFlags(t *testing.T) {
	parsed, err := Parse([]string{"--version"})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !parsed.Options.Version {
		t.Fatal("expected version flag")
	}

	parsed, err = Parse([]string{"--complete"})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !parsed.Options.Complete {
		t.Fatal("expected complete flag")
	}
}
