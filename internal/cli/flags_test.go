package cli

import "testing"

func TestExtractFlagsBasic(t *testing.T) {
	f, err := extractFlags([]string{"-f", "runsheet.toml", "--cwd", "/work", "-e", "A=1", "-n", "--", "build", "extra"})
	if err != nil {
		t.Fatalf("extractFlags: %v", err)
	}
	if f.File != "runsheet.toml" || f.Cwd != "/work" || !f.DryRun {
		t.Fatalf("flags = %+v", f)
	}
	if f.Env["A"] != "1" {
		t.Errorf("env = %v", f.Env)
	}
	if len(f.Tokens) != 2 || f.Tokens[0] != "build" || f.Tokens[1] != "extra" {
		t.Errorf("tokens = %v", f.Tokens)
	}
}

func TestExtractFlagsStopsAtFirstNonFlag(t *testing.T) {
	f, err := extractFlags([]string{"-l", "build", "-e", "NOT_A_FLAG_HERE=1"})
	if err != nil {
		t.Fatalf("extractFlags: %v", err)
	}
	if !f.List {
		t.Error("expected List flag set")
	}
	if len(f.Tokens) != 3 || f.Tokens[0] != "build" {
		t.Errorf("tokens = %v, want flags to stop at first positional", f.Tokens)
	}
}

func TestExtractFlagsEqualsForm(t *testing.T) {
	f, err := extractFlags([]string{"--file=runsheet.toml", "--format=json", "--"})
	if err != nil {
		t.Fatalf("extractFlags: %v", err)
	}
	if f.File != "runsheet.toml" || f.Format != "json" {
		t.Fatalf("flags = %+v", f)
	}
}

func TestExtractFlagsRejectsBadFormat(t *testing.T) {
	_, err := extractFlags([]string{"--format", "xml"})
	if err == nil {
		t.Fatal("expected error for unsupported --format value")
	}
}

func TestExtractFlagsRejectsMalformedEnvOverride(t *testing.T) {
	_, err := extractFlags([]string{"-e", "NOVALUE"})
	if err == nil {
		t.Fatal("expected error for -e without '='")
	}
}
