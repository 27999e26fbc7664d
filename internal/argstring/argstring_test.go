package argstring

import "testing"

func TestInterpolate(t *testing.T) {
	cases := []struct {
		name     string
		template string
		args     []string
		want     string
	}{
		{"literal", "echo hi", nil, "echo hi"},
		{"positional", "echo $1", []string{"world"}, "echo world"},
		{"positional missing", "echo $1", nil, "echo "},
		{"default used", "echo ${1:-stranger}", nil, "echo stranger"},
		{"default overridden", "echo ${1:-stranger}", []string{"alice"}, "echo alice"},
		{"default with spaces", "echo ${1:-hello there}", nil, "echo hello there"},
		{"at sign", "run $@", []string{"a", "b"}, "run a b"},
		{"star", "run $*", []string{"a", "b"}, "run a b"},
		{"dollar escape", "price is $$5", nil, "price is $5"},
		{"empty template", "", []string{"a", "b"}, "a b"},
		{"multi digit index", "echo $10", makeArgs(10), "echo arg10"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Interpolate(tc.template, tc.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Text != tc.want {
				t.Errorf("Interpolate(%q, %v) = %q, want %q", tc.template, tc.args, got.Text, tc.want)
			}
		})
	}
}

func makeArgs(n int) []string {
	args := make([]string, n)
	for i := range args {
		args[i] = "arg" + itoa(i+1)
	}
	return args
}

func itoa(n int) string {
	if n < 10 {
		return string([]byte{byte('0' + n)})
	}
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

func TestInterpolateBadPlaceholder(t *testing.T) {
	cases := []string{"echo $", "echo ${1", "echo ${abc}", "echo $-"}
	for _, tmpl := range cases {
		if _, err := Interpolate(tmpl, nil); err == nil {
			t.Errorf("Interpolate(%q) expected BadPlaceholder, got nil", tmpl)
		}
	}
}

func TestUsedIndices(t *testing.T) {
	res, err := Interpolate("echo $1 $3", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Used[1] || !res.Used[3] {
		t.Fatalf("expected indices 1 and 3 marked used, got %v", res.Used)
	}
	if res.Used[2] {
		t.Fatalf("index 2 should not be marked used")
	}
	if res.All {
		t.Fatalf("All should be false when no $@/$* present")
	}
}

func TestAppendUnused(t *testing.T) {
	res, err := Interpolate("echo $1", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := AppendUnused(res.Text, []string{"a", "b", "c"}, res)
	want := "echo a b c"
	if got != want {
		t.Errorf("AppendUnused = %q, want %q", got, want)
	}
}

func TestAppendUnusedNoopWhenAll(t *testing.T) {
	res, err := Interpolate("echo $@", []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := AppendUnused(res.Text, []string{"a", "b"}, res)
	if got != res.Text {
		t.Errorf("AppendUnused should be a no-op when $@ is present, got %q", got)
	}
}

func TestHasPlaceholder(t *testing.T) {
	cases := map[string]bool{
		"echo hi":          false,
		"echo $1":          true,
		"echo ${1:-x}":     true,
		"echo $@":          true,
		"echo $$":          false,
		"price is $$5 now": false,
	}
	for tmpl, want := range cases {
		if got := HasPlaceholder(tmpl); got != want {
			t.Errorf("HasPlaceholder(%q) = %v, want %v", tmpl, got, want)
		}
	}
}
