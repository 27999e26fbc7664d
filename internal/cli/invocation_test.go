package cli

import "testing"

func TestScanInvocationsSingleTask(t *testing.T) {
	got, err := scanInvocations([]string{"build", "--release"})
	if err != nil {
		t.Fatalf("scanInvocations: %v", err)
	}
	if len(got) != 1 || got[0].Name != "build" || len(got[0].Args) != 1 || got[0].Args[0] != "--release" {
		t.Fatalf("got %+v", got)
	}
}

func TestScanInvocationsMultipleColonSeparated(t *testing.T) {
	got, err := scanInvocations([]string{"lint", ":", "test", "-v", ":", "build"})
	if err != nil {
		t.Fatalf("scanInvocations: %v", err)
	}
	want := []Invocation{
		{Name: "lint", Args: nil},
		{Name: "test", Args: []string{"-v"}},
		{Name: "build", Args: nil},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d invocations, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Name != want[i].Name {
			t.Errorf("invocation %d name = %q, want %q", i, got[i].Name, want[i].Name)
		}
	}
}

func TestScanInvocationsEmptySegmentIsError(t *testing.T) {
	_, err := scanInvocations([]string{"lint", ":", ":", "build"})
	if err == nil {
		t.Fatal("expected error for empty segment between ':' separators")
	}
}

func TestScanInvocationsNoTokens(t *testing.T) {
	got, err := scanInvocations(nil)
	if err != nil {
		t.Fatalf("scanInvocations: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}
