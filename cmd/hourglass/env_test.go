package main

import "testing"

func TestResolveID(t *testing.T) {
	ids := []string{"a1b2c3d4-0000", "a1ff0000-1111", "b0000000-2222"}

	got, err := resolveID("b0", ids)
	if err != nil || got != "b0000000-2222" {
		t.Fatalf("resolveID(b0) = %q, %v", got, err)
	}
	if got, err := resolveID("a1ff0000-1111", ids); err != nil || got != "a1ff0000-1111" {
		t.Fatalf("Exact id should match, got %q, %v", got, err)
	}
	if _, err := resolveID("a1", ids); err == nil {
		t.Error("Expected ambiguous prefix error")
	}
	if _, err := resolveID("zz", ids); err == nil {
		t.Error("Expected no-match error")
	}
}

func TestTruncateID(t *testing.T) {
	if got := truncateID("a1b2c3d4-0000"); got != "a1b2c3d4" {
		t.Errorf("Unexpected short id %q", got)
	}
	if got := truncateID("abc"); got != "abc" {
		t.Errorf("Short ids stay as they are, got %q", got)
	}
	if got := truncate("hello world", 8); got != "hello..." {
		t.Errorf("Unexpected truncation %q", got)
	}
}

func TestPlanCommandsRegistered(t *testing.T) {
	for _, path := range [][]string{
		{"plan", "add"},
		{"plan", "show"},
		{"plan", "set"},
		{"plan", "item", "add"},
		{"plan", "item", "done"},
		{"plan", "item", "rm"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("Expected command %v, got %v (%v)", path, cmd, err)
		}
	}
	if f := planSetCmd.Flags().Lookup("status"); f == nil {
		t.Error("Expected plan set to take --status")
	}
}
