package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[google_books]") {
		t.Fatalf("sample missing sections: %s", data)
	}

	// Refuses to clobber without --overwrite.
	cmd = newRootCommand()
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error without --overwrite")
	}
}

func TestParseSinceDays(t *testing.T) {
	cases := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"", 0, true},
		{"30", 30, true},
		{"30d", 30, true},
		{" 7d ", 7, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"month", 0, false},
	}
	for _, tc := range cases {
		got, err := parseSinceDays(tc.raw)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("parseSinceDays(%q) = %d, %v; want %d", tc.raw, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("parseSinceDays(%q): expected error", tc.raw)
		}
	}
}

func TestRenderTableHandlesRaggedRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"1"}, {"2", "3"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "A") || !strings.Contains(out, "3") {
		t.Fatalf("unexpected table output: %s", out)
	}
}
