package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlagsOverridesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minicore.yaml")
	doc := "simulation:\n  bodies: 10\n  fps: 30\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	_, c, err := parseFlags([]string{"-config", path, "-bodies", "50"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if c.Simulation.Bodies != 50 {
		t.Errorf("Bodies = %d, want the flag value 50", c.Simulation.Bodies)
	}
	if c.Simulation.FPS != 30 {
		t.Errorf("FPS = %d, want the file value 30", c.Simulation.FPS)
	}
}

func TestParseFlagsRejectsInvalidOptions(t *testing.T) {
	tests := [][]string{
		{"-batch", "-1"},
		{"-batch", "2", "-batch-steps", "0"},
		{"-workers", "0"},
		{"-fps", "0"},
	}
	for _, args := range tests {
		if _, _, err := parseFlags(args); err == nil {
			t.Errorf("parseFlags(%q) succeeded", args)
		}
	}
}

func TestRunFlushesCPUProfileOnError(t *testing.T) {
	dir := t.TempDir()
	opts, c, err := parseFlags([]string{
		"-quiet",
		"-scene", filepath.Join(dir, "missing.yaml"),
		"-profile-cpu", filepath.Join(dir, "cpu.prof"),
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if err := run(c, opts, log.New(io.Discard, "", 0)); err == nil {
		t.Fatal("run succeeded with a missing scene file")
	}
	info, err := os.Stat(opts.ProfileCPU)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("CPU profile is empty")
	}
}
