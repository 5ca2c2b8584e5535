package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name" toml:"name"`
	Port  int    `yaml:"port" toml:"port"`
	Inner struct {
		Dir string `yaml:"dir" toml:"dir"`
	} `yaml:"inner" toml:"inner"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("SAMPLE_DIR", "/srv/content")
	p := write(t, "c.yaml", "name: demo\nport: 8080\ninner:\n  dir: ${SAMPLE_DIR}/md\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "demo" || s.Port != 8080 || s.Inner.Dir != "/srv/content/md" {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoadTOML(t *testing.T) {
	t.Setenv("SAMPLE_PORT", "9090")
	p := write(t, "c.toml", "name = \"demo\"\nport = ${SAMPLE_PORT}\n\n[inner]\ndir = \"md\"\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatal(err)
	}
	if s.Port != 9090 || s.Inner.Dir != "md" {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoadTOML_UnknownField(t *testing.T) {
	p := write(t, "c.toml", "port = 1\ncolour = \"red\"\n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Error("expected error for unknown TOML field")
	}
}

func TestLoadValidates(t *testing.T) {
	p := write(t, "c.yaml", "name: demo\n")
	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "port must be positive") {
		t.Errorf("err = %v, want validation failure", err)
	}
}

func TestLoadMissing(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "none.yaml"), &s); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOptional(t *testing.T) {
	s := sample{Port: 1}
	if err := LoadOptional(filepath.Join(t.TempDir(), "none.yaml"), &s); err != nil {
		t.Errorf("missing optional file: %v", err)
	}
	s = sample{}
	if err := LoadOptional(filepath.Join(t.TempDir(), "none.yaml"), &s); err == nil {
		t.Error("expected validation error for invalid defaults")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	def := write(t, "default.yaml", "port: 7\n")
	var s sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "none.yaml"), def, &s); err != nil {
		t.Fatal(err)
	}
	if s.Port != 7 {
		t.Errorf("port = %d, want 7", s.Port)
	}
}
