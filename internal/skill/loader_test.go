package skill

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadFromDirMissing(t *testing.T) {
	skills, err := LoadFromDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skills) != 0 {
		t.Errorf("got %d skills, want 0", len(skills))
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "json-only", "skill.json"),
		`{"id": "j1", "name": "json_only", "description": "From JSON", "content": "Body from JSON", "activation_mode": "manual"}`)
	writeFile(t, filepath.Join(dir, "markdown", "SKILL.md"), `---
name: markdown_skill
description: From frontmatter
summary: Short form
activation_mode: always
tools:
  - load_skill
---

# Instructions

Do the thing.
`)
	writeFile(t, filepath.Join(dir, "both", "skill.json"), `{"name": "both", "content": "overridden"}`)
	writeFile(t, filepath.Join(dir, "both", "SKILL.md"), "Plain markdown body.")
	writeFile(t, filepath.Join(dir, "empty", "README.txt"), "ignored")

	skills, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skills) != 3 {
		t.Fatalf("got %d skills, want 3", len(skills))
	}

	byName := map[string]*Skill{}
	for _, s := range skills {
		if s.Source != "plugin" {
			t.Errorf("%s: got source %q, want plugin", s.Name, s.Source)
		}
		byName[s.Name] = s
	}

	md := byName["markdown_skill"]
	if md == nil {
		t.Fatal("markdown_skill not loaded")
	}
	if md.ActivationMode != ActivationAlways || md.Summary != "Short form" {
		t.Errorf("frontmatter not applied: %+v", md)
	}
	if md.Content != "# Instructions\n\nDo the thing." {
		t.Errorf("got content %q", md.Content)
	}
	if md.ID != "plugin:markdown" {
		t.Errorf("got ID %q, want plugin:markdown", md.ID)
	}
	if len(md.ToolNames) != 1 || md.ToolNames[0] != "load_skill" {
		t.Errorf("got tools %v", md.ToolNames)
	}

	if got := byName["both"].Content; got != "Plain markdown body." {
		t.Errorf("SKILL.md did not override content: %q", got)
	}
	if got := byName["json_only"].ActivationMode; got != ActivationManual {
		t.Errorf("got mode %q, want manual", got)
	}
}

func TestLoadFromDirInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad", "SKILL.md"), "---\nname: bad\nno closing fence")
	if _, err := LoadFromDir(dir); err == nil {
		t.Fatal("expected error for unclosed frontmatter")
	}
}
