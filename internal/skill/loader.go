package skill

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromDir scans a directory for skill plugin subdirectories.
// Each subdirectory may contain a skill.json file and a SKILL.md file. SKILL.md
// can open with YAML frontmatter; its body becomes the skill content and
// overrides the content field of skill.json. Subdirectories with neither file
// are skipped. If dir doesn't exist, returns an empty slice without error.
func LoadFromDir(dir string) ([]*Skill, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading skill directory %s: %w", dir, err)
	}

	var skills []*Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		s, err := loadSkillFromSubdir(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("loading skill %s: %w", entry.Name(), err)
		}
		if s != nil {
			skills = append(skills, s)
		}
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].ID < skills[j].ID })

	return skills, nil
}

func loadSkillFromSubdir(dir string) (*Skill, error) {
	var s Skill
	found := false

	data, err := os.ReadFile(filepath.Join(dir, "skill.json"))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parsing skill.json in %s: %w", dir, err)
		}
		found = true
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading skill.json: %w", err)
	}

	md, err := os.ReadFile(filepath.Join(dir, "SKILL.md"))
	switch {
	case err == nil:
		if err := applySkillMD(&s, string(md)); err != nil {
			return nil, fmt.Errorf("parsing SKILL.md in %s: %w", dir, err)
		}
		found = true
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading SKILL.md: %w", err)
	}

	if !found {
		return nil, nil
	}
	base := filepath.Base(dir)
	if s.Name == "" {
		s.Name = base
	}
	if s.ID == "" {
		s.ID = "plugin:" + base
	}
	s.Source = SourcePlugin
	s.Normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// frontmatter is the YAML header of a SKILL.md file.
type frontmatter struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Summary        string   `yaml:"summary"`
	ActivationMode string   `yaml:"activation_mode"`
	Tools          []string `yaml:"tools"`
}

// applySkillMD merges a SKILL.md document into s. Frontmatter fields only
// override values that are set.
func applySkillMD(s *Skill, text string) error {
	fm, body, err := parseFrontmatter(text)
	if err != nil {
		return err
	}
	if fm != nil {
		if fm.Name != "" {
			s.Name = fm.Name
		}
		if fm.Description != "" {
			s.Description = fm.Description
		}
		if fm.Summary != "" {
			s.Summary = fm.Summary
		}
		if fm.ActivationMode != "" {
			s.ActivationMode = ActivationMode(fm.ActivationMode)
		}
		if len(fm.Tools) > 0 {
			s.ToolNames = fm.Tools
		}
	}
	if body != "" {
		s.Content = body
	}
	return nil
}

// parseFrontmatter splits "---\n<yaml>\n---\n<body>". Text without a leading
// "---" has no frontmatter and is returned whole as the body.
func parseFrontmatter(text string) (*frontmatter, string, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "---") {
		return nil, text, nil
	}

	rest := text[3:]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return nil, "", fmt.Errorf("unclosed YAML frontmatter")
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(rest[:idx]), &fm); err != nil {
		return nil, "", fmt.Errorf("decode frontmatter: %w", err)
	}
	body := strings.TrimSpace(rest[idx+4:])
	return &fm, body, nil
}
