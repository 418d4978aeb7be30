package skill

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrSkillNotFound is returned when a skill lookup by ID or name fails.
	ErrSkillNotFound = errors.New("skill not found")
	// ErrInvalidSkill is returned by Validate for unusable skill records.
	ErrInvalidSkill = errors.New("invalid skill")
)

// ActivationMode controls when a skill is offered to the model.
type ActivationMode string

const (
	ActivationAlways  ActivationMode = "always"
	ActivationTrigger ActivationMode = "trigger"
	ActivationManual  ActivationMode = "manual"
)

// Valid reports whether m is one of the known activation modes.
func (m ActivationMode) Valid() bool {
	switch m {
	case ActivationAlways, ActivationTrigger, ActivationManual:
		return true
	}
	return false
}

// Skill sources.
const (
	SourceBuiltin = "builtin"
	SourcePlugin  = "plugin"
	SourceDB      = "db"
)

// MissingInstructions replaces a skill body when a record has no content,
// summary or description to show.
const MissingInstructions = "(No instructions are available for this skill.)"

// Skill is a named block of behavioral instructions that can be injected
// into a system prompt in full or as a short summary.
type Skill struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Content        string         `json:"content"`
	Summary        string         `json:"summary,omitempty"`
	ActivationMode ActivationMode `json:"activation_mode"`
	ToolNames      []string       `json:"tool_names,omitempty"`
	Source         string         `json:"source"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsAlways reports whether the skill must be present in every prompt.
func (s *Skill) IsAlways() bool {
	return s.ActivationMode == ActivationAlways
}

// Label is the name shown to the model, falling back to the ID.
func (s *Skill) Label() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	if s.ID != "" {
		return s.ID
	}
	return "unnamed"
}

// SummaryText returns the short form of the skill: its summary, then its
// description, then MissingInstructions.
func (s *Skill) SummaryText() string {
	if v := strings.TrimSpace(s.Summary); v != "" {
		return v
	}
	if v := strings.TrimSpace(s.Description); v != "" {
		return v
	}
	return MissingInstructions
}

// ContentText returns the full body of the skill, or SummaryText when the
// content is blank.
func (s *Skill) ContentText() string {
	if strings.TrimSpace(s.Content) != "" {
		return s.Content
	}
	return s.SummaryText()
}

// Normalize fills defaults for optional fields.
func (s *Skill) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	if s.ActivationMode == "" {
		s.ActivationMode = ActivationTrigger
	}
}

// Validate checks that the skill can be stored and rendered.
func (s *Skill) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSkill)
	}
	if !s.ActivationMode.Valid() {
		return fmt.Errorf("%w: unknown activation mode %q", ErrInvalidSkill, s.ActivationMode)
	}
	if strings.TrimSpace(s.Content) == "" &&
		strings.TrimSpace(s.Summary) == "" &&
		strings.TrimSpace(s.Description) == "" {
		return fmt.Errorf("%w: %s has no content, summary or description", ErrInvalidSkill, s.Name)
	}
	return nil
}
