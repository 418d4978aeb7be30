package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nidhogg/stratai/internal/skill"
)

var (
	_ skill.Persister = (*Store)(nil)
	_ skill.Source    = (*Store)(nil)
)

const skillColumns = `id, name, description, content, summary, activation_mode,
       tool_names, source, created_at, updated_at`

// SaveSkill upserts a skill by ID.
func (s *Store) SaveSkill(ctx context.Context, sk *skill.Skill) error {
	tools, err := json.Marshal(nonNil(sk.ToolNames))
	if err != nil {
		return fmt.Errorf("marshal tool_names: %w", err)
	}
	now := time.Now()
	created := sk.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO skills (id, name, description, content, summary, activation_mode, tool_names, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			content = EXCLUDED.content,
			summary = EXCLUDED.summary,
			activation_mode = EXCLUDED.activation_mode,
			tool_names = EXCLUDED.tool_names,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at`,
		sk.ID, sk.Name, sk.Description, sk.Content, sk.Summary,
		string(sk.ActivationMode), tools, sk.Source, created, now,
	)
	if err != nil {
		return fmt.Errorf("save skill %s: %w", sk.ID, err)
	}
	return nil
}

// GetSkill retrieves a single skill by ID.
func (s *Store) GetSkill(ctx context.Context, id string) (*skill.Skill, error) {
	row := s.db.QueryRow(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = $1`, id)
	sk, err := scanSkill(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get skill %s: %w", id, skill.ErrSkillNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get skill %s: %w", id, err)
	}
	return sk, nil
}

// ListSkills returns all skills ordered by ID.
func (s *Store) ListSkills(ctx context.Context) ([]*skill.Skill, error) {
	rows, err := s.db.Query(ctx, `SELECT `+skillColumns+` FROM skills ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	var skills []*skill.Skill
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skills = append(skills, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return skills, nil
}

// DeleteSkill removes a skill; its assignments cascade.
func (s *Store) DeleteSkill(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM skills WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete skill %s: %w", id, err)
	}
	return nil
}

func scanSkill(row pgx.Row) (*skill.Skill, error) {
	var (
		sk    skill.Skill
		mode  string
		tools []byte
	)
	if err := row.Scan(
		&sk.ID, &sk.Name, &sk.Description, &sk.Content, &sk.Summary, &mode,
		&tools, &sk.Source, &sk.CreatedAt, &sk.UpdatedAt,
	); err != nil {
		return nil, err
	}
	sk.ActivationMode = skill.ActivationMode(mode)
	if len(tools) > 0 {
		if err := json.Unmarshal(tools, &sk.ToolNames); err != nil {
			return nil, fmt.Errorf("decode tool_names for %s: %w", sk.ID, err)
		}
	}
	return &sk, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
