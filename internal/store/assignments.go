package store

import (
	"context"
	"fmt"
)

// Assign links a skill to a workspace. Repeated calls are no-ops.
func (s *Store) Assign(ctx context.Context, workspaceID, skillID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO workspace_skills (workspace_id, skill_id)
		VALUES ($1, $2)
		ON CONFLICT (workspace_id, skill_id) DO NOTHING`,
		workspaceID, skillID,
	)
	if err != nil {
		return fmt.Errorf("assign skill %s to %s: %w", skillID, workspaceID, err)
	}
	return nil
}

// Unassign removes a skill from a workspace.
func (s *Store) Unassign(ctx context.Context, workspaceID, skillID string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM workspace_skills WHERE workspace_id = $1 AND skill_id = $2`,
		workspaceID, skillID)
	if err != nil {
		return fmt.Errorf("unassign skill %s from %s: %w", skillID, workspaceID, err)
	}
	return nil
}

// ListAssignments returns every workspace's skill IDs in assignment order.
func (s *Store) ListAssignments(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT workspace_id, skill_id
		FROM workspace_skills
		ORDER BY workspace_id, assigned_at, skill_id`)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var ws, id string
		if err := rows.Scan(&ws, &id); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out[ws] = append(out[ws], id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return out, nil
}
