package skill

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nidhogg/stratai/internal/tool"
)

type loadSkillArgs struct {
	Name string `json:"name"`
}

// RegisterTools adds the load_skill tool, which returns the full content of a
// skill by name. Prompts with summarized skills depend on it.
func RegisterTools(reg *tool.Registry, mgr *Manager) {
	reg.Register(tool.Definition{
		Type: "function",
		Function: tool.Function{
			Name:        LoadSkillTool,
			Description: "Fetch the full instructions of a skill that was only shown as a summary.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Skill name exactly as shown in the skill tag",
					},
				},
				"required": []string{"name"},
			},
		},
	}, func(ctx context.Context, args string) (string, error) {
		var a loadSkillArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("%w: %s: %v", tool.ErrInvalidArgs, LoadSkillTool, err)
		}
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return "", fmt.Errorf("%w: name is required", tool.ErrInvalidArgs)
		}
		s := mgr.GetByName(name)
		if s == nil {
			return "", fmt.Errorf("%w: %s", ErrSkillNotFound, name)
		}
		return s.ContentText(), nil
	})
}
