package skill

// RegisterBuiltins adds the default built-in skills to the manager.
func RegisterBuiltins(mgr *Manager) {
	builtins := []*Skill{
		{
			ID:          "builtin:response-style",
			Name:        "response_style",
			Description: "House style for every answer",
			Content: "Answer in plain, direct language. Lead with the answer, then the reasoning. " +
				"Use short paragraphs and bullet lists for anything with more than two parts. " +
				"Never invent citations, figures or links.",
			ActivationMode: ActivationAlways,
			Source:         SourceBuiltin,
		},
		{
			ID:          "builtin:task-planning",
			Name:        "task_planning",
			Description: "Break down complex requests into tracked tasks",
			Summary:     "Split multi-step work into numbered tasks with owners and due dates.",
			Content: "When a request needs more than one step, break it into numbered tasks. " +
				"Give each task a one-line title, an owner when one is named, and a due date when one is implied. " +
				"Confirm the plan with the user before creating tasks, then report progress against the list.",
			ActivationMode: ActivationTrigger,
			ToolNames:      []string{"create_task", "list_tasks"},
			Source:         SourceBuiltin,
		},
		{
			ID:          "builtin:page-writer",
			Name:        "page_writer",
			Description: "Turn conversation output into a shareable page",
			Summary:     "Draft pages with a title, a two-sentence abstract and headed sections.",
			Content: "When asked to save or share results, draft a page with a descriptive title, " +
				"a two-sentence abstract, and sections under level-two headings. " +
				"Keep source links at the end under a References heading.",
			ActivationMode: ActivationManual,
			ToolNames:      []string{"create_page"},
			Source:         SourceBuiltin,
		},
	}
	for _, s := range builtins {
		mgr.Add(s)
	}
}
