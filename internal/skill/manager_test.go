package skill

import (
	"context"
	"errors"
	"testing"
)

type fakePersister struct {
	saved      []string
	deleted    []string
	assigned   []string
	unassigned []string
}

func (f *fakePersister) SaveSkill(ctx context.Context, s *Skill) error {
	f.saved = append(f.saved, s.Name)
	return nil
}

func (f *fakePersister) DeleteSkill(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePersister) Assign(ctx context.Context, workspaceID, skillID string) error {
	f.assigned = append(f.assigned, workspaceID+"/"+skillID)
	return nil
}

func (f *fakePersister) Unassign(ctx context.Context, workspaceID, skillID string) error {
	f.unassigned = append(f.unassigned, workspaceID+"/"+skillID)
	return nil
}

type failingPersister struct {
	fakePersister
	err error
}

func (f *failingPersister) SaveSkill(ctx context.Context, s *Skill) error {
	return f.err
}

type fakeSource struct {
	skills      []*Skill
	assignments map[string][]string
}

func (f *fakeSource) ListSkills(ctx context.Context) ([]*Skill, error) { return f.skills, nil }

func (f *fakeSource) ListAssignments(ctx context.Context) (map[string][]string, error) {
	return f.assignments, nil
}

func TestManagerAssignAndGet(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(nil)
	mgr.Add(&Skill{ID: "s1", Name: "search", Content: "x", Source: "builtin"})
	mgr.Add(&Skill{ID: "s2", Name: "memory", Content: "y", Source: "builtin"})

	for _, a := range [][2]string{{"ws-1", "s1"}, {"ws-1", "s2"}, {"ws-2", "s1"}, {"ws-1", "s1"}} {
		if err := mgr.AssignSkill(ctx, a[0], a[1]); err != nil {
			t.Fatalf("assign %v: %v", a, err)
		}
	}

	if got := len(mgr.GetWorkspaceSkills("ws-1")); got != 2 {
		t.Fatalf("ws-1 got %d skills, want 2", got)
	}
	if got := len(mgr.GetWorkspaceSkills("ws-2")); got != 1 {
		t.Fatalf("ws-2 got %d skills, want 1", got)
	}
	if got := len(mgr.GetWorkspaceSkills("ws-3")); got != 0 {
		t.Fatalf("ws-3 got %d skills, want 0", got)
	}

	err := mgr.AssignSkill(ctx, "ws-1", "missing")
	if !errors.Is(err, ErrSkillNotFound) {
		t.Errorf("got %v, want ErrSkillNotFound", err)
	}
}

func TestManagerUnassign(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(nil)
	mgr.Add(&Skill{ID: "s1", Name: "search", Content: "x"})

	mgr.AssignSkill(ctx, "ws-1", "s1")
	mgr.UnassignSkill(ctx, "ws-1", "s1")

	if got := len(mgr.GetWorkspaceSkills("ws-1")); got != 0 {
		t.Fatalf("got %d skills after unassign, want 0", got)
	}
}

func TestManagerActiveSkillsIncludesAlways(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(nil)
	mgr.Add(&Skill{ID: "g", Name: "global", Content: "x", ActivationMode: ActivationAlways})
	mgr.Add(&Skill{ID: "t", Name: "tasks", Content: "y", ActivationMode: ActivationTrigger})
	mgr.Add(&Skill{ID: "m", Name: "manual", Content: "z", ActivationMode: ActivationManual})
	mgr.AssignSkill(ctx, "ws", "t")
	mgr.AssignSkill(ctx, "ws", "g")

	active := mgr.ActiveSkills("ws")
	if len(active) != 2 {
		t.Fatalf("got %d active skills, want 2", len(active))
	}
	if got := names(Sort(active)); !equalStrings(got, []string{"g", "t"}) {
		t.Errorf("got %v, want [g t]", got)
	}

	if got := len(mgr.ActiveSkills("other")); got != 1 {
		t.Errorf("unassigned workspace got %d active skills, want 1", got)
	}
}

func TestManagerSavePersists(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{}
	mgr := NewManager(nil)
	mgr.SetPersister(p)

	s := &Skill{Name: "review", Content: "Check the diff."}
	if err := mgr.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.ID == "" {
		t.Error("expected generated ID")
	}
	if s.ActivationMode != ActivationTrigger {
		t.Errorf("got mode %q, want trigger", s.ActivationMode)
	}
	if mgr.GetByName("review") != s {
		t.Error("GetByName did not return the saved skill")
	}

	// Saving by name again keeps the ID.
	again := &Skill{Name: "review", Content: "Check the whole diff."}
	if err := mgr.Save(ctx, again); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if again.ID != s.ID {
		t.Errorf("resave got ID %q, want %q", again.ID, s.ID)
	}
	if got := len(mgr.All()); got != 1 {
		t.Errorf("got %d skills, want 1", got)
	}

	if err := mgr.AssignSkill(ctx, "ws", s.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := mgr.Remove(ctx, "review"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(mgr.GetWorkspaceSkills("ws")) != 0 {
		t.Error("assignment survived skill removal")
	}
	if err := mgr.Remove(ctx, "review"); !errors.Is(err, ErrSkillNotFound) {
		t.Errorf("second remove got %v, want ErrSkillNotFound", err)
	}

	if len(p.saved) != 2 || len(p.assigned) != 1 || len(p.deleted) != 1 {
		t.Errorf("persister calls: %+v", p)
	}
}

func TestManagerSaveRejectsInvalid(t *testing.T) {
	mgr := NewManager(nil)
	tests := []*Skill{
		{Content: "no name"},
		{Name: "empty"},
		{Name: "mode", Content: "x", ActivationMode: "sometimes"},
	}
	for _, s := range tests {
		if err := mgr.Save(context.Background(), s); !errors.Is(err, ErrInvalidSkill) {
			t.Errorf("Save(%+v) = %v, want ErrInvalidSkill", s, err)
		}
	}
}

func TestManagerPersistAll(t *testing.T) {
	p := &fakePersister{}
	mgr := NewManager(nil)
	RegisterBuiltins(mgr)
	mgr.Add(&Skill{ID: "d", Name: "from_db", Content: "x", Source: "db"})

	if err := mgr.PersistAll(context.Background()); err != nil {
		t.Fatalf("persist without persister: %v", err)
	}
	mgr.SetPersister(p)
	if err := mgr.PersistAll(context.Background()); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if len(p.saved) != 3 {
		t.Errorf("saved %v, want the 3 built-ins only", p.saved)
	}
}

func TestManagerLoadFrom(t *testing.T) {
	src := &fakeSource{
		skills: []*Skill{
			{ID: "a", Name: "alpha", Content: "x"},
			{ID: "b", Name: "beta", Content: "y"},
		},
		assignments: map[string][]string{"ws": {"b"}},
	}
	mgr := NewManager(nil)
	if err := mgr.LoadFrom(context.Background(), src); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := len(mgr.All()); got != 2 {
		t.Fatalf("got %d skills, want 2", got)
	}
	ws := mgr.GetWorkspaceSkills("ws")
	if len(ws) != 1 || ws[0].Name != "beta" {
		t.Errorf("got %v, want [beta]", names(ws))
	}
}

func TestManagerToolNames(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(nil)
	RegisterBuiltins(mgr)
	mgr.AssignSkill(ctx, "ws", "builtin:task-planning")
	mgr.AssignSkill(ctx, "ws", "builtin:page-writer")

	got := mgr.GetWorkspaceToolNames("ws")
	want := []string{"create_task", "list_tasks", "create_page"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	seen := map[string]bool{}
	for _, n := range got {
		seen[n] = true
	}
	for _, n := range want {
		if !seen[n] {
			t.Errorf("missing tool %q in %v", n, got)
		}
	}
}

func TestWorkspacePrompt(t *testing.T) {
	mgr := NewManager(nil)
	RegisterBuiltins(mgr)
	inj := mgr.WorkspacePrompt(NewInjector(DefaultBudget(), nil, nil), "ws")
	if !equalStrings(inj.Full, []string{"response_style"}) {
		t.Errorf("got full %v, want [response_style]", inj.Full)
	}
	if inj.Prompt == "" {
		t.Error("expected non-empty prompt")
	}
}

func TestManagerSaveFailureLeavesPoolUnchanged(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(nil)
	mgr.Add(&Skill{ID: "plugin:x", Name: "x", Content: "from disk", Source: SourcePlugin})
	if err := mgr.AssignSkill(ctx, "ws", "plugin:x"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	mgr.SetPersister(&failingPersister{err: errors.New("connection reset")})
	if err := mgr.Save(ctx, &Skill{ID: "new", Name: "x", Content: "edited"}); err == nil {
		t.Fatal("expected persist error")
	}
	if s := mgr.Get("plugin:x"); s == nil || s.Content != "from disk" {
		t.Errorf("pool changed after failed save: %+v", s)
	}
	if mgr.Get("new") != nil {
		t.Error("failed save added a skill")
	}
	if got := len(mgr.GetWorkspaceSkills("ws")); got != 1 {
		t.Errorf("got %d workspace skills after failed save, want 1", got)
	}
}

func TestManagerSaveResolvesNameToExistingID(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{}
	mgr := NewManager(nil)
	mgr.Add(&Skill{ID: "plugin:x", Name: "x", Content: "from disk", Source: SourcePlugin})
	if err := mgr.AssignSkill(ctx, "ws", "plugin:x"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	mgr.SetPersister(p)

	s := &Skill{ID: "new", Name: "x", Content: "edited"}
	if err := mgr.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.ID != "plugin:x" {
		t.Errorf("got ID %q, want plugin:x", s.ID)
	}
	if mgr.Get("new") != nil {
		t.Error("save registered a second ID for the same name")
	}
	ws := mgr.GetWorkspaceSkills("ws")
	if len(ws) != 1 || ws[0].Content != "edited" {
		t.Errorf("workspace skills: %+v", ws)
	}

	// Renaming another skill onto a taken name is rejected.
	mgr.Add(&Skill{ID: "y", Name: "y", Content: "other"})
	if err := mgr.Save(ctx, &Skill{ID: "y", Name: "x", Content: "other"}); !errors.Is(err, ErrInvalidSkill) {
		t.Errorf("rename onto taken name got %v, want ErrInvalidSkill", err)
	}
	if got := mgr.GetByName("x"); got == nil || got.ID != "plugin:x" {
		t.Errorf("GetByName(x) = %+v", got)
	}
}

func TestManagerAddMovesAssignments(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(nil)
	mgr.Add(&Skill{ID: "old", Name: "x", Content: "v1"})
	if err := mgr.AssignSkill(ctx, "ws", "old"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	mgr.Add(&Skill{ID: "replacement", Name: "x", Content: "v2"})

	ws := mgr.GetWorkspaceSkills("ws")
	if len(ws) != 1 || ws[0].ID != "replacement" {
		t.Errorf("got %+v, want the replacement skill", ws)
	}
}

func TestManagerLoadFromKeepsRegisteredSkills(t *testing.T) {
	mgr := NewManager(nil)
	RegisterBuiltins(mgr)
	mgr.Add(&Skill{ID: "plugin:x", Name: "x", Content: "edited on disk", Source: SourcePlugin})
	builtin := mgr.All()[0]
	builtinContent := builtin.Content

	src := &fakeSource{
		skills: []*Skill{
			{ID: "plugin:x", Name: "x", Content: "stale copy", Source: SourcePlugin},
			{ID: builtin.ID, Name: builtin.Name, Content: "stale builtin", Source: SourceBuiltin},
			{ID: "d", Name: "custom", Content: "from api", Source: SourceDB},
		},
		assignments: map[string][]string{"ws": {"plugin:x"}},
	}
	if err := mgr.LoadFrom(context.Background(), src); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := mgr.Get("plugin:x").Content; got != "edited on disk" {
		t.Errorf("plugin content = %q, want the disk version", got)
	}
	if got := mgr.Get(builtin.ID).Content; got != builtinContent {
		t.Errorf("builtin content = %q, want the registered version", got)
	}
	if mgr.Get("d") == nil {
		t.Error("stored skill was not loaded")
	}
	if ws := mgr.GetWorkspaceSkills("ws"); len(ws) != 1 || ws[0].ID != "plugin:x" {
		t.Errorf("workspace skills: %+v", ws)
	}
}
