package skill

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Persister stores skill pool changes. store.Store implements it.
type Persister interface {
	SaveSkill(ctx context.Context, s *Skill) error
	DeleteSkill(ctx context.Context, id string) error
	Assign(ctx context.Context, workspaceID, skillID string) error
	Unassign(ctx context.Context, workspaceID, skillID string) error
}

// Source supplies a previously persisted pool.
type Source interface {
	ListSkills(ctx context.Context) ([]*Skill, error)
	ListAssignments(ctx context.Context) (map[string][]string, error)
}

// Manager holds the skill pool and workspace-skill assignments.
// All operations are thread-safe.
type Manager struct {
	mu          sync.RWMutex
	skills      map[string]*Skill
	byName      map[string]string   // name → ID
	assignments map[string][]string // workspaceID → skillIDs
	persister   Persister
	logger      *zap.Logger
}

// NewManager creates an empty Manager ready for use.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		skills:      make(map[string]*Skill),
		byName:      make(map[string]string),
		assignments: make(map[string][]string),
		logger:      logger,
	}
}

// SetPersister attaches durable storage. Pass nil to run in memory only.
func (m *Manager) SetPersister(p Persister) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persister = p
}

// LoadFrom hydrates the pool and assignments from src. Stored copies of
// built-in and plugin skills are ignored so the registered versions win.
func (m *Manager) LoadFrom(ctx context.Context, src Source) error {
	skills, err := src.ListSkills(ctx)
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}
	assignments, err := src.ListAssignments(ctx)
	if err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}
	loaded := 0
	for _, s := range skills {
		if s.Source == SourceBuiltin || s.Source == SourcePlugin {
			// Code and disk own these; the stored row only anchors assignments.
			continue
		}
		m.Add(s)
		loaded++
	}
	m.mu.Lock()
	for ws, ids := range assignments {
		m.assignments[ws] = append([]string(nil), ids...)
	}
	m.mu.Unlock()
	m.logger.Info("loaded skills from store",
		zap.Int("skills", loaded),
		zap.Int("workspaces", len(assignments)))
	return nil
}

// PersistAll writes every skill that did not come from the database through
// the persister, so built-in and plugin skills can be assigned durably.
func (m *Manager) PersistAll(ctx context.Context) error {
	m.mu.RLock()
	p := m.persister
	m.mu.RUnlock()
	if p == nil {
		return nil
	}
	for _, s := range m.All() {
		if s.Source == SourceDB {
			continue
		}
		if err := p.SaveSkill(ctx, s); err != nil {
			return fmt.Errorf("persist skill %s: %w", s.Name, err)
		}
	}
	return nil
}

// Add registers a skill in the pool without persisting it. A skill with the
// same ID or name is replaced.
func (m *Manager) Add(s *Skill) {
	s.Normalize()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(s)
}

func (m *Manager) put(s *Skill) {
	if oldID, ok := m.byName[s.Name]; ok && oldID != s.ID {
		delete(m.skills, oldID)
		m.moveAssignments(oldID, s.ID)
	}
	if old, ok := m.skills[s.ID]; ok && old.Name != s.Name {
		delete(m.byName, old.Name)
	}
	m.skills[s.ID] = s
	m.byName[s.Name] = s.ID
}

// moveAssignments repoints every workspace assignment of from to to.
func (m *Manager) moveAssignments(from, to string) {
	for ws, ids := range m.assignments {
		had, hasTo := false, false
		for _, id := range ids {
			switch id {
			case from:
				had = true
			case to:
				hasTo = true
			}
		}
		if !had {
			continue
		}
		ids = removeID(ids, from)
		if !hasTo {
			ids = append(ids, to)
		}
		m.assignments[ws] = ids
	}
}

// Save validates s, persists it and then adds it to the pool. A name that
// already exists resolves to that skill's ID; renaming a skill onto a name
// held by another skill is rejected. On a persist error the pool is left
// unchanged.
func (m *Manager) Save(ctx context.Context, s *Skill) error {
	s.Normalize()
	if err := s.Validate(); err != nil {
		return err
	}
	now := time.Now()

	m.mu.RLock()
	if id, ok := m.byName[s.Name]; ok && id != s.ID {
		if _, exists := m.skills[s.ID]; exists {
			m.mu.RUnlock()
			return fmt.Errorf("%w: name %q belongs to skill %s", ErrInvalidSkill, s.Name, id)
		}
		s.ID = id
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if old, ok := m.skills[s.ID]; ok && !old.CreatedAt.IsZero() {
		s.CreatedAt = old.CreatedAt
	} else if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Source == "" {
		s.Source = SourceDB
	}
	p := m.persister
	m.mu.RUnlock()

	if p != nil {
		if err := p.SaveSkill(ctx, s); err != nil {
			return fmt.Errorf("persist skill %s: %w", s.Name, err)
		}
	}

	m.mu.Lock()
	m.put(s)
	m.mu.Unlock()
	m.logger.Info("saved skill", zap.String("id", s.ID), zap.String("name", s.Name))
	return nil
}

// Get returns a skill by ID, or nil if not found.
func (m *Manager) Get(id string) *Skill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.skills[id]
}

// GetByName returns a skill by name, or nil if not found.
func (m *Manager) GetByName(name string) *Skill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[name]
	if !ok {
		return nil
	}
	return m.skills[id]
}

// Remove deletes a skill by name, along with its assignments.
func (m *Manager) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	id, ok := m.byName[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	delete(m.byName, name)
	delete(m.skills, id)
	for ws, ids := range m.assignments {
		m.assignments[ws] = removeID(ids, id)
	}
	p := m.persister
	m.mu.Unlock()

	if p != nil {
		if err := p.DeleteSkill(ctx, id); err != nil {
			return fmt.Errorf("delete skill %s: %w", name, err)
		}
	}
	return nil
}

// All returns every skill in the pool ordered by ID.
func (m *Manager) All() []*Skill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Skill, 0, len(m.skills))
	for _, s := range m.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AssignSkill assigns a skill to a workspace. Duplicate assignments are ignored.
func (m *Manager) AssignSkill(ctx context.Context, workspaceID, skillID string) error {
	m.mu.Lock()
	if _, ok := m.skills[skillID]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSkillNotFound, skillID)
	}
	for _, id := range m.assignments[workspaceID] {
		if id == skillID {
			m.mu.Unlock()
			return nil
		}
	}
	m.assignments[workspaceID] = append(m.assignments[workspaceID], skillID)
	p := m.persister
	m.mu.Unlock()

	if p != nil {
		if err := p.Assign(ctx, workspaceID, skillID); err != nil {
			return fmt.Errorf("persist assignment: %w", err)
		}
	}
	return nil
}

// UnassignSkill removes a skill assignment from a workspace.
func (m *Manager) UnassignSkill(ctx context.Context, workspaceID, skillID string) error {
	m.mu.Lock()
	m.assignments[workspaceID] = removeID(m.assignments[workspaceID], skillID)
	p := m.persister
	m.mu.Unlock()

	if p != nil {
		if err := p.Unassign(ctx, workspaceID, skillID); err != nil {
			return fmt.Errorf("persist unassignment: %w", err)
		}
	}
	return nil
}

// GetWorkspaceSkills returns the resolved skills assigned to a workspace.
func (m *Manager) GetWorkspaceSkills(workspaceID string) []*Skill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Skill
	for _, id := range m.assignments[workspaceID] {
		if s, ok := m.skills[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// ActiveSkills returns the skills in effect for a workspace: every assigned
// skill plus every always-active skill in the pool, without duplicates.
func (m *Manager) ActiveSkills(workspaceID string) []*Skill {
	assigned := m.GetWorkspaceSkills(workspaceID)

	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{}, len(assigned))
	out := make([]*Skill, 0, len(assigned))
	for _, s := range assigned {
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	for id, s := range m.skills {
		if !s.IsAlways() {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// GetWorkspaceToolNames returns the deduplicated tool names from all skills
// active in a workspace.
func (m *Manager) GetWorkspaceToolNames(workspaceID string) []string {
	skills := Sort(m.ActiveSkills(workspaceID))
	seen := make(map[string]struct{})
	var names []string
	for _, s := range skills {
		for _, t := range s.ToolNames {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				names = append(names, t)
			}
		}
	}
	return names
}

// WorkspacePrompt composes the active skills of a workspace with in.
func (m *Manager) WorkspacePrompt(in *Injector, workspaceID string) *Injection {
	return in.Compose(m.ActiveSkills(workspaceID))
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
