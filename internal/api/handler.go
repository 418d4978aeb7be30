package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nidhogg/stratai/internal/promptcache"
	"github.com/nidhogg/stratai/internal/skill"
	"github.com/nidhogg/stratai/internal/tool"
	"go.uber.org/zap"
)

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	skills   *skill.Manager
	composer *promptcache.CachedComposer
	tools    *tool.Registry
	db       Pinger
	logger   *zap.Logger
}

// NewHandler creates a new API handler. db may be nil when running without
// persistence.
func NewHandler(
	skills *skill.Manager,
	composer *promptcache.CachedComposer,
	tools *tool.Registry,
	db Pinger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		skills:   skills,
		composer: composer,
		tools:    tools,
		db:       db,
		logger:   logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)

		// Skill pool
		r.Get("/skills", h.listSkills)
		r.Post("/skills", h.saveSkill)
		r.Get("/skills/{name}", h.getSkill)
		r.Delete("/skills/{name}", h.removeSkill)

		// Workspace assignments and prompts
		r.Get("/workspaces/{id}/skills", h.listWorkspaceSkills)
		r.Post("/workspaces/{id}/skills", h.assignSkill)
		r.Delete("/workspaces/{id}/skills/{skillID}", h.unassignSkill)
		r.Get("/workspaces/{id}/prompt", h.workspacePrompt)

		// Ad hoc composition
		r.Post("/prompt/compose", h.composePrompt)

		// Model-callable tools
		r.Get("/tools", h.listTools)
		r.Post("/tools/{name}", h.callTool)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	db := "disabled"
	if h.db != nil {
		db = "ok"
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Warn("health check: database unreachable", zap.Error(err))
			db = "unavailable"
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "stratai", "database": db})
}

func (h *Handler) listSkills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.skills.All())
}

func (h *Handler) saveSkill(w http.ResponseWriter, r *http.Request) {
	var s skill.Skill
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.skills.Save(r.Context(), &s); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// getSkill returns the full skill record. It is the HTTP form of the
// load_skill tool.
func (h *Handler) getSkill(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s := h.skills.GetByName(name)
	if s == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "skill not found"})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) removeSkill(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.skills.Remove(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) listWorkspaceSkills(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	skills := h.skills.GetWorkspaceSkills(id)
	if skills == nil {
		skills = []*skill.Skill{}
	}
	writeJSON(w, http.StatusOK, skills)
}

type assignRequest struct {
	SkillID string `json:"skill_id"`
}

func (h *Handler) assignSkill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.SkillID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "skill_id is required"})
		return
	}
	if err := h.skills.AssignSkill(r.Context(), id, req.SkillID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"workspace_id": id,
		"skill_id":     req.SkillID,
		"status":       "assigned",
	})
}

func (h *Handler) unassignSkill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	skillID := chi.URLParam(r, "skillID")
	if err := h.skills.UnassignSkill(r.Context(), id, skillID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unassigned"})
}

type promptResponse struct {
	*skill.Injection
	Tools []string `json:"tools"`
}

func (h *Handler) workspacePrompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inj := h.composer.Compose(r.Context(), h.composer.DefaultBudget(), h.skills.ActiveSkills(id))
	// Only advertise tools this server can execute.
	tools := []string{}
	for _, name := range h.skills.GetWorkspaceToolNames(id) {
		if name != skill.LoadSkillTool && h.tools.Has(name) {
			tools = append(tools, name)
		}
	}
	if len(inj.Summary) > 0 && h.tools.Has(skill.LoadSkillTool) {
		tools = append(tools, skill.LoadSkillTool)
	}
	writeJSON(w, http.StatusOK, promptResponse{Injection: inj, Tools: tools})
}

type composeRequest struct {
	Skills                       []*skill.Skill `json:"skills"`
	FullInjectionThresholdTokens *int           `json:"full_injection_threshold_tokens,omitempty"`
	TotalBudgetTokens            *int           `json:"total_budget_tokens,omitempty"`
}

func (h *Handler) composePrompt(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	budget := h.composer.DefaultBudget()
	if req.FullInjectionThresholdTokens != nil {
		budget.FullInjectionThresholdTokens = *req.FullInjectionThresholdTokens
	}
	if req.TotalBudgetTokens != nil {
		budget.TotalBudgetTokens = *req.TotalBudgetTokens
	}
	for _, s := range req.Skills {
		if s != nil {
			s.Normalize()
		}
	}
	writeJSON(w, http.StatusOK, h.composer.Compose(r.Context(), budget, req.Skills))
}

func (h *Handler) listTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tools.Definitions())
}

func (h *Handler) callTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	args, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	result, err := h.tools.Execute(r.Context(), name, string(args))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, skill.ErrSkillNotFound), errors.Is(err, tool.ErrUnknownTool):
		status = http.StatusNotFound
	case errors.Is(err, skill.ErrInvalidSkill), errors.Is(err, tool.ErrInvalidArgs):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
