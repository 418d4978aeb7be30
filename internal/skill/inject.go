package skill

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nidhogg/stratai/internal/tokens"
	"go.uber.org/zap"
)

// Budget bounds how much skill content is injected verbatim.
type Budget struct {
	// FullInjectionThresholdTokens is the largest single skill that may be
	// injected in full.
	FullInjectionThresholdTokens int `json:"full_injection_threshold_tokens"`
	// TotalBudgetTokens caps the combined size of all fully injected skills.
	TotalBudgetTokens int `json:"total_budget_tokens"`
}

// DefaultBudget returns the reference limits: 800 tokens per skill, 3000 total.
func DefaultBudget() Budget {
	return Budget{
		FullInjectionThresholdTokens: 800,
		TotalBudgetTokens:            3000,
	}
}

// Clamped returns b with negative limits raised to zero.
func (b Budget) Clamped() Budget {
	if b.FullInjectionThresholdTokens < 0 {
		b.FullInjectionThresholdTokens = 0
	}
	if b.TotalBudgetTokens < 0 {
		b.TotalBudgetTokens = 0
	}
	return b
}

// Sort returns a new slice ordered for packing: always-active skills first,
// then shorter content first, then ascending ID. Nil entries are dropped and
// the input slice is left untouched.
func Sort(skills []*Skill) []*Skill {
	out := make([]*Skill, 0, len(skills))
	for _, s := range skills {
		if s != nil {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func less(a, b *Skill) bool {
	if a.IsAlways() != b.IsAlways() {
		return a.IsAlways()
	}
	if len(a.Content) != len(b.Content) {
		return len(a.Content) < len(b.Content)
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	// Duplicate IDs only happen with ad hoc input; keep the order total anyway.
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Content < b.Content
}

// Pack walks sorted once and splits it into skills injected in full and
// skills injected as summaries. A skill goes in full only when its content
// fits the per-skill threshold and the remaining total budget. Skills with
// blank content have nothing to inject in full and are always summarized.
// Decisions are never revisited.
func Pack(sorted []*Skill, budget Budget, est tokens.Estimator) (full, summary []*Skill) {
	budget = budget.Clamped()
	used := 0
	for _, s := range sorted {
		if s == nil {
			continue
		}
		n := est.Estimate(s.Content)
		if strings.TrimSpace(s.Content) != "" &&
			n <= budget.FullInjectionThresholdTokens && used+n <= budget.TotalBudgetTokens {
			full = append(full, s)
			used += n
			continue
		}
		summary = append(summary, s)
	}
	return full, summary
}

// LoadSkillTool is the tool name the assembled prompt points the model at for
// summarized skills.
const LoadSkillTool = "load_skill"

// Assemble renders the packed skills as a system prompt section. It returns
// "" when both lists are empty.
func Assemble(full, summary []*Skill) string {
	if len(full) == 0 && len(summary) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Active Skills\n\n")
	b.WriteString("The skills below are mandatory behavioral instructions, not optional suggestions. " +
		"Follow them for the rest of this conversation.\n")

	for _, s := range full {
		fmt.Fprintf(&b, "\n<skill name=%q injection=\"full\">\n%s\n</skill>\n", s.Label(), s.ContentText())
	}

	if len(summary) > 0 {
		b.WriteString("\n### Summarized Skills\n\n")
		fmt.Fprintf(&b, "Only a summary of each skill below is included. "+
			"Fetch the full content on demand by calling the `%s` tool with the skill name.\n", LoadSkillTool)
		for _, s := range summary {
			fmt.Fprintf(&b, "\n<skill name=%q injection=\"summary\">\n%s\n</skill>\n", s.Label(), s.SummaryText())
		}
	}

	b.WriteString("\nApply skills marked injection=\"full\" directly.")
	if len(summary) > 0 {
		fmt.Fprintf(&b, " Before applying a skill marked injection=\"summary\", retrieve its full content with `%s`.", LoadSkillTool)
	}
	b.WriteString("\n")
	return b.String()
}

// Injection is the result of composing a skill set.
type Injection struct {
	Prompt     string   `json:"prompt"`
	Full       []string `json:"full"`
	Summary    []string `json:"summary"`
	TokensUsed int      `json:"tokens_used"`
}

// Injector composes skill sets into prompt sections under a fixed budget.
// It holds no per-call state and is safe for concurrent use.
type Injector struct {
	budget Budget
	est    tokens.Estimator
	logger *zap.Logger
}

// NewInjector creates an Injector. A nil estimator selects tokens.Heuristic.
func NewInjector(budget Budget, est tokens.Estimator, logger *zap.Logger) *Injector {
	if est == nil {
		est = tokens.Heuristic{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Injector{budget: budget.Clamped(), est: est, logger: logger}
}

// Budget returns the injector's limits after clamping.
func (in *Injector) Budget() Budget { return in.budget }

// Estimator returns the estimator used for packing.
func (in *Injector) Estimator() tokens.Estimator { return in.est }

// WithBudget returns a copy of the injector using different limits.
func (in *Injector) WithBudget(b Budget) *Injector {
	return &Injector{budget: b.Clamped(), est: in.est, logger: in.logger}
}

// Compose sorts, packs and assembles skills.
func (in *Injector) Compose(skills []*Skill) *Injection {
	full, summary := Pack(Sort(skills), in.budget, in.est)

	inj := &Injection{
		Prompt:  Assemble(full, summary),
		Full:    make([]string, 0, len(full)),
		Summary: make([]string, 0, len(summary)),
	}
	for _, s := range full {
		inj.Full = append(inj.Full, s.Label())
		inj.TokensUsed += in.est.Estimate(s.Content)
	}
	for _, s := range summary {
		inj.Summary = append(inj.Summary, s.Label())
	}

	in.logger.Debug("composed skill prompt",
		zap.Int("full", len(inj.Full)),
		zap.Int("summary", len(inj.Summary)),
		zap.Int("tokens_used", inj.TokensUsed),
		zap.Int("budget", in.budget.TotalBudgetTokens))
	return inj
}
