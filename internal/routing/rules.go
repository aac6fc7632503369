package routing

// Rule is a priority-ordered override over the scored tier, per spec.md
// §4.6.3. The first matching rule wins; Action.Tier replaces the scored
// tier unless Action.ShortCircuitExplicitModel is set, in which case the
// scored tier is kept and the caller-supplied explicit model supplies the
// model with confidence 1.0.
type Rule struct {
	Name      string
	Priority  int
	Predicate func(ctx Context, signals Signals) bool
	Action    RuleAction
}

// RuleAction is what a matching rule does to the routing decision.
type RuleAction struct {
	// Tier, if non-empty, forces the decision to this tier.
	Tier Tier

	// MinTierForAgentType, if non-empty, raises the floor for a tier but
	// never lowers a higher-scored result.
	MinTierForAgentType string

	// ShortCircuitExplicitModel causes RouteTask to return the scored tier
	// with the explicit model and confidence 1.0, ignoring Tier, because
	// context.ExplicitModel was supplied.
	ShortCircuitExplicitModel bool

	Reason string
}

var tierRank = map[Tier]int{TierLow: 0, TierMedium: 1, TierHigh: 2}

func maxTier(a, b Tier) Tier {
	if tierRank[b] > tierRank[a] {
		return b
	}
	return a
}

// DefaultRules is the priority-ordered rule list from spec.md §4.6.3. It
// covers the explicit-model short circuit and a minimum-tier floor for
// agent types that must never be routed below MEDIUM (security-sensitive
// or infrastructure-acting agents), matching the rule shapes spec.md §4.6.3
// describes in the abstract.
var DefaultRules = []Rule{
	{
		Name:     "explicit-model-short-circuit",
		Priority: 0,
		Predicate: func(ctx Context, _ Signals) bool {
			return ctx.ExplicitModel != ""
		},
		Action: RuleAction{ShortCircuitExplicitModel: true, Reason: "explicit model supplied"},
	},
	{
		Name:     "security-agent-floor",
		Priority: 1,
		Predicate: func(ctx Context, _ Signals) bool {
			return ctx.AgentType == "security-reviewer" || ctx.AgentType == "infra-operator"
		},
		Action: RuleAction{Tier: TierMedium, Reason: "agent type requires a minimum tier floor"},
	},
	{
		Name:     "trivial-veto",
		Priority: 2,
		Predicate: func(_ Context, s Signals) bool {
			return s.Lexical.HasSimpleKeywords && !s.Lexical.HasArchitectureKeywords && !s.Lexical.HasRiskKeywords && s.Lexical.WordCount < 20
		},
		Action: RuleAction{Tier: TierLow, Reason: "trivial task veto"},
	},
}

// ApplyRules runs the priority-ordered rule list against ctx/signals,
// returning the first matching rule's action, or ok=false if none match.
func ApplyRules(rules []Rule, ctx Context, signals Signals) (RuleAction, bool) {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j].Priority < ordered[i].Priority {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}
	for _, r := range ordered {
		if r.Predicate(ctx, signals) {
			return r.Action, true
		}
	}
	return RuleAction{}, false
}
