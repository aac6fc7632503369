package routing

import (
	"os"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Provider identifies an external model provider.
type Provider string

const (
	ProviderGemini  Provider = "gemini"
	ProviderPrimary Provider = "primary"
)

// RolePreference maps an agent role to a preferred provider/model pair.
type RolePreference struct {
	Provider Provider
	Model    string
}

// TaskPreference maps a task type to a preferred model.
type TaskPreference struct {
	Model string
}

// Defaults holds the config-level default models, per spec.md §4.6.4 step 5.
type Defaults struct {
	PrimaryModel   string
	SecondaryModel string
}

// ResolverConfig is the routing config's external-model resolution
// surface, per spec.md §4.6.4.
type ResolverConfig struct {
	RolePreferences map[string]RolePreference
	TaskPreferences map[string]TaskPreference
	Defaults        Defaults

	// ProviderFallbackChains is the provider's default fallback chain
	// (step 7's "hardcoded defaults"), keyed by provider.
	ProviderFallbackChains map[Provider][]string
}

// DefaultResolverConfig carries the hardcoded provider fallback chains
// spec.md §4.6.4 step 7 requires as the final rung of the ladder.
var DefaultResolverConfig = ResolverConfig{
	ProviderFallbackChains: map[Provider][]string{
		ProviderPrimary: {"claude-sonnet", "claude-haiku"},
		ProviderGemini:  {"gemini-pro", "gemini-flash"},
	},
}

func inferProvider(model string) Provider {
	if strings.Contains(strings.ToLower(model), "gemini") {
		return ProviderGemini
	}
	return ProviderPrimary
}

// providerBreakers holds one circuit breaker per provider, guarding the
// per-provider configuration-reachability probe in step 6, per spec.md
// §4.6.4: "three consecutive failures to resolve a provider's
// configuration open the breaker for that provider for its configured
// timeout window." Grounded on the jordigilh-kubernaut example's
// gobreaker.Settings{ReadyToTrip: ConsecutiveFailures >= 3} pattern.
var providerBreakers = map[Provider]*gobreaker.CircuitBreaker{
	ProviderPrimary: newProviderBreaker(ProviderPrimary),
	ProviderGemini:  newProviderBreaker(ProviderGemini),
}

func newProviderBreaker(p Provider) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(p),
		MaxRequests: 1,
		Interval:    0,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

func providerEnvDefault(p Provider) string {
	switch p {
	case ProviderGemini:
		return os.Getenv("OMC_GEMINI_DEFAULT_MODEL")
	default:
		return os.Getenv("OMC_CODEX_DEFAULT_MODEL")
	}
}

func hardcodedDefault(p Provider) string {
	if p == ProviderGemini {
		return "gemini-pro"
	}
	return "claude-sonnet"
}

// resolveProviderModel runs the provider's env/hardcoded fallback lookup
// through its circuit breaker, so a provider whose configuration probe
// keeps failing stops being re-resolved on every single task, per spec.md
// §4.6.4.
func resolveProviderModel(p Provider) string {
	result, err := providerBreakers[p].Execute(func() (any, error) {
		if env := providerEnvDefault(p); env != "" {
			return env, nil
		}
		return hardcodedDefault(p), nil
	})
	if err != nil {
		return hardcodedDefault(p)
	}
	return result.(string)
}

// dedupPreserveOrder removes duplicate entries, keeping the first
// occurrence, per spec.md §4.6.4's "deduplicated preserving
// first-occurrence order."
func dedupPreserveOrder(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// ResolveModel implements the strict precedence ladder from spec.md
// §4.6.4, returning the resolved model/provider and the deduplicated
// fallback chain (resolved model prepended to the provider's default
// chain).
func ResolveModel(ctx Context, cfg ResolverConfig) (model string, provider Provider, fallbackChain []string) {
	switch {
	case ctx.ExplicitModel != "":
		model = ctx.ExplicitModel
		provider = inferProvider(model)

	case ctx.ExplicitProvider != "":
		if pref, ok := cfg.RolePreferences[ctx.AgentRole]; ok && string(pref.Provider) == ctx.ExplicitProvider {
			model = pref.Model
			provider = pref.Provider
		}

	}

	if model == "" && ctx.TaskType != "" {
		if pref, ok := cfg.TaskPreferences[ctx.TaskType]; ok && pref.Model != "" {
			model = pref.Model
			provider = inferProvider(model)
		}
	}

	if model == "" {
		if pref, ok := cfg.RolePreferences[ctx.AgentRole]; ok && pref.Model != "" {
			model = pref.Model
			provider = pref.Provider
		}
	}

	if model == "" && cfg.Defaults.PrimaryModel != "" {
		model = cfg.Defaults.PrimaryModel
		provider = inferProvider(model)
	}

	if model == "" {
		provider = ProviderPrimary
		model = resolveProviderModel(provider)
	}

	if provider == "" {
		provider = inferProvider(model)
	}

	chain := append([]string{model}, cfg.ProviderFallbackChains[provider]...)
	return model, provider, dedupPreserveOrder(chain)
}
