package routing

// RouteTask is the public entry point, per spec.md §4.6: a pure function
// of (prompt, context, config) producing a deterministic Decision.
func RouteTask(prompt string, ctx Context, rules []Rule, resolverCfg ResolverConfig) Decision {
	signals := ExtractSignals(prompt, ctx)
	score := TotalScore(signals)
	tier := TierForScore(score)
	reason := "scored"

	if rules == nil {
		rules = DefaultRules
	}

	if action, matched := ApplyRules(rules, ctx, signals); matched {
		if action.ShortCircuitExplicitModel {
			model, provider, chain := ResolveModel(ctx, resolverCfg)
			return Decision{
				Tier:          tier,
				Score:         score,
				Confidence:    1.0,
				Reason:        action.Reason,
				Signals:       signals,
				Model:         model,
				Provider:      string(provider),
				FallbackChain: chain,
			}
		}
		if action.Tier != "" {
			tier = action.Tier
			reason = action.Reason
		}
	}

	model, provider, chain := ResolveModel(ctx, resolverCfg)

	return Decision{
		Tier:          tier,
		Score:         score,
		Confidence:    Confidence(score),
		Reason:        reason,
		Signals:       signals,
		Model:         model,
		Provider:      string(provider),
		FallbackChain: chain,
	}
}
