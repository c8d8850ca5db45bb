package orchestrator

// #region tiers

// strategyTier maps a difficulty band to a budget. Tiers are checked in order.
type strategyTier struct {
	complexityAbove float64
	riskAbove       float64
	strategy        Strategy
}

// Harder requests get more candidates and fewer retries: fail fast to a human.
var strategyTiers = []strategyTier{
	{0.7, 0.7, Strategy{PlanCount: 3, MaxRegenerations: 1, Strictness: StrictnessStrict, EarlyRejection: true}},
	{0.4, 0.4, Strategy{PlanCount: 2, MaxRegenerations: 2, Strictness: StrictnessModerate, EarlyRejection: true}},
}

var baselineStrategy = Strategy{PlanCount: 2, MaxRegenerations: 2, Strictness: StrictnessModerate, EarlyRejection: false}

// #endregion

// #region select

// SelectStrategy maps a difficulty estimate to the run's budget.
func SelectStrategy(d DifficultyEstimate) Strategy {
	for _, tier := range strategyTiers {
		if d.Complexity > tier.complexityAbove || d.Risk > tier.riskAbove {
			return tier.strategy
		}
	}
	return baselineStrategy
}

// #endregion
