package fairness

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights sets the weights of the worst commute and of the dispersion term.
// Negative weights and an all-zero pair are ignored.
func WithWeights(maxWeight, dispersionWeight float64) Option {
	return func(s *Scorer) {
		if maxWeight < 0 || dispersionWeight < 0 || maxWeight+dispersionWeight == 0 {
			return
		}
		s.maxWeight = maxWeight
		s.dispersionWeight = dispersionWeight
	}
}

// WithBalanceThresholds sets the deviation limits, in percent, for the balance labels.
func WithBalanceThresholds(perfect, unbalanced float64) Option {
	return func(s *Scorer) {
		if perfect >= 0 && unbalanced > perfect {
			s.perfectPct = perfect
			s.unbalancedPct = unbalanced
		}
	}
}
