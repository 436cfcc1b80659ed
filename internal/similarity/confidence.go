package similarity

// Tier is a human-facing confidence band used for display. It is advisory
// only: the backend's confidence integer is ground truth.
type Tier string

// Confidence tiers, highest first.
const (
	TierVeryHigh Tier = "very_high"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
	TierMinimal  Tier = "minimal"
)

// ConfidenceTier classifies a backend confidence percentage into a tier.
func ConfidenceTier(confidence int) Tier {
	switch {
	case confidence >= 95:
		return TierVeryHigh
	case confidence >= 90:
		return TierHigh
	case confidence >= 80:
		return TierMedium
	case confidence >= 70:
		return TierLow
	default:
		return TierMinimal
	}
}

// ScoreTier classifies a per-field similarity score in [0,1] into the same
// bands as ConfidenceTier.
func ScoreTier(score float64) Tier {
	switch {
	case score >= 0.95:
		return TierVeryHigh
	case score >= 0.9:
		return TierHigh
	case score >= 0.8:
		return TierMedium
	case score >= 0.7:
		return TierLow
	default:
		return TierMinimal
	}
}
