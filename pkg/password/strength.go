package password

const (
	LabelVeryWeak = "very weak"
	LabelWeak     = "weak"
	LabelMedium   = "medium"
	LabelStrong   = "strong"
	LabelUnknown  = "unknown"

	ColorWeakest = "bg-red-500"
	ColorLow     = "bg-yellow-500"
	ColorMedium  = "bg-blue-500"
	ColorStrong  = "bg-green-500"
	ColorUnknown = "bg-gray-300"
)

var (
	strengthLabels = [MaxScore + 1]string{LabelVeryWeak, LabelVeryWeak, LabelWeak, LabelMedium, LabelStrong}
	strengthColors = [MaxScore + 1]string{ColorWeakest, ColorWeakest, ColorLow, ColorMedium, ColorStrong}
)

// StrengthLabel returns the display label for a normalized score, or
// LabelUnknown outside 0..MaxScore.
func StrengthLabel(score int) string {
	if score < 0 || score > MaxScore {
		return LabelUnknown
	}
	return strengthLabels[score]
}

// StrengthColorClass returns the visual-intensity token for a normalized
// score, or ColorUnknown outside 0..MaxScore.
func StrengthColorClass(score int) string {
	if score < 0 || score > MaxScore {
		return ColorUnknown
	}
	return strengthColors[score]
}

// StrengthPercent is the filled share of a strength meter for score.
func StrengthPercent(score int) int {
	if score < 0 || score > MaxScore {
		return 0
	}
	return score * 100 / MaxScore
}
