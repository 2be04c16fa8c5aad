package model

// Feature is a closed enumeration of gated product features. Gating is a
// per-tag decision, not a string-keyed lookup.
type Feature string

const (
	FeatureHardQuestions     Feature = "hard_questions"
	FeatureMockExam          Feature = "mock_exam"
	FeatureAIAnalytics       Feature = "ai_analytics"
	FeatureUnlimitedPractice Feature = "unlimited_practice"
)

// ValidFeature reports whether f is a known feature tag.
func ValidFeature(f Feature) bool {
	switch f {
	case FeatureHardQuestions, FeatureMockExam, FeatureAIAnalytics, FeatureUnlimitedPractice:
		return true
	}
	return false
}

// CanAccess decides whether a subscription tier unlocks a feature. Mock
// exams and unlimited practice are open to every authenticated user; hard
// questions and AI analytics require premium.
func CanAccess(sub SubscriptionType, f Feature) bool {
	switch f {
	case FeatureMockExam:
		return true
	case FeatureUnlimitedPractice:
		return true
	case FeatureHardQuestions, FeatureAIAnalytics:
		return sub == SubscriptionPremium
	default:
		return false
	}
}
