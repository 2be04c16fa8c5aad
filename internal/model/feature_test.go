package model

import "testing"

func TestCanAccess(t *testing.T) {
	cases := []struct {
		sub     SubscriptionType
		feature Feature
		want    bool
	}{
		{SubscriptionFree, FeatureMockExam, true},
		{SubscriptionFree, FeatureUnlimitedPractice, true},
		{SubscriptionFree, FeatureHardQuestions, false},
		{SubscriptionFree, FeatureAIAnalytics, false},
		{SubscriptionPremium, FeatureHardQuestions, true},
		{SubscriptionPremium, FeatureAIAnalytics, true},
		{SubscriptionPremium, FeatureMockExam, true},
		{SubscriptionFree, Feature("unknown"), false},
	}

	for _, c := range cases {
		if got := CanAccess(c.sub, c.feature); got != c.want {
			t.Errorf("CanAccess(%s, %s) = %v, want %v", c.sub, c.feature, got, c.want)
		}
	}
}

func TestValidFeature(t *testing.T) {
	for _, f := range []Feature{FeatureHardQuestions, FeatureMockExam, FeatureAIAnalytics, FeatureUnlimitedPractice} {
		if !ValidFeature(f) {
			t.Errorf("expected %s to be valid", f)
		}
	}
	if ValidFeature(Feature("premium_everything")) {
		t.Error("unknown feature reported valid")
	}
}
