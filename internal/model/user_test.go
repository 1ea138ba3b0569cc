package model

import "testing"

func TestPlan_IsValid(t *testing.T) {
	for _, p := range []Plan{PlanFree, PlanPro, PlanPremium} {
		if !p.IsValid() {
			t.Errorf("Plan(%q) should be valid", p)
		}
	}
	if Plan("enterprise").IsValid() {
		t.Error("unknown plan should not be valid")
	}
}

func TestPlan_IsPaid(t *testing.T) {
	if PlanFree.IsPaid() {
		t.Error("free plan should not be paid")
	}
	if !PlanPro.IsPaid() {
		t.Error("pro plan should be paid")
	}
	// Premium is treated as pro.
	if !PlanPremium.IsPaid() {
		t.Error("premium plan should be paid")
	}
}

func TestUser_UsageOn(t *testing.T) {
	u := &User{UsageCount: 3, LastUsageDate: "2024-01-01"}

	if got := u.UsageOn("2024-01-01"); got != 3 {
		t.Errorf("usage on the recorded date = %d, want 3", got)
	}

	// A count recorded on any other date is stale and logically zero.
	if got := u.UsageOn("2024-01-02"); got != 0 {
		t.Errorf("usage on a later date = %d, want 0", got)
	}
}
