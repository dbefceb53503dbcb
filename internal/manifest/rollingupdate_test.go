package manifest

import "testing"

func pct(s string) *AvailabilityPolicy {
	return &AvailabilityPolicy{Percent: s, IsPercent: true}
}

func TestRolloutIterationNoOverflow(t *testing.T) {
	ru := DefaultRollingUpdate()
	for i := uint32(0); i < 100; i++ {
		if n := ru.RolloutIterations(i); n >= 5 {
			t.Fatalf("rollout iterations for %d replicas = %d, expected < 5", i, n)
		}
	}
}

func TestRolloutIterationCheck(t *testing.T) {
	// examples cross referenced with kube rollout cycles
	ru := DefaultRollingUpdate()
	cases := []struct {
		replicas uint32
		want     uint32
	}{
		{1, 1},
		{2, 2},
		{4, 2},
		{8, 2},
	}
	for _, c := range cases {
		if got := ru.RolloutIterations(c.replicas); got != c.want {
			t.Fatalf("default rollout iterations(%d) = %d, want %d", c.replicas, got, c.want)
		}
	}

	// surges quickly
	surge := RollingUpdate{MaxUnavailable: pct("25%"), MaxSurge: pct("50%")}
	if got := surge.RolloutIterations(8); got != 2 {
		t.Fatalf("surge iterations(8) = %d, want 2", got)
	}
	if got := surge.RolloutIterations(16); got != 2 {
		t.Fatalf("surge iterations(16) = %d, want 2", got)
	}

	// kills almost everything immediately
	harsh := RollingUpdate{MaxUnavailable: pct("75%"), MaxSurge: pct("25%")}
	if got := harsh.RolloutIterations(8); got != 1 {
		t.Fatalf("harsh iterations(8) = %d, want 1", got)
	}

	// no surge at all
	slow := RollingUpdate{MaxUnavailable: pct("25%"), MaxSurge: pct("0%")}
	if got := slow.RolloutIterations(8); got != 4 {
		t.Fatalf("no-surge iterations(8) = %d, want 4", got)
	}
}

func TestAvailabilityPolicyVerify(t *testing.T) {
	if err := pct("110%").Verify("maxSurge", 4); err == nil {
		t.Fatalf("expected 110%% to fail")
	}
	if err := pct("50").Verify("maxSurge", 4); err == nil {
		t.Fatalf("expected percentage without %% sign to fail")
	}
	abs := AvailabilityPolicy{Unsigned: 10}
	if err := abs.Verify("maxUnavailable", 5); err == nil {
		t.Fatalf("expected absolute policy above replicaCount to fail")
	}
	if err := pct("50%").Verify("maxSurge", 4); err != nil {
		t.Fatalf("valid percentage failed: %v", err)
	}
}

func TestRollingUpdateVerify(t *testing.T) {
	empty := RollingUpdate{}
	if err := empty.Verify(4); err == nil {
		t.Fatalf("expected empty rollingUpdate to fail")
	}
	ok := RollingUpdate{MaxSurge: pct("25%")}
	if err := ok.Verify(4); err != nil {
		t.Fatalf("valid rollingUpdate failed: %v", err)
	}
}
