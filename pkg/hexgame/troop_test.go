package hexgame

import "testing"

func TestDominanceCycleExhaustive(t *testing.T) {
	kinds := []TroopKind{Triangle, Square, Pentagon}
	for _, a := range kinds {
		for _, b := range kinds {
			res := Compare(a, b)
			reverse := Compare(b, a)
			if a == b {
				if res != Ties {
					t.Errorf("Compare(%v,%v) = %v, want Ties", a, b, res)
				}
				continue
			}
			if res == Ties || reverse == Ties {
				t.Errorf("Compare(%v,%v) / reverse should not tie for distinct kinds", a, b)
			}
			if res == Wins && reverse != Loses {
				t.Errorf("Compare(%v,%v)=Wins but reverse=%v, want Loses", a, b, reverse)
			}
			if res == Loses && reverse != Wins {
				t.Errorf("Compare(%v,%v)=Loses but reverse=%v, want Wins", a, b, reverse)
			}
		}
	}
}

func TestHomeBaseAlwaysLoses(t *testing.T) {
	for _, attacker := range []TroopKind{Triangle, Square, Pentagon} {
		if Compare(attacker, HomeBase) != Wins {
			t.Errorf("expected %v to beat HomeBase", attacker)
		}
		if Compare(HomeBase, attacker) != Loses {
			t.Errorf("expected HomeBase to lose to %v", attacker)
		}
	}
}

func TestDominanceCycleDirection(t *testing.T) {
	if Compare(Triangle, Pentagon) != Wins {
		t.Errorf("Triangle should beat Pentagon")
	}
	if Compare(Square, Triangle) != Wins {
		t.Errorf("Square should beat Triangle")
	}
	if Compare(Pentagon, Square) != Wins {
		t.Errorf("Pentagon should beat Square")
	}
}
