package feature

import "testing"

func TestPsrMaxPredicateTakesTheBetterSide(t *testing.T) {
	if got := psrMaxPredicate(3, 8, 11.4); got != 8/11.4 {
		t.Fatalf("psrMaxPredicate(3,8) = %v, want %v", got, 8/11.4)
	}
}

func TestPsrMaxPredicateClampsToOne(t *testing.T) {
	if got := psrMaxPredicate(50, 2, 11.4); got != 1 {
		t.Fatalf("psrMaxPredicate should clamp above 1, got %v", got)
	}
}

func TestPsrMaxPredicateClampsToZero(t *testing.T) {
	if got := psrMaxPredicate(-5, -9, 11.4); got != 0 {
		t.Fatalf("psrMaxPredicate should clamp negative ratios to 0, got %v", got)
	}
}
