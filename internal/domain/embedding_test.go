package domain

import (
	"math"
	"testing"
)

func TestNormalizeVector(t *testing.T) {
	v := []float32{3, 4}
	if !NormalizeVector(v) {
		t.Fatalf("expected normalization to succeed")
	}
	if n := Norm(v); math.Abs(n-1.0) > 1e-6 {
		t.Fatalf("norm after normalization = %v, want 1.0", n)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Fatalf("unexpected normalized vector %v", v)
	}
}

func TestNormalizeVector_Zero(t *testing.T) {
	v := []float32{0, 0, 0}
	if NormalizeVector(v) {
		t.Fatalf("expected zero vector to be rejected")
	}
}

func TestNorm_Empty(t *testing.T) {
	if n := Norm(nil); n != 0 {
		t.Fatalf("Norm(nil) = %v, want 0", n)
	}
}
