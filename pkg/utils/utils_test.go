package utils

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRandSourceDeterministic(t *testing.T) {
	a := NewRandSource(527)
	b := NewRandSource(527)
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("Expected equal sequences for equal seeds at step %d", i)
		}
	}
}

func TestRandSourceUniformRange(t *testing.T) {
	r := NewRandSource(42)
	for i := 0; i < 1000; i++ {
		v := r.UniformFloat64(0.5, 0.9)
		if v < 0.5 || v >= 0.9 {
			t.Fatalf("Value %f out of [0.5, 0.9)", v)
		}
	}
}

func TestRandSourceConcurrent(t *testing.T) {
	r := NewRandSource(1)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.NormFloat64(0, 1)
			}
		}()
	}
	wg.Wait()
}

func TestClampFloat64(t *testing.T) {
	if ClampFloat64(1.5, 0, 1) != 1 || ClampFloat64(-1, 0, 1) != 0 || ClampFloat64(0.3, 0, 1) != 0.3 {
		t.Error("ClampFloat64 mismatch")
	}
}

func TestFloorSeconds(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int64
	}{
		{0, 0},
		{999 * time.Millisecond, 0},
		{1500 * time.Millisecond, 1},
		{61*time.Second + 900*time.Millisecond, 61},
		{-time.Second, 0},
	}
	for _, tt := range tests {
		if got := FloorSeconds(tt.d); got != tt.want {
			t.Errorf("FloorSeconds(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestMinutes(t *testing.T) {
	if got := Minutes(90 * time.Second); got != 1.5 {
		t.Errorf("Expected 1.5 minutes, got %f", got)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(1500 * time.Millisecond); got != "1.5s" {
		t.Errorf("Expected 1.5s, got %s", got)
	}
	if got := FormatDuration(90*time.Second + 400*time.Millisecond); got != "1m30s" {
		t.Errorf("Expected 1m30s, got %s", got)
	}
}

func TestGenerateRunID(t *testing.T) {
	a := GenerateRunID()
	b := GenerateRunID()
	if !strings.HasPrefix(a, "run-") {
		t.Errorf("Expected run- prefix, got %s", a)
	}
	if a == b {
		t.Errorf("Expected unique run IDs, got %s twice", a)
	}
}
