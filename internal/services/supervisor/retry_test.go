package supervisor

import (
	"testing"
	"time"
)

func TestFixedDelay(t *testing.T) {
	p := FixedDelay{Interval: 5 * time.Second}
	for attempt := 1; attempt <= 100; attempt += 33 {
		if got := p.Delay(attempt); got != 5*time.Second {
			t.Errorf("Delay(%d) = %v, want 5s", attempt, got)
		}
	}
}

func TestExponentialBackoffWithoutJitter(t *testing.T) {
	p := ExponentialBackoff{Min: time.Second, Max: 30 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{200, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	tests := []struct {
		name string
		r    float64
		want time.Duration
	}{
		{"lowest", 0, 5 * time.Second},
		{"middle", 0.5, 10 * time.Second},
		{"highest", 0.75, 12500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ExponentialBackoff{Min: 10 * time.Second, Max: time.Minute, JitterPct: 50, Rand: func() float64 { return tt.r }}
			if got := p.Delay(1); got != tt.want {
				t.Errorf("Delay(1) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRetryPolicy(t *testing.T) {
	if _, ok := NewRetryPolicy("fixed", time.Second, 0, 0, 0).(FixedDelay); !ok {
		t.Error("fixed strategy should build FixedDelay")
	}
	p, ok := NewRetryPolicy("exponential", 0, time.Second, time.Minute, 10).(ExponentialBackoff)
	if !ok {
		t.Fatal("exponential strategy should build ExponentialBackoff")
	}
	if p.Min != time.Second || p.Max != time.Minute || p.JitterPct != 10 {
		t.Errorf("unexpected policy %+v", p)
	}
}
