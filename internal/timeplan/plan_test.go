package timeplan

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestPlanEvenlySpacedWholeSeconds(t *testing.T) {
	times, err := Plan(Zero, FromSeconds(10), 5)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	want := []float64{0, 2, 4, 6, 8}
	if len(times) != len(want) {
		t.Fatalf("expected %d timestamps, got %d", len(want), len(times))
	}
	for i, ts := range times {
		if ts.Cmp(FromSeconds(want[i])) != 0 {
			t.Fatalf("timestamp %d = %s, want %.0fs", i, ts, want[i])
		}
	}
}

func TestPlanHonoursStartOffset(t *testing.T) {
	times, err := Plan(FromSeconds(30), FromSeconds(15), 3)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if times[0].Cmp(FromSeconds(30)) != 0 {
		t.Fatalf("first timestamp = %s, want 30s", times[0])
	}
	if times[2].Cmp(FromSeconds(40)) != 0 {
		t.Fatalf("last timestamp = %s, want 40s", times[2])
	}
}

func TestPlanProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		start := FromTicks(rng.Int63n(100 * Timescale))
		span := FromTicks(1 + rng.Int63n(3600*Timescale))
		maxFrames := span.Ticks()
		if maxFrames > 2000 {
			maxFrames = 2000
		}
		count := 1 + int(rng.Int63n(maxFrames))

		times, err := Plan(start, span, count)
		if err != nil {
			t.Fatalf("Plan(%s, %s, %d) returned error: %v", start, span, count, err)
		}
		if len(times) != count {
			t.Fatalf("expected %d timestamps, got %d", count, len(times))
		}
		if times[0].Cmp(start) != 0 {
			t.Fatalf("first timestamp %s != start %s", times[0], start)
		}
		if !times[len(times)-1].Before(start.Add(span)) {
			t.Fatalf("last timestamp %s not before end %s", times[len(times)-1], start.Add(span))
		}
		for i := 1; i < len(times); i++ {
			if !times[i-1].Before(times[i]) {
				t.Fatalf("timestamps not strictly increasing at %d: %s then %s", i, times[i-1], times[i])
			}
		}
	}
}

func TestPlanRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		start Time
		span  Time
		count int
		want  error
	}{
		{"zero frames", Zero, FromSeconds(10), 0, ErrInvalidFrameCount},
		{"negative frames", Zero, FromSeconds(10), -3, ErrInvalidFrameCount},
		{"zero span", Zero, Zero, 5, ErrInvalidSpan},
		{"negative span", Zero, FromSeconds(-1), 5, ErrInvalidSpan},
		{"negative start", FromSeconds(-1), FromSeconds(1), 5, ErrInvalidStart},
		{"span shorter than frame count", Zero, FromTicks(3), 5, ErrSpanTooShort},
		{"above frame ceiling", Zero, FromSeconds(3500000), 2000000000, ErrTooManyFrames},
		{"one past ceiling", Zero, FromSeconds(600), MaxFrames + 1, ErrTooManyFrames},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			times, err := Plan(tt.start, tt.span, tt.count)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if times != nil {
				t.Fatalf("expected no timestamps on error, got %d", len(times))
			}
		})
	}
}

func TestPlanRateDerivesCountAndDelay(t *testing.T) {
	plan, err := PlanRate(Zero, FromSeconds(2), 15)
	if err != nil {
		t.Fatalf("PlanRate returned error: %v", err)
	}
	if plan.FrameCount != 30 {
		t.Fatalf("frame count = %d, want 30", plan.FrameCount)
	}
	if plan.Delay != time.Second/15 {
		t.Fatalf("delay = %v, want %v", plan.Delay, time.Second/15)
	}
	if len(plan.Times) != 30 {
		t.Fatalf("expected 30 timestamps, got %d", len(plan.Times))
	}
	if plan.Times[1].Ticks() != Timescale/15 {
		t.Fatalf("second timestamp = %d ticks, want %d", plan.Times[1].Ticks(), Timescale/15)
	}
}

func TestPlanRateFloorsFrameCount(t *testing.T) {
	plan, err := PlanRate(FromSeconds(1), FromRational(5, 2), 3)
	if err != nil {
		t.Fatalf("PlanRate returned error: %v", err)
	}
	if plan.FrameCount != 7 {
		t.Fatalf("frame count = %d, want floor(2.5*3)=7", plan.FrameCount)
	}
}

func TestPlanRateRejectsInvalidInput(t *testing.T) {
	if _, err := PlanRate(Zero, FromSeconds(2), 0); !errors.Is(err, ErrInvalidFrameRate) {
		t.Fatalf("expected ErrInvalidFrameRate, got %v", err)
	}
	if _, err := PlanRate(Zero, Zero, 10); !errors.Is(err, ErrInvalidSpan) {
		t.Fatalf("expected ErrInvalidSpan, got %v", err)
	}
	if _, err := PlanRate(Zero, FromTicks(10), 1); !errors.Is(err, ErrInvalidFrameCount) {
		t.Fatalf("expected ErrInvalidFrameCount for sub-frame span, got %v", err)
	}
	if _, err := PlanRate(Zero, FromSeconds(2), Timescale+1); !errors.Is(err, ErrSpanTooShort) {
		t.Fatalf("expected ErrSpanTooShort above one frame per tick, got %v", err)
	}
	if _, err := PlanRate(Zero, FromSeconds(3500000), 30); !errors.Is(err, ErrTooManyFrames) {
		t.Fatalf("expected ErrTooManyFrames, got %v", err)
	}
}

func TestPlanAcceptsExactlyMaxFrames(t *testing.T) {
	times, err := Plan(Zero, FromSeconds(600), MaxFrames)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(times) != MaxFrames {
		t.Fatalf("expected %d timestamps, got %d", MaxFrames, len(times))
	}
}

func TestValidatePoints(t *testing.T) {
	if err := ValidatePoints(nil); !errors.Is(err, ErrEmptyPoints) {
		t.Fatalf("expected ErrEmptyPoints, got %v", err)
	}
	ok := []Time{Zero, FromSeconds(0.5), FromSeconds(3)}
	if err := ValidatePoints(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dup := []Time{FromSeconds(1), FromSeconds(1)}
	if err := ValidatePoints(dup); !errors.Is(err, ErrNotIncreasing) {
		t.Fatalf("expected ErrNotIncreasing, got %v", err)
	}
	neg := []Time{FromSeconds(-1)}
	if err := ValidatePoints(neg); !errors.Is(err, ErrInvalidStart) {
		t.Fatalf("expected ErrInvalidStart, got %v", err)
	}
	many := make([]Time, MaxFrames+1)
	for i := range many {
		many[i] = FromTicks(int64(i))
	}
	if err := ValidatePoints(many); !errors.Is(err, ErrTooManyFrames) {
		t.Fatalf("expected ErrTooManyFrames, got %v", err)
	}
}
