package convert_test

import (
	"errors"
	"testing"
	"time"

	"regift/internal/convert"
	"regift/internal/services"
	"regift/internal/timeplan"
)

func TestRequestMode(t *testing.T) {
	cases := []struct {
		name string
		req  convert.Request
		want convert.Mode
	}{
		{"frame count", convert.Request{FrameCount: 5}, convert.ModeFrameCount},
		{"frame rate", convert.Request{FrameRate: 15}, convert.ModeFrameRate},
		{"time points", convert.Request{TimePoints: []timeplan.Time{timeplan.Zero}}, convert.ModeTimePoints},
		{"none", convert.Request{}, ""},
		{"ambiguous", convert.Request{FrameCount: 5, FrameRate: 15}, ""},
	}
	for _, tc := range cases {
		if got := tc.req.Mode(); got != tc.want {
			t.Errorf("%s: Mode() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRequestValidate(t *testing.T) {
	points := []timeplan.Time{timeplan.FromSeconds(1), timeplan.FromSeconds(2)}
	cases := []struct {
		name  string
		req   convert.Request
		valid bool
	}{
		{"frame count", convert.Request{Source: "a.mov", FrameCount: 5, Delay: 200 * time.Millisecond}, true},
		{"frame rate with span", convert.Request{Source: "a.mov", FrameRate: 15, Start: timeplan.FromSeconds(1), Duration: timeplan.FromSeconds(2)}, true},
		{"time points", convert.Request{Source: "a.mov", TimePoints: points}, true},
		{"play once", convert.Request{Source: "a.mov", FrameCount: 1, LoopCount: -1}, true},
		{"missing source", convert.Request{FrameCount: 5}, false},
		{"no mode", convert.Request{Source: "a.mov"}, false},
		{"count and rate", convert.Request{Source: "a.mov", FrameCount: 5, FrameRate: 10}, false},
		{"count and points", convert.Request{Source: "a.mov", FrameCount: 5, TimePoints: points}, false},
		{"negative count", convert.Request{Source: "a.mov", FrameCount: -1}, false},
		{"negative rate", convert.Request{Source: "a.mov", FrameRate: -3}, false},
		{"count above ceiling", convert.Request{Source: "a.mov", FrameCount: 2000000000, Duration: timeplan.FromSeconds(3500000)}, false},
		{"count at ceiling", convert.Request{Source: "a.mov", FrameCount: timeplan.MaxFrames}, true},
		{"rate finer than a tick", convert.Request{Source: "a.mov", FrameRate: timeplan.Timescale + 1}, false},
		{"negative delay", convert.Request{Source: "a.mov", FrameCount: 2, Delay: -time.Second}, false},
		{"negative start", convert.Request{Source: "a.mov", FrameCount: 2, Start: timeplan.FromSeconds(-1)}, false},
		{"negative duration", convert.Request{Source: "a.mov", FrameCount: 2, Duration: timeplan.FromSeconds(-1)}, false},
		{"loop below -1", convert.Request{Source: "a.mov", FrameCount: 2, LoopCount: -2}, false},
		{"negative size", convert.Request{Source: "a.mov", FrameCount: 2, MaxPixelSize: -1}, false},
		{"negative timeout", convert.Request{Source: "a.mov", FrameCount: 2, Timeout: -time.Second}, false},
		{"rate with delay", convert.Request{Source: "a.mov", FrameRate: 10, Delay: time.Second}, false},
		{"points with span", convert.Request{Source: "a.mov", TimePoints: points, Duration: timeplan.FromSeconds(3)}, false},
		{"points not increasing", convert.Request{Source: "a.mov", TimePoints: []timeplan.Time{timeplan.FromSeconds(2), timeplan.FromSeconds(2)}}, false},
	}
	for _, tc := range cases {
		err := tc.req.Validate()
		if tc.valid && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.valid && !errors.Is(err, services.ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest, got %v", tc.name, err)
		}
	}
}
