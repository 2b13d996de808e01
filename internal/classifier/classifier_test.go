package classifier

import (
	"strings"
	"testing"

	"github.com/avionix/bite-engine/internal/models"
)

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestClassifyOutOfRange(t *testing.T) {
	res := Classify(10000, 200, []float64{10010, 9995, 10003}, 12000)
	if res.Code != models.CodeOutOfRange {
		t.Fatalf("expected E01, got %s (%s)", res.Code, res.Detail)
	}
	if !strings.Contains(res.Detail, "outside safe range") {
		t.Fatalf("unexpected detail: %q", res.Detail)
	}
}

func TestOutOfRangePrecedesStuck(t *testing.T) {
	// A frozen window would classify stuck, but the latest value is beyond
	// five tolerances and must win.
	res := Classify(10000, 200, repeat(10000, 8), 12000)
	if res.Code != models.CodeOutOfRange {
		t.Fatalf("expected E01 to short-circuit, got %s", res.Code)
	}
}

func TestClassifyStuck(t *testing.T) {
	res := Classify(10000, 200, repeat(10000, 6), 10000)
	if res.Code != models.CodeStuck {
		t.Fatalf("expected E03, got %s (%s)", res.Code, res.Detail)
	}
	if !strings.Contains(res.Detail, "stuck sensor") {
		t.Fatalf("unexpected detail: %q", res.Detail)
	}
}

func TestStuckNeedsSixSamples(t *testing.T) {
	res := Classify(10000, 200, repeat(10000, 5), 10000)
	if res.Code == models.CodeStuck {
		t.Fatalf("stuck must not trip on %d samples", 5)
	}
	if res.Code != models.CodeOK {
		t.Fatalf("expected OK on a short frozen window, got %s", res.Code)
	}
}

func TestClassifyNoisy(t *testing.T) {
	window := []float64{240, 260, 240, 260, 240, 260, 240, 260}
	res := Classify(250, 15, window, 260)
	if res.Code != models.CodeNoisy {
		t.Fatalf("expected E05, got %s (%s)", res.Code, res.Detail)
	}
	if !strings.Contains(res.Detail, "High noise") {
		t.Fatalf("unexpected detail: %q", res.Detail)
	}
}

func TestClassifyDrift(t *testing.T) {
	window := []float64{3.4, 3.5, 3.6, 3.4, 3.5, 3.6}
	res := Classify(0, 2, window, 3.5)
	if res.Code != models.CodeDrift {
		t.Fatalf("expected E04, got %s (%s)", res.Code, res.Detail)
	}
	if !strings.Contains(res.Detail, "Mean shifted") {
		t.Fatalf("unexpected detail: %q", res.Detail)
	}
}

func TestClassifyIntermittent(t *testing.T) {
	// One sharp excursion and recovery: the 32-unit adjacent delta exceeds
	// 2*tol while the window deviation stays under the noisy threshold.
	window := []float64{250, 250, 250, 250, 266, 234, 250, 250, 250, 250}
	res := Classify(250, 15, window, 250)
	if res.Code != models.CodeIntermittent {
		t.Fatalf("expected E02, got %s (%s)", res.Code, res.Detail)
	}
}

func TestClassifyOK(t *testing.T) {
	window := []float64{9990, 10010, 10002, 9998, 10005, 9997}
	res := Classify(10000, 200, window, 10003)
	if res.Code != models.CodeOK {
		t.Fatalf("expected OK, got %s (%s)", res.Code, res.Detail)
	}
	if res.Detail != "Passed BITE" {
		t.Fatalf("unexpected detail: %q", res.Detail)
	}
}

func TestClassifyEmptyWindow(t *testing.T) {
	if res := Classify(250, 15, nil, 251); res.Code != models.CodeOK {
		t.Fatalf("expected OK on empty window, got %s", res.Code)
	}
	if res := Classify(250, 15, nil, 400); res.Code != models.CodeOutOfRange {
		t.Fatalf("expected E01 on empty window with wild value, got %s", res.Code)
	}
}

func TestClassifyThresholdBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		nominal float64
		tol     float64
		window  []float64
		latest  float64
		want    models.FaultCode
	}{
		{"exactly five tolerances is not out of range", 100, 10, []float64{100, 100, 100}, 150, models.CodeOK},
		{"just past five tolerances trips", 100, 10, []float64{100, 100, 100}, 150.01, models.CodeOutOfRange},
		{"negative deviation trips symmetrically", 100, 10, []float64{100, 100, 100}, 49.99, models.CodeOutOfRange},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Classify(tc.nominal, tc.tol, tc.window, tc.latest)
			if res.Code != tc.want {
				t.Fatalf("got %s, want %s", res.Code, tc.want)
			}
		})
	}
}
