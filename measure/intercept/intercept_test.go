package intercept

import (
	"math"
	"testing"
)

func TestEstimateExactLine(t *testing.T) {
	// power = 3*level - 12 crosses zero at level 4.
	levels := []float64{1, 2, 3, 4}
	powers := make([]float64, len(levels))
	for i, l := range levels {
		powers[i] = 3*l - 12
	}

	got, err := Estimate(levels, powers)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(got-4) > 1e-12 {
		t.Errorf("intercept = %g, want 4", got)
	}
}

func TestFitLineCoefficients(t *testing.T) {
	levels := []float64{1, 2, 3, 4}
	powers := []float64{-9, -6, -3, 0}

	line, err := FitLine(levels, powers)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(line.Slope-3) > 1e-12 {
		t.Errorf("slope = %g, want 3", line.Slope)
	}
	if math.Abs(line.Offset-(-12)) > 1e-12 {
		t.Errorf("offset = %g, want -12", line.Offset)
	}
}

func TestEstimateNoisyLine(t *testing.T) {
	// Perturb an exact line with zero-mean residuals; OLS still recovers it.
	levels := []float64{1, 2, 3, 4}
	powers := []float64{-9.1, -5.9, -3.1, 0.1}

	got, err := Estimate(levels, powers)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(got-4) > 0.1 {
		t.Errorf("intercept = %g, want ~4", got)
	}
}

func TestEstimateDegenerateFit(t *testing.T) {
	levels := []float64{1, 2, 3, 4}
	powers := []float64{-20, -20, -20, -20}

	got, err := Estimate(levels, powers)
	if err != ErrDegenerateFit {
		t.Fatalf("err = %v, want %v", err, ErrDegenerateFit)
	}
	if got != 0 || math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("degenerate fit leaked value %g", got)
	}
}

func TestEstimateErrors(t *testing.T) {
	tests := []struct {
		name    string
		levels  []float64
		powers  []float64
		wantErr error
	}{
		{"length mismatch", []float64{1, 2}, []float64{1}, ErrLengthMismatch},
		{"one point", []float64{1}, []float64{-3}, ErrInsufficientData},
		{"empty", nil, nil, ErrInsufficientData},
		{"nan power", []float64{1, 2}, []float64{math.NaN(), 1}, ErrNonFiniteData},
		{"infinite power", []float64{1, 2}, []float64{math.Inf(-1), 1}, ErrNonFiniteData},
		{"no level spread", []float64{2, 2, 2}, []float64{1, 2, 3}, ErrDegenerateFit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Estimate(tt.levels, tt.powers)
			if err != tt.wantErr {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestXInterceptTolerance(t *testing.T) {
	l := Line{Slope: 1e-9, Offset: 5}

	if _, err := l.XIntercept(1e-6); err != ErrDegenerateFit {
		t.Errorf("err = %v, want %v", err, ErrDegenerateFit)
	}

	got, err := l.XIntercept(1e-12)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-(-5e9)) > 1 {
		t.Errorf("intercept = %g, want -5e9", got)
	}
}
