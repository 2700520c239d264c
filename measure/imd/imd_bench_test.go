package imd

import (
	"testing"

	"github.com/cwbudde/algo-linearity/internal/testutil"
)

func BenchmarkProductPower(b *testing.B) {
	signal := testutil.Distort(testutil.TwoTone(1e6, 1.01e6, 50e6, 0.5, 4096), 0.05)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ProductPower(signal, 1e6, 1.01e6, 50e6)
	}
}
