// Package spectrum provides spectral analysis helpers for real-valued
// captures: normalized half-spectrum computation, bin-frequency math and
// nearest-bin lookup, plus SIMD-accelerated magnitude and power kernels.
package spectrum
