// Package imd extracts second-order intermodulation product power from
// captured waveforms.
//
// When a two-tone stimulus at f1 and f2 passes through a device with
// second-order nonlinearity, spurious energy appears at the sum and
// difference frequencies f1+f2 and |f1-f2|. This package locates those
// products on the FFT bin grid of a capture and reports the stronger
// sideband's power in dB, the raw ingredient for intercept-point fitting.
package imd
