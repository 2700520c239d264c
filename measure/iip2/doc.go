// Package iip2 orchestrates swept-amplitude second-order intercept point
// measurements.
//
// A sweep steps a signal source through strictly increasing stimulus levels.
// At each step both instruments are reconfigured, a waveform is captured
// from the digitizer, and the second-order intermodulation product power is
// extracted from it. The collected (level, power) pairs are then fitted to a
// line whose x-axis crossing estimates the IIP2 of the device under test.
//
// Instruments appear only through the Source and Digitizer capability
// contracts, so a real SCPI bench and an in-memory simulation are
// interchangeable; see the instrument packages.
//
// Execution is single-threaded and strictly sequential: each step mutates
// shared instrument state, so steps never overlap, and the source output is
// disabled on every exit path, including cancellation and mid-sweep faults.
package iip2
