// ABOUTME: Package reconstruct rebuilds full-rate Robot audio
// ABOUTME: Merges EVEN and ODD half-rate packets into one mono stream
// Package reconstruct combines the two half-rate sub-streams of a Robot
// file into one continuous mono signal.
//
// Each packet is placed on a lattice of period P by its stream position.
// EVEN packets occupy lattice offset 0 and ODD packets offset P/2.
// Finalize interpolates the positions between supplied samples:
//
//	r := reconstruct.New(reconstruct.Options{Stride: reconstruct.StrideQuad})
//	r.Append(even, audio.ParityEven, 0)
//	r.Append(odd, audio.ParityOdd, 2)
//	res, err := r.Finalize()
package reconstruct
