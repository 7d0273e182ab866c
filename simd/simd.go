// File: simd/simd.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package simd holds float32 kernels written as 8-lane unrolled loops so the
// compiler can keep them in registers and vectorise the bounds checks away.
// They are portable Go; Features reports what the host CPU offers.
package simd

import (
	"errors"

	"golang.org/x/sys/cpu"
)

// Lanes is the unroll width of every kernel.
const Lanes = 8

// ErrLengthMismatch is returned when operand lengths differ.
var ErrLengthMismatch = errors.New("simd: operand length mismatch")

// CPUFeatures describes the vector extensions of the host.
type CPUFeatures struct {
	AVX2    bool
	FMA     bool
	AVX512F bool
	ASIMD   bool
}

// Features probes the host CPU.
func Features() CPUFeatures {
	return CPUFeatures{
		AVX2:    cpu.X86.HasAVX2,
		FMA:     cpu.X86.HasFMA,
		AVX512F: cpu.X86.HasAVX512F,
		ASIMD:   cpu.ARM64.HasASIMD,
	}
}

func check(a, b, out int) error {
	if a != b || a != out {
		return ErrLengthMismatch
	}
	return nil
}

// Add stores a[i]+b[i] into out.
func Add(a, b, out []float32) error {
	if err := check(len(a), len(b), len(out)); err != nil {
		return err
	}
	i := 0
	for ; i+Lanes <= len(a); i += Lanes {
		x, y, o := a[i:i+Lanes:i+Lanes], b[i:i+Lanes:i+Lanes], out[i:i+Lanes:i+Lanes]
		o[0], o[1], o[2], o[3] = x[0]+y[0], x[1]+y[1], x[2]+y[2], x[3]+y[3]
		o[4], o[5], o[6], o[7] = x[4]+y[4], x[5]+y[5], x[6]+y[6], x[7]+y[7]
	}
	for ; i < len(a); i++ {
		out[i] = a[i] + b[i]
	}
	return nil
}

// Mul stores a[i]*b[i] into out.
func Mul(a, b, out []float32) error {
	if err := check(len(a), len(b), len(out)); err != nil {
		return err
	}
	i := 0
	for ; i+Lanes <= len(a); i += Lanes {
		x, y, o := a[i:i+Lanes:i+Lanes], b[i:i+Lanes:i+Lanes], out[i:i+Lanes:i+Lanes]
		o[0], o[1], o[2], o[3] = x[0]*y[0], x[1]*y[1], x[2]*y[2], x[3]*y[3]
		o[4], o[5], o[6], o[7] = x[4]*y[4], x[5]*y[5], x[6]*y[6], x[7]*y[7]
	}
	for ; i < len(a); i++ {
		out[i] = a[i] * b[i]
	}
	return nil
}

// FMAPlusOne stores a[i]*b[i]+1 into out.
func FMAPlusOne(a, b, out []float32) error {
	if err := check(len(a), len(b), len(out)); err != nil {
		return err
	}
	i := 0
	for ; i+Lanes <= len(a); i += Lanes {
		x, y, o := a[i:i+Lanes:i+Lanes], b[i:i+Lanes:i+Lanes], out[i:i+Lanes:i+Lanes]
		o[0], o[1], o[2], o[3] = x[0]*y[0]+1, x[1]*y[1]+1, x[2]*y[2]+1, x[3]*y[3]+1
		o[4], o[5], o[6], o[7] = x[4]*y[4]+1, x[5]*y[5]+1, x[6]*y[6]+1, x[7]*y[7]+1
	}
	for ; i < len(a); i++ {
		out[i] = a[i]*b[i] + 1
	}
	return nil
}

// Sum adds all elements using Lanes independent accumulators, so the result
// may differ from a sequential sum in the last bits.
func Sum(a []float32) float32 {
	var acc [Lanes]float32
	i := 0
	for ; i+Lanes <= len(a); i += Lanes {
		x := a[i : i+Lanes : i+Lanes]
		acc[0] += x[0]
		acc[1] += x[1]
		acc[2] += x[2]
		acc[3] += x[3]
		acc[4] += x[4]
		acc[5] += x[5]
		acc[6] += x[6]
		acc[7] += x[7]
	}
	s := (acc[0] + acc[1]) + (acc[2] + acc[3]) + (acc[4] + acc[5]) + (acc[6] + acc[7])
	for ; i < len(a); i++ {
		s += a[i]
	}
	return s
}

// Eq stores a[i]==b[i] into out.
func Eq(a, b []float32, out []bool) error {
	if err := check(len(a), len(b), len(out)); err != nil {
		return err
	}
	for i := range a {
		out[i] = a[i] == b[i]
	}
	return nil
}

// Gt stores a[i]>b[i] into out.
func Gt(a, b []float32, out []bool) error {
	if err := check(len(a), len(b), len(out)); err != nil {
		return err
	}
	for i := range a {
		out[i] = a[i] > b[i]
	}
	return nil
}
