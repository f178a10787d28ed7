//go:build amd64 && !purego

package cpu

import (
	"encoding/binary"
	"runtime"

	"golang.org/x/sys/cpu"
)

// CPUID leaves and feature bits used by detection.
const (
	leafVendor       = 0x00000000
	leafFeatures     = 0x00000001
	leafExtMax       = 0x80000000
	leafExtFeatures  = 0x80000001
	leafExtPowerMgmt = 0x80000007

	bitTSC          = 1 << 4  // CPUID.01h:EDX
	bitRDTSCP       = 1 << 27 // CPUID.80000001h:EDX
	bitInvariantTSC = 1 << 8  // CPUID.80000007h:EDX
)

// Features describes the counter related capabilities of the processor.
type Features struct {
	Vendor string

	HasTSC          bool
	HasRDTSCP       bool
	HasInvariantTSC bool

	// Reported for diagnostics only.
	HasSSE2 bool
	HasAVX2 bool

	Architecture string
}

// Missing returns the names of required instructions the processor lacks.
// An empty result means ReadStart and ReadEnd are safe to execute.
//
// An invariant TSC is not required: drifting counters are the caller's
// problem and are only reported through HasInvariantTSC.
func (f Features) Missing() []string {
	var missing []string

	if !f.HasTSC {
		missing = append(missing, "RDTSC")
	}

	if !f.HasRDTSCP {
		missing = append(missing, "RDTSCP")
	}

	return missing
}

// DetectFeatures queries CPUID for the counter instructions.
// CPUID itself is part of the amd64 baseline and always available.
func DetectFeatures() Features {
	maxLeaf, ebx, ecx, edx := CPUID(leafVendor, 0)

	f := Features{
		Vendor:       vendorString(ebx, edx, ecx),
		HasSSE2:      cpu.X86.HasSSE2,
		HasAVX2:      cpu.X86.HasAVX2,
		Architecture: runtime.GOARCH,
	}

	if maxLeaf >= leafFeatures {
		_, _, _, edx = CPUID(leafFeatures, 0)
		f.HasTSC = edx&bitTSC != 0
	}

	maxExt, _, _, _ := CPUID(leafExtMax, 0)

	if maxExt >= leafExtFeatures {
		_, _, _, edx = CPUID(leafExtFeatures, 0)
		f.HasRDTSCP = edx&bitRDTSCP != 0
	}

	if maxExt >= leafExtPowerMgmt {
		_, _, _, edx = CPUID(leafExtPowerMgmt, 0)
		f.HasInvariantTSC = edx&bitInvariantTSC != 0
	}

	return f
}

// vendorString assembles the 12 byte vendor id, which CPUID leaf 0 returns
// in EBX, EDX, ECX order.
func vendorString(ebx, edx, ecx uint32) string {
	var b [12]byte

	binary.LittleEndian.PutUint32(b[0:], ebx)
	binary.LittleEndian.PutUint32(b[4:], edx)
	binary.LittleEndian.PutUint32(b[8:], ecx)

	return string(b[:])
}
