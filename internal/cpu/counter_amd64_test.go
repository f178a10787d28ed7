//go:build amd64 && !purego

package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStartReadEndOrdered(t *testing.T) {
	for range 1000 {
		start := ReadStart()
		end := ReadEnd()
		require.GreaterOrEqual(t, end, start, "counter went backwards")
	}
}

func TestReadStartMonotonic(t *testing.T) {
	prev := ReadStart()
	for range 1000 {
		next := ReadStart()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestReadCombinesHalves(t *testing.T) {
	// Any machine that has been up for more than a couple of seconds has
	// counted past 2^32 cycles, so a value that fits in 32 bits means the
	// high half was dropped.
	assert.Greater(t, ReadStart(), uint64(1<<32))
	assert.Greater(t, ReadEnd(), uint64(1<<32))
}

func TestCounterPrecision(t *testing.T) {
	const samples = 1000

	values := make([]uint64, samples)
	for i := range values {
		values[i] = ReadEnd()
	}

	unique := make(map[uint64]struct{}, samples)
	for _, v := range values {
		unique[v] = struct{}{}
	}

	// Serialized reads take tens of cycles, every read must be distinct.
	assert.Len(t, unique, samples)
}

func TestVendorString(t *testing.T) {
	// "GenuineIntel" as returned in EBX, EDX, ECX.
	assert.Equal(t, "GenuineIntel", vendorString(0x756e6547, 0x49656e69, 0x6c65746e))
	// "AuthenticAMD"
	assert.Equal(t, "AuthenticAMD", vendorString(0x68747541, 0x69746e65, 0x444d4163))
}

func TestMissing(t *testing.T) {
	assert.Empty(t, Features{HasTSC: true, HasRDTSCP: true}.Missing())
	assert.Equal(t, []string{"RDTSCP"}, Features{HasTSC: true}.Missing())
	assert.Equal(t, []string{"RDTSC", "RDTSCP"}, Features{HasInvariantTSC: true}.Missing())
}

func TestDetectFeatures(t *testing.T) {
	f := DetectFeatures()

	assert.Equal(t, "amd64", f.Architecture)
	assert.Len(t, f.Vendor, 12)
	// SSE2 is part of the amd64 baseline.
	assert.True(t, f.HasSSE2)
	// The other tests in this package already executed RDTSC and RDTSCP.
	assert.True(t, f.HasTSC)
	assert.True(t, f.HasRDTSCP)
}

// TestCounterDebug provides diagnostic information about the counter.
func TestCounterDebug(t *testing.T) {
	f := DetectFeatures()
	t.Logf("Vendor: %q", f.Vendor)
	t.Logf("TSC: %v, RDTSCP: %v, invariant TSC: %v", f.HasTSC, f.HasRDTSCP, f.HasInvariantTSC)

	c1 := ReadStart()
	c2 := ReadEnd()
	c3 := ReadStart()

	t.Logf("Sample readings: c1=%d, c2=%d, c3=%d", c1, c2, c3)
	t.Logf("Deltas: c2-c1=%d, c3-c2=%d", c2-c1, c3-c2)
}

func BenchmarkReadStart(b *testing.B) {
	for range b.N {
		_ = ReadStart()
	}
}

func BenchmarkReadEnd(b *testing.B) {
	for range b.N {
		_ = ReadEnd()
	}
}

func BenchmarkCPUID(b *testing.B) {
	for range b.N {
		_, _, _, _ = CPUID(leafVendor, 0)
	}
}
