package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccept_RejectsOffsetWithinWindow(t *testing.T) {
	tr := New()
	assert.True(t, tr.Accept(1000, "fp1"))
	assert.False(t, tr.Accept(1100, "fp2"))
	assert.True(t, tr.Accept(5000, "fp3"))
}

func TestAccept_RejectsDuplicateFingerprint(t *testing.T) {
	tr := New()
	assert.True(t, tr.Accept(0, "same"))
	assert.False(t, tr.Accept(1_000_000, "same"))
}

func TestMerge_CombinesAcrossWorkers(t *testing.T) {
	a := New()
	b := New()
	a.Accept(0, "fpA")
	b.Accept(10_000, "fpB")
	b.Accept(20, "fpA") // collides with a's fingerprint after merge

	rejected := a.Merge(b)
	assert.Equal(t, []int64{20}, rejected)
	assert.Equal(t, 2, a.Count())
}
