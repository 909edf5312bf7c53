package latticeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	id, err := Parse("LAA001AAA")
	require.NoError(t, err)
	assert.Equal(t, "LAA001AAA", id.String())
	assert.Equal(t, "AAA", id.Client())
}

func TestParseRejectsMissingMarker(t *testing.T) {
	_, err := Parse("AA001AAA")
	require.Error(t, err)
}

func TestParseRejectsShortCounter(t *testing.T) {
	_, err := Parse("LAAAA")
	require.Error(t, err)
}

func TestParseRejectsLowercaseClient(t *testing.T) {
	_, err := Parse("LAA001aaa")
	require.Error(t, err)
}

func TestRoundTripMint(t *testing.T) {
	for _, n := range []uint64{0, 1, 31, 32, 1023, 1 << 20} {
		id, err := Mint("ZZZ", n)
		require.NoError(t, err)
		reparsed, err := Parse(id.String())
		require.NoError(t, err)
		assert.Equal(t, n, reparsed.Counter())
		assert.Equal(t, "ZZZ", reparsed.Client())
	}
}

func TestCounterOrderingWithinLengthClass(t *testing.T) {
	a, err := Mint("AAA", 5)
	require.NoError(t, err)
	b, err := Mint("AAA", 6)
	require.NoError(t, err)
	assert.Less(t, a.String(), b.String())
}

func TestEqual(t *testing.T) {
	a := MustParse("LAA001AAA")
	b := MustParse("LAA001AAA")
	c := MustParse("LAA002AAA")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
