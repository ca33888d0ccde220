package demux

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanPhred(t *testing.T) {
	tests := []struct {
		name string
		qual string
		want float64
	}{
		{"all minimum", "!!!!", 0},                   // '!' is code point 33, Phred 0
		{"all Phred 40", strings.Repeat("I", 8), 40}, // 'I' is code point 73
		{"mixed", "!I", 20},                          // (0 + 40) / 2
		{"single char", "5", 20},                     // '5' is code point 53
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, err := MeanPhred([]byte(tt.qual))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, mean, 1e-9)
		})
	}
}

func TestMeanPhredAgainstCutoff(t *testing.T) {
	// "!!!!" has mean 0 and must always fail the default cutoff of 32;
	// eight 'I' characters have mean 40 and must always pass.
	low, err := MeanPhred([]byte("!!!!"))
	require.NoError(t, err)
	assert.Less(t, low, DefaultQualityCutoff)

	high, err := MeanPhred([]byte(strings.Repeat("I", 8)))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, high, DefaultQualityCutoff)
}

func TestMeanPhredEmptyQuality(t *testing.T) {
	_, err := MeanPhred(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty quality")
}
