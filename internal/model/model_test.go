package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		confidence float64
		want       ConfidenceTier
	}{
		{0.95, TierHigh},
		{0.8, TierHigh},
		{0.79, TierMedium},
		{0.6, TierMedium},
		{0.59, TierLow},
		{0, TierLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TierFor(tc.confidence))
	}
}

func TestVerdict_Valid(t *testing.T) {
	for _, v := range []Verdict{VerdictAccepted, VerdictRejected, VerdictOverpriced, VerdictUnderpriced, VerdictModified} {
		assert.True(t, v.Valid())
	}
	assert.False(t, Verdict("maybe").Valid())
	assert.False(t, Verdict("").Valid())
}

func TestVerdict_Negative(t *testing.T) {
	assert.True(t, VerdictRejected.Negative())
	assert.True(t, VerdictOverpriced.Negative())
	assert.True(t, VerdictUnderpriced.Negative())
	assert.False(t, VerdictAccepted.Negative())
	assert.False(t, VerdictModified.Negative())
}
