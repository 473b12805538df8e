package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Install New   Tiles  ", "install new tiles"},
		{"Carrelage 30x30 @ 25€/m2!", "carrelage 30x30  25m2!"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in))
	}
}

func TestNormalize_KeepsAccentedLetters(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Refaire l'électricité de la pièce", "refaire lélectricité de la pièce"},
		{"Peinture à l'eau pour le séjour", "peinture à leau pour le séjour"},
		{"Carrelage céramique Île-de-France", "carrelage céramique île-de-france"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in))
	}
}

func TestFoldAccents(t *testing.T) {
	assert.Equal(t, "Ile-de-France", FoldAccents("Île-de-France"))
	assert.Equal(t, "Provence-Alpes-Cote d'Azur", FoldAccents("Provence-Alpes-Côte d'Azur"))
	assert.Equal(t, "plain", FoldAccents("plain"))
}

func TestEqualFold(t *testing.T) {
	assert.True(t, EqualFold("Île-de-France", "ile-de-france"))
	assert.True(t, EqualFold("BRETAGNE", "bretagne"))
	assert.False(t, EqualFold("Bretagne", "Normandie"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Grand Île-de-France Est", "ile-de-france"))
	assert.False(t, ContainsFold("Bretagne", "Corse"))
}

func TestKeywords_RankedByFrequency(t *testing.T) {
	got := Keywords("tile tile paint wall tile paint", 10)
	assert.Equal(t, []string{"tile", "paint", "wall"}, got)
}

func TestKeywords_DropsStopAndShortWords(t *testing.T) {
	got := Keywords("the paint is on a big wall", 10)
	assert.Equal(t, []string{"paint", "big", "wall"}, got)
}

func TestKeywords_Limit(t *testing.T) {
	got := Keywords("one? tile paint wall wood pipe", 2)
	assert.Len(t, got, 2)

	assert.Nil(t, Keywords("tile", 0))
}

func TestSimilarity(t *testing.T) {
	// exact substring hit
	assert.InDelta(t, 0.9, Similarity("ceramic tile", "ceramic tile 30x30", ""), 1e-9)
	// substring hit through the description
	assert.InDelta(t, 0.9, Similarity("adhesive", "fixing compound", "tile adhesive for walls"), 1e-9)
	// full word overlap without a substring hit
	assert.InDelta(t, 0.7, Similarity("adhesive tile", "tile adhesive", ""), 1e-9)
	// partial overlap
	assert.InDelta(t, 0.35, Similarity("ceramic tile", "tile adhesive", ""), 1e-9)
	// nothing shared
	assert.Zero(t, Similarity("paint", "copper pipe", "16mm plumbing pipe"))
	assert.Zero(t, Similarity("", "anything", ""))
}
