package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeRegion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Adana-1", "ADANA"},
		{"  İzmir-12 ", "İZMİR"},
		{"istanbul", "İSTANBUL"},
		{"ığdır", "IĞDIR"},
		{"Kahramanmaraş-3", "KAHRAMANMARAŞ"},
		{"Afyon-Karahisar", "AFYON-KARAHİSAR"},
		{"Adana-1-2", "ADANA"},
		{"Adana -4", "ADANA"},
		{"Adana-3 -4", "ADANA"},
		{"Adana-3\t-4 ", "ADANA"},
		{"Bölge-2a", "BÖLGE-2A"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := CanonicalizeRegion(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, CanonicalizeRegion(got), "canonicalization must be idempotent")
		})
	}
}

func TestCanonicalizeRegionMatchesDecomposedInput(t *testing.T) {
	// "ş" written as s + combining cedilla
	assert.Equal(t, CanonicalizeRegion("Mu\u015f"), CanonicalizeRegion("Mus\u0327"))
}

func TestIsMissing(t *testing.T) {
	for _, s := range []string{"", " ", "nan", "NaN", "None", "#N/A"} {
		assert.True(t, isMissing(s), s)
	}
	assert.False(t, isMissing("Adana"))
	assert.False(t, isMissing("0"))
}
