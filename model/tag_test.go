package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTagName(t *testing.T) {
	name, err := NormalizeTagName("  Urban ")
	require.NoError(t, err)
	assert.Equal(t, "Urban", name)

	_, err = NormalizeTagName("   ")
	assert.ErrorIs(t, err, ErrInvalidTagName)

	_, err = NormalizeTagName("city/night")
	assert.ErrorIs(t, err, ErrInvalidTagName)

	_, err = NormalizeTagName(strings.Repeat("a", TagNameMaxLength+1))
	assert.ErrorIs(t, err, ErrInvalidTagName)

	name, err = NormalizeTagName(strings.Repeat("é", TagNameMaxLength))
	require.NoError(t, err)
	assert.Len(t, []rune(name), TagNameMaxLength)
}

func TestNormalizeTagNames_DropsCaseDuplicates(t *testing.T) {
	names, err := NormalizeTagNames([]string{"Nature", "urban", "NATURE", " Urban"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Nature", "urban"}, names)
}

func TestTagKey(t *testing.T) {
	assert.Equal(t, TagKey("Nature"), TagKey(" nATURE "))
}

func TestNewGeoPoint(t *testing.T) {
	p := NewGeoPoint(-157.4, 1.86)
	assert.Equal(t, "Point", p.Type)
	assert.Equal(t, []float64{-157.4, 1.86}, p.Coordinates)
}
