package biometric

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_EmptyRoster(t *testing.T) {
	m := NewMatcher(0, 0)
	res := m.Match(makeGray(16, 16, gradient), nil)
	assert.False(t, res.Matched)
	assert.Empty(t, res.PersonID)
	assert.True(t, math.IsInf(res.Score, -1))
}

func TestMatch_IdenticalCapture(t *testing.T) {
	img := makeGray(32, 32, gradient)
	m := NewMatcher(0, 0)
	res := m.Match(img, []Template{
		{PersonID: "emp-17", Image: makeGray(32, 32, func(x, y int) uint8 { return uint8((x + 200*y) % 256) })},
		{PersonID: "emp-42", Image: img},
	})
	require.True(t, res.Matched)
	assert.Equal(t, "emp-42", res.PersonID)
	assert.InDelta(t, 1.0, res.Score, 1e-9)
}

func TestMatch_BelowThreshold(t *testing.T) {
	m := NewMatcher(0.99, 0)
	res := m.Match(makeGray(32, 32, gradient), []Template{
		{PersonID: "emp-1", Image: makeGray(32, 32, func(x, y int) uint8 { return uint8((x * y) % 256) })},
	})
	assert.False(t, res.Matched)
	assert.Empty(t, res.PersonID)
	assert.Less(t, res.Score, 0.99)
}

func TestMatch_TieBreakRosterOrder(t *testing.T) {
	capture := makeGray(32, 32, gradient)
	dup := makeGray(32, 32, gradient)
	m := NewMatcher(0, 0)
	for i := 0; i < 10; i++ {
		res := m.Match(capture, []Template{
			{PersonID: "first", Image: dup},
			{PersonID: "second", Image: dup},
		})
		require.True(t, res.Matched)
		assert.Equal(t, "first", res.PersonID)
	}
}

func TestMatch_SkipsIncompatibleTemplates(t *testing.T) {
	capture := makeGray(32, 32, gradient)
	m := NewMatcher(0, 0)
	res := m.Match(capture, []Template{
		{PersonID: "wrong-size", Image: image.NewGray(image.Rect(0, 0, 16, 16))},
		{PersonID: "right", Image: capture},
	})
	require.True(t, res.Matched)
	assert.Equal(t, "right", res.PersonID)
	assert.Equal(t, 1, res.Skipped)
}

func TestMatch_Deterministic(t *testing.T) {
	capture := makeGray(32, 32, gradient)
	roster := []Template{
		{PersonID: "a", Image: makeGray(32, 32, func(x, y int) uint8 { return uint8((x*3 + y) % 256) })},
		{PersonID: "b", Image: makeGray(32, 32, func(x, y int) uint8 { return uint8((x + y*5) % 256) })},
	}
	m := NewMatcher(0, 0)
	first := m.Match(capture, roster)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Match(capture, roster))
	}
}
