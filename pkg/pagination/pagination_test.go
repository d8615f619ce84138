package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fitsocial/pkg/apperr"
)

func TestPageValidate(t *testing.T) {
	assert.NoError(t, New(0, 20).Validate(100))
	assert.NoError(t, New(3, 100).Validate(100))
	assert.NoError(t, New(0, 1000).Validate(0))

	assert.ErrorIs(t, New(-1, 20).Validate(100), apperr.ErrInvalidOperation)
	assert.ErrorIs(t, New(0, 0).Validate(100), apperr.ErrInvalidOperation)
	assert.ErrorIs(t, New(0, 101).Validate(100), apperr.ErrInvalidOperation)

	// 偏移量溢出的页码被拒绝，而不是回绕到其他页
	for _, p := range []Page{New(1<<62, 4), New(math.MaxInt/10+1, 20), New(math.MaxInt, 1)} {
		err := p.Validate(100)
		assert.ErrorIs(t, err, ErrPageRange, "page %d size %d", p.Index, p.Size)
		assert.ErrorIs(t, err, apperr.ErrInvalidOperation)
	}
	largest := New((math.MaxInt-21)/20, 20)
	require.NoError(t, largest.Validate(100))
	assert.Positive(t, largest.Offset())
}

func TestNewSliceBoundary(t *testing.T) {
	source := []int{5, 4, 3, 2, 1}
	fetch := func(p Page) []int {
		start := p.Offset()
		if start >= len(source) {
			return nil
		}
		end := start + p.Size + 1
		if end > len(source) {
			end = len(source)
		}
		return source[start:end]
	}

	first := NewSlice(fetch(New(0, 2)), New(0, 2))
	assert.Equal(t, []int{5, 4}, first.Items)
	assert.True(t, first.HasNext)

	middle := NewSlice(fetch(New(1, 2)), New(1, 2))
	assert.Equal(t, []int{3, 2}, middle.Items)
	assert.True(t, middle.HasNext)

	last := NewSlice(fetch(New(2, 2)), New(2, 2))
	assert.Equal(t, []int{1}, last.Items)
	assert.False(t, last.HasNext)

	beyond := NewSlice(fetch(New(3, 2)), New(3, 2))
	require.NotNil(t, beyond.Items)
	assert.Empty(t, beyond.Items)
	assert.False(t, beyond.HasNext)
}

func TestNewPaged(t *testing.T) {
	p := NewPaged([]string{"a", "b"}, 5, New(0, 2))
	assert.Equal(t, 3, p.TotalPages)
	assert.EqualValues(t, 5, p.TotalElements)

	empty := NewPaged[string](nil, 0, New(0, 2))
	assert.Equal(t, 0, empty.TotalPages)
	assert.NotNil(t, empty.Items)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(11, 0))
}

func TestMapSlice(t *testing.T) {
	s := MapSlice(Slice[int]{Items: []int{1, 2}, HasNext: true, Page: 1, Size: 2}, func(i int) int { return i * 10 })
	assert.Equal(t, []int{10, 20}, s.Items)
	assert.True(t, s.HasNext)
	assert.Equal(t, 1, s.Page)
}
