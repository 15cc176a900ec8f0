package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageQueryNormalize(t *testing.T) {
	q := PageQuery{}
	assert.Equal(t, 0, q.Normalize())
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.Limit)

	q = PageQuery{Page: 3, Limit: 10}
	assert.Equal(t, 20, q.Normalize())
}

func TestNewPaginationMeta(t *testing.T) {
	meta := NewPaginationMeta(2, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, int64(41), meta.TotalItems)

	assert.Equal(t, 0, NewPaginationMeta(1, 20, 0).TotalPages)
}
