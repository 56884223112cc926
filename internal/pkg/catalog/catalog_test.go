package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Len(t, c.All(), 3)

	course, ok := c.Find("course_py_basic")
	require.True(t, ok)
	assert.Equal(t, int64(990), course.PriceTWD)
	assert.Equal(t, int64(99000), course.UnitAmount())

	_, ok = c.Find(" course_flask_web ")
	assert.True(t, ok)

	_, ok = c.Find("course_missing")
	assert.False(t, ok)
}

func TestNewIgnoresDuplicateIDs(t *testing.T) {
	c := New([]Course{
		{ID: "a", PriceTWD: 1},
		{ID: "a", PriceTWD: 2},
		{ID: "b", PriceTWD: 3},
	})
	all := c.All()
	require.Len(t, all, 2)
	course, _ := c.Find("a")
	assert.Equal(t, int64(1), course.PriceTWD)

	all[0].PriceTWD = 100
	course, _ = c.Find("a")
	assert.Equal(t, int64(1), course.PriceTWD)
}
