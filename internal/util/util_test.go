package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "living-room", Slugify("Living Room"))
	assert.Equal(t, "cafe", Slugify("Café"))
	assert.Equal(t, "kids-room-2", Slugify("  Kids' Room #2! "))
}

func TestDedupeInts(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, DedupeInts([]int{3, 1, 3, 2, 1}))
	assert.Equal(t, []int{}, DedupeInts(nil))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
}
