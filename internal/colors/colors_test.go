package colors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var hexRe = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func TestRandom_IsHex(t *testing.T) {
	for i := 0; i < 50; i++ {
		assert.Regexp(t, hexRe, Random())
	}
}

func TestForKey_Stable(t *testing.T) {
	a := ForKey("task-1")
	assert.Regexp(t, hexRe, a)
	assert.Equal(t, a, ForKey("task-1"))
}
