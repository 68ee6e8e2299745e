package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_DefaultBuild(t *testing.T) {
	t.Parallel()

	s := String()

	assert.Contains(t, s, Version)
	assert.Contains(t, s, "commit: "+Commit)
	assert.Contains(t, s, "built: "+Date)
}
