package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := Generate()
		require.NoError(t, err)
		assert.Len(t, id, length)
		assert.Regexp(t, `^[A-Za-z0-9]+$`, id)
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}
