package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hashed, err := Hash("correct-horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct-horse", hashed)
	assert.True(t, Verify("correct-horse", hashed))
	assert.False(t, Verify("wrong-horse", hashed))
	assert.False(t, Verify("correct-horse", "not-a-hash"))
}
