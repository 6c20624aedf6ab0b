package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevisionOrdering(t *testing.T) {
	assert.True(t, Frontier < Homestead)
	assert.True(t, Homestead < Byzantium)
	assert.True(t, Berlin < London)
	assert.True(t, London < Merge)
	assert.True(t, Merge < Shanghai)
	assert.True(t, Shanghai < Cancun)
	assert.True(t, Cancun < Prague)
	assert.Equal(t, Prague, MaxRevision)
}

func TestRevisionString(t *testing.T) {
	assert.Equal(t, "frontier", Frontier.String())
	assert.Equal(t, "shanghai", Shanghai.String())
	assert.Equal(t, "prague", Prague.String())
	assert.Equal(t, "revision(-1)", Revision(-1).String())
	assert.Equal(t, "revision(99)", Revision(99).String())
}

func TestParseRevision(t *testing.T) {
	for r := Frontier; r <= MaxRevision; r++ {
		got, err := ParseRevision(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	got, err := ParseRevision("  Shanghai ")
	require.NoError(t, err)
	assert.Equal(t, Shanghai, got)

	_, err = ParseRevision("atlantis")
	assert.Error(t, err)
}
