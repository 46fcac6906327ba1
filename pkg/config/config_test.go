package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a", "b"}, CSV(" a, ,b ,"))
}

func TestNonEmpty(t *testing.T) {
	t.Parallel()

	require.NoError(t, NonEmpty(Required{Env: "A", Value: "x"}))

	err := NonEmpty(Required{Env: "A"}, Required{Env: "B", Value: "y"}, Required{Env: "C"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required env A")
	assert.Contains(t, err.Error(), "missing required env C")
	assert.NotContains(t, err.Error(), "env B")
}
