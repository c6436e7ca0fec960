package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	factory := func(Deps) (*Contribution, error) { return &Contribution{}, nil }

	require.NoError(t, Register("test-register", factory))
	assert.Error(t, Register("test-register", factory), "duplicate name")
	assert.Error(t, Register("", factory))
	assert.Error(t, Register("test-nil", nil))

	got, ok := Get("test-register")
	require.True(t, ok)
	assert.NotNil(t, got)

	_, ok = Get("test-missing")
	assert.False(t, ok)
}

func TestNamesSorted(t *testing.T) {
	factory := func(Deps) (*Contribution, error) { return &Contribution{}, nil }
	require.NoError(t, Register("test-zeta", factory))
	require.NoError(t, Register("test-alpha", factory))

	names := Names()
	alpha, zeta := -1, -1
	for i, name := range names {
		switch name {
		case "test-alpha":
			alpha = i
		case "test-zeta":
			zeta = i
		}
	}
	require.NotEqual(t, -1, alpha)
	require.NotEqual(t, -1, zeta)
	assert.Less(t, alpha, zeta)
}
