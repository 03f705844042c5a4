//go:build !tevirtualmidi

package tevm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnlicensedBuildIsUnavailable(t *testing.T) {
	lib := New(Config{})
	err := lib.Load()
	require.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, ErrNotLicensed)
	assert.ErrorIs(t, lib.Err(), ErrNotLicensed)
	assert.NoError(t, lib.Close())
}
