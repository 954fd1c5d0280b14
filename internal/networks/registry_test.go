package networks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	for _, tc := range []struct {
		name    string
		chainID int64
		want    string
	}{
		{name: "ethereum mainnet", chainID: 1, want: "ethereum"},
		{name: "sepolia testnet", chainID: 11155111, want: "sepolia"},
		{name: "bsc", chainID: 56, want: "bsc"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.chainID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("unknown chain id", func(t *testing.T) {
		_, err := Resolve(424242)
		assert.ErrorIs(t, err, ErrUnsupportedNetwork)
	})

	t.Run("zero chain id", func(t *testing.T) {
		_, err := Resolve(0)
		assert.ErrorIs(t, err, ErrUnsupportedNetwork)
	})
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported(1))
	assert.True(t, IsSupported(56))
	assert.False(t, IsSupported(-1))
	assert.False(t, IsSupported(424242))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"bsc", "ethereum", "sepolia"}, Names())
}
