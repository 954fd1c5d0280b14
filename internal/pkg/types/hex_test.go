package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexFromString(t *testing.T) {
	t.Run("valid values", func(t *testing.T) {
		for _, s := range []string{"0x0", "0x1a", "0Xff", "0xDEADBEEF"} {
			h, err := HexFromString(s)
			require.NoError(t, err, s)
			assert.Equal(t, Hex(s), h)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		for _, s := range []string{"", "1a", "0x", "0xzz", "abc"} {
			_, err := HexFromString(s)
			assert.Error(t, err, s)
		}
	})
}

func TestHexUnmarshalJSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var h Hex
		require.NoError(t, json.Unmarshal([]byte(`"0x12"`), &h))
		assert.Equal(t, Hex("0x12"), h)
	})

	t.Run("not a string", func(t *testing.T) {
		var h Hex
		assert.Error(t, json.Unmarshal([]byte(`18`), &h))
	})

	t.Run("not hexadecimal", func(t *testing.T) {
		var h Hex
		assert.Error(t, json.Unmarshal([]byte(`"nope"`), &h))
	})
}

func TestHexInt(t *testing.T) {
	assert.Equal(t, int64(26), Hex("0x1a").Int())
	assert.Equal(t, int64(0), Hex("0x0").Int())
	assert.Equal(t, int64(0), Hex("").Int())
	assert.Equal(t, int64(0), Hex("0x").Int())
}

func TestHexBig(t *testing.T) {
	assert.Equal(t, "1000000000000000000", Hex("0xde0b6b3a7640000").Big().String())

	// Beyond int64 range.
	assert.Equal(t, "1180591620717411303424", Hex("0x400000000000000000").Big().String())

	assert.Equal(t, "0", Hex("").Big().String())
	assert.Equal(t, "0", Hex("0xzz").Big().String())
}
