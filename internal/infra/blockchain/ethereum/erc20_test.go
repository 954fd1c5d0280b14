package ethereum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pad left-pads a hex value to a full 32-byte ABI slot.
func pad(hex string) string {
	return strings.Repeat("0", 64-len(hex)) + hex
}

func TestDecodeERC20Transfer(t *testing.T) {
	t.Run("transfer", func(t *testing.T) {
		input := "0xa9059cbb" +
			pad("1111111111111111111111111111111111111111") +
			pad("de0b6b3a7640000") // 1e18

		transfer, ok := decodeERC20Transfer(input)
		require.True(t, ok)

		assert.Empty(t, transfer.Sender)
		assert.Equal(t, "0x1111111111111111111111111111111111111111", transfer.Recipient)
		assert.Equal(t, "1000000000000000000", transfer.Amount)
	})

	t.Run("transferFrom recovers the token owner", func(t *testing.T) {
		input := "0x23b872dd" +
			pad("2222222222222222222222222222222222222222") +
			pad("3333333333333333333333333333333333333333") +
			pad("f4240") // 1e6

		transfer, ok := decodeERC20Transfer(input)
		require.True(t, ok)

		assert.Equal(t, "0x2222222222222222222222222222222222222222", transfer.Sender)
		assert.Equal(t, "0x3333333333333333333333333333333333333333", transfer.Recipient)
		assert.Equal(t, "1000000", transfer.Amount)
	})

	t.Run("mixed-case call data decodes to lowercase addresses", func(t *testing.T) {
		input := "0xA9059CBB" +
			pad("AbCdEf1234567890aBcDeF1234567890ABCDef12") +
			pad("1")

		transfer, ok := decodeERC20Transfer(input)
		require.True(t, ok)

		assert.Equal(t, "0xabcdef1234567890abcdef1234567890abcdef12", transfer.Recipient)
		assert.Equal(t, "1", transfer.Amount)
	})

	t.Run("zero amount still decodes", func(t *testing.T) {
		input := "0xa9059cbb" +
			pad("1111111111111111111111111111111111111111") +
			pad("0")

		transfer, ok := decodeERC20Transfer(input)
		require.True(t, ok)
		assert.Equal(t, "0", transfer.Amount)
	})

	for _, tc := range []struct {
		name  string
		input string
	}{
		{name: "empty call data", input: ""},
		{name: "bare 0x", input: "0x"},
		{name: "unknown selector", input: "0xdeadbeef" + pad("11") + pad("22")},
		{name: "truncated transfer arguments", input: "0xa9059cbb" + pad("1111111111111111111111111111111111111111")},
		{name: "truncated transferFrom arguments", input: "0x23b872dd" + pad("11") + pad("22")},
		{name: "non-hex amount slot", input: "0xa9059cbb" + pad("11") + strings.Repeat("z", 64)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := decodeERC20Transfer(tc.input)
			assert.False(t, ok)
		})
	}
}
