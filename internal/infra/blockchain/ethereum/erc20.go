package ethereum

import (
	"math/big"
	"strings"
)

// 4-byte method selectors (hex, without 0x) of the two ERC-20 calls that
// move tokens. Anything else in call data is not treated as a transfer.
const (
	selectorTransfer     = "a9059cbb" // transfer(address,uint256)
	selectorTransferFrom = "23b872dd" // transferFrom(address,address,uint256)
)

// erc20Transfer is the result of decoding an ERC-20 transfer call. Sender
// is only set for transferFrom, where the token owner differs from the
// account that signed the transaction.
type erc20Transfer struct {
	Sender    string // decoded token owner ("" for plain transfer)
	Recipient string // decoded token recipient
	Amount    string // decoded token amount, decimal string
}

// slot extracts the i-th 32-byte ABI argument slot from call data that has
// already been stripped of its 0x prefix and selector.
func slot(args string, i int) string {
	return args[i*64 : (i+1)*64]
}

// slotAddress decodes an address argument: the low 20 bytes of a slot.
func slotAddress(args string, i int) string {
	return "0x" + strings.ToLower(slot(args, i)[24:])
}

// slotAmount decodes a uint256 argument into a decimal string.
func slotAmount(args string, i int) (string, bool) {
	v, ok := new(big.Int).SetString(slot(args, i), 16)
	if !ok {
		return "", false
	}

	return v.String(), true
}

// decodeERC20Transfer inspects raw call data and, when it encodes an ERC-20
// transfer or transferFrom, recovers the true token recipient and amount
// hidden inside the arguments. The envelope's To field only names the token
// contract for such calls, so this decoding is what makes the recorded
// transfer fields meaningful.
//
// It returns false for empty call data, unknown selectors, and truncated
// or malformed arguments.
func decodeERC20Transfer(input string) (erc20Transfer, bool) {
	data := strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	if len(data) < 8 {
		return erc20Transfer{}, false
	}

	selector, args := strings.ToLower(data[:8]), data[8:]

	switch selector {
	case selectorTransfer:
		// transfer(address to, uint256 value)
		if len(args) < 2*64 {
			return erc20Transfer{}, false
		}

		amount, ok := slotAmount(args, 1)
		if !ok {
			return erc20Transfer{}, false
		}

		return erc20Transfer{
			Recipient: slotAddress(args, 0),
			Amount:    amount,
		}, true

	case selectorTransferFrom:
		// transferFrom(address from, address to, uint256 value)
		if len(args) < 3*64 {
			return erc20Transfer{}, false
		}

		amount, ok := slotAmount(args, 2)
		if !ok {
			return erc20Transfer{}, false
		}

		return erc20Transfer{
			Sender:    slotAddress(args, 0),
			Recipient: slotAddress(args, 1),
			Amount:    amount,
		}, true
	}

	return erc20Transfer{}, false
}
