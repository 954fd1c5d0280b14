package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Hex represents a hexadecimal-encoded quantity as a string (e.g. "0x1a"),
// the format JSON-RPC nodes use for numeric fields. It provides validation,
// JSON (un)marshaling, and conversion helpers.
type Hex string

// HexFromString validates the input string and returns a Hex value if valid.
func HexFromString(s string) (Hex, error) {
	if err := validateHex(s); err != nil {
		return "", err
	}
	return Hex(s), nil
}

// validateHex checks whether a string is a valid hexadecimal number starting
// with "0x" or "0X".
func validateHex(s string) error {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return fmt.Errorf("hex string must start with 0x")
	}

	if _, err := strconv.ParseUint(s[2:], 16, 64); err != nil {
		return fmt.Errorf("invalid hexadecimal value: %w", err)
	}

	return nil
}

// MarshalJSON encodes the Hex as a JSON string.
func (h Hex) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(h))
}

// UnmarshalJSON parses and validates a JSON-encoded hexadecimal string.
func (h *Hex) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}

	if err := validateHex(s); err != nil {
		return err
	}

	*h = Hex(s)
	return nil
}

// Int returns the decoded int64 value of the hexadecimal string.
// Empty or invalid values decode to zero.
func (h Hex) Int() int64 {
	if len(h) < 3 {
		return 0
	}

	v, _ := strconv.ParseInt(string(h)[2:], 16, 64)
	return v
}

// Big returns the decoded arbitrary-precision value of the hexadecimal
// string. Empty or invalid values decode to zero. Use this for quantities
// that can exceed 64 bits, such as wei amounts.
func (h Hex) Big() *big.Int {
	v := new(big.Int)
	if len(h) < 3 {
		return v
	}

	if _, ok := v.SetString(string(h)[2:], 16); !ok {
		return new(big.Int)
	}
	return v
}
