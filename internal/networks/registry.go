// Package networks maps numeric chain identifiers to canonical network
// names. The mapping is fixed at compile time; every entry point of the
// reconciliation flow validates its network id here before touching any
// other component.
package networks

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnsupportedNetwork is returned when a chain id has no canonical
// network name registered.
var ErrUnsupportedNetwork = errors.New("unsupported network")

// supportedNetworks is the fixed chain-id to network-name mapping.
var supportedNetworks = map[int64]string{
	1:        "ethereum",
	11155111: "sepolia",
	56:       "bsc",
}

// Resolve returns the canonical network name for the given chain id. It
// fails with ErrUnsupportedNetwork for any id outside the fixed mapping.
func Resolve(chainID int64) (string, error) {
	name, ok := supportedNetworks[chainID]
	if !ok {
		return "", fmt.Errorf("%w: chain id %d", ErrUnsupportedNetwork, chainID)
	}

	return name, nil
}

// IsSupported reports whether the given chain id has a registered network.
// It is a pure predicate used for input validation.
func IsSupported(chainID int64) bool {
	_, ok := supportedNetworks[chainID]
	return ok
}

// Names returns the canonical names of all supported networks in a stable
// alphabetical order.
func Names() []string {
	names := make([]string, 0, len(supportedNetworks))
	for _, name := range supportedNetworks {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}
