package ton

import (
	"github.com/tonkeeper/tongo/ton"
)

// Addresses arrive in two textual encodings: raw (0:hex) and user-friendly
// (EQ.../UQ...). Forms from different sources must never be compared
// directly; canonicalize to the raw form first.

func NormalizeAddress(address string) (string, error) {
	account, err := ton.ParseAccountID(address)
	if err != nil {
		return "", err
	}
	return account.ToRaw(), nil
}

func ToFriendlyAddress(address string) (string, error) {
	account, err := ton.ParseAccountID(address)
	if err != nil {
		return "", err
	}
	return account.ToHuman(true, false), nil
}

// AddressesEqual compares two addresses in any textual encoding.
// Unparseable input is never equal to anything.
func AddressesEqual(a, b string) bool {
	rawA, err := NormalizeAddress(a)
	if err != nil {
		return false
	}
	rawB, err := NormalizeAddress(b)
	if err != nil {
		return false
	}
	return rawA == rawB
}
