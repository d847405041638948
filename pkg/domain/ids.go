package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"

	dErrors "namecart/pkg/domain-errors"
)

const (
	maxLabelLength  = 63
	maxDomainLength = 253
)

// WalletAddress is a canonical, all-lowercase 0x-prefixed 20-byte hex address.
type WalletAddress string

func (w WalletAddress) String() string { return string(w) }

// ParseWalletAddress validates an address and returns its canonical lowercase form.
// Mixed-case input is accepted; the checksum is not enforced because the wallet
// collaborator already produced the address.
func ParseWalletAddress(s string) (WalletAddress, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "wallet address is required")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "wallet address must be 0x-prefixed")
	}
	if !common.IsHexAddress(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "wallet address is not a 20-byte hex address")
	}
	return WalletAddress(strings.ToLower(common.HexToAddress(s).Hex())), nil
}

// DomainName is a lowercase namespace identifier, optionally dotted.
type DomainName string

func (d DomainName) String() string { return string(d) }

// ParseDomainName normalizes and validates a domain name.
// Labels are 1-63 chars of [a-z0-9-] and may not start or end with a hyphen.
func ParseDomainName(s string) (DomainName, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "domain name is required")
	}
	if !utf8.ValidString(s) || len(s) > maxDomainLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "domain name is invalid")
	}
	for _, label := range strings.Split(s, ".") {
		if err := validateLabel(label); err != nil {
			return "", err
		}
	}
	return DomainName(s), nil
}

func validateLabel(label string) error {
	if label == "" || len(label) > maxLabelLength {
		return dErrors.New(dErrors.CodeInvalidInput, "domain label must be 1-63 characters")
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return dErrors.New(dErrors.CodeInvalidInput, "domain label may not start or end with a hyphen")
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			continue
		}
		return dErrors.New(dErrors.CodeInvalidInput, "domain label contains invalid characters")
	}
	return nil
}
