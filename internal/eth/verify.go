// Package eth verifies EIP-191 personal_sign signatures, the scheme
// browser wallets use when asked to sign a plain-text challenge.
package eth

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/layer-3/gatekeeper/core"
)

// SignatureLength is the expected byte length of a wallet signature (r || s || v).
const SignatureLength = 65

// RecoverAddress recovers the signer address from a personal_sign
// signature over message.
func RecoverAddress(message string, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes: %w", SignatureLength, core.ErrInvalidSignature)
	}

	// Wallets emit V as 27/28, geth's crypto package expects 0/1.
	sig := bytes.Clone(signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	hash := accounts.TextHash([]byte(message))
	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", core.ErrInvalidSignature)
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}

// VerifySignature checks that sigHex is a valid personal_sign signature
// over message produced by the key behind addressStr.
func VerifySignature(message, sigHex, addressStr string) error {
	if !common.IsHexAddress(addressStr) {
		return core.ErrMissingAddress
	}

	signature, err := hexutil.Decode(sigHex)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}

	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return err
	}

	if recovered != common.HexToAddress(addressStr) {
		return core.ErrInvalidSignature
	}

	return nil
}
