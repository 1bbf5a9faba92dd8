package signing

import (
	"context"
	"crypto/ed25519"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/pkg/errors"
)

// MnemonicSigner signs with a local issuer key recovered from a 25-word
// mnemonic. It is the lowest-priority backend: always available once
// configured, never interactive.
type MnemonicSigner struct {
	key     ed25519.PrivateKey
	address string
}

func NewMnemonicSigner(phrase string) (*MnemonicSigner, error) {
	if phrase == "" {
		return &MnemonicSigner{}, nil
	}
	key, err := mnemonic.ToPrivateKey(phrase)
	if err != nil {
		return nil, errors.Wrap(err, "invalid issuer mnemonic")
	}
	account, err := crypto.AccountFromPrivateKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive issuer account")
	}
	return &MnemonicSigner{key: key, address: account.Address.String()}, nil
}

func (s *MnemonicSigner) Name() string {
	return "mnemonic"
}

// Address is the issuer account derived from the configured key, empty when
// the backend is unconfigured.
func (s *MnemonicSigner) Address() string {
	return s.address
}

func (s *MnemonicSigner) Available() bool {
	return len(s.key) > 0
}

func (s *MnemonicSigner) SignTransactions(ctx context.Context, txns []types.Transaction, indices []int) ([][]byte, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}

	signed := make([][]byte, 0, len(indices))
	for _, index := range indices {
		if index < 0 || index >= len(txns) {
			return nil, errors.Errorf("sign index %d out of range", index)
		}
		_, stx, err := crypto.SignTransaction(s.key, txns[index])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to sign transaction %d", index)
		}
		signed = append(signed, stx)
	}
	return signed, nil
}
