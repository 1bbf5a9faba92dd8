package signing

import (
	"context"
	"log"

	"github.com/algorand/go-algorand-sdk/v2/client/kmd"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/pkg/errors"
)

// KMDSigner signs through a key management daemon wallet. It is the
// preferred backend when a kmd endpoint is configured and reachable.
type KMDSigner struct {
	client     kmd.Client
	wallet     string
	password   string
	configured bool
}

func NewKMDSigner(address, token, wallet, password string) *KMDSigner {
	if address == "" || wallet == "" {
		return &KMDSigner{}
	}
	client, err := kmd.MakeClient(address, token)
	if err != nil {
		log.Printf("⚠️ Failed to create kmd client: %v", err)
		return &KMDSigner{}
	}
	return &KMDSigner{
		client:     client,
		wallet:     wallet,
		password:   password,
		configured: true,
	}
}

func (s *KMDSigner) Name() string {
	return "kmd"
}

// Available probes the daemon; an unreachable daemon is "unavailable", not
// an error.
func (s *KMDSigner) Available() bool {
	if !s.configured {
		return false
	}
	_, err := s.client.ListWallets()
	return err == nil
}

func (s *KMDSigner) SignTransactions(ctx context.Context, txns []types.Transaction, indices []int) ([][]byte, error) {
	if !s.configured {
		return nil, ErrUnavailable
	}

	handle, err := s.walletHandle()
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, err := s.client.ReleaseWalletHandle(handle); err != nil {
			log.Printf("⚠️ Failed to release kmd wallet handle: %v", err)
		}
	}()

	signed := make([][]byte, 0, len(indices))
	for _, index := range indices {
		if index < 0 || index >= len(txns) {
			return nil, errors.Errorf("sign index %d out of range", index)
		}
		resp, err := s.client.SignTransaction(handle, s.password, txns[index])
		if err != nil {
			return nil, errors.Wrapf(ErrDeclined, "kmd refused transaction %d: %v", index, err)
		}
		signed = append(signed, resp.SignedTransaction)
	}
	return signed, nil
}

func (s *KMDSigner) walletHandle() (string, error) {
	wallets, err := s.client.ListWallets()
	if err != nil {
		return "", errors.Wrap(ErrUnavailable, err.Error())
	}

	for _, wallet := range wallets.Wallets {
		if wallet.Name == s.wallet || wallet.ID == s.wallet {
			handle, err := s.client.InitWalletHandle(wallet.ID, s.password)
			if err != nil {
				return "", errors.Wrapf(ErrDeclined, "failed to open kmd wallet %q: %v", s.wallet, err)
			}
			return handle.WalletHandleToken, nil
		}
	}
	return "", errors.Wrapf(ErrUnavailable, "kmd wallet %q not found", s.wallet)
}
