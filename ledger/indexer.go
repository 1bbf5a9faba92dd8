package ledger

import (
	"context"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/indexer"
	sdkmodels "github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/pkg/errors"
)

// Indexer implements IndexerClient against an Algorand indexer endpoint.
type Indexer struct {
	client  *indexer.Client
	timeout time.Duration
}

func NewIndexer(address, token string, timeout time.Duration) (*Indexer, error) {
	client, err := indexer.MakeClient(address, token)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create indexer client for %s", address)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Indexer{client: client, timeout: timeout}, nil
}

func (c *Indexer) LookupAssetTransactions(ctx context.Context, assetID uint64) ([]sdkmodels.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.LookupAssetTransactions(assetID).Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up transactions for asset %d", assetID)
	}
	return resp.Transactions, nil
}

func (c *Indexer) LookupAccountAssets(ctx context.Context, address string) ([]sdkmodels.AssetHolding, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.LookupAccountAssets(address).Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up assets held by %s", address)
	}
	return resp.Assets, nil
}
