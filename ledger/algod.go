package ledger

import (
	"context"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	sdkmodels "github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/pkg/errors"
)

// DefaultTimeout bounds a single node or indexer round trip when the caller
// does not inject one.
const DefaultTimeout = 10 * time.Second

// AlgodClient implements NodeClient against an Algorand node REST endpoint.
type AlgodClient struct {
	client  *algod.Client
	timeout time.Duration
}

func NewAlgodClient(address, token string, timeout time.Duration) (*AlgodClient, error) {
	client, err := algod.MakeClient(address, token)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create algod client for %s", address)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &AlgodClient{client: client, timeout: timeout}, nil
}

func (c *AlgodClient) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	params, err := c.client.SuggestedParams().Do(ctx)
	if err != nil {
		return types.SuggestedParams{}, errors.Wrap(err, "failed to fetch suggested params")
	}
	return params, nil
}

func (c *AlgodClient) SubmitRawTransaction(ctx context.Context, stx []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	txid, err := c.client.SendRawTransaction(stx).Do(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to submit transaction")
	}
	return txid, nil
}

func (c *AlgodClient) WaitForConfirmation(ctx context.Context, txid string, maxRounds uint64) (sdkmodels.PendingTransactionInfoResponse, error) {
	// one round is ~4.5s on mainnet; bound the whole wait, not each poll
	ctx, cancel := context.WithTimeout(ctx, c.timeout*time.Duration(maxRounds+1))
	defer cancel()
	info, err := transaction.WaitForConfirmation(c.client, txid, maxRounds, ctx)
	if err != nil {
		return sdkmodels.PendingTransactionInfoResponse{}, errors.Wrapf(err, "transaction %s not confirmed within %d rounds", txid, maxRounds)
	}
	return info, nil
}

func (c *AlgodClient) AssetByID(ctx context.Context, assetID uint64) (sdkmodels.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	asset, err := c.client.GetAssetByID(assetID).Do(ctx)
	if err != nil {
		return sdkmodels.Asset{}, errors.Wrapf(ErrNotFound, "asset %d: %v", assetID, err)
	}
	return asset, nil
}

func (c *AlgodClient) AccountAssets(ctx context.Context, address string) ([]sdkmodels.AssetHolding, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	account, err := c.client.AccountInformation(address).Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch account %s", address)
	}
	return account.Assets, nil
}

func (c *AlgodClient) Status(ctx context.Context) (sdkmodels.NodeStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	status, err := c.client.Status().Do(ctx)
	if err != nil {
		return sdkmodels.NodeStatus{}, errors.Wrap(err, "failed to fetch node status")
	}
	return status, nil
}

func (c *AlgodClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.HealthCheck().Do(ctx); err != nil {
		return errors.Wrap(err, "node health check failed")
	}
	return nil
}
