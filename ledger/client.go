package ledger

import (
	"context"

	sdkmodels "github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/pkg/errors"
)

// ConfirmationRounds bounds the post-submit confirmation wait. Transactions
// that do not confirm within this many rounds are treated as a recoverable
// failure, never retried.
const ConfirmationRounds = 4

// ErrNotFound marks a ledger entity that does not exist.
var ErrNotFound = errors.New("not found on ledger")

// NodeClient is the capability over a ledger node endpoint.
type NodeClient interface {
	SuggestedParams(ctx context.Context) (types.SuggestedParams, error)
	SubmitRawTransaction(ctx context.Context, stx []byte) (string, error)
	WaitForConfirmation(ctx context.Context, txid string, maxRounds uint64) (sdkmodels.PendingTransactionInfoResponse, error)
	AssetByID(ctx context.Context, assetID uint64) (sdkmodels.Asset, error)
	AccountAssets(ctx context.Context, address string) ([]sdkmodels.AssetHolding, error)
	Status(ctx context.Context) (sdkmodels.NodeStatus, error)
	HealthCheck(ctx context.Context) error
}

// IndexerClient is the capability over the read-optimized index service. It
// covers the same ledger data as NodeClient and callers must degrade to the
// node when it is unavailable.
type IndexerClient interface {
	LookupAssetTransactions(ctx context.Context, assetID uint64) ([]sdkmodels.Transaction, error)
	LookupAccountAssets(ctx context.Context, address string) ([]sdkmodels.AssetHolding, error)
}
