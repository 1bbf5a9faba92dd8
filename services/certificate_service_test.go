package services

import (
	"context"
	"strconv"
	"testing"

	sdkmodels "github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/anjiri1684/peer_certify/ledger"
	"github.com/anjiri1684/peer_certify/metadata"
	"github.com/anjiri1684/peer_certify/models"
	"github.com/anjiri1684/peer_certify/signing"
	"github.com/anjiri1684/peer_certify/store"
	"github.com/anjiri1684/peer_certify/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zero address encodes to a syntactically valid issuer account
const testIssuer = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAY5HFKQ"

type fakeNode struct {
	params        types.SuggestedParams
	paramsErr     error
	submitTxID    string
	submitErr     error
	confirm       sdkmodels.PendingTransactionInfoResponse
	confirmErr    error
	assets        map[uint64]sdkmodels.Asset
	accountAssets map[string][]sdkmodels.AssetHolding
	accountErr    error
	status        sdkmodels.NodeStatus
	statusErr     error
	healthErr     error
}

func (f *fakeNode) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	return f.params, f.paramsErr
}

func (f *fakeNode) SubmitRawTransaction(ctx context.Context, stx []byte) (string, error) {
	return f.submitTxID, f.submitErr
}

func (f *fakeNode) WaitForConfirmation(ctx context.Context, txid string, maxRounds uint64) (sdkmodels.PendingTransactionInfoResponse, error) {
	return f.confirm, f.confirmErr
}

func (f *fakeNode) AssetByID(ctx context.Context, assetID uint64) (sdkmodels.Asset, error) {
	asset, ok := f.assets[assetID]
	if !ok {
		return sdkmodels.Asset{}, errors.Wrapf(ledger.ErrNotFound, "asset %d", assetID)
	}
	return asset, nil
}

func (f *fakeNode) AccountAssets(ctx context.Context, address string) ([]sdkmodels.AssetHolding, error) {
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return f.accountAssets[address], nil
}

func (f *fakeNode) Status(ctx context.Context) (sdkmodels.NodeStatus, error) {
	return f.status, f.statusErr
}

func (f *fakeNode) HealthCheck(ctx context.Context) error {
	return f.healthErr
}

type fakeIndexer struct {
	txns        map[uint64][]sdkmodels.Transaction
	txnsErr     error
	holdings    map[string][]sdkmodels.AssetHolding
	holdingsErr error
}

func (f *fakeIndexer) LookupAssetTransactions(ctx context.Context, assetID uint64) ([]sdkmodels.Transaction, error) {
	if f.txnsErr != nil {
		return nil, f.txnsErr
	}
	return f.txns[assetID], nil
}

func (f *fakeIndexer) LookupAccountAssets(ctx context.Context, address string) ([]sdkmodels.AssetHolding, error) {
	if f.holdingsErr != nil {
		return nil, f.holdingsErr
	}
	return f.holdings[address], nil
}

type stubSigner struct {
	available bool
	err       error
}

func (s *stubSigner) Name() string    { return "stub" }
func (s *stubSigner) Available() bool { return s.available }

func (s *stubSigner) SignTransactions(ctx context.Context, txns []types.Transaction, indices []int) ([][]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return [][]byte{[]byte("signed")}, nil
}

func suggestedParams() types.SuggestedParams {
	return types.SuggestedParams{
		Fee:             1000,
		FlatFee:         true,
		FirstRoundValid: 1000,
		LastRoundValid:  2000,
		GenesisID:       "testnet-v1.0",
		GenesisHash:     make([]byte, 32),
	}
}

func newDemoService() *CertificateService {
	return NewCertificateService(nil, nil, signing.NewRegistry(), store.New(nil), testIssuer)
}

func inputCertificate() *models.Certificate {
	return &models.Certificate{
		StudentName:    "Alice",
		CourseName:     "Advanced X",
		IssuerName:     "Acme U",
		CompletionDate: "2024-05-01",
		Metadata: models.CertificateMetadata{
			Description: "A course",
			Skills:      []string{"Go"},
			Duration:    "4 weeks",
		},
	}
}

func TestMintSimulatedWhenNoSigner(t *testing.T) {
	svc := newDemoService()

	cert := inputCertificate()
	result, err := svc.Mint(context.Background(), cert, "")
	require.NoError(t, err)

	assert.True(t, result.Simulated)
	assert.Empty(t, result.TransactionID)
	assert.GreaterOrEqual(t, result.TokenID, uint64(1))
	assert.LessOrEqual(t, result.TokenID, uint64(utils.SimulatedTokenMax))

	assert.NotEmpty(t, cert.ID)
	assert.NotEmpty(t, cert.CertificateHash)
	assert.Nil(t, cert.TransactionID)
	require.NotNil(t, cert.WalletAddress)
	assert.Equal(t, testIssuer, *cert.WalletAddress)

	stored, ok := svc.Registry().Get(cert.ID)
	require.True(t, ok)
	assert.Equal(t, result.TokenID, *stored.TokenID)
	byToken, ok := svc.Registry().GetByTokenID(result.TokenID)
	require.True(t, ok)
	assert.Equal(t, cert.ID, byToken.ID)
}

func TestMintThenVerifyRoundTrip(t *testing.T) {
	svc := newDemoService()

	cert := inputCertificate()
	result, err := svc.Mint(context.Background(), cert, "")
	require.NoError(t, err)

	verification := svc.Verify(context.Background(), cert.ID, "")
	assert.True(t, verification.IsValid)
	assert.True(t, verification.TokenExists)
	assert.True(t, verification.OwnershipVerified)
	assert.Contains(t, verification.Message, "local registry")
	require.NotNil(t, verification.Certificate)
	assert.Equal(t, *cert, *verification.Certificate)

	// the token id resolves through the registry as well
	byToken := svc.Verify(context.Background(), formatUint(result.TokenID), "")
	assert.True(t, byToken.IsValid)
	assert.Equal(t, cert.ID, byToken.Certificate.ID)
}

func TestMintRealPath(t *testing.T) {
	node := &fakeNode{
		params:     suggestedParams(),
		submitTxID: "TX123",
		confirm:    sdkmodels.PendingTransactionInfoResponse{AssetIndex: 555},
	}
	registry := store.New(nil)
	svc := NewCertificateService(node, nil, signing.NewRegistry(&stubSigner{available: true}), registry, testIssuer)

	cert := inputCertificate()
	result, err := svc.Mint(context.Background(), cert, "")
	require.NoError(t, err)

	assert.False(t, result.Simulated)
	assert.Equal(t, uint64(555), result.TokenID)
	assert.Equal(t, "TX123", result.TransactionID)

	stored, ok := registry.Get(cert.ID)
	require.True(t, ok)
	require.NotNil(t, stored.TransactionID)
	assert.Equal(t, "TX123", *stored.TransactionID)
}

func TestMintDeclineIsTerminal(t *testing.T) {
	node := &fakeNode{params: suggestedParams()}
	registry := store.New(nil)
	declining := &stubSigner{available: true, err: signing.ErrDeclined}
	svc := NewCertificateService(node, nil, signing.NewRegistry(declining), registry, testIssuer)

	cert := inputCertificate()
	_, err := svc.Mint(context.Background(), cert, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, signing.ErrDeclined))

	// no store write on failure
	assert.Equal(t, 0, registry.Len())
}

func TestMintFallsBackWhenParamsFetchFails(t *testing.T) {
	node := &fakeNode{paramsErr: errors.New("node unreachable")}
	svc := NewCertificateService(node, nil, signing.NewRegistry(&stubSigner{available: true}), store.New(nil), testIssuer)

	result, err := svc.Mint(context.Background(), inputCertificate(), "")
	require.NoError(t, err)
	assert.True(t, result.Simulated)
	assert.Empty(t, result.TransactionID)
}

func TestMintFallsBackWhenConfirmationTimesOut(t *testing.T) {
	node := &fakeNode{
		params:     suggestedParams(),
		submitTxID: "TX123",
		confirmErr: errors.New("not confirmed within 4 rounds"),
	}
	svc := NewCertificateService(node, nil, signing.NewRegistry(&stubSigner{available: true}), store.New(nil), testIssuer)

	result, err := svc.Mint(context.Background(), inputCertificate(), "")
	require.NoError(t, err)
	assert.True(t, result.Simulated)
}

func TestMintRejectsMissingFields(t *testing.T) {
	svc := newDemoService()

	_, err := svc.Mint(context.Background(), &models.Certificate{StudentName: "Alice"}, "")
	assert.True(t, errors.Is(err, ErrInvalidCertificate))
	assert.Equal(t, 0, svc.Registry().Len())
}

func TestMintRejectsSecondMint(t *testing.T) {
	svc := newDemoService()

	cert := inputCertificate()
	_, err := svc.Mint(context.Background(), cert, "")
	require.NoError(t, err)

	again := inputCertificate()
	again.ID = cert.ID
	_, err = svc.Mint(context.Background(), again, "")
	assert.True(t, errors.Is(err, ErrAlreadyMinted))
}

func TestVerifyOwnershipSymmetry(t *testing.T) {
	svc := newDemoService()
	tokenID := uint64(42)
	wallet := "WALLET_A"
	require.NoError(t, svc.Registry().Put(models.Certificate{
		ID:             "cert_owned",
		StudentName:    "Alice",
		CourseName:     "X",
		IssuerName:     "Acme",
		CompletionDate: "2024-05-01",
		TokenID:        &tokenID,
		WalletAddress:  &wallet,
	}))

	same := svc.Verify(context.Background(), "cert_owned", "WALLET_A")
	assert.True(t, same.IsValid)
	assert.True(t, same.OwnershipVerified)

	other := svc.Verify(context.Background(), "cert_owned", "WALLET_B")
	assert.True(t, other.IsValid)
	assert.True(t, other.TokenExists)
	assert.False(t, other.OwnershipVerified)
	assert.Contains(t, other.Message, "ownership could not be verified")
}

func TestVerifyNonNumericMissIsTerminal(t *testing.T) {
	svc := newDemoService()

	result := svc.Verify(context.Background(), "not-a-real-id", "")
	assert.False(t, result.IsValid)
	assert.False(t, result.TokenExists)
	assert.False(t, result.OwnershipVerified)
	assert.Nil(t, result.Certificate)
	assert.Contains(t, result.Message, "not found")
}

func TestVerifyUnmintedIsNotValid(t *testing.T) {
	svc := newDemoService()
	require.NoError(t, svc.Registry().Put(models.Certificate{
		ID:             "cert_unminted",
		StudentName:    "Alice",
		CourseName:     "X",
		IssuerName:     "Acme",
		CompletionDate: "2024-05-01",
	}))

	result := svc.Verify(context.Background(), "cert_unminted", "")
	assert.False(t, result.IsValid)
	assert.False(t, result.TokenExists)
	assert.Contains(t, result.Message, "not been minted")
}

func ledgerFixture(t *testing.T) (*fakeNode, *fakeIndexer, *models.Certificate) {
	t.Helper()
	source := inputCertificate()
	source.ID = "cert_onchain_001"
	source.CertificateHash = metadata.ContentFingerprint(source)
	source.Metadata.IssueDate = "2024-05-01T10:00:00Z"

	enc, err := metadata.Encode(source)
	require.NoError(t, err)

	node := &fakeNode{
		assets: map[uint64]sdkmodels.Asset{
			777: {
				Index: 777,
				Params: sdkmodels.AssetParams{
					Name:         AssetNamePrefix + source.ID,
					UnitName:     "CERT",
					MetadataHash: enc.ContentHash,
				},
			},
		},
	}
	idx := &fakeIndexer{
		txns: map[uint64][]sdkmodels.Transaction{
			777: {
				{Type: "pay"},
				{Type: "acfg", CreatedAssetIndex: 777, Note: enc.NotePayload},
			},
		},
	}
	return node, idx, source
}

func TestVerifyReconstructsFromNote(t *testing.T) {
	node, idx, source := ledgerFixture(t)
	svc := NewCertificateService(node, idx, signing.NewRegistry(), store.New(nil), testIssuer)

	result := svc.Verify(context.Background(), "777", "")
	assert.True(t, result.IsValid)
	assert.True(t, result.TokenExists)
	assert.True(t, result.OwnershipVerified)
	assert.Contains(t, result.Message, "Algorand blockchain")

	cert := result.Certificate
	require.NotNil(t, cert)
	assert.Equal(t, source.ID, cert.ID)
	assert.Equal(t, source.StudentName, cert.StudentName)
	assert.Equal(t, source.CourseName, cert.CourseName)
	assert.Equal(t, source.IssuerName, cert.IssuerName)
	assert.Equal(t, source.CompletionDate, cert.CompletionDate)
	assert.Equal(t, source.CertificateHash, cert.CertificateHash)
	assert.Equal(t, source.Metadata.Skills, cert.Metadata.Skills)
	assert.Equal(t, uint64(777), *cert.TokenID)
}

func TestVerifyFallsBackToPlaceholdersWhenIndexerFails(t *testing.T) {
	node, _, source := ledgerFixture(t)
	idx := &fakeIndexer{txnsErr: errors.New("indexer down")}
	svc := NewCertificateService(node, idx, signing.NewRegistry(), store.New(nil), testIssuer)

	result := svc.Verify(context.Background(), "777", "")
	assert.True(t, result.IsValid)
	assert.True(t, result.TokenExists)

	cert := result.Certificate
	require.NotNil(t, cert)
	assert.Equal(t, "asset_777", cert.ID)
	assert.Equal(t, placeholderStudent, cert.StudentName)
	assert.Equal(t, placeholderIssuer, cert.IssuerName)
	assert.Equal(t, source.ID, cert.CourseName) // asset name with prefix stripped
	assert.Empty(t, cert.Metadata.Skills)
}

func TestVerifyDetectsTamperedNote(t *testing.T) {
	node, idx, _ := ledgerFixture(t)
	idx.txns[777][1].Note = []byte(`{"student":"Mallory","course":"Forged Course","certificateId":"cert_forged"}`)
	svc := NewCertificateService(node, idx, signing.NewRegistry(), store.New(nil), testIssuer)

	result := svc.Verify(context.Background(), "777", "")
	assert.False(t, result.IsValid)
	assert.True(t, result.TokenExists)
	assert.Contains(t, result.Message, "does not match")
}

func TestVerifyOwnershipOnLedger(t *testing.T) {
	node, idx, _ := ledgerFixture(t)
	idx.holdings = map[string][]sdkmodels.AssetHolding{
		"HOLDER": {{AssetId: 777, Amount: 1}},
		"EMPTY":  {{AssetId: 777, Amount: 0}},
	}
	svc := NewCertificateService(node, idx, signing.NewRegistry(), store.New(nil), testIssuer)

	held := svc.Verify(context.Background(), "777", "HOLDER")
	assert.True(t, held.IsValid)
	assert.True(t, held.OwnershipVerified)

	zero := svc.Verify(context.Background(), "777", "EMPTY")
	assert.True(t, zero.IsValid)
	assert.False(t, zero.OwnershipVerified)
}

func TestVerifyOwnershipFallsBackToNode(t *testing.T) {
	node, idx, _ := ledgerFixture(t)
	idx.holdingsErr = errors.New("indexer down")
	node.accountAssets = map[string][]sdkmodels.AssetHolding{
		"HOLDER": {{AssetId: 777, Amount: 1}},
	}
	svc := NewCertificateService(node, idx, signing.NewRegistry(), store.New(nil), testIssuer)

	result := svc.Verify(context.Background(), "777", "HOLDER")
	assert.True(t, result.OwnershipVerified)
}

func TestVerifyOwnershipQueryFailureIsFalse(t *testing.T) {
	node, idx, _ := ledgerFixture(t)
	idx.holdingsErr = errors.New("indexer down")
	node.accountErr = errors.New("node down")
	svc := NewCertificateService(node, idx, signing.NewRegistry(), store.New(nil), testIssuer)

	result := svc.Verify(context.Background(), "777", "HOLDER")
	assert.True(t, result.IsValid)
	assert.False(t, result.OwnershipVerified)
}

func TestVerifyMissingAssetIsTerminal(t *testing.T) {
	node := &fakeNode{assets: map[uint64]sdkmodels.Asset{}}
	svc := NewCertificateService(node, nil, signing.NewRegistry(), store.New(nil), testIssuer)

	result := svc.Verify(context.Background(), "424242", "")
	assert.False(t, result.IsValid)
	assert.False(t, result.TokenExists)
	assert.Contains(t, result.Message, "not found on blockchain")
}

func TestListByWalletMergesLedgerHoldings(t *testing.T) {
	node, idx, _ := ledgerFixture(t)
	wallet := "HOLDER"
	localToken := uint64(123)
	node.assets[888] = sdkmodels.Asset{
		Index:  888,
		Params: sdkmodels.AssetParams{Name: AssetNamePrefix + "cert_other", UnitName: "CERT"},
	}
	node.assets[999] = sdkmodels.Asset{
		Index:  999,
		Params: sdkmodels.AssetParams{Name: "SomeOtherNFT", UnitName: "MISC"},
	}
	idx.holdings = map[string][]sdkmodels.AssetHolding{
		wallet: {
			{AssetId: localToken, Amount: 1},
			{AssetId: 777, Amount: 1},
			{AssetId: 888, Amount: 1},
			{AssetId: 999, Amount: 1},
		},
	}

	registry := store.New(nil)
	require.NoError(t, registry.Put(models.Certificate{
		ID:             "cert_local",
		StudentName:    "Alice",
		CourseName:     "X",
		IssuerName:     "Acme",
		CompletionDate: "2024-05-01",
		TokenID:        &localToken,
		WalletAddress:  &wallet,
	}))
	svc := NewCertificateService(node, idx, signing.NewRegistry(), registry, testIssuer)

	certificates := svc.ListByWallet(context.Background(), wallet)
	require.Len(t, certificates, 3)

	ids := make(map[string]bool)
	for _, cert := range certificates {
		ids[cert.ID] = true
	}
	assert.True(t, ids["cert_local"])
	assert.True(t, ids["cert_onchain_001"])
	assert.True(t, ids["asset_888"]) // no note indexed for 888, placeholder id
}

func TestListByWalletDegradesToLocal(t *testing.T) {
	node := &fakeNode{accountErr: errors.New("node down")}
	idx := &fakeIndexer{holdingsErr: errors.New("indexer down")}
	wallet := "HOLDER"
	token := uint64(5)

	registry := store.New(nil)
	require.NoError(t, registry.Put(models.Certificate{
		ID:             "cert_local",
		StudentName:    "Alice",
		CourseName:     "X",
		IssuerName:     "Acme",
		CompletionDate: "2024-05-01",
		TokenID:        &token,
		WalletAddress:  &wallet,
	}))
	svc := NewCertificateService(node, idx, signing.NewRegistry(), registry, testIssuer)

	certificates := svc.ListByWallet(context.Background(), wallet)
	require.Len(t, certificates, 1)
	assert.Equal(t, "cert_local", certificates[0].ID)
}

func TestGetCertificate(t *testing.T) {
	node, idx, source := ledgerFixture(t)
	svc := NewCertificateService(node, idx, signing.NewRegistry(), store.New(nil), testIssuer)

	cert, ok := svc.GetCertificate(context.Background(), "777")
	require.True(t, ok)
	assert.Equal(t, source.ID, cert.ID)

	_, ok = svc.GetCertificate(context.Background(), "nope")
	assert.False(t, ok)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
