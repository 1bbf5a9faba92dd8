package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"log"
	"strconv"
	"strings"
	"time"

	sdkmodels "github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/anjiri1684/peer_certify/ledger"
	"github.com/anjiri1684/peer_certify/metadata"
	"github.com/anjiri1684/peer_certify/models"
	"github.com/anjiri1684/peer_certify/signing"
	"github.com/anjiri1684/peer_certify/store"
	"github.com/anjiri1684/peer_certify/utils"
	"github.com/anjiri1684/peer_certify/websocket"
	"github.com/pkg/errors"
)

const (
	// AssetNamePrefix marks assets minted by this service; stripped when a
	// course name is reconstructed from the on-chain asset name.
	AssetNamePrefix = "PeerCertify-"
	assetUnitName   = "CERT"
)

// Placeholders used when an asset exists on the ledger but its note cannot
// be decoded into full certificate content.
const (
	placeholderStudent     = "Verified Certificate Holder"
	placeholderIssuer      = "Verified on Algorand"
	placeholderDescription = "Certificate verified on Algorand blockchain"
	fallbackCourseName     = "Blockchain Certificate"
)

var (
	// ErrAlreadyMinted rejects a second mint for a certificate id that has a
	// token attached.
	ErrAlreadyMinted = errors.New("certificate already minted")
	// ErrInvalidCertificate rejects a mint request with empty required
	// fields.
	ErrInvalidCertificate = errors.New("certificate is missing required fields")
)

// CertificateService issues certificates as ledger assets and resolves
// certificate ids back into full certificate content. Node and indexer
// clients may be nil; every operation then degrades to the local registry
// and the simulated mint path.
type CertificateService struct {
	node     ledger.NodeClient
	indexer  ledger.IndexerClient
	signers  *signing.Registry
	registry *store.Registry
	issuer   string
}

func NewCertificateService(node ledger.NodeClient, indexer ledger.IndexerClient, signers *signing.Registry, registry *store.Registry, issuerAddress string) *CertificateService {
	return &CertificateService{
		node:     node,
		indexer:  indexer,
		signers:  signers,
		registry: registry,
		issuer:   issuerAddress,
	}
}

// Registry exposes the backing store for callers that only need lookups.
func (s *CertificateService) Registry() *store.Registry {
	return s.registry
}

// MintResult reports one successful issuance. A simulated mint carries no
// transaction id; that is the only way callers can tell the two apart.
type MintResult struct {
	TokenID        uint64 `json:"token_id"`
	TransactionID  string `json:"transaction_id,omitempty"`
	Simulated      bool   `json:"simulated"`
	TruncatedBytes int    `json:"truncated_bytes,omitempty"`
}

// Mint issues a certificate as a one-of-one ledger asset. When no signer or
// network is available the mint degrades to a locally simulated token so the
// system stays usable without a live ledger. Exactly one registry write
// happens per successful mint.
func (s *CertificateService) Mint(ctx context.Context, cert *models.Certificate, issuerAddress string) (MintResult, error) {
	if cert.StudentName == "" || cert.CourseName == "" || cert.IssuerName == "" || cert.CompletionDate == "" {
		return MintResult{}, ErrInvalidCertificate
	}
	if issuerAddress == "" {
		issuerAddress = s.issuer
	}
	if cert.ID == "" {
		cert.ID = utils.GenerateCertificateID()
	}
	if cert.CertificateHash == "" {
		cert.CertificateHash = metadata.ContentFingerprint(cert)
	}
	if cert.Metadata.Skills == nil {
		cert.Metadata.Skills = []string{}
	}
	if cert.Metadata.IssueDate == "" {
		cert.Metadata.IssueDate = time.Now().UTC().Format(time.RFC3339)
	}

	if existing, ok := s.registry.Get(cert.ID); ok && existing.Minted() {
		return MintResult{}, errors.Wrapf(ErrAlreadyMinted, "certificate %s has token %d", cert.ID, *existing.TokenID)
	}

	enc, err := metadata.Encode(cert)
	if err != nil {
		return MintResult{}, err
	}
	if enc.TruncatedBytes > 0 {
		log.Printf("⚠️ Certificate %s note truncated by %d bytes, trailing metadata fields were dropped", cert.ID, enc.TruncatedBytes)
	}

	result := MintResult{TruncatedBytes: enc.TruncatedBytes}

	tokenID, txid, err := s.mintOnLedger(ctx, cert, issuerAddress, enc)
	switch {
	case err == nil:
		result.TokenID = tokenID
		result.TransactionID = txid
	case errors.Is(err, signing.ErrDeclined):
		return MintResult{}, err
	default:
		log.Printf("⚠️ Ledger mint unavailable for certificate %s, using simulated mint: %v", cert.ID, err)
		result.TokenID = utils.GenerateSimulatedTokenID()
		result.Simulated = true
	}

	cert.TokenID = &result.TokenID
	cert.WalletAddress = &issuerAddress
	if result.TransactionID != "" {
		cert.TransactionID = &result.TransactionID
	}

	if err := s.registry.Put(*cert); err != nil {
		return MintResult{}, err
	}

	websocket.PublishIssued(websocket.IssuanceEvent{
		CertificateID: cert.ID,
		TokenID:       result.TokenID,
		Simulated:     result.Simulated,
		IssuedAt:      time.Now().UTC(),
	})

	if result.Simulated {
		log.Printf("✅ Certificate %s minted in demo mode with token %d", cert.ID, result.TokenID)
	} else {
		log.Printf("✅ Certificate %s minted on-chain as asset %d (txn %s)", cert.ID, result.TokenID, result.TransactionID)
	}
	return result, nil
}

// mintOnLedger runs the real issuance path: signer probe, parameter fetch,
// asset creation, sign, submit, bounded confirmation wait. Every failure
// except an explicit signing decline is recoverable and routed to the
// simulated mint by the caller.
func (s *CertificateService) mintOnLedger(ctx context.Context, cert *models.Certificate, issuerAddress string, enc metadata.Encoded) (uint64, string, error) {
	signer, err := s.signers.Probe()
	if err != nil {
		return 0, "", err
	}
	if s.node == nil {
		return 0, "", errors.New("no ledger node configured")
	}
	if issuerAddress == "" {
		return 0, "", errors.New("no issuer address configured")
	}

	params, err := s.node.SuggestedParams(ctx)
	if err != nil {
		return 0, "", err
	}

	// one-of-one, indivisible: true NFT semantics, not configurable
	txn, err := transaction.MakeAssetCreateTxn(
		issuerAddress,
		enc.NotePayload,
		params,
		1, // total supply
		0, // decimals
		false,
		issuerAddress, // manager
		issuerAddress, // reserve
		issuerAddress, // freeze
		issuerAddress, // clawback
		assetUnitName,
		AssetNamePrefix+cert.ID,
		"",
		string(enc.ContentHash),
	)
	if err != nil {
		return 0, "", errors.Wrap(err, "failed to build asset creation transaction")
	}

	signed, err := signer.SignTransactions(ctx, []types.Transaction{txn}, []int{0})
	if err != nil {
		return 0, "", err
	}

	txid, err := s.node.SubmitRawTransaction(ctx, signed[0])
	if err != nil {
		return 0, "", err
	}

	confirmed, err := s.node.WaitForConfirmation(ctx, txid, ledger.ConfirmationRounds)
	if err != nil {
		return 0, "", err
	}
	if confirmed.AssetIndex == 0 {
		return 0, "", errors.Errorf("transaction %s confirmed without creating an asset", txid)
	}
	return confirmed.AssetIndex, txid, nil
}

// Verify resolves a certificate id (or numeric token id) to full certificate
// content and ownership status. Resolution order: local registry, then the
// ledger with note reconstruction through the index service.
func (s *CertificateService) Verify(ctx context.Context, certificateID, walletAddress string) models.VerificationResult {
	if cert, ok := s.registry.Get(certificateID); ok {
		return s.verifyLocal(cert, walletAddress)
	}

	assetID, err := strconv.ParseUint(certificateID, 10, 64)
	if err != nil {
		return models.VerificationResult{
			Message: "Certificate not found. Please check the certificate ID.",
		}
	}

	if cert, ok := s.registry.GetByTokenID(assetID); ok {
		return s.verifyLocal(cert, walletAddress)
	}

	if s.node == nil {
		return models.VerificationResult{
			Message: "Certificate not found on blockchain",
		}
	}

	asset, err := s.node.AssetByID(ctx, assetID)
	if err != nil {
		return models.VerificationResult{
			Message: "Certificate not found on blockchain",
		}
	}

	cert, note := s.reconstructCertificate(ctx, asset)

	if tampered(note, asset.Params.MetadataHash) {
		return models.VerificationResult{
			Certificate: cert,
			TokenExists: true,
			Message:     "Certificate metadata does not match its on-chain fingerprint",
		}
	}

	ownershipVerified := true
	if walletAddress != "" {
		ownershipVerified = s.verifyOwnership(ctx, walletAddress, assetID)
	}

	message := "Certificate verified successfully on Algorand blockchain"
	if !ownershipVerified {
		message = "Certificate exists but ownership could not be verified"
	}
	return models.VerificationResult{
		IsValid:           true,
		Certificate:       cert,
		TokenExists:       true,
		OwnershipVerified: ownershipVerified,
		Message:           message,
	}
}

func (s *CertificateService) verifyLocal(cert models.Certificate, walletAddress string) models.VerificationResult {
	if !cert.Minted() {
		return models.VerificationResult{
			Certificate: &cert,
			Message:     "Certificate has not been minted yet",
		}
	}

	ownershipVerified := true
	if walletAddress != "" {
		ownershipVerified = cert.WalletAddress != nil && *cert.WalletAddress == walletAddress
	}

	message := "Certificate verified successfully (local registry)"
	if !ownershipVerified {
		message = "Certificate exists but ownership could not be verified"
	}
	return models.VerificationResult{
		IsValid:           true,
		Certificate:       &cert,
		TokenExists:       true,
		OwnershipVerified: ownershipVerified,
		Message:           message,
	}
}

// tampered reports a note whose digest contradicts the immutable metadata
// hash recorded at asset creation. A note at exactly the size limit may have
// been truncated at mint time, so a mismatch there proves nothing.
func tampered(note []byte, metadataHash []byte) bool {
	if len(note) == 0 || len(metadataHash) == 0 {
		return false
	}
	if len(note) >= metadata.NoteLimit {
		return false
	}
	sum := sha256.Sum256(note)
	return !bytes.Equal(sum[:], metadataHash)
}

// reconstructCertificate rebuilds certificate content for an existing asset,
// preferring the creation note via the index service and falling back to
// asset-level fields with documented placeholders. The returned note bytes
// are nil unless a creation note was found and decoded.
func (s *CertificateService) reconstructCertificate(ctx context.Context, asset sdkmodels.Asset) (*models.Certificate, []byte) {
	assetID := asset.Index

	if s.indexer != nil {
		txns, err := s.indexer.LookupAssetTransactions(ctx, assetID)
		if err != nil {
			log.Printf("⚠️ Index service lookup failed for asset %d: %v", assetID, err)
		} else if note := creationNote(txns, assetID); note != nil {
			fields, err := metadata.Decode(note)
			if err != nil {
				log.Printf("⚠️ Failed to decode note for asset %d: %v", assetID, err)
			} else {
				return certificateFromNote(fields, asset), note
			}
		}
	}

	return placeholderCertificate(asset), nil
}

func creationNote(txns []sdkmodels.Transaction, assetID uint64) []byte {
	for _, txn := range txns {
		if txn.Type == "acfg" && txn.CreatedAssetIndex == assetID && len(txn.Note) > 0 {
			return txn.Note
		}
	}
	return nil
}

func certificateFromNote(fields *metadata.NoteFields, asset sdkmodels.Asset) *models.Certificate {
	assetID := asset.Index
	cert := placeholderCertificate(asset)

	cert.ID = firstNonEmpty(fields.CertificateID, cert.ID)
	cert.StudentName = firstNonEmpty(fields.Student, cert.StudentName)
	cert.CourseName = firstNonEmpty(fields.Course, cert.CourseName)
	cert.CompletionDate = firstNonEmpty(fields.CompletionDate, cert.CompletionDate)
	cert.IssuerName = firstNonEmpty(fields.Issuer, cert.IssuerName)
	cert.CertificateHash = firstNonEmpty(fields.CertificateHash, cert.CertificateHash)
	cert.Metadata.Description = firstNonEmpty(fields.Description, cert.Metadata.Description)
	cert.Metadata.IssueDate = firstNonEmpty(fields.IssueDate, cert.Metadata.IssueDate)
	cert.Metadata.Duration = fields.Duration
	cert.Metadata.Grade = fields.Grade
	if fields.Skills != nil {
		cert.Metadata.Skills = fields.Skills
	}

	tokenID := assetID
	cert.TokenID = &tokenID
	return cert
}

// placeholderCertificate is the reduced-fidelity reconstruction: the asset
// itself proves existence, everything the note would have carried gets a
// documented placeholder.
func placeholderCertificate(asset sdkmodels.Asset) *models.Certificate {
	assetID := asset.Index
	now := time.Now().UTC()
	return &models.Certificate{
		ID:              "asset_" + strconv.FormatUint(assetID, 10),
		StudentName:     placeholderStudent,
		CourseName:      courseFromAssetName(asset.Params.Name),
		CompletionDate:  now.Format("2006-01-02"),
		IssuerName:      placeholderIssuer,
		CertificateHash: "asset_" + strconv.FormatUint(assetID, 10) + "_hash",
		TokenID:         &assetID,
		Metadata: models.CertificateMetadata{
			Description: placeholderDescription,
			IssueDate:   now.Format(time.RFC3339),
			Skills:      []string{},
		},
	}
}

func courseFromAssetName(name string) string {
	course := strings.TrimPrefix(name, AssetNamePrefix)
	if course == "" {
		return fallbackCourseName
	}
	return course
}

// verifyOwnership checks that the wallet holds the asset with a positive
// amount, indexer first with a node fallback. Any query failure resolves to
// false: ownership-unknown is ownership-false in this trust model.
func (s *CertificateService) verifyOwnership(ctx context.Context, walletAddress string, assetID uint64) bool {
	if s.indexer != nil {
		holdings, err := s.indexer.LookupAccountAssets(ctx, walletAddress)
		if err == nil {
			return holdsAsset(holdings, assetID)
		}
		log.Printf("⚠️ Index service holdings lookup failed for %s: %v", walletAddress, err)
	}
	if s.node == nil {
		return false
	}
	holdings, err := s.node.AccountAssets(ctx, walletAddress)
	if err != nil {
		return false
	}
	return holdsAsset(holdings, assetID)
}

func holdsAsset(holdings []sdkmodels.AssetHolding, assetID uint64) bool {
	for _, holding := range holdings {
		if holding.AssetId == assetID && holding.Amount > 0 {
			return true
		}
	}
	return false
}

// ListByWallet merges locally recorded certificates with certificates held
// on-chain by the wallet. Ledger failures degrade to the local list.
func (s *CertificateService) ListByWallet(ctx context.Context, walletAddress string) []models.Certificate {
	certificates := s.registry.GetByWallet(walletAddress)

	seen := make(map[uint64]bool)
	for _, cert := range certificates {
		if cert.TokenID != nil {
			seen[*cert.TokenID] = true
		}
	}

	if s.node == nil {
		return certificates
	}

	holdings := s.walletHoldings(ctx, walletAddress)
	for _, holding := range holdings {
		if holding.Amount == 0 || seen[holding.AssetId] {
			continue
		}

		asset, err := s.node.AssetByID(ctx, holding.AssetId)
		if err != nil {
			log.Printf("⚠️ Failed to fetch asset %d: %v", holding.AssetId, err)
			continue
		}
		if !strings.HasPrefix(asset.Params.Name, AssetNamePrefix) && asset.Params.UnitName != assetUnitName {
			continue
		}

		cert, _ := s.reconstructCertificate(ctx, asset)
		cert.WalletAddress = &walletAddress
		certificates = append(certificates, *cert)
		seen[holding.AssetId] = true
	}
	return certificates
}

func (s *CertificateService) walletHoldings(ctx context.Context, walletAddress string) []sdkmodels.AssetHolding {
	if s.indexer != nil {
		holdings, err := s.indexer.LookupAccountAssets(ctx, walletAddress)
		if err == nil {
			return holdings
		}
		log.Printf("⚠️ Index service holdings lookup failed for %s, falling back to node: %v", walletAddress, err)
	}
	holdings, err := s.node.AccountAssets(ctx, walletAddress)
	if err != nil {
		log.Printf("⚠️ Node holdings lookup failed for %s: %v", walletAddress, err)
		return nil
	}
	return holdings
}

// GetCertificate resolves a certificate id or numeric token id to its
// content, without the ownership semantics of Verify.
func (s *CertificateService) GetCertificate(ctx context.Context, certificateID string) (*models.Certificate, bool) {
	if cert, ok := s.registry.Get(certificateID); ok {
		return &cert, true
	}

	assetID, err := strconv.ParseUint(certificateID, 10, 64)
	if err != nil {
		return nil, false
	}
	if cert, ok := s.registry.GetByTokenID(assetID); ok {
		return &cert, true
	}
	if s.node == nil {
		return nil, false
	}
	asset, err := s.node.AssetByID(ctx, assetID)
	if err != nil {
		return nil, false
	}
	cert, _ := s.reconstructCertificate(ctx, asset)
	return cert, true
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
