package models

import (
	"time"
)

// CertificateMetadata is the nested descriptive record carried on-chain in
// the minting transaction's note field.
type CertificateMetadata struct {
	Description string   `json:"description" gorm:"type:text"`
	IssueDate   string   `json:"issueDate" gorm:"size:64"`
	Skills      []string `json:"skills" gorm:"serializer:json"`
	Duration    string   `json:"duration" gorm:"size:64"`
	Grade       string   `json:"grade,omitempty" gorm:"size:32"`
}

// Certificate is the canonical record. A certificate with no TokenID has not
// been minted and must never be reported as verified.
type Certificate struct {
	ID              string  `json:"id" gorm:"primaryKey;size:255"`
	StudentName     string  `json:"studentName" gorm:"size:255;not null"`
	CourseName      string  `json:"courseName" gorm:"size:255;not null"`
	CompletionDate  string  `json:"completionDate" gorm:"size:64;not null"`
	IssuerName      string  `json:"issuerName" gorm:"size:255;not null"`
	CertificateHash string  `json:"certificateHash" gorm:"size:128"`
	TokenID         *uint64 `json:"tokenId,omitempty" gorm:"uniqueIndex"`
	WalletAddress   *string `json:"walletAddress,omitempty" gorm:"size:64;index"`
	TransactionID   *string `json:"transactionId,omitempty" gorm:"size:64"`

	Metadata CertificateMetadata `json:"metadata" gorm:"embedded;embeddedPrefix:meta_"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Minted reports whether a ledger asset id has been attached.
func (c *Certificate) Minted() bool {
	return c.TokenID != nil && *c.TokenID > 0
}

// VerificationResult is the outcome of a verify call. IsValid == true implies
// Certificate is present and TokenExists is true.
type VerificationResult struct {
	IsValid           bool         `json:"isValid"`
	Certificate       *Certificate `json:"certificate"`
	TokenExists       bool         `json:"tokenExists"`
	OwnershipVerified bool         `json:"ownershipVerified"`
	Message           string       `json:"message"`
}
