package services

import (
	"log"

	"github.com/anjiri1684/peer_certify/models"
	"github.com/anjiri1684/peer_certify/store"
)

const demoWallet = "DEMO7XVFWK2JGHPQXNVQJDUMXC5NVGM6QJKM3HXLWMZPQJDUMXC5NVGM6Q"

// SeedDemoCertificates loads the demo certificates used by the fallback
// path, so the system is demonstrable without a live ledger.
func SeedDemoCertificates(registry *store.Registry) {
	wallet := demoWallet
	tokenA := uint64(123456)
	tokenB := uint64(789012)

	demo := []models.Certificate{
		{
			ID:              "cert_react_2024_001",
			StudentName:     "Alice Johnson",
			CourseName:      "Advanced React Development",
			CompletionDate:  "2024-01-15",
			IssuerName:      "TechAcademy Pro",
			CertificateHash: "hash_react_alice_2024",
			TokenID:         &tokenA,
			WalletAddress:   &wallet,
			Metadata: models.CertificateMetadata{
				Description: "Comprehensive course covering advanced React patterns, hooks, state management with Redux, and modern testing practices.",
				IssueDate:   "2024-01-15T10:00:00Z",
				Skills:      []string{"React", "TypeScript", "Redux Toolkit", "React Testing Library", "Next.js", "GraphQL"},
				Duration:    "8 weeks",
				Grade:       "A+",
			},
		},
		{
			ID:              "cert_blockchain_2024_002",
			StudentName:     "Bob Smith",
			CourseName:      "Blockchain Fundamentals & Smart Contracts",
			CompletionDate:  "2024-01-20",
			IssuerName:      "CryptoUniversity",
			CertificateHash: "hash_blockchain_bob_2024",
			TokenID:         &tokenB,
			WalletAddress:   &wallet,
			Metadata: models.CertificateMetadata{
				Description: "Deep dive into blockchain technology, cryptocurrencies, and smart contract development.",
				IssueDate:   "2024-01-20T14:30:00Z",
				Skills:      []string{"Blockchain", "Smart Contracts", "Algorand", "Solidity", "DeFi", "Web3"},
				Duration:    "6 weeks",
				Grade:       "95%",
			},
		},
	}

	for _, cert := range demo {
		if _, ok := registry.Get(cert.ID); ok {
			continue
		}
		if err := registry.Put(cert); err != nil {
			log.Printf("⚠️ Failed to seed demo certificate %s: %v", cert.ID, err)
		}
	}
}
