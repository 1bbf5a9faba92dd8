package store

import (
	"log"
	"sort"
	"sync"

	"github.com/anjiri1684/peer_certify/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrTokenConflict is returned when a put would change a token id that was
// already attached. Token ids are attached exactly once.
var ErrTokenConflict = errors.New("certificate already carries a different token id")

// Registry is the process-lifetime certificate store: every mint writes here
// and every lookup consults it before any network call. Entries are never
// evicted. When constructed with a database handle, writes go through to the
// certificates table and Load warms the registry back up at startup.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]models.Certificate
	byToken map[uint64]string

	db *gorm.DB
}

// New builds a registry. db may be nil for a purely in-memory store.
func New(db *gorm.DB) *Registry {
	return &Registry{
		byID:    make(map[string]models.Certificate),
		byToken: make(map[uint64]string),
		db:      db,
	}
}

// Load warms the registry from the database. A registry without a database
// loads nothing.
func (r *Registry) Load() error {
	if r.db == nil {
		return nil
	}

	var certificates []models.Certificate
	if err := r.db.Find(&certificates).Error; err != nil {
		return errors.Wrap(err, "failed to load certificates")
	}

	r.mu.Lock()
	for _, cert := range certificates {
		r.byID[cert.ID] = cert
		if cert.TokenID != nil {
			r.byToken[*cert.TokenID] = cert.ID
		}
	}
	r.mu.Unlock()

	log.Printf("✅ Loaded %d certificates into the registry", len(certificates))
	return nil
}

// Put records a certificate, indexed by certificate id and, when minted, by
// token id. Re-putting the same id is allowed only while the token id stays
// unchanged.
func (r *Registry) Put(cert models.Certificate) error {
	r.mu.Lock()
	existing, ok := r.byID[cert.ID]
	if ok && existing.TokenID != nil {
		if cert.TokenID == nil || *cert.TokenID != *existing.TokenID {
			r.mu.Unlock()
			return errors.Wrapf(ErrTokenConflict, "certificate %s", cert.ID)
		}
	}
	r.byID[cert.ID] = cert
	if cert.TokenID != nil {
		r.byToken[*cert.TokenID] = cert.ID
	}
	r.mu.Unlock()

	if r.db != nil {
		if err := r.db.Save(&cert).Error; err != nil {
			log.Printf("🔥 Failed to persist certificate %s: %v", cert.ID, err)
		}
	}
	return nil
}

// Get looks a certificate up by certificate id.
func (r *Registry) Get(id string) (models.Certificate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cert, ok := r.byID[id]
	return cert, ok
}

// GetByTokenID looks a certificate up by ledger asset id.
func (r *Registry) GetByTokenID(tokenID uint64) (models.Certificate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byToken[tokenID]
	if !ok {
		return models.Certificate{}, false
	}
	cert, ok := r.byID[id]
	return cert, ok
}

// GetByWallet returns every certificate recorded for a wallet address,
// ordered by certificate id for stable output.
func (r *Registry) GetByWallet(address string) []models.Certificate {
	r.mu.RLock()
	certificates := make([]models.Certificate, 0)
	for _, cert := range r.byID {
		if cert.WalletAddress != nil && *cert.WalletAddress == address {
			certificates = append(certificates, cert)
		}
	}
	r.mu.RUnlock()

	sort.Slice(certificates, func(i, j int) bool {
		return certificates[i].ID < certificates[j].ID
	})
	return certificates
}

// Len reports how many certificates the registry holds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
