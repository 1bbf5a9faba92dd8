package utils

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimulatedTokenMax bounds simulated token ids: [1, SimulatedTokenMax].
const SimulatedTokenMax = 1_000_000

var (
	seededRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMu     sync.Mutex
)

func GenerateCertificateID() string {
	return "cert_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// GenerateSimulatedTokenID draws a pseudo-random token id for the simulated
// mint path.
func GenerateSimulatedTokenID() uint64 {
	randMu.Lock()
	defer randMu.Unlock()
	return uint64(seededRand.Intn(SimulatedTokenMax)) + 1
}
