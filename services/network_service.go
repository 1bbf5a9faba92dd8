package services

import (
	"context"
	"log"
	"strconv"
	"sync"

	"github.com/anjiri1684/peer_certify/ledger"
	"github.com/anjiri1684/peer_certify/models"
	"github.com/robfig/cron/v3"
)

// NetworkMonitor polls the ledger node on a fixed interval and exposes the
// latest connectivity snapshot. Probe failures only update the snapshot,
// they never crash the monitor, and no lock is held across network I/O.
type NetworkMonitor struct {
	node ledger.NodeClient
	cron *cron.Cron

	mu     sync.RWMutex
	status models.NetworkStatus
}

func NewNetworkMonitor(node ledger.NodeClient) *NetworkMonitor {
	return &NetworkMonitor{
		node:   node,
		status: models.NetworkStatus{Network: "Disconnected"},
	}
}

// Start schedules the background probe and runs one probe immediately so the
// first status query does not report a cold default.
func (m *NetworkMonitor) Start() {
	m.Refresh(context.Background())

	m.cron = cron.New()
	m.cron.AddFunc("@every 30s", func() {
		m.Refresh(context.Background())
	})
	m.cron.Start()
	log.Println("✅ Network health probe scheduled successfully.")
}

// Stop cancels the background probe.
func (m *NetworkMonitor) Stop() {
	if m.cron != nil {
		m.cron.Stop()
	}
}

// Refresh probes the node once and publishes the result. The status and
// health queries are independent: a node can answer status while its health
// endpoint fails.
func (m *NetworkMonitor) Refresh(ctx context.Context) models.NetworkStatus {
	status := models.NetworkStatus{Network: "Disconnected"}

	if m.node != nil {
		nodeStatus, err := m.node.Status(ctx)
		if err != nil {
			log.Printf("⚠️ Network status check failed: %v", err)
		} else {
			status.Connected = true
			status.Network = "Connected"
			if nodeStatus.LastRound > 0 {
				status.Network = "Round " + strconv.FormatUint(nodeStatus.LastRound, 10)
			}
			status.NodeHealth = m.node.HealthCheck(ctx) == nil
		}
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
	return status
}

// CurrentStatus returns the latest published snapshot.
func (m *NetworkMonitor) CurrentStatus() models.NetworkStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}
