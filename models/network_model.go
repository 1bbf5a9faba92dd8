package models

// NetworkStatus is the monitor's view of the ledger node. Connected and
// NodeHealth are independent: a node can answer status queries while its
// health endpoint fails.
type NetworkStatus struct {
	Connected  bool   `json:"connected"`
	Network    string `json:"network"`
	NodeHealth bool   `json:"nodeHealth"`
}
