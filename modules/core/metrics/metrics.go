package metrics

import (
	gometrics "github.com/armon/go-metrics"
)

// Metric labels of the client keeper.
const (
	LabelClientType = "client_type"
	LabelClientID   = "client_id"
	LabelUpdateType = "update_type"
)

// Metric keys emitted by the client keeper.
var (
	KeyCreateClient        = []string{"ibc", "client", "create"}
	KeyUpdateClient        = []string{"ibc", "client", "update"}
	KeyMisbehaviour        = []string{"ibc", "client", "misbehaviour"}
	KeyVerifyMembership    = []string{"ibc", "client", "verify_membership"}
	KeyVerifyNonMembership = []string{"ibc", "client", "verify_non_membership"}
)

// NewLabel creates a new instance of Label with name and value
func NewLabel(name, value string) gometrics.Label {
	return gometrics.Label{Name: name, Value: value}
}
