package domain

import "time"

// SyncType selects the direction of a peer synchronization run.
type SyncType string

const (
	SyncTypePush          SyncType = "push"
	SyncTypePull          SyncType = "pull"
	SyncTypeBidirectional SyncType = "bidirectional"
)

// ValidSyncTypes contains all valid sync types.
var ValidSyncTypes = []SyncType{
	SyncTypePush,
	SyncTypePull,
	SyncTypeBidirectional,
}

// IsValidSyncType checks if a sync type is valid.
func IsValidSyncType(t SyncType) bool {
	for _, valid := range ValidSyncTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// SyncRequest names the peers to reconcile with and the direction.
// An empty Services list means every configured peer.
type SyncRequest struct {
	Services []string `json:"services,omitempty"`
	SyncType SyncType `json:"sync_type,omitempty"`
}

// PeerSyncResult records the outcome for a single peer.
type PeerSyncResult struct {
	Service string `json:"service"`
	URL     string `json:"url,omitempty"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Pushed  int    `json:"pushed,omitempty"`
	Pulled  int    `json:"pulled,omitempty"`
}

// SyncSummary totals a synchronization run.
type SyncSummary struct {
	TotalServices   int     `json:"total_services"`
	SuccessfulSyncs int     `json:"successful_syncs"`
	FailedSyncs     int     `json:"failed_syncs"`
	SuccessRate     float64 `json:"success_rate"`
}

// SyncReport is the full result of a synchronization run.
type SyncReport struct {
	Success        bool             `json:"success"`
	SyncType       SyncType         `json:"sync_type"`
	SyncedServices []string         `json:"synced_services"`
	FailedServices []PeerSyncResult `json:"failed_services"`
	Results        []PeerSyncResult `json:"results"`
	Summary        SyncSummary      `json:"sync_summary"`
	Timestamp      time.Time        `json:"timestamp"`
}

// AssetManifest lists this service's asset inventory so peers can pull.
type AssetManifest struct {
	Service      string    `json:"service"`
	Version      string    `json:"version,omitempty"`
	Fonts        []string  `json:"fonts"`
	ColorSchemes []string  `json:"color_schemes"`
	Templates    []string  `json:"templates"`
	Bundles      []string  `json:"bundles"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// AssetTotal returns the number of asset IDs across all kinds.
func (m AssetManifest) AssetTotal() int {
	return len(m.Fonts) + len(m.ColorSchemes) + len(m.Templates) + len(m.Bundles)
}
