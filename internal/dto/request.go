package dto

// SyncRequest optionally explains why support triggered a re-sync.
type SyncRequest struct {
	Reason string `json:"reason"`
}
