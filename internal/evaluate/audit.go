package evaluate

import "time"

// AuditEntry records one transformation stage in an evaluation.
type AuditEntry struct {
	Stage  string         `json:"stage"`
	At     time.Time      `json:"at"`
	Detail map[string]any `json:"detail,omitempty"`
}

// AuditTrail is the append-only record of every stage an evaluation went
// through, embedded in its result.
type AuditTrail []AuditEntry

func (t *AuditTrail) record(stage string, detail map[string]any) {
	*t = append(*t, AuditEntry{Stage: stage, At: time.Now().UTC(), Detail: detail})
}
