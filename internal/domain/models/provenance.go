package models

// StageStatus tells a consumer whether a block holds a real reading or a
// conservative default.
type StageStatus string

const (
	StatusOK       StageStatus = "ok"
	StatusDegraded StageStatus = "degraded"
)

// Provenance is embedded into every enrichment block so that a zero reading
// can be told apart from missing data.
type Provenance struct {
	Status StageStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}

func OK() Provenance { return Provenance{Status: StatusOK} }

func Degraded(reason string) Provenance {
	return Provenance{Status: StatusDegraded, Reason: reason}
}

func (p Provenance) IsDegraded() bool { return p.Status == StatusDegraded }
