package report

import (
	"encoding/json"
	"io"

	"position-signal-engine/internal/model"
)

// jsonPayload is the machine-readable shape written alongside the
// text report: the same setups/rejections a run snapshot carries,
// plus the roll-up counts from Summary.
type jsonPayload struct {
	Setups          []model.Setup     `json:"setups"`
	Rejections      []model.Rejection `json:"rejections"`
	Analysed        int               `json:"analysed"`
	Evaluated       int               `json:"evaluated"`
	RejectedByStage map[string]int    `json:"rejected_by_stage"`
}

// WriteJSON renders setups and rejections as a single JSON document.
func WriteJSON(w io.Writer, setups []model.Setup, rejections []model.Rejection, summary Summary) error {
	payload := jsonPayload{
		Setups:          setups,
		Rejections:      rejections,
		Analysed:        summary.Analysed,
		Evaluated:       summary.Evaluated,
		RejectedByStage: summary.RejectedByStage,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
