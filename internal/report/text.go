// Package report renders a run's surviving Setups and Rejections for
// human and machine consumption (spec §6 "Setup sink", §7 "User-visible
// failure"). Renders a ranked table plus a rejection breakdown using
// zerolog.Logger's structured field conventions.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"position-signal-engine/internal/model"
)

// Summary is the run-level roll-up printed alongside the per-ticker
// table: how many instruments were looked at and where the ones that
// did not survive fell out of the pipeline.
type Summary struct {
	Analysed        int
	Evaluated       int
	RejectedByStage map[string]int
}

// WriteText renders setups as a ranked table followed by a rejection
// breakdown, column-aligned with text/tabwriter.
func WriteText(w io.Writer, setups []model.Setup, summary Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "RANK\tTICKER\tTIER\tSCORE\tROBUST\tWIN%%\tEV\tRRR\tPOS%%\tNOTES\n")
	for i, s := range setups {
		notes := ""
		for j, n := range s.Notes {
			if j > 0 {
				notes += ","
			}
			notes += n
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%.1f\t%.1f%%\t%.4f\t%.2f\t%.2f%%\t%s\n",
			i+1, s.Ticker, s.Tier, s.Score, s.RobustScore, s.WinRate*100, s.ExpectedValue, s.RiskReward, s.PositionPct*100, notes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nanalysed=%d evaluated=%d surviving=%d\n", summary.Analysed, summary.Evaluated, len(setups))
	if len(summary.RejectedByStage) == 0 {
		return nil
	}
	fmt.Fprintf(w, "rejected by stage:\n")
	for stage, count := range summary.RejectedByStage {
		fmt.Fprintf(w, "  %-12s %d\n", stage, count)
	}
	return nil
}

// LogWarnings emits one zerolog warning per Setup note that represents
// a multiplicative penalty or sentinel condition firing (spec §7), so
// an operator scanning logs sees why a ranked setup's numbers look the
// way they do without opening the snapshot file.
func LogWarnings(logger zerolog.Logger, setups []model.Setup) {
	for _, s := range setups {
		for _, note := range s.Notes {
			logger.Warn().Str("ticker", s.Ticker).Str("note", note).Msg("setup flagged during post-processing")
		}
	}
}

// LogRejections emits one zerolog info line per rejection, structured
// by stage so operators can filter a run's log by where instruments
// fell out.
func LogRejections(logger zerolog.Logger, rejections []model.Rejection) {
	for _, r := range rejections {
		logger.Info().Str("ticker", r.Ticker).Str("stage", r.Stage).Str("reason", r.Reason).Msg("instrument rejected")
	}
}
