package config

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Digest returns a stable hex blake2b-256 digest of a fixed subset of
// config fields (horizons, evaluation horizon, context gate, sample-size
// tiers, EV/RRR floors, net-edge floor, top_n, master seed), used to
// fingerprint a run-log snapshot (spec §6 "Persisted state"). Portfolio,
// cost-table, regime, permutation and worker settings are not included.
func (c *Config) Digest() string {
	canonical := fmt.Sprintf(
		"horizons=%v eval=%d min_decline=%v lookback=%d tiers=%d/%d/%d ev_floor=%v rrr_floor=%v net_edge_floor=%v top_n=%d seed=%d",
		c.Horizons.Bars, c.Horizons.EvaluationHorizon,
		c.ContextConfig.MinDeclinePct, c.ContextConfig.LookbackBars,
		c.SampleSizeTiers.Core, c.SampleSizeTiers.Primary, c.SampleSizeTiers.Secondary,
		c.QualityGates.EVFloor, c.QualityGates.RRRFloor, c.Costs.NetEdgeFloor,
		c.Ranking.TopN, c.Randomness.MasterSeed,
	)
	sum := blake2b.Sum256([]byte(canonical))
	return fmt.Sprintf("%x", sum)
}
