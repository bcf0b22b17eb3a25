package universe

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Digest returns a stable hex digest of the universe's instrument
// list, used to fingerprint a run-log snapshot (spec §6 "Persisted
// state": `{config_digest, universe_digest, ...}`). Sorted by ticker
// first so file ordering never changes the digest.
func (u *Universe) Digest() string {
	sorted := make([]Instrument, len(u.Instruments))
	copy(sorted, u.Instruments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ticker < sorted[j].Ticker })

	var sb strings.Builder
	for _, inst := range sorted {
		fmt.Fprintf(&sb, "%s|%s|%s|%s|%t|%s\n",
			inst.Ticker, inst.Name, inst.Sector, inst.Geography, inst.IsAllWeather, inst.LiquidityTier)
	}

	sum := blake2b.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%x", sum)
}
