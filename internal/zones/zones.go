// Package zones implements C3: building, merging and querying
// support/resistance bands from pivots.
package zones

import (
	"fmt"
	"math"
	"sort"

	"signalengine/internal/candlestore"
	"signalengine/internal/pivots"
)

// Type identifies which side of price a zone represents.
type Type string

const (
	Support    Type = "support"
	Resistance Type = "resistance"
)

// Side mirrors the LONG/SHORT side of a setup, used by the zone queries.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

const maxSeeds = 20

// Zone is a support or resistance band: lower = center*(1-tol),
// upper = center*(1+tol).
type Zone struct {
	Type      Type
	Center    float64
	Lower     float64
	Upper     float64
	Timestamp int64
	Touches   int
	Key       string
}

func newZone(t Type, center float64, tol float64, ts int64) Zone {
	return Zone{
		Type:      t,
		Center:    center,
		Lower:     center * (1 - tol),
		Upper:     center * (1 + tol),
		Timestamp: ts,
		Touches:   1,
		Key:       key(t, center),
	}
}

func key(t Type, center float64) string {
	return fmt.Sprintf("%s_%.2f", t, center)
}

// Build restricts to the last lookback candles, seeds zones from up to 20
// recent pivot highs (resistance) and pivot lows (support) with the given
// window and tolerance, then merges adjacent zones whose centers are
// within 2*tol of each other.
func Build(candles []candlestore.Candle, lookback, window int, tolPct float64) []Zone {
	if lookback > 0 && lookback < len(candles) {
		candles = candles[len(candles)-lookback:]
	}
	if len(candles) == 0 {
		return nil
	}

	highIdx := pivots.RecentHigh(candles, window, maxSeeds)
	lowIdx := pivots.RecentLow(candles, window, maxSeeds)

	seeds := make([]Zone, 0, len(highIdx)+len(lowIdx))
	for _, i := range highIdx {
		seeds = append(seeds, newZone(Resistance, candles[i].High, tolPct, candles[i].CloseTime))
	}
	for _, i := range lowIdx {
		seeds = append(seeds, newZone(Support, candles[i].Low, tolPct, candles[i].CloseTime))
	}

	return Merge(seeds, tolPct)
}

// Merge sorts zones by center ascending and merges adjacent zones whose
// centers differ by less than 2*tolPct (as a fraction of the lower
// center), averaging centers, unioning bounds and summing touches.
// Merge is idempotent: Merge(Merge(zones)) == Merge(zones).
func Merge(zoneList []Zone, tolPct float64) []Zone {
	if len(zoneList) == 0 {
		return nil
	}
	sorted := append([]Zone(nil), zoneList...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Center < sorted[j].Center })

	merged := make([]Zone, 0, len(sorted))
	current := sorted[0]
	for _, z := range sorted[1:] {
		threshold := 2 * tolPct * current.Center
		if math.Abs(z.Center-current.Center) < threshold {
			newCenter := (current.Center + z.Center) / 2
			current = Zone{
				Type:      current.Type,
				Center:    newCenter,
				Lower:     math.Min(current.Lower, z.Lower),
				Upper:     math.Max(current.Upper, z.Upper),
				Timestamp: maxInt64(current.Timestamp, z.Timestamp),
				Touches:   current.Touches + z.Touches,
				Key:       key(current.Type, newCenter),
			}
		} else {
			merged = append(merged, current)
			current = z
		}
	}
	merged = append(merged, current)
	return merged
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// IsTouching reports whether price lies within [lower, upper].
func IsTouching(price float64, z Zone) bool {
	return price >= z.Lower && price <= z.Upper
}

// NearestZone returns the zone whose center is closest to price, within
// maxPct of price, or nil if none qualify.
func NearestZone(price float64, zoneList []Zone, maxPct float64) *Zone {
	var best *Zone
	bestDist := math.Inf(1)
	for i := range zoneList {
		dist := math.Abs(zoneList[i].Center-price) / price
		if dist > maxPct {
			continue
		}
		if dist < bestDist {
			bestDist = dist
			best = &zoneList[i]
		}
	}
	return best
}

// FindNextOpposingZones returns up to k zones strictly on the profit side
// of entry for side, ordered by distance ascending.
func FindNextOpposingZones(entry float64, zoneList []Zone, side Side, k int) []Zone {
	var candidates []Zone
	for _, z := range zoneList {
		if side == Long && z.Center > entry {
			candidates = append(candidates, z)
		} else if side == Short && z.Center < entry {
			candidates = append(candidates, z)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return math.Abs(candidates[i].Center-entry) < math.Abs(candidates[j].Center-entry)
	})
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// FindStopLossZone returns the nearest zone strictly on the loss side of
// entry for side, or nil if none exists.
func FindStopLossZone(entry float64, zoneList []Zone, side Side) *Zone {
	var best *Zone
	bestDist := math.Inf(1)
	for i := range zoneList {
		z := zoneList[i]
		onLossSide := (side == Long && z.Center < entry) || (side == Short && z.Center > entry)
		if !onLossSide {
			continue
		}
		dist := math.Abs(z.Center - entry)
		if dist < bestDist {
			bestDist = dist
			best = &zoneList[i]
		}
	}
	return best
}

// Count returns the number of support and resistance zones.
func Count(zoneList []Zone) (support, resistance int) {
	for _, z := range zoneList {
		if z.Type == Support {
			support++
		} else {
			resistance++
		}
	}
	return
}
