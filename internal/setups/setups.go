// Package setups implements C10: price-action setup classification against
// a built zone map. Setups are represented as a tagged union (one Go type
// per variant implementing the Setup interface) rather than a single
// struct with optional fields, so scoring and level calculation can type
// switch on the variant instead of probing for which fields are set.
package setups

import (
	"errors"

	"signalengine/internal/candlestore"
	"signalengine/internal/patterns"
	"signalengine/internal/zones"
)

// ErrNoZones distinguishes a zone-count gate miss from a true no-pattern
// miss, so callers can tell "nothing to detect against" from "detected
// nothing".
var ErrNoZones = errors.New("setups: fewer zones than required")

type Kind string

const (
	KindReversal       Kind = "reversal"
	KindBreakout       Kind = "breakout"
	KindBreakdown      Kind = "breakdown"
	KindRetest         Kind = "retest"
	KindFalseBreakout  Kind = "false_breakout"
	KindFalseBreakdown Kind = "false_breakdown"
)

// Meta holds the fields shared by every setup variant.
type Meta struct {
	Side  zones.Side
	Zone  zones.Zone
	Zones []zones.Zone
}

// Setup is the tagged-union interface every variant implements.
type Setup interface {
	Kind() Kind
	Common() Meta
}

type Reversal struct {
	Meta
	Pattern patterns.Detection
}

func (r Reversal) Kind() Kind   { return KindReversal }
func (r Reversal) Common() Meta { return r.Meta }

type Breakout struct {
	Meta
	IsTrue      bool
	VolumeRatio float64
}

func (b Breakout) Kind() Kind   { return KindBreakout }
func (b Breakout) Common() Meta { return b.Meta }

type Breakdown struct {
	Meta
	IsTrue      bool
	VolumeRatio float64
}

func (b Breakdown) Kind() Kind   { return KindBreakdown }
func (b Breakdown) Common() Meta { return b.Meta }

type Retest struct {
	Meta
	Pattern patterns.Detection
}

func (r Retest) Kind() Kind   { return KindRetest }
func (r Retest) Common() Meta { return r.Meta }

type FalseBreakout struct {
	Meta
	kind Kind
}

func (f FalseBreakout) Kind() Kind   { return f.kind }
func (f FalseBreakout) Common() Meta { return f.Meta }

// Inputs bundles everything a detector needs beyond the candle history and
// zone map.
type Inputs struct {
	MinZonesRequired int
	GateEnabled      bool
	VolumeSpikeThreshold float64
	AvgVolume20      float64
	RetestLookback   int
	NearZonePct      float64
}

const defaultRetestLookback = 20

// DetectSetup runs the four detectors in priority order (reversal,
// breakout/breakdown, false breakout/breakdown, retest) and returns the
// first match. It returns ErrNoZones when the zone-count gate itself is
// the reason nothing was evaluated, so callers can tell that apart from a
// gate pass that simply found no pattern.
func DetectSetup(candles []candlestore.Candle, zoneList []zones.Zone, in Inputs) (Setup, error) {
	support, resistance := zones.Count(zoneList)
	if in.GateEnabled && support+resistance < in.MinZonesRequired {
		return nil, ErrNoZones
	}
	if len(candles) < 2 {
		return nil, nil
	}

	if s := detectReversal(candles, zoneList, in); s != nil {
		return s, nil
	}
	if s := detectBreakoutOrBreakdown(candles, zoneList, in); s != nil {
		return s, nil
	}
	if s := detectFalseBreakout(candles, zoneList, in); s != nil {
		return s, nil
	}
	if s := detectRetest(candles, zoneList, in); s != nil {
		return s, nil
	}
	return nil, nil
}

func detectReversal(candles []candlestore.Candle, zoneList []zones.Zone, in Inputs) Setup {
	cur := candles[len(candles)-1]
	nearPct := in.NearZonePct
	if nearPct <= 0 {
		nearPct = 0.01
	}

	if z := zones.NearestZone(cur.Close, supportsOf(zoneList), nearPct); z != nil {
		if det := patterns.DetectReversalPattern(candles); det != nil && det.Type == patterns.Bullish {
			return Reversal{Meta: Meta{Side: zones.Long, Zone: *z, Zones: zoneList}, Pattern: *det}
		}
	}
	if z := zones.NearestZone(cur.Close, resistancesOf(zoneList), nearPct); z != nil {
		if det := patterns.DetectReversalPattern(candles); det != nil && det.Type == patterns.Bearish {
			return Reversal{Meta: Meta{Side: zones.Short, Zone: *z, Zones: zoneList}, Pattern: *det}
		}
	}
	return nil
}

func detectBreakoutOrBreakdown(candles []candlestore.Candle, zoneList []zones.Zone, in Inputs) Setup {
	n := len(candles)
	prev, cur := candles[n-2], candles[n-1]
	volumeRatio := 0.0
	if in.AvgVolume20 > 0 {
		volumeRatio = cur.Volume / in.AvgVolume20
	}
	spike := in.VolumeSpikeThreshold > 0 && volumeRatio >= in.VolumeSpikeThreshold

	for _, z := range resistancesOf(zoneList) {
		if prev.Close <= z.Upper && cur.Close > z.Upper {
			if spike {
				return Breakout{Meta: Meta{Side: zones.Long, Zone: z, Zones: zoneList}, IsTrue: true, VolumeRatio: volumeRatio}
			}
			return Breakdown{Meta: Meta{Side: zones.Short, Zone: z, Zones: zoneList}, IsTrue: false, VolumeRatio: volumeRatio}
		}
	}
	for _, z := range supportsOf(zoneList) {
		if prev.Close >= z.Lower && cur.Close < z.Lower {
			if spike {
				return Breakdown{Meta: Meta{Side: zones.Short, Zone: z, Zones: zoneList}, IsTrue: true, VolumeRatio: volumeRatio}
			}
			return Breakout{Meta: Meta{Side: zones.Long, Zone: z, Zones: zoneList}, IsTrue: false, VolumeRatio: volumeRatio}
		}
	}
	return nil
}

func detectFalseBreakout(candles []candlestore.Candle, zoneList []zones.Zone, in Inputs) Setup {
	cur := candles[len(candles)-1]
	volumeRatio := 0.0
	if in.AvgVolume20 > 0 {
		volumeRatio = cur.Volume / in.AvgVolume20
	}
	spike := in.VolumeSpikeThreshold > 0 && volumeRatio >= in.VolumeSpikeThreshold
	if spike {
		return nil
	}

	for _, z := range resistancesOf(zoneList) {
		if cur.High > z.Upper && cur.Close <= z.Upper {
			return FalseBreakout{Meta: Meta{Side: zones.Short, Zone: z, Zones: zoneList}, kind: KindFalseBreakout}
		}
	}
	for _, z := range supportsOf(zoneList) {
		if cur.Low < z.Lower && cur.Close >= z.Lower {
			return FalseBreakout{Meta: Meta{Side: zones.Long, Zone: z, Zones: zoneList}, kind: KindFalseBreakdown}
		}
	}
	return nil
}

func detectRetest(candles []candlestore.Candle, zoneList []zones.Zone, in Inputs) Setup {
	lookback := in.RetestLookback
	if lookback <= 0 {
		lookback = defaultRetestLookback
	}
	n := len(candles)
	if n < 3 {
		return nil
	}
	start := 0
	if n-lookback > start {
		start = n - lookback
	}
	cur := candles[n-1]

	for _, z := range resistancesOf(zoneList) {
		if brokeOutAbove(candles[start:n-1], z) && zones.IsTouching(cur.Close, z) {
			if det := patterns.DetectReversalPattern(candles); det != nil && det.Type == patterns.Bullish {
				return Retest{Meta: Meta{Side: zones.Long, Zone: z, Zones: zoneList}, Pattern: *det}
			}
		}
	}
	for _, z := range supportsOf(zoneList) {
		if brokeOutBelow(candles[start:n-1], z) && zones.IsTouching(cur.Close, z) {
			if det := patterns.DetectReversalPattern(candles); det != nil && det.Type == patterns.Bearish {
				return Retest{Meta: Meta{Side: zones.Short, Zone: z, Zones: zoneList}, Pattern: *det}
			}
		}
	}
	return nil
}

func brokeOutAbove(window []candlestore.Candle, z zones.Zone) bool {
	for i := 1; i < len(window); i++ {
		if window[i-1].Close <= z.Upper && window[i].Close > z.Upper {
			return true
		}
	}
	return false
}

func brokeOutBelow(window []candlestore.Candle, z zones.Zone) bool {
	for i := 1; i < len(window); i++ {
		if window[i-1].Close >= z.Lower && window[i].Close < z.Lower {
			return true
		}
	}
	return false
}

func supportsOf(zoneList []zones.Zone) []zones.Zone {
	out := make([]zones.Zone, 0, len(zoneList))
	for _, z := range zoneList {
		if z.Type == zones.Support {
			out = append(out, z)
		}
	}
	return out
}

func resistancesOf(zoneList []zones.Zone) []zones.Zone {
	out := make([]zones.Zone, 0, len(zoneList))
	for _, z := range zoneList {
		if z.Type == zones.Resistance {
			out = append(out, z)
		}
	}
	return out
}
