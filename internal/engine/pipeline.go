package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"signalengine/config"
	"signalengine/internal/antichase"
	"signalengine/internal/candlestore"
	"signalengine/internal/events"
	"signalengine/internal/indicators"
	"signalengine/internal/liquidity"
	"signalengine/internal/logging"
	"signalengine/internal/patterns"
	"signalengine/internal/pivots"
	"signalengine/internal/regime"
	"signalengine/internal/scoring"
	"signalengine/internal/setups"
	"signalengine/internal/structure"
	"signalengine/internal/zones"
)

const minCandlesRequired = 100

// Engine wires every analysis component into the SETUP/ENTRY pipeline.
type Engine struct {
	cfg    *config.Config
	store  *candlestore.Store
	sink   Sink
	cool   CooldownStore
	skips  SkipLogger
	log    *logging.Logger

	mu             sync.Mutex
	setupDedup     map[string]time.Time
	lastFormingRun map[string]time.Time
}

func New(cfg *config.Config, store *candlestore.Store, sink Sink, cool CooldownStore, skips SkipLogger) *Engine {
	return &Engine{
		cfg:            cfg,
		store:          store,
		sink:           sink,
		cool:           cool,
		skips:          skips,
		log:            logging.WithComponent("engine"),
		setupDedup:     make(map[string]time.Time),
		lastFormingRun: make(map[string]time.Time),
	}
}

func (e *Engine) skip(symbol, tf, reason, details string) {
	e.log.WithFields(map[string]interface{}{
		"symbol": symbol, "timeframe": tf, "reason": reason, "details": details,
	}).Debug("signal evaluation skipped")
	if e.skips != nil {
		e.skips.Skip(symbol, tf, reason, details)
	}
}

// OnClosedCandle runs the full ENTRY-stage pipeline for a closed candle on
// an entry timeframe.
func (e *Engine) OnClosedCandle(symbol, tf string, now time.Time) {
	if !contains(e.cfg.EntryTimeframes, tf) {
		return
	}
	candles := e.store.Closed(symbol, tf)
	e.evaluate(symbol, tf, candles, StageEntry, now)
}

// OnFormingUpdate runs the SETUP-stage pipeline against the forming candle,
// throttled per (symbol, tf) to at most once per Signal.FormingEvalInterval,
// and never more often than once every 10 seconds.
func (e *Engine) OnFormingUpdate(symbol, tf string, now time.Time) {
	interval := e.cfg.Signal.FormingEvalInterval
	if interval < 10*time.Second {
		interval = 10 * time.Second
	}
	key := symbol + "|" + tf
	e.mu.Lock()
	last, ok := e.lastFormingRun[key]
	if ok && now.Sub(last) < interval {
		e.mu.Unlock()
		return
	}
	e.lastFormingRun[key] = now
	e.mu.Unlock()

	candles := e.store.ClosedWithForming(symbol, tf)
	e.evaluate(symbol, tf, candles, StageSetup, now)
}

func (e *Engine) evaluate(symbol, tf string, candles []candlestore.Candle, stage Stage, now time.Time) {
	if len(candles) < minCandlesRequired {
		e.skip(symbol, tf, "insufficient_data", "fewer than 100 candles available")
		return
	}

	pivotWindow := e.cfg.Zone.PivotWindow
	pivotHighs := pivots.High(candles, pivotWindow)
	pivotLows := pivots.Low(candles, pivotWindow)

	zoneList := zones.Build(candles, e.cfg.Zone.Lookback, pivotWindow, e.cfg.Zone.TolerancePct)

	in := setups.Inputs{
		MinZonesRequired:     e.cfg.Zone.MinZonesRequired,
		GateEnabled:          e.cfg.Zone.MinZonesRequired > 0,
		VolumeSpikeThreshold: e.cfg.Scoring.VolumeSpikeThreshold,
		AvgVolume20:          avgVolume(candles, 20),
	}
	setup, err := setups.DetectSetup(candles, zoneList, in)
	if errors.Is(err, setups.ErrNoZones) {
		e.skip(symbol, tf, "no_zones", "fewer zones available than required")
		return
	}
	if setup == nil {
		e.skip(symbol, tf, "no_setup", "detectSetup returned no candidate")
		return
	}
	side := setupSide(setup)

	trendLabel := structure.Analyze(candles, e.cfg.Structure.Lookback)
	reg := regime.DetectMarketRegime(candles, e.cfg.Regime.ATRPeriod, 20, trendLabel)
	htfBias := e.htfBias(symbol)
	aligned, alignmentScore := structure.CheckAlignment(toStructureSide(side), htfBias)

	if stage == StageEntry && !aligned {
		e.skip(symbol, tf, "htf_not_aligned", "higher-timeframe bias disagrees with setup side")
		return
	}

	structureEvent := events.DetectStructureEvents(candles, pivotHighs, pivotLows, trendLabel, e.cfg.Signal.StructureLookback)
	supportRefs, resistanceRefs := liquidity.ZoneReferences(zoneList)
	sweep := liquidity.DetectSweep(candles[len(candles)-1], supportRefs, resistanceRefs, e.cfg.Signal.SweepLookback)
	divergence := indicators.DetectRSIDivergence(candles, pivotHighs, pivotLows, indicators.DefaultPeriod)
	volumeRatio := volumeRatioOf(candles, 20)

	if stage == StageEntry && e.cfg.Scoring.RequireVolumeConfirmation && volumeRatio < e.cfg.Scoring.VolumeSpikeThreshold {
		e.skip(symbol, tf, "low_volume", "volume ratio below required confirmation threshold")
		return
	}

	candleStrength := patterns.GetCandleStrength(candles[len(candles)-1])
	scoreIn := scoring.Inputs{
		Setup:              setup,
		Side:               side,
		HTFAligned:         aligned,
		HTFAlignmentScore:  alignmentScore,
		CandleStrength:     candleStrength,
		VolumeRatio:        volumeRatio,
		SetupVolumeSpike:   hasVolumeSpikeFlag(setup),
		Divergence:         divergence,
		RSIDivergenceBonus: e.cfg.Scoring.RSIDivergenceBonus,
	}
	breakdown := scoring.ScoreSetup(scoreIn)

	threshold := e.cfg.Signal.SetupScoreThreshold
	if stage == StageEntry {
		threshold = e.cfg.Signal.EntryScoreThreshold
	}
	if threshold > 0 && breakdown.Total < threshold {
		e.skip(symbol, tf, "score_too_low", "score did not reach the stage threshold")
		return
	}

	entry := candles[len(candles)-1].Close
	levels, err := scoring.BuildLevels(entry, side, zoneList, setup.Common().Zone, e.cfg.Zone.SLBufferPct, e.cfg.Scoring.MinRR, 1.0)
	if errors.Is(err, scoring.ErrRRTooLow) {
		e.skip(symbol, tf, "rr_too_low", err.Error())
		return
	}
	if err != nil {
		e.skip(symbol, tf, "invalid_levels", err.Error())
		return
	}

	chaseCfg := antichase.Config{MaxATR: e.cfg.AntiChase.MaxATR, MaxPct: e.cfg.AntiChase.MaxPct, ATRPeriod: e.cfg.Regime.ATRPeriod}
	chaseEval := antichase.Evaluate(candles, side, entry, entry, chaseCfg, structureEvent, avgVolume(candles, 20))
	if stage == StageEntry && chaseEval.Decision == antichase.ChaseNo {
		e.skip(symbol, tf, "chase_no", chaseEval.Reason)
		return
	}

	key := cooldownKey(symbol, tf, side, zoneKeyOf(setup))

	if stage == StageEntry {
		if e.cool != nil && e.cool.IsOnCooldown(symbol, tf, side, zoneKeyOf(setup)) {
			e.skip(symbol, tf, "cooldown_active", "signal key is on cooldown")
			return
		}
	} else {
		e.mu.Lock()
		if last, ok := e.setupDedup[key]; ok && now.Sub(last) < time.Duration(e.cfg.Signal.CooldownMinutes)*time.Minute {
			e.mu.Unlock()
			e.skip(symbol, tf, "setup_already_emitted", "setup key already emitted within cooldown window")
			return
		}
		e.setupDedup[key] = now
		e.mu.Unlock()
	}

	signal := Signal{
		ID:             uuid.New().String(),
		Stage:          stage,
		Symbol:         symbol,
		Timeframe:      tf,
		Side:           side,
		Score:          breakdown.Total,
		Breakdown:      breakdown,
		Setup:          setup,
		HTFBias:        htfBias,
		Regime:         &reg,
		StructureEvent: structureEvent,
		Sweep:          sweepEvent(sweep),
		Divergence:     divergence,
		VolumeRatio:    volumeRatio,
		Levels:         levels,
		ChaseEval:      &chaseEval,
		Timestamp:      now.Unix(),
	}

	if e.sink == nil || !e.sink.SendSignal(signal) {
		e.skip(symbol, tf, "sink_failed", "notification sink rejected the signal")
		return
	}

	if e.cool != nil {
		if err := e.cool.SaveSignal(signal); err != nil {
			e.log.WithError(err).WithFields(map[string]interface{}{
				"symbol": symbol, "timeframe": tf,
			}).Warn("failed to persist signal")
		}
		if stage == StageEntry && e.cfg.Signal.CooldownMinutes > 0 {
			e.cool.AddCooldown(symbol, tf, side, zoneKeyOf(setup), e.cfg.Signal.CooldownMinutes)
		}
	}
}

func (e *Engine) htfBias(symbol string) structure.HTFBias {
	structures := make(map[string]structure.Label, len(e.cfg.HTFTimeframes))
	for _, tf := range e.cfg.HTFTimeframes {
		candles := e.store.Closed(symbol, tf)
		if len(candles) < minCandlesRequired {
			continue
		}
		structures[tf] = structure.Analyze(candles, e.cfg.Structure.Lookback)
	}
	return structure.DetermineHTFBias(structures, e.cfg.Structure.HTFWeights)
}

func toStructureSide(s zones.Side) structure.Side {
	if s == zones.Long {
		return structure.Long
	}
	return structure.Short
}

func hasVolumeSpikeFlag(s setups.Setup) bool {
	switch v := s.(type) {
	case setups.Breakout:
		return v.VolumeRatio > 0 && v.IsTrue
	case setups.Breakdown:
		return v.VolumeRatio > 0 && v.IsTrue
	default:
		return false
	}
}

func sweepEvent(sw *liquidity.Sweep) *events.Event {
	if sw == nil {
		return nil
	}
	dir := structure.Up
	if sw.Side == liquidity.Bearish {
		dir = structure.Down
	}
	return &events.Event{Kind: events.Kind("SWEEP"), Direction: dir, Level: sw.Reference}
}

func avgVolume(candles []candlestore.Candle, window int) float64 {
	n := len(candles)
	if n == 0 {
		return 0
	}
	start := 0
	if n-window > start {
		start = n - window
	}
	sum := 0.0
	count := 0
	for i := start; i < n; i++ {
		sum += candles[i].Volume
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func volumeRatioOf(candles []candlestore.Candle, window int) float64 {
	avg := avgVolume(candles[:len(candles)-1], window)
	if avg == 0 {
		return 0
	}
	return candles[len(candles)-1].Volume / avg
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
