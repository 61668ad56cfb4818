package scoring

import (
	"errors"

	"signalengine/internal/zones"
)

var ErrInvalidLevels = errors.New("scoring: invalid levels")

// ErrRRTooLow is returned instead of ErrInvalidLevels when the levels are
// otherwise well-formed but riskReward1 misses the configured minimum.
var ErrRRTooLow = errors.New("scoring: risk/reward below minimum")

// Levels is the zone-anchored stop-loss/take-profit plan for a setup.
type Levels struct {
	Entry             float64
	StopLoss          float64
	TP1               float64
	TP2               float64
	TPZones           []zones.Zone
	RiskReward1       float64
	TrailingActivateR float64
}

// BuildLevels derives stop-loss and take-profit levels anchored to the
// nearest opposing zones, falling back to the setup's own zone and then a
// flat percentage when no opposing zone exists.
func BuildLevels(entry float64, side zones.Side, zoneList []zones.Zone, setupZone zones.Zone, slBufferPct, minRR, trailingActivateR float64) (Levels, error) {
	stopLoss := resolveStopLoss(entry, side, zoneList, setupZone, slBufferPct)

	tpZones := zones.FindNextOpposingZones(entry, zoneList, side, 3)
	tp1, tp2 := tpCenters(entry, stopLoss, side, tpZones)

	lv := Levels{
		Entry:             entry,
		StopLoss:          stopLoss,
		TP1:               tp1,
		TP2:               tp2,
		TPZones:           tpZones,
		TrailingActivateR: trailingActivateR,
	}

	risk := entry - stopLoss
	if side == zones.Short {
		risk = stopLoss - entry
	}
	if risk != 0 {
		reward := tp1 - entry
		if side == zones.Short {
			reward = entry - tp1
		}
		lv.RiskReward1 = reward / risk
	}

	if err := validateLevels(lv, side, minRR); err != nil {
		return Levels{}, err
	}
	return lv, nil
}

func resolveStopLoss(entry float64, side zones.Side, zoneList []zones.Zone, setupZone zones.Zone, slBufferPct float64) float64 {
	if slZone := zones.FindStopLossZone(entry, zoneList, side); slZone != nil {
		if side == zones.Long {
			return slZone.Lower * (1 - slBufferPct)
		}
		return slZone.Upper * (1 + slBufferPct)
	}

	if setupZone.Center != 0 {
		if side == zones.Long {
			return setupZone.Lower - setupZone.Lower*slBufferPct
		}
		return setupZone.Upper + setupZone.Upper*slBufferPct
	}

	if side == zones.Long {
		return entry * 0.99
	}
	return entry * 1.01
}

func tpCenters(entry, stopLoss float64, side zones.Side, tpZones []zones.Zone) (tp1, tp2 float64) {
	r := entry - stopLoss
	if side == zones.Short {
		r = stopLoss - entry
	}

	centers := make([]float64, 0, 2)
	for _, z := range tpZones {
		centers = append(centers, z.Center)
		if len(centers) == 2 {
			break
		}
	}

	switch len(centers) {
	case 0:
		return extend(entry, side, r, 1.5), extend(entry, side, r, 3)
	case 1:
		return centers[0], extend(entry, side, r, 3)
	default:
		return centers[0], centers[1]
	}
}

func extend(entry float64, side zones.Side, r, multiple float64) float64 {
	if side == zones.Long {
		return entry + r*multiple
	}
	return entry - r*multiple
}

func validateLevels(lv Levels, side zones.Side, minRR float64) error {
	vals := []float64{lv.Entry, lv.StopLoss, lv.TP1, lv.TP2, lv.RiskReward1}
	for _, v := range vals {
		if !finite(v) {
			return ErrInvalidLevels
		}
	}

	if side == zones.Long {
		if !(lv.StopLoss < lv.Entry && lv.Entry < lv.TP1) {
			return ErrInvalidLevels
		}
	} else {
		if !(lv.TP1 < lv.Entry && lv.Entry < lv.StopLoss) {
			return ErrInvalidLevels
		}
	}

	if minRR > 0 && lv.RiskReward1 < minRR {
		return ErrRRTooLow
	}

	return nil
}
