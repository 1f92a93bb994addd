package guide

import (
	"github.com/fieldline/guidance/internal/config"
	"github.com/fieldline/guidance/internal/units"
)

// The FromTuning constructors derive guidance components from a TuningConfig
// so callers configure everything from one document.

// PurePursuitFromTuning builds a Pure Pursuit controller from tuning values.
func PurePursuitFromTuning(cfg *config.TuningConfig) PurePursuit {
	return PurePursuit{
		Wheelbase:        cfg.GetWheelbase(),
		MaxSteerAngle:    units.DegToRad(cfg.GetMaxSteerAngleDeg()),
		IntegralGain:     cfg.GetPurePursuitIntegralGain(),
		MinIntegralTicks: cfg.GetMinIntegralTicks(),
	}
}

// StanleyFromTuning builds a Stanley controller from tuning values.
func StanleyFromTuning(cfg *config.TuningConfig) Stanley {
	return Stanley{
		HeadingGain:      cfg.GetStanleyHeadingGain(),
		DistanceGain:     cfg.GetStanleyDistanceGain(),
		SideHillFactor:   cfg.GetSideHillFactor(),
		MaxSteerAngle:    units.DegToRad(cfg.GetMaxSteerAngleDeg()),
		IntegralGain:     cfg.GetStanleyIntegralGain(),
		MinIntegralTicks: cfg.GetMinIntegralTicks(),
	}
}

// PlannerFromTuning builds a Dubins planner from tuning values.
func PlannerFromTuning(cfg *config.TuningConfig) DubinsPlanner {
	return DubinsPlanner{
		TurningRadius: cfg.GetTurningRadius(),
		DriveDistance: cfg.GetDriveDistance(),
	}
}

// LookaheadFromTuning builds the goal-point distance tuning.
func LookaheadFromTuning(cfg *config.TuningConfig) Lookahead {
	return Lookahead{
		Minimum:     cfg.GetLookaheadMin(),
		SpeedGain:   cfg.GetLookaheadSpeedGain(),
		ErrorShrink: cfg.GetLookaheadErrorShrink(),
	}
}

// SessionConfigFromTuning assembles a full session configuration.
func SessionConfigFromTuning(cfg *config.TuningConfig) SessionConfig {
	mode := ModePurePursuit
	if cfg.GetControllerMode() == string(ModeStanley) {
		mode = ModeStanley
	}
	return SessionConfig{
		Mode:        mode,
		PurePursuit: PurePursuitFromTuning(cfg),
		Stanley:     StanleyFromTuning(cfg),
		Planner:     PlannerFromTuning(cfg),
		Lookahead:   LookaheadFromTuning(cfg),
		LocalWindow: cfg.GetLocalSearchWindow(),
	}
}

// ExecutorConfigFromTuning assembles the recorded-path executor
// configuration.
func ExecutorConfigFromTuning(cfg *config.TuningConfig) ExecutorConfig {
	return ExecutorConfig{
		Planner:                PlannerFromTuning(cfg),
		Controller:             PurePursuitFromTuning(cfg),
		SwitchRemainingSamples: cfg.GetSwitchRemainingSamples(),
		SwitchDistanceSq:       cfg.GetSwitchDistanceSq(),
		LocalWindow:            cfg.GetLocalSearchWindow(),
	}
}
