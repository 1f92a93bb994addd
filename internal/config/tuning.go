// Package config loads and validates guidance tuning parameters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root tuning document for the guidance core. Fields
// omitted from the JSON keep their defaults, so partial configs are safe;
// the Get* accessors supply the fallback values.
type TuningConfig struct {
	// Vehicle geometry and limits
	Wheelbase        *float64 `json:"wheelbase,omitempty"` // metres
	MaxSteerAngleDeg *float64 `json:"max_steer_angle_deg,omitempty"`
	TurningRadius    *float64 `json:"turning_radius,omitempty"` // metres

	// Dubins planner
	DriveDistance *float64 `json:"drive_distance,omitempty"` // discretization step, metres

	// Controller selection and gains
	ControllerMode          *string  `json:"controller_mode,omitempty"` // "pure_pursuit" or "stanley"
	PurePursuitIntegralGain *float64 `json:"pure_pursuit_integral_gain,omitempty"`
	StanleyHeadingGain      *float64 `json:"stanley_heading_gain,omitempty"`
	StanleyDistanceGain     *float64 `json:"stanley_distance_gain,omitempty"`
	StanleyIntegralGain     *float64 `json:"stanley_integral_gain,omitempty"`
	SideHillFactor          *float64 `json:"side_hill_factor,omitempty"`
	MinIntegralTicks        *int     `json:"min_integral_ticks,omitempty"`

	// Goal-point lookahead tuning
	LookaheadMin         *float64 `json:"lookahead_min,omitempty"`          // metres
	LookaheadSpeedGain   *float64 `json:"lookahead_speed_gain,omitempty"`   // seconds
	LookaheadErrorShrink *float64 `json:"lookahead_error_shrink,omitempty"` // metres per metre of error

	// Track search and recorded-path executor
	LocalSearchWindow      *int     `json:"local_search_window,omitempty"`
	SwitchRemainingSamples *int     `json:"switch_remaining_samples,omitempty"`
	SwitchDistanceSq       *float64 `json:"switch_distance_sq,omitempty"` // metres squared
	RecorderSpacing        *float64 `json:"recorder_spacing,omitempty"`   // metres between recorded samples
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must have
// a .json extension and stay under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching upward from the current directory. Panics if
// the file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that any set values are usable.
func (c *TuningConfig) Validate() error {
	if c.Wheelbase != nil && *c.Wheelbase <= 0 {
		return fmt.Errorf("wheelbase must be positive, got %f", *c.Wheelbase)
	}
	if c.MaxSteerAngleDeg != nil && (*c.MaxSteerAngleDeg <= 0 || *c.MaxSteerAngleDeg >= 90) {
		return fmt.Errorf("max_steer_angle_deg must be in (0, 90), got %f", *c.MaxSteerAngleDeg)
	}
	if c.TurningRadius != nil && *c.TurningRadius <= 0 {
		return fmt.Errorf("turning_radius must be positive, got %f", *c.TurningRadius)
	}
	if c.DriveDistance != nil && *c.DriveDistance <= 0 {
		return fmt.Errorf("drive_distance must be positive, got %f", *c.DriveDistance)
	}
	if c.ControllerMode != nil {
		switch *c.ControllerMode {
		case "pure_pursuit", "stanley":
		default:
			return fmt.Errorf("controller_mode must be pure_pursuit or stanley, got %q", *c.ControllerMode)
		}
	}
	if c.LocalSearchWindow != nil && *c.LocalSearchWindow < 1 {
		return fmt.Errorf("local_search_window must be at least 1, got %d", *c.LocalSearchWindow)
	}
	if c.SwitchRemainingSamples != nil && *c.SwitchRemainingSamples < 1 {
		return fmt.Errorf("switch_remaining_samples must be at least 1, got %d", *c.SwitchRemainingSamples)
	}
	if c.SwitchDistanceSq != nil && *c.SwitchDistanceSq <= 0 {
		return fmt.Errorf("switch_distance_sq must be positive, got %f", *c.SwitchDistanceSq)
	}
	if c.LookaheadMin != nil && *c.LookaheadMin <= 0 {
		return fmt.Errorf("lookahead_min must be positive, got %f", *c.LookaheadMin)
	}
	return nil
}

// GetWheelbase returns the wheelbase value or the default.
func (c *TuningConfig) GetWheelbase() float64 {
	if c.Wheelbase == nil {
		return 2.5
	}
	return *c.Wheelbase
}

// GetMaxSteerAngleDeg returns the max_steer_angle_deg value or the default.
func (c *TuningConfig) GetMaxSteerAngleDeg() float64 {
	if c.MaxSteerAngleDeg == nil {
		return 40.0
	}
	return *c.MaxSteerAngleDeg
}

// GetTurningRadius returns the turning_radius value or the default.
func (c *TuningConfig) GetTurningRadius() float64 {
	if c.TurningRadius == nil {
		return 5.0
	}
	return *c.TurningRadius
}

// GetDriveDistance returns the drive_distance value or the default.
func (c *TuningConfig) GetDriveDistance() float64 {
	if c.DriveDistance == nil {
		return 0.05
	}
	return *c.DriveDistance
}

// GetControllerMode returns the controller_mode value or the default.
func (c *TuningConfig) GetControllerMode() string {
	if c.ControllerMode == nil {
		return "pure_pursuit"
	}
	return *c.ControllerMode
}

// GetPurePursuitIntegralGain returns the pure_pursuit_integral_gain value or the default.
func (c *TuningConfig) GetPurePursuitIntegralGain() float64 {
	if c.PurePursuitIntegralGain == nil {
		return 0
	}
	return *c.PurePursuitIntegralGain
}

// GetStanleyHeadingGain returns the stanley_heading_gain value or the default.
func (c *TuningConfig) GetStanleyHeadingGain() float64 {
	if c.StanleyHeadingGain == nil {
		return 1.0
	}
	return *c.StanleyHeadingGain
}

// GetStanleyDistanceGain returns the stanley_distance_gain value or the default.
func (c *TuningConfig) GetStanleyDistanceGain() float64 {
	if c.StanleyDistanceGain == nil {
		return 0.7
	}
	return *c.StanleyDistanceGain
}

// GetStanleyIntegralGain returns the stanley_integral_gain value or the default.
func (c *TuningConfig) GetStanleyIntegralGain() float64 {
	if c.StanleyIntegralGain == nil {
		return 0
	}
	return *c.StanleyIntegralGain
}

// GetSideHillFactor returns the side_hill_factor value or the default.
func (c *TuningConfig) GetSideHillFactor() float64 {
	if c.SideHillFactor == nil {
		return 0.2
	}
	return *c.SideHillFactor
}

// GetMinIntegralTicks returns the min_integral_ticks value or the default.
func (c *TuningConfig) GetMinIntegralTicks() int {
	if c.MinIntegralTicks == nil {
		return 20
	}
	return *c.MinIntegralTicks
}

// GetLookaheadMin returns the lookahead_min value or the default.
func (c *TuningConfig) GetLookaheadMin() float64 {
	if c.LookaheadMin == nil {
		return 2.0
	}
	return *c.LookaheadMin
}

// GetLookaheadSpeedGain returns the lookahead_speed_gain value or the default.
func (c *TuningConfig) GetLookaheadSpeedGain() float64 {
	if c.LookaheadSpeedGain == nil {
		return 0.6
	}
	return *c.LookaheadSpeedGain
}

// GetLookaheadErrorShrink returns the lookahead_error_shrink value or the default.
func (c *TuningConfig) GetLookaheadErrorShrink() float64 {
	if c.LookaheadErrorShrink == nil {
		return 0.5
	}
	return *c.LookaheadErrorShrink
}

// GetLocalSearchWindow returns the local_search_window value or the default.
func (c *TuningConfig) GetLocalSearchWindow() int {
	if c.LocalSearchWindow == nil {
		return 5
	}
	return *c.LocalSearchWindow
}

// GetSwitchRemainingSamples returns the switch_remaining_samples value or the default.
func (c *TuningConfig) GetSwitchRemainingSamples() int {
	if c.SwitchRemainingSamples == nil {
		return 8
	}
	return *c.SwitchRemainingSamples
}

// GetSwitchDistanceSq returns the switch_distance_sq value or the default.
func (c *TuningConfig) GetSwitchDistanceSq() float64 {
	if c.SwitchDistanceSq == nil {
		return 2.0
	}
	return *c.SwitchDistanceSq
}

// GetRecorderSpacing returns the recorder_spacing value or the default.
func (c *TuningConfig) GetRecorderSpacing() float64 {
	if c.RecorderSpacing == nil {
		return 0.2
	}
	return *c.RecorderSpacing
}
