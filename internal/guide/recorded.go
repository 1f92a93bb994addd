package guide

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldline/guidance/internal/geo"
)

// RecordedPoint is one sample captured while driving: pose, speed and the
// implement on/off state at that moment.
type RecordedPoint struct {
	Easting     float64
	Northing    float64
	Heading     float64
	Speed       float64 // metres per second
	ImplementOn bool
}

// Pos returns the sample position as a vector.
func (p RecordedPoint) Pos() geo.Vec { return geo.Vec{E: p.Easting, N: p.Northing} }

// Waypoint converts the sample to a track waypoint.
func (p RecordedPoint) Waypoint() Waypoint {
	return Waypoint{Easting: p.Easting, Northing: p.Northing, Heading: p.Heading}
}

// RecordedPath is an ordered capture of a driven path, replayable by the
// executor.
type RecordedPath struct {
	ID     uuid.UUID
	Name   string
	Points []RecordedPoint
}

// MinRecordedPoints is the shortest path the executor accepts.
const MinRecordedPoints = 5

// Track converts the recording to an open contour track for the lateral
// controllers.
func (rp *RecordedPath) Track() (*Track, error) {
	wps := make([]Waypoint, len(rp.Points))
	for i, p := range rp.Points {
		wps[i] = p.Waypoint()
	}
	return NewCurve(rp.Name, TrackContour, wps, false)
}

// PathRecorder appends samples while the vehicle drives, skipping samples
// closer than the configured spacing so stationary jitter does not pile up
// duplicate points.
type PathRecorder struct {
	path       *RecordedPath
	minSpacing float64
	hasLast    bool
	last       geo.Vec
}

// NewPathRecorder starts a new recording. minSpacing <= 0 records every
// sample.
func NewPathRecorder(name string, minSpacing float64) *PathRecorder {
	return &PathRecorder{
		path:       &RecordedPath{ID: uuid.New(), Name: name},
		minSpacing: minSpacing,
	}
}

// Sample considers one pose for the recording. Mutation happens between
// guidance ticks under the single-writer discipline.
func (r *PathRecorder) Sample(pose Waypoint, speed float64, implementOn bool) {
	p := pose.Pos()
	if r.hasLast && r.minSpacing > 0 && p.DistanceTo(r.last) < r.minSpacing {
		return
	}
	r.path.Points = append(r.path.Points, RecordedPoint{
		Easting:     pose.Easting,
		Northing:    pose.Northing,
		Heading:     pose.Heading,
		Speed:       speed,
		ImplementOn: implementOn,
	})
	r.hasLast = true
	r.last = p
}

// Path returns the recording captured so far.
func (r *PathRecorder) Path() *RecordedPath { return r.path }

// ResumeMode selects how the executor picks its entry point on the recorded
// path.
type ResumeMode string

const (
	ResumeFromStop ResumeMode = "from_stop" // continue at the index where playback stopped
	ResumeNearLast ResumeMode = "near_last" // nearest point within a window of the last index
	ResumeNearest  ResumeMode = "nearest"   // full nearest-point search
)

// ExecState is the recorded-path executor state.
type ExecState string

const (
	ExecIdle        ExecState = "idle"
	ExecApproaching ExecState = "approaching_via_dubins"
	ExecFollowing   ExecState = "following_recorded_path"
	ExecCompleted   ExecState = "completed"
)

// Approach/follow switch-over defaults. Empirically chosen; override via
// ExecutorConfig.
const (
	DefaultSwitchRemainingSamples = 8
	DefaultSwitchDistanceSq       = 2.0 // metres squared
)

// shuttleWindowMetres is the arc length the approach-phase hint window
// covers per tick. The shuttle is sampled every DriveDistance metres, far
// denser than a recorded path, so a fixed sample count would let a fast
// vehicle outrun the window between ticks.
const shuttleWindowMetres = 2.0

// ExecutorConfig collects the executor tunables.
type ExecutorConfig struct {
	Planner                DubinsPlanner
	Controller             PurePursuit
	SwitchRemainingSamples int     // 0 means DefaultSwitchRemainingSamples
	SwitchDistanceSq       float64 // 0 means DefaultSwitchDistanceSq
	LocalWindow            int     // 0 means DefaultLocalSearchWindow
}

// ExecOutput is one tick of executor output.
type ExecOutput struct {
	Steer           ControlOutput
	TargetSpeed     float64
	ImplementToggle *bool // set only on an edge, never forced continuously
	State           ExecState
	Completed       bool // true exactly once, on the transition to ExecCompleted
}

// PathExecutor replays a recorded path: it plans a Dubins shuttle from the
// current pose onto the path, follows the shuttle, then follows the
// recording itself until the last point.
type PathExecutor struct {
	Path  *RecordedPath
	State ExecState

	cfg         ExecutorConfig
	followTrack *Track
	shuttle       *Track // ephemeral Dubins connector, cleared on completion
	targetIndex   int    // recorded-path index the shuttle lands on
	shuttleHint   int
	shuttleWindow int // hint window sized to cover shuttleWindowMetres
	followHint  int
	stopIndex   int // where playback last stopped, for ResumeFromStop
	ctrlState   ControlState
	implementOn bool
	reported    bool // completion already reported
}

// NewPathExecutor validates the recording and prepares an idle executor.
// Paths shorter than MinRecordedPoints are rejected at this boundary.
func NewPathExecutor(path *RecordedPath, cfg ExecutorConfig) (*PathExecutor, error) {
	if path == nil || len(path.Points) < MinRecordedPoints {
		return nil, fmt.Errorf("guide: recorded path needs at least %d points: %w", MinRecordedPoints, ErrTooFewPoints)
	}
	track, err := path.Track()
	if err != nil {
		return nil, err
	}
	if cfg.SwitchRemainingSamples <= 0 {
		cfg.SwitchRemainingSamples = DefaultSwitchRemainingSamples
	}
	if cfg.SwitchDistanceSq <= 0 {
		cfg.SwitchDistanceSq = DefaultSwitchDistanceSq
	}
	if cfg.LocalWindow <= 0 {
		cfg.LocalWindow = DefaultLocalSearchWindow
	}
	return &PathExecutor{
		Path:        path,
		State:       ExecIdle,
		cfg:         cfg,
		followTrack: track,
	}, nil
}

// Start plans the Dubins shuttle from the current pivot pose onto the
// recorded path and moves to ApproachingViaDubins. A planning failure leaves
// the executor Idle and surfaces the error; the caller decides any retry
// policy.
func (e *PathExecutor) Start(pivot Waypoint, mode ResumeMode, implementOn bool) error {
	idx := e.resumeIndex(pivot, mode)
	target := e.Path.Points[idx].Waypoint()

	_, samples, err := e.cfg.Planner.Plan(pivot, target)
	if err != nil {
		e.State = ExecIdle
		return fmt.Errorf("guide: path approach planning failed: %w", err)
	}
	shuttle, err := ShuttleTrack("shuttle:"+e.Path.Name, samples)
	if err != nil {
		e.State = ExecIdle
		return err
	}

	drive := e.cfg.Planner.DriveDistance
	if drive <= 0 {
		drive = DefaultDriveDistance
	}
	window := int(shuttleWindowMetres/drive) + 1
	if window < e.cfg.LocalWindow {
		window = e.cfg.LocalWindow
	}

	e.shuttle = shuttle
	e.shuttleWindow = window
	e.targetIndex = idx
	e.shuttleHint = 0
	e.followHint = idx
	e.implementOn = implementOn
	e.reported = false
	e.ctrlState.Reset()
	e.State = ExecApproaching
	return nil
}

// Stop halts playback, remembering the current index for ResumeFromStop.
func (e *PathExecutor) Stop() {
	if e.State == ExecFollowing {
		e.stopIndex = e.followHint
	}
	e.shuttle = nil
	e.State = ExecIdle
}

// resumeIndex picks the recorded-path entry index for the resume mode.
func (e *PathExecutor) resumeIndex(pivot Waypoint, mode ResumeMode) int {
	last := len(e.Path.Points) - 1
	switch mode {
	case ResumeFromStop:
		if e.stopIndex > last {
			return last
		}
		return e.stopIndex
	case ResumeNearLast:
		hit, err := e.followTrack.NearestSegmentLocal(pivot.Pos(), e.stopIndex, 2*e.cfg.LocalWindow)
		if err != nil {
			return 0
		}
		return hit.Index
	default: // ResumeNearest
		hit, err := e.followTrack.NearestSegment(pivot.Pos())
		if err != nil {
			return 0
		}
		return hit.Index
	}
}

// Tick advances the state machine by one guidance tick.
func (e *PathExecutor) Tick(in ControlInput) (ExecOutput, error) {
	switch e.State {
	case ExecApproaching:
		return e.tickApproaching(in)
	case ExecFollowing:
		return e.tickFollowing(in)
	case ExecCompleted:
		// Completion was already reported; never resume following.
		return ExecOutput{State: ExecCompleted}, nil
	default:
		return ExecOutput{State: ExecIdle}, nil
	}
}

// tickApproaching follows the Dubins shuttle. The switch to Following
// requires BOTH few remaining shuttle samples AND closeness to the target
// point, so a tangential pass near the target cannot switch prematurely.
func (e *PathExecutor) tickApproaching(in ControlInput) (ExecOutput, error) {
	in.LocalSearch = true
	in.LocalWindow = e.shuttleWindow
	in.HintIndex = e.shuttleHint

	out, err := e.cfg.Controller.Steer(e.shuttle, in, &e.ctrlState)
	if err != nil {
		return ExecOutput{State: e.State}, err
	}
	e.shuttleHint = out.HintIndex

	remaining := len(e.shuttle.Points) - 1 - out.HintIndex
	target := e.Path.Points[e.targetIndex].Pos()
	distSq := in.Pivot.Pos().DistanceSqTo(target)

	if remaining < e.cfg.SwitchRemainingSamples && distSq < e.cfg.SwitchDistanceSq {
		e.State = ExecFollowing
		e.followHint = e.targetIndex
		e.ctrlState.Reset() // active track changes from shuttle to recording
	}

	return ExecOutput{
		Steer:       out,
		TargetSpeed: e.Path.Points[e.targetIndex].Speed,
		State:       e.State,
	}, nil
}

// tickFollowing follows the recording with the windowed search, replaying
// the recorded speed and implement state.
func (e *PathExecutor) tickFollowing(in ControlInput) (ExecOutput, error) {
	in.LocalSearch = true
	in.LocalWindow = e.cfg.LocalWindow
	in.HintIndex = e.followHint

	out, err := e.cfg.Controller.Steer(e.followTrack, in, &e.ctrlState)
	if err != nil {
		return ExecOutput{State: e.State}, err
	}
	e.followHint = out.HintIndex
	e.stopIndex = out.HintIndex

	result := ExecOutput{
		Steer:       out,
		TargetSpeed: e.Path.Points[min(out.HintIndex+1, len(e.Path.Points)-1)].Speed,
		State:       ExecFollowing,
	}

	// Replay implement state edge-triggered: synthesize a toggle only when
	// the recording differs from the current state.
	if rec := e.Path.Points[out.HintIndex].ImplementOn; rec != e.implementOn {
		e.implementOn = rec
		v := rec
		result.ImplementToggle = &v
	}

	if out.EndOfTrack {
		e.State = ExecCompleted
		e.shuttle = nil // clear transient buffers
		result.State = ExecCompleted
		result.TargetSpeed = 0
		if !e.reported {
			e.reported = true
			result.Completed = true
		}
	}
	return result, nil
}
