package guide

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldline/guidance/internal/monitoring"
)

// ControllerMode selects the lateral controller a session runs.
type ControllerMode string

const (
	ModePurePursuit ControllerMode = "pure_pursuit"
	ModeStanley     ControllerMode = "stanley"
)

// ErrNoActiveTrack reports a guidance tick without a track to follow.
var ErrNoActiveTrack = errors.New("guide: no active track")

// SessionConfig wires a session's controllers, planner and lookahead tuning.
// Everything is explicit data; there is no shared mutable configuration.
type SessionConfig struct {
	Mode        ControllerMode
	PurePursuit PurePursuit
	Stanley     Stanley
	Planner     DubinsPlanner
	Lookahead   Lookahead
	LocalWindow int // 0 means DefaultLocalSearchWindow
}

// Session owns the tracks and per-pairing controller state for one vehicle.
// It runs one guidance computation per Tick and applies queued mutations
// (nudge) between ticks only; controllers hold no back-pointer to it.
type Session struct {
	ID uuid.UUID

	cfg    SessionConfig
	active *Track

	// U-turn / return-to-path connector. While set it is the followed
	// track; once consumed the session swaps to pendingTarget.
	turn          *Track
	pendingTarget *Track

	state        ControlState
	hint         int
	lastTrackID  uuid.UUID
	lastReverse  bool
	lastXTE      float64
	pendingNudge float64
}

// NewSession creates a session with no active track.
func NewSession(cfg SessionConfig) *Session {
	if cfg.LocalWindow <= 0 {
		cfg.LocalWindow = DefaultLocalSearchWindow
	}
	return &Session{ID: uuid.New(), cfg: cfg}
}

// SetActiveTrack makes t the followed track and abandons any pending
// connector.
func (s *Session) SetActiveTrack(t *Track) {
	s.active = t
	s.turn = nil
	s.pendingTarget = nil
}

// ActiveTrack returns the track the session steers to, which is the
// connector while one is being consumed.
func (s *Session) ActiveTrack() *Track {
	if s.turn != nil {
		return s.turn
	}
	return s.active
}

// RequestNudge queues a lateral shift of the active track (right positive,
// metres). It is applied at the start of the next tick so a guidance read
// never interleaves with the point-list replace.
func (s *Session) RequestNudge(offset float64) {
	s.pendingNudge += offset
}

// TriggerUTurn consumes an externally-decided turn trigger: it plans a
// Dubins connector from the current pivot pose onto the nearest point of the
// target track and follows it until consumed, then swaps target in as the
// active track. Planning failure leaves the session on its current track.
func (s *Session) TriggerUTurn(pivot Waypoint, target *Track) error {
	if target == nil || len(target.Points) < 2 {
		return ErrTooFewPoints
	}
	hit, err := target.NearestSegment(pivot.Pos())
	if err != nil {
		return err
	}
	entry := WaypointAt(hit.Point, target.HeadingAt(hit.Index))

	_, samples, err := s.cfg.Planner.Plan(pivot, entry)
	if err != nil {
		return fmt.Errorf("guide: u-turn planning failed: %w", err)
	}
	connector, err := ShuttleTrack("uturn:"+target.Name, samples)
	if err != nil {
		return err
	}

	s.turn = connector
	s.pendingTarget = target
	monitoring.Logf("guide: u-turn planned onto %q (%d samples)", target.Name, len(samples))
	return nil
}

// Tick runs one guidance computation: queued mutations, nearest-segment
// lookup, controller, connector hand-off. GoalDistance is taken from the
// input when set, otherwise derived from the configured lookahead tuning and
// the previous tick's cross-track error.
func (s *Session) Tick(in ControlInput) (ControlOutput, error) {
	if s.pendingNudge != 0 && s.active != nil {
		s.active.Nudge(s.pendingNudge)
		s.pendingNudge = 0
	}

	track := s.ActiveTrack()
	if track == nil {
		return ControlOutput{}, ErrNoActiveTrack
	}

	// A track change or a reverse flip invalidates the persisted filter
	// state and the search hint; re-engagement resets happen inside the
	// controllers.
	relocalize := track.ID != s.lastTrackID || in.Reverse != s.lastReverse
	if relocalize {
		s.state.Reset()
		s.hint = 0
	}
	s.lastTrackID = track.ID
	s.lastReverse = in.Reverse

	if in.GoalDistance <= 0 {
		in.GoalDistance = s.cfg.Lookahead.Distance(in.Speed, s.lastXTE)
	}
	// Steady-state following uses the bounded window scan. Any tick that
	// invalidated the hint localizes globally; a stale hint with a bounded
	// window would lock the search onto the wrong end of the track.
	in.LocalSearch = !relocalize && track.Type != TrackABLine
	in.LocalWindow = s.cfg.LocalWindow
	in.HintIndex = s.hint

	var out ControlOutput
	var err error
	switch s.cfg.Mode {
	case ModeStanley:
		out, err = s.cfg.Stanley.Steer(track, in, &s.state)
	default:
		out, err = s.cfg.PurePursuit.Steer(track, in, &s.state)
	}
	if err != nil {
		return ControlOutput{}, err
	}
	s.hint = out.HintIndex
	s.lastXTE = out.CrossTrack

	if s.turn != nil && out.EndOfTrack {
		monitoring.Logf("guide: u-turn connector consumed, resuming %q", s.pendingTarget.Name)
		s.active = s.pendingTarget
		s.turn = nil
		s.pendingTarget = nil
		s.state.Reset()
		s.hint = 0
	}
	return out, nil
}
