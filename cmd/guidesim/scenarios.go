package main

import (
	"fmt"
	"math"

	"github.com/fieldline/guidance/internal/config"
	"github.com/fieldline/guidance/internal/geo"
	"github.com/fieldline/guidance/internal/guide"
)

// tickResult is one scenario step: the steer command to apply plus the data
// recorded for the plots.
type tickResult struct {
	steer float64
	xte   float64
	state string
	done  bool
}

// scenario wires a start pose, the reference tracks for plotting and a tick
// function that runs the guidance component under test.
type scenario struct {
	start  guide.Waypoint
	tracks []*guide.Track
	tick   func(in guide.ControlInput) (tickResult, error)
}

func buildScenario(name string, tuning *config.TuningConfig, offset float64) (*scenario, error) {
	switch name {
	case "ab":
		return abScenario(tuning, offset)
	case "curve":
		return curveScenario(tuning, offset)
	case "uturn":
		return uturnScenario(tuning)
	case "recorded":
		return recordedScenario(tuning, offset)
	default:
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
}

// abScenario acquires a straight AB pass from an initial lateral offset.
func abScenario(tuning *config.TuningConfig, offset float64) (*scenario, error) {
	ab, err := guide.NewABLine("sim pass", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 300})
	if err != nil {
		return nil, err
	}

	s := guide.NewSession(guide.SessionConfigFromTuning(tuning))
	s.SetActiveTrack(ab)

	return &scenario{
		start:  guide.WaypointAt(geo.Vec{E: offset, N: 0}, 0),
		tracks: []*guide.Track{ab},
		tick: func(in guide.ControlInput) (tickResult, error) {
			out, err := s.Tick(in)
			if err != nil {
				return tickResult{}, err
			}
			return tickResult{steer: out.SteerAngle, xte: out.CrossTrack, state: "following"}, nil
		},
	}, nil
}

// curveScenario follows a sinusoidal curve track, the stress case for the
// windowed nearest-segment search.
func curveScenario(tuning *config.TuningConfig, offset float64) (*scenario, error) {
	// Coarse control points; the spline resample supplies the dense line the
	// controllers follow.
	pts := make([]guide.Waypoint, 0, 51)
	for i := 0; i <= 50; i++ {
		n := float64(i) * 4
		pts = append(pts, guide.Waypoint{Easting: 3 * math.Sin(n/15), Northing: n})
	}
	for i := range pts[:len(pts)-1] {
		pts[i].Heading = geo.Heading(pts[i].Pos(), pts[i+1].Pos())
	}
	pts[len(pts)-1].Heading = pts[len(pts)-2].Heading

	coarse, err := guide.NewCurve("sim curve", guide.TrackCurve, pts, false)
	if err != nil {
		return nil, err
	}
	track, err := coarse.Smoothed(4)
	if err != nil {
		return nil, err
	}

	s := guide.NewSession(guide.SessionConfigFromTuning(tuning))
	s.SetActiveTrack(track)

	return &scenario{
		start:  guide.WaypointAt(geo.Vec{E: offset, N: 0}, 0),
		tracks: []*guide.Track{track},
		tick: func(in guide.ControlInput) (tickResult, error) {
			out, err := s.Tick(in)
			if err != nil {
				return tickResult{}, err
			}
			return tickResult{
				steer: out.SteerAngle,
				xte:   out.CrossTrack,
				state: "following",
				done:  out.EndOfTrack,
			}, nil
		},
	}, nil
}

// uturnScenario plans a connector from the end of one pass onto the next and
// follows it through the swap.
func uturnScenario(tuning *config.TuningConfig) (*scenario, error) {
	spacing := 3 * tuning.GetTurningRadius()
	current, err := guide.NewABLine("pass 1", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 200})
	if err != nil {
		return nil, err
	}
	next, err := guide.NewABLine("pass 2", geo.Vec{E: spacing, N: 0}, geo.Vec{E: spacing, N: 200})
	if err != nil {
		return nil, err
	}

	s := guide.NewSession(guide.SessionConfigFromTuning(tuning))
	s.SetActiveTrack(current)

	start := guide.WaypointAt(geo.Vec{E: 0, N: 100}, 0)
	if err := s.TriggerUTurn(start, next); err != nil {
		return nil, err
	}

	return &scenario{
		start:  start,
		tracks: []*guide.Track{current, next},
		tick: func(in guide.ControlInput) (tickResult, error) {
			out, err := s.Tick(in)
			if err != nil {
				return tickResult{}, err
			}
			state := "turning"
			if s.ActiveTrack() == next {
				state = "following"
			}
			return tickResult{steer: out.SteerAngle, xte: out.CrossTrack, state: state}, nil
		},
	}, nil
}

// recordedScenario replays a gently weaving recorded path through the
// executor state machine, approach shuttle included.
func recordedScenario(tuning *config.TuningConfig, offset float64) (*scenario, error) {
	path := &guide.RecordedPath{Name: "sim recording"}
	for i := 0; i <= 60; i++ {
		n := 30 + float64(i)
		path.Points = append(path.Points, guide.RecordedPoint{
			Easting:     3 * math.Sin(float64(i)/8),
			Northing:    n,
			Speed:       1.5,
			ImplementOn: i >= 10 && i <= 50,
		})
	}
	for i := range path.Points[:len(path.Points)-1] {
		path.Points[i].Heading = geo.Heading(path.Points[i].Pos(), path.Points[i+1].Pos())
	}
	path.Points[len(path.Points)-1].Heading = path.Points[len(path.Points)-2].Heading

	ex, err := guide.NewPathExecutor(path, guide.ExecutorConfigFromTuning(tuning))
	if err != nil {
		return nil, err
	}
	track, err := path.Track()
	if err != nil {
		return nil, err
	}

	start := guide.WaypointAt(geo.Vec{E: offset, N: 10}, 0)
	if err := ex.Start(start, guide.ResumeNearest, false); err != nil {
		return nil, err
	}

	lk := guide.LookaheadFromTuning(tuning)
	var lastXTE float64
	return &scenario{
		start:  start,
		tracks: []*guide.Track{track},
		tick: func(in guide.ControlInput) (tickResult, error) {
			// The executor leaves the goal distance to its caller.
			in.GoalDistance = lk.Distance(in.Speed, lastXTE)
			out, err := ex.Tick(in)
			if err != nil {
				return tickResult{}, err
			}
			lastXTE = out.Steer.CrossTrack
			return tickResult{
				steer: out.Steer.SteerAngle,
				xte:   out.Steer.CrossTrack,
				state: string(out.State),
				done:  out.Completed,
			}, nil
		},
	}, nil
}
