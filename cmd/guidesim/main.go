// Command guidesim runs the guidance controllers closed-loop against a
// kinematic bicycle model and writes cross-track plots and a summary for
// tuning work. No hardware is involved; the vehicle is simulated.
//
// Usage:
//
//	guidesim -scenario ab -offset 4 -out plots/ab-baseline
//	guidesim -scenario uturn -mode stanley -png=false
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"

	"github.com/fieldline/guidance/internal/config"
	"github.com/fieldline/guidance/internal/geo"
	"github.com/fieldline/guidance/internal/guide"
	"github.com/fieldline/guidance/internal/units"
	"github.com/fieldline/guidance/internal/version"
)

// sample is one tick of simulation output.
type sample struct {
	T     float64 // seconds since start
	E, N  float64 // vehicle position
	XTE   float64
	Steer float64
	State string
}

// vehicle is the kinematic bicycle model driven by the controllers.
type vehicle struct {
	pos       geo.Vec
	heading   float64
	wheelbase float64
}

func (v *vehicle) step(steer, speed, dt float64) {
	v.heading = geo.WrapAngle(v.heading + speed*dt*math.Tan(steer)/v.wheelbase)
	v.pos = v.pos.Add(geo.Dir(v.heading).Scale(speed * dt))
}

func (v *vehicle) pose() guide.Waypoint { return guide.WaypointAt(v.pos, v.heading) }

func main() {
	var (
		scenarioName = flag.String("scenario", "ab", "scenario: ab, curve, uturn or recorded")
		mode         = flag.String("mode", "", "controller mode override: pure_pursuit or stanley")
		configPath   = flag.String("config", "", "tuning config path (default: built-in defaults)")
		outDir       = flag.String("out", "plots/guidesim", "output directory")
		ticks        = flag.Int("ticks", 1200, "simulation ticks")
		dt           = flag.Float64("dt", 0.1, "tick interval, seconds")
		speed        = flag.Float64("speed", 2.0, "vehicle speed, m/s")
		offset       = flag.Float64("offset", 4.0, "initial cross-track offset, metres")
		pngOut       = flag.Bool("png", true, "write PNG plots")
		htmlOut      = flag.Bool("html", true, "write HTML report")
	)
	flag.Parse()

	log.Printf("guidesim %s (%s)", version.Version, version.GitSHA)

	tuning := loadTuning(*configPath)
	if *mode != "" {
		tuning.ControllerMode = mode
	}

	sc, err := buildScenario(*scenarioName, tuning, *offset)
	if err != nil {
		log.Fatalf("guidesim: %v", err)
	}

	samples := runScenario(sc, tuning, *ticks, *dt, *speed)
	printSummary(*scenarioName, samples, *dt, *speed)

	if !*pngOut && !*htmlOut {
		return
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("guidesim: create output dir: %v", err)
	}
	if *pngOut {
		if err := writePlots(*outDir, sc, samples); err != nil {
			log.Fatalf("guidesim: plots: %v", err)
		}
	}
	if *htmlOut {
		reportFile := filepath.Join(*outDir, "report.html")
		if err := writeReport(reportFile, *scenarioName, samples); err != nil {
			log.Fatalf("guidesim: report: %v", err)
		}
	}
	log.Printf("guidesim: wrote output to %s", *outDir)
}

func loadTuning(path string) *config.TuningConfig {
	if path == "" {
		// All accessors fall back to the canonical defaults.
		return config.EmptyTuningConfig()
	}
	cfg, err := config.LoadTuningConfig(path)
	if err != nil {
		log.Fatalf("guidesim: %v", err)
	}
	return cfg
}

// runScenario drives the vehicle for the requested number of ticks and
// collects the per-tick samples.
func runScenario(sc *scenario, tuning *config.TuningConfig, ticks int, dt, speed float64) []sample {
	veh := vehicle{pos: sc.start.Pos(), heading: sc.start.Heading, wheelbase: tuning.GetWheelbase()}
	samples := make([]sample, 0, ticks)

	for i := 0; i < ticks; i++ {
		in := guide.ControlInput{
			Pivot:     veh.pose(),
			SteerAxle: veh.pos.Add(geo.Dir(veh.heading).Scale(veh.wheelbase)),
			Speed:     speed,
			Engaged:   true,
		}

		res, err := sc.tick(in)
		if err != nil {
			log.Fatalf("guidesim: tick %d: %v", i, err)
		}
		samples = append(samples, sample{
			T:     float64(i) * dt,
			E:     veh.pos.E,
			N:     veh.pos.N,
			XTE:   res.xte,
			Steer: res.steer,
			State: res.state,
		})
		if res.done {
			break
		}
		veh.step(res.steer, speed, dt)
	}
	return samples
}

// printSummary reports settling statistics. The first quarter of the run is
// treated as the acquisition phase and excluded from the steady-state
// numbers.
func printSummary(name string, samples []sample, dt, speed float64) {
	if len(samples) == 0 {
		log.Fatalf("guidesim: scenario %q produced no samples", name)
	}

	settled := samples[len(samples)/4:]
	xte := make([]float64, len(settled))
	maxAbs := 0.0
	for i, s := range settled {
		xte[i] = s.XTE
		if a := math.Abs(s.XTE); a > maxAbs {
			maxAbs = a
		}
	}
	mean, std := stat.MeanStdDev(xte, nil)

	fmt.Printf("scenario %s: %d ticks (%.1f s) at %.1f m/s (%.1f km/h)\n",
		name, len(samples), float64(len(samples))*dt, speed, units.ConvertSpeed(speed, units.KPH))
	fmt.Printf("  steady-state xte: mean %+.3f m, std %.3f m, max |xte| %.3f m\n", mean, std, maxAbs)
	fmt.Printf("  final: pos (%.2f, %.2f), xte %+.3f m, steer %+.3f rad\n",
		samples[len(samples)-1].E, samples[len(samples)-1].N,
		samples[len(samples)-1].XTE, samples[len(samples)-1].Steer)
}
