// Command replay runs recorded detections through the sports tracker.
//
// Usage:
//
//	sports-replay run --input frames.jsonl --sport soccer
//	sports-replay run --input - --matcher greedy --summary < frames.jsonl
//	sports-replay profiles
//
// Every input line is one frame: {"timestamp": 0.033, "sport": "soccer", "detections": [...]}.
// The sport of a line is optional and falls back to --sport.
package main

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.viam.com/rdk/logging"

	"github.com/viam-modules/sports-tracking/mot"
	"github.com/viam-modules/sports-tracking/sports"
)

const envPrefix = "SPORTS_TRACKER_"

var logger = logging.NewLogger("replay")

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "sports-replay",
		Short: "Replay recorded detections through the sports tracker",
	}
	root.AddCommand(runCmd())
	root.AddCommand(profilesCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var (
		input   string
		sport   string
		summary bool
		cfg     = mot.DefaultConfig()
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Track every frame of a JSON-lines detection file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			in := io.Reader(os.Stdin)
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return errors.Wrapf(err, "open %s", input)
				}
				defer f.Close()
				in = f
			}
			reg := sports.NewRegistry(func(name string) sports.SessionConfig {
				sc := sports.DefaultSessionConfig(name)
				sc.Tracking = cfg
				return sc
			}, logger)
			rep := &replayer{registry: reg, sport: sport, out: cmd.OutOrStdout(), summaryOnly: summary}
			frames, err := rep.run(in)
			if err != nil {
				return err
			}
			logger.Infow("replay finished", "frames", frames, "sports", reg.Sports())
			if summary {
				return rep.writeSummaries()
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&input, "input", "-", "JSON-lines detection file, - for stdin")
	flags.StringVar(&sport, "sport", envString("SPORT", sports.DefaultSport), "Sport of lines that do not name one")
	flags.BoolVar(&summary, "summary", false, "Print only the final stats and trends of every sport")
	flags.Float64Var(&cfg.TrackThresh, "track-thresh", envFloat("TRACK_THRESH", cfg.TrackThresh), "High confidence threshold")
	flags.IntVar(&cfg.TrackBuffer, "track-buffer", envInt("TRACK_BUFFER", cfg.TrackBuffer), "Lost frames tolerated before removal")
	flags.Float64Var(&cfg.MatchThresh, "match-thresh", envFloat("MATCH_THRESH", cfg.MatchThresh), "Minimum IoU of a match")
	flags.Float64Var(&cfg.MinBoxArea, "min-box-area", envFloat("MIN_BOX_AREA", cfg.MinBoxArea), "Minimum area of a new track")
	flags.Float64Var(&cfg.FrameRate, "frame-rate", envFloat("FRAME_RATE", cfg.FrameRate), "Frame rate of the recording")
	flags.StringVar(&cfg.Matcher, "matcher", envString("MATCHER", cfg.Matcher), "Assignment strategy: hungarian or greedy")
	flags.BoolVar(&cfg.UsePrediction, "prediction", envBool("PREDICTION", cfg.UsePrediction), "Match against predicted boxes")
	return cmd
}

func profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the built in sport profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(sports.Profiles))
			for name := range sports.Profiles {
				names = append(names, name)
			}
			sort.Strings(names)
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, name := range names {
				if err := enc.Encode(sports.Profiles[name]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

type frameLine struct {
	Timestamp  float64               `json:"timestamp"`
	Sport      string                `json:"sport"`
	Detections []sports.RawDetection `json:"detections"`
}

type sportSummary struct {
	Sport  string                `json:"sport"`
	Stats  sports.LifecycleStats `json:"stats"`
	Trends sports.Trends         `json:"trends"`
}

type replayer struct {
	registry    *sports.Registry
	sport       string
	out         io.Writer
	summaryOnly bool
}

// run processes every line of in and returns the number of frames processed. Lines that are not
// valid JSON are logged and skipped.
func (r *replayer) run(in io.Reader) (int, error) {
	enc := json.NewEncoder(r.out)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	frames, lineNo := 0, 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var line frameLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			logger.Warnw("skipping line", "line", lineNo, "error", err)
			continue
		}
		sport := line.Sport
		if sport == "" {
			sport = r.sport
		}
		session, err := r.registry.Session(sport)
		if err != nil {
			return frames, err
		}
		res, err := session.ProcessFrame(line.Detections, line.Timestamp)
		if err != nil {
			return frames, errors.Wrapf(err, "line %d", lineNo)
		}
		frames++
		if r.summaryOnly {
			continue
		}
		if err := enc.Encode(res); err != nil {
			return frames, err
		}
	}
	return frames, errors.Wrap(scanner.Err(), "read input")
}

func (r *replayer) writeSummaries() error {
	enc := json.NewEncoder(r.out)
	for _, name := range r.registry.Sports() {
		session, ok := r.registry.Lookup(name)
		if !ok {
			continue
		}
		s := sportSummary{Sport: name, Stats: session.Stats(), Trends: session.Trends()}
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	return nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(envString(key, ""), 64)
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(envString(key, ""))
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(envString(key, ""))
	if err != nil {
		return def
	}
	return v
}
