package main

import(
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abworrall/rawstack/pkg/reduce"
	"github.com/abworrall/rawstack/pkg/session"
)

var(
	fConfigFile   string
	fVerbosity    int
	fInputDir     string
	fStart        string
	fEnd          string
	fOutput       string
	fSaveInterval int
	fMode         string
	fDcraw        string
	fPreview      bool
)

func init() {
	flag.StringVar(&fConfigFile, "config", "", "optional YAML config file; flags override it")
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")

	flag.StringVar(&fInputDir, "i", "", "input directory of RAW files (required)")
	flag.StringVar(&fStart, "start", "", "filename of the first frame to stack (required)")
	flag.StringVar(&fEnd, "end", "", "filename of the last frame to stack (required)")
	flag.StringVar(&fOutput, "o", session.DefaultOutput, "name of output image file (.tiff or .png)")
	flag.IntVar(&fSaveInterval, "s", session.DefaultSaveInterval, "write a checkpoint image every this many frames")
	flag.StringVar(&fMode, "mode", string(reduce.Mean), "how to combine the frames: "+reduce.ListModes())
	flag.StringVar(&fDcraw, "dcraw", "", "path to the dcraw binary (default: look in $PATH)")
	flag.BoolVar(&fPreview, "preview", false, "also write an annotated 8-bit PNG preview of each saved image")
}

func newLogger(verbosity int) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbosity > 0 {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// loadConfig starts from the config file (if any), then applies any flags
// that were set explicitly.
func loadConfig() (session.Config, error) {
	cfg := session.NewConfig()
	if fConfigFile != "" {
		var err error
		if cfg, err = session.LoadConfig(fConfigFile); err != nil {
			return cfg, err
		}
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["v"]       || fConfigFile == "" { cfg.Verbosity = fVerbosity }
	if set["i"]       || fConfigFile == "" { cfg.InputDir = fInputDir }
	if set["start"]   || fConfigFile == "" { cfg.Start = fStart }
	if set["end"]     || fConfigFile == "" { cfg.End = fEnd }
	if set["o"]       || fConfigFile == "" { cfg.Output = fOutput }
	if set["s"]       || fConfigFile == "" { cfg.SaveInterval = fSaveInterval }
	if set["mode"]    || fConfigFile == "" { cfg.Mode = fMode }
	if set["dcraw"]   || fConfigFile == "" { cfg.Dcraw = fDcraw }
	if set["preview"] || fConfigFile == "" { cfg.Preview = fPreview }

	return cfg, nil
}

func main() {
	flag.Parse()
	os.Exit(run())
}

// run returns the process exit status, so that deferred cleanup happens
// before main exits.
func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rawstack: %v\n", err)
		return 1
	}

	log, err := newLogger(cfg.Verbosity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rawstack: logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	log.Info("rawstack starting")
	if cfg.Verbosity > 0 {
		log.Debug("final configuration:-\n\n" + cfg.AsYaml())
	}

	s, err := session.New(cfg, log)
	if err != nil {
		log.Error("bad configuration", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sum, err := s.Run(ctx)
	if err != nil {
		log.Error("stacking failed", zap.Error(err), zap.Stringer("summary", sum))
		return 1
	}

	log.Info("done", zap.Stringer("summary", sum))
	return 0
}
