package session

import(
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/abworrall/rawstack/pkg/rawio"
	"github.com/abworrall/rawstack/pkg/reduce"
)

// A Session stacks a range of files from one directory into a single image,
// writing checkpoints along the way.
type Session struct {
	Config

	Decoder      rawio.Decoder
	Encoder      rawio.Encoder
	ReadExposure func(filename string) (rawio.Exposure, error)

	log          *zap.Logger
}

// Summary describes what a Run did.
type Summary struct {
	InRange     int      // files selected by the start/end range
	Folded      int      // files decoded and folded into the stack
	Failed      int      // files skipped because they could not be used
	Checkpoints []string
	Output      string   // the final image; empty if nothing was folded
}

func (sum Summary)String() string {
	return fmt.Sprintf("%d/%d frames stacked (%d failed), %d checkpoints, output '%s'",
		sum.Folded, sum.InRange, sum.Failed, len(sum.Checkpoints), sum.Output)
}

func New(cfg Config, logger *zap.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.OptionsTable()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		Config:       cfg,
		Decoder:      rawio.NewAutoDecoder(cfg.Dcraw, opts),
		Encoder:      rawio.FileEncoder{},
		ReadExposure: rawio.ReadExposure,
		log:          logger,
	}, nil
}

// Files returns the sorted, eligible files in the configured range.
func (s *Session)Files() ([]string, error) {
	all, err := Discover(s.InputDir)
	if err != nil {
		return nil, err
	}
	return SelectRange(all, s.Start, s.End)
}

// Run does the stacking. Fatal problems (bad mode, missing directory or range
// endpoints) come back as errors before any file is decoded. A file that
// can't be decoded is logged and skipped.
func (s *Session)Run(ctx context.Context) (Summary, error) {
	mode, err := reduce.ParseMode(s.Mode)
	if err != nil {
		return Summary{}, err
	}
	r, err := reduce.New(mode)
	if err != nil {
		return Summary{}, err
	}

	files, err := s.Files()
	if err != nil {
		return Summary{}, err
	}

	st := &stackRun{Session: s, r: r, sum: Summary{InRange: len(files)}}
	s.log.Info("stacking",
		zap.String("mode", string(mode)),
		zap.Int("files", len(files)),
		zap.String("start", s.Start),
		zap.String("end", s.End))

	for i, filename := range files {
		if err := ctx.Err(); err != nil {
			s.log.Warn("stacking cancelled", zap.Int("done", i), zap.Int("files", len(files)))
			return st.sum, err
		}

		n := i+1
		if err := st.fold(ctx, filename, n, len(files)); err != nil {
			s.log.Warn("stacking cancelled", zap.Int("done", i), zap.Int("files", len(files)))
			return st.sum, err
		}

		if n % s.SaveInterval == 0 {
			st.checkpoint(CheckpointPath(s.Output, n))
		}
	}

	if r.Count() == 0 {
		s.log.Warn("no frames could be stacked; not writing output", zap.Int("failed", st.sum.Failed))
		return st.sum, nil
	}
	if err := st.save(s.Output); err != nil {
		return st.sum, err
	}
	st.sum.Output = s.Output
	s.log.Info("saved final result", zap.String("path", s.Output), zap.Int("frames", r.Count()))

	return st.sum, nil
}

// stackRun is the state of one Run.
type stackRun struct {
	*Session
	r           *reduce.Reducer
	sum         Summary
	refExposure *rawio.Exposure // from the first frame folded
}

// fold only returns an error if ctx was cancelled while decoding; any other
// problem with the file is logged and counted as a failure.
func (st *stackRun)fold(ctx context.Context, filename string, n, total int) error {
	name := filepath.Base(filename)
	brand, _ := rawio.BrandForFile(filename)

	img, err := st.Decoder.Decode(ctx, filename, brand)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		st.sum.Failed++
		st.log.Error("decode failed", zap.String("file", name), zap.Int("n", n), zap.Error(err))
		return nil
	}

	if err := st.r.Update(img); err != nil {
		st.sum.Failed++
		st.log.Error("frame rejected", zap.String("file", name), zap.Int("n", n), zap.Error(err))
		return nil
	}

	st.sum.Folded++
	st.log.Info("frame stacked",
		zap.String("file", name),
		zap.String("brand", string(brand)),
		zap.Int("n", n),
		zap.Int("of", total))

	st.checkExposure(filename)
	return nil
}

// checkExposure warns about frames that were shot with different settings to
// the first one. Not every file has EXIF data, so failures are only debug.
func (st *stackRun)checkExposure(filename string) {
	if st.ReadExposure == nil {
		return
	}

	e, err := st.ReadExposure(filename)
	if err != nil {
		st.log.Debug("no exposure info", zap.String("file", filepath.Base(filename)), zap.Error(err))
		return
	}
	st.log.Debug("exposure", zap.String("file", filepath.Base(filename)), zap.Stringer("exposure", e))

	if st.refExposure == nil {
		st.refExposure = &e
	} else if e.Differs(*st.refExposure, st.ExposureTolerance) {
		st.log.Warn("exposure differs from first frame",
			zap.String("file", filepath.Base(filename)),
			zap.Float64("ev", e.EV),
			zap.Float64("first_ev", st.refExposure.EV))
	}
}

// checkpoint failures are not fatal; the next checkpoint or the final save
// may still work.
func (st *stackRun)checkpoint(filename string) {
	if st.r.Count() == 0 {
		st.log.Debug("nothing stacked yet; skipping checkpoint", zap.String("path", filename))
		return
	}
	if err := st.save(filename); err != nil {
		st.log.Error("checkpoint failed", zap.String("path", filename), zap.Error(err))
		return
	}
	st.sum.Checkpoints = append(st.sum.Checkpoints, filename)
	st.log.Info("saved checkpoint", zap.String("path", filename), zap.Int("frames", st.r.Count()))
}

func (st *stackRun)save(filename string) error {
	res, ok := st.r.Snapshot()
	if !ok {
		return fmt.Errorf("save '%s': nothing stacked", filename)
	}
	img, err := res.Image()
	if err != nil {
		return fmt.Errorf("save '%s': %v", filename, err)
	}
	if err := st.Encoder.Encode(img, filename); err != nil {
		return err
	}

	if st.Preview {
		title := fmt.Sprintf("%s of %d frames", st.r.Mode(), res.Count)
		if err := rawio.WritePreview(img, title, PreviewPath(filename)); err != nil {
			st.log.Warn("preview failed", zap.String("path", PreviewPath(filename)), zap.Error(err))
		}
	}
	return nil
}

// CheckpointPath puts a _temp_<n> marker before the extension of the output
// path: out.tiff becomes out_temp_10.tiff.
func CheckpointPath(output string, n int) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + fmt.Sprintf("_temp_%d", n) + ext
}

func PreviewPath(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".preview.png"
}
