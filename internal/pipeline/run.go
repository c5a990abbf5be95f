package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shinji-kodama/cellomold/internal/config"
	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/logging"
	"github.com/shinji-kodama/cellomold/internal/measure"
	"github.com/shinji-kodama/cellomold/internal/model"
	"github.com/shinji-kodama/cellomold/internal/mold"
	"github.com/shinji-kodama/cellomold/internal/preview"
)

// ToolName is recorded in every manifest.
const ToolName = "cellomold"

// moldColor (blue) draws the mold outline in the preview.
const moldColor = 5

// Options configures Run.
type Options struct {
	// Input is the source DXF.
	Input string

	// OutDir receives every intermediate file and the manifest. It is
	// created if missing.
	OutDir string

	// Config supplies tolerances, fabrication constants, body targets and
	// mold parameters. Nil means config.Default().
	Config *config.Config

	// Mold also generates the inner mold from the offset outline.
	Mold bool

	// Preview also renders a PNG of the outlines.
	Preview      bool
	PreviewWidth int

	// Version is recorded in the manifest.
	Version string

	Logger logging.Logger

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// Outputs are the file names Run writes inside OutDir for an input base
// name.
type Outputs struct {
	Flat     string `json:"flat" yaml:"flat"`
	Joined   string `json:"joined" yaml:"joined"`
	Offset   string `json:"offset" yaml:"offset"`
	Mold     string `json:"moldPrefix" yaml:"moldPrefix"`
	Preview  string `json:"preview" yaml:"preview"`
	Manifest string `json:"manifest" yaml:"manifest"`
}

// OutputsFor returns the output paths for input inside outDir.
func OutputsFor(input, outDir string) Outputs {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	at := func(suffix string) string { return filepath.Join(outDir, base+suffix) }
	return Outputs{
		Flat:     at("_flat.dxf"),
		Joined:   at("_joined.dxf"),
		Offset:   at("_offset.dxf"),
		Mold:     at("_mold"),
		Preview:  at("_preview.png"),
		Manifest: filepath.Join(outDir, ManifestName),
	}
}

// runner carries the state shared by the steps of one run.
type runner struct {
	opts Options
	cfg  *config.Config
	out  Outputs
	lggr logging.Logger
	m    *Manifest
}

// Run executes flatten, join, offset and validate on opts.Input, then
// measure, and optionally mold and preview. Context cancellation is
// checked before every step. The manifest is written even when a step
// fails; the returned error is the step's error.
func Run(ctx context.Context, opts Options) (*Manifest, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	r := &runner{
		opts: opts,
		cfg:  cfg,
		out:  OutputsFor(opts.Input, opts.OutDir),
		lggr: opts.Logger.Named("pipeline"),
		m: &Manifest{
			RunID:       uuid.NewString(),
			Tool:        ToolName,
			Version:     opts.Version,
			StartedAt:   opts.Now().UTC(),
			Input:       opts.Input,
			Config:      cfg.Path,
			Fabrication: cfg.Fabrication,
		},
	}
	if r.m.Config == "" {
		r.m.Config = "defaults"
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", opts.OutDir, err)
	}

	runErr := r.run(ctx)
	if runErr != nil {
		r.m.Error = runErr.Error()
		r.lggr.Errorw("run failed", "runId", r.m.RunID, "error", runErr)
	}
	r.m.FinishedAt = opts.Now().UTC()

	if err := WriteManifest(r.out.Manifest, r.m); err != nil {
		if runErr != nil {
			return r.m, runErr
		}
		return r.m, err
	}
	r.lggr.Infow("manifest written", "path", r.out.Manifest)
	return r.m, runErr
}

func (r *runner) run(ctx context.Context) error {
	cfg := r.cfg
	r.lggr.Infow("run started", "runId", r.m.RunID, "input", r.opts.Input)

	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := dxf.ReadFile(r.opts.Input)
	if err != nil {
		return err
	}
	r.m.addStep("inspect", "", Inspect(src))

	if err := ctx.Err(); err != nil {
		return err
	}
	flat, fst, err := Flatten(src, cfg.FlattenTolMM)
	if err != nil {
		return fmt.Errorf("flatten: %w", err)
	}
	if err := dxf.WriteFile(r.out.Flat, flat); err != nil {
		return err
	}
	r.m.addStep("flatten", r.out.Flat, fst)
	r.lggr.Infow("flattened", "entities", fst.Flattened, "skipped", fst.Skipped, "unsupported", fst.Unsupported)

	if err := ctx.Err(); err != nil {
		return err
	}
	joined, jst, err := Join(flat, cfg.FlattenTolMM, cfg.JoinTolMM)
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	if jst.Leftover > 0 {
		r.lggr.Warnw("discontinuity: segments left over after joining", "leftover", jst.Leftover)
	}
	if err := dxf.WriteFile(r.out.Joined, joined); err != nil {
		return err
	}
	r.m.addStep("join", r.out.Joined, jst)
	r.lggr.Infow("joined", "segments", jst.Used, "points", jst.Points)

	if err := ctx.Err(); err != nil {
		return err
	}
	offset, inner, ost, err := Offset(joined, cfg.Fabrication.MoldOffsetMM, cfg.FlattenTolMM, cfg.JoinTolMM)
	if err != nil {
		return fmt.Errorf("offset: %w", err)
	}
	if err := dxf.WriteFile(r.out.Offset, offset); err != nil {
		return err
	}
	r.m.addStep("offset", r.out.Offset, ost)
	r.lggr.Infow("offset", "distanceMm", ost.DistanceMM, "points", ost.Points)

	if err := ctx.Err(); err != nil {
		return err
	}
	source, _, err := JoinOutline(joined, cfg.FlattenTolMM, cfg.JoinTolMM)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	v := Validate(inner, true, source, cfg.Fabrication.MoldOffsetMM, cfg.JoinTolMM)
	r.m.Validation = v
	if err := v.Err(); err != nil {
		return err
	}
	r.m.addStep("validate", "", nil)
	r.lggr.Infow("validated", "medianOffsetMm", v.Offset.Distance.Median)

	if err := ctx.Err(); err != nil {
		return err
	}
	rep, err := measure.Measure(source, "", cfg.Targets)
	if err != nil {
		return fmt.Errorf("measure: %w", err)
	}
	r.m.Measure = rep
	r.m.addStep("measure", "", nil)
	for _, d := range rep.Dimensions() {
		if !d.Pass {
			r.lggr.Warnw("dimension out of range", "name", d.Name,
				"measuredMm", d.MeasuredMM, "targetMm", d.TargetMM, "deltaMm", d.DeltaMM)
		}
	}

	var res *mold.Result
	if r.opts.Mold {
		if err := ctx.Err(); err != nil {
			return err
		}
		if res, err = r.mold(inner, rep); err != nil {
			return fmt.Errorf("mold: %w", err)
		}
	}

	if r.opts.Preview {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.preview(source, inner, res); err != nil {
			return fmt.Errorf("preview: %w", err)
		}
	}
	return nil
}

// mold cuts the mold along the measured body axis. The drawing is not
// reoriented here, so when the neck sits at the negative end the neck and
// end flats trade places.
func (r *runner) mold(inner []model.Point, rep *measure.Report) (*mold.Result, error) {
	params := r.cfg.Mold
	if params.Axis != rep.Axis {
		r.lggr.Debugw("using measured body axis for the mold", "configured", params.Axis, "measured", rep.Axis)
		params.Axis = rep.Axis
	}
	if !rep.NeckAtMax {
		params.NeckFlatMM, params.EndFlatMM = params.EndFlatMM, params.NeckFlatMM
	}
	res, err := mold.Generate(inner, params)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		r.lggr.Warn(w)
	}
	files, err := mold.WriteFiles(r.out.Mold, res)
	if err != nil {
		return nil, err
	}
	r.m.Mold = &MoldRecord{
		Files:    files,
		Params:   params,
		Corners:  len(res.Corners),
		Pins:     res.Pins,
		Bounds:   res.Source,
		Warnings: res.Warnings,
	}
	r.m.addStep("mold", files.Full, nil)
	r.lggr.Infow("mold written", "full", files.Full, "pins", len(res.Pins))
	return res, nil
}

func (r *runner) preview(source, inner []model.Point, res *mold.Result) error {
	polys := []model.Polyline{
		{Points: source, Closed: true, Color: SourceColor},
		{Points: inner, Closed: true, Color: OffsetColor},
	}
	var pins []model.Circle
	if res != nil {
		polys = append(polys, model.Polyline{Points: res.Outline, Closed: true, Color: moldColor})
		pins = res.Pins
	}

	opt := preview.DefaultOptions()
	if r.opts.PreviewWidth > 0 {
		opt.WidthPx = r.opts.PreviewWidth
	}
	img, err := preview.Render(polys, pins, opt)
	if err != nil {
		return err
	}
	if err := preview.WritePNG(r.out.Preview, img); err != nil {
		return err
	}
	r.m.Preview = r.out.Preview
	r.m.addStep("preview", r.out.Preview, nil)
	return nil
}
