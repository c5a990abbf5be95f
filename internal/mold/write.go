package mold

import (
	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// Files are the paths written by WriteFiles.
type Files struct {
	Full  string `json:"full" yaml:"full"`
	HalfA string `json:"halfA" yaml:"halfA"`
	HalfB string `json:"halfB" yaml:"halfB"`
}

// FilesFor returns the output paths for a prefix:
// <prefix>_full.dxf, <prefix>_halfA.dxf and <prefix>_halfB.dxf.
func FilesFor(prefix string) Files {
	return Files{
		Full:  prefix + "_full.dxf",
		HalfA: prefix + "_halfA.dxf",
		HalfB: prefix + "_halfB.dxf",
	}
}

// Drawing returns a DXF drawing with outline on layer CUT and every pin on
// layer PINS. Each half carries all pins; the ones on the split line are
// drilled through both halves.
func Drawing(outline []model.Point, pins []model.Circle) *dxf.Drawing {
	d := dxf.NewDrawing()
	d.AddPolyline(model.Polyline{Points: outline, Closed: true, Layer: LayerCut})
	for _, c := range pins {
		c.Layer = LayerPins
		d.AddCircle(c)
	}
	return d
}

// WriteFiles writes the full mold and both halves next to prefix.
func WriteFiles(prefix string, res *Result) (Files, error) {
	files := FilesFor(prefix)
	outputs := []struct {
		path    string
		outline []model.Point
	}{
		{files.Full, res.Outline},
		{files.HalfA, res.HalfA},
		{files.HalfB, res.HalfB},
	}
	for _, o := range outputs {
		if err := dxf.WriteFile(o.path, Drawing(o.outline, res.Pins)); err != nil {
			return Files{}, err
		}
	}
	return files, nil
}
