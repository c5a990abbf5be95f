package dxf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Fixed handles for the table objects; entity handles start after them.
const (
	handleLTypeTable  = 0x10
	handleLayerTable  = 0x20
	firstEntityHandle = 0x100
)

// lineTypes are the linetype records every R2000 file carries. Layers
// refer to CONTINUOUS.
var lineTypes = []struct {
	name, description string
}{
	{"ByBlock", ""},
	{"ByLayer", ""},
	{"CONTINUOUS", "Solid line"},
}

// groupWriter emits code/value pairs and remembers the first error.
type groupWriter struct {
	w   *bufio.Writer
	err error
}

func (g *groupWriter) str(code int, value string) {
	if g.err != nil {
		return
	}
	_, g.err = fmt.Fprintf(g.w, "%3d\n%s\n", code, value)
}

func (g *groupWriter) integer(code, value int) {
	g.str(code, strconv.Itoa(value))
}

func (g *groupWriter) number(code int, value float64) {
	g.str(code, formatFloat(value))
}

func (g *groupWriter) handle(code, value int) {
	g.str(code, strings.ToUpper(strconv.FormatInt(int64(value), 16)))
}

// formatFloat writes the shortest exact decimal, never in exponent form,
// since some CAM importers reject "1e-05".
func formatFloat(v float64) string {
	if v == 0 {
		return "0.0"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// WriteFile writes the drawing to path as DXF R2000, creating parent
// directories as needed.
func WriteFile(path string, d *Drawing) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, d); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Write serializes the drawing as DXF R2000 in millimetres regardless of
// the Version/Units the drawing was read with.
//
// Only LINE, ARC, CIRCLE and LWPOLYLINE entities are written. Any other
// entity type is an error: silently dropping geometry from a cut file is
// worse than refusing to write it.
func Write(w io.Writer, d *Drawing) error {
	for i := range d.Entities {
		switch d.Entities[i].Type {
		case TypeLine, TypeArc, TypeCircle, TypeLWPolyline:
		default:
			return fmt.Errorf("cannot write %s entity (only LINE, ARC, CIRCLE, LWPOLYLINE)", d.Entities[i].Type)
		}
	}

	g := &groupWriter{w: bufio.NewWriter(w)}
	handle := firstEntityHandle

	writeHeader(g, firstEntityHandle+len(d.Entities))
	writeTables(g, layerNames(d))

	g.str(0, "SECTION")
	g.str(2, "ENTITIES")
	for i := range d.Entities {
		writeEntity(g, &d.Entities[i], handle)
		handle++
	}
	g.str(0, "ENDSEC")
	g.str(0, "EOF")

	if g.err != nil {
		return g.err
	}
	return g.w.Flush()
}

func writeHeader(g *groupWriter, handSeed int) {
	g.str(0, "SECTION")
	g.str(2, "HEADER")
	g.str(9, "$ACADVER")
	g.str(1, VersionR2000)
	g.str(9, "$INSUNITS")
	g.integer(70, UnitsMillimeter)
	g.str(9, "$MEASUREMENT")
	g.integer(70, 1)
	g.str(9, "$HANDSEED")
	g.handle(5, handSeed)
	g.str(0, "ENDSEC")
}

// writeTables writes the LTYPE table and a LAYER table containing every
// layer in use.
func writeTables(g *groupWriter, layers []string) {
	g.str(0, "SECTION")
	g.str(2, "TABLES")

	g.str(0, "TABLE")
	g.str(2, "LTYPE")
	g.handle(5, handleLTypeTable)
	g.str(100, "AcDbSymbolTable")
	g.integer(70, len(lineTypes))
	for i, lt := range lineTypes {
		g.str(0, "LTYPE")
		g.handle(5, handleLTypeTable+1+i)
		g.handle(330, handleLTypeTable)
		g.str(100, "AcDbSymbolTableRecord")
		g.str(100, "AcDbLinetypeTableRecord")
		g.str(2, lt.name)
		g.integer(70, 0)
		g.str(3, lt.description)
		g.integer(72, 65)
		g.integer(73, 0)
		g.number(40, 0)
	}
	g.str(0, "ENDTAB")

	g.str(0, "TABLE")
	g.str(2, "LAYER")
	g.handle(5, handleLayerTable)
	g.str(100, "AcDbSymbolTable")
	g.integer(70, len(layers))
	for i, name := range layers {
		g.str(0, "LAYER")
		g.handle(5, handleLayerTable+1+i)
		g.handle(330, handleLayerTable)
		g.str(100, "AcDbSymbolTableRecord")
		g.str(100, "AcDbLayerTableRecord")
		g.str(2, name)
		g.integer(70, 0)
		g.integer(62, 7)
		g.str(6, "CONTINUOUS")
	}
	g.str(0, "ENDTAB")
	g.str(0, "ENDSEC")
}

// layerNames returns "0" plus every layer used by an entity, sorted.
func layerNames(d *Drawing) []string {
	seen := map[string]bool{"0": true}
	for _, e := range d.Entities {
		if e.Layer != "" {
			seen[e.Layer] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeEntity(g *groupWriter, e *Entity, handle int) {
	layer := e.Layer
	if layer == "" {
		layer = "0"
	}

	g.str(0, e.Type)
	g.handle(5, handle)
	g.str(100, "AcDbEntity")
	g.str(8, layer)
	if e.Color != 0 && e.Color != 256 {
		g.integer(62, e.Color)
	}

	switch e.Type {
	case TypeLine:
		g.str(100, "AcDbLine")
		g.number(10, e.Start.X)
		g.number(20, e.Start.Y)
		g.number(30, 0)
		g.number(11, e.End.X)
		g.number(21, e.End.Y)
		g.number(31, 0)
	case TypeCircle, TypeArc:
		g.str(100, "AcDbCircle")
		g.number(10, e.Center.X)
		g.number(20, e.Center.Y)
		g.number(30, 0)
		g.number(40, e.Radius)
		if e.Type == TypeArc {
			g.str(100, "AcDbArc")
			g.number(50, e.StartAngle)
			g.number(51, e.EndAngle)
		}
	case TypeLWPolyline:
		flags := 0
		if e.Closed {
			flags = 1
		}
		g.str(100, "AcDbPolyline")
		g.integer(90, len(e.Vertices))
		g.integer(70, flags)
		g.number(43, 0)
		for _, v := range e.Vertices {
			g.number(10, v.X)
			g.number(20, v.Y)
			if v.Bulge != 0 {
				g.number(42, v.Bulge)
			}
		}
	}
	writeExtrusion(g, e)
}

// writeExtrusion only emits the extrusion when it differs from +Z.
func writeExtrusion(g *groupWriter, e *Entity) {
	if e.Extrusion == [3]float64{0, 0, 1} || e.Extrusion == [3]float64{} {
		return
	}
	g.number(210, e.Extrusion[0])
	g.number(220, e.Extrusion[1])
	g.number(230, e.Extrusion[2])
}
