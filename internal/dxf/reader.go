package dxf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/shinji-kodama/cellomold/internal/model"
)

// ErrBinaryDXF is returned when the input is a binary DXF file.
var ErrBinaryDXF = errors.New("binary DXF is not supported; save the drawing as ASCII DXF")

// binarySentinel starts every binary DXF file.
const binarySentinel = "AutoCAD Binary DXF"

// vertexSplineFrame marks a VERTEX as a spline frame control point. Those
// vertices describe the spline's control polygon, not the curve itself.
const vertexSplineFrame = 16

// ParseError reports a malformed DXF file together with the line number
// (1-based) where the problem was detected.
type ParseError struct {
	// Line is the 1-based line number of the offending group.
	Line int

	// Msg describes what is wrong.
	Msg string

	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dxf line %d: %s: %v", e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("dxf line %d: %s", e.Line, e.Msg)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// group is one (code, value) pair. line is the line of the value.
type group struct {
	code  int
	value string
	line  int
}

// ReadFile opens and parses the DXF file at path.
func ReadFile(path string) (*Drawing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return d, nil
}

// Read parses an ASCII DXF stream.
//
// A file without an ENTITIES section yields an empty drawing rather than an
// error: LibreCAD happily saves such files and the caller decides whether
// an empty drawing is a problem.
func Read(r io.Reader) (*Drawing, error) {
	groups, err := readGroups(r)
	if err != nil {
		return nil, err
	}

	p := &parser{drawing: &Drawing{}}
	for _, g := range groups {
		done, err := p.feed(g)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	p.flushAll()
	return p.drawing, nil
}

// readGroups splits the stream into code/value pairs.
func readGroups(r io.Reader) ([]group, error) {
	sc := bufio.NewScanner(r)
	// Some exporters write very long MTEXT values on a single line.
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var groups []group
	lineNo := 0
	for sc.Scan() {
		lineNo++
		codeLine := strings.TrimSpace(sc.Text())
		if lineNo == 1 {
			codeLine = strings.TrimPrefix(codeLine, "\ufeff")
			if strings.HasPrefix(codeLine, binarySentinel) {
				return nil, ErrBinaryDXF
			}
		}

		if !sc.Scan() {
			// A lone trailing blank line is harmless; anything else means
			// the file was truncated between a code and its value.
			if codeLine == "" {
				break
			}
			return nil, &ParseError{Line: lineNo, Msg: "group code without value"}
		}
		lineNo++

		code, err := strconv.Atoi(codeLine)
		if err != nil {
			return nil, &ParseError{Line: lineNo - 1, Msg: fmt.Sprintf("invalid group code %q", codeLine), Err: err}
		}
		// Values keep inner whitespace (layer names may contain spaces),
		// only the line ending and padding are removed.
		value := strings.TrimRight(sc.Text(), "\r")
		groups = append(groups, group{code: code, value: value, line: lineNo})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// parser is the ENTITIES/HEADER state machine.
type parser struct {
	drawing *Drawing

	// section is the name of the current SECTION ("" between sections).
	section string

	// expectSectionName is set right after "0/SECTION".
	expectSectionName bool

	// headerVar is the current $VARIABLE inside the HEADER section.
	headerVar string

	// cur is the entity whose groups are being collected.
	cur *Entity

	// curFlags holds group 70 of a VERTEX, which is consumed on flush.
	curFlags int

	// poly is an open POLYLINE waiting for its VERTEX list and SEQEND.
	poly *Entity
}

// feed processes one group. It returns true when EOF was reached.
func (p *parser) feed(g group) (bool, error) {
	if p.expectSectionName {
		p.expectSectionName = false
		if g.code == 2 {
			p.section = strings.TrimSpace(g.value)
			return false, nil
		}
	}

	if g.code == 0 {
		value := strings.TrimSpace(g.value)
		switch value {
		case "SECTION":
			p.flushAll()
			p.expectSectionName = true
			return false, nil
		case "ENDSEC":
			p.flushAll()
			p.section = ""
			return false, nil
		case "EOF":
			p.flushAll()
			return true, nil
		}
		if p.section == "ENTITIES" {
			p.startEntity(value)
		}
		return false, nil
	}

	switch p.section {
	case "HEADER":
		return false, p.feedHeader(g)
	case "ENTITIES":
		if p.cur != nil {
			return false, p.apply(g)
		}
	}
	return false, nil
}

// feedHeader picks up the header variables the tool uses.
func (p *parser) feedHeader(g group) error {
	if g.code == 9 {
		p.headerVar = strings.TrimSpace(g.value)
		return nil
	}
	switch p.headerVar {
	case "$ACADVER":
		if g.code == 1 {
			p.drawing.Version = strings.TrimSpace(g.value)
		}
	case "$INSUNITS":
		if g.code == 70 {
			units, err := parseInt(g)
			if err != nil {
				return err
			}
			p.drawing.Units = units
		}
	}
	return nil
}

// startEntity finishes the current entity and begins the next one.
func (p *parser) startEntity(typ string) {
	p.flushCurrent()

	switch typ {
	case "VERTEX":
		if p.poly == nil {
			// Stray vertex outside a POLYLINE: ignore its groups.
			p.cur = nil
			return
		}
		p.cur = newEntity("VERTEX")
		p.curFlags = 0
		return
	case "SEQEND":
		p.flushPolyline()
		p.cur = nil
		return
	}

	// Any other entity terminates a POLYLINE that lacks its SEQEND.
	p.flushPolyline()

	e := newEntity(typ)
	if typ == TypeEllipse {
		e.Ratio = 1
		e.EndParam = 2 * math.Pi
	}
	if typ == TypePolyline {
		p.poly = e
	}
	p.cur = e
}

// flushCurrent stores the entity under construction.
func (p *parser) flushCurrent() {
	e := p.cur
	p.cur = nil
	if e == nil {
		return
	}

	switch e.Type {
	case TypePolyline:
		// Appended on SEQEND, once its vertices are known.
	case "VERTEX":
		if p.poly != nil && len(e.Vertices) == 1 && p.curFlags&vertexSplineFrame == 0 {
			p.poly.Vertices = append(p.poly.Vertices, e.Vertices[0])
		}
	default:
		p.drawing.Entities = append(p.drawing.Entities, *e)
	}
}

// flushPolyline stores an open POLYLINE.
func (p *parser) flushPolyline() {
	if p.poly == nil {
		return
	}
	p.drawing.Entities = append(p.drawing.Entities, *p.poly)
	p.poly = nil
}

// flushAll closes everything that is still open.
func (p *parser) flushAll() {
	p.flushCurrent()
	p.flushPolyline()
}

// apply assigns one group to the current entity.
func (p *parser) apply(g group) error {
	e := p.cur

	// Groups shared by all entity types.
	switch g.code {
	case 5:
		e.Handle = strings.TrimSpace(g.value)
		return nil
	case 8:
		e.Layer = strings.TrimSpace(g.value)
		return nil
	case 62:
		c, err := parseInt(g)
		if err != nil {
			return err
		}
		e.Color = c
		return nil
	case 210, 220, 230:
		v, err := parseFloat(g)
		if err != nil {
			return err
		}
		e.Extrusion[(g.code-210)/10] = v
		return nil
	}

	switch e.Type {
	case TypeLine:
		return applyLine(e, g)
	case TypeArc, TypeCircle:
		return applyArc(e, g)
	case TypeLWPolyline:
		return applyLWPolyline(e, g)
	case TypePolyline:
		if g.code == 70 {
			flags, err := parseInt(g)
			if err != nil {
				return err
			}
			e.Closed = flags&1 != 0
		}
		return nil
	case "VERTEX":
		return p.applyVertex(g)
	case TypeSpline:
		return applySpline(e, g)
	case TypeEllipse:
		return applyEllipse(e, g)
	}
	return nil
}

func applyLine(e *Entity, g group) error {
	var target *float64
	switch g.code {
	case 10:
		target = &e.Start.X
	case 20:
		target = &e.Start.Y
	case 11:
		target = &e.End.X
	case 21:
		target = &e.End.Y
	default:
		return nil
	}
	return setFloat(target, g)
}

func applyArc(e *Entity, g group) error {
	var target *float64
	switch g.code {
	case 10:
		target = &e.Center.X
	case 20:
		target = &e.Center.Y
	case 40:
		target = &e.Radius
	case 50:
		target = &e.StartAngle
	case 51:
		target = &e.EndAngle
	default:
		return nil
	}
	return setFloat(target, g)
}

func applyLWPolyline(e *Entity, g group) error {
	switch g.code {
	case 70:
		flags, err := parseInt(g)
		if err != nil {
			return err
		}
		e.Closed = flags&1 != 0
	case 10:
		x, err := parseFloat(g)
		if err != nil {
			return err
		}
		e.Vertices = append(e.Vertices, Vertex{X: x})
	case 20, 42:
		if len(e.Vertices) == 0 {
			return &ParseError{Line: g.line, Msg: fmt.Sprintf("LWPOLYLINE group %d before first vertex", g.code)}
		}
		last := &e.Vertices[len(e.Vertices)-1]
		if g.code == 20 {
			return setFloat(&last.Y, g)
		}
		return setFloat(&last.Bulge, g)
	}
	return nil
}

func (p *parser) applyVertex(g group) error {
	e := p.cur
	if len(e.Vertices) == 0 {
		e.Vertices = []Vertex{{}}
	}
	v := &e.Vertices[0]
	switch g.code {
	case 10:
		return setFloat(&v.X, g)
	case 20:
		return setFloat(&v.Y, g)
	case 42:
		return setFloat(&v.Bulge, g)
	case 70:
		flags, err := parseInt(g)
		if err != nil {
			return err
		}
		p.curFlags = flags
	}
	return nil
}

func applySpline(e *Entity, g group) error {
	switch g.code {
	case 70:
		flags, err := parseInt(g)
		if err != nil {
			return err
		}
		e.Closed = flags&1 != 0
	case 71:
		deg, err := parseInt(g)
		if err != nil {
			return err
		}
		e.Degree = deg
	case 40, 41:
		v, err := parseFloat(g)
		if err != nil {
			return err
		}
		if g.code == 40 {
			e.Knots = append(e.Knots, v)
		} else {
			e.Weights = append(e.Weights, v)
		}
	case 10, 11:
		x, err := parseFloat(g)
		if err != nil {
			return err
		}
		if g.code == 10 {
			e.ControlPoints = append(e.ControlPoints, model.Point{X: x})
		} else {
			e.FitPoints = append(e.FitPoints, model.Point{X: x})
		}
	case 20, 21:
		pts := &e.ControlPoints
		if g.code == 21 {
			pts = &e.FitPoints
		}
		if len(*pts) == 0 {
			return &ParseError{Line: g.line, Msg: fmt.Sprintf("SPLINE group %d before its X coordinate", g.code)}
		}
		return setFloat(&(*pts)[len(*pts)-1].Y, g)
	}
	return nil
}

func applyEllipse(e *Entity, g group) error {
	var target *float64
	switch g.code {
	case 10:
		target = &e.Center.X
	case 20:
		target = &e.Center.Y
	case 11:
		target = &e.MajorAxis.X
	case 21:
		target = &e.MajorAxis.Y
	case 40:
		target = &e.Ratio
	case 41:
		target = &e.StartParam
	case 42:
		target = &e.EndParam
	default:
		return nil
	}
	return setFloat(target, g)
}

func setFloat(target *float64, g group) error {
	v, err := parseFloat(g)
	if err != nil {
		return err
	}
	*target = v
	return nil
}

func parseFloat(g group) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(g.value), 64)
	if err != nil {
		return 0, &ParseError{Line: g.line, Msg: fmt.Sprintf("invalid number for group %d", g.code), Err: err}
	}
	return v, nil
}

func parseInt(g group) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(g.value))
	if err != nil {
		return 0, &ParseError{Line: g.line, Msg: fmt.Sprintf("invalid integer for group %d", g.code), Err: err}
	}
	return v, nil
}
