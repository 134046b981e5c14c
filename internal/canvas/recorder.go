package canvas

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/inamate/scenerender/internal/geom"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and replays them on a Canvas2D context.
type DrawCommand struct {
	Op        string    `json:"op"`                  // Canvas2D method or property name
	Args      []float64 `json:"args,omitempty"`      // Numeric arguments in call order
	Text      string    `json:"text,omitempty"`      // Text for fillText, value for string properties
	Style     string    `json:"style,omitempty"`     // Fill or stroke style in effect for paint ops
	Transform []float64 `json:"transform,omitempty"` // [a, b, c, d, e, f] in effect for paint ops
}

type recorderState struct {
	ctm       geom.Matrix2D
	fill      string
	stroke    string
	lineWidth float64
	dash      []float64
	font      Font
	align     TextAlign
	baseline  TextBaseline
	filter    string
}

// Recorder is a Context that records every call as a DrawCommand instead of
// rasterizing. It tracks the current transform so tests and frontends can
// reason about where things land.
type Recorder struct {
	width, height int
	state         recorderState
	stack         []recorderState
	commands      []DrawCommand
}

// NewRecorder creates a recorder for a surface of the given pixel size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		width:  width,
		height: height,
		state: recorderState{
			ctm:       geom.Identity(),
			fill:      "#000000",
			stroke:    "#000000",
			lineWidth: 1,
			font:      SansSerif(10),
			align:     AlignLeft,
			baseline:  BaselineAlphabetic,
		},
	}
}

// Commands returns the recorded commands in painter's order.
func (r *Recorder) Commands() []DrawCommand {
	return r.commands
}

// Reset drops all recorded commands and restores the initial state.
func (r *Recorder) Reset() {
	*r = *NewRecorder(r.width, r.height)
}

// CurrentTransform returns the transform in effect.
func (r *Recorder) CurrentTransform() geom.Matrix2D {
	return r.state.ctm
}

// Depth returns the number of unmatched Save calls.
func (r *Recorder) Depth() int {
	return len(r.stack)
}

// Filter returns the filter in effect.
func (r *Recorder) Filter() string {
	return r.state.filter
}

// ToJSON serializes the recorded commands.
func (r *Recorder) ToJSON() (string, error) {
	data, err := json.Marshal(r.commands)
	if err != nil {
		return "[]", fmt.Errorf("marshal draw commands: %w", err)
	}
	return string(data), nil
}

func (r *Recorder) emit(op string, args ...float64) {
	r.commands = append(r.commands, DrawCommand{Op: op, Args: args})
}

func (r *Recorder) emitText(op, text string) {
	r.commands = append(r.commands, DrawCommand{Op: op, Text: text})
}

func (r *Recorder) paint(op, style string, args ...float64) {
	r.commands = append(r.commands, DrawCommand{
		Op:        op,
		Args:      args,
		Style:     style,
		Transform: r.state.ctm.ToSlice(),
	})
}

func (r *Recorder) Width() int  { return r.width }
func (r *Recorder) Height() int { return r.height }

func (r *Recorder) Save() {
	saved := r.state
	saved.dash = append([]float64(nil), r.state.dash...)
	r.stack = append(r.stack, saved)
	r.emit("save")
}

// Restore pops the state stack. An unmatched Restore is ignored, as in Canvas2D.
func (r *Recorder) Restore() {
	if len(r.stack) == 0 {
		return
	}
	r.state = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	r.emit("restore")
}

func (r *Recorder) SetTransform(a, b, c, d, e, f float64) {
	r.state.ctm = geom.Matrix2D{a, b, c, d, e, f}
	r.emit("setTransform", a, b, c, d, e, f)
}

func (r *Recorder) Scale(x, y float64) {
	r.state.ctm = r.state.ctm.Multiply(geom.Scale(x, y))
	r.emit("scale", x, y)
}

func (r *Recorder) Translate(x, y float64) {
	r.state.ctm = r.state.ctm.Multiply(geom.Translate(x, y))
	r.emit("translate", x, y)
}

func (r *Recorder) Rotate(angle float64) {
	r.state.ctm = r.state.ctm.Multiply(geom.Rotate(angle))
	r.emit("rotate", angle)
}

func (r *Recorder) SetFilter(filter string) bool {
	r.state.filter = filter
	r.emitText("filter", filter)
	return true
}

func (r *Recorder) SetFillStyle(color string) {
	r.state.fill = color
	r.emitText("fillStyle", color)
}

func (r *Recorder) SetStrokeStyle(color string) {
	r.state.stroke = color
	r.emitText("strokeStyle", color)
}

func (r *Recorder) SetLineWidth(width float64) {
	r.state.lineWidth = width
	r.emit("lineWidth", width)
}

func (r *Recorder) SetLineDash(segments []float64) {
	r.state.dash = append([]float64(nil), segments...)
	r.commands = append(r.commands, DrawCommand{Op: "setLineDash", Args: r.state.dash})
}

func (r *Recorder) SetFont(font Font) {
	r.state.font = font
	r.commands = append(r.commands, DrawCommand{Op: "font", Args: []float64{font.Size}, Text: font.Family})
}

func (r *Recorder) SetTextAlign(align TextAlign) {
	r.state.align = align
	r.emitText("textAlign", string(align))
}

func (r *Recorder) SetTextBaseline(baseline TextBaseline) {
	r.state.baseline = baseline
	r.emitText("textBaseline", string(baseline))
}

func (r *Recorder) SetShadow(color string, blur float64) {
	r.commands = append(r.commands, DrawCommand{Op: "shadow", Args: []float64{blur}, Text: color})
}

func (r *Recorder) ClearRect(x, y, w, h float64) {
	r.paint("clearRect", "", x, y, w, h)
}

func (r *Recorder) FillRect(x, y, w, h float64) {
	r.paint("fillRect", r.state.fill, x, y, w, h)
}

func (r *Recorder) BeginPath()          { r.emit("beginPath") }
func (r *Recorder) MoveTo(x, y float64) { r.emit("moveTo", x, y) }
func (r *Recorder) LineTo(x, y float64) { r.emit("lineTo", x, y) }
func (r *Recorder) ClosePath()          { r.emit("closePath") }

func (r *Recorder) BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64) {
	r.emit("bezierCurveTo", c1x, c1y, c2x, c2y, x, y)
}

func (r *Recorder) Rect(x, y, w, h float64) {
	r.emit("rect", x, y, w, h)
}

func (r *Recorder) RoundRect(x, y, w, h, radius float64) {
	r.emit("roundRect", x, y, w, h, radius)
}

func (r *Recorder) Ellipse(cx, cy, rx, ry float64) {
	r.emit("ellipse", cx, cy, rx, ry)
}

func (r *Recorder) Fill()   { r.paint("fill", r.state.fill) }
func (r *Recorder) Stroke() { r.paint("stroke", r.state.stroke, r.state.lineWidth) }
func (r *Recorder) Clip()   { r.paint("clip", "") }

func (r *Recorder) FillText(text string, x, y float64) {
	r.commands = append(r.commands, DrawCommand{
		Op:        "fillText",
		Args:      []float64{x, y, r.state.font.Size},
		Text:      text,
		Style:     r.state.fill,
		Transform: r.state.ctm.ToSlice(),
	})
}

func (r *Recorder) DrawImage(img image.Image, x, y, w, h float64) {
	label := ""
	if img != nil {
		b := img.Bounds()
		label = fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
	}
	r.commands = append(r.commands, DrawCommand{
		Op:        "drawImage",
		Args:      []float64{x, y, w, h},
		Text:      label,
		Transform: r.state.ctm.ToSlice(),
	})
}

func (r *Recorder) NewOffscreen(width, height int) Offscreen {
	return &offscreenRecorder{Recorder: NewRecorder(width, height)}
}

// offscreenRecorder hands out a blank bitmap of its size; its commands stay
// inspectable through the embedded Recorder.
type offscreenRecorder struct {
	*Recorder
}

func (o *offscreenRecorder) Image() image.Image {
	return image.NewRGBA(image.Rect(0, 0, o.width, o.height))
}

// Count returns how many recorded commands have the given op.
func Count(commands []DrawCommand, op string) int {
	n := 0
	for _, c := range commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Select returns the recorded commands with the given op, in order.
func Select(commands []DrawCommand, op string) []DrawCommand {
	var out []DrawCommand
	for _, c := range commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

var (
	_ Context     = (*Recorder)(nil)
	_ RoundRecter = (*Recorder)(nil)
	_ Offscreen   = (*offscreenRecorder)(nil)
)
