package paint

import (
	"math"

	"github.com/inamate/scenerender/internal/canvas"
	"github.com/inamate/scenerender/internal/geom"
)

// PathCommand is one path segment: "M"/"L" take x, y; "C" takes two control
// points and an end point; "Z" closes the subpath.
type PathCommand struct {
	Op   string
	Args []float64
}

func moveTo(x, y float64) PathCommand { return PathCommand{"M", []float64{x, y}} }
func lineTo(x, y float64) PathCommand { return PathCommand{"L", []float64{x, y}} }
func closePath() PathCommand          { return PathCommand{Op: "Z"} }

func cubicTo(c1x, c1y, c2x, c2y, x, y float64) PathCommand {
	return PathCommand{"C", []float64{c1x, c1y, c2x, c2y, x, y}}
}

// kappa places cubic control points for a quarter ellipse.
const kappa = 0.5522847498

// rectPath is a w x h rectangle centered on the origin.
func rectPath(w, h float64) []PathCommand {
	x, y := -w/2, -h/2
	return []PathCommand{
		moveTo(x, y),
		lineTo(x+w, y),
		lineTo(x+w, y+h),
		lineTo(x, y+h),
		closePath(),
	}
}

// roundRectPath is rectPath with corners of radius r, clamped to half the
// shorter side.
func roundRectPath(w, h, r float64) []PathCommand {
	r = min(r, math.Abs(w)/2, math.Abs(h)/2)
	if r <= 0 {
		return rectPath(w, h)
	}
	x, y := -w/2, -h/2
	o := r * kappa
	return []PathCommand{
		moveTo(x+r, y),
		lineTo(x+w-r, y),
		cubicTo(x+w-r+o, y, x+w, y+r-o, x+w, y+r),
		lineTo(x+w, y+h-r),
		cubicTo(x+w, y+h-r+o, x+w-r+o, y+h, x+w-r, y+h),
		lineTo(x+r, y+h),
		cubicTo(x+r-o, y+h, x, y+h-r+o, x, y+h-r),
		lineTo(x, y+r),
		cubicTo(x, y+r-o, x+r-o, y, x+r, y),
		closePath(),
	}
}

// diamondPath joins the edge midpoints of a w x h box centered on the origin.
func diamondPath(w, h float64) []PathCommand {
	return []PathCommand{
		moveTo(0, -h/2),
		lineTo(w/2, 0),
		lineTo(0, h/2),
		lineTo(-w/2, 0),
		closePath(),
	}
}

// ellipsePath approximates an ellipse with four cubic curves.
func ellipsePath(rx, ry float64) []PathCommand {
	kx, ky := rx*kappa, ry*kappa
	return []PathCommand{
		moveTo(rx, 0),
		cubicTo(rx, ky, kx, ry, 0, ry),
		cubicTo(-kx, ry, -rx, ky, -rx, 0),
		cubicTo(-rx, -ky, -kx, -ry, 0, -ry),
		cubicTo(kx, -ry, rx, -ky, rx, 0),
		closePath(),
	}
}

// polylinePath connects points in order.
func polylinePath(points []geom.Vector) []PathCommand {
	if len(points) == 0 {
		return nil
	}
	path := make([]PathCommand, 0, len(points))
	path = append(path, moveTo(points[0].X, points[0].Y))
	for _, p := range points[1:] {
		path = append(path, lineTo(p.X, p.Y))
	}
	return path
}

const (
	arrowheadLength = 30
	arrowheadAngle  = math.Pi / 9
)

// arrowheadPath draws two barbs at tip, pointing away from tail. The barbs
// shrink on short segments so they never overshoot the segment.
func arrowheadPath(tail, tip geom.Vector, strokeWidth float64) []PathCommand {
	d := tip.Sub(tail)
	segment := d.Len()
	if segment == 0 {
		return nil
	}
	length := min(arrowheadLength+strokeWidth, segment/2)
	back := geom.Vec(tip.X-d.X/segment*length, tip.Y-d.Y/segment*length)
	left := geom.RotatePoint(back, tip, arrowheadAngle)
	right := geom.RotatePoint(back, tip, -arrowheadAngle)
	return []PathCommand{
		moveTo(left.X, left.Y),
		lineTo(tip.X, tip.Y),
		lineTo(right.X, right.Y),
	}
}

// trace replays path onto the current path of ctx.
func trace(ctx canvas.Context, path []PathCommand) {
	for _, cmd := range path {
		switch cmd.Op {
		case "M":
			if len(cmd.Args) >= 2 {
				ctx.MoveTo(cmd.Args[0], cmd.Args[1])
			}
		case "L":
			if len(cmd.Args) >= 2 {
				ctx.LineTo(cmd.Args[0], cmd.Args[1])
			}
		case "C":
			if len(cmd.Args) >= 6 {
				a := cmd.Args
				ctx.BezierCurveTo(a[0], a[1], a[2], a[3], a[4], a[5])
			}
		case "Z":
			ctx.ClosePath()
		}
	}
}
