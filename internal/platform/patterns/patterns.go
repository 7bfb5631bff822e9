// Package patterns turns a jiggle shape into a timed path of cursor offsets.
package patterns

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Default jiggle sizes in pixels, used when an action leaves them unset.
const (
	DefaultMinSize = 5.0
	DefaultMaxSize = 20.0
)

// Shape selects the outline traced by a jiggle.
type Shape int

const (
	ShapeRandom Shape = iota
	ShapeCircle
	ShapeSquare
	ShapeZigZag
	ShapeWalk
	// ShapeNudge is a single out-and-back step, the classic one pixel jiggle.
	ShapeNudge
)

var shapeNames = [...]string{
	ShapeRandom: "random",
	ShapeCircle: "circle",
	ShapeSquare: "square",
	ShapeZigZag: "zigzag",
	ShapeWalk:   "walk",
	ShapeNudge:  "nudge",
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return "unknown"
	}
	return shapeNames[s]
}

// ParseShape maps a shape name onto a Shape. Empty means random.
func ParseShape(name string) (Shape, error) {
	if name == "" {
		return ShapeRandom, nil
	}
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), nil
		}
	}
	return ShapeRandom, fmt.Errorf("unknown shape %q", name)
}

// Point is an offset from where the cursor stood when the jiggle began.
type Point struct {
	X float64
	Y float64
}

func (p Point) dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Step moves the cursor to To and then waits for Wait.
type Step struct {
	To   Point
	Wait time.Duration
}

// Span is a closed duration range.
type Span struct {
	Min, Max time.Duration
}

func (s Span) pick(rnd *rand.Rand) time.Duration {
	if s.Max <= s.Min {
		return s.Min
	}
	return s.Min + time.Duration(rnd.Int63n(int64(s.Max-s.Min)+1))
}

// Timing controls how a path is paced so it does not look machine made.
type Timing struct {
	// Hop is the wait after each point before speed variation.
	Hop Span
	// Speed scales each hop wait by a factor drawn from [Speed[0], Speed[1]].
	Speed [2]float64
	// Segments longer than LongHop pixels wait LongFactor times longer.
	LongHop    float64
	LongFactor float64

	// PauseChance is the probability of an extra Pause after a point.
	PauseChance float64
	Pause       Span

	// BendChance is the probability of inserting a wobbly waypoint on
	// segments longer than BendMin pixels.
	BendChance float64
	BendMin    float64

	// Settle is the wait after the cursor is back at the origin.
	Settle Span
}

// DefaultTiming is the pacing used by NewGenerator.
var DefaultTiming = Timing{
	Hop:         Span{5 * time.Millisecond, 120 * time.Millisecond},
	Speed:       [2]float64{0.7, 1.3},
	LongHop:     10,
	LongFactor:  1.2,
	PauseChance: 0.12,
	Pause:       Span{150 * time.Millisecond, 400 * time.Millisecond},
	BendChance:  0.35,
	BendMin:     8,
	Settle:      Span{10 * time.Millisecond, 50 * time.Millisecond},
}

// Generator draws shapes and their pacing from one random source. It is
// safe for concurrent use.
type Generator struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	timing Timing
}

// NewGenerator returns a generator using DefaultTiming.
func NewGenerator(rnd *rand.Rand) *Generator {
	return NewGeneratorWithTiming(rnd, DefaultTiming)
}

// NewGeneratorWithTiming returns a generator with custom pacing.
func NewGeneratorWithTiming(rnd *rand.Rand, t Timing) *Generator {
	return &Generator{rnd: rnd, timing: t}
}

// Generate returns the outline of shape with a size drawn from
// [minSize, maxSize]. A non-positive minSize means DefaultMinSize.
func (g *Generator) Generate(shape Shape, minSize, maxSize float64) []Point {
	g.mu.Lock()
	defer g.mu.Unlock()

	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	maxSize = math.Max(maxSize, minSize)
	if shape == ShapeRandom {
		shape = ShapeCircle + Shape(g.rnd.Intn(int(ShapeWalk-ShapeCircle)+1))
	}
	size := minSize + g.rnd.Float64()*(maxSize-minSize)

	if shape == ShapeNudge {
		return []Point{{X: math.Max(1, math.Round(size/DefaultMinSize))}}
	}
	n := 4 + g.rnd.Intn(8)
	switch shape {
	case ShapeCircle:
		return circle(n, size)
	case ShapeSquare:
		return square(n, size)
	case ShapeZigZag:
		return zigzag(n, size)
	default:
		return g.walk(n, size)
	}
}

// Plan paces points into steps and closes the path at the origin.
func (g *Generator) Plan(points []Point) []Step {
	if len(points) == 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.timing
	steps := make([]Step, 0, len(points)*2+1)
	for i, pt := range points {
		next := Point{}
		if i+1 < len(points) {
			next = points[i+1]
		}
		d := pt.dist(next)
		wait := g.hop(d)
		if g.chance(t.PauseChance) {
			wait += t.Pause.pick(g.rnd)
		}
		steps = append(steps, Step{To: pt, Wait: wait})

		// The last segment heads home, which never bends.
		if i+1 < len(points) && d > t.BendMin && g.chance(t.BendChance) {
			steps = append(steps, Step{To: g.bend(pt, next), Wait: g.scale(wait)})
		}
	}
	return append(steps, Step{Wait: t.Settle.pick(g.rnd)})
}

func (g *Generator) hop(distance float64) time.Duration {
	wait := g.scale(g.timing.Hop.pick(g.rnd))
	if distance > g.timing.LongHop && g.timing.LongFactor > 0 {
		wait = time.Duration(float64(wait) * g.timing.LongFactor)
	}
	return wait
}

func (g *Generator) scale(d time.Duration) time.Duration {
	lo, hi := g.timing.Speed[0], g.timing.Speed[1]
	if hi <= lo {
		return d
	}
	return time.Duration(float64(d) * (lo + g.rnd.Float64()*(hi-lo)))
}

func (g *Generator) chance(p float64) bool {
	return p > 0 && g.rnd.Float64() < p
}

// bend returns a waypoint 40% of the way from a to b, jittered by up to
// 0.75 pixels on each axis.
func (g *Generator) bend(a, b Point) Point {
	const along, jitter = 0.4, 1.5
	return Point{
		X: a.X + (b.X-a.X)*along + (g.rnd.Float64()-0.5)*jitter,
		Y: a.Y + (b.Y-a.Y)*along + (g.rnd.Float64()-0.5)*jitter,
	}
}

func circle(n int, r float64) []Point {
	pts := make([]Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Point{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
	return pts
}

// square walks the perimeter clockwise from the origin corner with k
// points per side, corners shared.
func square(n int, side float64) []Point {
	k := max(int(math.Sqrt(float64(n))), 2)
	corners := []Point{{0, 0}, {side, 0}, {side, side}, {0, side}}
	pts := make([]Point, 0, 4*(k-1))
	for c := range corners {
		from, to := corners[c], corners[(c+1)%len(corners)]
		for j := 0; j < k-1; j++ {
			f := float64(j) / float64(k-1)
			pts = append(pts, Point{X: from.X + (to.X-from.X)*f, Y: from.Y + (to.Y-from.Y)*f})
		}
	}
	return pts
}

func zigzag(n int, width float64) []Point {
	pts := make([]Point, n)
	for i := range pts {
		y := width / 2
		if i%2 == 0 {
			y = -y
		}
		pts[i] = Point{X: width * float64(i) / float64(n-1), Y: y}
	}
	return pts
}

// walk takes n-1 random strides of a third of size from the origin.
func (g *Generator) walk(n int, size float64) []Point {
	stride := size / 3
	pts := make([]Point, n)
	for i := 1; i < n; i++ {
		a := g.rnd.Float64() * 2 * math.Pi
		pts[i] = Point{X: pts[i-1].X + stride*math.Cos(a), Y: pts[i-1].Y + stride*math.Sin(a)}
	}
	return pts
}
