package shapes

// Color of a shape
type Color int

const (
	Red Color = iota
	Green
)

type Shape interface {
	Area() float64
	Name() string
}

type Named interface {
	Name() string
}

type Base struct {
	name string
}

func (b *Base) Name() string { return b.name }

type Circle struct {
	Base
	Radius  float64
	Outline *Square
	Points  []Point
}

func NewCircle(r float64) *Circle { return &Circle{Radius: r} }

func (c *Circle) Area() float64 { return 3 * c.Radius * c.Radius }

func (c *Circle) scale(f float64, _ int) (float64, error) { return f, nil }

type Square struct{ Side float64 }

type Point struct{ X, Y int }

type Stack[T any] struct{ items []T }

func (s *Stack[T]) Push(v T) { s.items = append(s.items, v) }
