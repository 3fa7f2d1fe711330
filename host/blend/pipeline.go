// Package blend renders a horizontally scrolling image onto the LED matrix,
// cross-fading between neighbouring source columns.
//
// Each tick renders every row into packed form, pushes the whole array
// with one modifyArray transaction and then advances the blend state. A
// column is held for Steps ticks while the fade moves towards the next one.
package blend

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"tlcmux/host/tlcmux"
	"tlcmux/protocol"
)

const (
	// DefaultSteps is the default number of ticks spent on each column
	DefaultSteps = 5

	// Window is the number of source columns shown per row
	Window = 11

	redBase   = 0
	greenBase = 16
	blueBase  = 32
)

// ArrayWriter receives packed frames
type ArrayWriter interface {
	ModifyArray(offset int, data []byte) error
}

// State is the scroll position
type State struct {
	Column int // left edge of the window in the source
	Step   int // fade step within the column, 0..Steps-1
}

// Pipeline produces packed frames from a PixelSource
type Pipeline struct {
	src           PixelSource
	width, height int
	shape         tlcmux.Shape
	steps         int
	log           zerolog.Logger

	state State
	rows  [][]uint16
	frame []byte
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithSteps sets the number of fade steps per column
func WithSteps(n int) Option {
	return func(p *Pipeline) {
		p.steps = n
	}
}

// WithLogger sets the pipeline logger
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// New creates a pipeline for src on a device of the given shape
func New(src PixelSource, shape tlcmux.Shape, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		src:   src,
		shape: shape,
		steps: DefaultSteps,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.width, p.height = src.Size()
	if p.width < 1 || p.height < 1 {
		return nil, fmt.Errorf("blend: %w: empty source %dx%d", protocol.ErrInvalidArgument, p.width, p.height)
	}
	if p.steps < 1 {
		return nil, fmt.Errorf("blend: %w: steps %d", protocol.ErrInvalidArgument, p.steps)
	}
	if need := blueBase + Window; shape.Channels() < need || shape.Rows < 1 {
		return nil, fmt.Errorf("blend: %w: need %d channels per row, device has %d", protocol.ErrInvalidArgument, need, shape.Channels())
	}
	if p.height != shape.Rows {
		p.log.Warn().Int("image_height", p.height).Int("rows", shape.Rows).Msg("image height does not match device rows")
	}

	p.rows = make([][]uint16, shape.Rows)
	for i := range p.rows {
		p.rows[i] = make([]uint16, shape.Channels())
	}
	p.frame = make([]byte, 0, shape.ArrayBytes())
	return p, nil
}

// State returns the current scroll position
func (p *Pipeline) State() State {
	return p.state
}

// Steps returns the number of fade steps per column
func (p *Pipeline) Steps() int {
	return p.steps
}

// Reset rewinds to the first column. Channel values from earlier frames
// are kept; they are overwritten by the next render.
func (p *Pipeline) Reset() {
	p.state = State{}
}

// Weights returns the blend factors of the current and the next column.
// The easing is quadratic so frames spend longer near the settled column.
func (p *Pipeline) Weights() (cur, next float64) {
	cur = float64(p.steps-p.state.Step) / float64(p.steps)
	cur *= cur
	next = (1 - cur) * (1 - cur)
	return cur, next
}

// Render computes the packed frame for the current state. The returned
// slice is reused by the next call.
func (p *Pipeline) Render() []byte {
	cur, next := p.Weights()

	rows := min(p.shape.Rows, p.height)
	for r := 0; r < rows; r++ {
		row := p.rows[r]
		for di := 0; di < Window; di++ {
			r0, g0, b0 := p.src.RGB((p.state.Column+di)%p.width, r)
			r1, g1, b1 := p.src.RGB((p.state.Column+di+1)%p.width, r)

			pos := Window - 1 - di
			row[redBase+pos] = scale(r0, r1, cur, next)
			row[greenBase+pos] = scale(g0, g1, cur, next)
			row[blueBase+pos] = scale(b0, b1, cur, next)
		}
	}

	p.frame = p.frame[:0]
	for _, row := range p.rows {
		p.frame = protocol.AppendPackedRow(p.frame, row)
	}
	return p.frame
}

// scale mixes two 8-bit components and maps the result to 12 bits
func scale(a, b uint8, wa, wb float64) uint16 {
	v := math.Round((float64(a)*wa + float64(b)*wb) * protocol.MaxValue / 255)
	return uint16(min(max(v, 0), protocol.MaxValue))
}

// Advance moves to the next fade step, and to the next column after the
// last step.
func (p *Pipeline) Advance() {
	p.state.Step++
	if p.state.Step == p.steps {
		p.state.Step = 0
		p.state.Column = (p.state.Column + 1) % p.width
	}
}

// Tick renders the current frame, writes it at offset 0 and advances. The
// state is left unchanged if the write fails.
func (p *Pipeline) Tick(w ArrayWriter) error {
	if err := w.ModifyArray(0, p.Render()); err != nil {
		return fmt.Errorf("blend: column %d step %d: %w", p.state.Column, p.state.Step, err)
	}
	p.Advance()
	return nil
}

// Run ticks until ctx is done or a write fails. With period > 0 ticks are
// paced by a ticker; otherwise each tick starts as soon as the previous
// write is acknowledged.
func (p *Pipeline) Run(ctx context.Context, w ArrayWriter, period time.Duration) error {
	var tick <-chan time.Time
	if period > 0 {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}

	p.log.Info().
		Int("width", p.width).
		Int("height", p.height).
		Int("steps", p.steps).
		Dur("period", period).
		Msg("scroll started")

	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			p.log.Info().Int("frames", frames).Msg("scroll stopped")
			return err
		}
		if err := p.Tick(w); err != nil {
			return err
		}
		frames++

		if tick == nil {
			continue
		}
		select {
		case <-ctx.Done():
		case <-tick:
		}
	}
}
