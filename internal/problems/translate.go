package problems

import (
	"fmt"

	"github.com/cwbudde/pelago/internal/evo"
)

// Translate is a meta-problem: it shifts the inner problem's decision space
// by a fixed vector, so that Fitness(x) equals the inner fitness at
// x - Shift, with bounds displaced by +Shift. Thread safety is forwarded
// from the inner problem.
type Translate struct {
	Inner evo.UDP
	Shift []float64
}

// NewTranslate validates that the shift vector matches the inner problem's
// dimension. When the inner problem declares a gradient, the returned value
// also does (translation leaves the gradient unchanged at the de-shifted
// point).
func NewTranslate(inner evo.UDP, shift []float64) (evo.UDP, error) {
	if inner == nil {
		return nil, &evo.ConstructionError{Reason: "translate: inner problem cannot be nil"}
	}
	lo, _ := inner.Bounds()
	if len(shift) != len(lo) {
		return nil, &evo.ConstructionError{
			Reason: fmt.Sprintf("translate: shift length %d does not match inner dimension %d", len(shift), len(lo)),
		}
	}
	t := &Translate{
		Inner: inner,
		Shift: append([]float64(nil), shift...),
	}
	if _, ok := inner.(evo.GradientProvider); ok {
		return &translateWithGradient{Translate: t}, nil
	}
	return t, nil
}

// Fitness evaluates the inner problem at the de-shifted point.
func (t *Translate) Fitness(x []float64) []float64 {
	return t.Inner.Fitness(t.deshift(x))
}

// Bounds returns the inner bounds displaced by the shift vector.
func (t *Translate) Bounds() (lo, hi []float64) {
	ilo, ihi := t.Inner.Bounds()
	lo = make([]float64, len(ilo))
	hi = make([]float64, len(ihi))
	for i := range ilo {
		lo[i] = ilo[i] + t.Shift[i]
		hi[i] = ihi[i] + t.Shift[i]
	}
	return lo, hi
}

// ThreadSafety forwards the inner declaration, defaulting to basic.
func (t *Translate) ThreadSafety() evo.ThreadSafety {
	if s, ok := t.Inner.(evo.SafetyDeclarer); ok {
		return s.ThreadSafety()
	}
	return evo.SafetyBasic
}

// Name marks the wrapped problem as translated.
func (t *Translate) Name() string {
	name := fmt.Sprintf("%T", t.Inner)
	if n, ok := t.Inner.(evo.Named); ok {
		name = n.Name()
	}
	return name + " [translated]"
}

// Clone deep-copies the wrapper, cloning the inner problem when it supports
// cloning.
func (t *Translate) Clone() any {
	inner := t.Inner
	if c, ok := inner.(evo.Cloner); ok {
		if cloned, ok := c.Clone().(evo.UDP); ok {
			inner = cloned
		}
	}
	return &Translate{
		Inner: inner,
		Shift: append([]float64(nil), t.Shift...),
	}
}

func (t *Translate) deshift(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] - t.Shift[i]
	}
	return out
}

// translateWithGradient augments Translate with gradient forwarding. Built
// only when the inner problem declares a gradient, so that wrapping does not
// invent a capability the inner problem lacks.
type translateWithGradient struct {
	*Translate
}

func (t *translateWithGradient) Gradient(x []float64) []float64 {
	return t.Inner.(evo.GradientProvider).Gradient(t.deshift(x))
}

func (t *translateWithGradient) Clone() any {
	return &translateWithGradient{Translate: t.Translate.Clone().(*Translate)}
}
