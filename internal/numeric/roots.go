package numeric

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
)

const (
	defaultFactor     = 2.0
	maxBracketExpands = 200
)

// Bracket looks for a sign change of f on [lo, hi], growing hi geometrically
// by factor until it reaches limit. On success the returned stage is
// Converged and [a, b] brackets a root.
func Bracket(f Func, lo, hi, limit, factor float64) (a, b float64, st Stage) {
	st = Stage{Method: "bracket", Root: math.NaN(), Residual: math.NaN()}
	if factor <= 1 || invalid(factor) {
		factor = defaultFactor
	}
	if limit < hi || invalid(limit) {
		limit = hi
	}

	flo := f(lo)
	if invalid(flo) {
		st.Status = InvalidValue
		return lo, hi, st
	}
	if flo == 0 {
		st.Status, st.Root, st.Residual = Converged, lo, 0
		return lo, lo, st
	}

	for i := 1; i <= maxBracketExpands; i++ {
		st.Iterations = i
		fhi := f(hi)
		if invalid(fhi) {
			st.Status = InvalidValue
			return lo, hi, st
		}
		if math.Signbit(flo) != math.Signbit(fhi) || fhi == 0 {
			st.Status = Converged
			return lo, hi, st
		}
		if hi >= limit {
			st.Status = NoSignChange
			st.Root, st.Residual = hi, fhi
			return lo, hi, st
		}
		next := lo + (hi-lo)*factor
		if next <= hi {
			next = hi * factor
		}
		hi = math.Min(next, limit)
	}
	st.Status = IterationLimit
	return lo, hi, st
}

// Brent finds a root of f inside the bracket [a, b] with Brent's
// bisection/secant/inverse-quadratic method.
func Brent(f Func, a, b float64, opts Options) Stage {
	opts = opts.withDefaults()
	st := Stage{Method: "brent", Root: math.NaN(), Residual: math.NaN()}

	fa, fb := f(a), f(b)
	switch {
	case invalid(fa) || invalid(fb):
		st.Status = InvalidValue
		return st
	case fa == 0:
		st.Status, st.Root, st.Residual = Converged, a, 0
		return st
	case fb == 0:
		st.Status, st.Root, st.Residual = Converged, b, 0
		return st
	case math.Signbit(fa) == math.Signbit(fb):
		st.Status = NoSignChange
		return st
	}

	c, fc := b, fb
	var d, e float64
	for i := 1; i <= opts.MaxIterations; i++ {
		st.Iterations = i
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol := 2*epsilon*math.Abs(b) + 0.5*opts.Tolerance
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol || fb == 0 {
			st.Status, st.Root, st.Residual = Converged, b, fb
			return st
		}

		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else {
			b += math.Copysign(tol, xm)
		}
		fb = f(b)
		if invalid(fb) {
			st.Status, st.Root = InvalidValue, b
			return st
		}
	}
	st.Status, st.Root, st.Residual = IterationLimit, b, fb
	return st
}

const epsilon = 2.220446049250313e-16

// Newton iterates from x0 using a finite-difference derivative, keeping every
// iterate inside [lo, hi] by halving steps that would leave it. Iterates that
// settle on a bound because every step was cut short end OutOfBounds.
func Newton(f Func, x0, lo, hi float64, opts Options) Stage {
	opts = opts.withDefaults()
	st := Stage{Method: "newton", Root: math.NaN(), Residual: math.NaN()}
	if invalid(x0) || lo > hi {
		st.Status = OutOfBounds
		return st
	}

	x := math.Max(lo, math.Min(hi, x0))
	fx := f(x)
	for i := 1; i <= opts.MaxIterations; i++ {
		st.Iterations = i
		if invalid(fx) {
			st.Status, st.Root = InvalidValue, x
			return st
		}
		if fx == 0 {
			st.Status, st.Root, st.Residual = Converged, x, 0
			return st
		}

		h := 1e-6 * math.Max(1, math.Abs(x))
		settings := &fd.Settings{Formula: fd.Central, Step: h}
		if x-h < lo {
			settings.Formula = fd.Forward
		} else if x+h > hi {
			settings.Formula = fd.Backward
		}
		slope := fd.Derivative(f, x, settings)
		if slope == 0 || invalid(slope) {
			st.Status, st.Root, st.Residual = Stalled, x, fx
			return st
		}

		next := x - fx/slope
		clamped := false
		if next < lo {
			next, clamped = 0.5*(x+lo), true
		} else if next > hi {
			next, clamped = 0.5*(x+hi), true
		}
		fnext := f(next)
		if math.Abs(next-x) <= opts.Tolerance {
			st.Status, st.Root, st.Residual = Converged, next, fnext
			switch {
			case invalid(fnext):
				st.Status = InvalidValue
			case clamped:
				st.Status = OutOfBounds
			}
			return st
		}
		x, fx = next, fnext
	}
	st.Status, st.Root, st.Residual = IterationLimit, x, fx
	return st
}
