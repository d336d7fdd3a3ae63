package numeric

import "math"

var invPhi = (math.Sqrt(5) - 1) / 2

// Minimize locates a minimum of f on [a, b] by golden-section search. f is
// assumed unimodal on the interval. Root holds the abscissa and Residual the
// function value there.
func Minimize(f Func, a, b float64, opts Options) Stage {
	opts = opts.withDefaults()
	st := Stage{Method: "golden-section", Root: math.NaN(), Residual: math.NaN()}
	if invalid(a) || invalid(b) {
		st.Status = OutOfBounds
		return st
	}
	if a > b {
		a, b = b, a
	}

	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)
	for i := 1; i <= opts.MaxIterations; i++ {
		st.Iterations = i
		if invalid(fc) || invalid(fd) {
			st.Status = InvalidValue
			return st
		}
		if b-a <= opts.Tolerance {
			x := 0.5 * (a + b)
			st.Status, st.Root, st.Residual = Converged, x, f(x)
			return st
		}
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	x := 0.5 * (a + b)
	st.Status, st.Root, st.Residual = IterationLimit, x, f(x)
	return st
}

// Maximize locates a maximum of f on [a, b]. Residual holds f at the maximum.
func Maximize(f Func, a, b float64, opts Options) Stage {
	st := Minimize(func(x float64) float64 { return -f(x) }, a, b, opts)
	st.Residual = -st.Residual
	return st
}
