package quil

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

func identity(n int) *mat.CDense {
	m := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// denseFromRows builds a square matrix from row-major entries.
func denseFromRows(rows [][]complex128) *mat.CDense {
	n := len(rows)
	data := make([]complex128, 0, n*n)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewCDense(n, n, data)
}

func conjTranspose(a *mat.CDense) *mat.CDense {
	r, c := a.Dims()
	out := mat.NewCDense(c, r, nil)
	out.Copy(a.H())
	return out
}

// blockDiag returns [[a, 0], [0, b]] for square a and b of equal size.
func blockDiag(a, b *mat.CDense) *mat.CDense {
	n, _ := a.Dims()
	out := mat.NewCDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, a.At(i, j))
			out.Set(n+i, n+j, b.At(i, j))
		}
	}
	return out
}

// mul returns a*b (or a^H*b when conjA is set).
func mul(a, b *mat.CDense, conjA bool) *mat.CDense {
	ar, ac := a.Dims()
	_, bc := b.Dims()
	tA := blas.NoTrans
	rows := ar
	if conjA {
		tA = blas.ConjTrans
		rows = ac
	}
	out := mat.NewCDense(rows, bc, nil)
	cblas128.Gemm(tA, blas.NoTrans, 1, a.RawCMatrix(), b.RawCMatrix(), 0, out.RawCMatrix())
	return out
}

func scale(a *mat.CDense, alpha complex128) *mat.CDense {
	r, c := a.Dims()
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, alpha*a.At(i, j))
		}
	}
	return out
}

func addInPlace(dst, a *mat.CDense) {
	r, c := dst.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(i, j, dst.At(i, j)+a.At(i, j))
		}
	}
}

// IsUnitary reports whether u^H u equals the identity within tol.
func IsUnitary(u mat.CMatrix, tol float64) bool {
	r, c := u.Dims()
	if r != c {
		return false
	}
	d := mat.NewCDense(r, c, nil)
	d.Copy(u)
	return mat.CEqualApprox(mul(d, d, true), identity(r), tol)
}

// EqualUpToPhase reports whether a = e^{i phi} b for some global phase phi.
func EqualUpToPhase(a, b mat.CMatrix, tol float64) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	var phase complex128
	found := false
	for i := 0; i < ar && !found; i++ {
		for j := 0; j < ac; j++ {
			if cmplx.Abs(b.At(i, j)) > tol {
				phase = a.At(i, j) / b.At(i, j)
				found = true
				break
			}
		}
	}
	if !found {
		return mat.CEqualApprox(a, b, tol)
	}
	if math.Abs(cmplx.Abs(phase)-1) > tol {
		return false
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			if cmplx.Abs(a.At(i, j)-phase*b.At(i, j)) > tol {
				return false
			}
		}
	}
	return true
}

// expm computes exp(a) by scaling and squaring a truncated Taylor series.
func expm(a *mat.CDense) *mat.CDense {
	n, _ := a.Dims()
	norm := 0.0
	for i := 0; i < n; i++ {
		row := 0.0
		for j := 0; j < n; j++ {
			row += cmplx.Abs(a.At(i, j))
		}
		norm = math.Max(norm, row)
	}
	squarings := 0
	if norm > 0.5 {
		squarings = int(math.Ceil(math.Log2(norm / 0.5)))
	}
	scaled := scale(a, complex(math.Ldexp(1, -squarings), 0))

	result := identity(n)
	term := identity(n)
	for k := 1; k <= 24; k++ {
		term = scale(mul(term, scaled, false), complex(1/float64(k), 0))
		addInPlace(result, term)
	}
	for i := 0; i < squarings; i++ {
		result = mul(result, result, false)
	}
	return result
}
