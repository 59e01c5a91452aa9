// Package fuzzy implements a small Mamdani inference controller that
// scores how undesirable a candidate power cut is. Inputs are the grid
// deficit fraction, the target circuit's mood, and the proposed cut
// duration, all normalized to [0,1]; the output is a crisp severity
// score in [0,1].
package fuzzy

// Membership is a trapezoidal membership function over [0,1].
// Triangles are trapezoids with B == C.
type Membership struct {
	A, B, C, D float64
}

// Tri builds a triangular membership function peaking at b.
func Tri(a, b, c float64) Membership { return Membership{A: a, B: b, C: b, D: c} }

// Trap builds a trapezoidal membership function.
func Trap(a, b, c, d float64) Membership { return Membership{A: a, B: b, C: c, D: d} }

// Degree returns the membership degree of x, in [0,1].
func (m Membership) Degree(x float64) float64 {
	switch {
	case x < m.A || x > m.D:
		return 0
	case x >= m.B && x <= m.C:
		return 1
	case x < m.B:
		// Left shoulder. A == B means a vertical edge.
		if m.B == m.A {
			return 1
		}
		return (x - m.A) / (m.B - m.A)
	default:
		// Right shoulder.
		if m.D == m.C {
			return 1
		}
		return (m.D - x) / (m.D - m.C)
	}
}

// valid reports whether the breakpoints are ordered.
func (m Membership) valid() bool {
	return m.A <= m.B && m.B <= m.C && m.C <= m.D
}

// Term names a linguistic value of a fuzzy variable.
type Term string

// Input terms.
const (
	TermLow    Term = "low"
	TermMedium Term = "medium"
	TermHigh   Term = "high"
)

// Severity consequent terms.
const (
	TermMild     Term = "mild"
	TermModerate Term = "moderate"
	TermSevere   Term = "severe"
)

// Variable maps linguistic terms to membership functions.
type Variable map[Term]Membership

// Degree fuzzifies x against one named term. Unknown terms contribute
// nothing.
func (v Variable) Degree(t Term, x float64) float64 {
	m, ok := v[t]
	if !ok {
		return 0
	}
	return m.Degree(x)
}
