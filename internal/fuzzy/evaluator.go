package fuzzy

import "fmt"

// TNorm selects how antecedent degrees combine.
type TNorm string

const (
	TNormMin     TNorm = "min"
	TNormProduct TNorm = "product"
)

// Rule is one enumerated antecedent → consequent pair. An empty
// antecedent term means "don't care" for that input.
type Rule struct {
	Deficit  Term
	Mood     Term
	Duration Term
	Severity Term
}

// Config is the whole inference surface: membership breakpoints and the
// rule base are data, not code.
type Config struct {
	Deficit  Variable
	Mood     Variable
	Duration Variable
	Severity Variable
	Rules    []Rule
	Norm     TNorm
	FailSafe float64 // severity when no rule fires; fail toward caution
	Samples  int     // centroid discretization steps over [0,1]
}

// DefaultConfig builds the standard low/medium/high partitions and a
// full 27-rule base. Cuts get more severe as the deficit deepens and
// the outage drags on, and milder the happier the circuit is, so the
// optimizer steers cuts away from circuits that are already unhappy.
func DefaultConfig() Config {
	inputs := Variable{
		TermLow:    Trap(0, 0, 0.25, 0.5),
		TermMedium: Tri(0.3, 0.5, 0.7),
		TermHigh:   Trap(0.5, 0.75, 1, 1),
	}
	cfg := Config{
		Deficit:  inputs,
		Mood:     inputs,
		Duration: inputs,
		Severity: Variable{
			TermMild:     Trap(0, 0, 0.25, 0.45),
			TermModerate: Tri(0.35, 0.5, 0.65),
			TermSevere:   Trap(0.55, 0.75, 1, 1),
		},
		Norm:     TNormMin,
		FailSafe: 1.0,
		Samples:  201,
	}

	// Enumerate every term combination. Severity rank grows with
	// deficit and duration and shrinks with mood.
	scale := []Term{TermLow, TermMedium, TermHigh}
	for di, d := range scale {
		for mi, m := range scale {
			for ui, u := range scale {
				score := di + (2 - mi) + ui // 0..6
				out := TermMild
				switch {
				case score >= 5:
					out = TermSevere
				case score >= 3:
					out = TermModerate
				}
				cfg.Rules = append(cfg.Rules, Rule{Deficit: d, Mood: m, Duration: u, Severity: out})
			}
		}
	}
	return cfg
}

// Validate rejects malformed breakpoints and rule bases. A broken rule
// base is fatal at startup, never discovered mid-run.
func (c Config) Validate() error {
	vars := []struct {
		name string
		v    Variable
	}{
		{"deficit", c.Deficit},
		{"mood", c.Mood},
		{"duration", c.Duration},
		{"severity", c.Severity},
	}
	for _, nv := range vars {
		if len(nv.v) == 0 {
			return fmt.Errorf("fuzzy variable %q has no terms", nv.name)
		}
		for term, m := range nv.v {
			if !m.valid() {
				return fmt.Errorf("fuzzy variable %q term %q has unordered breakpoints", nv.name, term)
			}
			if m.A < 0 || m.D > 1 {
				return fmt.Errorf("fuzzy variable %q term %q leaves the [0,1] universe", nv.name, term)
			}
		}
	}
	if len(c.Rules) == 0 {
		return fmt.Errorf("fuzzy rule base is empty")
	}
	for i, r := range c.Rules {
		if r.Severity == "" {
			return fmt.Errorf("fuzzy rule %d has no consequent", i)
		}
		if _, ok := c.Severity[r.Severity]; !ok {
			return fmt.Errorf("fuzzy rule %d names unknown severity term %q", i, r.Severity)
		}
		if r.Deficit == "" && r.Mood == "" && r.Duration == "" {
			return fmt.Errorf("fuzzy rule %d has no antecedent", i)
		}
	}
	if c.Norm != TNormMin && c.Norm != TNormProduct {
		return fmt.Errorf("unknown t-norm %q", c.Norm)
	}
	if c.FailSafe < 0 || c.FailSafe > 1 {
		return fmt.Errorf("fuzzy fail-safe severity %.3f outside [0,1]", c.FailSafe)
	}
	if c.Samples < 2 {
		return fmt.Errorf("fuzzy centroid samples %d too few", c.Samples)
	}
	return nil
}

// Evaluator runs Mamdani inference. It holds no state between calls:
// Evaluate is a pure function of its inputs and the config.
type Evaluator struct {
	cfg Config
}

// NewEvaluator validates the config and builds an evaluator.
func NewEvaluator(cfg Config) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{cfg: cfg}, nil
}

// Evaluate scores one candidate cut. All three inputs are normalized
// to [0,1]; the result is a crisp severity in [0,1].
func (e *Evaluator) Evaluate(deficit, mood, duration float64) float64 {
	// Clip each rule's consequent at its activation degree, aggregate
	// with max, then take the centroid of the aggregate shape.
	activations := make([]float64, len(e.cfg.Rules))
	fired := false
	for i, r := range e.cfg.Rules {
		a := e.activation(r, deficit, mood, duration)
		activations[i] = a
		if a > 0 {
			fired = true
		}
	}
	if !fired {
		// Inputs landed outside every defined region. Assume the worst.
		return e.cfg.FailSafe
	}

	num, den := 0.0, 0.0
	for s := 0; s < e.cfg.Samples; s++ {
		z := float64(s) / float64(e.cfg.Samples-1)
		mu := 0.0
		for i, r := range e.cfg.Rules {
			if activations[i] == 0 {
				continue
			}
			d := e.cfg.Severity.Degree(r.Severity, z)
			if d > activations[i] {
				d = activations[i]
			}
			if d > mu {
				mu = d
			}
		}
		num += z * mu
		den += mu
	}
	if den == 0 {
		return e.cfg.FailSafe
	}
	return num / den
}

// activation combines the antecedent degrees of one rule.
func (e *Evaluator) activation(r Rule, deficit, mood, duration float64) float64 {
	degree := 1.0
	combine := func(d float64) {
		if e.cfg.Norm == TNormProduct {
			degree *= d
		} else if d < degree {
			degree = d
		}
	}
	if r.Deficit != "" {
		combine(e.cfg.Deficit.Degree(r.Deficit, deficit))
	}
	if r.Mood != "" {
		combine(e.cfg.Mood.Degree(r.Mood, mood))
	}
	if r.Duration != "" {
		combine(e.cfg.Duration.Degree(r.Duration, duration))
	}
	return degree
}
