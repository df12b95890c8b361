// Package estimator turns raw DD/DR/RR pair counts into correlation
// function values using one of five published estimators.
package estimator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownEstimator is returned for a name that is not one of the
	// recognised estimators.
	ErrUnknownEstimator = errors.New("unknown estimator")
	// ErrMissingCounts is returned when an estimator needs a count type that
	// was not supplied.
	ErrMissingCounts = errors.New("missing pair counts")
	// ErrMismatchedCounts is returned when supplied count sequences differ
	// in length.
	ErrMismatchedCounts = errors.New("mismatched pair count lengths")
)

// Kind selects an estimator formula.
type Kind int

const (
	// Natural is DD/RR - 1.
	Natural Kind = iota + 1
	// DavisPeebles is DD/DR - 1.
	DavisPeebles
	// Hewett is (DD - DR)/RR.
	Hewett
	// Hamilton is DD*RR/DR^2 - 1.
	Hamilton
	// LandySzalay is (DD - 2DR + RR)/RR.
	LandySzalay
)

var kindNames = map[Kind]string{
	Natural:      "Natural",
	DavisPeebles: "Davis-Peebles",
	Hewett:       "Hewett",
	Hamilton:     "Hamilton",
	LandySzalay:  "Landy-Szalay",
}

// Kinds returns every estimator in declaration order.
func Kinds() []Kind {
	return []Kind{Natural, DavisPeebles, Hewett, Hamilton, LandySzalay}
}

// ParseKind maps a case-insensitive estimator name to its Kind. The empty
// string selects Natural.
func ParseKind(name string) (Kind, error) {
	if name == "" {
		return Natural, nil
	}
	for _, k := range Kinds() {
		if strings.EqualFold(name, kindNames[k]) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEstimator, name)
}

// String returns the canonical estimator name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the five estimators.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// NeedsDR reports whether the estimator uses data-random counts.
func (k Kind) NeedsDR() bool {
	return k == DavisPeebles || k == Hewett || k == Hamilton || k == LandySzalay
}

// NeedsRR reports whether the estimator uses random-random counts.
func (k Kind) NeedsRR() bool {
	return k == Natural || k == Hewett || k == Hamilton || k == LandySzalay
}

// Counts holds per-bin pair counts. A nil slice means the count was not
// computed.
type Counts struct {
	DD []int64 `json:"dd"`
	DR []int64 `json:"dr,omitempty"`
	RR []int64 `json:"rr,omitempty"`
}

// Sizes holds the sample sizes used to normalise the counts.
type Sizes struct {
	N1    int
	N2    int
	NRand int
	// Auto marks DD as a single-sample count, normalised by n1(n1-1)/2
	// rather than n1*n2.
	Auto bool
}

// Norms are the number of distinct pairs each count is divided by.
type Norms struct {
	DD, DR, RR float64
}

// Normalisation returns the pair-count denominators for s.
func (s Sizes) Normalisation() Norms {
	n1, n2, nr := float64(s.N1), float64(s.N2), float64(s.NRand)
	nrm := Norms{
		DD: n1 * n2,
		DR: n1 * nr,
		RR: nr * (nr - 1) / 2,
	}
	if s.Auto {
		nrm.DD = n1 * (n1 - 1) / 2
	}
	return nrm
}

// Evaluate combines counts into one correlation value per bin. A bin whose
// denominator count is zero yields a NaN or ±Inf value rather than an error.
func Evaluate(k Kind, c Counts, s Sizes) ([]float64, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownEstimator, k)
	}
	if c.DD == nil {
		return nil, fmt.Errorf("%w: %v needs DD", ErrMissingCounts, k)
	}
	if k.NeedsDR() && c.DR == nil {
		return nil, fmt.Errorf("%w: %v needs DR", ErrMissingCounts, k)
	}
	if k.NeedsRR() && c.RR == nil {
		return nil, fmt.Errorf("%w: %v needs RR", ErrMissingCounts, k)
	}
	n := len(c.DD)
	if (k.NeedsDR() && len(c.DR) != n) || (k.NeedsRR() && len(c.RR) != n) {
		return nil, fmt.Errorf("%w: DD=%d DR=%d RR=%d", ErrMismatchedCounts, n, len(c.DR), len(c.RR))
	}

	nrm := s.Normalisation()
	xi := make([]float64, n)
	for i := range xi {
		dd := float64(c.DD[i]) / nrm.DD
		var dr, rr float64
		if k.NeedsDR() {
			dr = float64(c.DR[i]) / nrm.DR
		}
		if k.NeedsRR() {
			rr = float64(c.RR[i]) / nrm.RR
		}

		switch k {
		case Natural:
			xi[i] = dd/rr - 1
		case DavisPeebles:
			xi[i] = dd/dr - 1
		case Hewett:
			xi[i] = (dd - dr) / rr
		case Hamilton:
			xi[i] = (dd*rr)/(dr*dr) - 1
		case LandySzalay:
			xi[i] = (dd - 2*dr + rr) / rr
		}
	}
	return xi, nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownEstimator, k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
