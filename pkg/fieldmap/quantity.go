package fieldmap

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/df07/go-nearfield-flow/pkg/field"
)

// ErrUnknownQuantity is returned by ParseQuantity for unrecognised names.
var ErrUnknownQuantity = errors.New("unknown field quantity")

// Quantity is a real scalar derived from a field sample for plotting.
type Quantity int

const (
	Pabs    Quantity = iota // |Re(E x H*)|
	Eabs                    // |E|
	Habs                    // |H|
	AngleEx                 // arg(Ex) in degrees
	AngleHy                 // arg(Hy) in degrees
)

var quantityNames = map[Quantity]string{
	Pabs:    "Pabs",
	Eabs:    "Eabs",
	Habs:    "Habs",
	AngleEx: "angleEx",
	AngleHy: "angleHy",
}

// ParseQuantity accepts the names used in file names, case-insensitively.
func ParseQuantity(s string) (Quantity, error) {
	for q, name := range quantityNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return q, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownQuantity, s)
}

func (q Quantity) String() string {
	if name, ok := quantityNames[q]; ok {
		return name
	}
	return fmt.Sprintf("Quantity(%d)", int(q))
}

// Label is the plot title for the quantity.
func (q Quantity) Label() string {
	switch q {
	case Pabs:
		return "|Re(E×H*)|"
	case Eabs:
		return "|E|"
	case Habs:
		return "|H|"
	case AngleEx:
		return "arg(Ex)"
	case AngleHy:
		return "arg(Hy)"
	}
	return q.String()
}

// IsPhase reports whether the quantity is an angle rather than a magnitude.
func (q Quantity) IsPhase() bool {
	return q == AngleEx || q == AngleHy
}

// Of evaluates the quantity for one sample.
func (q Quantity) Of(s field.Sample) float64 {
	switch q {
	case Pabs:
		return s.Poynting().Length()
	case Eabs:
		return s.E.Length()
	case Habs:
		return s.H.Length()
	case AngleEx:
		return cmplx.Phase(s.E.X) / math.Pi * 180
	case AngleHy:
		return cmplx.Phase(s.H.Y) / math.Pi * 180
	}
	return math.NaN()
}
