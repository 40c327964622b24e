package domain

import "fmt"

// Generation is the relative depth of a downline member below the viewer.
type Generation int

const (
	GenerationBeyond Generation = iota
	GenerationDirect
	GenerationGrandchild
	GenerationGreatGrandchild
)

// MaxCommissionDepth is the deepest generation that ever pays commission.
const MaxCommissionDepth = 3

var generationRates = map[Generation]float64{
	GenerationDirect:          0.08,
	GenerationGrandchild:      0.12,
	GenerationGreatGrandchild: 0.20,
}

func GenerationForDepth(depth int) Generation {
	switch depth {
	case 1:
		return GenerationDirect
	case 2:
		return GenerationGrandchild
	case 3:
		return GenerationGreatGrandchild
	default:
		return GenerationBeyond
	}
}

func (g Generation) Rate() float64 {
	return generationRates[g]
}

func (g Generation) Depth() int {
	if g == GenerationBeyond {
		return 0
	}
	return int(g)
}

func (g Generation) String() string {
	switch g {
	case GenerationDirect:
		return "direct"
	case GenerationGrandchild:
		return "grandchild"
	case GenerationGreatGrandchild:
		return "great_grandchild"
	default:
		return "beyond"
	}
}

// Label is the name agents see on the dashboard.
func (g Generation) Label() string {
	switch g {
	case GenerationDirect:
		return "hijo"
	case GenerationGrandchild:
		return "nieto"
	case GenerationGreatGrandchild:
		return "bisnieto"
	default:
		return ""
	}
}

func (g Generation) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Generation) UnmarshalText(raw []byte) error {
	switch string(raw) {
	case "direct":
		*g = GenerationDirect
	case "grandchild":
		*g = GenerationGrandchild
	case "great_grandchild":
		*g = GenerationGreatGrandchild
	case "beyond", "":
		*g = GenerationBeyond
	default:
		return fmt.Errorf("%w: unknown generation %q", ErrValidation, raw)
	}
	return nil
}
