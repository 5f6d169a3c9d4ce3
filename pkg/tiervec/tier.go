package tiervec

import "fmt"

// Tier identifies which capacity class currently backs a Vec.
type Tier int

const (
	TierSmall Tier = iota
	TierMedium
	TierLarge
)

// Capacity ceilings per tier. Large has no ceiling; largeInitialCap is only
// the capacity its backing store is allocated with on entry.
const (
	smallCeiling    = 4
	mediumCeiling   = 16
	largeInitialCap = 64
)

func (t Tier) String() string {
	switch t {
	case TierSmall:
		return "small"
	case TierMedium:
		return "medium"
	case TierLarge:
		return "large"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Ceiling returns the maximum number of elements the tier holds before the
// next push forces a transition. The second result is false for TierLarge,
// which grows without further transitions.
func (t Tier) Ceiling() (int, bool) {
	switch t {
	case TierSmall:
		return smallCeiling, true
	case TierMedium:
		return mediumCeiling, true
	default:
		return 0, false
	}
}

// next returns the tier a full t migrates into and the capacity to allocate.
func (t Tier) next() (Tier, int) {
	switch t {
	case TierSmall:
		return TierMedium, mediumCeiling
	default:
		return TierLarge, largeInitialCap
	}
}

func (t Tier) MarshalText() ([]byte, error) {
	switch t {
	case TierSmall, TierMedium, TierLarge:
		return []byte(t.String()), nil
	}
	return nil, fmt.Errorf("invalid tier %d", int(t))
}

func (t *Tier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "small":
		*t = TierSmall
	case "medium":
		*t = TierMedium
	case "large":
		*t = TierLarge
	default:
		return fmt.Errorf("invalid tier %q", string(b))
	}
	return nil
}
