package enums

import "fmt"

// PromotionType distinguishes how a CD promotion selects eligible articles.
// Genre promotions are scoped to one genre; random promotions apply to any
// CD bundle up to the item cap.
type PromotionType string

const (
	PromotionTypeGenre  PromotionType = "genre"
	PromotionTypeRandom PromotionType = "random"
)

var validPromotionTypes = []PromotionType{
	PromotionTypeGenre,
	PromotionTypeRandom,
}

// String implements fmt.Stringer.
func (p PromotionType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromotionType.
func (p PromotionType) IsValid() bool {
	for _, candidate := range validPromotionTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionType converts raw input into a PromotionType.
func ParsePromotionType(value string) (PromotionType, error) {
	for _, candidate := range validPromotionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion type %q", value)
}
