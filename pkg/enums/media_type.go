package enums

import "fmt"

// MediaType identifies the physical format an article is sold in.
type MediaType string

const (
	MediaTypeVinyl    MediaType = "vinyl"
	MediaTypeCassette MediaType = "cassette"
	MediaTypeCD       MediaType = "cd"
)

var validMediaTypes = []MediaType{
	MediaTypeVinyl,
	MediaTypeCassette,
	MediaTypeCD,
}

// String implements fmt.Stringer.
func (m MediaType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MediaType.
func (m MediaType) IsValid() bool {
	for _, candidate := range validMediaTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMediaType converts raw input into a MediaType.
func ParseMediaType(value string) (MediaType, error) {
	for _, candidate := range validMediaTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media type %q", value)
}
