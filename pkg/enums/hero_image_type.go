package enums

import (
	"fmt"
	"strings"
)

// HeroImageType selects which storefront banner slot an upload fills.
type HeroImageType string

const (
	HeroImageLandscape HeroImageType = "landscape"
	HeroImagePortrait  HeroImageType = "portrait"
)

var validHeroImageTypes = []HeroImageType{
	HeroImageLandscape,
	HeroImagePortrait,
}

func (h HeroImageType) String() string {
	return string(h)
}

func (h HeroImageType) IsValid() bool {
	for _, candidate := range validHeroImageTypes {
		if candidate == h {
			return true
		}
	}
	return false
}

// ParseHeroImageType is case-insensitive.
func ParseHeroImageType(value string) (HeroImageType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validHeroImageTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid hero image type %q", value)
}
