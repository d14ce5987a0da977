package enums

import "fmt"

// BannerPlacement names the storefront slot a banner renders into.
type BannerPlacement string

const (
	BannerPlacementHero     BannerPlacement = "hero"
	BannerPlacementSidebar  BannerPlacement = "sidebar"
	BannerPlacementCheckout BannerPlacement = "checkout"
)

var validBannerPlacements = []BannerPlacement{
	BannerPlacementHero,
	BannerPlacementSidebar,
	BannerPlacementCheckout,
}

// String implements fmt.Stringer.
func (b BannerPlacement) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BannerPlacement.
func (b BannerPlacement) IsValid() bool {
	for _, candidate := range validBannerPlacements {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBannerPlacement converts raw input into a BannerPlacement.
func ParseBannerPlacement(value string) (BannerPlacement, error) {
	for _, candidate := range validBannerPlacements {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid banner placement %q", value)
}
