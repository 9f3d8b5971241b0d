package types

import "strings"

// Kind classifies a logical item. The set is closed: transition logic
// switches exhaustively over these three values.
type Kind int

const (
	// KindNormal is a plain open document tracked only through a
	// workspace's NormalDocumentIDs and the tab mapping.
	KindNormal Kind = iota
	// KindPinned is a pinned item inside the current workspace.
	KindPinned
	// KindFavorite is a global favorite.
	KindFavorite
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindPinned:
		return "pinned"
	case KindFavorite:
		return "favorite"
	default:
		return "unknown"
	}
}

// ParseKind parses a wire name into a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "normal":
		return KindNormal, true
	case "pinned":
		return KindPinned, true
	case "favorite":
		return KindFavorite, true
	}
	return KindNormal, false
}

// DefaultFavicon is a small gray globe used when a document exposes no
// usable favicon.
const DefaultFavicon = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHdpZHRoPSIxNiIgaGVpZ2h0PSIxNiIgdmlld0JveD0iMCAwIDE2IDE2Ij48Y2lyY2xlIGN4PSI4IiBjeT0iOCIgcj0iNyIgZmlsbD0ibm9uZSIgc3Ryb2tlPSIjODg4IiBzdHJva2Utd2lkdGg9IjEuNSIvPjxwYXRoIGQ9Ik04IDFjMi41IDAgNC41IDMuMSA0LjUgN3MtMiA3LTQuNSA3LTQuNS0zLjEtNC41LTcgMi03IDQuNS03eiIgZmlsbD0ibm9uZSIgc3Ryb2tlPSIjODg4IiBzdHJva2Utd2lkdGg9IjEuNSIvPjxwYXRoIGQ9Ik0xIDhoMTQiIHN0cm9rZT0iIzg4OCIgc3Ryb2tlLXdpZHRoPSIxLjUiLz48L3N2Zz4="

// internalSchemes are host-internal pages that cannot be reopened from a
// stored address and are excluded from switch snapshots.
var internalSchemes = []string{"chrome://", "about:", "edge://", "brave://"}

// IsInternalURL reports whether the address denotes a host-internal page.
func IsInternalURL(url string) bool {
	for _, scheme := range internalSchemes {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}

// SafeFavicon picks a usable favicon for an address. Favicons served from
// internal pages are replaced with the default.
func SafeFavicon(url, favicon string) string {
	if favicon != "" && !IsInternalURL(favicon) {
		return favicon
	}
	if IsInternalURL(url) {
		return DefaultFavicon
	}
	if favicon != "" {
		return favicon
	}
	return DefaultFavicon
}
