package simplemenu

import (
	"io"
	"time"

	"github.com/tendant/simple-menu/pkg/simplemenu/objectkey"
	"github.com/tendant/simple-menu/pkg/simplemenu/visibility"
)

// Zone is one of the fixed path prefixes menu images are stored under.
type Zone string

// Zone constants. Watermarked and clean make up the normal tier; premium
// holds the premium tier's exclusive artwork.
const (
	ZoneWatermarked Zone = "watermarked"
	ZoneClean       Zone = "clean"
	ZonePremium     Zone = "premium"
)

// Zones lists every zone in catalog merge order.
var Zones = []Zone{ZoneWatermarked, ZoneClean, ZonePremium}

// Valid reports whether z is a known zone.
func (z Zone) Valid() bool {
	for _, known := range Zones {
		if z == known {
			return true
		}
	}
	return false
}

// Prefix returns the listing prefix of the zone.
func (z Zone) Prefix() string {
	return objectkey.Prefix(string(z))
}

// Key returns the object key of name in the zone.
func (z Zone) Key(name string) string {
	return objectkey.Key(string(z), name)
}

// ParseZone converts a string to a Zone.
func ParseZone(s string) (Zone, error) {
	z := Zone(s)
	if !z.Valid() {
		return "", &ValidationError{Field: "zone", Reason: "unknown zone " + s}
	}
	return z, nil
}

// ZoneListing is the ordered list of objects under one zone prefix.
type ZoneListing []ObjectMeta

// Snapshot holds the listings of every zone, fetched together.
type Snapshot struct {
	Listings  map[Zone]ZoneListing
	FetchedAt time.Time
}

// MenuItem is a menu entry reconstructed from its zone images.
type MenuItem struct {
	Name       string            `json:"name"`
	URLs       map[Zone]string   `json:"urls"`
	CreatedAt  time.Time         `json:"created_at"`
	Visibility visibility.Record `json:"visibility"`
}

// Has reports whether the item has an image in zone.
func (m MenuItem) Has(zone Zone) bool {
	_, ok := m.URLs[zone]
	return ok
}

// WatermarkedURL returns the watermarked image URL, if any.
func (m MenuItem) WatermarkedURL() string { return m.URLs[ZoneWatermarked] }

// CleanURL returns the clean image URL, if any.
func (m MenuItem) CleanURL() string { return m.URLs[ZoneClean] }

// PremiumURL returns the premium image URL, if any.
func (m MenuItem) PremiumURL() string { return m.URLs[ZonePremium] }

// PremiumCleanURL returns the image shown in the premium clean view:
// the premium artwork when present, otherwise the clean image.
func (m MenuItem) PremiumCleanURL() string {
	if url, ok := m.URLs[ZonePremium]; ok {
		return url
	}
	return m.URLs[ZoneClean]
}

// Catalog is the render-ready view of all menu items.
type Catalog struct {
	Items              []MenuItem `json:"items"`
	NormalWatermarked  []MenuItem `json:"normal_watermarked"`
	NormalClean        []MenuItem `json:"normal_clean"`
	PremiumWatermarked []MenuItem `json:"premium_watermarked"`
	PremiumClean       []MenuItem `json:"premium_clean"`
	FetchedAt          time.Time  `json:"fetched_at"`
}

// UploadFile is one file of an upload batch.
type UploadFile struct {
	Filename string
	// Size is the declared size in bytes; 0 means unknown.
	Size   int64
	Reader io.Reader
}

// UploadRequest uploads one or more images into a zone.
type UploadRequest struct {
	Zone       Zone
	CustomName string
	Files      []UploadFile
}

// UploadResult describes a stored image.
type UploadResult struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	Size int    `json:"size"`
}

// ReplaceRequest overwrites an existing image.
type ReplaceRequest struct {
	Zone Zone
	Name string
	File UploadFile
}
