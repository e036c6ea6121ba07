package simplemenu

import (
	"sort"

	"github.com/tendant/simple-menu/pkg/simplemenu/objectkey"
	"github.com/tendant/simple-menu/pkg/simplemenu/visibility"
)

// Visibility is the flag record attached to every menu item.
type Visibility = visibility.Record

// VisibilitySource resolves the flags of a menu item, returning defaults for
// items without a stored record.
type VisibilitySource interface {
	Get(name string) Visibility
}

// BuildCatalog joins the zone listings of snap by base name, attaches the
// visibility flags of every item and splits the result into render buckets.
//
// Within a zone a later object with the same base name overwrites the URL
// only. Items are ordered newest first by the latest timestamp over their
// zones; ties keep first-seen order.
func BuildCatalog(snap *Snapshot, flags VisibilitySource) *Catalog {
	catalog := &Catalog{}
	if snap == nil {
		return catalog
	}
	catalog.FetchedAt = snap.FetchedAt

	byName := make(map[string]*MenuItem)
	var order []string

	for _, zone := range Zones {
		for _, obj := range snap.Listings[zone] {
			name, ok := objectkey.BaseName(string(zone), obj.Key)
			if !ok {
				continue
			}
			item, exists := byName[name]
			if !exists {
				item = &MenuItem{Name: name, URLs: make(map[Zone]string)}
				byName[name] = item
				order = append(order, name)
			}
			item.URLs[zone] = obj.URL
			if obj.UpdatedAt.After(item.CreatedAt) {
				item.CreatedAt = obj.UpdatedAt
			}
		}
	}

	items := make([]MenuItem, 0, len(order))
	for _, name := range order {
		item := byName[name]
		if flags != nil {
			item.Visibility = flags.Get(name)
		} else {
			item.Visibility = visibility.DefaultRecord()
		}
		items = append(items, *item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	for _, item := range items {
		v := item.Visibility
		if v.ShowNormalWatermarked && item.Has(ZoneWatermarked) {
			catalog.NormalWatermarked = append(catalog.NormalWatermarked, item)
		}
		if v.ShowNormalClean && item.Has(ZoneClean) {
			catalog.NormalClean = append(catalog.NormalClean, item)
		}
		if v.ShowPremiumWatermarked && item.Has(ZoneWatermarked) {
			catalog.PremiumWatermarked = append(catalog.PremiumWatermarked, item)
		}
		if v.ShowPremiumClean && (item.Has(ZonePremium) || item.Has(ZoneClean)) {
			catalog.PremiumClean = append(catalog.PremiumClean, item)
		}
	}
	catalog.Items = items

	return catalog
}
