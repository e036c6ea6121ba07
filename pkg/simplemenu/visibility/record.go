// Package visibility keeps the per-menu-item visibility flags and persists
// them redundantly: to a local JSON file, to a sidecar object in the remote
// store, and optionally to a Postgres table.
package visibility

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentVersion is the document version written by Encode.
const CurrentVersion = 1

// ErrUnsupportedVersion is returned for documents newer than CurrentVersion.
var ErrUnsupportedVersion = errors.New("unsupported visibility document version")

// Record holds the four independent visibility flags of a menu item.
type Record struct {
	ShowNormalWatermarked  bool `json:"show_normal_watermarked"`
	ShowNormalClean        bool `json:"show_normal_clean"`
	ShowPremiumWatermarked bool `json:"show_premium_watermarked"`
	ShowPremiumClean       bool `json:"show_premium_clean"`
}

// DefaultRecord is assumed for items without a stored record: visible in the
// normal view, hidden from the premium view.
func DefaultRecord() Record {
	return Record{
		ShowNormalWatermarked:  true,
		ShowNormalClean:        true,
		ShowPremiumWatermarked: false,
		ShowPremiumClean:       false,
	}
}

// storedRecord is the on-disk form. Absent flags stay nil until migrate fills
// them from DefaultRecord.
type storedRecord struct {
	ShowNormalWatermarked  *bool `json:"show_normal_watermarked,omitempty"`
	ShowNormalClean        *bool `json:"show_normal_clean,omitempty"`
	ShowPremiumWatermarked *bool `json:"show_premium_watermarked,omitempty"`
	ShowPremiumClean       *bool `json:"show_premium_clean,omitempty"`
}

func (s storedRecord) migrate() Record {
	r := DefaultRecord()
	if s.ShowNormalWatermarked != nil {
		r.ShowNormalWatermarked = *s.ShowNormalWatermarked
	}
	if s.ShowNormalClean != nil {
		r.ShowNormalClean = *s.ShowNormalClean
	}
	if s.ShowPremiumWatermarked != nil {
		r.ShowPremiumWatermarked = *s.ShowPremiumWatermarked
	}
	if s.ShowPremiumClean != nil {
		r.ShowPremiumClean = *s.ShowPremiumClean
	}
	return r
}

// document is the persisted payload. Version 0 is the legacy shape without a
// version key.
type document struct {
	Version int                        `json:"version"`
	Menus   map[string]json.RawMessage `json:"menus"`
}

// Decode parses a visibility document of any supported version.
func Decode(data []byte) (map[string]Record, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode visibility document: %w", err)
	}
	if doc.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	records := make(map[string]Record, len(doc.Menus))
	for name, raw := range doc.Menus {
		var stored storedRecord
		if err := json.Unmarshal(raw, &stored); err != nil {
			return nil, fmt.Errorf("decode visibility record %q: %w", name, err)
		}
		records[name] = stored.migrate()
	}
	return records, nil
}

// Encode renders records as a current-version document.
func Encode(records map[string]Record) ([]byte, error) {
	out := struct {
		Version int               `json:"version"`
		Menus   map[string]Record `json:"menus"`
	}{
		Version: CurrentVersion,
		Menus:   records,
	}
	if out.Menus == nil {
		out.Menus = map[string]Record{}
	}
	return json.MarshalIndent(out, "", "  ")
}
