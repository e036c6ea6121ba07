package simplemenu

import (
	"fmt"
	"strings"
)

// ZoneStatus is the outcome of an operation in one zone.
type ZoneStatus string

const (
	ZoneStatusOK      ZoneStatus = "ok"
	ZoneStatusSkipped ZoneStatus = "skipped"
	ZoneStatusFailed  ZoneStatus = "failed"
)

// OutcomeStatus is the aggregate status of a multi-zone operation.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusPartial OutcomeStatus = "partial"
	StatusError   OutcomeStatus = "error"
)

// ZoneResult records what happened in a single zone.
type ZoneResult struct {
	Zone   Zone       `json:"zone"`
	Key    string     `json:"key"`
	Status ZoneStatus `json:"status"`
	Err    error      `json:"-"`
}

// Error returns the zone error message, if any.
func (r ZoneResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Outcome collects per-zone results of a multi-zone operation.
type Outcome struct {
	Op      string       `json:"op"`
	Name    string       `json:"name"`
	Target  string       `json:"target,omitempty"`
	Results []ZoneResult `json:"zones"`
}

func (o *Outcome) ok(zone Zone, key string) {
	o.Results = append(o.Results, ZoneResult{Zone: zone, Key: key, Status: ZoneStatusOK})
}

func (o *Outcome) skipped(zone Zone, key string) {
	o.Results = append(o.Results, ZoneResult{Zone: zone, Key: key, Status: ZoneStatusSkipped})
}

func (o *Outcome) failed(zone Zone, key string, err error) {
	o.Results = append(o.Results, ZoneResult{Zone: zone, Key: key, Status: ZoneStatusFailed, Err: err})
}

// Zones returns the zones that ended with status.
func (o *Outcome) Zones(status ZoneStatus) []Zone {
	var zones []Zone
	for _, r := range o.Results {
		if r.Status == status {
			zones = append(zones, r.Zone)
		}
	}
	return zones
}

// Status aggregates the zone results. Skipped zones do not count as failures;
// an operation that skipped every zone is a no-op success.
func (o *Outcome) Status() OutcomeStatus {
	succeeded := len(o.Zones(ZoneStatusOK))
	failed := len(o.Zones(ZoneStatusFailed))
	switch {
	case failed == 0:
		return StatusSuccess
	case succeeded > 0:
		return StatusPartial
	default:
		return StatusError
	}
}

// Message renders a human readable summary.
func (o *Outcome) Message() string {
	target := o.Name
	if o.Target != "" {
		target = fmt.Sprintf("%s -> %s", o.Name, o.Target)
	}
	okZones := joinZones(o.Zones(ZoneStatusOK))
	switch o.Status() {
	case StatusSuccess:
		if okZones == "" {
			return fmt.Sprintf("%s %s: nothing to do", o.Op, target)
		}
		return fmt.Sprintf("%s %s: done in %s", o.Op, target, okZones)
	case StatusPartial:
		return fmt.Sprintf("%s %s: done in %s, failed in %s", o.Op, target, okZones, joinZones(o.Zones(ZoneStatusFailed)))
	default:
		return fmt.Sprintf("%s %s: failed in %s", o.Op, target, joinZones(o.Zones(ZoneStatusFailed)))
	}
}

func joinZones(zones []Zone) string {
	names := make([]string, len(zones))
	for i, z := range zones {
		names[i] = string(z)
	}
	return strings.Join(names, ", ")
}
