package geo

import (
	"errors"
	"math"
	"time"
)

// AccuracyUnknown marks a sample whose producer did not report a usable
// accuracy radius. It is never confused with a real 0m fix.
const AccuracyUnknown = -1.0

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrInvalidField      = errors.New("invalid field")
)

// RawSample is the position report as received from a producer. Required
// fields are pointers so that absence can be told apart from zero.
type RawSample struct {
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	SpeedMps   *float64  `json:"speed_mps,omitempty"`
	HeadingDeg *float64  `json:"heading_deg,omitempty"`
	BatteryPct *float64  `json:"battery_pct,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Sample is a validated, normalized position report. Immutable after
// construction.
type Sample struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AccuracyM  float64   `json:"accuracy_m"`
	SpeedMps   *float64  `json:"speed_mps,omitempty"`
	HeadingDeg *float64  `json:"heading_deg,omitempty"`
	BatteryPct *float64  `json:"battery_pct,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Normalize validates a raw report and produces a canonical sample. It is a
// pure function; monotonicity against earlier samples is checked at append
// time by the trail buffer.
func Normalize(raw RawSample) (Sample, error) {
	if raw.Latitude == nil || raw.Longitude == nil {
		return Sample{}, ErrInvalidCoordinate
	}
	lat, lng := *raw.Latitude, *raw.Longitude
	if !isFinite(lat) || !isFinite(lng) {
		return Sample{}, ErrInvalidCoordinate
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Sample{}, ErrInvalidCoordinate
	}
	if raw.Timestamp.IsZero() {
		return Sample{}, ErrInvalidTimestamp
	}

	sample := Sample{
		Latitude:  lat,
		Longitude: lng,
		AccuracyM: AccuracyUnknown,
		Timestamp: raw.Timestamp,
	}

	if raw.AccuracyM != nil && isFinite(*raw.AccuracyM) && *raw.AccuracyM >= 0 {
		sample.AccuracyM = *raw.AccuracyM
	}
	if raw.SpeedMps != nil {
		if !isFinite(*raw.SpeedMps) || *raw.SpeedMps < 0 {
			return Sample{}, ErrInvalidField
		}
		sample.SpeedMps = raw.SpeedMps
	}
	if raw.HeadingDeg != nil {
		if !isFinite(*raw.HeadingDeg) || *raw.HeadingDeg < 0 || *raw.HeadingDeg >= 360 {
			return Sample{}, ErrInvalidField
		}
		sample.HeadingDeg = raw.HeadingDeg
	}
	if raw.BatteryPct != nil {
		if !isFinite(*raw.BatteryPct) || *raw.BatteryPct < 0 || *raw.BatteryPct > 100 {
			return Sample{}, ErrInvalidField
		}
		sample.BatteryPct = raw.BatteryPct
	}

	return sample, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
