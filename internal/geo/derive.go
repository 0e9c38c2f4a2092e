package geo

import "math"

var compassSectors = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// SpeedKmh converts a reported speed in m/s to km/h for display.
func SpeedKmh(mps float64) float64 {
	return mps * 3.6
}

// HeadingBucket maps a heading in degrees onto one of 8 compass sectors.
// 359 degrees rounds back to N.
func HeadingBucket(deg float64) string {
	sector := int(math.Round(deg/45)) % 8
	return compassSectors[sector]
}
