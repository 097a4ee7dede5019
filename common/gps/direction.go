package gps

import "math"

var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Direction names the compass octant of a bearing in degrees. Each octant
// is 45 degrees wide and centered on its point, so "N" covers
// [337.5, 360) and [0, 22.5).
func Direction(bearing float64) string {
	if math.IsNaN(bearing) || math.IsInf(bearing, 0) {
		return compassPoints[0]
	}
	b := math.Mod(bearing, 360)
	if b < 0 {
		b += 360
	}
	i := int(math.Floor((b+22.5)/45)) % len(compassPoints)
	return compassPoints[i]
}
