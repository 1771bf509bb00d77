package astro

import (
	"fmt"
	"math"
	"strings"
)

const (
	// AU is the Astronomical Unit in kilometers.
	AU = 149597870.7

	// C is the speed of light in km/s.
	C = 299792.458

	// SecondsPerDay is the length of a Julian day.
	SecondsPerDay = 86400.0

	// DaysPerCentury is the length of a Julian century.
	DaysPerCentury = 36525.0
)

// KmToAU converts kilometers to Astronomical Units.
func KmToAU(km float64) float64 {
	return km / AU
}

// AUToKm converts Astronomical Units to kilometers.
func AUToKm(au float64) float64 {
	return au * AU
}

// LightTime returns the one-way light time in seconds for a distance in km.
func LightTime(km float64) float64 {
	return km / C
}

// FormatLightTime formats light time in seconds to a human-readable string.
func FormatLightTime(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	if seconds < 3600 {
		mins := int(seconds / 60)
		secs := int(seconds) % 60
		return fmt.Sprintf("%dm%ds", mins, secs)
	}
	hours := int(seconds / 3600)
	mins := (int(seconds) % 3600) / 60
	return fmt.Sprintf("%dh%dm", hours, mins)
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Downlink carrier frequencies in MHz.
const (
	FreqSBand  = 2295.0
	FreqXBand  = 8420.0
	FreqKaBand = 32000.0
)

// BandFrequency returns the downlink carrier of a band name (S, X or Ka).
func BandFrequency(band string) (float64, bool) {
	switch strings.ToUpper(band) {
	case "S":
		return FreqSBand, true
	case "X":
		return FreqXBand, true
	case "KA":
		return FreqKaBand, true
	}
	return 0, false
}

// DopplerShift returns the first-order one-way shift in Hz of a carrier
// for a line-of-sight range rate in km/s. Receding sources shift down.
func DopplerShift(rangeRateKmS, carrierMHz float64) float64 {
	return -carrierMHz * 1e6 * rangeRateKmS / C
}

// FormatDopplerShift formats a shift in Hz, switching to kHz above 1 kHz.
func FormatDopplerShift(hz float64) string {
	if math.Abs(hz) >= 1000 {
		return fmt.Sprintf("%.2f kHz", hz/1000)
	}
	return fmt.Sprintf("%.1f Hz", hz)
}
