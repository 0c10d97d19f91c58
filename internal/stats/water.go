package stats

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mmynk/weighttrack/internal/models"
)

// OzToML converts fluid ounces to whole milliliters for storage.
func OzToML(oz float64) float64 {
	return roundHalfUp(oz * models.MLPerOz)
}

// MLToOz converts milliliters to fluid ounces.
func MLToOz(ml float64) float64 {
	return ml / models.MLPerOz
}

// ToML converts an amount entered in unit into milliliters.
func ToML(amount float64, unit models.WaterUnit) float64 {
	if unit == models.WaterOz {
		return OzToML(amount)
	}
	return amount
}

// FormatWater renders ml for display: "250ml", "1.5L", "12oz" or, from 32oz
// up, cups of 8oz.
func FormatWater(ml float64, unit models.WaterUnit) string {
	if unit == models.WaterOz {
		oz := MLToOz(ml)
		if oz >= 32 {
			return fmt.Sprintf("%.1f cups", oz/8)
		}
		return fmt.Sprintf("%doz", int64(roundHalfUp(oz)))
	}
	if ml >= 1000 {
		return fmt.Sprintf("%.1fL", ml/1000)
	}
	return formatNumber(ml) + "ml"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
