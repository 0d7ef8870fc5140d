package theme

import (
	"strings"

	"github.com/lox/grlweather/internal/models"
)

// Condition is a categorized weather state used to colour a card.
type Condition string

const (
	ConditionClearWarm    Condition = "clear_warm"
	ConditionClearCool    Condition = "clear_cool"
	ConditionPartlyCloudy Condition = "partly_cloudy"
	ConditionMostlyCloudy Condition = "mostly_cloudy"
	ConditionLightRain    Condition = "light_rain"
	ConditionHeavyRain    Condition = "heavy_rain"
	ConditionStorm        Condition = "storm"
	ConditionSnow         Condition = "snow"
	ConditionFog          Condition = "fog"
	ConditionHot          Condition = "hot"
	ConditionFrost        Condition = "frost"
)

// TimeOfDay is the lighting period at the city.
type TimeOfDay string

const (
	TimeDay   TimeOfDay = "day"
	TimeNight TimeOfDay = "night"
)

// TimeOfDayFromIcon reads the day/night suffix OpenWeatherMap puts on icon codes ("01d", "10n").
func TimeOfDayFromIcon(icon string) TimeOfDay {
	if strings.HasSuffix(icon, "n") {
		return TimeNight
	}
	return TimeDay
}

// Classify determines the condition category from a decoded record.
// Temperature extremes take priority over the description.
func Classify(s models.Summary) Condition {
	lower := strings.ToLower(s.Description)

	if s.TempC >= 35 {
		return ConditionHot
	}
	if s.TempC <= 2 && !strings.Contains(lower, "snow") {
		return ConditionFrost
	}

	switch {
	case strings.Contains(lower, "thunder") || strings.Contains(lower, "storm"):
		return ConditionStorm
	case strings.Contains(lower, "snow") || strings.Contains(lower, "sleet"):
		return ConditionSnow
	case strings.Contains(lower, "heavy") && strings.Contains(lower, "rain"),
		strings.Contains(lower, "extreme rain"):
		return ConditionHeavyRain
	case strings.Contains(lower, "rain") || strings.Contains(lower, "shower") ||
		strings.Contains(lower, "drizzle"):
		return ConditionLightRain
	case strings.Contains(lower, "fog") || strings.Contains(lower, "mist") ||
		strings.Contains(lower, "haze") || strings.Contains(lower, "smoke") ||
		strings.Contains(lower, "dust") || strings.Contains(lower, "sand"):
		return ConditionFog
	case strings.Contains(lower, "overcast") || strings.Contains(lower, "broken clouds"):
		return ConditionMostlyCloudy
	case strings.Contains(lower, "cloud"):
		return ConditionPartlyCloudy
	}

	if s.TempC >= 25 {
		return ConditionClearWarm
	}
	return ConditionClearCool
}
