package theme

import (
	"testing"

	"github.com/lox/grlweather/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		desc string
		temp float64
		want Condition
	}{
		{"hot overrides description", "light rain", 38, ConditionHot},
		{"frost when cold and clear", "clear sky", 1, ConditionFrost},
		{"snow is not frost", "light snow", -3, ConditionSnow},
		{"thunderstorm", "thunderstorm with rain", 22, ConditionStorm},
		{"heavy rain", "heavy intensity rain", 18, ConditionHeavyRain},
		{"drizzle", "light intensity drizzle", 14, ConditionLightRain},
		{"mist", "mist", 12, ConditionFog},
		{"haze", "haze", 30, ConditionFog},
		{"overcast", "overcast clouds", 16, ConditionMostlyCloudy},
		{"broken clouds", "broken clouds", 16, ConditionMostlyCloudy},
		{"scattered clouds", "scattered clouds", 16, ConditionPartlyCloudy},
		{"clear warm", "clear sky", 28, ConditionClearWarm},
		{"clear cool", "clear sky", 12, ConditionClearCool},
		{"empty description", "", 20, ConditionClearCool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(models.Summary{Description: tt.desc, TempC: tt.temp})
			if got != tt.want {
				t.Errorf("Classify(%q, %.0f) = %s, want %s", tt.desc, tt.temp, got, tt.want)
			}
		})
	}
}

func TestTimeOfDayFromIcon(t *testing.T) {
	if got := TimeOfDayFromIcon("01n"); got != TimeNight {
		t.Errorf("01n = %s, want night", got)
	}
	if got := TimeOfDayFromIcon("10d"); got != TimeDay {
		t.Errorf("10d = %s, want day", got)
	}
	if got := TimeOfDayFromIcon(""); got != TimeDay {
		t.Errorf("empty = %s, want day", got)
	}
}

func TestGetPalette_AllConditionsCovered(t *testing.T) {
	conditions := []Condition{
		ConditionClearWarm, ConditionClearCool, ConditionPartlyCloudy, ConditionMostlyCloudy,
		ConditionLightRain, ConditionHeavyRain, ConditionStorm, ConditionSnow,
		ConditionFog, ConditionHot, ConditionFrost,
	}
	for _, c := range conditions {
		for _, tod := range []TimeOfDay{TimeDay, TimeNight} {
			if p := GetPalette(c, tod); p == DefaultPalette {
				t.Errorf("no palette for %s_%s", c, tod)
			}
		}
	}
	if p := GetPalette("unknown", TimeDay); p != DefaultPalette {
		t.Errorf("unknown condition = %+v, want default", p)
	}
}

func TestForSummary(t *testing.T) {
	p := ForSummary(models.Summary{Description: "clear sky", TempC: 30, Icon: "01n"})
	if p != palettes["clear_warm_night"] {
		t.Errorf("palette = %+v, want clear_warm_night", p)
	}
}
