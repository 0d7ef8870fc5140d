package theme

import "github.com/lox/grlweather/internal/models"

// Palette is the colour scheme for one card.
type Palette struct {
	Card       string
	CardBorder string
	Accent     string
}

// DefaultPalette is used for loading and error cards.
var DefaultPalette = Palette{
	Card:       "#1a1a2e",
	CardBorder: "#2a2a4e",
	Accent:     "#4fc3f7",
}

var palettes = map[string]Palette{
	"clear_warm_day":      {Card: "#3a3022", CardBorder: "#8a6430", Accent: "#ffaa66"},
	"clear_warm_night":    {Card: "#221c24", CardBorder: "#4a3848", Accent: "#dd9966"},
	"clear_cool_day":      {Card: "#1e3048", CardBorder: "#3c6090", Accent: "#7cc4ff"},
	"clear_cool_night":    {Card: "#121a2c", CardBorder: "#26385a", Accent: "#7090cc"},
	"partly_cloudy_day":   {Card: "#26324a", CardBorder: "#4a6088", Accent: "#a0c4f0"},
	"partly_cloudy_night": {Card: "#161c2a", CardBorder: "#2c3850", Accent: "#8098c0"},
	"mostly_cloudy_day":   {Card: "#2a2e36", CardBorder: "#4c525e", Accent: "#b0b8c8"},
	"mostly_cloudy_night": {Card: "#1a1c22", CardBorder: "#30343e", Accent: "#8890a0"},
	"light_rain_day":      {Card: "#1e2a36", CardBorder: "#36506a", Accent: "#6ab0e0"},
	"light_rain_night":    {Card: "#121a22", CardBorder: "#243444", Accent: "#5088b0"},
	"heavy_rain_day":      {Card: "#18222e", CardBorder: "#2c4058", Accent: "#4a90d0"},
	"heavy_rain_night":    {Card: "#0e141c", CardBorder: "#1c2a3a", Accent: "#3a70a8"},
	"storm_day":           {Card: "#221e2e", CardBorder: "#4a3c66", Accent: "#b088ff"},
	"storm_night":         {Card: "#14101c", CardBorder: "#2e2444", Accent: "#9070dd"},
	"snow_day":            {Card: "#2c3440", CardBorder: "#8898b0", Accent: "#e8f0ff"},
	"snow_night":          {Card: "#1a2028", CardBorder: "#4c5a70", Accent: "#c0d0e8"},
	"fog_day":             {Card: "#2c2e30", CardBorder: "#56595c", Accent: "#c8c8c0"},
	"fog_night":           {Card: "#18191a", CardBorder: "#343638", Accent: "#909088"},
	"hot_day":             {Card: "#40241a", CardBorder: "#a04a28", Accent: "#ff7043"},
	"hot_night":           {Card: "#2a1a16", CardBorder: "#6a3424", Accent: "#e06040"},
	"frost_day":           {Card: "#1c2c3c", CardBorder: "#5080a8", Accent: "#b0e0ff"},
	"frost_night":         {Card: "#0a1018", CardBorder: "#203044", Accent: "#7098c0"},
}

// GetPalette returns the palette for a condition and time of day.
func GetPalette(condition Condition, tod TimeOfDay) Palette {
	if p, ok := palettes[string(condition)+"_"+string(tod)]; ok {
		return p
	}
	return DefaultPalette
}

// ForSummary classifies s and returns its palette.
func ForSummary(s models.Summary) Palette {
	return GetPalette(Classify(s), TimeOfDayFromIcon(s.Icon))
}
