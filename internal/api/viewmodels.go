package api

import (
	"github.com/lox/grlweather/internal/cities"
	"github.com/lox/grlweather/internal/imagegen"
	"github.com/lox/grlweather/internal/models"
	"github.com/lox/grlweather/internal/theme"
)

// CardView is one weather card on the dashboard.
type CardView struct {
	Index      int
	City       string
	Collection cities.Collection
	State      cities.State
	Summary    *models.Summary
	Error      string
	Palette    theme.Palette
}

type IndexData struct {
	Defaults     []CardView
	Searched     []CardView
	DefaultNames []string
}

func cardViews(snap cities.Snapshot, coll cities.Collection) []CardView {
	cards := snap.Cards(coll)
	views := make([]CardView, 0, len(cards))
	for _, c := range cards {
		v := CardView{
			Index:      c.Index,
			City:       c.City,
			Collection: coll,
			State:      c.Status.State,
			Error:      c.Status.Error,
			Palette:    theme.DefaultPalette,
		}
		if c.Status.State == cities.Ready {
			if sum, err := c.Status.Data.Summary(); err == nil {
				v.Summary = &sum
				v.Palette = theme.ForSummary(sum)
			} else {
				v.State = cities.Error
				v.Error = "Weather data could not be read."
			}
		}
		views = append(views, v)
	}
	return views
}

func summaryRows(views []CardView) []imagegen.Row {
	rows := make([]imagegen.Row, 0, len(views))
	for _, v := range views {
		row := imagegen.Row{City: v.City}
		switch v.State {
		case cities.Ready:
			row.Temperature = v.Summary.TempC
			row.HasTemperature = true
			row.Detail = v.Summary.Description
		case cities.Error:
			row.Detail = v.Error
			row.Failed = true
		default:
			row.Detail = "Loading…"
		}
		if row.City == "" {
			row.City = "(empty)"
		}
		rows = append(rows, row)
	}
	return rows
}
