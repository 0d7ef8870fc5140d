package cities

import (
	"strings"
	"time"

	"github.com/lox/grlweather/internal/models"
)

// Collection names one of the two independent status mappings.
type Collection string

const (
	Default  Collection = "default"
	Searched Collection = "searched"
)

func (c Collection) Valid() bool {
	return c == Default || c == Searched
}

type State string

const (
	Loading State = "loading"
	Ready   State = "ready"
	Error   State = "error"
)

// Status is the latest known state of a city's weather fetch.
// Data is set only when Ready, Error only when State is Error.
type Status struct {
	State     State                `json:"status"`
	Data      models.WeatherRecord `json:"data,omitempty"`
	Error     string               `json:"error,omitempty"`
	Seq       uint64               `json:"seq"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Key is the mapping identifier for a city name. Names differing only in case share a key.
func Key(name string) string {
	return strings.ToLower(name)
}

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	Defaults []string                          `json:"defaults"`
	Searched []string                          `json:"searched"`
	Statuses map[Collection]map[string]Status `json:"statuses"`
}

// Card pairs a listed city with its current status.
type Card struct {
	Index  int    `json:"index"`
	City   string `json:"city"`
	Key    string `json:"key"`
	Status Status `json:"status"`
}

// Cards lists the collection's cities in order. A city with no entry yet shows as Loading.
func (s Snapshot) Cards(coll Collection) []Card {
	names := s.Defaults
	if coll == Searched {
		names = s.Searched
	}

	cards := make([]Card, 0, len(names))
	for i, name := range names {
		key := Key(name)
		st, ok := s.Statuses[coll][key]
		if !ok {
			st = Status{State: Loading}
		}
		cards = append(cards, Card{Index: i, City: name, Key: key, Status: st})
	}
	return cards
}
