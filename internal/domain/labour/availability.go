package labour

import (
	"fmt"
	"strings"
)

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the fixed availability keys in display order.
var Weekdays = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func ParseWeekday(s string) (Weekday, error) {
	day := Weekday(strings.ToLower(strings.TrimSpace(s)))
	for _, d := range Weekdays {
		if d == day {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWeekday, s)
}

// Availability is a weekly set of independent flags. Being a struct, all
// seven keys are always present.
type Availability struct {
	Monday    bool `json:"monday" bson:"monday"`
	Tuesday   bool `json:"tuesday" bson:"tuesday"`
	Wednesday bool `json:"wednesday" bson:"wednesday"`
	Thursday  bool `json:"thursday" bson:"thursday"`
	Friday    bool `json:"friday" bson:"friday"`
	Saturday  bool `json:"saturday" bson:"saturday"`
	Sunday    bool `json:"sunday" bson:"sunday"`
}

func (a *Availability) field(day Weekday) *bool {
	switch day {
	case Monday:
		return &a.Monday
	case Tuesday:
		return &a.Tuesday
	case Wednesday:
		return &a.Wednesday
	case Thursday:
		return &a.Thursday
	case Friday:
		return &a.Friday
	case Saturday:
		return &a.Saturday
	case Sunday:
		return &a.Sunday
	}
	return nil
}

// Get reports the flag for day; unknown days read as unavailable.
func (a Availability) Get(day Weekday) bool {
	if f := a.field(day); f != nil {
		return *f
	}
	return false
}

// Toggle returns a copy with exactly the flag for day flipped. An unknown
// day returns the set unchanged.
func (a Availability) Toggle(day Weekday) Availability {
	if f := a.field(day); f != nil {
		*f = !*f
	}
	return a
}

type DayAvailability struct {
	Day       Weekday `json:"day"`
	Available bool    `json:"available"`
}

func (a Availability) Days() []DayAvailability {
	out := make([]DayAvailability, 0, len(Weekdays))
	for _, d := range Weekdays {
		out = append(out, DayAvailability{Day: d, Available: a.Get(d)})
	}
	return out
}
