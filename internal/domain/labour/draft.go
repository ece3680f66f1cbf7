package labour

import "fmt"

type ActionKind string

const (
	ActionSetName            ActionKind = "set_name"
	ActionSetContact         ActionKind = "set_contact"
	ActionSetCharges         ActionKind = "set_charges"
	ActionSetLocation        ActionKind = "set_location"
	ActionAddSkill           ActionKind = "add_skill"
	ActionRemoveSkill        ActionKind = "remove_skill"
	ActionToggleAvailability ActionKind = "toggle_availability"
)

// Action is a single edit applied to a draft. Only the field matching Kind
// is read.
type Action struct {
	Kind    ActionKind
	Value   string
	Charges float64
	Day     Weekday
}

func SetName(v string) Action { return Action{Kind: ActionSetName, Value: v} }
func SetContact(v string) Action { return Action{Kind: ActionSetContact, Value: v} }
func SetLocation(v string) Action { return Action{Kind: ActionSetLocation, Value: v} }
func SetCharges(v float64) Action { return Action{Kind: ActionSetCharges, Charges: v} }
func AddSkill(v string) Action { return Action{Kind: ActionAddSkill, Value: v} }
func RemoveSkill(v string) Action { return Action{Kind: ActionRemoveSkill, Value: v} }
func ToggleAvailability(d Weekday) Action { return Action{Kind: ActionToggleAvailability, Day: d} }

// Reduce applies a to p and returns the next revision. p is left untouched.
func Reduce(p Profile, a Action) (Profile, error) {
	next := p.Clone()

	switch a.Kind {
	case ActionSetName:
		next.Name = a.Value
	case ActionSetContact:
		next.Contact = a.Value
	case ActionSetLocation:
		next.Location = a.Value
	case ActionSetCharges:
		if a.Charges < 0 {
			return p, ErrNegativeCharges
		}
		next.Charges = a.Charges
	case ActionAddSkill:
		next.Skills = p.Skills.Add(a.Value)
	case ActionRemoveSkill:
		next.Skills = p.Skills.Remove(a.Value)
	case ActionToggleAvailability:
		day, err := ParseWeekday(string(a.Day))
		if err != nil {
			return p, err
		}
		next.Availability = p.Availability.Toggle(day)
	default:
		return p, fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}

	return next, nil
}

// ReduceAll applies actions in order and stops at the first failure,
// returning the original profile in that case.
func ReduceAll(p Profile, actions ...Action) (Profile, error) {
	next := p
	for i, a := range actions {
		var err error
		next, err = Reduce(next, a)
		if err != nil {
			return p, fmt.Errorf("action %d: %w", i, err)
		}
	}
	return next, nil
}
