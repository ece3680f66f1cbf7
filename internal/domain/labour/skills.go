package labour

// Skills is an ordered set of free-text tags. Equality is case sensitive.
type Skills []string

func (s Skills) Contains(skill string) bool {
	for _, existing := range s {
		if existing == skill {
			return true
		}
	}
	return false
}

// Add appends skill when it is non-empty and not yet present. The receiver
// is never modified.
func (s Skills) Add(skill string) Skills {
	if skill == "" || s.Contains(skill) {
		return s.clone()
	}
	out := make(Skills, len(s), len(s)+1)
	copy(out, s)
	return append(out, skill)
}

func (s Skills) Remove(skill string) Skills {
	out := make(Skills, 0, len(s))
	for _, existing := range s {
		if existing != skill {
			out = append(out, existing)
		}
	}
	return out
}

func (s Skills) clone() Skills {
	out := make(Skills, len(s))
	copy(out, s)
	return out
}
