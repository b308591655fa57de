package analyzer

import "strings"

// legacyNone lists whole values older clients send to mean "no conditions".
var legacyNone = []string{
	"None / No current conditions",
	"No current medical conditions",
	"None specified",
}

// Profile is the user's medical context. An empty list means none.
type Profile struct {
	Current   []string
	Concerned []string
}

func (p Profile) HasCurrent() bool   { return len(p.Current) > 0 }
func (p Profile) HasConcerned() bool { return len(p.Concerned) > 0 }

// ParseConditions normalizes form values into a condition list. Each value
// may hold several comma separated conditions. Blank entries, duplicates and
// the legacy "none" values are dropped; a legacy value is only dropped when it
// is the whole entry, so "Nonexistent allergy" survives.
func ParseConditions(values []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, v := range values {
		if isLegacyNone(v) {
			continue
		}
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" || isLegacyNone(part) {
				continue
			}
			key := strings.ToLower(part)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func isLegacyNone(s string) bool {
	s = strings.TrimSpace(s)
	for _, none := range legacyNone {
		if strings.EqualFold(s, none) {
			return true
		}
	}
	return false
}
