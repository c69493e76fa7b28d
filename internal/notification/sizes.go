package notification

import (
	"fmt"
	"regexp"
	"strings"
)

type Gender int

const (
	GenderMale Gender = iota
	GenderFemale
	GenderBoth
)

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	case GenderBoth:
		return "both"
	default:
		return fmt.Sprintf("gender(%d)", int(g))
	}
}

func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "men":
		return GenderMale, nil
	case "w", "f", "female", "women":
		return GenderFemale, nil
	case "", "both", "all":
		return GenderBoth, nil
	default:
		return GenderMale, fmt.Errorf("unknown size gender %q", s)
	}
}

// Store identifies the catalog a size list comes from.
type Store int

const (
	StoreNike Store = iota
)

// Size patterns capture (gender marker)(size). "M 7 / W 6.5" yields
// (M)(7) and (W)(6.5); "12.5" yields ()(12.5).
var sizePatterns = map[Store]*regexp.Regexp{
	StoreNike: regexp.MustCompile(`([MW]?) ?(\d+\.?\d*)`),
}

// SizeGroups holds sizes per gender in source order.
type SizeGroups struct {
	Male   []string
	Female []string
}

// ParseSizes groups raw size strings by gender marker. A marker applies to
// the unmarked sizes after it, also in later strings, until another marker
// appears. Only the first marker of a string carries over to the next one,
// so "M 7 / W 6.5" followed by "12.5" files 12.5 under Male. Sizes before
// any marker count as Male.
func ParseSizes(store Store, sizes []string) SizeGroups {
	var groups SizeGroups
	pattern, ok := sizePatterns[store]
	if !ok {
		return groups
	}

	carried := "M"
	for _, raw := range sizes {
		current, first := carried, ""
		for _, match := range pattern.FindAllStringSubmatch(raw, -1) {
			if match[1] != "" {
				current = match[1]
				if first == "" {
					first = match[1]
				}
			}
			if current == "W" {
				groups.Female = append(groups.Female, match[2])
			} else {
				groups.Male = append(groups.Male, match[2])
			}
		}
		if first != "" {
			carried = first
		}
	}
	return groups
}

// FormatSizes renders the groups selected by gender. An empty string means
// there is nothing to show.
func FormatSizes(groups SizeGroups, gender Gender, separator string) string {
	switch gender {
	case GenderFemale:
		return formatGroup("Women", groups.Female, separator)
	case GenderBoth:
		var parts []string
		if men := formatGroup("Men", groups.Male, separator); men != "" {
			parts = append(parts, men)
		}
		if women := formatGroup("Women", groups.Female, separator); women != "" {
			parts = append(parts, women)
		}
		return strings.Join(parts, "\n\n")
	default:
		return formatGroup("Men", groups.Male, separator)
	}
}

func formatGroup(label string, sizes []string, separator string) string {
	if len(sizes) == 0 {
		return ""
	}
	return label + "\n" + strings.Join(sizes, separator)
}
