package provision

import (
	"context"
	"strconv"
	"strings"
	"unicode"
)

// BaseUsername derives the canonical username stem from a person's name:
// "first.last", lowercased, with anything that is not a letter or digit
// stripped from each part.
func BaseUsername(firstName, lastName string) string {
	return sanitizeNamePart(firstName) + "." + sanitizeNamePart(lastName)
}

func sanitizeNamePart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NextUsername picks the first free username for base given the principal
// names already present in the directory. The bare base counts as suffix
// zero: with "jane.doe" and "jane.doe1" taken the next allocation is
// "jane.doe2". Principal names may carry a domain; only the local part is
// considered, and names that are not base followed by digits are ignored.
func NextUsername(base string, existing []string) string {
	taken := false
	highest := 0

	for _, name := range existing {
		local := name
		if at := strings.IndexByte(local, '@'); at >= 0 {
			local = local[:at]
		}
		local = strings.ToLower(local)

		if local == base {
			taken = true
			continue
		}
		rest, ok := strings.CutPrefix(local, base)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			continue
		}
		taken = true
		if n > highest {
			highest = n
		}
	}

	if !taken {
		return base
	}
	return base + strconv.Itoa(highest+1)
}

// NextUsername derives a collision-free principal name for the person,
// consulting the directory for every name already allocated on the stem.
func (s *Service) NextUsername(ctx context.Context, firstName, lastName string) (string, error) {
	base := BaseUsername(firstName, lastName)
	existing, err := s.dir.UsernamesStartingWith(ctx, base)
	if err != nil {
		return "", opError("allocate_username", base, err)
	}
	return NextUsername(base, existing) + "@" + s.domain, nil
}
