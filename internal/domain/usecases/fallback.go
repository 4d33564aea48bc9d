// Package usecases - fallback.go resolves fields straight from the structured resume.
package usecases

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

type fieldRule struct {
	name     string
	patterns []string
	resolve  func(m *DirectMatcher, r *entities.StructuredResume) string
}

// rules are tried in order and the first rule whose pattern matches decides the
// answer, even when the resume has no value for it. More specific phrases come
// before the loose terms they contain.
var rules = []fieldRule{
	{"first name", []string{"first name", "given name", "firstname", "fname", "forename"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		parts := strings.Fields(r.PersonalInfo.FullName)
		if len(parts) == 0 {
			return ""
		}
		return parts[0]
	}},
	{"last name", []string{"last name", "family name", "surname", "lastname", "lname"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		parts := strings.Fields(r.PersonalInfo.FullName)
		if len(parts) < 2 {
			return ""
		}
		return parts[len(parts)-1]
	}},
	{"full name", []string{"full name", "fullname", "your name", "legal name", "candidate name"}, fullName},
	{"email", []string{"email", "e mail", "mail address"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		return r.PersonalInfo.Email
	}},
	{"phone", []string{"phone", "telephone", "mobile", "cell", "contact number"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		return r.PersonalInfo.Phone
	}},
	{"address", []string{"address", "location", "city", "street", "residence"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		return r.PersonalInfo.Address
	}},
	{"linkedin", []string{"linkedin", "linked in"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		return r.PersonalInfo.LinkedIn
	}},
	{"github", []string{"github", "git hub"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		return r.PersonalInfo.GitHub
	}},
	{"website", []string{"website", "portfolio", "personal site", "homepage", "web site"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		return r.PersonalInfo.Website
	}},
	{"summary", []string{"summary", "about you", "about me", "bio", "profile", "cover letter", "introduction"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		return r.PersonalInfo.Summary
	}},
	{"school", []string{"school", "college", "university", "institution", "alma mater"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		if len(r.Education) == 0 {
			return ""
		}
		return r.Education[0].Institution
	}},
	{"degree", []string{"degree", "qualification", "diploma"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		if len(r.Education) == 0 {
			return ""
		}
		return r.Education[0].Degree
	}},
	{"field of study", []string{"field of study", "major", "discipline", "specialization"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		if len(r.Education) == 0 {
			return ""
		}
		return r.Education[0].Field
	}},
	{"years of experience", []string{"years of experience", "years experience", "experience years", "total experience", "yoe"}, func(m *DirectMatcher, r *entities.StructuredResume) string {
		years, ok := YearsOfExperience(r.Experience, m.now())
		if !ok {
			return ""
		}
		return strconv.FormatFloat(years, 'f', 1, 64)
	}},
	{"current company", []string{"current company", "current employer", "employer", "company", "organization", "most recent employer"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		if e := currentExperience(r); e != nil {
			return e.Company
		}
		return ""
	}},
	{"current position", []string{"current position", "current title", "job title", "position", "title", "role", "designation"}, func(_ *DirectMatcher, r *entities.StructuredResume) string {
		if e := currentExperience(r); e != nil {
			return e.Title
		}
		return ""
	}},
	{"name", []string{"name"}, fullName},
}

func fullName(_ *DirectMatcher, r *entities.StructuredResume) string {
	return r.PersonalInfo.FullName
}

// DirectMatcher answers a field by looking up the structured resume without any model call.
type DirectMatcher struct {
	now func() time.Time
}

func NewDirectMatcher() *DirectMatcher {
	return &DirectMatcher{now: time.Now}
}

// Match returns the resolved value and whether any rule produced one.
func (m *DirectMatcher) Match(q entities.FormFieldQuery, r *entities.StructuredResume) (string, bool) {
	if r == nil {
		return "", false
	}

	name := NormalizeFieldText(q.FieldName)
	label := NormalizeFieldText(q.Label)

	if strings.Contains(name, "skill") || strings.Contains(label, "skill") {
		names := make([]string, 0, len(r.Skills))
		for _, s := range r.Skills {
			if n := strings.TrimSpace(s.Name); n != "" {
				names = append(names, n)
			}
		}
		value := strings.Join(names, ", ")
		return value, value != ""
	}

	haystack := " " + strings.Join(nonEmpty(name, label, NormalizeFieldText(q.Placeholder)), " ") + " "
	for _, rule := range rules {
		if !containsAnyWord(haystack, rule.patterns) {
			continue
		}
		v := strings.TrimSpace(rule.resolve(m, r))
		return v, v != ""
	}
	return "", false
}

func containsAnyWord(haystack string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(haystack, " "+p+" ") {
			return true
		}
	}
	return false
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeFieldText lowercases s, strips accents and splits camelCase,
// snake_case and kebab-case into space separated words.
func NormalizeFieldText(s string) string {
	stripped, _, err := transform.String(accentStripper, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	var prev rune
	for _, r := range stripped {
		switch {
		case unicode.IsUpper(r):
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteRune(' ')
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
		prev = r
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func currentExperience(r *entities.StructuredResume) *entities.Experience {
	for i := range r.Experience {
		if r.Experience[i].Current || isPresent(r.Experience[i].EndDate) {
			return &r.Experience[i]
		}
	}
	if len(r.Experience) > 0 {
		return &r.Experience[0]
	}
	return nil
}

// YearsOfExperience sums the month span of every entry, using now for
// ongoing roles and clamping each entry at zero, then converts to years
// rounded to one decimal. It reports false when no entry has a usable start date.
func YearsOfExperience(entries []entities.Experience, now time.Time) (float64, bool) {
	months := 0
	found := false

	for _, e := range entries {
		start, ok := parseResumeDate(e.StartDate)
		if !ok {
			continue
		}

		end := now
		if !e.Current && !isPresent(e.EndDate) {
			if end, ok = parseResumeDate(e.EndDate); !ok {
				continue
			}
		}

		found = true
		span := (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
		if span > 0 {
			months += span
		}
	}

	if !found {
		return 0, false
	}
	return math.Round(float64(months)/12*10) / 10, true
}

func isPresent(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "present", "current", "now", "ongoing", "today", "till date", "to date":
		return true
	}
	return false
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006/01",
	"01/2006",
	"1/2006",
	"01-2006",
	"Jan 2006",
	"January 2006",
	"Jan. 2006",
	"Jan, 2006",
	"January, 2006",
	"2006",
}

func parseResumeDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
