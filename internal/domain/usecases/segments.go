// Package usecases - segments.go splits a structured resume into embeddable units.
package usecases

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

const defaultSkillCategory = "General"

// BuildSegments returns one segment per personal info block, education entry,
// experience entry, skill category and project. Vectors are left empty.
// Certifications and languages are only used by the direct matcher and insights.
func BuildSegments(userID, resumeID, version string, r *entities.StructuredResume) []entities.SegmentEmbedding {
	if r == nil {
		return nil
	}

	var segs []entities.SegmentEmbedding
	add := func(t entities.SegmentType, id, text string, meta map[string]any) {
		if strings.TrimSpace(text) == "" {
			return
		}
		segs = append(segs, entities.SegmentEmbedding{
			ID:          uuid.NewString(),
			UserID:      userID,
			ResumeID:    resumeID,
			Version:     version,
			SegmentType: t,
			SegmentID:   id,
			Text:        text,
			Metadata:    meta,
		})
	}

	if !r.PersonalInfo.IsZero() {
		p := r.PersonalInfo
		add(entities.SegmentPersonalInfo, "personal", personalText(p), map[string]any{
			"fullName": p.FullName,
			"email":    p.Email,
			"phone":    p.Phone,
			"address":  p.Address,
			"linkedin": p.LinkedIn,
			"github":   p.GitHub,
			"website":  p.Website,
		})
	}

	for i, e := range r.Education {
		add(entities.SegmentEducation, fmt.Sprintf("education-%d", i), educationText(e), map[string]any{
			"institution": e.Institution,
			"degree":      e.Degree,
			"field":       e.Field,
			"startDate":   e.StartDate,
			"endDate":     e.EndDate,
		})
	}

	for i, e := range r.Experience {
		add(entities.SegmentExperience, fmt.Sprintf("experience-%d", i), experienceText(e), map[string]any{
			"company":   e.Company,
			"title":     e.Title,
			"location":  e.Location,
			"startDate": e.StartDate,
			"endDate":   e.EndDate,
			"current":   e.Current,
		})
	}

	usedSkillIDs := make(map[string]bool)
	for i, group := range groupSkills(r.Skills) {
		id := "skills-" + slug(group.category)
		if id == "skills-" || usedSkillIDs[id] {
			id = fmt.Sprintf("%s%d", id, i)
		}
		usedSkillIDs[id] = true
		add(entities.SegmentSkills, id,
			fmt.Sprintf("%s skills: %s", group.category, strings.Join(group.names, ", ")),
			map[string]any{"category": group.category, "skills": group.names})
	}

	for i, p := range r.Projects {
		add(entities.SegmentProject, fmt.Sprintf("project-%d", i), projectText(p), map[string]any{
			"name":         p.Name,
			"technologies": p.Technologies,
			"url":          p.URL,
		})
	}

	return segs
}

type skillGroup struct {
	category string
	names    []string
}

// groupSkills keeps categories in order of first appearance.
func groupSkills(skills []entities.Skill) []skillGroup {
	var groups []skillGroup
	index := make(map[string]int)

	for _, s := range skills {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		cat := strings.TrimSpace(s.Category)
		if cat == "" {
			cat = defaultSkillCategory
		}
		key := strings.ToLower(cat)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, skillGroup{category: cat})
		}
		groups[i].names = append(groups[i].names, name)
	}
	return groups
}

func personalText(p entities.PersonalInfo) string {
	return joinParts(". ",
		labeled("Name", p.FullName),
		labeled("Email", p.Email),
		labeled("Phone", p.Phone),
		labeled("Location", p.Address),
		labeled("LinkedIn", p.LinkedIn),
		labeled("GitHub", p.GitHub),
		labeled("Website", p.Website),
		labeled("Summary", p.Summary),
	)
}

func educationText(e entities.Education) string {
	head := e.Degree
	if e.Field != "" {
		head = joinParts(" in ", e.Degree, e.Field)
	}
	if e.Institution != "" {
		head = joinParts(" at ", head, e.Institution)
	}
	return joinParts(". ", head, dateRange(e.StartDate, e.EndDate, false), labeled("GPA", e.GPA))
}

func experienceText(e entities.Experience) string {
	head := joinParts(" at ", e.Title, e.Company)
	if e.Location != "" {
		head = joinParts(", ", head, e.Location)
	}
	highlights := ""
	if len(e.Highlights) > 0 {
		highlights = labeled("Highlights", strings.Join(e.Highlights, "; "))
	}
	return joinParts(". ", head, dateRange(e.StartDate, e.EndDate, e.Current), e.Description, highlights)
}

func projectText(p entities.Project) string {
	tech := ""
	if len(p.Technologies) > 0 {
		tech = labeled("Technologies", strings.Join(p.Technologies, ", "))
	}
	return joinParts(". ", labeled("Project", p.Name), p.Description, tech, labeled("URL", p.URL))
}

func dateRange(start, end string, current bool) string {
	if current || (start != "" && isPresent(end)) {
		end = "Present"
	}
	if start == "" && end == "" {
		return ""
	}
	return fmt.Sprintf("%s - %s", start, end)
}

func labeled(label, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return label + ": " + value
}

func joinParts(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
