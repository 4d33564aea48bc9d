// Package entities contains core business entities.
// Pure domain objects with no knowledge of storage, models or transport.
package entities

import "time"

// ResumeStatus is the processing state of a resume.
type ResumeStatus string

const (
	StatusProcessing ResumeStatus = "processing"
	StatusProcessed  ResumeStatus = "processed"
	StatusError      ResumeStatus = "error"
)

// Resume is the single active resume of a user.
// Version identifies the processing job that owns the row; ActiveVersion is
// the embedding set visible to retrieval.
type Resume struct {
	ID            string
	UserID        string
	RawText       string
	Structured    *StructuredResume
	Status        ResumeStatus
	Error         string
	FileName      string
	FilePath      string
	MimeType      string
	Version       string
	ActiveVersion string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StructuredResume is the typed record produced by the structuring step.
type StructuredResume struct {
	PersonalInfo   PersonalInfo    `json:"personalInfo" mapstructure:"personalInfo"`
	Education      []Education     `json:"education" mapstructure:"education"`
	Experience     []Experience    `json:"experience" mapstructure:"experience"`
	Skills         []Skill         `json:"skills" mapstructure:"skills"`
	Projects       []Project       `json:"projects" mapstructure:"projects"`
	Certifications []Certification `json:"certifications" mapstructure:"certifications"`
	Languages      []Language      `json:"languages" mapstructure:"languages"`
}

type PersonalInfo struct {
	FullName string `json:"fullName" mapstructure:"fullName"`
	Email    string `json:"email" mapstructure:"email"`
	Phone    string `json:"phone" mapstructure:"phone"`
	Address  string `json:"address" mapstructure:"address"`
	LinkedIn string `json:"linkedin" mapstructure:"linkedin"`
	GitHub   string `json:"github" mapstructure:"github"`
	Website  string `json:"website" mapstructure:"website"`
	Summary  string `json:"summary" mapstructure:"summary"`
}

// IsZero reports whether no personal field is set.
func (p PersonalInfo) IsZero() bool {
	return p == PersonalInfo{}
}

type Education struct {
	Institution string `json:"institution" mapstructure:"institution"`
	Degree      string `json:"degree" mapstructure:"degree"`
	Field       string `json:"field" mapstructure:"field"`
	StartDate   string `json:"startDate" mapstructure:"startDate"`
	EndDate     string `json:"endDate" mapstructure:"endDate"`
	GPA         string `json:"gpa" mapstructure:"gpa"`
}

type Experience struct {
	Company     string   `json:"company" mapstructure:"company"`
	Title       string   `json:"title" mapstructure:"title"`
	Location    string   `json:"location" mapstructure:"location"`
	StartDate   string   `json:"startDate" mapstructure:"startDate"`
	EndDate     string   `json:"endDate" mapstructure:"endDate"`
	Current     bool     `json:"current" mapstructure:"current"`
	Description string   `json:"description" mapstructure:"description"`
	Highlights  []string `json:"highlights" mapstructure:"highlights"`
}

type Skill struct {
	Name     string `json:"name" mapstructure:"name"`
	Category string `json:"category" mapstructure:"category"`
}

type Project struct {
	Name         string   `json:"name" mapstructure:"name"`
	Description  string   `json:"description" mapstructure:"description"`
	Technologies []string `json:"technologies" mapstructure:"technologies"`
	URL          string   `json:"url" mapstructure:"url"`
}

type Certification struct {
	Name   string `json:"name" mapstructure:"name"`
	Issuer string `json:"issuer" mapstructure:"issuer"`
	Date   string `json:"date" mapstructure:"date"`
}

type Language struct {
	Name        string `json:"name" mapstructure:"name"`
	Proficiency string `json:"proficiency" mapstructure:"proficiency"`
}

// SegmentType is the kind of resume unit an embedding was derived from.
type SegmentType string

const (
	SegmentPersonalInfo SegmentType = "personal_info"
	SegmentEducation    SegmentType = "education"
	SegmentExperience   SegmentType = "experience"
	SegmentSkills       SegmentType = "skills"
	SegmentProject      SegmentType = "project"
)

// SegmentEmbedding is one embedded semantic unit of a resume version.
type SegmentEmbedding struct {
	ID          string
	UserID      string
	ResumeID    string
	Version     string
	SegmentType SegmentType
	SegmentID   string
	Text        string
	Vector      []float32
	Metadata    map[string]any
	CreatedAt   time.Time
}

// ScoredSegment is a retrieval hit.
type ScoredSegment struct {
	Segment SegmentEmbedding
	Score   float64
}

// FormFieldQuery describes one form field detected in the browser.
type FormFieldQuery struct {
	FieldID     string `json:"fieldId"`
	FieldName   string `json:"fieldName"`
	FieldType   string `json:"fieldType"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
	Required    bool   `json:"required"`
}

// ConfidenceTier grades how trustworthy a suggested value is.
type ConfidenceTier string

const (
	ConfidenceGreen  ConfidenceTier = "green"
	ConfidenceYellow ConfidenceTier = "yellow"
	ConfidenceRed    ConfidenceTier = "red"
)

// SuggestionSource records which path produced a suggestion.
type SuggestionSource string

const (
	SourceSemantic SuggestionSource = "semantic"
	SourceFallback SuggestionSource = "fallback"
)

// Suggestion is produced fresh per query and never cached.
type Suggestion struct {
	FieldID    string           `json:"fieldId"`
	Value      string           `json:"value"`
	Confidence ConfidenceTier   `json:"confidence"`
	Source     SuggestionSource `json:"source,omitempty"`
	Similarity float64          `json:"similarity,omitempty"`
}

// Feedback is a user correction of a suggested value.
type Feedback struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"userId"`
	URL                string         `json:"url"`
	FieldID            string         `json:"fieldId"`
	FieldName          string         `json:"fieldName"`
	OriginalSuggestion string         `json:"originalSuggestion"`
	UserCorrection     string         `json:"userCorrection"`
	Confidence         ConfidenceTier `json:"confidenceLevel"`
	Incorporated       bool           `json:"incorporated"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// Application is a job application form tracked per user and url.
type Application struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	URL       string      `json:"url"`
	Title     string      `json:"title"`
	Fields    []FormField `json:"fields"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FormField is a stored suggestion result alongside the field metadata.
type FormField struct {
	ApplicationID string         `json:"-"`
	FieldID       string         `json:"fieldId"`
	FieldName     string         `json:"fieldName"`
	FieldType     string         `json:"fieldType"`
	Label         string         `json:"label"`
	Placeholder   string         `json:"placeholder"`
	Required      bool           `json:"required"`
	Value         string         `json:"value"`
	Confidence    ConfidenceTier `json:"confidence"`
	Correction    *string        `json:"correction,omitempty"`
}

// Insights is the derived review of a structured resume.
type Insights struct {
	Strengths           []string `json:"strengths" mapstructure:"strengths"`
	Weaknesses          []string `json:"weaknesses" mapstructure:"weaknesses"`
	Suggestions         []string `json:"suggestions" mapstructure:"suggestions"`
	KeywordOptimization []string `json:"keywordOptimization" mapstructure:"keywordOptimization"`
}
