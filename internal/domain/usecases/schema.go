package usecases

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

const structuredResumeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["personalInfo", "education", "experience", "skills"],
  "definitions": {
    "text": {"type": ["string", "null"]},
    "textList": {"type": ["array", "null"], "items": {"type": "string"}}
  },
  "properties": {
    "personalInfo": {
      "type": "object",
      "properties": {
        "fullName": {"$ref": "#/definitions/text"},
        "email": {"$ref": "#/definitions/text"},
        "phone": {"$ref": "#/definitions/text"},
        "address": {"$ref": "#/definitions/text"},
        "linkedin": {"$ref": "#/definitions/text"},
        "github": {"$ref": "#/definitions/text"},
        "website": {"$ref": "#/definitions/text"},
        "summary": {"$ref": "#/definitions/text"}
      }
    },
    "education": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "institution": {"$ref": "#/definitions/text"},
          "degree": {"$ref": "#/definitions/text"},
          "field": {"$ref": "#/definitions/text"},
          "startDate": {"$ref": "#/definitions/text"},
          "endDate": {"$ref": "#/definitions/text"},
          "gpa": {"type": ["string", "number", "null"]}
        }
      }
    },
    "experience": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "company": {"$ref": "#/definitions/text"},
          "title": {"$ref": "#/definitions/text"},
          "location": {"$ref": "#/definitions/text"},
          "startDate": {"$ref": "#/definitions/text"},
          "endDate": {"$ref": "#/definitions/text"},
          "current": {"type": ["boolean", "null"]},
          "description": {"$ref": "#/definitions/text"},
          "highlights": {"$ref": "#/definitions/textList"}
        }
      }
    },
    "skills": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "category": {"$ref": "#/definitions/text"}
        }
      }
    },
    "projects": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "name": {"$ref": "#/definitions/text"},
          "description": {"$ref": "#/definitions/text"},
          "technologies": {"$ref": "#/definitions/textList"},
          "url": {"$ref": "#/definitions/text"}
        }
      }
    },
    "certifications": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "name": {"$ref": "#/definitions/text"},
          "issuer": {"$ref": "#/definitions/text"},
          "date": {"$ref": "#/definitions/text"}
        }
      }
    },
    "languages": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "name": {"$ref": "#/definitions/text"},
          "proficiency": {"$ref": "#/definitions/text"}
        }
      }
    }
  }
}`

const insightsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["strengths", "weaknesses", "suggestions", "keywordOptimization"],
  "properties": {
    "strengths": {"type": "array", "items": {"type": "string"}},
    "weaknesses": {"type": "array", "items": {"type": "string"}},
    "suggestions": {"type": "array", "items": {"type": "string"}},
    "keywordOptimization": {"type": "array", "items": {"type": "string"}}
  }
}`

var (
	structuredResumeValidator = mustSchema(structuredResumeSchema)
	insightsValidator         = mustSchema(insightsSchema)

	fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compiling schema: %v", err))
	}
	return s
}

// jsonCandidates lists the strings worth parsing from a model reply, in order:
// the whole reply, the first fenced block, then the widest {...} span.
func jsonCandidates(raw string) []string {
	raw = strings.TrimSpace(raw)
	candidates := []string{raw}

	if m := fencedJSON.FindStringSubmatch(raw); len(m) == 2 {
		candidates = append(candidates, m[1])
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}
	return candidates
}

// extractJSONObject returns the first candidate that parses as a JSON object.
func extractJSONObject(raw string) (map[string]any, error) {
	var lastErr error
	for _, c := range jsonCandidates(raw) {
		var m map[string]any
		if err := json.Unmarshal([]byte(c), &m); err != nil {
			lastErr = err
			continue
		}
		if m == nil {
			lastErr = fmt.Errorf("json value is not an object")
			continue
		}
		return m, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("empty response")
	}
	return nil, fmt.Errorf("no json object found: %w", lastErr)
}

// validateAndDecode checks doc against schema and decodes it into out.
func validateAndDecode(schema *gojsonschema.Schema, doc map[string]any, out any) error {
	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validating document: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	return nil
}
