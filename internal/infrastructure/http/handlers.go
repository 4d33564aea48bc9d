package http

import (
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/0xcro3dile/resume-intel/internal/adapters/parser"
	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
	"github.com/0xcro3dile/resume-intel/internal/domain/usecases"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("multipart field \"file\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Validation("uploaded file could not be read")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return apperr.Validation("uploaded file could not be read")
	}

	mimeType := fh.Header.Get(fiber.HeaderContentType)
	if mimeType == "" || strings.HasPrefix(mimeType, fiber.MIMEOctetStream) {
		mimeType = parser.MimeTypeFor(fh.Filename)
	}

	res, err := s.services.Resumes.Upload(c.UserContext(), userID(c), fh.Filename, mimeType, data)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(res)
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	st, err := s.services.Resumes.Status(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(st)
}

type resumeResponse struct {
	ResumeID        string                     `json:"resumeId"`
	FileName        string                     `json:"fileName"`
	MimeType        string                     `json:"mimeType"`
	Status          entities.ResumeStatus      `json:"status"`
	IsProcessed     bool                       `json:"isProcessed"`
	ProcessingError *string                    `json:"processingError"`
	Structured      *entities.StructuredResume `json:"structured,omitempty"`
	CreatedAt       time.Time                  `json:"createdAt"`
	UpdatedAt       time.Time                  `json:"updatedAt"`
}

func (s *Server) handleGetResume(c *fiber.Ctx) error {
	r, err := s.services.Resumes.Get(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	resp := resumeResponse{
		ResumeID:    r.ID,
		FileName:    r.FileName,
		MimeType:    r.MimeType,
		Status:      r.Status,
		IsProcessed: r.Status == entities.StatusProcessed,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Status == entities.StatusError {
		msg := r.Error
		resp.ProcessingError = &msg
	}
	if resp.IsProcessed {
		resp.Structured = r.Structured
	}
	return c.JSON(resp)
}

func (s *Server) handleDeleteResume(c *fiber.Ctx) error {
	if err := s.services.Resumes.Delete(c.UserContext(), userID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleReindex(c *fiber.Ctx) error {
	res, err := s.services.Resumes.Reindex(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(res)
}

func (s *Server) handleInsights(c *fiber.Ctx) error {
	in, err := s.services.Insights.Insights(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(in)
}

func (s *Server) handleSuggestBatch(c *fiber.Ctx) error {
	var req usecases.SuggestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid payload")
	}
	if req.Fields == nil {
		return apperr.Validation("fields is required")
	}

	out, err := s.services.Suggestions.SuggestBatch(c.UserContext(), userID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"fields": out})
}

type suggestFieldRequest struct {
	URL   string                   `json:"url"`
	Title string                   `json:"title"`
	Field *entities.FormFieldQuery `json:"field"`
}

func (s *Server) handleSuggestField(c *fiber.Ctx) error {
	var req suggestFieldRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid payload")
	}
	if req.Field == nil {
		return apperr.Validation("field is required")
	}

	sug, err := s.services.Suggestions.SuggestField(c.UserContext(), userID(c), req.URL, req.Title, *req.Field)
	if err != nil {
		return err
	}
	return c.JSON(sug)
}

type feedbackRequest struct {
	URL                string                  `json:"url"`
	FieldID            string                  `json:"fieldId"`
	FieldName          string                  `json:"fieldName"`
	OriginalSuggestion string                  `json:"originalSuggestion"`
	UserCorrection     string                  `json:"userCorrection"`
	ConfidenceLevel    entities.ConfidenceTier `json:"confidenceLevel"`
}

func (s *Server) handleFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid payload")
	}

	fb, err := s.services.Feedback.Record(c.UserContext(), entities.Feedback{
		UserID:             userID(c),
		URL:                req.URL,
		FieldID:            req.FieldID,
		FieldName:          req.FieldName,
		OriginalSuggestion: req.OriginalSuggestion,
		UserCorrection:     req.UserCorrection,
		Confidence:         req.ConfidenceLevel,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": fb.ID, "status": "accepted"})
}

func (s *Server) handleListFeedback(c *fiber.Ctx) error {
	list, err := s.services.Feedback.List(c.UserContext(), userID(c), c.Query("url"))
	if err != nil {
		return err
	}
	if list == nil {
		list = []entities.Feedback{}
	}
	return c.JSON(fiber.Map{"feedback": list})
}

func (s *Server) handleGetApplication(c *fiber.Ctx) error {
	url := c.Query("url")
	if url == "" {
		return apperr.Validation("url query parameter is required")
	}
	app, err := s.services.Suggestions.ApplicationFor(c.UserContext(), userID(c), url)
	if err != nil {
		return err
	}
	return c.JSON(app)
}
