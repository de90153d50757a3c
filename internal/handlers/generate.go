package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"sitesmith/internal/keys"
	"sitesmith/pkg/models"
)

const (
	maxPromptRunes   = 8000
	maxSelectedPages = 12
)

// GenerateRequest is the payload of POST /api/v1/generate.
type GenerateRequest struct {
	RunID string `json:"run_id"`
	models.GenerationContext
}

// GenerateResponse carries the finished artifact back to the caller.
type GenerateResponse struct {
	RunID    string                  `json:"run_id"`
	Artifact *models.WebsiteArtifact `json:"artifact"`
}

// Generate runs the full website generation pipeline for one request.
// The artifact in the response is always complete; a NO_CREDENTIALS code
// tells the caller every file came from fallback content.
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Error:   "Invalid request format",
			Code:    "INVALID_REQUEST",
		})
		return
	}

	if err := validateGenerationContext(&req.GenerationContext); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Error:   err.Error(),
			Code:    "VALIDATION_FAILED",
		})
		return
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	h.log.Info("generation run accepted",
		zap.String("run_id", runID),
		zap.String("site_type", string(req.SiteType)),
		zap.String("language", string(req.Language)),
		zap.Int("selected_pages", len(req.SelectedPages)),
		zap.Bool("admin_page", req.IncludeAdminPage))

	artifact, err := h.Pipeline.Run(c.Request.Context(), req.GenerationContext, h.Hub.Emitter(runID))
	if err != nil {
		if errors.Is(err, keys.ErrNoCredentials) {
			c.JSON(http.StatusOK, StandardResponse{
				Success: true,
				Data:    GenerateResponse{RunID: runID, Artifact: artifact},
				Code:    "NO_CREDENTIALS",
				Message: "No AI provider credentials are configured. The site was assembled from built-in fallback content.",
			})
			return
		}
		h.log.Error("generation run failed", zap.String("run_id", runID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, StandardResponse{
			Success: false,
			Error:   "Generation failed",
			Code:    "GENERATION_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    GenerateResponse{RunID: runID, Artifact: artifact},
	})
}

// validateGenerationContext normalizes the request in place and rejects
// anything the pipeline cannot work with.
func validateGenerationContext(gen *models.GenerationContext) error {
	prompt := strings.TrimSpace(gen.Prompt)
	if prompt == "" {
		return errors.New("prompt is required")
	}
	if !utf8.ValidString(prompt) {
		return errors.New("prompt must be valid UTF-8 text")
	}
	if utf8.RuneCountInString(prompt) > maxPromptRunes {
		return fmt.Errorf("prompt exceeds %d characters", maxPromptRunes)
	}
	gen.Prompt = prompt

	if gen.Language == "" {
		gen.Language = models.LanguageEnglish
	}
	if !gen.Language.Valid() {
		return fmt.Errorf("unsupported language %q", gen.Language)
	}

	if gen.SiteType == "" {
		gen.SiteType = models.SiteTypeSinglePage
	}
	if !gen.SiteType.Valid() {
		return fmt.Errorf("unsupported site type %q", gen.SiteType)
	}

	if len(gen.SelectedPages) > maxSelectedPages {
		return fmt.Errorf("at most %d pages may be selected", maxSelectedPages)
	}
	for _, page := range gen.SelectedPages {
		if strings.TrimSpace(page) == "" {
			return errors.New("selected pages must not be blank")
		}
	}

	if gen.ReferenceImage != "" && !strings.HasPrefix(gen.ReferenceImage, "data:") {
		return errors.New("reference_image must be a base64 data URI")
	}

	return nil
}
