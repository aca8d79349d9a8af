package api

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"dolo/internal/models"
	"dolo/internal/service/ai"
	"dolo/internal/service/consult"
)

const (
	serviceName    = "Dolo AI Backend"
	serviceVersion = "1.0.0"

	defaultAnalyzeMessage = "Analyze this medical report in detail."
)

// Handler wires HTTP routes to the consultation service.
type Handler struct {
	consult   *consult.Service
	uploadDir string
}

// NewHandler constructs a Handler instance.
func NewHandler(service *consult.Service, uploadDir string) *Handler {
	return &Handler{consult: service, uploadDir: uploadDir}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(cors.Default())
	router.GET("/health", h.health)

	conv := router.Group("/conversation")
	conv.POST("/", h.createConversation)
	conv.GET("/:id", h.getConversation)
	conv.GET("/:id/reports", h.listReports)

	router.POST("/chat/:id", h.chat)
	router.POST("/analyze-report/:id", h.analyzeReport)

	// Stored report images are served straight off disk.
	router.Static("/uploads", h.uploadDir)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func conversationIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return 0, false
	}
	return id, true
}

type createConversationRequest struct {
	Title string `json:"title"`
}

func (h *Handler) createConversation(c *gin.Context) {
	var req createConversationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	conversation, err := h.consult.CreateConversation(c.Request.Context(), req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         conversation.ID,
		"title":      conversation.Title,
		"created_at": conversation.CreatedAt,
		"messages":   []any{},
	})
}

func (h *Handler) getConversation(c *gin.Context) {
	id, ok := conversationIDParam(c)
	if !ok {
		return
	}
	conversation, messages, err := h.consult.GetConversationWithMessages(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         conversation.ID,
		"title":      conversation.Title,
		"created_at": conversation.CreatedAt,
		"messages":   messages,
	})
}

func (h *Handler) listReports(c *gin.Context) {
	id, ok := conversationIDParam(c)
	if !ok {
		return
	}
	reports, err := h.consult.ListReports(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(reports))
	for _, r := range reports {
		out = append(out, gin.H{
			"id":                r.ID,
			"original_filename": r.OriginalFilename,
			"file_url":          "/uploads/" + r.StoredFilename,
			"mime_type":         r.MimeType,
			"file_size":         r.FileSize,
			"uploaded_at":       r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) chat(c *gin.Context) {
	id, ok := conversationIDParam(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.consult.ChatText(c.Request.Context(), id, req.Message)
	if err != nil {
		h.renderPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) analyzeReport(c *gin.Context) {
	id, ok := conversationIDParam(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	message := c.PostForm("message")
	if message == "" {
		message = defaultAnalyzeMessage
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
		return
	}

	result, err := h.consult.AnalyzeReport(c.Request.Context(), id, consult.ReportUpload{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
		Message:  message,
	})
	if err != nil {
		h.renderPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// renderPipelineError is the single translation point from the pipeline
// error taxonomy to transport status codes.
func (h *Handler) renderPipelineError(c *gin.Context, err error) {
	var upstream *ai.UpstreamError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
	case errors.Is(err, consult.ErrInvalidFileType):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid file type",
			"allowed": consult.AllowedMimeTypes,
		})
	case errors.Is(err, consult.ErrFileTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "File too large",
			"max_size": "5MB",
		})
	case errors.As(err, &upstream):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "AI provider error",
			"detail": upstream.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Internal server error",
			"detail": err.Error(),
		})
	}
}

// Recovery converts any uncaught panic in the request path into the
// generic error payload instead of an empty 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":  "Internal server error",
			"detail": fmt.Sprint(recovered),
		})
	})
}
