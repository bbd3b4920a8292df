// sessions.go handles the quiz widget endpoints.
//
// POST   /api/v1/sessions                  Create a session and its token
// GET    /api/v1/sessions/:id              Current view
// DELETE /api/v1/sessions/:id              Discard a session
// PUT    /api/v1/sessions/:id/file         Select a PDF (multipart "file")
// PUT    /api/v1/sessions/:id/drop         Drop a PDF (raw body)
// POST   /api/v1/sessions/:id/quiz         Generate the quiz in the background
// POST   /api/v1/sessions/:id/flip|next|previous
// GET    /api/v1/sessions/:id/cards        Whole quiz set
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Shimizu-Technology/quizcards-api/internal/middleware"
	"github.com/Shimizu-Technology/quizcards-api/internal/models"
	"github.com/Shimizu-Technology/quizcards-api/internal/quiz"
	"github.com/Shimizu-Technology/quizcards-api/internal/services/worker"
)

// defaultDropName names dropped files that arrive without X-File-Name.
const defaultDropName = "untitled.pdf"

// CreateSession registers a new quiz session.
// POST /api/v1/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	s := h.Sessions.Create()

	token, err := middleware.GenerateSessionToken(s.ID, h.opts.JWTSecret)
	if err != nil {
		h.Sessions.Delete(s.ID)
		h.log.Error("failed to sign session token", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Failed to create session")
		return
	}

	c.JSON(http.StatusCreated, models.CreateSessionResponse{
		Session: s.View(h.opts.ShowLoadingStage),
		Token:   token,
	})
}

// GetSession returns the session view. Clients poll it while loading.
// GET /api/v1/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View(h.opts.ShowLoadingStage))
}

// DeleteSession discards a session and any run it has in flight.
// DELETE /api/v1/sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.Sessions.Delete(c.Param("id")); err != nil {
		abortWithError(c, http.StatusNotFound, "not_found", "Session not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadFile handles the file picker.
// PUT /api/v1/sessions/:id/file
//
// The declared type is the multipart part's Content-Type header.
func (h *Handler) UploadFile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			h.tooLarge(c)
			return
		}
		abortWithError(c, http.StatusBadRequest, "invalid_request",
			"No file provided. Upload a file with the field name 'file'.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "read_error", "Failed to read uploaded file")
		return
	}

	h.selectFile(c, s, models.UploadedFile{
		Name:      header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Data:      data,
		Source:    models.SourcePicker,
	})
}

// DropFile handles drag-and-drop, where the browser sends the file as the
// request body.
// PUT /api/v1/sessions/:id/drop
func (h *Handler) DropFile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if isTooLarge(err) {
			h.tooLarge(c)
			return
		}
		abortWithError(c, http.StatusBadRequest, "read_error", "Failed to read dropped file")
		return
	}

	name := c.GetHeader("X-File-Name")
	if name == "" {
		name = defaultDropName
	}

	// The raw header, not c.ContentType(): parameters must not be stripped.
	h.selectFile(c, s, models.UploadedFile{
		Name:      name,
		MediaType: c.GetHeader("Content-Type"),
		Data:      data,
		Source:    models.SourceDrop,
	})
}

func (h *Handler) selectFile(c *gin.Context, s *quiz.Session, f models.UploadedFile) {
	log := h.log.With(
		zap.String("session_id", s.ID),
		zap.String("filename", f.Name),
		zap.String("media_type", f.MediaType),
		zap.String("source", string(f.Source)),
	)

	if !s.SelectFile(f) {
		log.Info("file rejected")
		c.JSON(http.StatusUnsupportedMediaType, models.RejectedUploadResponse{
			ErrorResponse: models.ErrorResponse{
				Error:   "invalid_file_type",
				Message: fmt.Sprintf("Unsupported file type '%s'. Only %s is accepted.", f.MediaType, models.PDFMediaType),
				Code:    http.StatusUnsupportedMediaType,
			},
			Session: s.View(h.opts.ShowLoadingStage),
		})
		return
	}

	log.Info("file accepted", zap.Int("bytes", len(f.Data)))
	c.JSON(http.StatusOK, s.View(h.opts.ShowLoadingStage))
}

// CreateQuiz starts the pipeline for the held file and answers right away.
// POST /api/v1/sessions/:id/quiz
func (h *Handler) CreateQuiz(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	// Conflicts are reported before a full queue. BeginRun clears the
	// previous deck, so it only runs once a queue slot is held.
	err := s.CheckRun()
	if err == nil {
		err = h.Worker.SubmitFunc(func() (worker.Job, error) {
			run, err := s.BeginRun()
			if err != nil {
				return worker.Job{}, err
			}
			return worker.Job{Session: s, Run: run}, nil
		})
	}
	switch {
	case errors.Is(err, quiz.ErrNoFile):
		abortWithError(c, http.StatusConflict, "no_file", "Upload a PDF before creating a quiz")
		return
	case errors.Is(err, quiz.ErrRunInProgress):
		abortWithError(c, http.StatusConflict, "run_in_progress", "A quiz is already being generated")
		return
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrPoolClosed):
		h.log.Warn("failed to queue quiz", zap.String("session_id", s.ID), zap.Error(err))
		abortWithError(c, http.StatusServiceUnavailable, "queue_full", "Server is busy. Try again shortly.")
		return
	case err != nil:
		abortWithError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	c.JSON(http.StatusAccepted, s.View(h.opts.ShowLoadingStage))
}

// FlipCard toggles the answer of the current card.
// POST /api/v1/sessions/:id/flip
func (h *Handler) FlipCard(c *gin.Context) {
	h.navigate(c, (*quiz.Session).Flip)
}

// NextCard moves to the next card, wrapping at the end.
// POST /api/v1/sessions/:id/next
func (h *Handler) NextCard(c *gin.Context) {
	h.navigate(c, (*quiz.Session).Next)
}

// PreviousCard moves to the previous card, wrapping at the start.
// POST /api/v1/sessions/:id/previous
func (h *Handler) PreviousCard(c *gin.Context) {
	h.navigate(c, (*quiz.Session).Previous)
}

func (h *Handler) navigate(c *gin.Context, move func(*quiz.Session)) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	move(s)
	c.JSON(http.StatusOK, s.View(h.opts.ShowLoadingStage))
}

// ListCards returns every card with its answer, for study lists.
// GET /api/v1/sessions/:id/cards
func (h *Handler) ListCards(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	cards := s.Cards()
	if cards == nil {
		cards = []models.QuizQuestion{}
	}
	c.JSON(http.StatusOK, models.CardsResponse{Cards: cards, Total: len(cards)})
}

// session resolves :id or writes a 404.
func (h *Handler) session(c *gin.Context) (*quiz.Session, bool) {
	s, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "not_found", "Session not found")
		return nil, false
	}
	return s, true
}

func (h *Handler) tooLarge(c *gin.Context) {
	abortWithError(c, http.StatusRequestEntityTooLarge, "file_too_large",
		fmt.Sprintf("File exceeds the %dMB upload limit", h.opts.MaxUploadBytes>>20))
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
