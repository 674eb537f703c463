package server

import (
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/memora-app/memora/internal/gemini"
	"github.com/memora-app/memora/internal/speech"
	"github.com/memora-app/memora/internal/store"
	"github.com/memora-app/memora/internal/text"
)

// profileNotFoundMsg matches the error string the service has always
// returned for a missing profile.
const profileNotFoundMsg = "Profile 不存在"

// Handlers carries the long-lived clients every endpoint needs. All clients
// are safe for concurrent use; handlers hold no other shared state.
type Handlers struct {
	log    *slog.Logger
	store  store.Store
	gemini gemini.Client
	speech speech.Synthesizer
}

// NewHandlers creates the endpoint handler set.
func NewHandlers(st store.Store, gc gemini.Client, sy speech.Synthesizer, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{
		log:    log.With("component", "handlers"),
		store:  st,
		gemini: gc,
		speech: sy,
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// Upload handles POST /upload: reads the uploaded chat log, derives the
// target name and profile id, runs the analysis, and overwrites the profile.
func (h *Handlers) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	log := h.log.With("handler", "upload")

	fileHeader, err := c.FormFile("chatFile")
	if err != nil {
		log.WarnContext(ctx, "Missing or unreadable chat file", "error", err)
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		log.ErrorContext(ctx, "Failed to open uploaded file", "filename", fileHeader.Filename, "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()

	chatText, err := io.ReadAll(f)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read uploaded file", "filename", fileHeader.Filename, "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	cleaned, err := text.Sanitize(string(chatText))
	if err != nil {
		log.WarnContext(ctx, "Uploaded chat log unusable", "filename", fileHeader.Filename, "error", err)
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	targetName := c.PostForm("deceasedName")
	if targetName == "" {
		targetName = text.NameFromFilename(fileHeader.Filename)
	}
	profileID := c.PostForm("profileId")
	if profileID == "" {
		profileID = targetName
	}

	log.InfoContext(ctx, "Analyzing uploaded chat log",
		"profile_id", profileID, "target_name", targetName,
		"filename", fileHeader.Filename, "size", fileHeader.Size)

	profile, err := h.gemini.AnalyzeChatLog(ctx, cleaned, targetName, fileHeader.Filename)
	if err != nil {
		log.ErrorContext(ctx, "Chat log analysis failed", "profile_id", profileID, "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	// The analysis JSON never carries the display name; the resolved target
	// name is merged in before persisting.
	profile.Name = targetName

	if err := h.store.SaveProfile(ctx, profileID, profile); err != nil {
		log.ErrorContext(ctx, "Failed to save profile", "profile_id", profileID, "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "profileId": profileID})
}

// GetProfile handles GET /profile/:id.
func (h *Handlers) GetProfile(c *gin.Context) {
	ctx := c.Request.Context()
	profileID := c.Param("id")

	profile, err := h.store.GetProfile(ctx, profileID)
	if errors.Is(err, store.ErrProfileNotFound) {
		fail(c, http.StatusNotFound, profileNotFoundMsg)
		return
	}
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to get profile", "profile_id", profileID, "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}

// ListProfiles handles GET /profiles.
func (h *Handlers) ListProfiles(c *gin.Context) {
	ctx := c.Request.Context()

	profiles, err := h.store.ListProfiles(ctx)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to list profiles", "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "profiles": profiles})
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat handles POST /chat/:id. The sequence is fixed: profile lookup first,
// then the user-turn append, so a missing profile never pollutes chat
// history. The concurrent-turn race between append and the history read is
// tolerated.
func (h *Handlers) Chat(c *gin.Context) {
	ctx := c.Request.Context()
	profileID := c.Param("id")
	log := h.log.With("handler", "chat", "profile_id", profileID)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.store.GetProfile(ctx, profileID)
	if errors.Is(err, store.ErrProfileNotFound) {
		fail(c, http.StatusNotFound, profileNotFoundMsg)
		return
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to get profile", "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	userTurn := store.Turn{Role: store.RoleUser, Text: req.Message, TS: time.Now().UnixMilli()}
	if err := h.store.AppendTurn(ctx, profileID, userTurn); err != nil {
		log.ErrorContext(ctx, "Failed to append user turn", "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	history, err := h.store.GetHistory(ctx, profileID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read chat history", "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	reply, err := h.gemini.GenerateReply(ctx, profile, history)
	if err != nil {
		log.ErrorContext(ctx, "Reply generation failed", "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	botTurn := store.Turn{Role: store.RoleBot, Text: reply, TS: time.Now().UnixMilli()}
	if err := h.store.AppendTurn(ctx, profileID, botTurn); err != nil {
		log.ErrorContext(ctx, "Failed to append bot turn", "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp := gin.H{"success": true, "reply": reply}

	// Best-effort synthesis: any failure is absorbed and audio omitted.
	if h.speech != nil {
		if audio, synthErr := h.speech.Synthesize(ctx, reply); synthErr != nil {
			log.WarnContext(ctx, "Speech synthesis failed, omitting audio", "error", synthErr)
		} else {
			resp["audio"] = base64.StdEncoding.EncodeToString(audio)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// ChatHistory handles GET /chat/:id/history. A missing chat log yields an
// empty history; profile existence is deliberately not checked here.
func (h *Handlers) ChatHistory(c *gin.Context) {
	ctx := c.Request.Context()
	profileID := c.Param("id")

	history, err := h.store.GetHistory(ctx, profileID)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to read chat history", "profile_id", profileID, "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "history": history})
}

// Health handles GET /health, pinging the active store backend.
func (h *Handlers) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
