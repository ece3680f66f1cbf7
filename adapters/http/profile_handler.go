package http

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	profileUC "github.com/khoahotran/labour-connect/internal/application/usecase/profile"
	"github.com/khoahotran/labour-connect/pkg/apperror"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

type ProfileHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	maxImageBytes  int64
	logger         logger.Logger
}

func NewProfileHandler(uc *profileUC.ProfileUseCase, maxImageBytes int64, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: uc,
		maxImageBytes:  maxImageBytes,
		logger:         log,
	}
}

// respond writes the session when the use case returned one, even alongside
// an error, so the client always sees the current state and notice.
func (h *ProfileHandler) respond(c *gin.Context, sess *profileUC.Session, err error) {
	if sess == nil {
		if err == nil {
			err = apperror.NewInternal("no session returned", nil)
		}
		c.Error(err)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = apperror.ToHTTPStatus(err)
		h.logger.Warn("Profile operation failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.String("cause", apperror.CauseOf(err)),
		)
	}
	c.JSON(status, ToSessionResponse(sess))
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	sess, err := h.profileUseCase.Open(c.Request.Context())
	h.respond(c, sess, err)
}

func (h *ProfileHandler) RefreshProfile(c *gin.Context) {
	sess, err := h.profileUseCase.Fetch(c.Request.Context())
	h.respond(c, sess, err)
}

func (h *ProfileHandler) EditProfile(c *gin.Context) {
	sess, err := h.profileUseCase.Edit(c.Request.Context())
	h.respond(c, sess, err)
}

func (h *ProfileHandler) UpdateDraft(c *gin.Context) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid JSON body for draft update", err))
		return
	}

	sess, err := h.profileUseCase.Apply(c.Request.Context(), req.ToDomainActions()...)
	h.respond(c, sess, err)
}

func (h *ProfileHandler) SelectImage(c *gin.Context) {
	// multipart framing overhead on top of the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes+1<<20)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.Error(apperror.NewInvalidInput("multipart field 'image' is required", err))
		return
	}
	if fileHeader.Size > h.maxImageBytes {
		c.Error(apperror.NewInvalidInput("image exceeds the upload size limit", nil))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInvalidInput("cannot read uploaded image", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxImageBytes+1))
	if err != nil {
		c.Error(apperror.NewInvalidInput("cannot read uploaded image", err))
		return
	}
	if int64(len(data)) > h.maxImageBytes {
		c.Error(apperror.NewInvalidInput("image exceeds the upload size limit", nil))
		return
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		contentType = fileHeader.Header.Get("Content-Type")
	}

	sess, err := h.profileUseCase.SelectImage(c.Request.Context(), profileUC.PendingImage{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
	})
	h.respond(c, sess, err)
}

func (h *ProfileHandler) CancelEdit(c *gin.Context) {
	sess, err := h.profileUseCase.Cancel(c.Request.Context())
	h.respond(c, sess, err)
}

func (h *ProfileHandler) SaveProfile(c *gin.Context) {
	sess, err := h.profileUseCase.Save(c.Request.Context())
	h.respond(c, sess, err)
}

// DeleteProfile requires ?confirm=true; anything else is a declined confirmation.
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))

	sess, err := h.profileUseCase.Delete(c.Request.Context(), profileUC.Confirmed(confirmed))
	h.respond(c, sess, err)
}
