package content

import (
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"adslot/internal/shared/utils/response"
)

type Controller interface {
	Upload(c *gin.Context)
	Fetch(c *gin.Context)
}

type controller struct {
	store   Store
	maxSize int64
}

func NewController(store Store, maxSize int64) Controller {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &controller{store: store, maxSize: maxSize}
}

// UploadResponse describes stored ad content
type UploadResponse struct {
	Ref         string `json:"ref"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

func (ctrl *controller) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "File is required", nil, err.Error())
		return
	}
	if fileHeader.Size > ctrl.maxSize {
		response.RespondJSON(c, "error", http.StatusRequestEntityTooLarge, ErrTooLarge.Error(), nil, nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Failed to read file", nil, err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, ctrl.maxSize+1))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Failed to read file", nil, err.Error())
		return
	}

	contentType, err := ValidateUpload(data, ctrl.maxSize)
	if err != nil {
		status := http.StatusUnsupportedMediaType
		if errors.Is(err, ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		response.RespondJSON(c, "error", status, err.Error(), nil, nil)
		return
	}

	ref, err := ctrl.store.Put(c.Request.Context(), data)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusServiceUnavailable, "Failed to store content", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Content stored successfully", UploadResponse{
		Ref:         ref,
		URL:         ctrl.store.URL(ref),
		ContentType: contentType,
		Size:        len(data),
	}, nil)
}

func (ctrl *controller) Fetch(c *gin.Context) {
	data, err := ctrl.store.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRef):
			response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
		case errors.Is(err, ErrNotFound):
			response.RespondJSON(c, "error", http.StatusNotFound, "Content not found", nil, nil)
		default:
			response.RespondJSON(c, "error", http.StatusServiceUnavailable, "Content store unavailable", nil, err.Error())
		}
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}
