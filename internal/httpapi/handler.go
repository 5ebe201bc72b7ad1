package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	watermark "github.com/gcslaoli/gemini-watermark-unblend"
)

// multipartOverhead is the room left for multipart headers and boundaries
// on top of the upload limit.
const multipartOverhead = 1 << 20

// Handler exposes the watermark engine over HTTP.
type Handler struct {
	engine        *watermark.Engine
	log           *zap.Logger
	maxUploadSize int64
}

// NewHandler wires engine to the HTTP routes. maxUploadSize bounds uploaded
// images in bytes; zero disables the limit.
func NewHandler(engine *watermark.Engine, log *zap.Logger, maxUploadSize int64) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{engine: engine, log: log, maxUploadSize: maxUploadSize}
}

// NewRouter builds a gin engine with logging, recovery and all routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(Logger(h.log), Recovery(h.log))
	h.Register(r)
	return r
}

// Register mounts the health check and the /api routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	{
		api.POST("/remove", h.Remove)
		api.POST("/remove/base64", h.RemoveBase64)
		api.GET("/footprint", h.Footprint)
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Remove accepts a multipart "image" field and responds with the cleaned
// image in the same format when possible.
func (h *Handler) Remove(c *gin.Context) {
	h.limitBody(c, h.maxUploadSize+multipartOverhead)

	file, err := c.FormFile("image")
	if err != nil {
		if tooLarge(err) {
			h.rejectTooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "missing image file",
			Error:   err.Error(),
		})
		return
	}

	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		h.rejectTooLarge(c)
		return
	}

	f, err := file.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.engine.RemoveWatermarkBytes(data)
	if err != nil {
		h.fail(c, err)
		return
	}

	box := newBBox(res.Info.Position)
	c.Header("X-Watermark-Applied", strconv.FormatBool(res.Applied))
	c.Header("X-Watermark-Size", strconv.Itoa(res.Info.Size))
	c.Header("X-Watermark-Box", strconv.Itoa(box.X)+","+strconv.Itoa(box.Y)+","+
		strconv.Itoa(box.Width)+","+strconv.Itoa(box.Height))
	c.Data(http.StatusOK, "image/"+res.Format, res.Data)
}

// RemoveBase64 accepts {"image": "<base64 or data URL>"} and returns a base64
// PNG.
func (h *Handler) RemoveBase64(c *gin.Context) {
	// Base64 inflates the payload by 4/3.
	h.limitBody(c, h.maxUploadSize/3*4+multipartOverhead)

	var req Base64Request
	if err := c.ShouldBindJSON(&req); err != nil {
		if tooLarge(err) {
			h.rejectTooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "invalid request body",
			Error:   err.Error(),
		})
		return
	}

	out, res, err := h.engine.RemoveWatermarkBase64(req.Image)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Base64Response{
		Success:  true,
		Image:    out,
		Format:   "png",
		Applied:  res.Applied,
		LogoSize: res.Info.Size,
		Box:      newBBox(res.Info.Position),
	})
}

// Footprint reports the watermark rectangle for ?width=&height=.
func (h *Handler) Footprint(c *gin.Context) {
	width, werr := strconv.Atoi(c.Query("width"))
	height, herr := strconv.Atoi(c.Query("height"))
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "width and height must be positive integers",
		})
		return
	}

	c.JSON(http.StatusOK, newFootprintResponse(width, height))
}

// limitBody caps how much of the request body is read at all, so oversized
// uploads are cut off before they are buffered.
func (h *Handler) limitBody(c *gin.Context, n int64) {
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
	}
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func (h *Handler) rejectTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
		Success: false,
		Message: "image exceeds upload limit of " + strconv.FormatInt(h.maxUploadSize, 10) + " bytes",
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "failed to process image"
	switch {
	case errors.Is(err, watermark.ErrImageProcessingFailed):
		status = http.StatusUnprocessableEntity
		message = "image could not be decoded or encoded"
	case errors.Is(err, watermark.ErrAssetMissing):
		message = "watermark reference asset unavailable"
	}

	h.log.Error(message, zap.Error(err), zap.String("path", c.Request.URL.Path))
	c.JSON(status, ErrorResponse{Success: false, Message: message, Error: err.Error()})
}
