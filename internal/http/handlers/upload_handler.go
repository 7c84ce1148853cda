package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/http/middleware"
)

// UploadResponse locates a stored image.
type UploadResponse struct {
	URL  string `json:"url"  example:"https://example.org/media/comment-images/u1/7a8d9f4c.png"`
	Path string `json:"path" example:"u1/7a8d9f4c.png"`
}

// UploadCommentImage godoc
// @ID          uploadCommentImage
// @Summary     Upload a comment image
// @Tags        Uploads
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file  formData  file  true  "Image file"
// @Success     200  {object}  handlers.UploadResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing file / Only image files are allowed"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     413  {object}  handlers.ErrorResponse  "File too large"
// @Failure     429  {object}  handlers.ErrorResponse  "Too many uploads"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to upload file"
// @Router      /uploads/comment-image [post]
func (h *Handlers) UploadCommentImage(c *gin.Context) {
	h.upload(c, domain.BucketCommentImages)
}

// UploadProviderLogo godoc
// @ID          uploadProviderLogo
// @Summary     Upload a provider logo
// @Tags        Uploads
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file  formData  file  true  "Image file"
// @Success     200  {object}  handlers.UploadResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing file / Only image files are allowed"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     413  {object}  handlers.ErrorResponse  "File too large"
// @Failure     429  {object}  handlers.ErrorResponse  "Too many uploads"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to upload file"
// @Router      /uploads/provider-logo [post]
func (h *Handlers) UploadProviderLogo(c *gin.Context) {
	h.upload(c, domain.BucketProviderLogos)
}

func (h *Handlers) upload(c *gin.Context, bucket string) {
	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "File too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Missing file")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.writeError(c, err, failure{ErrCodeUploadFailed, "Failed to upload file"})
		return
	}
	defer f.Close()

	obj, err := h.svc.Uploads.Upload(c.Request.Context(), bucket, f)
	if err != nil {
		h.mutationFailed(c, "uploads", "create", err, failure{ErrCodeUploadFailed, "Failed to upload file"})
		return
	}
	middleware.RecordMutation("uploads", "create", http.StatusOK)
	middleware.ObserveUpload(bucket, fh.Size)
	ok(c, http.StatusOK, UploadResponse{URL: obj.URL, Path: obj.Path})
}
