package photo

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/staffphoto/service/internal/middleware"
	"github.com/staffphoto/service/internal/response"
	"github.com/staffphoto/service/internal/storage"
)

// Handler holds HTTP handlers for the upload and moderation routes.
type Handler struct {
	svc *Service
}

// NewHandler creates a new photo Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type uploadTokenResponse struct {
	response.Envelope
	*storage.UploadToken
}

type urlResponse struct {
	response.Envelope
	URL string `json:"url" example:"/api/image-proxy?url=http%3A%2F%2Flocalhost%3A9000%2Fphotos%2FE100_20250101-120000.jpg"`
}

type uploadResponse struct {
	response.Envelope
	Key string `json:"key" example:"E100_20250101-120000.jpg"`
	URL string `json:"url"`
}

type listResponse struct {
	response.Envelope
	Photos     []Photo `json:"photos"`
	Total      int     `json:"total"      example:"42"`
	Page       int     `json:"page"       example:"1"`
	PageSize   int     `json:"pageSize"   example:"10"`
	TotalPages int     `json:"totalPages" example:"5"`
}

type deleteResponse struct {
	response.Envelope
	Page int `json:"page,omitempty" example:"2"`
}

type updateStatusRequest struct {
	ID     string `json:"id"     example:"e7eedc79-0707-4fe4-8734-526b7ef13a7b"`
	Status Status `json:"status" example:"processed"`
}

// UploadToken godoc
//
//	@Summary		Issue an upload token
//	@Description	Returns a credential that lets the caller upload one object directly to storage under a generated key.
//	@Tags			upload
//	@Produce		json
//	@Param			employeeId	query		string	true	"Employee number"
//	@Param			filename	query		string	false	"Original file name, used for the extension"
//	@Param			key			query		string	false	"Explicit key; must start with {employeeId}_"
//	@Success		200			{object}	uploadTokenResponse
//	@Failure		400			{object}	response.Envelope
//	@Failure		429			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/upload-token [get]
func (h *Handler) UploadToken(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tok, err := h.svc.IssueUploadToken(r.Context(), q.Get("employeeId"), q.Get("filename"), q.Get("key"))
	if err != nil {
		h.fail(w, err, "Failed to generate upload token")
		return
	}
	response.OK(w, uploadTokenResponse{Envelope: response.Envelope{Success: true}, UploadToken: tok})
}

// DownloadURL godoc
//
//	@Summary		Resolve a photo URL
//	@Description	Returns the proxy-routed public URL for an object key.
//	@Tags			upload
//	@Produce		json
//	@Param			key	query		string	true	"Object key"
//	@Success		200	{object}	urlResponse
//	@Failure		400	{object}	response.Envelope
//	@Router			/download-url [get]
func (h *Handler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.DownloadURL(r.URL.Query().Get("key"))
	if err != nil {
		h.fail(w, err, "Failed to generate download URL")
		return
	}
	response.OK(w, urlResponse{Envelope: response.Envelope{Success: true}, URL: url})
}

// RefreshImageURL godoc
//
//	@Summary		Refresh a photo URL
//	@Description	Recomputes the proxy-routed public URL for an object key.
//	@Tags			admin
//	@Produce		json
//	@Security		SessionCookie
//	@Param			key	query		string	true	"Object key"
//	@Success		200	{object}	urlResponse
//	@Failure		400	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Router			/refresh-image-url [get]
func (h *Handler) RefreshImageURL(w http.ResponseWriter, r *http.Request) {
	h.DownloadURL(w, r)
}

// SaveEmployee godoc
//
//	@Summary		Record an uploaded photo
//	@Description	Creates or updates the employee and records the photo already transferred to storage.
//	@Tags			upload
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SaveUploadInput	true	"Employee and photo metadata"
//	@Success		200		{object}	response.Envelope
//	@Failure		400		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		429		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/save-employee [post]
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var req SaveUploadInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if _, err := h.svc.SaveUpload(r.Context(), req); err != nil {
		h.fail(w, err, "保存员工信息失败")
		return
	}
	response.Success(w, "")
}

// Upload godoc
//
//	@Summary		Upload a photo through the server
//	@Description	Accepts a multipart form, stores the file under a generated key and records it.
//	@Tags			upload
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	true	"Image file (max 10MB)"
//	@Param			employeeId	formData	string	true	"Employee number"
//	@Param			name		formData	string	false	"Name"
//	@Param			phone		formData	string	false	"Phone"
//	@Param			department	formData	string	true	"Department"
//	@Success		200			{object}	uploadResponse
//	@Failure		400			{object}	response.Envelope
//	@Failure		413			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.svc.settings.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "文件过大")
			return
		}
		response.BadRequest(w, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "请选择照片")
		return
	}
	defer file.Close()

	contentType, err := detectContentType(file, header)
	if err != nil {
		response.BadRequest(w, "invalid file")
		return
	}

	res, err := h.svc.Upload(r.Context(), UploadInput{
		EmployeeID:  r.FormValue("employeeId"),
		Name:        r.FormValue("name"),
		Phone:       r.FormValue("phone"),
		Department:  r.FormValue("department"),
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.fail(w, err, "上传失败，请重试")
		return
	}
	response.OK(w, uploadResponse{Envelope: response.Envelope{Success: true}, Key: res.Key, URL: res.URL})
}

// detectContentType prefers the part's declared type and sniffs the bytes otherwise.
func detectContentType(file multipart.File, header *multipart.FileHeader) (string, error) {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct, nil
	}
	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// ListPhotos godoc
//
//	@Summary		List photos
//	@Description	Returns one page of photos with their employees, newest first. URLs are routed through the image proxy.
//	@Tags			admin
//	@Produce		json
//	@Security		SessionCookie
//	@Param			page		query		int		false	"Page number (default 1)"
//	@Param			pageSize	query		int		false	"Page size (default 10, max 100)"
//	@Param			search		query		string	false	"Substring of employee name or number"
//	@Param			department	query		string	false	"Exact department"
//	@Param			status		query		string	false	"processed or unprocessed"
//	@Success		200			{object}	listResponse
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/photos [get]
func (h *Handler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.ListPhotos(r.Context(), ListQuery{
		Page:     atoiOr(q.Get("page"), 1),
		PageSize: atoiOr(q.Get("pageSize"), DefaultPageSize),
		Filter: Filter{
			Search:     strings.TrimSpace(q.Get("search")),
			Department: q.Get("department"),
			Status:     Status(q.Get("status")),
		},
	})
	if err != nil {
		h.fail(w, err, "Failed to fetch photos")
		return
	}

	response.OK(w, listResponse{
		Envelope:   response.Envelope{Success: true},
		Photos:     res.Photos,
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	})
}

// UpdateStatus godoc
//
//	@Summary		Update photo status
//	@Description	Marks a photo as processed or unprocessed.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		updateStatusRequest	true	"Photo id and new status"
//	@Success		200		{object}	response.Envelope
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/update-status [post]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.ID == "" || req.Status == "" {
		response.BadRequest(w, "Missing id or status")
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), req.ID, req.Status); err != nil {
		h.fail(w, err, "Failed to update photo status")
		return
	}
	admin, _ := middleware.AdminFromContext(r.Context())
	log.Printf("[photo] %s set %s to %s", admin, req.ID, req.Status)
	response.Success(w, "")
}

// DeletePhoto godoc
//
//	@Summary		Delete a photo
//	@Description	Deletes the photo row, then the stored object on a best-effort basis. When page and rows are given, the response names the page the view should show next.
//	@Tags			admin
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id		query		string	true	"Photo id"
//	@Param			key		query		string	false	"Object key (informational; the stored key is used)"
//	@Param			page	query		int		false	"Page currently displayed"
//	@Param			rows	query		int		false	"Rows currently displayed on that page"
//	@Success		200		{object}	deleteResponse
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/delete-photo [delete]
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		response.BadRequest(w, "Missing id parameter")
		return
	}

	p, err := h.svc.DeletePhoto(r.Context(), id)
	if err != nil {
		h.fail(w, err, "Failed to delete photo")
		return
	}
	if key := q.Get("key"); key != "" && key != p.Key {
		log.Printf("[photo] delete %s: client key %q differs from stored key %q", id, key, p.Key)
	}
	admin, _ := middleware.AdminFromContext(r.Context())
	log.Printf("[photo] %s deleted %s (%s)", admin, id, p.Key)

	resp := deleteResponse{Envelope: response.Envelope{Success: true}}
	if q.Has("page") && q.Has("rows") {
		resp.Page = NextPageAfterDelete(atoiOr(q.Get("page"), 1), atoiOr(q.Get("rows"), 0))
	}
	response.OK(w, resp)
}

// fail maps service errors to responses. fallback is the message for unexpected errors.
func (h *Handler) fail(w http.ResponseWriter, err error, fallback string) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		response.BadRequest(w, ve.Message)
	case errors.Is(err, storage.ErrKeyRequired):
		response.BadRequest(w, "Missing key parameter")
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "照片不存在")
	case errors.Is(err, ErrEmployeeNotFound):
		response.NotFound(w, "员工不存在")
	case errors.Is(err, ErrAlreadyRecorded):
		response.Conflict(w, "照片已保存")
	case errors.Is(err, ErrInvalidStatus):
		response.BadRequest(w, "Invalid status")
	default:
		log.Printf("[photo] %s: %v", fallback, err)
		response.InternalError(w, fallback)
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
