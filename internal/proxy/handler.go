package proxy

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/staffphoto/service/internal/response"
)

// Handler serves the image proxy route.
type Handler struct {
	fetcher *Fetcher
}

// NewHandler creates a new proxy Handler.
func NewHandler(fetcher *Fetcher) *Handler {
	return &Handler{fetcher: fetcher}
}

// ImageProxy godoc
//
//	@Summary		Relay an image
//	@Description	Fetches an object from storage and re-serves its bytes with a one-year immutable cache header.
//	@Tags			images
//	@Produce		image/jpeg
//	@Param			url	query		string	true	"Percent-encoded object URL"
//	@Success		200	{file}		binary
//	@Failure		400	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/image-proxy [get]
func (h *Handler) ImageProxy(w http.ResponseWriter, r *http.Request) {
	img, err := h.fetcher.Fetch(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		var upstream *UpstreamError
		switch {
		case errors.Is(err, ErrMissingURL):
			response.BadRequest(w, "missing url parameter")
		case errors.Is(err, ErrInvalidURL), errors.Is(err, ErrHostNotAllowed):
			response.BadRequest(w, err.Error())
		case errors.As(err, &upstream):
			response.Error(w, upstream.StatusCode, upstream.Error())
		case errors.Is(err, ErrTooLarge):
			response.Error(w, http.StatusBadGateway, "image too large")
		default:
			log.Printf("[proxy] fetch failed: %v", err)
			response.InternalError(w, "failed to proxy image")
		}
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", CacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Body)
}
