package submhttp

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/screensync/backend/httpjson"
	"github.com/screensync/backend/logger"
	"github.com/screensync/backend/srvcerror"
	"github.com/screensync/backend/subm"
	"github.com/wailsapp/mimetype"
)

// PostSubms processes one multipart submission batch. The body is always
// {"success", "message"}.
func (h *SubmHttpHandler) PostSubms(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("submission body too large", "limit", tooLarge.Limit)
			httpjson.WriteJson(w, http.StatusRequestEntityTooLarge, subm.Result{
				Success: false,
				Message: srvcerror.ErrFormTooLarge().Error(),
			})
			return
		}
		log.Warn("failed to parse multipart form", "error", err)
		httpjson.WriteJson(w, http.StatusBadRequest, subm.Result{
			Success: false,
			Message: srvcerror.ErrInvalidForm().Error(),
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	form, err := formFromMultipart(r.MultipartForm)
	if err != nil {
		log.Warn("failed to read uploaded screenshot", "error", err)
		httpjson.WriteJson(w, http.StatusBadRequest, subm.Result{
			Success: false,
			Message: srvcerror.ErrInvalidForm().Error(),
		})
		return
	}

	res := h.processor.Process(r.Context(), form)
	httpjson.WriteJson(w, resultStatus(res), res)
}

func resultStatus(res subm.Result) int {
	switch {
	case res.Success:
		return http.StatusCreated
	case res.Err != nil:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func formFromMultipart(mf *multipart.Form) (subm.Form, error) {
	form := subm.Form{
		Values: mf.Value,
		Files:  make(map[string][]subm.Screenshot, len(mf.File)),
	}
	for field, headers := range mf.File {
		for _, fh := range headers {
			shot, err := readScreenshot(fh)
			if err != nil {
				return subm.Form{}, fmt.Errorf("field %s: %w", field, err)
			}
			form.Files[field] = append(form.Files[field], shot)
		}
	}
	return form, nil
}

func readScreenshot(fh *multipart.FileHeader) (subm.Screenshot, error) {
	f, err := fh.Open()
	if err != nil {
		return subm.Screenshot{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	// fh.Size is already bounded by the request body limit
	content := make([]byte, fh.Size)
	if _, err := io.ReadFull(f, content); err != nil {
		return subm.Screenshot{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}

	// the client's content type is trusted; sniff only when it sent none
	contentType := fh.Header.Get("Content-Type")
	if (contentType == "" || contentType == "application/octet-stream") && len(content) > 0 {
		if detected := mimetype.Detect(content); detected != nil {
			contentType = detected.String()
		}
	}

	return subm.Screenshot{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        int64(len(content)),
		Content:     content,
	}, nil
}
