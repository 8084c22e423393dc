package handle

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"icf-classifier/api/internal/apperr"
	"icf-classifier/api/internal/icf"
	"icf-classifier/api/internal/imaging"
	"icf-classifier/api/internal/pipeline"
)

const multipartMemory = 8 << 20

var extMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Upload handles POST /api/classify/upload: patient fields as form values
// and the images as "images" files.
func (h *Handle) Upload(c *gin.Context) {
	loc := h.requestLocale(c)

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, loc, err)
			return
		}
		h.writeError(c, loc, apperr.Input("expected a multipart form: "+err.Error()))
		return
	}
	defer func() { _ = c.Request.MultipartForm.RemoveAll() }()

	var patient icf.PatientInput
	if err := c.ShouldBind(&patient); err != nil {
		h.writeError(c, loc, apperr.Input("bad form: "+err.Error()))
		return
	}

	raws, err := readUploads(c.Request.MultipartForm.File["images"])
	if err != nil {
		h.writeError(c, loc, err)
		return
	}
	h.run(c, pipeline.Request{
		Patient: patient,
		Images:  raws,
		Locale:  loc,
	}, wantSections(c))
}

// uploadMIME trusts the part's Content-Type unless it is missing or generic,
// then falls back to the extension.
func uploadMIME(fh *multipart.FileHeader) string {
	ct := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if m, ok := extMIME[strings.ToLower(filepath.Ext(fh.Filename))]; ok {
		return m
	}
	return ct
}

// readUploads checks every file against the whitelist before reading any of
// them, so one bad file rejects the batch with all offenders named.
func readUploads(files []*multipart.FileHeader) ([]*imaging.RawImage, error) {
	raws := make([]*imaging.RawImage, 0, len(files))
	for _, fh := range files {
		raws = append(raws, &imaging.RawImage{Name: fh.Filename, MIMEType: uploadMIME(fh)})
	}
	if err := imaging.CheckMIMETypes(raws); err != nil {
		return nil, err
	}
	for i, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			imaging.ReleaseRaw(raws)
			return nil, apperr.MediaDecode(fh.Filename, err)
		}
		raws[i].Data = data
	}
	return raws, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
