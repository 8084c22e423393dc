package handle

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"icf-classifier/api/internal/apperr"
	"icf-classifier/api/internal/icf"
	"icf-classifier/api/internal/imaging"
	"icf-classifier/api/internal/pipeline"
	"icf-classifier/api/internal/util"
)

// ImagePayload is one posted image. EncodedData may be bare base64 or a
// data URI; Base64 is the older field name for the same thing.
type ImagePayload struct {
	EncodedData string `json:"encodedData"`
	Base64      string `json:"base64"`
	MIMEType    string `json:"mimeType"`
}

type ClassifyRequest struct {
	PatientData icf.PatientInput `json:"patientData"`
	Images      []ImagePayload   `json:"images"`
}

// Classify handles POST /api/classify.
func (h *Handle) Classify(c *gin.Context) {
	loc := h.requestLocale(c)

	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, loc, err)
			return
		}
		h.writeError(c, loc, apperr.Input("bad json: "+err.Error()))
		return
	}

	raws, err := decodeImages(req.Images)
	if err != nil {
		h.writeError(c, loc, err)
		return
	}

	h.run(c, pipeline.Request{
		Patient: req.PatientData,
		Images:  raws,
		Locale:  loc,
	}, wantSections(c))
}

// decodeImages turns posted payloads into raw images named image-<n>.
// Every payload that is not valid base64 is reported at once.
func decodeImages(in []ImagePayload) ([]*imaging.RawImage, error) {
	raws := make([]*imaging.RawImage, 0, len(in))
	var bad []string
	for i, p := range in {
		name := fmt.Sprintf("image-%d", i+1)
		src := p.EncodedData
		if src == "" {
			src = p.Base64
		}
		data, hint, err := util.DecodeBase64MaybeDataURL(src)
		if err != nil || len(data) == 0 {
			bad = append(bad, name)
			continue
		}
		raws = append(raws, &imaging.RawImage{
			Name:     name,
			MIMEType: util.PickMIME(p.MIMEType, hint, data),
			Data:     data,
		})
	}
	if len(bad) > 0 {
		imaging.ReleaseRaw(raws)
		e := apperr.New(apperr.KindMediaDecode, "decode", "image payload is not valid base64")
		e.Files = bad
		return nil, e
	}
	return raws, nil
}
