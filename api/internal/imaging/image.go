package imaging

import (
	"encoding/base64"
	"strings"

	"icf-classifier/api/internal/apperr"
	"icf-classifier/api/internal/util"
)

// OutputMIME is the only format NormalizedImage ever carries.
const OutputMIME = "image/jpeg"

var supportedMIME = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/jpg":  {},
	"image/gif":  {},
	"image/webp": {},
}

// IsSupportedMIME matches the accepted upload types case-insensitively.
// Parameters such as "; charset=" are ignored.
func IsSupportedMIME(mime string) bool {
	m := strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	_, ok := supportedMIME[m]
	return ok
}

// RawImage is an uploaded file as received. The caller owns Data until the
// image is handed to a Normalizer, which releases it.
type RawImage struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Release zeroes and drops the backing buffer.
func (r *RawImage) Release() {
	if r == nil {
		return
	}
	clear(r.Data)
	r.Data = nil
}

// CheckMIMETypes rejects the batch when any file falls outside the
// whitelist, naming every offender at once.
func CheckMIMETypes(raws []*RawImage) error {
	var bad []string
	for _, r := range raws {
		if !IsSupportedMIME(r.MIMEType) {
			bad = append(bad, r.Name)
		}
	}
	if len(bad) > 0 {
		return apperr.UnsupportedMedia(bad)
	}
	return nil
}

func ReleaseRaw(raws []*RawImage) {
	for _, r := range raws {
		r.Release()
	}
}

// NormalizedImage is a JPEG no larger than the normalizer's bound on its
// longer side. It must be released once the request is over.
type NormalizedImage struct {
	MIMEType string
	Width    int
	Height   int
	data     []byte
}

func (n *NormalizedImage) Bytes() []byte { return n.data }

func (n *NormalizedImage) Size() int { return len(n.data) }

// EncodedData is the base64 form sent to providers.
func (n *NormalizedImage) EncodedData() string {
	return base64.StdEncoding.EncodeToString(n.data)
}

func (n *NormalizedImage) DataURL() string {
	return util.MakeDataURL(n.MIMEType, n.EncodedData())
}

func (n *NormalizedImage) Release() {
	if n == nil {
		return
	}
	clear(n.data)
	n.data = nil
}

func ReleaseAll(imgs []*NormalizedImage) {
	for _, n := range imgs {
		n.Release()
	}
}

// TotalBytes sums encoded sizes for logging.
func TotalBytes(imgs []*NormalizedImage) int {
	total := 0
	for _, n := range imgs {
		if n != nil {
			total += n.Size()
		}
	}
	return total
}
