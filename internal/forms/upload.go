package forms

import (
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadSize is the largest file a candidate may attach to one field.
const MaxUploadSize = 2 << 20

var allowedUploadTypes = []string{"image/jpeg", "image/png", "application/pdf"}

var (
	ErrUploadTooLarge    = errors.New("upload exceeds 2 MiB")
	ErrUnsupportedUpload = errors.New("unsupported upload type")
)

type Upload struct {
	Header      *multipart.FileHeader
	ContentType string
	Extension   string
}

// CheckUpload sniffs the content of an uploaded file and enforces the size
// and type limits. The declared content type is ignored.
func CheckUpload(header *multipart.FileHeader) (*Upload, error) {
	if header.Size > MaxUploadSize {
		return nil, ErrUploadTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to detect type of %s: %w", header.Filename, err)
	}

	if !mimetype.EqualsAny(mtype.String(), allowedUploadTypes...) {
		return nil, fmt.Errorf("%w (%s)", ErrUnsupportedUpload, mtype.String())
	}

	return &Upload{
		Header:      header,
		ContentType: mtype.String(),
		Extension:   mtype.Extension(),
	}, nil
}
