package controller

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"qbank-admin/pkg/ingestion"
	"qbank-admin/pkg/staging"
)

// readDocument loads the multipart "file" field. Size and type are checked
// by the services.
func readDocument(ctx *fiber.Ctx) (ingestion.Document, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return ingestion.Document{}, staging.NewValidationError("missing upload", staging.FieldError{Field: "file", Error: "is required"})
	}
	if err := staging.CheckUpload(fh.Filename, fh.Size); err != nil {
		return ingestion.Document{}, err
	}
	data, err := readAll(fh)
	if err != nil {
		return ingestion.Document{}, err
	}
	return ingestion.Document{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, staging.MaxUploadSize+1))
}
