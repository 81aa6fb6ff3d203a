package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-backend/errs"
)

const maxJSONBody = 1 << 20 // 1MB

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names instead of Go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// rejects whitespace-only strings that "required" lets through
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// decodeJSON reads a single JSON document into dst and validates its `validate` tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errs.NewMaxBodySizeExceededError(maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errs.NewBadRequestError("request body is empty")
		default:
			return errs.NewInvalidJSONError(err)
		}
	}
	if decoder.More() {
		return errs.NewInvalidJSONError(errors.New("body must contain a single JSON document"))
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errs.NewBadRequestError(err.Error())
	}
	fe := fieldErrs[0]
	if fe.Tag() == "required" || fe.Tag() == "notblank" {
		return errs.NewMissingRequiredFieldError(fe.Field())
	}
	return errs.NewInvalidFieldError(fe.Field(), validationReason(fe))
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "gt", "gte":
		return "must be greater than " + fe.Param()
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// uuidParam parses the chi URL parameter name as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errs.NewMissingRequiredFieldError(name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewInvalidFieldError(name, "must be a UUID")
	}
	return id, nil
}

// upload is a file read from a multipart form with its sniffed type.
type upload struct {
	Filename  string
	MimeType  string
	Extension string
	Data      []byte
}

// parseMultipart limits the whole request body to maxBytes.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errs.NewMaxBodySizeExceededError(maxBytes)
		}
		return errs.NewBadRequestErrorWithField("invalid multipart form", "body", err.Error())
	}
	return nil
}

// readUploads returns the files of field whose sniffed type is in allowed.
func readUploads(r *http.Request, field string, allowed []string) ([]upload, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, errs.NewMissingRequiredFieldError(field)
	}

	uploads := make([]upload, 0, len(r.MultipartForm.File[field]))
	for _, header := range r.MultipartForm.File[field] {
		u, err := readUpload(header, allowed)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func readUpload(header *multipart.FileHeader, allowed []string) (upload, error) {
	f, err := header.Open()
	if err != nil {
		return upload{}, errs.NewBadRequestError("could not read uploaded file " + header.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return upload{}, errs.NewBadRequestError("could not read uploaded file " + header.Filename)
	}
	if len(data) == 0 {
		return upload{}, errs.NewInvalidFieldError(header.Filename, "file is empty")
	}

	detected := mimetype.Detect(data)
	if !mimetype.EqualsAny(detected.String(), allowed...) {
		return upload{}, errs.NewUnsupportedMediaTypeError(detected.String(), allowed)
	}

	return upload{
		Filename:  header.Filename,
		MimeType:  detected.String(),
		Extension: detected.Extension(),
		Data:      data,
	}, nil
}
