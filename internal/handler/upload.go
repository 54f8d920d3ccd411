package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Eursukkul/restaurant-service/internal/service"
	"github.com/labstack/echo/v4"
)

// formImage opens the optional "image" file of a multipart form. The returned
// closer must be called once the upload has been handled.
func formImage(c echo.Context) (*service.ImageUpload, io.Closer, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, io.NopCloser(nil), nil
		}
		return nil, nil, badRequest("invalid image upload")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, badRequest("invalid image upload")
	}
	return &service.ImageUpload{Filename: fh.Filename, Size: fh.Size, Content: f}, f, nil
}

func formUint(c echo.Context, name string) uint {
	v, err := strconv.ParseUint(strings.TrimSpace(c.FormValue(name)), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func formBool(c echo.Context, name string, fallback bool) bool {
	v, err := strconv.ParseBool(c.FormValue(name))
	if err != nil {
		return fallback
	}
	return v
}
