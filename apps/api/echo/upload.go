package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/services/filestore"
)

const maxUploadSize = 50 << 20 // 50 MB

var errNoFile = echo.NewHTTPError(http.StatusBadRequest, "no file uploaded")

type UploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func allowedContentType(ct string) bool {
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") || ct == "application/pdf"
}

type uploadApi struct {
	storage core.FileStorage
}

func registerUploadAPI(g *echo.Group, storage core.FileStorage) {
	api := uploadApi{storage: storage}

	g.POST("", api.upload)
}

func (api *uploadApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return errNoFile
	}
	if fh.Size > maxUploadSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file is larger than 50 MB")
	}
	contentType := fh.Header.Get(echo.HeaderContentType)
	if !allowedContentType(contentType) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid file type, only images, videos and PDFs are allowed")
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	name := filestore.UniqueName(fh.Filename)
	url, err := api.storage.Save(ctx.Request().Context(), name, contentType, src)
	if err != nil {
		return errors.Wrap(err, "saving uploaded file")
	}
	return ctx.JSON(http.StatusOK, UploadResponse{URL: url, Filename: name})
}
