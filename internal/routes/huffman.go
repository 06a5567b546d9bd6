package routes

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/d4s/chw/internal/pipeline"
)

func CompressFile(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot open uploaded file")
	}
	defer src.Close()

	var out bytes.Buffer
	if err := pipeline.Compress(src, &out, pipeline.Options{}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "compression failed")
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/octet-stream")
	c.Response().Header().Set(
		echo.HeaderContentDisposition,
		"attachment; filename=\"compressed_"+file.Filename+"\"",
	)

	if _, err := io.Copy(c.Response(), &out); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to write response")
	}

	return nil
}

func DecompressFile(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot open uploaded file")
	}
	defer src.Close()

	var out bytes.Buffer
	if err := pipeline.Decompress(src, &out, pipeline.Options{}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "decompression failed")
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/octet-stream")
	c.Response().Header().Set(
		echo.HeaderContentDisposition,
		"attachment; filename=\"decompressed_"+strings.TrimSuffix(file.Filename, ".huff")+"\"",
	)

	if _, err := io.Copy(c.Response(), &out); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to write response")
	}

	return nil
}
