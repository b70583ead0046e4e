// Package api exposes the extraction pipeline over HTTP: upload one
// invoice PDF, get back the normalized rows plus a rendered CSV.
package api

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/invoice-extractor/internal/engine"
	"github.com/insightdelivered/invoice-extractor/internal/extractor"
	"github.com/insightdelivered/invoice-extractor/internal/models"
	"github.com/insightdelivered/invoice-extractor/internal/normalize"
	"github.com/insightdelivered/invoice-extractor/internal/writer"
)

const version = "1.0.0"

// ConvertResponse is the JSON body returned by /api/convert.
type ConvertResponse struct {
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Family  string              `json:"family,omitempty"`
	Rows    []models.Row        `json:"rows"`
	CSV     string              `json:"csv,omitempty"`
	Count   int                 `json:"count"`
	Trace   []models.TraceEvent `json:"trace,omitempty"`
	Version string              `json:"version,omitempty"`
}

// HandleHealth reports liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": version,
	})
}

// HandleConvert accepts a multipart upload under the "file" field,
// runs the full pipeline on it, and returns the rows. An optional
// "family" form value pins the engine instead of auto-detecting.
func HandleConvert(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return errorResponse(c, fiber.StatusBadRequest, "Only PDF files are supported.")
	}

	tmp, err := os.CreateTemp("", "invoice-*.pdf")
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to store upload.")
	}
	defer os.Remove(tmp.Name())
	tmp.Close()

	if err := c.SaveFile(fileHeader, tmp.Name()); err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to store upload.")
	}

	pages, err := extractor.ExtractPages(tmp.Name())
	if err != nil {
		return errorResponse(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
	}

	family := models.FamilyUnknown
	if param := c.FormValue("family"); param != "" {
		family = models.Family(strings.ToLower(param))
	} else {
		family = engine.Detect(pages)
	}
	if family == models.FamilyUnknown {
		return errorResponse(c, fiber.StatusUnprocessableEntity, "Could not identify an invoice product family.")
	}

	eng, err := engine.New(family)
	if err != nil {
		return errorResponse(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	header := engine.ExtractHeader(pages)
	engine.OverrideHeader(family, pages, &header)

	rs := eng.Extract(pages, header)
	normalize.Apply(rs, header, fileHeader.Filename)

	var buf bytes.Buffer
	w := &writer.CSVWriter{IncludeHeader: true}
	if err := w.Write(&buf, rs.Rows); err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to render CSV.")
	}

	return c.JSON(ConvertResponse{
		Success: true,
		Family:  eng.FamilyName(),
		Rows:    rs.Rows,
		CSV:     buf.String(),
		Count:   len(rs.Rows),
		Trace:   rs.Trace,
		Version: version,
	})
}

func errorResponse(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		Error:   msg,
		Rows:    []models.Row{},
	})
}
