package http

import (
	"bytes"
	"errors"
	"image/jpeg"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/olaizola/maplabel/internal/core/composite"
	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/core/usecases"
	"github.com/olaizola/maplabel/internal/pkg/metrics"
)

// ---- Datasets ----

// ListDatasetsHandler returns all datasets with offset/limit pagination.
func ListDatasetsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		datasets, err := deps.Datasets.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(datasets)
		if offset >= total {
			datasets = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			datasets = datasets[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: datasets, Pagination: pg})
	}
}

// GetDatasetHandler returns a single dataset by slug.
func GetDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if slug == "" {
			return errBadRequest(c, "dataset slug is required")
		}
		ds, err := deps.Datasets.GetBySlug(c.Context(), slug)
		if err != nil {
			return errNotFound(c, "dataset not found")
		}
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(ds)
	}
}

type createDatasetRequest struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Classes     []string `json:"classes"`
	DefaultZoom int      `json:"default_zoom"`
}

// CreateDatasetHandler creates a dataset owned by the caller.
func CreateDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createDatasetRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		ds, err := deps.Datasets.Create(c.Context(), usecases.CreateDatasetRequest{
			OwnerID:     currentUserID(c),
			Slug:        req.Slug,
			Name:        req.Name,
			Description: req.Description,
			Classes:     req.Classes,
			DefaultZoom: req.DefaultZoom,
		})
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(ds)
	}
}

// DeleteDatasetHandler removes a dataset the caller owns.
func DeleteDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "dataset id is required")
		}
		if err := deps.Datasets.Delete(c.Context(), id, currentUserID(c)); err != nil {
			return mapServiceError(c, err)
		}
		return c.SendStatus(204)
	}
}

// DatasetStatsHandler returns labeling progress for a dataset.
func DatasetStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ds, err := deps.Datasets.GetBySlug(c.Context(), c.Params("slug"))
		if err != nil {
			return errNotFound(c, "dataset not found")
		}
		stats, err := deps.Datasets.Stats(c.Context(), ds.ID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// ---- Boxes ----

type createBoxRequest struct {
	DatasetID string           `json:"dataset_id"`
	ClassID   int              `json:"class_id"`
	Label     string           `json:"label"`
	Bounds    domain.GeoBounds `json:"bounds"`
	Zoom      int              `json:"zoom"`
}

// CreateBoxHandler runs the full labeling pipeline for one geographic box.
func CreateBoxHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createBoxRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.DatasetID == "" {
			return errBadRequest(c, "dataset_id is required")
		}
		if req.Zoom < 0 || req.Zoom > 22 {
			return errBadRequest(c, "zoom must be 0-22")
		}

		start := time.Now()
		box, err := deps.Boxes.Create(c.Context(), usecases.CreateBoxRequest{
			DatasetID: req.DatasetID,
			OwnerID:   currentUserID(c),
			ClassID:   req.ClassID,
			Label:     req.Label,
			Bounds:    req.Bounds,
			Zoom:      req.Zoom,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTooManyTiles):
				return errUnprocessable(c, err.Error())
			case errors.Is(err, domain.ErrLatitudeOutOfRange):
				return errUnprocessable(c, err.Error())
			case errors.Is(err, usecases.ErrInvalidInput):
				return errBadRequest(c, err.Error())
			default:
				// Persist and image-store failures are ours, not the caller's.
				return errInternal(c, err.Error())
			}
		}

		metrics.CompositeDuration.Observe(time.Since(start).Seconds())
		metrics.BoxesCreated.Inc()
		return c.Status(201).JSON(box)
	}
}

// GetBoxHandler returns a single box with its annotation.
func GetBoxHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		box, err := deps.Boxes.GetByID(c.Context(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "box not found")
		}
		c.Set("Cache-Control", "public, max-age=600")
		return c.JSON(box)
	}
}

// ListBoxesHandler returns one page of a dataset's boxes.
func ListBoxesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ds, err := deps.Datasets.GetBySlug(c.Context(), c.Params("slug"))
		if err != nil {
			return errNotFound(c, "dataset not found")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)

		boxes, total, err := deps.Boxes.ListByDataset(c.Context(), ds.ID, offset, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: boxes, Pagination: pg})
	}
}

// DeleteBoxHandler removes a box the caller owns.
func DeleteBoxHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Boxes.Delete(c.Context(), c.Params("id"), currentUserID(c)); err != nil {
			if err == usecases.ErrForbidden {
				return errForbidden(c, "you do not own this box")
			}
			return errNotFound(c, "box not found")
		}
		return c.SendStatus(204)
	}
}

// BoxImageHandler serves the stored composite JPEG.
func BoxImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := deps.Boxes.Image(c.Context(), c.Params("id"))
		if err != nil {
			return errNotFound(c, err.Error())
		}
		c.Set("Content-Type", "image/jpeg")
		c.Set("Cache-Control", "public, max-age=86400, immutable")
		return c.Send(data)
	}
}

// BoxLabelHandler serves the YOLO label line as plain text.
func BoxLabelHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		line, err := deps.Boxes.LabelLine(c.Context(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "box not found")
		}
		c.Set("Content-Type", "text/plain; charset=utf-8")
		c.Set("Cache-Control", "public, max-age=86400, immutable")
		return c.SendString(line + "\n")
	}
}

// BoxPreviewHandler serves the composite with the projected rectangle
// stroked on top, for visually checking annotation placement.
func BoxPreviewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		box, err := deps.Boxes.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "box not found")
		}

		data, err := deps.Boxes.Image(c.Context(), id)
		if err != nil {
			return errNotFound(c, err.Error())
		}
		src, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return errInternal(c, "stored image is corrupt: "+err.Error())
		}

		annotated := composite.DrawAnnotation(src, box.Annotation.PixelRect)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, annotated, &jpeg.Options{Quality: 85}); err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Content-Type", "image/jpeg")
		return c.Send(buf.Bytes())
	}
}

// ---- Exports ----

// TriggerExportHandler starts packaging a dataset.
func TriggerExportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "dataset id is required")
		}
		job, err := deps.Exports.Trigger(c.Context(), id)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(202).JSON(job)
	}
}

// GetExportHandler returns one export job's status.
func GetExportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := deps.Exports.GetByID(c.Context(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "export job not found")
		}
		return c.JSON(job)
	}
}

// ListExportsHandler returns a dataset's export history.
func ListExportsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ds, err := deps.Datasets.GetBySlug(c.Context(), c.Params("slug"))
		if err != nil {
			return errNotFound(c, "dataset not found")
		}
		jobs, err := deps.Exports.ListByDataset(c.Context(), ds.ID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(jobs)
	}
}
