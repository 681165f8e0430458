package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/offenesthueringen/bahnclip/internal/adapters/geojson"
	"github.com/offenesthueringen/bahnclip/internal/core/domain"
	"github.com/offenesthueringen/bahnclip/internal/core/usecases"
)

// maxPoints bounds the number of query points accepted by /v1/contains.
const maxPoints = 100000

// boundaryInput carries a boundary either as a plain ring or as GeoJSON.
type boundaryInput struct {
	Boundary        *domain.Boundary `json:"boundary"`
	BoundaryGeoJSON json.RawMessage  `json:"boundary_geojson"`
}

func (in boundaryInput) resolve() (*domain.Boundary, error) {
	if len(in.BoundaryGeoJSON) > 0 {
		return geojson.ParseBoundary(in.BoundaryGeoJSON)
	}
	if in.Boundary == nil {
		return nil, usecases.ErrEmptyBoundary
	}
	return in.Boundary, nil
}

type simplifyRequest struct {
	boundaryInput
	Tolerance *float64 `json:"tolerance"`
}

// SimplifyResponse is returned by POST /v1/simplify.
type SimplifyResponse struct {
	Boundary  *domain.Boundary `json:"boundary"`
	Before    int              `json:"before"`
	After     int              `json:"after"`
	Tolerance float64          `json:"tolerance"`
}

// SimplifyHandler reduces a boundary ring with Douglas-Peucker.
// An omitted tolerance falls back to the configured default.
func SimplifyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req simplifyRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		boundary, err := req.resolve()
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		tol := deps.DefaultTolerance
		if req.Tolerance != nil {
			tol = *req.Tolerance
		}

		out, err := deps.Simplifier.Simplify(c.UserContext(), boundary, tol)
		if err != nil {
			return errFromService(c, err)
		}

		if c.Query("format") == "geojson" {
			data, err := geojson.EncodeBoundary(out)
			if err != nil {
				return errInternal(c, err.Error())
			}
			c.Set(fiber.HeaderContentType, "application/geo+json")
			return c.Send(data)
		}

		return c.JSON(SimplifyResponse{
			Boundary:  out,
			Before:    len(boundary.Ring),
			After:     len(out.Ring),
			Tolerance: tol,
		})
	}
}

type containsRequest struct {
	boundaryInput
	Tolerance float64        `json:"tolerance"`
	Points    []domain.Point `json:"points"`
}

// ContainsHandler tests query points against a boundary. With a positive
// tolerance the boundary is simplified first.
func ContainsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req containsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.Points) > maxPoints {
			return errBadRequest(c, "too many points")
		}
		boundary, err := req.resolve()
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		inside, err := deps.Clips.Contains(c.UserContext(), boundary, req.Tolerance, req.Points)
		if err != nil {
			return errFromService(c, err)
		}

		count := 0
		for _, in := range inside {
			if in {
				count++
			}
		}
		return c.JSON(fiber.Map{
			"inside": inside,
			"count":  count,
		})
	}
}

type clipRequest struct {
	boundaryInput
	Region          string           `json:"region"`
	Sections        []domain.Section `json:"sections"`
	SectionsGeoJSON json.RawMessage  `json:"sections_geojson"`
	Tolerance       *float64         `json:"tolerance"`
	BBox            *domain.Bounds   `json:"bbox"`
}

// ClipHandler runs a full simplify-and-filter pass and records the run.
// With ?format=geojson only the kept sections are returned, as a
// FeatureCollection.
func ClipHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req clipRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		boundary, err := req.resolve()
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		sections := req.Sections
		if len(req.SectionsGeoJSON) > 0 {
			sections, err = geojson.ParseSections(req.SectionsGeoJSON)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
		}

		cr := usecases.ClipRequest{
			Region:    req.Region,
			Boundary:  boundary,
			Sections:  sections,
			Tolerance: deps.DefaultTolerance,
		}
		if cr.Region == "" {
			cr.Region = deps.DefaultRegion
		}
		if req.Tolerance != nil {
			cr.Tolerance = *req.Tolerance
		}
		if req.BBox != nil {
			cr.BBox = *req.BBox
		}

		res, err := deps.Clips.Clip(c.UserContext(), cr)
		if err != nil {
			return errFromService(c, err)
		}
		LoggerFromCtx(c.UserContext()).Info("clip run completed",
			"run_id", res.Run.ID,
			"region", res.Run.Region,
			"kept", res.Run.SectionsKept,
		)

		c.Set("X-Run-ID", res.Run.ID)
		if c.Query("format") == "geojson" {
			return sendSections(c, res.Kept)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// ListRunsHandler returns recent clip runs, newest first.
func ListRunsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		runs, err := deps.Clips.ListRuns(c.UserContext(), 100)
		if err != nil {
			return errFromService(c, err)
		}

		total := len(runs)
		if offset >= total {
			runs = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			runs = runs[offset:end]
		}
		if runs == nil {
			runs = []domain.ClipRun{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: runs, Pagination: pg})
	}
}

// GetRunHandler returns a single clip run by ID.
func GetRunHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		run, err := deps.Clips.GetRun(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(run)
	}
}

// RunSectionsHandler returns the sections kept by a run as GeoJSON.
func RunSectionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sections, err := deps.Clips.RunSections(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		return sendSections(c, sections)
	}
}

// DeleteRunHandler removes a clip run and its kept sections.
func DeleteRunHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Clips.DeleteRun(c.UserContext(), c.Params("id")); err != nil {
			return errFromService(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func sendSections(c *fiber.Ctx, sections []domain.Section) error {
	data, err := geojson.EncodeSections(sections)
	if err != nil {
		return errInternal(c, err.Error())
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(data)
}
