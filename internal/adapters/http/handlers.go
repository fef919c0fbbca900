package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/usecases"
	"github.com/samirrijal/kadal/internal/pkg/validation"
)

const (
	defaultReferenceYear = 2022
	defaultTargetYear    = 2023
	defaultEmbeddingYear = 2023
	defaultNumPoints     = 50
)

// HeatmapRequest is the body of POST /api/similarity-heatmap.
type HeatmapRequest struct {
	Bounds        domain.BoundingBox `json:"bounds" validate:"required"`
	ReferenceYear int                `json:"reference_year" validate:"min=2017,max=2100"`
	TargetYear    int                `json:"target_year" validate:"min=2017,max=2100"`
}

// EmbeddingsRequest is the body of POST /api/embeddings.
type EmbeddingsRequest struct {
	Bounds    domain.BoundingBox `json:"bounds" validate:"required"`
	Year      int                `json:"year" validate:"min=2017,max=2100"`
	NumPoints int                `json:"num_points" validate:"min=1,max=1000"`
}

// boundsFromQuery reads north/south/east/west; all four are required.
func boundsFromQuery(c *fiber.Ctx) (domain.BoundingBox, error) {
	var vals [4]float64
	for i, key := range []string{"north", "south", "east", "west"} {
		raw := c.Query(key)
		if raw == "" {
			return domain.BoundingBox{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidBounds, key)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.BoundingBox{}, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidBounds, key)
		}
		vals[i] = v
	}
	return domain.BoundingBox{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}, nil
}

// parseBody decodes and validates a JSON request body.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidParameter)
	}
	return validation.Struct(dst)
}

// SimilarityHeatmapHandler serves GET /api/similarity-heatmap.
func SimilarityHeatmapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bounds, err := boundsFromQuery(c)
		if err != nil {
			return respondError(c, err)
		}
		req := HeatmapRequest{
			Bounds:        bounds,
			ReferenceYear: c.QueryInt("reference_year", defaultReferenceYear),
			TargetYear:    c.QueryInt("target_year", defaultTargetYear),
		}
		if err := validation.Struct(&req); err != nil {
			return respondError(c, err)
		}
		return similarityHeatmap(c, deps, req)
	}
}

// PostSimilarityHeatmapHandler serves POST /api/similarity-heatmap.
func PostSimilarityHeatmapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := HeatmapRequest{ReferenceYear: defaultReferenceYear, TargetYear: defaultTargetYear}
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		return similarityHeatmap(c, deps, req)
	}
}

func similarityHeatmap(c *fiber.Ctx, deps *Dependencies, req HeatmapRequest) error {
	LoggerFromCtx(c.UserContext()).Info("similarity heatmap requested",
		"reference_year", req.ReferenceYear,
		"target_year", req.TargetYear,
		"area", req.Bounds.Area(),
	)

	result, err := deps.Heatmap.FetchSimilarityHeatmap(c.UserContext(), req.Bounds, req.ReferenceYear, req.TargetYear)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"mode":           "similarity_heatmap",
		"data":           result,
		"reference_year": req.ReferenceYear,
		"target_year":    req.TargetYear,
		"message":        fmt.Sprintf("Similarity heatmap computed between %d and %d", req.ReferenceYear, req.TargetYear),
	})
}

// EmbeddingsHandler serves GET /api/embeddings.
func EmbeddingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bounds, err := boundsFromQuery(c)
		if err != nil {
			return respondError(c, err)
		}
		req := EmbeddingsRequest{
			Bounds:    bounds,
			Year:      c.QueryInt("year", defaultEmbeddingYear),
			NumPoints: c.QueryInt("num_points", defaultNumPoints),
		}
		if err := validation.Struct(&req); err != nil {
			return respondError(c, err)
		}
		return embeddings(c, deps, req)
	}
}

// PostEmbeddingsHandler serves POST /api/embeddings.
func PostEmbeddingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := EmbeddingsRequest{Year: defaultEmbeddingYear, NumPoints: defaultNumPoints}
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		return embeddings(c, deps, req)
	}
}

func embeddings(c *fiber.Ctx, deps *Dependencies, req EmbeddingsRequest) error {
	points, err := deps.Heatmap.FetchEmbeddings(c.UserContext(), req.Bounds, req.Year, req.NumPoints)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"mode":    "embeddings",
		"data":    points,
		"bounds":  req.Bounds,
		"year":    req.Year,
		"count":   len(points),
		"message": fmt.Sprintf("Retrieved %d embedding points for year %d", len(points), req.Year),
	})
}

// QueryHandler serves POST /api/mcp/query. Planner and tool failures come
// back as a 200 with a non-success status.
func QueryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.QueryRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		req.Query = strings.TrimSpace(req.Query)
		if req.Query == "" {
			return errBadRequest(c, "Invalid request", "query is required")
		}

		resp, err := deps.Queries.Process(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(resp)
	}
}

// QueryHistoryHandler serves GET /api/mcp/history.
func QueryHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		entries, total, err := deps.Queries.History(c.UserContext(), limit, offset)
		if err != nil {
			return respondError(c, err)
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, &pg)
		c.Set("Cache-Control", "no-store")
		return c.JSON(PaginatedResponse{Data: entries, Pagination: pg})
	}
}

// ViewportImageryHandler serves POST /api/satellite/viewport.
func ViewportImageryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.ImageryRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}

		result, err := deps.Imagery.LatestImagery(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(struct {
			Success bool `json:"success"`
			*domain.ImageryResult
		}{Success: true, ImageryResult: result})
	}
}

// VisualizationsHandler serves GET /api/satellite/visualizations.
func VisualizationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		options := deps.Imagery.Visualizations()
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{
			"success": true,
			"data":    options,
			"count":   len(options),
		})
	}
}

// GeocodeHandler serves GET /api/geocode?q=. A miss is a 200 with found=false.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			return errBadRequest(c, "Invalid parameter", "q query parameter is required")
		}
		if len(q) > 200 {
			return errBadRequest(c, "Invalid parameter", "query too long (max 200 characters)")
		}

		result := deps.Geocoder.Geocode(c.UserContext(), q)
		if result.Found {
			c.Set("Cache-Control", "public, max-age=86400")
		}
		return c.JSON(result)
	}
}

// DatasetSearchHandler serves GET /api/datasets?q=&limit=.
func DatasetSearchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if q == "" {
			return errBadRequest(c, "Invalid parameter", "q query parameter is required")
		}
		return c.JSON(usecases.SearchDatasets(q, c.QueryInt("limit", 10)))
	}
}

// DatasetHandler serves GET /api/datasets/:id from the static catalog.
func DatasetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("*")
		if id == "" {
			return errBadRequest(c, "Invalid parameter", "dataset id is required")
		}
		ds, ok := usecases.LookupDataset(id)
		if !ok {
			return errNotFound(c, "dataset "+id+" is not in the catalog")
		}
		return c.JSON(ds)
	}
}

// DemoLocationsHandler serves GET /api/demo-locations.
func DemoLocationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		locations := usecases.DemoLocations()
		return c.JSON(fiber.Map{
			"success": true,
			"data":    locations,
			"count":   len(locations),
			"message": "Retrieved demo locations for similarity analysis",
		})
	}
}

// AnalysisTypesHandler serves GET /api/analysis-types.
func AnalysisTypesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		types := usecases.AnalysisTypes()
		return c.JSON(fiber.Map{
			"success": true,
			"data":    types,
			"count":   len(types),
			"message": "Retrieved supported analysis types",
		})
	}
}

// MonitorReportsHandler serves GET /api/monitor/reports.
func MonitorReportsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Reports == nil {
			return c.JSON(fiber.Map{"success": true, "data": []domain.MonitorReport{}, "count": 0})
		}
		reports, err := deps.Reports.Latest(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "data": reports, "count": len(reports)})
	}
}
