package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the clip services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	pointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Point",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.Float},
			"y": &graphql.Field{Type: graphql.Float},
		},
	})

	pointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"x": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"y": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})
	ringArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(pointInput)))}

	boundaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Boundary",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.String},
			"ring": &graphql.Field{Type: graphql.NewList(pointType)},
			"points": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return len(p.Source.(*domain.Boundary).Ring), nil
				},
			},
		},
	})

	runType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ClipRun",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: graphql.String},
			"region":            &graphql.Field{Type: graphql.String},
			"tolerance":         &graphql.Field{Type: graphql.Float},
			"boundary_points":   &graphql.Field{Type: graphql.Int},
			"simplified_points": &graphql.Field{Type: graphql.Int},
			"sections_total":    &graphql.Field{Type: graphql.Int},
			"sections_in_bbox":  &graphql.Field{Type: graphql.Int},
			"sections_kept":     &graphql.Field{Type: graphql.Int},
			"kept_length_km":    &graphql.Field{Type: graphql.Float},
			"started_at":        &graphql.Field{Type: graphql.DateTime},
			"duration_ms": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return float64(runOf(p.Source).Duration.Microseconds()) / 1000, nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"simplify": &graphql.Field{
				Type:        boundaryType,
				Description: "Simplify a boundary ring with Douglas-Peucker",
				Args: graphql.FieldConfigArgument{
					"ring":      ringArg,
					"tolerance": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					tol := deps.DefaultTolerance
					if t, ok := p.Args["tolerance"].(float64); ok {
						tol = t
					}
					b := &domain.Boundary{Ring: pointsArg(p.Args["ring"])}
					return deps.Simplifier.Simplify(p.Context, b, tol)
				},
			},
			"contains": &graphql.Field{
				Type:        graphql.NewList(graphql.Boolean),
				Description: "Test points against a boundary ring, simplified first when tolerance > 0",
				Args: graphql.FieldConfigArgument{
					"ring":      ringArg,
					"points":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(pointInput)))},
					"tolerance": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					b := &domain.Boundary{Ring: pointsArg(p.Args["ring"])}
					tol, _ := p.Args["tolerance"].(float64)
					return deps.Clips.Contains(p.Context, b, tol, pointsArg(p.Args["points"]))
				},
			},
			"runs": &graphql.Field{
				Type:        graphql.NewList(runType),
				Description: "Recent clip runs, newest first",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Clips.ListRuns(p.Context, p.Args["limit"].(int))
				},
			},
			"run": &graphql.Field{
				Type:        runType,
				Description: "Get a clip run by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Clips.GetRun(p.Context, p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

// pointsArg converts a list of PointInput values.
func pointsArg(v interface{}) []domain.Point {
	items, _ := v.([]interface{})
	out := make([]domain.Point, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		x, _ := m["x"].(float64)
		y, _ := m["y"].(float64)
		out = append(out, domain.Point{X: x, Y: y})
	}
	return out
}

// runOf accepts both value and pointer sources, as list and single resolvers differ.
func runOf(src interface{}) *domain.ClipRun {
	switch r := src.(type) {
	case *domain.ClipRun:
		return r
	case domain.ClipRun:
		return &r
	}
	return &domain.ClipRun{}
}
