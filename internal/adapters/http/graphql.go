package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/usecases"
)

// buildSchema creates the GraphQL schema over reference data and geocoding.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundingBox",
		Fields: graphql.Fields{
			"north": &graphql.Field{Type: graphql.Float},
			"south": &graphql.Field{Type: graphql.Float},
			"east":  &graphql.Field{Type: graphql.Float},
			"west":  &graphql.Field{Type: graphql.Float},
		},
	})

	coordinatesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinates",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
			"zoom":      &graphql.Field{Type: graphql.Int},
		},
	})

	demoLocationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DemoLocation",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"longitude":   &graphql.Field{Type: graphql.Float},
			"latitude":    &graphql.Field{Type: graphql.Float},
			"bounds":      &graphql.Field{Type: boundsType},
			"description": &graphql.Field{Type: graphql.String},
		},
	})

	analysisTypeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AnalysisType",
		Fields: graphql.Fields{
			"type":        &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"parameters":  &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	datasetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Dataset",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"type":        &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"bands":       &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	visualizationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Visualization",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"bands":       &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	geocodeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeocodeResult",
		Fields: graphql.Fields{
			"found":       &graphql.Field{Type: graphql.Boolean},
			"location":    &graphql.Field{Type: graphql.String},
			"coordinates": &graphql.Field{Type: coordinatesType},
			"place_types": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"source":      &graphql.Field{Type: graphql.String},
			"error":       &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"demoLocations": &graphql.Field{
				Type:        graphql.NewList(demoLocationType),
				Description: "Preset areas for the map client",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return usecases.DemoLocations(), nil
				},
			},
			"analysisTypes": &graphql.Field{
				Type:        graphql.NewList(analysisTypeType),
				Description: "Supported analyses",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return usecases.AnalysisTypes(), nil
				},
			},
			"visualizations": &graphql.Field{
				Type:        graphql.NewList(visualizationType),
				Description: "Sentinel-2 band combinations",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Imagery == nil {
						return []domain.VisualizationOption{}, nil
					}
					return deps.Imagery.Visualizations(), nil
				},
			},
			"datasets": &graphql.Field{
				Type:        graphql.NewList(datasetType),
				Description: "Search the dataset catalog by keywords",
				Args: graphql.FieldConfigArgument{
					"keywords": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					keywords, _ := p.Args["keywords"].(string)
					limit, _ := p.Args["limit"].(int)
					res := usecases.SearchDatasets(keywords, limit)
					out := make([]domain.Dataset, len(res.Results))
					for i, hit := range res.Results {
						out[i] = hit.Info
					}
					return out, nil
				},
			},
			"dataset": &graphql.Field{
				Type:        datasetType,
				Description: "A catalog entry by id",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					ds, ok := usecases.LookupDataset(id)
					if !ok {
						return nil, nil
					}
					return ds, nil
				},
			},
			"geocode": &graphql.Field{
				Type:        geocodeType,
				Description: "Resolve a place name to coordinates",
				Args: graphql.FieldConfigArgument{
					"q": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q, _ := p.Args["q"].(string)
					if deps.Geocoder == nil {
						return usecases.FallbackGeocode(q), nil
					}
					return deps.Geocoder.Geocode(p.Context, q), nil
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
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "Invalid request", "body must be {query, variables?, operationName?}")
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
