package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the read-only GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoBounds",
		Fields: graphql.Fields{
			"south": &graphql.Field{Type: graphql.Float},
			"west":  &graphql.Field{Type: graphql.Float},
			"north": &graphql.Field{Type: graphql.Float},
			"east":  &graphql.Field{Type: graphql.Float},
		},
	})

	annotationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Annotation",
		Fields: graphql.Fields{
			"x_center": &graphql.Field{Type: graphql.Float},
			"y_center": &graphql.Field{Type: graphql.Float},
			"width":    &graphql.Field{Type: graphql.Float},
			"height":   &graphql.Field{Type: graphql.Float},
		},
	})

	gridType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TileGrid",
		Fields: graphql.Fields{
			"min_x":       &graphql.Field{Type: graphql.Int},
			"min_y":       &graphql.Field{Type: graphql.Int},
			"max_x":       &graphql.Field{Type: graphql.Int},
			"max_y":       &graphql.Field{Type: graphql.Int},
			"grid_width":  &graphql.Field{Type: graphql.Int},
			"grid_height": &graphql.Field{Type: graphql.Int},
		},
	})

	datasetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Dataset",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"slug":         &graphql.Field{Type: graphql.String},
			"name":         &graphql.Field{Type: graphql.String},
			"description":  &graphql.Field{Type: graphql.String},
			"classes":      &graphql.Field{Type: graphql.NewList(graphql.String)},
			"default_zoom": &graphql.Field{Type: graphql.Int},
		},
	})

	boxType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Box",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"dataset_id":   &graphql.Field{Type: graphql.String},
			"class_id":     &graphql.Field{Type: graphql.Int},
			"label":        &graphql.Field{Type: graphql.String},
			"bounds":       &graphql.Field{Type: boundsType},
			"zoom":         &graphql.Field{Type: graphql.Int},
			"grid":         &graphql.Field{Type: gridType},
			"annotation":   &graphql.Field{Type: annotationType},
			"image_status": &graphql.Field{Type: graphql.String},
			"image_width":  &graphql.Field{Type: graphql.Int},
			"image_height": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"datasets": &graphql.Field{
				Type:        graphql.NewList(datasetType),
				Description: "List all datasets",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Datasets.List(p.Context)
				},
			},
			"dataset": &graphql.Field{
				Type:        datasetType,
				Description: "Get a dataset by slug",
				Args: graphql.FieldConfigArgument{
					"slug": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Datasets.GetBySlug(p.Context, p.Args["slug"].(string))
				},
			},
			"box": &graphql.Field{
				Type:        boxType,
				Description: "Get a labeled box by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Boxes.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"boxes": &graphql.Field{
				Type:        graphql.NewList(boxType),
				Description: "List a dataset's boxes",
				Args: graphql.FieldConfigArgument{
					"dataset_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"offset":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					boxes, _, err := deps.Boxes.ListByDataset(
						p.Context,
						p.Args["dataset_id"].(string),
						p.Args["offset"].(int),
						p.Args["limit"].(int),
					)
					return boxes, err
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
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
