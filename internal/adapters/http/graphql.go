package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	stopType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Stop",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"indicator":   &graphql.Field{Type: graphql.String},
			"stop_letter": &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: geoPointType},
			"lines":       &graphql.Field{Type: graphql.NewList(graphql.String)},
			"distance":    &graphql.Field{Type: graphql.Float},
		},
	})

	arrivalType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Arrival",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"vehicle_id":      &graphql.Field{Type: graphql.String},
			"line_name":       &graphql.Field{Type: graphql.String},
			"destination":     &graphql.Field{Type: graphql.String},
			"stop_id":         &graphql.Field{Type: graphql.String},
			"time_to_station": &graphql.Field{Type: graphql.Int},
			"towards":         &graphql.Field{Type: graphql.String},
		},
	})

	vehicleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Vehicle",
		Fields: graphql.Fields{
			"vehicle_id": &graphql.Field{Type: graphql.String},
			"line_name":  &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: geoPointType},
			"bearing":    &graphql.Field{Type: graphql.Float},
		},
	})

	favoriteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Favorite",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.String},
			"stop_id": &graphql.Field{Type: graphql.String},
			"label":   &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"searchStops": &graphql.Field{
				Type:        graphql.NewList(stopType),
				Description: "Search bus stops by name",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					limit := p.Args["limit"].(int)
					return deps.Stops.Search(p.Context, q, limit)
				},
			},
			"stopsNearby": &graphql.Field{
				Type:        graphql.NewList(stopType),
				Description: "Find bus stops near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					return deps.Stops.Nearby(p.Context, lat, lon, radius)
				},
			},
			"stopArrivals": &graphql.Field{
				Type:        graphql.NewList(arrivalType),
				Description: "Live arrival predictions for a stop, sorted by ETA",
				Args: graphql.FieldConfigArgument{
					"stop_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					stopID := p.Args["stop_id"].(string)
					return deps.Arrivals.ForStop(p.Context, stopID)
				},
			},
			"vehicle": &graphql.Field{
				Type:        vehicleType,
				Description: "Live position of one vehicle",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Arrivals.Vehicle(p.Context, id)
				},
			},
			"favorites": &graphql.Field{
				Type:        graphql.NewList(favoriteType),
				Description: "Saved stops",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Favorites.List(p.Context)
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
