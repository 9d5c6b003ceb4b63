package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/nestmap/nestmap/internal/core/domain"
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

	boardType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Board",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"slug":     &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"timezone": &graphql.Field{Type: graphql.String},
		},
	})

	listingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Listing",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"mls_number":    &graphql.Field{Type: graphql.String},
			"board_slug":    &graphql.Field{Type: graphql.String},
			"address":       &graphql.Field{Type: graphql.String},
			"city":          &graphql.Field{Type: graphql.String},
			"state":         &graphql.Field{Type: graphql.String},
			"postal_code":   &graphql.Field{Type: graphql.String},
			"location":      &graphql.Field{Type: geoPointType},
			"price":         &graphql.Field{Type: graphql.Float},
			"beds":          &graphql.Field{Type: graphql.Int},
			"baths":         &graphql.Field{Type: graphql.Float},
			"sqft":          &graphql.Field{Type: graphql.Int},
			"property_type": &graphql.Field{Type: graphql.String},
			"status":        &graphql.Field{Type: graphql.String},
		},
	})

	shareType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ListingShare",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"agent_id":   &graphql.Field{Type: graphql.String},
			"client_id":  &graphql.Field{Type: graphql.String},
			"listing_id": &graphql.Field{Type: graphql.String},
			"note":       &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"boards": &graphql.Field{
				Type:        graphql.NewList(boardType),
				Description: "List all MLS boards",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Boards.List(p.Context)
				},
			},
			"listing": &graphql.Field{
				Type:        listingType,
				Description: "Get a listing by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Listings.GetByID(p.Context, id)
				},
			},
			"listingsInBounds": &graphql.Field{
				Type:        graphql.NewList(listingType),
				Description: "Listings inside a bounding box",
				Args: graphql.FieldConfigArgument{
					"north": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"south": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"east":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"west":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					b := domain.Bounds{
						North: p.Args["north"].(float64),
						South: p.Args["south"].(float64),
						East:  p.Args["east"].(float64),
						West:  p.Args["west"].(float64),
					}
					limit := p.Args["limit"].(int)
					res, err := deps.Listings.SearchViewport(p.Context, b, domain.ViewportFilters{}, limit)
					if err != nil {
						return nil, err
					}
					return res.Listings, nil
				},
			},
			"searchListings": &graphql.Field{
				Type:        graphql.NewList(listingType),
				Description: "Search listings by address or MLS number",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					limit := p.Args["limit"].(int)
					return deps.Listings.Search(p.Context, q, limit)
				},
			},
			"clientShares": &graphql.Field{
				Type:        graphql.NewList(shareType),
				Description: "Listings shared with a client",
				Args: graphql.FieldConfigArgument{
					"client_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					clientID := p.Args["client_id"].(string)
					return deps.Shares.ListForClient(p.Context, clientID)
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
