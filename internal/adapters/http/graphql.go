package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/geolocator/internal/core/domain"
)

type viewerKey struct{}

func viewerFrom(ctx context.Context) string {
	id, _ := ctx.Value(viewerKey{}).(string)
	return id
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"minLat": &graphql.Field{Type: graphql.Float, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(domain.Bounds).MinLat, nil
			}},
			"maxLat": &graphql.Field{Type: graphql.Float, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(domain.Bounds).MaxLat, nil
			}},
			"minLng": &graphql.Field{Type: graphql.Float, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(domain.Bounds).MinLng, nil
			}},
			"maxLng": &graphql.Field{Type: graphql.Float, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(domain.Bounds).MaxLng, nil
			}},
		},
	})

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Region",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(domain.Region).Name, nil
			}},
			"bounds": &graphql.Field{Type: boundsType, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(domain.Region).Bounds, nil
			}},
		},
	})

	// Leaderboard, stats and history rows are served as maps so the field
	// names match the REST JSON.
	leaderboardType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LeaderboardEntry",
		Fields: graphql.Fields{
			"username":    &graphql.Field{Type: graphql.String},
			"highScore":   &graphql.Field{Type: graphql.Int},
			"gamesPlayed": &graphql.Field{Type: graphql.Int},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GlobalStats",
		Fields: graphql.Fields{
			"totalGames":      &graphql.Field{Type: graphql.Int},
			"averageScore":    &graphql.Field{Type: graphql.Float},
			"averageDistance": &graphql.Field{Type: graphql.Float},
			"bestScore":       &graphql.Field{Type: graphql.Int},
		},
	})

	guessType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Guess",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"actualLocation":  &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"guessedLocation": &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"distance":        &graphql.Field{Type: graphql.Float},
			"score":           &graphql.Field{Type: graphql.Int},
			"timeSpent":       &graphql.Field{Type: graphql.Float},
			"createdAt":       &graphql.Field{Type: graphql.DateTime},
			"resultMapUrl":    &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"regions": &graphql.Field{
				Type:        graphql.NewList(regionType),
				Description: "Regions round targets are sampled from",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return domain.Regions(), nil
				},
			},
			"leaderboard": &graphql.Field{
				Type:        graphql.NewList(leaderboardType),
				Description: "Top players by high score",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					entries, err := deps.Games.Leaderboard(p.Context)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(entries))
					for i, e := range entries {
						out[i] = map[string]interface{}{
							"username":    e.Username,
							"highScore":   e.HighScore,
							"gamesPlayed": e.GamesPlayed,
						}
					}
					return out, nil
				},
			},
			"globalStats": &graphql.Field{
				Type:        statsType,
				Description: "Aggregate statistics over every recorded guess",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, err := deps.Games.GlobalStats(p.Context)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"totalGames":      s.TotalGames,
						"averageScore":    s.AverageScore,
						"averageDistance": s.AverageDistance,
						"bestScore":       s.BestScore,
					}, nil
				},
			},
			"history": &graphql.Field{
				Type:        graphql.NewList(guessType),
				Description: "The caller's recent guesses, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					offset, _ := p.Args["offset"].(int)
					limit, _ := p.Args["limit"].(int)
					entries, _, err := deps.Games.History(p.Context, viewerFrom(p.Context), offset, limit)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(entries))
					for i, e := range entries {
						a, g := e.Actual.Pair(), e.Guessed.Pair()
						out[i] = map[string]interface{}{
							"id":              e.ID,
							"actualLocation":  a[:],
							"guessedLocation": g[:],
							"distance":        e.DistanceKm,
							"score":           e.Score,
							"timeSpent":       e.TimeSpent,
							"createdAt":       e.CreatedAt,
							"resultMapUrl":    e.ResultMapURL,
						}
					}
					return out, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint. It must run behind RequireAuth.
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

		ctx := context.WithValue(c.UserContext(), viewerKey{}, userIDFrom(c))
		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})

		return c.JSON(result)
	}
}
