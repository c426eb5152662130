package http

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geolocator/internal/core/domain"
	"github.com/samirrijal/geolocator/internal/core/usecases"
)

// RootHandler returns the welcome message.
func RootHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Welcome to GeoLocator API"})
	}
}

// NotFoundHandler answers every unmatched route.
func NotFoundHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Route not found"})
	}
}

// ---- Games ----

// StartGameHandler generates a round target. It never fails.
func StartGameHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		round := deps.Games.StartRound(c.UserContext())
		return c.JSON(fiber.Map{
			"location":  round.Target.Location,
			"region":    round.Target.Region,
			"imageUrl":  round.ImageURL,
			"timestamp": round.Target.CreatedAt.UnixMilli(),
		})
	}
}

// guessRequest keeps the locations raw so their shape is checked before
// anything else runs.
type guessRequest struct {
	ActualLocation  json.RawMessage `json:"actualLocation"`
	GuessedLocation json.RawMessage `json:"guessedLocation"`
	TimeSpent       *float64        `json:"timeSpent"`
}

// SubmitGuessHandler scores a guess and records it.
func SubmitGuessHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req guessRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		actual, err := domain.ParseGeoPoint(req.ActualLocation)
		if err != nil {
			return errBadRequest(c, "actualLocation: "+err.Error())
		}
		guessed, err := domain.ParseGeoPoint(req.GuessedLocation)
		if err != nil {
			return errBadRequest(c, "guessedLocation: "+err.Error())
		}
		if req.TimeSpent == nil {
			return errBadRequest(c, "timeSpent is required")
		}

		out, err := deps.Games.SubmitGuess(c.UserContext(), userIDFrom(c), actual, guessed, *req.TimeSpent)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(fiber.Map{
			"distance":        out.Result.DistanceKm,
			"score":           out.Result.Score,
			"highScore":       out.HighScore,
			"newHighScore":    out.NewHighScore,
			"resultMapUrl":    out.ResultMapURL,
			"actualLocation":  out.Result.Actual,
			"guessedLocation": out.Result.Guessed,
		})
	}
}

// HighScoresHandler returns the leaderboard.
func HighScoresHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := deps.Games.Leaderboard(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(entries)
	}
}

// HistoryHandler returns the caller's recent games, newest first.
func HistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := parsePagination(c, 50)
		if limit == 0 {
			limit = deps.Games.HistorySize()
		}

		entries, total, err := deps.Games.History(c.UserContext(), userIDFrom(c), offset, limit)
		if err != nil {
			return errFromDomain(c, err)
		}

		SetLinkHeaders(c, Pagination{Offset: offset, Limit: limit, Total: total})
		return c.JSON(entries)
	}
}

// StatsHandler returns the global statistics.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := deps.Games.GlobalStats(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(stats)
	}
}

// ---- Users ----

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterHandler creates a user and returns a session token.
func RegisterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentials
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		u, err := deps.Users.Register(c.UserContext(), req.Username, req.Password)
		if err != nil {
			return errFromDomain(c, err)
		}
		token, exp, err := deps.Tokens.Issue(u.ID, u.Username)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(usecases.Session{Token: token, ExpiresAt: exp, User: u})
	}
}

// LoginHandler checks credentials and returns a session token.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentials
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		sess, err := deps.Users.Login(c.UserContext(), req.Username, req.Password)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(sess)
	}
}

// GetProfileHandler returns the caller's profile.
func GetProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := deps.Users.Profile(c.UserContext(), userIDFrom(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(u)
	}
}

type profileRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// UpdateProfileHandler changes the caller's username and/or password.
func UpdateProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req profileRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Username == nil && req.Password == nil {
			return errBadRequest(c, "nothing to update")
		}

		u, err := deps.Users.UpdateProfile(c.UserContext(), userIDFrom(c), usecases.ProfileUpdate{
			Username: req.Username,
			Password: req.Password,
		})
		if errors.Is(err, domain.ErrUserNotFound) {
			// The token outlived its user.
			return errUnauthorized(c, "user no longer exists")
		}
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(u)
	}
}
