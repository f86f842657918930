package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/wx-forecast/internal/pipeline"
	"github.com/i474232898/wx-forecast/internal/report"
	"github.com/i474232898/wx-forecast/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the read-only report and archive handlers into the
// Fiber app.
func RegisterRoutes(app *fiber.App, runner *pipeline.Runner) {
	v1 := app.Group("/api/v1")
	reportDir := runner.Layout(pipeline.National).ReportDir

	v1.Get("/reports", func(c *fiber.Ctx) error {
		names, err := report.List(reportDir)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list reports")
		}
		return c.JSON(fiber.Map{"reports": names})
	})

	v1.Get("/reports/:name", func(c *fiber.Ctx) error {
		body, err := report.Read(reportDir, c.Params("name"))
		if err != nil {
			switch {
			case errors.Is(err, report.ErrInvalidName):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, store.ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, "no such report")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "failed to read report")
			}
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Send(body)
	})

	v1.Get("/archives", func(c *fiber.Ctx) error {
		v, err := parseVariantQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		archive := runner.Layout(v).Archive()
		names, err := archive.List()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list archives")
		}
		if names == nil {
			names = []string{}
		}
		return c.JSON(fiber.Map{
			"variant":  v,
			"dir":      archive.Dir(),
			"archives": names,
		})
	})

	v1.Get("/cooldown", func(c *fiber.Ctx) error {
		v, err := parseVariantQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		last, remaining, err := runner.CooldownStatus(v)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(cooldownResponse{Variant: v})
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read cooldown")
		}
		return c.JSON(cooldownResponse{
			Variant:          v,
			LastQueryTime:    &last,
			OnCooldown:       remaining > 0,
			RemainingSeconds: int64(remaining / time.Second),
		})
	})
}

type cooldownResponse struct {
	Variant          pipeline.Variant `json:"variant"`
	LastQueryTime    *time.Time       `json:"last_query_time"`
	OnCooldown       bool             `json:"on_cooldown"`
	RemainingSeconds int64            `json:"remaining_seconds"`
}

// variantQuery holds the variant selector shared by archive and cooldown
// endpoints.
type variantQuery struct {
	Variant string `validate:"required,oneof=national world"`
}

func parseVariantQuery(c *fiber.Ctx) (pipeline.Variant, error) {
	q := variantQuery{Variant: c.Query("variant")}
	if err := validate.Struct(q); err != nil {
		return "", err
	}
	return pipeline.Variant(q.Variant), nil
}
