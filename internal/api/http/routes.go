package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hako/durafmt"

	"github.com/i474232898/f1-sensors/internal/f1"
	"github.com/i474232898/f1-sensors/internal/sensor"
)

var validate = validator.New()

// Scheduler is the part of the scheduler the status endpoint reports on.
type Scheduler interface {
	NextRuns() map[f1.Resource]time.Time
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. sched may be nil.
func RegisterRoutes(app *fiber.App, service *f1.Service, sensors *sensor.Registry, sched Scheduler) {
	v1 := app.Group("/api/v1")

	v1.Get("/sensors", func(c *fiber.Ctx) error {
		if kind := c.Query("kind"); kind != "" {
			return c.JSON(sensors.ByKind(sensor.Kind(kind)))
		}
		return c.JSON(sensors.All())
	})

	v1.Get("/sensors/:id", func(c *fiber.Ctx) error {
		s, err := sensors.Get(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(s)
	})

	v1.Get("/drivers/:place", func(c *fiber.Ctx) error {
		place, err := parseIndex(c, "place")
		if err != nil {
			return err
		}
		row, err := service.DriverRow(place)
		if err != nil {
			return lookupError(err)
		}
		return c.JSON(row)
	})

	v1.Get("/constructors/:place", func(c *fiber.Ctx) error {
		place, err := parseIndex(c, "place")
		if err != nil {
			return err
		}
		row, err := service.ConstructorRow(place)
		if err != nil {
			return lookupError(err)
		}
		return c.JSON(row)
	})

	// Registered before /races/:round so "next" is not parsed as a round.
	v1.Get("/races/next", func(c *fiber.Ctx) error {
		next, err := service.NextRace()
		if err != nil {
			return lookupError(err)
		}
		resp := fiber.Map{
			"round":    next.Round,
			"race":     next.Record,
			"dateTime": next.Record.DateTime(),
			"startsAt": next.StartsAt,
			"finished": next.Finished,
		}
		if !next.Finished {
			resp["countdown"] = durafmt.Parse(next.StartsAt.Sub(service.Now())).LimitFirstN(2).String()
		}
		return c.JSON(resp)
	})

	v1.Get("/races/:round", func(c *fiber.Ctx) error {
		round, err := parseIndex(c, "round")
		if err != nil {
			return err
		}
		rec, err := service.RaceRecord(round)
		if err != nil {
			return lookupError(err)
		}
		return c.JSON(rec)
	})

	v1.Get("/snapshots/:resource", func(c *fiber.Ctx) error {
		r, err := f1.ParseResource(c.Params("resource"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(service.Snapshot(r))
	})

	v1.Get("/status", func(c *fiber.Ctx) error {
		resp := fiber.Map{
			"counts": fiber.Map{
				"drivers":      service.DriverCount(),
				"constructors": service.ConstructorCount(),
				"races":        service.RaceCount(),
			},
			"fetches": service.Stats(),
			"sensors": sensors.Len(),
		}
		if sched != nil {
			resp["nextRuns"] = sched.NextRuns()
		}
		return c.JSON(resp)
	})
}

// indexParam holds a 1-based place or round path parameter.
type indexParam struct {
	Value int `validate:"gte=1"`
}

func parseIndex(c *fiber.Ctx, name string) (int, error) {
	n, err := strconv.Atoi(c.Params(name))
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" must be an integer")
	}
	if err := validate.Struct(indexParam{Value: n}); err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" must be at least 1")
	}
	return n, nil
}

func lookupError(err error) error {
	if errors.Is(err, f1.ErrOutOfRange) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
