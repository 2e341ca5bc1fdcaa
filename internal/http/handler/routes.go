package handler

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docfront/internal/model"
	"docfront/internal/service"
)

// downloadMaxAge is how long browsers and proxies may cache a downloaded PDF.
const downloadMaxAge = 7 * 24 * time.Hour

var imageIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{1,32}$`)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, svc service.FrontService) {
	app.Get("/health", HealthCheck(svc))
	app.Get("/healthz", LivenessProbe())

	app.Get("/", Home(svc))
	app.Get("/paper/:uuid", PaperDetail(svc))
	app.Get("/paper/:uuid/download", DownloadPaper(svc))
	app.Get("/author/:uuid", AuthorDetail(svc))
	app.Get("/thumbnail/:uuid/:id", Thumbnail(svc))
}

// HealthCheck reports downstream reachability: 200 when every service
// answers, 503 with the per-service map otherwise.
func HealthCheck(svc service.FrontService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Health(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", messageFor(fiber.StatusServiceUnavailable))
		}
		status := fiber.StatusOK
		if res.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(res)
	}
}

// LivenessProbe answers 200 without touching any downstream service.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Home lists papers, filtered by the optional keyword query parameter.
func Home(svc service.FrontService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Home(c.UserContext(), c.Query("keyword"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func invalidID(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "IDの形式が不正です")
}

// PaperDetail shows one public paper.
func PaperDetail(svc service.FrontService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("uuid")
		if !validUUID(id) {
			return invalidID(c)
		}
		res, err := svc.PaperDetail(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// DownloadPaper streams the PDF of a paper and records the download.
func DownloadPaper(svc service.FrontService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("uuid")
		if !validUUID(id) {
			return invalidID(c)
		}
		res, err := svc.Download(c.UserContext(), id, c.IP())
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+res.PaperUUID+`.pdf"`)
		c.Set(fiber.HeaderCacheControl, "public, max-age=604800")
		c.Set(fiber.HeaderExpires, time.Now().Add(downloadMaxAge).UTC().Format(http.TimeFormat))
		return c.Send(res.Content)
	}
}

// AuthorDetail shows an author and their public papers.
func AuthorDetail(svc service.FrontService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("uuid")
		if !validUUID(id) {
			return invalidID(c)
		}
		res, err := svc.AuthorDetail(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// Thumbnail passes a page image through from the thumbnail service.
func Thumbnail(svc service.FrontService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("uuid")
		if !validUUID(id) {
			return invalidID(c)
		}
		image := c.Params("id")
		if !imageIDPattern.MatchString(image) {
			return invalidID(c)
		}

		res, err := svc.Thumbnail(c.UserContext(), id, model.ImageID(image))
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, res.ContentType)
		if res.Placeholder {
			c.Set(fiber.HeaderCacheControl, "no-cache")
		} else {
			c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
		}
		return c.Send(res.Content)
	}
}
