package share

import (
	"curator/internal/utils/validate"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

type parseRequest struct {
	URL string `json:"url"`
}

// HandleParse extracts the photo list from a public share link.
func (h *Handler) HandleParse(c *fiber.Ctx) error {
	var req parseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid body"})
	}
	if !validate.ShareURL(req.URL) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "a valid share link is required"})
	}

	items, err := h.svc.ParseSharedAlbum(c.Context(), req.URL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "could not parse the share link, check that it is public and valid",
		})
	}
	return c.JSON(fiber.Map{"success": true, "count": len(items), "photos": items})
}
