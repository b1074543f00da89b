package photos

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// HandleListAlbums lists the albums visible to the caller's credential.
func (h *Handler) HandleListAlbums(c *fiber.Ctx) error {
	auth := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "missing access token"})
	}
	token := strings.TrimPrefix(auth, "Bearer ")

	albums, err := h.svc.ListAlbums(c.Context(), token)
	if err != nil {
		errMsg := err.Error()
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "error": errMsg})
	}
	if albums == nil {
		albums = []Album{}
	}
	return c.JSON(fiber.Map{"success": true, "count": len(albums), "albums": albums})
}
