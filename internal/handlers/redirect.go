// internal/handlers/redirect.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/shopvn-backend/internal/services"
)

type RedirectHandler struct {
	linkService *services.LinkService
}

func NewRedirectHandler(linkService *services.LinkService) *RedirectHandler {
	return &RedirectHandler{linkService: linkService}
}

// GET /r/:code
//
// Always redirects. Unknown, expired or disabled codes fall through to the
// configured default landing page so shared links never dead-end.
func (h *RedirectHandler) Redirect(c *gin.Context) {
	target := h.linkService.Redirect(c.Request.Context(), c.Param("code"), c.ClientIP())
	c.Redirect(http.StatusFound, target)
}
