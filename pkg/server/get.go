package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"petvoice/pkg/schema"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	mode := "provider"
	if s.Generator.DemoMode() {
		mode = "demo"
	}
	return c.JSON(http.StatusOK, map[string]string{
		"service": "PetVoice API",
		"status":  "ok",
		"mode":    mode,
	})
}

// GET /api/schema/pet
func (s *Server) handleGetPetSchema(c echo.Context) error {
	return c.JSON(http.StatusOK, schema.PetProfileSchema)
}
