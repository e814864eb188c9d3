package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"petvoice/pkg/schema"
)

// POST /api/pets
func (s *Server) handlePostPet(c echo.Context) error {
	var in schema.PetInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	id, _ := identity(c)

	now := time.Now().UTC()
	pet := schema.Pet{
		ID:        ksuid.New().String(),
		OwnerID:   id.UserID,
		Status:    schema.PetActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := in.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.Apply(&pet)
	if err := pet.Persona().Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.Store.SavePet(pet); err != nil {
		log.Error("failed saving pet", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed saving pet")
	}
	log.Info("pet registered", "id", pet.ID, "owner", pet.OwnerID, "species", pet.Species)
	return c.JSON(http.StatusCreated, map[string]any{"pet": pet})
}

// GET /api/pets
func (s *Server) handleGetPets(c echo.Context) error {
	id, _ := identity(c)
	pets, err := s.Store.ListPets(id.UserID)
	if err != nil {
		log.Error("failed listing pets", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed listing pets")
	}
	return c.JSON(http.StatusOK, map[string]any{"pets": pets})
}

// GET /api/pets/:id
func (s *Server) handleGetPet(c echo.Context) error {
	pet, err := s.ownedPet(c, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"pet": pet})
}

// PUT /api/pets/:id
func (s *Server) handlePutPet(c echo.Context) error {
	pet, err := s.ownedPet(c, c.Param("id"))
	if err != nil {
		return err
	}
	var in schema.PetInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if err := in.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.Apply(&pet)
	if err := pet.Persona().Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pet.UpdatedAt = time.Now().UTC()

	if err := s.Store.SavePet(pet); err != nil {
		log.Error("failed updating pet", "id", pet.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed updating pet")
	}
	return c.JSON(http.StatusOK, map[string]any{"pet": pet})
}

// DELETE /api/pets/:id
func (s *Server) handleDeletePet(c echo.Context) error {
	pet, err := s.ownedPet(c, c.Param("id"))
	if err != nil {
		return err
	}
	if err := s.Store.DeletePet(pet.ID); err != nil {
		log.Error("failed deleting pet", "id", pet.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed deleting pet")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// ownedPet loads an active pet of the caller. Pets of other owners look missing.
func (s *Server) ownedPet(c echo.Context, petID string) (schema.Pet, error) {
	if petID == "" {
		return schema.Pet{}, echo.NewHTTPError(http.StatusBadRequest, "petId is required")
	}
	id, _ := identity(c)
	pet, ok, err := s.Store.GetPet(petID)
	if err != nil {
		log.Error("failed loading pet", "id", petID, "error", err)
		return schema.Pet{}, echo.NewHTTPError(http.StatusInternalServerError, "failed loading pet")
	}
	if !ok || !pet.Active() || pet.OwnerID != id.UserID {
		return schema.Pet{}, echo.NewHTTPError(http.StatusNotFound, "pet not found")
	}
	return pet, nil
}
