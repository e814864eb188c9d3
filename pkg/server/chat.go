package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"petvoice/pkg/generate"
	"petvoice/pkg/persona"
	"petvoice/pkg/schema"
	"petvoice/pkg/utils"
)

const (
	maxChatRunes    = 1000
	fallbackNote    = "The AI provider is unavailable, so your pet answered with a built-in reply."
	unprocessedText = "could not process"
)

type chatReq struct {
	PetID   string `json:"petId"`
	Message string `json:"message"`
	// Mode is chat unless set to diary, which asks for a longer letter-style answer.
	Mode string `json:"mode,omitempty"`
}

type chatResp struct {
	Response string            `json:"response"`
	Origin   generate.Origin   `json:"origin"`
	Pet      schema.PetSummary `json:"pet"`
	Note     string            `json:"note,omitempty"`
}

// POST /api/ai/chat
func (s *Server) handlePostChat(c echo.Context) error {
	var req chatReq
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid JSON in /api/ai/chat", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.PetID == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "petId and message are required")
	}
	mode := persona.ModeChat
	if req.Mode != "" {
		var ok bool
		if mode, ok = persona.ParseMode(req.Mode); !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "mode must be chat or diary")
		}
	}

	pet, err := s.ownedPet(c, req.PetID)
	if err != nil {
		return err
	}
	id, _ := identity(c)

	res, err := s.Generator.Generate(c.Request().Context(), generate.Request{
		Persona:       pet.Persona(),
		OwnerNickname: id.Nickname,
		Text:          utils.LimitStr(req.Message, maxChatRunes),
		Mode:          mode,
	})
	if err != nil {
		return unprocessable(pet, err)
	}

	resp := chatResp{
		Response: res.Text,
		Origin:   res.Origin,
		Pet:      pet.Summary(),
	}
	if res.Err != nil {
		resp.Note = fallbackNote
	}
	return c.JSON(http.StatusOK, resp)
}

func unprocessable(pet schema.Pet, err error) error {
	if errors.Is(err, persona.ErrInvalidPersona) {
		log.Warn("stored pet has an invalid persona", "pet", pet.ID, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, unprocessedText)
	}
	log.Error("generation failed", "pet", pet.ID, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, unprocessedText)
}
