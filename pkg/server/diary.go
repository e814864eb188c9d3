package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"petvoice/pkg/generate"
	"petvoice/pkg/persona"
	"petvoice/pkg/schema"
	"petvoice/pkg/store"
	"petvoice/pkg/utils"
)

const (
	maxTitleRunes = 100
	maxDiaryRunes = 5000
)

type diaryReq struct {
	PetID       string `json:"petId"`
	Title       string `json:"title"`
	Date        string `json:"date,omitempty"`
	UserContent string `json:"userContent"`
	IsPublic    bool   `json:"isPublic,omitempty"`
}

type diaryUpdateReq struct {
	Title        *string `json:"title,omitempty"`
	Date         *string `json:"date,omitempty"`
	UserContent  *string `json:"userContent,omitempty"`
	IsPublic     *bool   `json:"isPublic,omitempty"`
	RegenerateAI bool    `json:"regenerateAI,omitempty"`
}

type diaryPage struct {
	Diaries     []schema.Diary `json:"diaries"`
	TotalCount  int            `json:"totalCount"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
}

// POST /api/diary
func (s *Server) handlePostDiary(c echo.Context) error {
	var req diaryReq
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid JSON in /api/diary", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.UserContent = strings.TrimSpace(req.UserContent)
	if req.PetID == "" || req.Title == "" || req.UserContent == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "petId, title, and userContent are required")
	}
	date, err := diaryDate(req.Date)
	if err != nil {
		return err
	}

	pet, err := s.ownedPet(c, req.PetID)
	if err != nil {
		return err
	}
	id, _ := identity(c)
	ctx := c.Request().Context()

	report := s.Weather.Current(ctx)
	res, err := s.Generator.Generate(ctx, generate.Request{
		Persona:       pet.Persona(),
		OwnerNickname: id.Nickname,
		Text:          utils.LimitStr(req.UserContent, maxDiaryRunes),
		Mode:          persona.ModeDiary,
	})
	if err != nil {
		return unprocessable(pet, err)
	}

	now := time.Now().UTC()
	diary := schema.Diary{
		ID:          ksuid.New().String(),
		OwnerID:     id.UserID,
		PetID:       pet.ID,
		Title:       utils.LimitStr(req.Title, maxTitleRunes),
		Date:        date,
		Weather:     report.Condition,
		WeatherIcon: report.Icon,
		Temperature: report.Temperature,
		UserContent: req.UserContent,
		AIContent:   res.Text,
		AIOrigin:    string(res.Origin),
		IsPublic:    req.IsPublic,
		Status:      schema.DiaryPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.SaveDiary(diary); err != nil {
		log.Error("failed saving diary", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed saving diary")
	}

	log.Info("diary written", "id", diary.ID, "pet", pet.ID, "origin", res.Origin)
	return c.JSON(http.StatusCreated, map[string]any{
		"diary": diary,
		"pet":   pet.Summary(),
	})
}

// PUT /api/diary/:id
func (s *Server) handlePutDiary(c echo.Context) error {
	diary, err := s.ownedDiary(c, c.Param("id"))
	if err != nil {
		return err
	}
	var req diaryUpdateReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "title cannot be empty")
		}
		diary.Title = utils.LimitStr(title, maxTitleRunes)
	}
	if req.Date != nil {
		date, err := diaryDate(*req.Date)
		if err != nil {
			return err
		}
		diary.Date = date
	}
	if req.IsPublic != nil {
		diary.IsPublic = *req.IsPublic
	}

	var userContent string
	if req.UserContent != nil {
		userContent = strings.TrimSpace(*req.UserContent)
		if userContent != "" {
			diary.UserContent = userContent
		}
	}

	var diff []utils.WordDelta
	if req.RegenerateAI && userContent != "" {
		pet, ok, err := s.Store.GetPet(diary.PetID)
		if err != nil {
			log.Error("failed loading pet", "id", diary.PetID, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed loading pet")
		}
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "pet not found")
		}
		id, _ := identity(c)
		res, err := s.Generator.Generate(c.Request().Context(), generate.Request{
			Persona:       pet.Persona(),
			OwnerNickname: id.Nickname,
			Text:          utils.LimitStr(userContent, maxDiaryRunes),
			Mode:          persona.ModeDiary,
		})
		if err != nil {
			return unprocessable(pet, err)
		}
		diff = utils.DiffWords(diary.AIContent, res.Text)
		diary.AIContent = res.Text
		diary.AIOrigin = string(res.Origin)
	}

	diary.UpdatedAt = time.Now().UTC()
	if err := s.Store.SaveDiary(diary); err != nil {
		log.Error("failed updating diary", "id", diary.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed updating diary")
	}

	resp := map[string]any{"diary": diary}
	if diff != nil {
		resp["diff"] = diff
		resp["changed"] = utils.Changed(diff)
	}
	return c.JSON(http.StatusOK, resp)
}

// GET /api/diary/my
func (s *Server) handleGetMyDiaries(c echo.Context) error {
	id, _ := identity(c)
	page, limit := pageParams(c)
	diaries, total, err := s.Store.ListDiaries(id.UserID, c.QueryParam("petId"), page, limit)
	if err != nil {
		log.Error("failed listing diaries", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed listing diaries")
	}
	return c.JSON(http.StatusOK, newDiaryPage(diaries, total, page, limit))
}

// GET /api/diary/public
func (s *Server) handleGetPublicDiaries(c echo.Context) error {
	page, limit := pageParams(c)
	diaries, total, err := s.Store.ListPublicDiaries(page, limit)
	if err != nil {
		log.Error("failed listing public diaries", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed listing diaries")
	}
	return c.JSON(http.StatusOK, newDiaryPage(diaries, total, page, limit))
}

// GET /api/diary/:id
func (s *Server) handleGetDiary(c echo.Context) error {
	diary, err := s.findDiary(c.Param("id"))
	if err != nil {
		return err
	}
	if !diary.IsPublic {
		id, ok := identity(c)
		if !ok || id.UserID != diary.OwnerID {
			return echo.NewHTTPError(http.StatusForbidden, "this diary is private")
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"diary": diary})
}

// DELETE /api/diary/:id
func (s *Server) handleDeleteDiary(c echo.Context) error {
	diary, err := s.ownedDiary(c, c.Param("id"))
	if err != nil {
		return err
	}
	if err := s.Store.DeleteDiary(diary.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("failed deleting diary", "id", diary.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed deleting diary")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// POST /api/diary/:id/like
func (s *Server) handlePostDiaryLike(c echo.Context) error {
	diary, err := s.findDiary(c.Param("id"))
	if err != nil {
		return err
	}
	if !diary.IsPublic {
		return echo.NewHTTPError(http.StatusForbidden, "this diary is private")
	}
	count, err := s.Store.LikeDiary(diary.ID)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "diary not found")
	}
	if err != nil {
		log.Error("failed liking diary", "id", diary.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed liking diary")
	}
	return c.JSON(http.StatusOK, map[string]any{"likesCount": count})
}

func (s *Server) findDiary(diaryID string) (schema.Diary, error) {
	diary, ok, err := s.Store.GetDiary(diaryID)
	if err != nil {
		log.Error("failed loading diary", "id", diaryID, "error", err)
		return schema.Diary{}, echo.NewHTTPError(http.StatusInternalServerError, "failed loading diary")
	}
	if !ok {
		return schema.Diary{}, echo.NewHTTPError(http.StatusNotFound, "diary not found")
	}
	return diary, nil
}

// ownedDiary loads a diary the caller may modify.
func (s *Server) ownedDiary(c echo.Context, diaryID string) (schema.Diary, error) {
	diary, err := s.findDiary(diaryID)
	if err != nil {
		return diary, err
	}
	id, _ := identity(c)
	if diary.OwnerID != id.UserID {
		return schema.Diary{}, echo.NewHTTPError(http.StatusNotFound, "diary not found")
	}
	return diary, nil
}

// diaryDate validates a YYYY-MM-DD date, defaulting to today.
func diaryDate(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Now().Format(schema.DateLayout), nil
	}
	if _, err := time.Parse(schema.DateLayout, v); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return v, nil
}

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	page, limit, _ = store.Page(page, limit)
	return page, limit
}

func newDiaryPage(diaries []schema.Diary, total, page, limit int) diaryPage {
	return diaryPage{
		Diaries:     diaries,
		TotalCount:  total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}
}
