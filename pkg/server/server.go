package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"petvoice/pkg/generate"
	"petvoice/pkg/store"
	"petvoice/pkg/utils"
	"petvoice/pkg/weather"
)

type Server struct {
	Echo      *echo.Echo
	Store     store.Store
	Generator *generate.Generator
	Weather   *weather.Service
	UploadDir string
	Ctx       context.Context
}

type Options struct {
	Store     store.Store
	Generator *generate.Generator
	Weather   *weather.Service
	UploadDir string
}

func NewServer(ctx context.Context, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())

	s := &Server{
		Echo:      e,
		Store:     opts.Store,
		Generator: opts.Generator,
		Weather:   opts.Weather,
		UploadDir: opts.UploadDir,
		Ctx:       ctx,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)
	if s.UploadDir != "" {
		s.Echo.Static("/uploads/pets", s.UploadDir)
	}

	api := s.Echo.Group("/api", withIdentity)
	api.GET("/schema/pet", s.handleGetPetSchema)

	pets := api.Group("/pets", requireIdentity)
	pets.POST("", s.handlePostPet)
	pets.GET("", s.handleGetPets)
	pets.GET("/:id", s.handleGetPet)
	pets.PUT("/:id", s.handlePutPet)
	pets.DELETE("/:id", s.handleDeletePet)
	pets.POST("/:id/image", s.handlePostPetImage)

	api.POST("/ai/chat", s.handlePostChat, requireIdentity)

	diary := api.Group("/diary")
	diary.GET("/public", s.handleGetPublicDiaries)
	diary.GET("/my", s.handleGetMyDiaries, requireIdentity)
	diary.POST("", s.handlePostDiary, requireIdentity)
	diary.GET("/:id", s.handleGetDiary)
	diary.PUT("/:id", s.handlePutDiary, requireIdentity)
	diary.DELETE("/:id", s.handleDeleteDiary, requireIdentity)
	diary.POST("/:id/like", s.handlePostDiaryLike, requireIdentity)
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr, "demo", s.Generator.DemoMode())
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")

	shutDownErr := s.Echo.Shutdown(ctx)
	closeErr := s.Store.Close()
	if shutDownErr != nil {
		return shutDownErr
	}
	return closeErr
}

// errorHandler renders every error as {"success": false, "error": msg}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	} else {
		log.Error("unhandled error", "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, utils.ErrJSON(msg))
	}
	if err != nil {
		log.Warn("failed writing error response", "error", err)
	}
}
