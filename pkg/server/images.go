package server

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/webp"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"petvoice/pkg/utils"
)

const maxImageBytes = 5 << 20

// saveToWebP decodes any registered image format and writes it to dir/filename as WebP.
func saveToWebP(r io.Reader, dir, filename string) ([]byte, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}

	imgBytes, err := io.ReadAll(io.LimitReader(r, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(imgBytes) > maxImageBytes {
		return nil, fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		img, err = webp.Decode(bytes.NewReader(imgBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
	}

	buf := new(bytes.Buffer)
	err = webp.Encode(buf, img, webp.Options{Lossless: false, Quality: 90})
	if err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}

	fullPath := filepath.Join(dir, filename)
	if err := os.WriteFile(fullPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}

	return buf.Bytes(), nil
}

// POST /api/pets/:id/image
func (s *Server) handlePostPetImage(c echo.Context) error {
	pet, err := s.ownedPet(c, c.Param("id"))
	if err != nil {
		return err
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable image")
	}
	defer f.Close()

	filename := utils.SanitizeFilename(fmt.Sprintf("pet-%s-%s.webp", pet.ID, ksuid.New().String()))
	if _, err := saveToWebP(f, s.UploadDir, filename); err != nil {
		log.Warn("rejected pet image", "pet", pet.ID, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported image")
	}

	previous := pet.ProfileImage
	pet.ProfileImage = path.Join("/uploads/pets", filename)
	pet.UpdatedAt = time.Now().UTC()
	if err := s.Store.SavePet(pet); err != nil {
		log.Error("failed saving pet image", "pet", pet.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed saving pet")
	}

	if previous != "" {
		old := filepath.Join(s.UploadDir, utils.SanitizeFilename(path.Base(previous)))
		if utils.Exists(old) {
			if err := os.Remove(old); err != nil {
				log.Warn("failed removing old pet image", "path", old, "error", err)
			}
		}
	}

	return c.JSON(http.StatusOK, map[string]any{"pet": pet})
}
