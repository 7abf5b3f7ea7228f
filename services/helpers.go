package services

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/storage"
)

func validateSchedule(s models.Schedule) error {
	if !s.Registration.Valid() || !s.Matches.Valid() {
		return ErrTournamentInvalidSchedule
	}
	// Фазы выводятся из окон, поэтому окна не должны пересекаться.
	if s.Matches.Start.Before(s.Registration.End) {
		return ErrTournamentInvalidSchedule
	}
	return nil
}

// --- Хелперы для заполнения публичных URL из ключей хранилища ---

func populateUserURLs(user *models.User, uploader storage.FileUploader) {
	if user == nil || uploader == nil {
		return
	}
	user.PasswordHash = "" // Важно для безопасности
	if user.AvatarKey != nil && *user.AvatarKey != "" {
		if url := uploader.GetPublicURL(*user.AvatarKey); url != "" {
			user.AvatarURL = &url
		}
	}
	if user.CoverKey != nil && *user.CoverKey != "" {
		if url := uploader.GetPublicURL(*user.CoverKey); url != "" {
			user.CoverURL = &url
		}
	}
}

func populateTournamentURLs(t *models.Tournament, uploader storage.FileUploader) {
	if t == nil || uploader == nil {
		return
	}
	if t.BannerKey != nil && *t.BannerKey != "" {
		if url := uploader.GetPublicURL(*t.BannerKey); url != "" {
			t.BannerURL = &url
		}
	}
	if t.Game != nil {
		populateGameURLs(t.Game, uploader)
	}
	for i := range t.Players {
		populateUserURLs(&t.Players[i], uploader)
	}
}

func populateGameURLs(g *models.Game, uploader storage.FileUploader) {
	if g == nil || uploader == nil {
		return
	}
	if g.CoverKey != nil && *g.CoverKey != "" {
		if url := uploader.GetPublicURL(*g.CoverKey); url != "" {
			g.CoverURL = &url
		}
	}
}

func populateVideoURLs(v *models.Video, uploader storage.FileUploader) {
	if v == nil || uploader == nil {
		return
	}
	if v.VideoKey != "" {
		v.VideoURL = uploader.GetPublicURL(v.VideoKey)
	}
	if v.ThumbnailKey != nil && *v.ThumbnailKey != "" {
		if url := uploader.GetPublicURL(*v.ThumbnailKey); url != "" {
			v.ThumbnailURL = &url
		}
	}
	if v.Owner != nil {
		populateUserURLs(v.Owner, uploader)
	}
}

// GetExtensionFromContentType подбирает расширение файла для ключа объекта.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	case "video/mp4":
		return ".mp4", nil
	case "video/webm":
		return ".webm", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && parts[1] != "" &&
			(strings.HasPrefix(parts[0], "image") || strings.HasPrefix(parts[0], "video")) {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: %q", contentType)
	}
}

func generateRandomToken(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	for i, rb := range randomBytes {
		b[i] = charset[int(rb)%len(charset)]
	}
	return string(b)
}
