package bot

import (
	"net/url"
	"strings"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// ValidateURL accepts absolute http and https URLs with a host
func ValidateURL(text string) error {
	const op = "validate url"

	lower := strings.ToLower(text)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return model.NewValidationError(op, TextInvalidURL)
	}
	if strings.ContainsAny(text, " \t\n") {
		return model.NewValidationError(op, TextInvalidURL)
	}
	parsed, err := url.Parse(text)
	if err != nil || parsed.Host == "" {
		return model.NewValidationError(op, TextInvalidURL)
	}
	return nil
}
