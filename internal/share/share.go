// Package share builds public review links and hands them to the user.
package share

import (
	"fmt"
	"net/url"
	"strings"

	"reviewshare/internal/review/model"

	"github.com/atotto/clipboard"
)

// Link is the public URL of a review under the front end's origin,
// ${origin}/review/{id}. The id is path-escaped; store ids are uuids, which
// escaping leaves unchanged.
func Link(origin, reviewID string) string {
	return strings.TrimRight(origin, "/") + "/review/" + url.PathEscape(reviewID)
}

// Clipboard receives the copied link.
type Clipboard interface {
	WriteAll(text string) error
}

// Notifier shows short-lived messages to the user (toasts).
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not available on this system")
	}
	return clipboard.WriteAll(text)
}

// Sharer copies review links under Origin and reports the outcome.
type Sharer struct {
	Origin    string
	Clipboard Clipboard
	Notifier  Notifier
}

// Share copies the review's public link and reports the outcome through the
// notifier. The link is returned either way.
func (s *Sharer) Share(review model.Review) (string, error) {
	link := Link(s.Origin, review.ID)
	if err := s.Clipboard.WriteAll(link); err != nil {
		s.Notifier.Error(fmt.Sprintf("Error copying to clipboard: %v", err))
		return link, err
	}
	s.Notifier.Success(fmt.Sprintf("Copied link to %s to clipboard!", review.Title))
	return link, nil
}
