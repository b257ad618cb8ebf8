package materials

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
)

const (
	recommendationLetterName = "recommendation-letter.pdf"

	// ViewTTL backs the JSON view link; RedirectTTL backs the 302 hop.
	ViewTTL     = time.Hour
	RedirectTTL = 15 * time.Minute
)

// RequirementLink is a presigned inline link to the recommendation letter.
type RequirementLink struct {
	URL       string `json:"url"`
	FileName  string `json:"filename"`
	ExpiresIn int    `json:"expires_in"`
}

type RequirementStatus struct {
	Exists   bool   `json:"exists"`
	FileName string `json:"filename"`
	Path     string `json:"path"`
}

// RecommendationLetterURL presigns the configured letter for inline viewing.
func (u Usecases) RecommendationLetterURL(ctx context.Context, ttl time.Duration) (RequirementLink, error) {
	key := u.deps.Config.RecommendationLetterKey
	url, err := u.deps.Store.PresignGet(ctx, key, ttl, objectstore.PresignOptions{
		ResponseContentType: pdfContentType,
		ResponseDisposition: objectstore.InlineDisposition(recommendationLetterName),
	})
	if err != nil {
		return RequirementLink{}, apierr.Upstream("presign_failed", err)
	}
	return RequirementLink{URL: url, FileName: recommendationLetterName, ExpiresIn: int(ttl / time.Second)}, nil
}

func (u Usecases) RecommendationLetterStatus(ctx context.Context) (RequirementStatus, error) {
	key := u.deps.Config.RecommendationLetterKey
	ok, err := u.deps.Store.Exists(ctx, key)
	if err != nil {
		u.deps.Log.Warn("Recommendation letter lookup failed", "key", key, "error", err)
		ok = false
	}
	return RequirementStatus{Exists: ok, FileName: recommendationLetterName, Path: key}, nil
}

// RecommendationLetter returns the letter bytes and its attachment file name.
func (u Usecases) RecommendationLetter(ctx context.Context) ([]byte, string, error) {
	data, err := objectstore.ReadAll(ctx, u.deps.Store, u.deps.Config.RecommendationLetterKey)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, "", apierr.NotFound("requirement_not_found", err)
		}
		return nil, "", apierr.Upstream("storage_read_failed", err)
	}
	return data, recommendationLetterName, nil
}
