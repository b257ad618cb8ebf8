package materials

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
)

func TestRecommendationLetter(t *testing.T) {
	f := newFixture(t, lifecycle.PolicyPermissive)
	ctx := context.Background()
	const key = "requirements/recommendation-letter.pdf"

	st, err := f.uc.RecommendationLetterStatus(ctx)
	require.NoError(t, err)
	assert.False(t, st.Exists)
	assert.Equal(t, key, st.Path)

	_, _, err = f.uc.RecommendationLetter(ctx)
	assert.Equal(t, "requirement_not_found", codeOf(t, err))

	require.NoError(t, f.store.Put(ctx, key, strings.NewReader("%PDF-letter"), objectstore.PutOptions{}))

	st, err = f.uc.RecommendationLetterStatus(ctx)
	require.NoError(t, err)
	assert.True(t, st.Exists)
	assert.Equal(t, "recommendation-letter.pdf", st.FileName)

	data, name, err := f.uc.RecommendationLetter(ctx)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-letter", string(data))
	assert.Equal(t, "recommendation-letter.pdf", name)

	link, err := f.uc.RecommendationLetterURL(ctx, ViewTTL)
	require.NoError(t, err)
	assert.Equal(t, 3600, link.ExpiresIn)
	assert.Contains(t, link.URL, "/"+key)
	assert.Contains(t, link.URL, "response-content-type=application%2Fpdf")
	assert.Contains(t, link.URL, "inline")

	link, err = f.uc.RecommendationLetterURL(ctx, RedirectTTL)
	require.NoError(t, err)
	assert.Equal(t, 900, link.ExpiresIn)
}
