package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/imtrack-backend/internal/data/repos"
	"github.com/yungbote/imtrack-backend/internal/data/repos/testutil"
	"github.com/yungbote/imtrack-backend/internal/domain/activity"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
)

func TestActivityLoggerStoresSnapshots(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.NewActivityLogRepo(db, testutil.Logger(t))
	a := NewActivityLogger(testutil.Logger(t), repo)
	dbc := dbctx.Context{Ctx: context.Background()}

	id := uint(7)
	a.Record(dbc, ActivityEntry{
		UserID:      3,
		Action:      activity.ActionUpdate,
		Table:       "instructional_material",
		RecordID:    &id,
		Old:         map[string]string{"status": "For IMER Evaluation"},
		New:         map[string]string{"status": "Published"},
		Description: "Updated instructional material 7",
	})

	rows, err := repo.ListForRecord(dbc, "instructional_material", 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rows[0].NewValues, &got))
	assert.Equal(t, "Published", got["status"])
	assert.Equal(t, activity.ActionUpdate, rows[0].Action)
}
