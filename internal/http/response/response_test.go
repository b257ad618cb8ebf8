package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/imtrack-backend/internal/platform/apierr"
)

func render(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondAPIError(c, err)
	var env ErrorEnvelope
	if jerr := json.Unmarshal(rec.Body.Bytes(), &env); jerr != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), jerr)
	}
	return rec, env
}

func TestRespondAPIError(t *testing.T) {
	rec, env := render(t, apierr.NotFound("material_not_found", errors.New("material 3")))
	if rec.Code != http.StatusNotFound || env.Error.Code != "material_not_found" || env.Error.Message != "material 3" {
		t.Fatalf("unexpected response: %d %+v", rec.Code, env)
	}

	rec, env = render(t, errors.New("boom"))
	if rec.Code != http.StatusInternalServerError || env.Error.Code != "internal" {
		t.Fatalf("unexpected response: %d %+v", rec.Code, env)
	}

	wrapped := errors.Join(errors.New("ctx"), apierr.Conflict("version_conflict", nil))
	rec, env = render(t, wrapped)
	if rec.Code != http.StatusConflict || env.Error.Message != "version_conflict" {
		t.Fatalf("unexpected response: %d %+v", rec.Code, env)
	}
}
