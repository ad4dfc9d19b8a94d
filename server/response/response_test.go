package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	JSON(c, "nope", http.StatusConflict, nil, errors.New("already claimed"))

	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "nope", body["message"])
	assert.Equal(t, "already claimed", body["errors"])
	assert.Equal(t, "Conflict", body["status"])
	assert.Nil(t, body["data"])
	assert.NotEmpty(t, body["timestamp"])
}
