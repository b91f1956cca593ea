package rest

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formacrm/backend/pkg/auth"
	"github.com/formacrm/backend/pkg/constants"
)

func TestGetUserFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	// No session on the context yet
	assert.Nil(t, GetUserFromContext(c))

	c.Set(constants.ContextKeyUser, auth.UserSession{ID: "u1", Email: "admin@example.com", IsAdmin: true})
	user := GetUserFromContext(c)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, user.IsAdmin)
}
