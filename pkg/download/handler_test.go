package download

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Download(t *testing.T) {
	h := NewHandler(NewService(config.Artifacts{Version: "1.0.0", BaseURL: "https://downloads.example.com"}, nil))

	t.Run("Redirect", func(t *testing.T) {
		c, w := newDownloadContext("kubervise-linux-arm64")

		h.Download(c)

		require.Empty(t, c.Errors)
		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, "https://downloads.example.com/v1.0.0/kubervise-linux-arm64", w.Header().Get("Location"))
	})

	t.Run("Unknown", func(t *testing.T) {
		c, _ := newDownloadContext("kubervise-plan9-amd64")

		h.Download(c)

		require.Len(t, c.Errors, 1)
		assert.True(t, errdef.IsNotFound(c.Errors.Last()))
	})
}

func newDownloadContext(filename string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/downloads/"+filename, nil)
	c.Params = gin.Params{{Key: "filename", Value: filename}}
	return c, w
}
