package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohamedzeina/node-social/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "unit-test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type whoami struct {
	Authenticated bool `json:"authenticated"`
	UserID        uint `json:"userId"`
}

func identityRouter() *gin.Engine {
	r := gin.New()
	r.Use(Identify())
	r.GET("/whoami", func(ctx *gin.Context) {
		id := CurrentIdentity(ctx)
		ctx.JSON(http.StatusOK, whoami{Authenticated: id.Authenticated, UserID: id.UserID})
	})
	return r
}

func TestIdentifyNeverAborts(t *testing.T) {
	validToken, err := utils.GenerateToken(7, "a@b.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	expiredToken, err := utils.GenerateToken(7, "a@b.com", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	cases := []struct {
		name       string
		header     string
		wantAuth   bool
		wantUserID uint
	}{
		{"no header", "", false, 0},
		{"wrong scheme", "Basic abc123", false, 0},
		{"bare scheme", "Bearer", false, 0},
		{"empty token", "Bearer   ", false, 0},
		{"garbage token", "Bearer not.a.token", false, 0},
		{"expired token", "Bearer " + expiredToken, false, 0},
		{"valid token", "Bearer " + validToken, true, 7},
		{"lowercase scheme", "bearer " + validToken, true, 7},
	}

	r := identityRouter()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, the gate must never reject", rec.Code)
			}
			var got whoami
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if got.Authenticated != tc.wantAuth {
				t.Errorf("authenticated = %v, want %v", got.Authenticated, tc.wantAuth)
			}
			if got.UserID != tc.wantUserID {
				t.Errorf("userID = %d, want %d", got.UserID, tc.wantUserID)
			}
		})
	}
}
