package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"voicemail-backend/internal/services"
)

func TestAuthMiddleware(t *testing.T) {
	userService := services.NewUserService(nil, "test-secret")
	token, err := userService.GenerateJWT("user-123")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	var gotUserID string
	handler := AuthMiddleware(userService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUserID string
	}{
		{name: "ValidToken", header: "Bearer " + token, wantStatus: http.StatusOK, wantUserID: "user-123"},
		{name: "MissingHeader", header: "", wantStatus: http.StatusUnauthorized},
		{name: "WrongScheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "InvalidToken", header: "Bearer garbage", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotUserID != tt.wantUserID {
				t.Errorf("user id = %q, want %q", gotUserID, tt.wantUserID)
			}
		})
	}
}
