package api_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ajo/internal/auth"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/http/api"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("x: %w", errs.ErrInvalidAmount), want: http.StatusBadRequest},
		{err: errs.ErrInvalidDate, want: http.StatusBadRequest},
		{err: errs.Invalid("bad"), want: http.StatusBadRequest},
		{err: errs.ErrInvalidInviteCode, want: http.StatusNotFound},
		{err: fmt.Errorf("goal: %w", errs.ErrNotFound), want: http.StatusNotFound},
		{err: errs.ErrAlreadyMember, want: http.StatusConflict},
		{err: errs.ErrGroupFull, want: http.StatusConflict},
		{err: errs.ErrNotAMember, want: http.StatusForbidden},
		{err: fmt.Errorf("wrap: %w", errs.Storage("op", errors.New("down"))), want: http.StatusServiceUnavailable},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, api.Status(tt.err), "error %v", tt.err)
	}
}

func TestError_HidesServerDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	api.Error(rec, req, errs.Storage("listing goals", errors.New("password=hunter2")))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

type createReq struct {
	Name  string `json:"name" validate:"required,max=5"`
	Limit int    `json:"limit" validate:"gte=2"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"name":"ajo","limit":3}`},
		{name: "malformed", body: `{"name":`, wantErr: true},
		{name: "missing name", body: `{"limit":3}`, wantErr: true},
		{name: "limit too small", body: `{"name":"ajo","limit":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var v createReq

			err := api.Decode(req, &v)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrInvalidInput)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "ajo", v.Name)
		})
	}
}

func TestRequireUser(t *testing.T) {
	tokens := auth.NewManager("secret", time.Hour)
	user := uuid.New()

	valid, err := tokens.Generate(user)
	require.NoError(t, err)

	var seen uuid.UUID

	h := api.RequireUser(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = api.User(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer " + valid, want: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer " + valid, want: http.StatusNoContent},
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer abc", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = uuid.Nil

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)

			if tt.want == http.StatusNoContent {
				assert.Equal(t, user, seen)
			}
		})
	}
}
