package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardbuddy/cardbuddy/internal/auth"
)

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "case insensitive scheme", header: "bearer tok", want: "tok"},
		{name: "missing header", header: "", wantErr: auth.ErrMissingToken},
		{name: "wrong scheme", header: "Basic dXNlcg==", wantErr: auth.ErrInvalidToken},
		{name: "no token", header: "Bearer ", wantErr: auth.ErrInvalidToken},
		{name: "bare token", header: "sometoken", wantErr: auth.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			got, err := auth.BearerToken(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, ok := auth.GetIdentity(ctx)
	assert.False(t, ok)

	id := &auth.Identity{UID: "u1", Email: "u1@example.com"}
	ctx = auth.SetIdentity(ctx, id)

	got, ok := auth.GetIdentity(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestNewOIDCVerifierValidation(t *testing.T) {
	t.Parallel()

	_, err := auth.NewOIDCVerifier(context.Background(), auth.Config{Audience: "aud"})
	assert.ErrorIs(t, err, auth.ErrMissingIssuer)

	_, err = auth.NewOIDCVerifier(context.Background(), auth.Config{IssuerURL: "https://issuer"})
	assert.ErrorIs(t, err, auth.ErrMissingAudience)
}
