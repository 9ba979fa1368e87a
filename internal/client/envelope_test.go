package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantKind    Kind
		wantPayload string
		wantMessage string
		wantCode    string
	}{
		{
			name:        "nested payload",
			body:        `{"success":true,"data":{"id":"t1"}}`,
			wantKind:    KindNested,
			wantPayload: `{"id":"t1"}`,
		},
		{
			name:        "flat payload drops envelope fields",
			body:        `{"success":true,"message":"ok","token":"abc","user":{"id":"u1"}}`,
			wantKind:    KindFlat,
			wantPayload: `{"token":"abc","user":{"id":"u1"}}`,
			wantMessage: "ok",
		},
		{
			name:        "message only",
			body:        `{"success":true,"message":"template deleted"}`,
			wantKind:    KindFlat,
			wantPayload: `{}`,
			wantMessage: "template deleted",
		},
		{
			name:        "bare array",
			body:        ` [1,2,3] `,
			wantKind:    KindBare,
			wantPayload: `[1,2,3]`,
		},
		{
			name:        "bare string",
			body:        `"ok"`,
			wantKind:    KindBare,
			wantPayload: `"ok"`,
		},
		{
			name:        "error envelope",
			body:        `{"success":false,"message":"session expired","code":"TOKEN_EXPIRED"}`,
			wantKind:    KindError,
			wantMessage: "session expired",
			wantCode:    "TOKEN_EXPIRED",
		},
		{
			name:        "error envelope without code",
			body:        `{"success":false,"message":"nope"}`,
			wantKind:    KindError,
			wantMessage: "nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Normalize([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, env.Kind)
			assert.Equal(t, tt.wantMessage, env.Message)
			assert.Equal(t, tt.wantCode, env.Code)
			if tt.wantPayload == "" {
				assert.Empty(t, env.Payload)
			} else {
				assert.JSONEq(t, tt.wantPayload, string(env.Payload))
			}
		})
	}
}

func TestNormalize_NonJSON(t *testing.T) {
	for _, body := range []string{"", "   ", "<html>502 Bad Gateway</html>", `{"success":`} {
		_, err := Normalize([]byte(body))
		assert.ErrorIs(t, err, ErrTransport, body)
	}
}

func TestEnvelope_Decode(t *testing.T) {
	env, err := Normalize([]byte(`{"success":true,"data":{"name":"Welcome"}}`))
	require.NoError(t, err)

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, env.Decode(&out))
	assert.Equal(t, "Welcome", out.Name)

	null := Envelope{Kind: KindNested, Payload: []byte("null")}
	assert.NoError(t, null.Decode(&out))
	assert.Equal(t, "Welcome", out.Name)
}

func TestIsSessionExpired(t *testing.T) {
	assert.True(t, IsSessionExpired(&APIError{Status: 401, Code: CodeTokenExpired}))
	assert.False(t, IsSessionExpired(&APIError{Status: 401, Code: "INVALID_TOKEN"}))
	assert.False(t, IsSessionExpired(ErrTransport))
	assert.True(t, IsForbidden(&APIError{Status: 403, Code: CodeForbidden}))
	assert.True(t, IsNotFound(&APIError{Status: 404, Code: CodeNotFound}))
}
