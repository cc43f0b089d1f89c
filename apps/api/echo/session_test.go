package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutm/results/core/faculty"
	testutil "github.com/cutm/results/tests"
)

func TestSessionToken(t *testing.T) {
	conf := testutil.NewConfig()
	id := faculty.Identity{Email: "shubham@cutm.ac.in"}

	token, expires, err := NewSessionToken(conf, id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(conf.Auth.SessionTTL), expires, time.Minute)

	claims, err := parseSessionToken(conf, token)
	require.NoError(t, err)
	assert.Equal(t, id.Email, claims.Email)
	assert.Equal(t, conf.AppName, claims.Issuer)

	t.Run("other secret", func(t *testing.T) {
		other := testutil.NewConfig()
		other.SecretKey = "another-secret"
		_, err := parseSessionToken(other, token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := testutil.NewConfig()
		expired.Auth.SessionTTL = -time.Minute
		old, _, err := NewSessionToken(expired, id)
		require.NoError(t, err)
		_, err = parseSessionToken(conf, old)
		assert.Error(t, err)
	})
}

func TestFacultyRequired(t *testing.T) {
	s := &Server{conf: testutil.NewConfig()}

	tests := []struct {
		name    string
		session Session
		allowed bool
	}{
		{name: "anonymous", session: Session{}, allowed: false},
		{name: "faculty", session: Session{Faculty: faculty.Identity{Email: "a@cutm.ac.in"}}, allowed: true},
		{name: "other domain", session: Session{Faculty: faculty.Identity{Email: "a@gmail.com"}}, allowed: false},
		{name: "bare domain", session: Session{Faculty: faculty.Identity{Email: "@cutm.ac.in"}}, allowed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, s.allow(tt.session))

			e := echo.New()
			ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			setSession(ctx, tt.session)

			var reached, denied bool
			h := facultyRequired(s.allow, func(echo.Context) error { denied = true; return nil })(
				func(echo.Context) error { reached = true; return nil })
			require.NoError(t, h(ctx))
			assert.Equal(t, tt.allowed, reached)
			assert.Equal(t, !tt.allowed, denied)
		})
	}

	t.Run("mixed-case domain", func(t *testing.T) {
		conf := testutil.NewConfig()
		conf.Auth.FacultyDomain = "@CUTM.ac.in"
		s := &Server{conf: conf}

		id, err := faculty.Authenticate("Shubham@Cutm.AC.in", conf.Auth.FacultyDomain)
		require.NoError(t, err)
		assert.True(t, s.allow(Session{Faculty: id}))
		assert.False(t, s.allow(Session{Faculty: faculty.Identity{Email: "a@gmail.com"}}))
	})
}
