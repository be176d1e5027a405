package tokens

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssue_ValidAndClaims(t *testing.T) {
	iss := NewIssuer("test-secret-32-bytes-should-be-long-enough", 2*time.Minute)
	u := &models.User{Sub: "user-123", Name: "Test User", Email: "test@example.com"}

	tokenStr, err := iss.Issue(u)
	require.NoError(t, err)

	c, err := iss.Parse(tokenStr)
	require.NoError(t, err)
	require.Equal(t, "user-123", c.Subject)
	require.Equal(t, "test@example.com", c.Email)
	require.InDelta(t, (2 * time.Minute).Seconds(), c.Remaining(time.Now()).Seconds(), 2)
}

func TestParse_Expired(t *testing.T) {
	iss := NewIssuer("another-secret-32-bytes-longgggg", time.Minute)
	start := time.Now()
	iss.now = func() time.Time { return start }
	tokenStr, err := iss.Issue(&models.User{Sub: "u2"})
	require.NoError(t, err)

	iss.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = iss.Parse(tokenStr)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParse_WrongSecretFails(t *testing.T) {
	tokenStr, err := NewIssuer("secret-one-32-bytes-xxxxxxxxxxxxxxxx", time.Minute).Issue(&models.User{Sub: "u3"})
	require.NoError(t, err)
	_, err = NewIssuer("different-secret-xxxxxxxxxxxxxxxx", time.Minute).Parse(tokenStr)
	require.Error(t, err)
}

func TestParse_Malformed(t *testing.T) {
	_, err := NewIssuer("x", time.Minute).Parse("not.a.jwt")
	require.Error(t, err)
}

// Rejected when alg=none (unsigned token)
func TestParse_AlgNoneRejected(t *testing.T) {
	headerEnc := new(jwt.Token).EncodeSegment([]byte(`{"alg":"none"}`))
	payloadEnc := new(jwt.Token).EncodeSegment([]byte(`{"sub":"u-none","exp":9999999999}`))
	_, err := NewIssuer("x", time.Minute).Parse(headerEnc + "." + payloadEnc + ".")
	require.Error(t, err)
}

// Tampering with payload must fail signature verification
func TestParse_TamperedPayload(t *testing.T) {
	iss := NewIssuer("tamper-test-secret-32-bytes-xxxxxxx", 5*time.Minute)
	tokenStr, err := iss.Issue(&models.User{Sub: "user-t"})
	require.NoError(t, err)
	parts := strings.Split(tokenStr, ".")
	require.Len(t, parts, 3)
	payload, _ := jwt.NewParser().DecodeSegment(parts[1])
	parts[1] = new(jwt.Token).EncodeSegment([]byte(strings.Replace(string(payload), "user-t", "attacker", 1)))
	_, err = iss.Parse(strings.Join(parts, "."))
	require.Error(t, err)
}

func TestVerify_ExposesClaimsMap(t *testing.T) {
	iss := NewIssuer("verify-secret-32-bytes-xxxxxxxxxxxx", time.Minute)
	tokenStr, err := iss.Issue(&models.User{Sub: "s", Email: "a@b.c"})
	require.NoError(t, err)
	tok, err := iss.Verify(context.Background(), tokenStr)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, tok.Claims(&m))
	require.Equal(t, "a@b.c", m["email"])
	require.Equal(t, "s", m["sub"])
}
