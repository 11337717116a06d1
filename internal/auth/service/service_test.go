package service

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/babili/authd/internal/auth/store/drivers/sqlite"
	"github.com/babili/authd/pkg/cryptox"
	"github.com/babili/authd/pkg/jwtx"
	"github.com/babili/authd/pkg/totpx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// captureMailer records outgoing mail and can be toggled to fail.
type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("relay unavailable")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *captureMailer) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *captureMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// lastToken pulls the verification token out of the most recent mail body.
func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	return tokenFromBody(t, m.last(t).Body)
}

func tokenFromBody(t *testing.T, body string) string {
	t.Helper()

	idx := strings.Index(body, "token=")
	require.GreaterOrEqual(t, idx, 0, "mail body should contain a verification link")

	raw := body[idx+len("token="):]
	if end := strings.IndexAny(raw, " \n"); end >= 0 {
		raw = raw[:end]
	}
	token, err := url.QueryUnescape(raw)
	require.NoError(t, err)
	return token
}

type testEnv struct {
	store        *sqlite.Store
	mailer       *captureMailer
	signer       jwtx.Signer
	verification *VerificationService
	registration *RegistrationService
	login        *LoginService
	twoFactor    *TwoFactorService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewEphemeralSigner("test-1")
	require.NoError(t, err)

	mailer := &captureMailer{}
	verification := &VerificationService{
		Store:       st,
		Mailer:      mailer,
		AppName:     "Authd",
		FrontendURL: "http://localhost:3000",
		TokenTTL:    time.Hour,
	}

	return &testEnv{
		store:        st,
		mailer:       mailer,
		signer:       signer,
		verification: verification,
		registration: &RegistrationService{Store: st, Verification: verification},
		login: &LoginService{
			Store:     st,
			Signer:    signer,
			Issuer:    "test-issuer",
			AccessTTL: time.Hour,
		},
		twoFactor: &TwoFactorService{Store: st, Issuer: "Authd"},
	}
}

func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	user, err := e.registration.Register(context.Background(), RegisterParams{
		Email:     email,
		Password:  "hunter2hunter2",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	return user.ID
}

func (e *testEnv) registerVerified(t *testing.T, email string) string {
	t.Helper()
	id := e.register(t, email)
	ok, err := e.verification.Redeem(context.Background(), e.mailer.lastToken(t))
	require.NoError(t, err)
	require.True(t, ok)
	return id
}

func totpCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    totpx.Period,
		Skew:      totpx.Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}
