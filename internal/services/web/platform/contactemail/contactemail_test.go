package contactemail

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prereview/prereview/internal/email"
	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/requestctx"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/ratelimit"
	"github.com/prereview/prereview/internal/services/web/platform/signedtoken"
	"github.com/prereview/prereview/internal/services/web/storage"
)

type fakeStore struct {
	mu     sync.Mutex
	emails map[orcid.ID]storage.ContactEmail
}

func (f *fakeStore) ContactEmail(_ context.Context, owner orcid.ID) (storage.ContactEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.emails[owner]
	if !ok {
		return storage.ContactEmail{}, storage.ErrNotFound
	}
	return current, nil
}

func (f *fakeStore) SaveContactEmail(_ context.Context, owner orcid.ID, address storage.ContactEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emails == nil {
		f.emails = map[orcid.ID]storage.ContactEmail{}
	}
	f.emails[owner] = address
	return nil
}

type fakeMailer struct {
	sent []email.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var (
	josiah = requestctx.User{ORCID: "0000-0002-1825-0097", Name: "Josiah Carberry"}
	other  = requestctx.User{ORCID: "0000-0002-6982-4660", Name: "Someone Else"}
)

func newVerifier(t *testing.T) (Verifier, *fakeStore, *fakeMailer) {
	t.Helper()
	signer, err := signedtoken.NewSigner("0123456789abcdef-test")
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	store := &fakeStore{}
	mailer := &fakeMailer{}
	return Verifier{
		Store:   store,
		Signer:  signer,
		Mailer:  mailer,
		Limiter: ratelimit.New(time.Hour, 2),
		Origin:  "https://prereview.test",
	}, store, mailer
}

// tokenFrom extracts the token from the verification link in msg.
func tokenFrom(t *testing.T, msg email.Message) string {
	t.Helper()
	start := strings.Index(msg.Text, "https://prereview.test/")
	if start < 0 {
		t.Fatalf("no link in %q", msg.Text)
	}
	link := strings.Fields(msg.Text[start:])[0]
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	return parsed.Query().Get("token")
}

func TestRequestThenVerify(t *testing.T) {
	t.Parallel()

	verifier, store, mailer := newVerifier(t)
	ctx := context.Background()
	if err := verifier.Request(ctx, josiah, " josiah@example.com "); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	saved := store.emails[josiah.ORCID]
	if saved.Address != "josiah@example.com" || saved.Verified || saved.Token == "" {
		t.Fatalf("saved = %+v, want unverified address with token", saved)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To.Email != "josiah@example.com" {
		t.Fatalf("sent = %+v", mailer.sent)
	}

	verified, err := verifier.Verify(ctx, josiah, tokenFrom(t, mailer.sent[0]))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !verified.Verified || verified.Token != "" {
		t.Fatalf("verified = %+v", verified)
	}
	if !store.emails[josiah.ORCID].Verified {
		t.Fatal("verification was not saved")
	}

	_, err = verifier.Verify(ctx, josiah, tokenFrom(t, mailer.sent[0]))
	if got := apperrors.KindOf(err); got != apperrors.KindAlreadyVerified {
		t.Fatalf("second Verify() kind = %v, want %v", got, apperrors.KindAlreadyVerified)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	t.Parallel()

	verifier, _, mailer := newVerifier(t)
	ctx := context.Background()
	if err := verifier.Request(ctx, josiah, "josiah@example.com"); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	first := tokenFrom(t, mailer.sent[0])

	if _, err := verifier.Verify(ctx, josiah, "not-a-token"); apperrors.KindOf(err) != apperrors.KindInvalidToken {
		t.Fatalf("garbage token error = %v, want invalid token", err)
	}
	if _, err := verifier.Verify(ctx, other, first); apperrors.KindOf(err) != apperrors.KindWrongUser {
		t.Fatalf("other user error = %v, want wrong user", err)
	}

	if err := verifier.Request(ctx, josiah, "josiah@example.org"); err != nil {
		t.Fatalf("second Request() error = %v", err)
	}
	if _, err := verifier.Verify(ctx, josiah, first); apperrors.KindOf(err) != apperrors.KindInvalidToken {
		t.Fatalf("superseded token error = %v, want invalid token", err)
	}
}

func TestRequestIsRateLimited(t *testing.T) {
	t.Parallel()

	verifier, _, mailer := newVerifier(t)
	ctx := context.Background()
	for i := range 2 {
		if err := verifier.Request(ctx, josiah, "josiah@example.com"); err != nil {
			t.Fatalf("Request() #%d error = %v", i, err)
		}
	}
	if err := verifier.Request(ctx, josiah, "josiah@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("third Request() error = %v, want ErrRateLimited", err)
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("sent = %d emails, want 2", len(mailer.sent))
	}
	if err := verifier.Request(ctx, other, "other@example.com"); err != nil {
		t.Fatalf("other user Request() error = %v", err)
	}
}

func TestRequestSameVerifiedAddressIsNoop(t *testing.T) {
	t.Parallel()

	verifier, store, mailer := newVerifier(t)
	store.emails = map[orcid.ID]storage.ContactEmail{
		josiah.ORCID: {Address: "josiah@example.com", Verified: true},
	}
	if err := verifier.Request(context.Background(), josiah, "Josiah@Example.com"); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("sent = %+v, want none", mailer.sent)
	}
	if err := verifier.Resend(context.Background(), josiah); apperrors.KindOf(err) != apperrors.KindAlreadyVerified {
		t.Fatalf("Resend() error = %v, want already verified", err)
	}
}

func TestRequestMailFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	verifier, _, mailer := newVerifier(t)
	mailer.err = errors.New("smtp down")
	err := verifier.Request(context.Background(), josiah, "josiah@example.com")
	if apperrors.KindOf(err) != apperrors.KindUnavailable {
		t.Fatalf("Request() error = %v, want unavailable", err)
	}
}
