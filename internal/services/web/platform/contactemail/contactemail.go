// Package contactemail records a user's contact address and confirms it with
// an emailed link.
package contactemail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/email"
	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/requestctx"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/ratelimit"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
)

const (
	tokenPurpose = "verify-contact-email"
	tokenTTL     = 24 * time.Hour
)

// ErrRateLimited reports too many verification emails for one user.
var ErrRateLimited = errors.New("too many verification emails")

// Store keeps contact emails.
type Store interface {
	ContactEmail(ctx context.Context, owner orcid.ID) (storage.ContactEmail, error)
	SaveContactEmail(ctx context.Context, owner orcid.ID, address storage.ContactEmail) error
}

// Signer issues and checks verification tokens.
type Signer interface {
	Sign(purpose, value string, ttl time.Duration) (string, error)
	Verify(token, purpose string) (string, error)
}

// Verifier saves unverified addresses and confirms them.
type Verifier struct {
	Store  Store
	Signer Signer
	Mailer email.Sender
	// Limiter bounds verification emails per user; nil allows all.
	Limiter *ratelimit.Limiter
	// Origin prefixes the emailed link.
	Origin string
}

// Current returns the user's contact email. ok is false when none is saved.
func (v Verifier) Current(ctx context.Context, owner orcid.ID) (storage.ContactEmail, bool, error) {
	current, err := v.Store.ContactEmail(ctx, owner)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.ContactEmail{}, false, nil
	}
	if err != nil {
		return storage.ContactEmail{}, false, err
	}
	return current, true, nil
}

// Request saves address as the user's unverified contact email and mails
// them a link to confirm it. Saving the already verified address again is
// a no-op.
func (v Verifier) Request(ctx context.Context, user requestctx.User, address string) error {
	address = strings.TrimSpace(address)
	current, found, err := v.Current(ctx, user.ORCID)
	if err != nil {
		return err
	}
	if found && current.Verified && strings.EqualFold(current.Address, address) {
		return nil
	}
	if !v.Limiter.Allow(string(user.ORCID)) {
		return ErrRateLimited
	}
	nonce := uuid.NewString()
	token, err := v.Signer.Sign(tokenPurpose, string(user.ORCID)+" "+nonce, tokenTTL)
	if err != nil {
		return err
	}
	if err := v.Store.SaveContactEmail(ctx, user.ORCID, storage.ContactEmail{Address: address, Token: nonce}); err != nil {
		return fmt.Errorf("save contact email: %w", err)
	}
	msg := email.VerifyContactEmail(email.Address{Name: user.Name, Email: address}, v.Origin+routepath.VerifyEmailWithToken(token))
	if err := v.Mailer.Send(ctx, msg); err != nil {
		return apperrors.Wrap(apperrors.KindUnavailable, fmt.Errorf("send verification email: %w", err))
	}
	return nil
}

// Resend mails a fresh link for the saved unverified address.
func (v Verifier) Resend(ctx context.Context, user requestctx.User) error {
	current, found, err := v.Current(ctx, user.ORCID)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.E(apperrors.KindNotFound, "no contact email")
	}
	if current.Verified {
		return apperrors.E(apperrors.KindAlreadyVerified, "contact email already verified")
	}
	return v.Request(ctx, user, current.Address)
}

// Verify confirms the address token was mailed for.
func (v Verifier) Verify(ctx context.Context, user requestctx.User, token string) (storage.ContactEmail, error) {
	value, err := v.Signer.Verify(token, tokenPurpose)
	if err != nil {
		return storage.ContactEmail{}, apperrors.Wrap(apperrors.KindInvalidToken, err)
	}
	owner, nonce, ok := strings.Cut(value, " ")
	if !ok || nonce == "" {
		return storage.ContactEmail{}, apperrors.E(apperrors.KindInvalidToken, "malformed verification token")
	}
	if owner != string(user.ORCID) {
		return storage.ContactEmail{}, apperrors.E(apperrors.KindWrongUser, "verification token belongs to another user")
	}
	current, found, err := v.Current(ctx, user.ORCID)
	if err != nil {
		return storage.ContactEmail{}, err
	}
	if !found {
		return storage.ContactEmail{}, apperrors.E(apperrors.KindInvalidToken, "no contact email to verify")
	}
	if current.Verified {
		return current, apperrors.E(apperrors.KindAlreadyVerified, "contact email already verified")
	}
	if current.Token != nonce {
		return storage.ContactEmail{}, apperrors.E(apperrors.KindInvalidToken, "verification token superseded")
	}
	current.Verified = true
	current.Token = ""
	if err := v.Store.SaveContactEmail(ctx, user.ORCID, current); err != nil {
		return storage.ContactEmail{}, fmt.Errorf("save verified contact email: %w", err)
	}
	return current, nil
}
