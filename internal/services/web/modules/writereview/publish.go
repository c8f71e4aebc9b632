package writereview

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/email"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/zenodo"
	"github.com/sirupsen/logrus"
)

// publish deposits the review, then invites the other authors and tells the
// community. Only the deposit can fail the request.
func (h handlers) publish(r *http.Request, state flowState) (publishedReview, error) {
	if h.m.depositor == nil {
		return publishedReview{}, apperrors.E(apperrors.KindUnavailable, "publishing is not configured")
	}
	ctx := r.Context()
	name := displayName(state.user, state.form.Persona)
	author := zenodo.Author{Name: name}
	if state.form.Persona == personaPublic {
		author.ORCID = string(state.user.ORCID)
	}
	result, err := h.m.depositor.Publish(ctx, zenodo.NewPrereview{
		PreprintDOI:   state.id.DOI,
		PreprintTitle: state.form.PreprintTitle,
		Authors:       []zenodo.Author{author},
		Language:      "en",
		Structured:    state.form.ReviewType == TypeQuestions,
		Text:          publishableText(state.form),
	})
	if err != nil {
		return publishedReview{}, err
	}
	log := h.m.base.Log().WithFields(logrus.Fields{
		"request_id": httpx.RequestIDOf(r),
		"review_id":  result.ID,
		"doi":        state.id.DOI,
	})
	log.Info("prereview published")

	invited := 0
	for _, other := range state.form.OtherAuthors {
		if err := h.invite(r, result.ID, name, state.form.PreprintTitle, other); err != nil {
			log.WithError(err).Warn("invite author")
			continue
		}
		invited++
	}
	h.announce(r, log, name, state, result)
	return publishedReview{ReviewID: result.ID, DOI: result.DOI, Invited: invited}, nil
}

func (h handlers) invite(r *http.Request, reviewID int, inviter, title string, other OtherAuthor) error {
	if h.m.invites == nil {
		return fmt.Errorf("invite store is not configured")
	}
	invite := storage.AuthorInvite{
		ID:            uuid.New(),
		ReviewID:      reviewID,
		PreprintTitle: title,
		InviterName:   inviter,
		Email:         other.Email,
		Status:        storage.InviteOpen,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.m.invites.SaveAuthorInvite(r.Context(), invite); err != nil {
		return fmt.Errorf("save invite: %w", err)
	}
	if h.m.mailer == nil {
		return fmt.Errorf("mailer is not configured")
	}
	msg := email.AuthorInvite(
		email.Address{Name: other.Name, Email: other.Email},
		inviter,
		title,
		h.m.cfg.Origin+routepath.AuthorInvite(invite.ID, ""),
		h.m.cfg.Origin+routepath.AuthorInviteDecline(invite.ID),
	)
	if err := h.m.mailer.Send(r.Context(), msg); err != nil {
		return fmt.Errorf("send invite: %w", err)
	}
	return nil
}

func (h handlers) announce(r *http.Request, log logrus.FieldLogger, name string, state flowState, result zenodo.Published) {
	if h.m.announcer == nil || h.m.cfg.SlackChannel == "" {
		return
	}
	text := fmt.Sprintf("%s has published a PREreview of <%s|%s>: <%s|read it>.",
		name,
		h.m.cfg.Origin+routepath.Preprint(state.id),
		state.form.PreprintTitle,
		h.m.cfg.Origin+routepath.Review(result.ID),
	)
	if err := h.m.announcer.PostMessage(r.Context(), h.m.cfg.SlackChannel, text); err != nil {
		log.WithError(err).Warn("announce prereview")
	}
}
