package authorinvite

import (
	"github.com/prereview/prereview/internal/platform/requestctx"
	"github.com/prereview/prereview/internal/services/web/storage"
)

// destination is where a visitor to an invite should be.
type destination int

const (
	toStart destination = iota
	toLogIn
	toContinue
	toPublished
	toWrongUser
	toDeclined
	toNotFound
)

func (d destination) String() string {
	switch d {
	case toStart:
		return "start"
	case toLogIn:
		return "log-in"
	case toContinue:
		return "continue"
	case toPublished:
		return "published"
	case toWrongUser:
		return "wrong-user"
	case toDeclined:
		return "declined"
	default:
		return "not-found"
	}
}

// route decides where a visitor goes given the invite's status and who, if
// anyone, is signed in. Every status and user pairing has exactly one answer.
func route(invite storage.AuthorInvite, user requestctx.User, signedIn bool) destination {
	switch invite.Status {
	case storage.InviteOpen:
		return toStart
	case storage.InviteDeclined:
		return toDeclined
	case storage.InviteAssigned, storage.InviteCompleted:
	default:
		return toNotFound
	}
	if !signedIn {
		return toLogIn
	}
	if invite.AssignedTo != user.ORCID {
		return toWrongUser
	}
	if invite.Status == storage.InviteCompleted {
		return toPublished
	}
	return toContinue
}

// nextStep picks the first unanswered step for an assignee.
func nextStep(invite storage.AuthorInvite, contact storage.ContactEmail, hasContact bool) string {
	switch {
	case invite.Persona == "":
		return stepChooseName
	case !hasContact:
		return stepEnterEmail
	case !contact.Verified:
		return stepNeedToVerify
	default:
		return stepCheck
	}
}
