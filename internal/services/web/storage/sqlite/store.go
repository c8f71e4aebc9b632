// Package sqlite persists web users, sessions and in-progress flows in
// SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/id"
	"github.com/prereview/prereview/internal/platform/storage/sqlitemigrate"
	"github.com/prereview/prereview/internal/services/web/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

const pseudonymAttempts = 20

// Store provides SQLite-backed persistence for the web service.
type Store struct {
	sqlDB  *sql.DB
	now    func() time.Time
	random func() [16]byte
}

// Open opens and migrates the web database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := sqlitemigrate.Open(ctx, path, migrations, "migrations")
	if err != nil {
		return nil, err
	}
	return &Store{
		sqlDB:  sqlDB,
		now:    time.Now,
		random: func() [16]byte { return id.NewUUID() },
	}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.sqlDB.PingContext(ctx)
}

func (s *Store) ready() error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func (s *Store) nowMillis() int64 {
	return s.now().UTC().UnixMilli()
}

// SaveUser records a log-in, keeping the pseudonym of a returning user and
// assigning a unique one to a new user.
func (s *Store) SaveUser(ctx context.Context, orcidID orcid.ID, name string) (storage.User, error) {
	if err := s.ready(); err != nil {
		return storage.User{}, err
	}
	now := s.nowMillis()
	existing, err := s.User(ctx, orcidID)
	switch {
	case err == nil:
		if _, err := s.sqlDB.ExecContext(ctx, `UPDATE users SET name = ?, updated_at = ? WHERE orcid = ?`, name, now, string(orcidID)); err != nil {
			return storage.User{}, fmt.Errorf("update user: %w", err)
		}
		existing.Name = name
		return existing, nil
	case !errors.Is(err, storage.ErrNotFound):
		return storage.User{}, err
	}

	for attempt := 0; attempt < pseudonymAttempts; attempt++ {
		pseudonym := storage.Pseudonym(s.random())
		if attempt >= pseudonymAttempts/2 {
			pseudonym = fmt.Sprintf("%s %d", pseudonym, attempt)
		}
		_, err := s.sqlDB.ExecContext(ctx,
			`INSERT INTO users (orcid, name, pseudonym, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			string(orcidID), name, pseudonym, now, now,
		)
		if err == nil {
			return storage.User{ORCID: orcidID, Name: name, Pseudonym: pseudonym}, nil
		}
		if !isUniqueViolation(err, "users.pseudonym") {
			return storage.User{}, fmt.Errorf("insert user: %w", err)
		}
	}
	return storage.User{}, fmt.Errorf("assign pseudonym: no free pseudonym after %d attempts", pseudonymAttempts)
}

// User loads a user by ORCID iD.
func (s *Store) User(ctx context.Context, orcidID orcid.ID) (storage.User, error) {
	if err := s.ready(); err != nil {
		return storage.User{}, err
	}
	return s.scanUser(s.sqlDB.QueryRowContext(ctx, `SELECT orcid, name, pseudonym FROM users WHERE orcid = ?`, string(orcidID)))
}

// UserByPseudonym loads a user by pseudonym.
func (s *Store) UserByPseudonym(ctx context.Context, pseudonym string) (storage.User, error) {
	if err := s.ready(); err != nil {
		return storage.User{}, err
	}
	return s.scanUser(s.sqlDB.QueryRowContext(ctx, `SELECT orcid, name, pseudonym FROM users WHERE pseudonym = ? COLLATE NOCASE`, strings.TrimSpace(pseudonym)))
}

func (s *Store) scanUser(row *sql.Row) (storage.User, error) {
	var user storage.User
	var orcidID string
	if err := row.Scan(&orcidID, &user.Name, &user.Pseudonym); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.User{}, storage.ErrNotFound
		}
		return storage.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.ORCID = orcid.ID(orcidID)
	return user, nil
}

// CreateSession starts a session for a saved user.
func (s *Store) CreateSession(ctx context.Context, user storage.User, ttl time.Duration) (storage.Session, error) {
	if err := s.ready(); err != nil {
		return storage.Session{}, err
	}
	token, err := id.NewToken()
	if err != nil {
		return storage.Session{}, err
	}
	now := s.now().UTC()
	expires := now.Add(ttl)
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (id, orcid, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, string(user.ORCID), now.UnixMilli(), expires.UnixMilli(),
	); err != nil {
		return storage.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return storage.Session{ID: token, User: user, ExpiresAt: expires}, nil
}

// Session loads an unexpired session with its user.
func (s *Store) Session(ctx context.Context, sessionID string) (storage.Session, error) {
	if err := s.ready(); err != nil {
		return storage.Session{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT s.id, s.expires_at, u.orcid, u.name, u.pseudonym
		 FROM sessions s JOIN users u ON u.orcid = s.orcid
		 WHERE s.id = ? AND s.expires_at > ?`,
		sessionID, s.nowMillis(),
	)
	var session storage.Session
	var expires int64
	var orcidID string
	if err := row.Scan(&session.ID, &expires, &orcidID, &session.User.Name, &session.User.Pseudonym); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Session{}, storage.ErrNotFound
		}
		return storage.Session{}, fmt.Errorf("scan session: %w", err)
	}
	session.User.ORCID = orcid.ID(orcidID)
	session.ExpiresAt = time.UnixMilli(expires).UTC()
	return session, nil
}

// DeleteSession ends a session. Deleting an unknown session is not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry and returns how
// many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.nowMillis())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// ContactEmail loads a user's contact email.
func (s *Store) ContactEmail(ctx context.Context, orcidID orcid.ID) (storage.ContactEmail, error) {
	if err := s.ready(); err != nil {
		return storage.ContactEmail{}, err
	}
	var email storage.ContactEmail
	var verified int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT address, verified, token FROM contact_emails WHERE orcid = ?`, string(orcidID),
	).Scan(&email.Address, &verified, &email.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ContactEmail{}, storage.ErrNotFound
		}
		return storage.ContactEmail{}, fmt.Errorf("scan contact email: %w", err)
	}
	email.Verified = verified == 1
	return email, nil
}

// SaveContactEmail replaces a user's contact email.
func (s *Store) SaveContactEmail(ctx context.Context, orcidID orcid.ID, email storage.ContactEmail) error {
	if err := s.ready(); err != nil {
		return err
	}
	verified := 0
	if email.Verified {
		verified = 1
		email.Token = ""
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO contact_emails (orcid, address, verified, token, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(orcid) DO UPDATE SET
		    address = excluded.address,
		    verified = excluded.verified,
		    token = excluded.token,
		    updated_at = excluded.updated_at`,
		string(orcidID), email.Address, verified, email.Token, s.nowMillis(),
	); err != nil {
		return fmt.Errorf("save contact email: %w", err)
	}
	return nil
}

var detailColumns = []string{"open_for_requests", "career_stage", "research_interests", "location", "languages"}

func detailFields(details *storage.Details) map[string]*storage.Detail {
	return map[string]*storage.Detail{
		"open_for_requests":  &details.OpenForRequests,
		"career_stage":       &details.CareerStage,
		"research_interests": &details.ResearchInterests,
		"location":           &details.Location,
		"languages":          &details.Languages,
	}
}

// Details loads a user's personal details. Unanswered details are empty.
func (s *Store) Details(ctx context.Context, orcidID orcid.ID) (storage.Details, error) {
	if err := s.ready(); err != nil {
		return storage.Details{}, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT detail, value, visibility FROM user_details WHERE orcid = ?`, string(orcidID))
	if err != nil {
		return storage.Details{}, fmt.Errorf("load details: %w", err)
	}
	defer rows.Close()

	var details storage.Details
	fields := detailFields(&details)
	for rows.Next() {
		var name, value, visibility string
		if err := rows.Scan(&name, &value, &visibility); err != nil {
			return storage.Details{}, fmt.Errorf("scan detail: %w", err)
		}
		if field, ok := fields[name]; ok {
			*field = storage.Detail{Value: value, Visibility: storage.Visibility(visibility)}
		}
	}
	if err := rows.Err(); err != nil {
		return storage.Details{}, fmt.Errorf("iterate details: %w", err)
	}
	return details, nil
}

// SaveDetails replaces a user's personal details. Empty details are removed.
func (s *Store) SaveDetails(ctx context.Context, orcidID orcid.ID, details storage.Details) error {
	if err := s.ready(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save details: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.nowMillis()
	fields := detailFields(&details)
	for _, name := range detailColumns {
		detail := fields[name]
		if strings.TrimSpace(detail.Value) == "" {
			if _, err := tx.ExecContext(ctx, `DELETE FROM user_details WHERE orcid = ? AND detail = ?`, string(orcidID), name); err != nil {
				return fmt.Errorf("clear %s: %w", name, err)
			}
			continue
		}
		visibility := detail.Visibility
		if visibility == "" {
			visibility = storage.VisibilityRestricted
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_details (orcid, detail, value, visibility, updated_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(orcid, detail) DO UPDATE SET
			    value = excluded.value,
			    visibility = excluded.visibility,
			    updated_at = excluded.updated_at`,
			string(orcidID), name, detail.Value, string(visibility), now,
		); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit details: %w", err)
	}
	return nil
}

// SlackUser loads a user's Slack link.
func (s *Store) SlackUser(ctx context.Context, orcidID orcid.ID) (storage.SlackUser, error) {
	if err := s.ready(); err != nil {
		return storage.SlackUser{}, err
	}
	var user storage.SlackUser
	var scopes string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT slack_user_id, access_token, name, image, scopes FROM slack_users WHERE orcid = ?`, string(orcidID),
	).Scan(&user.UserID, &user.AccessToken, &user.Name, &user.Image, &scopes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SlackUser{}, storage.ErrNotFound
		}
		return storage.SlackUser{}, fmt.Errorf("scan slack user: %w", err)
	}
	if scopes != "" {
		user.Scopes = strings.Split(scopes, ",")
	}
	return user, nil
}

// SaveSlackUser links a user to a Slack member.
func (s *Store) SaveSlackUser(ctx context.Context, orcidID orcid.ID, user storage.SlackUser) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO slack_users (orcid, slack_user_id, access_token, name, image, scopes, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(orcid) DO UPDATE SET
		    slack_user_id = excluded.slack_user_id,
		    access_token = excluded.access_token,
		    name = excluded.name,
		    image = excluded.image,
		    scopes = excluded.scopes,
		    updated_at = excluded.updated_at`,
		string(orcidID), user.UserID, user.AccessToken, user.Name, user.Image, strings.Join(user.Scopes, ","), s.nowMillis(),
	); err != nil {
		return fmt.Errorf("save slack user: %w", err)
	}
	return nil
}

// DeleteSlackUser removes a user's Slack link.
func (s *Store) DeleteSlackUser(ctx context.Context, orcidID orcid.ID) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM slack_users WHERE orcid = ?`, string(orcidID)); err != nil {
		return fmt.Errorf("delete slack user: %w", err)
	}
	return nil
}

// AuthorInvite loads an invite by id.
func (s *Store) AuthorInvite(ctx context.Context, inviteID uuid.UUID) (storage.AuthorInvite, error) {
	if err := s.ready(); err != nil {
		return storage.AuthorInvite{}, err
	}
	var invite storage.AuthorInvite
	var rawID, status, assigned string
	var created int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, review_id, preprint_title, inviter_name, email, status, assigned_to, persona, created_at
		 FROM author_invites WHERE id = ?`, inviteID.String(),
	).Scan(&rawID, &invite.ReviewID, &invite.PreprintTitle, &invite.InviterName, &invite.Email, &status, &assigned, &invite.Persona, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AuthorInvite{}, storage.ErrNotFound
		}
		return storage.AuthorInvite{}, fmt.Errorf("scan author invite: %w", err)
	}
	parsed, err := uuid.Parse(rawID)
	if err != nil {
		return storage.AuthorInvite{}, fmt.Errorf("parse author invite id: %w", err)
	}
	invite.ID = parsed
	invite.Status = storage.InviteStatus(status)
	invite.AssignedTo = orcid.ID(assigned)
	invite.CreatedAt = time.UnixMilli(created).UTC()
	return invite, nil
}

// SaveAuthorInvite creates or updates an invite.
func (s *Store) SaveAuthorInvite(ctx context.Context, invite storage.AuthorInvite) error {
	if err := s.ready(); err != nil {
		return err
	}
	if invite.ID == uuid.Nil {
		return fmt.Errorf("author invite id is required")
	}
	now := s.nowMillis()
	created := now
	if !invite.CreatedAt.IsZero() {
		created = invite.CreatedAt.UTC().UnixMilli()
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO author_invites (id, review_id, preprint_title, inviter_name, email, status, assigned_to, persona, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    status = excluded.status,
		    assigned_to = excluded.assigned_to,
		    persona = excluded.persona,
		    updated_at = excluded.updated_at`,
		invite.ID.String(), invite.ReviewID, invite.PreprintTitle, invite.InviterName, invite.Email,
		string(invite.Status), string(invite.AssignedTo), invite.Persona, created, now,
	); err != nil {
		return fmt.Errorf("save author invite: %w", err)
	}
	return nil
}

// Form loads the saved answers of a flow.
func (s *Store) Form(ctx context.Context, kind storage.FormKind, orcidID orcid.ID, key string) ([]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var payload []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload_json FROM forms WHERE kind = ? AND orcid = ? AND form_key = ?`,
		string(kind), string(orcidID), key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan form: %w", err)
	}
	return payload, nil
}

// SaveForm stores the answers of a flow.
func (s *Store) SaveForm(ctx context.Context, kind storage.FormKind, orcidID orcid.ID, key string, payload []byte) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO forms (kind, orcid, form_key, payload_json, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(kind, orcid, form_key) DO UPDATE SET
		    payload_json = excluded.payload_json,
		    updated_at = excluded.updated_at`,
		string(kind), string(orcidID), key, payload, s.nowMillis(),
	); err != nil {
		return fmt.Errorf("save form: %w", err)
	}
	return nil
}

// DeleteForm discards the answers of a flow.
func (s *Store) DeleteForm(ctx context.Context, kind storage.FormKind, orcidID orcid.ID, key string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM forms WHERE kind = ? AND orcid = ? AND form_key = ?`,
		string(kind), string(orcidID), key,
	); err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	return nil
}

func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "UNIQUE constraint failed") && strings.Contains(message, column)
}
