package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/castward/castlink/internal/domain/repository"
)

const accountColumns = `
id, subject, role,
chat_id, chat_username, chat_display_name, chat_avatar_url,
twitter_id, twitter_username, twitter_display_name, twitter_avatar_url,
discord_id, discord_username, discord_display_name, discord_avatar_url,
created_at, updated_at`

func scanAccount(row pgx.Row) (*repository.Account, error) {
	var (
		a repository.Account

		chatID, chatUser, chatName, chatAvatar *string
		twID, twUser, twName, twAvatar         *string
		dcID, dcUser, dcName, dcAvatar         *string
	)
	err := row.Scan(
		&a.ID, &a.Subject, &a.Role,
		&chatID, &chatUser, &chatName, &chatAvatar,
		&twID, &twUser, &twName, &twAvatar,
		&dcID, &dcUser, &dcName, &dcAvatar,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	a.Chat = buildIdentity(chatID, chatUser, chatName, chatAvatar)
	a.Twitter = buildIdentity(twID, twUser, twName, twAvatar)
	a.Discord = buildIdentity(dcID, dcUser, dcName, dcAvatar)
	return &a, nil
}

func buildIdentity(id, username, display, avatar *string) *repository.LinkedIdentity {
	if id == nil || *id == "" {
		return nil
	}
	li := &repository.LinkedIdentity{ID: *id}
	if username != nil {
		li.Username = *username
	}
	if display != nil {
		li.DisplayName = *display
	}
	if avatar != nil {
		li.AvatarURL = *avatar
	}
	return li
}

// columnPrefix mapea un kind a su prefijo de columnas. Whitelist: el kind
// nunca se interpola directo al SQL.
func columnPrefix(kind repository.ProviderKind) (string, error) {
	switch kind {
	case repository.KindChat:
		return "chat", nil
	case repository.KindTwitter:
		return "twitter", nil
	case repository.KindDiscord:
		return "discord", nil
	}
	return "", repository.ErrInvalidInput
}

func (s *Store) GetByID(ctx context.Context, id string) (*repository.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) GetBySubject(ctx context.Context, subject string) (*repository.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE subject = $1`
	return scanAccount(s.pool.QueryRow(ctx, q, subject))
}

// UpsertBySubject crea la cuenta si no existe. El ON CONFLICT con RETURNING
// resuelve la carrera de dos logins simultáneos del mismo subject.
func (s *Store) UpsertBySubject(ctx context.Context, subject string) (*repository.Account, bool, error) {
	q := `
INSERT INTO accounts (id, subject, role, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
ON CONFLICT (subject) DO UPDATE SET updated_at = now()
RETURNING ` + accountColumns + `, (xmax = 0) AS is_new`

	var (
		a     repository.Account
		isNew bool

		chatID, chatUser, chatName, chatAvatar *string
		twID, twUser, twName, twAvatar         *string
		dcID, dcUser, dcName, dcAvatar         *string
	)
	err := s.pool.QueryRow(ctx, q, uuid.NewString(), subject, "unverified").Scan(
		&a.ID, &a.Subject, &a.Role,
		&chatID, &chatUser, &chatName, &chatAvatar,
		&twID, &twUser, &twName, &twAvatar,
		&dcID, &dcUser, &dcName, &dcAvatar,
		&a.CreatedAt, &a.UpdatedAt,
		&isNew,
	)
	if err != nil {
		return nil, false, err
	}
	a.Chat = buildIdentity(chatID, chatUser, chatName, chatAvatar)
	a.Twitter = buildIdentity(twID, twUser, twName, twAvatar)
	a.Discord = buildIdentity(dcID, dcUser, dcName, dcAvatar)
	return &a, isNew, nil
}

// Link escribe los cuatro campos del kind en un solo UPDATE.
func (s *Store) Link(ctx context.Context, accountID string, kind repository.ProviderKind, li repository.LinkedIdentity) (*repository.Account, error) {
	prefix, err := columnPrefix(kind)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
UPDATE accounts SET
  %[1]s_id = $2,
  %[1]s_username = $3,
  %[1]s_display_name = $4,
  %[1]s_avatar_url = $5,
  updated_at = now()
WHERE id = $1
RETURNING `+accountColumns, prefix)

	account, err := scanAccount(s.pool.QueryRow(ctx, q, accountID, li.ID, li.Username, li.DisplayName, li.AvatarURL))
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Unlink limpia los cuatro campos del kind en un solo UPDATE.
func (s *Store) Unlink(ctx context.Context, accountID string, kind repository.ProviderKind) error {
	prefix, err := columnPrefix(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`
UPDATE accounts SET
  %[1]s_id = NULL,
  %[1]s_username = NULL,
  %[1]s_display_name = NULL,
  %[1]s_avatar_url = NULL,
  updated_at = now()
WHERE id = $1`, prefix)

	tag, err := s.pool.Exec(ctx, q, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) SetRole(ctx context.Context, accountID, role string) error {
	const q = `UPDATE accounts SET role = $2, updated_at = now() WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, accountID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) RoleOf(ctx context.Context, accountID string) (string, error) {
	const q = `SELECT role FROM accounts WHERE id = $1`
	var role string
	if err := s.pool.QueryRow(ctx, q, accountID).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return role, nil
}
