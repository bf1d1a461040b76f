package repository

import (
	"context"
	"time"
)

// ProviderKind identifica el tipo de identidad secundaria enlazable.
type ProviderKind string

const (
	KindChat    ProviderKind = "chat"    // cuenta de chat en la plataforma de streaming
	KindTwitter ProviderKind = "twitter" // red social A
	KindDiscord ProviderKind = "discord" // red social B
)

// Kinds lista los kinds enlazables en orden estable.
func Kinds() []ProviderKind {
	return []ProviderKind{KindChat, KindTwitter, KindDiscord}
}

// ValidKind verifica que el kind sea uno de los soportados.
func ValidKind(k ProviderKind) bool {
	switch k {
	case KindChat, KindTwitter, KindDiscord:
		return true
	}
	return false
}

// LinkedIdentity es una identidad externa enlazada a una cuenta.
// Invariante: los cuatro campos se escriben y se limpian juntos; un link
// parcial nunca es observable.
type LinkedIdentity struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
}

// Account es el registro durable de identidad.
// Solo el linker y la asignación administrativa de rol lo mutan.
type Account struct {
	ID      string
	Subject string // subject del provider primario (login de plataforma)
	Role    string

	Chat    *LinkedIdentity
	Twitter *LinkedIdentity
	Discord *LinkedIdentity

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Linked retorna la identidad enlazada para un kind, o nil.
func (a *Account) Linked(kind ProviderKind) *LinkedIdentity {
	switch kind {
	case KindChat:
		return a.Chat
	case KindTwitter:
		return a.Twitter
	case KindDiscord:
		return a.Discord
	}
	return nil
}

// AccountRepository define operaciones sobre cuentas y sus links.
type AccountRepository interface {
	// GetByID busca una cuenta por ID. Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Account, error)

	// GetBySubject busca una cuenta por subject primario.
	GetBySubject(ctx context.Context, subject string) (*Account, error)

	// UpsertBySubject crea la cuenta si no existe y retorna (account, isNew).
	// Las cuentas nuevas nacen con el rol más bajo.
	UpsertBySubject(ctx context.Context, subject string) (*Account, bool, error)

	// Link escribe la identidad enlazada para un kind en una sola escritura
	// atómica, sobreescribiendo un link previo del mismo kind (idempotente).
	Link(ctx context.Context, accountID string, kind ProviderKind, li LinkedIdentity) (*Account, error)

	// Unlink limpia todos los campos del kind en una sola escritura atómica.
	// No afecta otros kinds ni el rol.
	Unlink(ctx context.Context, accountID string, kind ProviderKind) error

	// SetRole asigna el rol (operación administrativa).
	SetRole(ctx context.Context, accountID, role string) error

	// RoleOf retorna el rol asignado a la cuenta.
	RoleOf(ctx context.Context, accountID string) (string, error)
}
