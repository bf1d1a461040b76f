package repository

import (
	"context"
	"time"
)

// RiskRecord es un evento de login enriquecido con señales de reputación IP.
// Append-only: un nuevo login produce un nuevo registro, nunca se actualiza.
type RiskRecord struct {
	ID        string
	Identity  string // identidad resuelta (primary o secondary namespaced)
	IP        string
	UserAgent string

	Proxy     bool
	VPN       bool
	Tor       bool
	RiskScore int

	CountryCode string
	CountryName string
	Provider    string // nombre del provider que originó el login

	CreatedAt time.Time
}

// RiskRepository define la persistencia de eventos de riesgo.
type RiskRepository interface {
	// Append inserta un registro nuevo. Nunca deduplica ni actualiza.
	Append(ctx context.Context, rec *RiskRecord) error

	// ListByIdentity retorna los registros más recientes de una identidad.
	ListByIdentity(ctx context.Context, identity string, limit int) ([]RiskRecord, error)
}
