package pg

import (
	"context"

	"github.com/google/uuid"

	"github.com/castward/castlink/internal/domain/repository"
)

// Append inserta un evento de riesgo. Nunca actualiza ni deduplica.
func (s *Store) Append(ctx context.Context, rec *repository.RiskRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	const q = `
INSERT INTO risk_events
  (id, identity, ip, user_agent, proxy, vpn, tor, risk_score,
   country_code, country_name, provider, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := s.pool.Exec(ctx, q,
		rec.ID, rec.Identity, rec.IP, rec.UserAgent,
		rec.Proxy, rec.VPN, rec.Tor, rec.RiskScore,
		rec.CountryCode, rec.CountryName, rec.Provider, rec.CreatedAt,
	)
	return err
}

func (s *Store) ListByIdentity(ctx context.Context, identity string, limit int) ([]repository.RiskRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, identity, ip, user_agent, proxy, vpn, tor, risk_score,
       country_code, country_name, provider, created_at
FROM risk_events
WHERE identity = $1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := s.pool.Query(ctx, q, identity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.RiskRecord
	for rows.Next() {
		var r repository.RiskRecord
		if err := rows.Scan(
			&r.ID, &r.Identity, &r.IP, &r.UserAgent,
			&r.Proxy, &r.VPN, &r.Tor, &r.RiskScore,
			&r.CountryCode, &r.CountryName, &r.Provider, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
