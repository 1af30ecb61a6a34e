package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jose-valero/tempvoice-bot/internal/domain"
)

// GuildRepo guarda un documento JSONB por guild, con columna version para
// concurrencia optimista.
type GuildRepo struct{ db *sql.DB }

func NewGuildRepo(db *sql.DB) *GuildRepo { return &GuildRepo{db: db} }

func (r *GuildRepo) Load(ctx context.Context, guildID string) (*domain.Guild, error) {
	var (
		raw     []byte
		version int64
	)
	err := r.db.QueryRowContext(ctx, `
SELECT doc, version
  FROM guild_documents
 WHERE guild_id = $1
`, guildID).Scan(&raw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var g domain.Guild
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode guild %s: %w", guildID, err)
	}
	g.ID = guildID
	g.Version = version
	return &g, nil
}

// Save escribe g si nadie lo tocó desde que se cargó. Version 0 inserta.
// Si sale bien, g.Version queda con la versión guardada.
func (r *GuildRepo) Save(ctx context.Context, g *domain.Guild) error {
	doc, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode guild %s: %w", g.ID, err)
	}

	var res sql.Result
	if g.Version == 0 {
		res, err = r.db.ExecContext(ctx, `
INSERT INTO guild_documents (guild_id, name, member_count, doc, version)
VALUES ($1, $2, $3, $4, 1)
ON CONFLICT (guild_id) DO NOTHING
`, g.ID, g.Name, g.MemberCount, doc)
	} else {
		res, err = r.db.ExecContext(ctx, `
UPDATE guild_documents
   SET name = $2,
       member_count = $3,
       doc = $4,
       version = version + 1,
       updated_at = NOW()
 WHERE guild_id = $1
   AND version = $5
`, g.ID, g.Name, g.MemberCount, doc, g.Version)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVersionConflict
	}
	g.Version++
	return nil
}

// DeleteChannelRecord borra el canal en el lugar, sin leer y reescribir todo
// el documento. Los demás mantienen el orden. Si no existe no es error.
func (r *GuildRepo) DeleteChannelRecord(ctx context.Context, guildID, channelID string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE guild_documents
   SET doc = jsonb_set(doc, '{voice_channels}', COALESCE((
         SELECT jsonb_agg(e.c ORDER BY e.n)
           FROM jsonb_array_elements(doc->'voice_channels') WITH ORDINALITY AS e(c, n)
          WHERE e.c->>'id' <> $2
       ), '[]'::jsonb)),
       version = version + 1,
       updated_at = NOW()
 WHERE guild_id = $1
   AND doc->'voice_channels' @> jsonb_build_array(jsonb_build_object('id', $2::text))
`, guildID, channelID)
	return err
}

// GuildSummary: vista por fila para la API de estado.
type GuildSummary struct {
	GuildID     string `json:"guild_id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
	Version     int64  `json:"version"`
}

func (r *GuildRepo) List(ctx context.Context) ([]GuildSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT guild_id, name, member_count, version
  FROM guild_documents
 ORDER BY guild_id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GuildSummary
	for rows.Next() {
		var s GuildSummary
		if err := rows.Scan(&s.GuildID, &s.Name, &s.MemberCount, &s.Version); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
