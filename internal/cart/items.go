package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"clearcart/internal/catalog"
)

// Add appends assets to the cart. Existing identifiers are updated in place
// and keep their cart position.
func (s *Store) Add(ctx context.Context, assets ...catalog.Asset) error {
	ctx = ensureContext(ctx)
	if len(assets) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin add tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var maxPos sql.NullInt64
		if err := tx.QueryRowContext(ctx, "SELECT MAX(position) FROM cart_items").Scan(&maxPos); err != nil {
			return fmt.Errorf("read cart position: %w", err)
		}
		pos := maxPos.Int64
		now := time.Now().UTC().Format(time.RFC3339)

		for _, asset := range assets {
			id := strings.TrimSpace(asset.ID)
			if id == "" {
				return errors.New("asset id must not be empty")
			}
			pos++
			_, err := tx.ExecContext(ctx, `
INSERT INTO cart_items (asset_id, display_name, ready_to_use, verdict, position, added_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(asset_id) DO UPDATE SET
    display_name = excluded.display_name,
    ready_to_use = excluded.ready_to_use,
    verdict = excluded.verdict`,
				id, asset.DisplayName, boolToInt(asset.ReadyToUse), string(asset.Verdict), pos, now)
			if err != nil {
				return fmt.Errorf("insert cart item %q: %w", id, err)
			}
		}
		return tx.Commit()
	})
}

// Snapshot returns the current cart contents as an immutable snapshot in
// cart order.
func (s *Store) Snapshot(ctx context.Context) (catalog.Snapshot, error) {
	ctx = ensureContext(ctx)
	var assets []catalog.Asset
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx,
			"SELECT asset_id, display_name, ready_to_use, verdict FROM cart_items ORDER BY position")
		if err != nil {
			return fmt.Errorf("query cart items: %w", err)
		}
		defer rows.Close()

		assets = assets[:0]
		for rows.Next() {
			var (
				asset catalog.Asset
				ready int
				verd  string
			)
			if err := rows.Scan(&asset.ID, &asset.DisplayName, &ready, &verd); err != nil {
				return fmt.Errorf("scan cart item: %w", err)
			}
			asset.ReadyToUse = ready != 0
			asset.Verdict = catalog.ParseVerdict(verd)
			assets = append(assets, asset)
		}
		return rows.Err()
	})
	if err != nil {
		return catalog.Snapshot{}, err
	}
	return catalog.NewSnapshot(assets), nil
}

// RemoveAssets deletes the listed identifiers from the cart. Unknown
// identifiers are ignored; all other rows are untouched.
func (s *Store) RemoveAssets(ctx context.Context, ids []string) error {
	ctx = ensureContext(ctx)
	if len(ids) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin remove tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE asset_id = ?", id); err != nil {
				return fmt.Errorf("delete cart item %q: %w", id, err)
			}
		}
		return tx.Commit()
	})
}

// SetVerdict records the authority's verdict for an asset already in the cart.
func (s *Store) SetVerdict(ctx context.Context, id string, verdict catalog.Verdict) error {
	return s.execWithRetry(ensureContext(ctx),
		"UPDATE cart_items SET verdict = ? WHERE asset_id = ?", string(verdict), id)
}

// AddAuthorized accumulates identifiers cleared by a check cycle so later
// cycles skip them.
func (s *Store) AddAuthorized(ctx context.Context, ids []string) error {
	ctx = ensureContext(ctx)
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin authorize tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		for _, id := range ids {
			_, err := tx.ExecContext(ctx, `
INSERT INTO authorized_assets (asset_id, authorized_at) VALUES (?, ?)
ON CONFLICT(asset_id) DO NOTHING`, id, now)
			if err != nil {
				return fmt.Errorf("record authorization %q: %w", id, err)
			}
		}
		return tx.Commit()
	})
}

// AuthorizedIDs returns the accumulated set of cleared identifiers.
func (s *Store) AuthorizedIDs(ctx context.Context) (map[string]struct{}, error) {
	ctx = ensureContext(ctx)
	ids := make(map[string]struct{})
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, "SELECT asset_id FROM authorized_assets")
		if err != nil {
			return fmt.Errorf("query authorized assets: %w", err)
		}
		defer rows.Close()

		clear(ids)
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("scan authorized asset: %w", err)
			}
			ids[id] = struct{}{}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Clear empties the cart and the accumulated authorization set.
func (s *Store) Clear(ctx context.Context) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin clear tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items"); err != nil {
			return fmt.Errorf("clear cart items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM authorized_assets"); err != nil {
			return fmt.Errorf("clear authorizations: %w", err)
		}
		return tx.Commit()
	})
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
