package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"skupply-market-service/internal/domain/bid"
	"skupply-market-service/internal/domain/listing"
	"skupply-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// maxUpdateAttempts bounds the optimistic retry loop before the caller
// sees ErrTransactionFailed.
const maxUpdateAttempts = 5

// ListingRepository stores each listing as one versioned row with the
// bid list embedded as JSONB. Mutations are whole-aggregate: read the
// row, run the mutator against the decoded snapshot, and write it back
// conditioned on the version read. A lost race bumps the version first
// and the cycle re-runs.
type ListingRepository struct {
	conn *Connection
}

// NewListingRepository creates a new listing repository
func NewListingRepository(conn *Connection) *ListingRepository {
	return &ListingRepository{conn: conn}
}

// Create stores a new listing
func (r *ListingRepository) Create(ctx context.Context, l *listing.Listing) error {
	bids, err := json.Marshal(l.Bids)
	if err != nil {
		return fmt.Errorf("failed to encode bids: %w", err)
	}

	query := `
		INSERT INTO listings (id, seller_id, title, price, bidding_enabled, status, bids, accepted_bid_id, created_at, updated_at, sold_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
	`

	_, err = r.conn.GetDB().ExecContext(ctx, query,
		l.ID,
		l.SellerID,
		l.Title,
		l.Price,
		l.BiddingEnabled,
		l.Status,
		bids,
		l.AcceptedBidID,
		l.CreatedAt,
		l.UpdatedAt,
		l.SoldAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	return nil
}

// GetByID retrieves a listing by ID
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	l, _, err := r.getWithVersion(ctx, r.conn.GetDB(), id)
	return l, err
}

// UpdateListing runs fn against the latest snapshot and commits the
// result with a conditional write, retrying the whole cycle on conflict.
func (r *ListingRepository) UpdateListing(ctx context.Context, id uuid.UUID, fn func(*listing.Listing) error) (*listing.Listing, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var snapshot *listing.Listing
		var conflicted bool

		err := r.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
			l, version, err := r.getWithVersion(ctx, tx, id)
			if err != nil {
				return err
			}

			if err := fn(l); err != nil {
				return err
			}

			bids, err := json.Marshal(l.Bids)
			if err != nil {
				return fmt.Errorf("failed to encode bids: %w", err)
			}

			query := `
				UPDATE listings
				SET price = $2, bidding_enabled = $3, status = $4, bids = $5,
				    accepted_bid_id = $6, updated_at = $7, sold_at = $8, version = version + 1
				WHERE id = $1 AND version = $9
			`
			result, err := tx.ExecContext(ctx, query,
				l.ID,
				l.Price,
				l.BiddingEnabled,
				l.Status,
				bids,
				l.AcceptedBidID,
				l.UpdatedAt,
				l.SoldAt,
				version,
			)
			if err != nil {
				return fmt.Errorf("failed to update listing: %w", err)
			}

			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rowsAffected == 0 {
				// Another transaction committed between our read and write
				conflicted = true
				return nil
			}

			snapshot = l
			return nil
		})
		if err != nil {
			return nil, err
		}
		if conflicted {
			continue
		}
		return snapshot, nil
	}

	return nil, shared.ErrTransactionFailed
}

// ListWithPendingBids retrieves the seller's biddable listings holding
// at least one pending bid.
func (r *ListingRepository) ListWithPendingBids(ctx context.Context, sellerID uuid.UUID) ([]*listing.Listing, error) {
	query := `
		SELECT id, seller_id, title, price, bidding_enabled, status, bids, accepted_bid_id, created_at, updated_at, sold_at
		FROM listings
		WHERE seller_id = $1
		  AND bidding_enabled = TRUE
		  AND status <> 'sold'
		  AND bids @> '[{"status": "pending"}]'
		ORDER BY updated_at DESC
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings with pending bids: %w", err)
	}
	defer rows.Close()

	var listings []*listing.Listing
	for rows.Next() {
		l, err := scanListing(rows.Scan)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	return listings, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *ListingRepository) getWithVersion(ctx context.Context, q queryRower, id uuid.UUID) (*listing.Listing, int64, error) {
	query := `
		SELECT id, seller_id, title, price, bidding_enabled, status, bids, accepted_bid_id, created_at, updated_at, sold_at, version
		FROM listings
		WHERE id = $1
	`

	var version int64
	row := q.QueryRowContext(ctx, query, id)
	l, err := scanListing(func(dest ...any) error {
		return row.Scan(append(dest, &version)...)
	})
	if err != nil {
		return nil, 0, err
	}
	return l, version, nil
}

func scanListing(scan func(dest ...any) error) (*listing.Listing, error) {
	var l listing.Listing
	var bids []byte
	var acceptedBidID uuid.NullUUID
	var soldAt sql.NullTime

	err := scan(
		&l.ID,
		&l.SellerID,
		&l.Title,
		&l.Price,
		&l.BiddingEnabled,
		&l.Status,
		&bids,
		&acceptedBidID,
		&l.CreatedAt,
		&l.UpdatedAt,
		&soldAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}

	if len(bids) > 0 {
		if err := json.Unmarshal(bids, &l.Bids); err != nil {
			return nil, fmt.Errorf("failed to decode bids: %w", err)
		}
	}
	if l.Bids == nil {
		l.Bids = []*bid.Bid{}
	}
	if acceptedBidID.Valid {
		id := acceptedBidID.UUID
		l.AcceptedBidID = &id
	}
	if soldAt.Valid {
		t := soldAt.Time
		l.SoldAt = &t
	}

	return &l, nil
}
