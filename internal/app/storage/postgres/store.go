// Package postgres implements the storage interfaces backed by PostgreSQL.
// Monetary amounts are stored as NUMERIC(78,0) and scanned through their
// decimal string form so no precision is lost.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/auction_house/internal/app/domain/auction"
	"github.com/R3E-Network/auction_house/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.AuctionStore = (*Store)(nil)
var _ storage.CreditStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables if they do not exist. The auctions
// sequence starts at 1 and is never reset, so identifiers survive deletion.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS auctions (
			id BIGSERIAL PRIMARY KEY,
			token_contract TEXT NOT NULL,
			token_id TEXT NOT NULL,
			duration_ns BIGINT NOT NULL,
			first_bid_time TIMESTAMPTZ,
			reserve_price NUMERIC(78,0) NOT NULL,
			curator TEXT NOT NULL,
			curator_fee_pct SMALLINT NOT NULL,
			token_owner TEXT NOT NULL,
			funds_recipient TEXT NOT NULL,
			currency TEXT NOT NULL,
			approved BOOLEAN NOT NULL,
			bidder TEXT NOT NULL,
			amount NUMERIC(78,0) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS wrapped_credits (
			id UUID PRIMARY KEY,
			auction_id BIGINT NOT NULL,
			recipient TEXT NOT NULL,
			currency TEXT NOT NULL,
			amount NUMERIC(78,0) NOT NULL,
			reason TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS wrapped_credits_recipient_idx
			ON wrapped_credits (recipient);
	`)
	return err
}

// --- AuctionStore -----------------------------------------------------------

func (s *Store) CreateAuction(ctx context.Context, a auction.Auction) (auction.Auction, error) {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO auctions (
			token_contract, token_id, duration_ns, first_bid_time,
			reserve_price, curator, curator_fee_pct, token_owner,
			funds_recipient, currency, approved, bidder, amount,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, a.TokenContract, a.TokenID, a.Duration.Nanoseconds(), toNullTime(a.FirstBidTime),
		amountText(a.ReservePrice), a.Curator, a.CuratorFeePct, a.TokenOwner,
		a.FundsRecipient, a.Currency, a.Approved, a.Bidder, amountText(a.Amount),
		a.CreatedAt, a.UpdatedAt)

	if err := row.Scan(&a.ID); err != nil {
		return auction.Auction{}, err
	}
	return a.Clone(), nil
}

func (s *Store) GetAuction(ctx context.Context, id uint64) (auction.Auction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, token_contract, token_id, duration_ns, first_bid_time,
			reserve_price, curator, curator_fee_pct, token_owner,
			funds_recipient, currency, approved, bidder, amount,
			created_at, updated_at
		FROM auctions
		WHERE id = $1
	`, id)

	a, err := scanAuction(row)
	if err == sql.ErrNoRows {
		return auction.Auction{}, auction.ErrAuctionNotFound
	}
	if err != nil {
		return auction.Auction{}, err
	}
	return a, nil
}

func (s *Store) UpdateAuction(ctx context.Context, a auction.Auction) (auction.Auction, error) {
	existing, err := s.GetAuction(ctx, a.ID)
	if err != nil {
		return auction.Auction{}, err
	}

	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE auctions
		SET duration_ns = $2, first_bid_time = $3, reserve_price = $4,
			approved = $5, bidder = $6, amount = $7, updated_at = $8
		WHERE id = $1
	`, a.ID, a.Duration.Nanoseconds(), toNullTime(a.FirstBidTime),
		amountText(a.ReservePrice), a.Approved, a.Bidder, amountText(a.Amount),
		a.UpdatedAt)
	if err != nil {
		return auction.Auction{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return auction.Auction{}, auction.ErrAuctionNotFound
	}
	return a.Clone(), nil
}

func (s *Store) DeleteAuction(ctx context.Context, id uint64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM auctions WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return auction.ErrAuctionNotFound
	}
	return nil
}

func (s *Store) ListAuctions(ctx context.Context) ([]auction.Auction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, token_contract, token_id, duration_ns, first_bid_time,
			reserve_price, curator, curator_fee_pct, token_owner,
			funds_recipient, currency, approved, bidder, amount,
			created_at, updated_at
		FROM auctions
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auction.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// --- CreditStore ------------------------------------------------------------

func (s *Store) CreateCredit(ctx context.Context, c auction.WrappedCredit) (auction.WrappedCredit, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	c.Amount = auction.CopyAmount(c.Amount)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wrapped_credits (id, auction_id, recipient, currency, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.AuctionID, c.Recipient, c.Currency, amountText(c.Amount), c.Reason, c.CreatedAt)
	if err != nil {
		return auction.WrappedCredit{}, err
	}
	return c, nil
}

func (s *Store) ListCredits(ctx context.Context, recipient string) ([]auction.WrappedCredit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, auction_id, recipient, currency, amount, reason, created_at
		FROM wrapped_credits
		WHERE recipient = $1
		ORDER BY created_at
	`, recipient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auction.WrappedCredit
	for rows.Next() {
		var (
			c      auction.WrappedCredit
			amount string
		)
		if err := rows.Scan(&c.ID, &c.AuctionID, &c.Recipient, &c.Currency, &amount, &c.Reason, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Amount, err = parseAmount(amount)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// --- helpers ----------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(row rowScanner) (auction.Auction, error) {
	var (
		a            auction.Auction
		durationNS   int64
		firstBidTime sql.NullTime
		reserve      string
		amount       string
	)
	err := row.Scan(&a.ID, &a.TokenContract, &a.TokenID, &durationNS, &firstBidTime,
		&reserve, &a.Curator, &a.CuratorFeePct, &a.TokenOwner,
		&a.FundsRecipient, &a.Currency, &a.Approved, &a.Bidder, &amount,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return auction.Auction{}, err
	}

	a.Duration = time.Duration(durationNS)
	if firstBidTime.Valid {
		a.FirstBidTime = firstBidTime.Time.UTC()
	}
	if a.ReservePrice, err = parseAmount(reserve); err != nil {
		return auction.Auction{}, err
	}
	if a.Amount, err = parseAmount(amount); err != nil {
		return auction.Auction{}, err
	}
	return a, nil
}

func amountText(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric amount %q", s)
	}
	return v, nil
}

func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
