package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/R3E-Network/auction_house/internal/app/domain/auction"
)

func TestAuctionCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.CreateAuction(ctx, auction.Auction{
		TokenContract: "0xmedia",
		TokenID:       "1",
		Duration:      time.Hour,
		ReservePrice:  big.NewInt(100),
	})
	if err != nil {
		t.Fatalf("CreateAuction: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("first id = %d, want 1", created.ID)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}

	got, err := s.GetAuction(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAuction: %v", err)
	}
	// Mutating the returned record must not touch the stored one.
	got.ReservePrice.SetInt64(999)
	again, _ := s.GetAuction(ctx, created.ID)
	if again.ReservePrice.Int64() != 100 {
		t.Fatal("store shares big.Int storage with callers")
	}

	got.ReservePrice = big.NewInt(250)
	updated, err := s.UpdateAuction(ctx, got)
	if err != nil {
		t.Fatalf("UpdateAuction: %v", err)
	}
	if updated.ReservePrice.Int64() != 250 {
		t.Fatalf("reserve after update = %s", updated.ReservePrice)
	}

	if err := s.DeleteAuction(ctx, created.ID); err != nil {
		t.Fatalf("DeleteAuction: %v", err)
	}
	if _, err := s.GetAuction(ctx, created.ID); !errors.Is(err, auction.ErrAuctionNotFound) {
		t.Fatalf("get after delete = %v, want ErrAuctionNotFound", err)
	}
	if err := s.DeleteAuction(ctx, created.ID); !errors.Is(err, auction.ErrAuctionNotFound) {
		t.Fatalf("double delete = %v, want ErrAuctionNotFound", err)
	}
}

func TestNotFoundPaths(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetAuction(ctx, 7); !errors.Is(err, auction.ErrAuctionNotFound) {
		t.Fatalf("get unknown = %v", err)
	}
	if _, err := s.UpdateAuction(ctx, auction.Auction{ID: 7}); !errors.Is(err, auction.ErrAuctionNotFound) {
		t.Fatalf("update unknown = %v", err)
	}
}

func TestIdentifiersAdvancePastDeletions(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, _ := s.CreateAuction(ctx, auction.Auction{})
	if err := s.DeleteAuction(ctx, a.ID); err != nil {
		t.Fatalf("DeleteAuction: %v", err)
	}
	b, _ := s.CreateAuction(ctx, auction.Auction{})
	if b.ID != a.ID+1 {
		t.Fatalf("id after delete = %d, want %d", b.ID, a.ID+1)
	}
}

func TestListAuctionsOrdered(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 3; i++ {
		if _, err := s.CreateAuction(ctx, auction.Auction{}); err != nil {
			t.Fatalf("CreateAuction: %v", err)
		}
	}
	list, err := s.ListAuctions(ctx)
	if err != nil {
		t.Fatalf("ListAuctions: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for i, a := range list {
		if a.ID != uint64(i+1) {
			t.Fatalf("list[%d].ID = %d", i, a.ID)
		}
	}
}

func TestCredits(t *testing.T) {
	ctx := context.Background()
	s := New()

	rec, err := s.CreateCredit(ctx, auction.WrappedCredit{
		AuctionID: 3,
		Recipient: "0xbidder",
		Amount:    big.NewInt(40),
		Reason:    "payment rejected",
	})
	if err != nil {
		t.Fatalf("CreateCredit: %v", err)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Fatal("credit record not stamped")
	}

	list, err := s.ListCredits(ctx, "0xbidder")
	if err != nil {
		t.Fatalf("ListCredits: %v", err)
	}
	if len(list) != 1 || list[0].Amount.Int64() != 40 {
		t.Fatalf("credits = %+v", list)
	}

	empty, err := s.ListCredits(ctx, "0xother")
	if err != nil || len(empty) != 0 {
		t.Fatalf("credits for stranger = %v, %v", empty, err)
	}
}
