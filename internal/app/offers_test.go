package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"skupply-market-service/internal/adapters/memory"
	"skupply-market-service/internal/domain/bid"
	"skupply-market-service/internal/domain/listing"
	"skupply-market-service/internal/domain/shared"
	"skupply-market-service/internal/ports/inbound"
	"skupply-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type deliveredNotice struct {
	recipient string
	notice    outbound.Notice
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []deliveredNotice
}

func (f *fakeNotifier) Notify(ctx context.Context, recipient string, n outbound.Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, deliveredNotice{recipient: recipient, notice: n})
	return nil
}

func (f *fakeNotifier) byKind(kind outbound.NoticeKind) []deliveredNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []deliveredNotice
	for _, n := range f.notices {
		if n.notice.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type offerFixture struct {
	repo     *memory.ListingRepository
	store    *memory.ChallengeStore
	mailer   *fakeMailer
	notifier *fakeNotifier
	verify   *VerificationService
	offers   *OfferService
	now      time.Time
}

func newOfferFixture() *offerFixture {
	f := &offerFixture{
		repo:     memory.NewListingRepository(),
		store:    memory.NewChallengeStore(),
		mailer:   &fakeMailer{},
		notifier: &fakeNotifier{},
		now:      time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.verify = NewVerificationService(VerificationServiceParams{
		Store:  f.store,
		Mailer: f.mailer,
		Clock:  clock,
		Logger: zerolog.Nop(),
	})
	f.offers = NewOfferService(OfferServiceParams{
		Listings: f.repo,
		Verifier: f.verify,
		Notifier: f.notifier,
		Clock:    clock,
		Logger:   zerolog.Nop(),
	})
	return f
}

func (f *offerFixture) seedListing(t *testing.T, sellerID uuid.UUID) *listing.Listing {
	t.Helper()
	l := &listing.Listing{
		ID:             uuid.New(),
		SellerID:       sellerID,
		Title:          "Vintage desk lamp",
		Price:          80,
		BiddingEnabled: true,
		Status:         listing.StatusAvailable,
		CreatedAt:      f.now,
		UpdatedAt:      f.now,
	}
	if err := f.repo.Create(context.Background(), l); err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}
	return l
}

func (f *offerFixture) reload(t *testing.T, id uuid.UUID) *listing.Listing {
	t.Helper()
	l, err := f.repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to reload listing: %v", err)
	}
	return l
}

func newActor(role shared.Role) *shared.Actor {
	id := uuid.New()
	return &shared.Actor{ID: id, Name: "actor-" + id.String()[:8], Role: role}
}

// checkInvariants audits the aggregate-wide consistency rules.
func checkInvariants(t *testing.T, l *listing.Listing) {
	t.Helper()

	seen := make(map[uuid.UUID]bool)
	var accepted *bid.Bid
	for _, b := range l.Bids {
		if seen[b.ID] {
			t.Errorf("duplicate bid id %s", b.ID)
		}
		seen[b.ID] = true
		if b.Status == bid.StatusAccepted {
			if accepted != nil {
				t.Errorf("more than one accepted bid on listing %s", l.ID)
			}
			accepted = b
		}
		if b.Bidder.IsSeller(l.SellerID) {
			t.Errorf("bid %s placed by the seller", b.ID)
		}
	}

	if accepted != nil {
		if l.Status != listing.StatusSold {
			t.Errorf("accepted bid but listing status is %q", l.Status)
		}
		if l.AcceptedBidID == nil || *l.AcceptedBidID != accepted.ID {
			t.Errorf("acceptedBidId does not match the accepted bid")
		}
		if l.Price != accepted.Amount {
			t.Errorf("listing price %v != accepted amount %v", l.Price, accepted.Amount)
		}
	}
}

func TestPlaceBidAndAcceptFlow(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	buyerA := newActor(shared.RoleUser)
	buyerB := newActor(shared.RoleUser)
	l := f.seedListing(t, seller.ID)

	bidA, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: l.ID, Amount: 100, Actor: buyerA})
	if err != nil {
		t.Fatalf("buyer A bid failed: %v", err)
	}
	bidB, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: l.ID, Amount: 150, Actor: buyerB})
	if err != nil {
		t.Fatalf("buyer B bid failed: %v", err)
	}

	// B outbid A: exactly one outbid notice, addressed to A
	outbids := f.notifier.byKind(outbound.NoticeOutbid)
	if len(outbids) != 1 {
		t.Fatalf("expected 1 outbid notice, got %d", len(outbids))
	}
	if want := buyerA.Ref().NotifyKey(); outbids[0].recipient != want {
		t.Errorf("outbid notice sent to %s, want %s", outbids[0].recipient, want)
	}
	if sellers := f.notifier.byKind(outbound.NoticeNewOffer); len(sellers) != 2 {
		t.Errorf("expected 2 new-offer notices to the seller, got %d", len(sellers))
	}

	accepted, err := f.offers.AcceptBid(ctx, inbound.AcceptBidRequest{ListingID: l.ID, BidID: bidB.ID, Actor: seller})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.ID != bidB.ID {
		t.Errorf("accepted wrong bid")
	}

	got := f.reload(t, l.ID)
	checkInvariants(t, got)
	if got.Status != listing.StatusSold {
		t.Errorf("expected listing sold, got %q", got.Status)
	}
	if got.Price != 150 {
		t.Errorf("expected price 150, got %v", got.Price)
	}
	if got.FindBid(bidA.ID).Status != bid.StatusRejected {
		t.Errorf("expected A's bid rejected, got %q", got.FindBid(bidA.ID).Status)
	}
	if got.SoldAt == nil {
		t.Errorf("expected sale timestamp")
	}

	acceptNotices := f.notifier.byKind(outbound.NoticeOfferAccepted)
	if len(acceptNotices) != 1 || acceptNotices[0].recipient != buyerB.Ref().NotifyKey() {
		t.Errorf("expected accept notice to buyer B, got %+v", acceptNotices)
	}
}

func TestAcceptBidSecondCallLeavesStateUnchanged(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	buyer := newActor(shared.RoleUser)
	l := f.seedListing(t, seller.ID)

	placed, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: l.ID, Amount: 90, Actor: buyer})
	if err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	if _, err := f.offers.AcceptBid(ctx, inbound.AcceptBidRequest{ListingID: l.ID, BidID: placed.ID, Actor: seller}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	before := f.reload(t, l.ID)

	_, err = f.offers.AcceptBid(ctx, inbound.AcceptBidRequest{ListingID: l.ID, BidID: placed.ID, Actor: seller})
	if !errors.Is(err, shared.ErrBidNotPending) {
		t.Fatalf("expected ErrBidNotPending, got %v", err)
	}

	after := f.reload(t, l.ID)
	if after.Status != before.Status || after.Price != before.Price ||
		*after.AcceptedBidID != *before.AcceptedBidID {
		t.Errorf("second accept mutated the listing")
	}
	checkInvariants(t, after)
}

func TestPlaceBidValidation(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	buyer := newActor(shared.RoleUser)
	l := f.seedListing(t, seller.ID)

	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: l.ID, Amount: 0, Actor: buyer}); !errors.Is(err, shared.ErrInvalidAmount) {
		t.Errorf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: uuid.New(), Amount: 50, Actor: buyer}); !errors.Is(err, shared.ErrListingNotFound) {
		t.Errorf("unknown listing: expected ErrListingNotFound, got %v", err)
	}
	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: l.ID, Amount: 50, Actor: seller}); !errors.Is(err, shared.ErrSelfBidNotAllowed) {
		t.Errorf("self bid: expected ErrSelfBidNotAllowed, got %v", err)
	}

	disabled := f.seedListing(t, seller.ID)
	if _, err := f.repo.UpdateListing(ctx, disabled.ID, func(l *listing.Listing) error {
		l.BiddingEnabled = false
		return nil
	}); err != nil {
		t.Fatalf("failed to disable bidding: %v", err)
	}
	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: disabled.ID, Amount: 50, Actor: buyer}); !errors.Is(err, shared.ErrListingNotBiddable) {
		t.Errorf("disabled listing: expected ErrListingNotBiddable, got %v", err)
	}

	sold := f.seedListing(t, seller.ID)
	placed, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: sold.ID, Amount: 60, Actor: buyer})
	if err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	if _, err := f.offers.AcceptBid(ctx, inbound.AcceptBidRequest{ListingID: sold.ID, BidID: placed.ID, Actor: seller}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: sold.ID, Amount: 70, Actor: buyer}); !errors.Is(err, shared.ErrListingAlreadySold) {
		t.Errorf("sold listing: expected ErrListingAlreadySold, got %v", err)
	}
}

func TestPlaceBidChecksExistenceBeforeAmount(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()

	// An unknown listing wins over a bad amount in the reported error
	_, err := f.offers.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		ListingID: uuid.New(),
		Amount:    0,
		Actor:     newActor(shared.RoleUser),
	})
	if !errors.Is(err, shared.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestGuestCodeSurvivesDoomedBid(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	buyer := newActor(shared.RoleUser)
	l := f.seedListing(t, seller.ID)
	email := "careful@example.com"

	if err := f.verify.RequestCode(ctx, email); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	challenge, err := f.store.Get(ctx, email)
	if err != nil {
		t.Fatalf("expected stored challenge: %v", err)
	}

	// A request that cannot succeed must not burn the single-use code
	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{
		ListingID:  uuid.New(),
		Amount:     30,
		GuestEmail: email,
		GuestCode:  challenge.Code,
	}); !errors.Is(err, shared.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{
		ListingID:  l.ID,
		Amount:     0,
		GuestEmail: email,
		GuestCode:  challenge.Code,
	}); !errors.Is(err, shared.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	sold := f.seedListing(t, seller.ID)
	placed, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: sold.ID, Amount: 20, Actor: buyer})
	if err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	if _, err := f.offers.AcceptBid(ctx, inbound.AcceptBidRequest{ListingID: sold.ID, BidID: placed.ID, Actor: seller}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{
		ListingID:  sold.ID,
		Amount:     30,
		GuestEmail: email,
		GuestCode:  challenge.Code,
	}); !errors.Is(err, shared.ErrListingAlreadySold) {
		t.Fatalf("expected ErrListingAlreadySold, got %v", err)
	}

	// The same code still authorizes a bid on a valid listing
	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{
		ListingID:  l.ID,
		Amount:     30,
		GuestEmail: email,
		GuestCode:  challenge.Code,
	}); err != nil {
		t.Fatalf("guest bid failed after earlier doomed attempts: %v", err)
	}
}

func TestRejectBidLeavesOthersPending(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	buyerA := newActor(shared.RoleUser)
	buyerB := newActor(shared.RoleUser)
	l := f.seedListing(t, seller.ID)

	bidA, _ := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: l.ID, Amount: 100, Actor: buyerA})
	bidB, _ := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: l.ID, Amount: 120, Actor: buyerB})

	rejected, err := f.offers.RejectBid(ctx, inbound.RejectBidRequest{ListingID: l.ID, BidID: bidA.ID, Actor: seller})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.ID != bidA.ID {
		t.Errorf("rejected wrong bid")
	}

	got := f.reload(t, l.ID)
	if got.FindBid(bidA.ID).Status != bid.StatusRejected {
		t.Errorf("expected A's bid rejected")
	}
	if got.FindBid(bidB.ID).Status != bid.StatusPending {
		t.Errorf("expected B's bid still pending")
	}
	if got.Status != listing.StatusAvailable {
		t.Errorf("single reject must not change the listing status")
	}

	notices := f.notifier.byKind(outbound.NoticeOfferRejected)
	if len(notices) != 1 || notices[0].recipient != buyerA.Ref().NotifyKey() {
		t.Errorf("expected reject notice to buyer A, got %+v", notices)
	}
	checkInvariants(t, got)
}

func TestAcceptRejectAuthorization(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	buyer := newActor(shared.RoleUser)
	stranger := newActor(shared.RoleUser)
	staff := newActor(shared.RoleAdmin)
	l := f.seedListing(t, seller.ID)

	placed, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: l.ID, Amount: 100, Actor: buyer})
	if err != nil {
		t.Fatalf("bid failed: %v", err)
	}

	if _, err := f.offers.RejectBid(ctx, inbound.RejectBidRequest{ListingID: l.ID, BidID: placed.ID, Actor: stranger}); !errors.Is(err, shared.ErrUnauthorized) {
		t.Errorf("stranger reject: expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.offers.AcceptBid(ctx, inbound.AcceptBidRequest{ListingID: l.ID, BidID: placed.ID, Actor: stranger}); !errors.Is(err, shared.ErrUnauthorized) {
		t.Errorf("stranger accept: expected ErrUnauthorized, got %v", err)
	}

	// Staff may accept on the seller's behalf
	if _, err := f.offers.AcceptBid(ctx, inbound.AcceptBidRequest{ListingID: l.ID, BidID: placed.ID, Actor: staff}); err != nil {
		t.Errorf("staff accept should succeed, got %v", err)
	}
}

func TestResetOffers(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	staff := newActor(shared.RoleSuperAdmin)
	l := f.seedListing(t, seller.ID)

	var bids []*bid.Bid
	for i := 0; i < 4; i++ {
		buyer := newActor(shared.RoleUser)
		placed, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: l.ID, Amount: float64(50 + 10*i), Actor: buyer})
		if err != nil {
			t.Fatalf("bid %d failed: %v", i, err)
		}
		bids = append(bids, placed)
	}
	if _, err := f.offers.RejectBid(ctx, inbound.RejectBidRequest{ListingID: l.ID, BidID: bids[0].ID, Actor: seller}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	// Staff override is deliberately not honored for the bulk reset
	if err := f.offers.ResetOffers(ctx, inbound.ResetOffersRequest{ListingID: l.ID, Actor: staff}); !errors.Is(err, shared.ErrUnauthorized) {
		t.Fatalf("staff reset: expected ErrUnauthorized, got %v", err)
	}

	if err := f.offers.ResetOffers(ctx, inbound.ResetOffersRequest{ListingID: l.ID, Actor: seller}); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	got := f.reload(t, l.ID)
	for _, b := range got.Bids {
		if b.Status != bid.StatusArchived {
			t.Errorf("bid %s: expected archived, got %q", b.ID, b.Status)
		}
	}

	// Only the three still-pending bidders are told their offer was cancelled
	cancelled := f.notifier.byKind(outbound.NoticeOffersCancelled)
	if len(cancelled) != 3 {
		t.Errorf("expected 3 cancellation notices, got %d", len(cancelled))
	}

	// Archived bids can no longer be accepted
	if _, err := f.offers.AcceptBid(ctx, inbound.AcceptBidRequest{ListingID: l.ID, BidID: bids[1].ID, Actor: seller}); !errors.Is(err, shared.ErrBidNotPending) {
		t.Errorf("accept after reset: expected ErrBidNotPending, got %v", err)
	}
	checkInvariants(t, got)
}

func TestGuestBidFlow(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	l := f.seedListing(t, seller.ID)
	email := "guest@example.com"

	if err := f.verify.RequestCode(ctx, email); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	challenge, err := f.store.Get(ctx, email)
	if err != nil {
		t.Fatalf("expected stored challenge: %v", err)
	}

	placed, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{
		ListingID:  l.ID,
		Amount:     75,
		GuestEmail: email,
		GuestCode:  challenge.Code,
	})
	if err != nil {
		t.Fatalf("guest bid failed: %v", err)
	}
	if placed.Bidder.Kind != shared.IdentityGuest {
		t.Errorf("expected guest bidder, got %q", placed.Bidder.Kind)
	}
	if placed.Bidder.Name != "guest" {
		t.Errorf("expected display name from email local part, got %q", placed.Bidder.Name)
	}

	// The consumed challenge cannot authorize a second bid
	_, err = f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{
		ListingID:  l.ID,
		Amount:     85,
		GuestEmail: email,
		GuestCode:  challenge.Code,
	})
	if !errors.Is(err, shared.ErrVerificationRequired) {
		t.Errorf("expected ErrVerificationRequired, got %v", err)
	}

	// No code at all
	_, err = f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: l.ID, Amount: 85, GuestEmail: email})
	if !errors.Is(err, shared.ErrVerificationRequired) {
		t.Errorf("expected ErrVerificationRequired without code, got %v", err)
	}
}

func TestGuestRecognizedAcrossBids(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	l := f.seedListing(t, seller.ID)
	email := "repeat@example.com"

	guestBid := func(amount float64) *bid.Bid {
		t.Helper()
		if err := f.verify.RequestCode(ctx, email); err != nil {
			t.Fatalf("RequestCode failed: %v", err)
		}
		c, err := f.store.Get(ctx, email)
		if err != nil {
			t.Fatalf("expected stored challenge: %v", err)
		}
		placed, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{
			ListingID:  l.ID,
			Amount:     amount,
			GuestEmail: email,
			GuestCode:  c.Code,
		})
		if err != nil {
			t.Fatalf("guest bid failed: %v", err)
		}
		return placed
	}

	first := guestBid(50)
	second := guestBid(70)

	if !first.Bidder.Same(second.Bidder) {
		t.Errorf("same email should resolve to the same guest identity")
	}
	// Raising your own offer is not an outbid event
	if outbids := f.notifier.byKind(outbound.NoticeOutbid); len(outbids) != 0 {
		t.Errorf("expected no outbid notice for a self-raise, got %d", len(outbids))
	}
}

func TestOutbidNotificationSkipsTies(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	buyerA := newActor(shared.RoleUser)
	buyerB := newActor(shared.RoleUser)
	l := f.seedListing(t, seller.ID)

	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: l.ID, Amount: 100, Actor: buyerA}); err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: l.ID, Amount: 100, Actor: buyerB}); err != nil {
		t.Fatalf("tie bid failed: %v", err)
	}

	if outbids := f.notifier.byKind(outbound.NoticeOutbid); len(outbids) != 0 {
		t.Errorf("a tie is not an outbid, got %d notices", len(outbids))
	}
}

func TestConcurrentPlaceBids(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	l := f.seedListing(t, seller.ID)

	const bidders = 20
	var wg sync.WaitGroup
	errs := make(chan error, bidders)

	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			buyer := newActor(shared.RoleUser)
			_, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{
				ListingID: l.ID,
				Amount:    float64(10 + n),
				Actor:     buyer,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, shared.ErrTransactionFailed) {
			t.Errorf("unexpected error: %v", err)
		}
	}

	got := f.reload(t, l.ID)
	if len(got.Bids) != succeeded {
		t.Errorf("lost update: %d bids stored for %d successful calls", len(got.Bids), succeeded)
	}
	checkInvariants(t, got)
}

func TestListingsWithPendingOffers(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	buyer := newActor(shared.RoleUser)

	withBid := f.seedListing(t, seller.ID)
	f.seedListing(t, seller.ID) // no bids
	otherSellers := f.seedListing(t, uuid.New())

	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: withBid.ID, Amount: 40, Actor: buyer}); err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{ListingID: otherSellers.ID, Amount: 40, Actor: buyer}); err != nil {
		t.Fatalf("bid failed: %v", err)
	}

	listings, err := f.offers.ListingsWithPendingOffers(ctx, seller)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing with pending offers, got %d", len(listings))
	}
	if listings[0].ID != withBid.ID {
		t.Errorf("wrong listing returned")
	}
}

func TestPlaceBidUniqueIDsUnderLoad(t *testing.T) {
	t.Parallel()
	f := newOfferFixture()
	ctx := context.Background()

	seller := newActor(shared.RoleUser)
	l := f.seedListing(t, seller.ID)
	buyer := newActor(shared.RoleUser)

	for i := 0; i < 10; i++ {
		if _, err := f.offers.PlaceBid(ctx, inbound.PlaceBidRequest{
			ListingID: l.ID,
			Amount:    float64(10 * (i + 1)),
			Actor:     buyer,
		}); err != nil {
			t.Fatalf("bid %d failed: %v", i, err)
		}
	}

	got := f.reload(t, l.ID)
	seen := make(map[uuid.UUID]bool)
	for _, b := range got.Bids {
		if seen[b.ID] {
			t.Fatalf("duplicate bid id %s", b.ID)
		}
		seen[b.ID] = true
	}
	if len(got.Bids) != 10 {
		t.Errorf("expected 10 bids, got %d", len(got.Bids))
	}

	// Bids are stored in commit order
	for i := 1; i < len(got.Bids); i++ {
		if got.Bids[i].CreatedAt.Before(got.Bids[i-1].CreatedAt) {
			t.Errorf("bid %d committed before its predecessor", i)
		}
	}
}
