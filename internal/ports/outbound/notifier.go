package outbound

import "context"

// NoticeKind classifies a notification for client-side rendering.
type NoticeKind string

const (
	NoticeNewOffer        NoticeKind = "new_offer"
	NoticeOutbid          NoticeKind = "outbid"
	NoticeOfferAccepted   NoticeKind = "offer_accepted"
	NoticeOfferRejected   NoticeKind = "offer_rejected"
	NoticeOffersCancelled NoticeKind = "offers_cancelled"
)

// Notice is one event notification addressed to a single recipient.
type Notice struct {
	Kind     NoticeKind `json:"kind"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	LinkPath string     `json:"link_path,omitempty"`
}

// Notifier delivers notices best-effort, at-least-once. It is invoked
// only after a transaction has committed; a delivery failure never
// changes the outcome of the operation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, recipient string, n Notice) error
}
