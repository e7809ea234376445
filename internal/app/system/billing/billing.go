// Package billing wraps the Stripe API surface the app uses: checkout
// sessions for subscriptions, billing-portal sessions, payment intents for
// one-off donations, and webhook signature verification.
package billing

import (
	"fmt"

	"github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Metadata keys attached to payment intents so the webhook can route a
// succeeded payment back to its campaign and donor.
const (
	MetaCampaignID = "campaign_id"
	MetaDonorID    = "donor_id"
	MetaAnonymous  = "anonymous"
	MetaMessage    = "message"
)

// Config holds the provider credentials and product settings.
type Config struct {
	SecretKey       string // sk_... API key
	WebhookSecret   string // whsec_... endpoint signing secret
	PremiumPriceID  string // recurring price for the premium tier
	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
}

// Client is the billing-provider client. All calls go to Stripe's hosted
// API; nothing is persisted locally.
type Client struct {
	cfg Config
}

// New configures the Stripe SDK and returns a Client.
func New(cfg Config) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{cfg: cfg}
}

// EnsureCustomer returns the user's Stripe customer ID, creating the
// customer on first use.
func (c *Client) EnsureCustomer(existingID, email, name, userID string) (string, error) {
	if existingID != "" {
		return existingID, nil
	}
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.AddMetadata("user_id", userID)
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession starts a subscription checkout for the premium
// tier. The user's ID rides along as the client reference so the
// completion webhook can find the account.
func (c *Client) CreateCheckoutSession(customerID, userID string) (url string, err error) {
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.cfg.PremiumPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(userID),
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePortalSession opens the hosted billing portal for a customer.
func (c *Client) CreatePortalSession(customerID string) (url string, err error) {
	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(c.cfg.PortalReturnURL),
	})
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

// DonationIntent describes a one-off donation payment to create.
type DonationIntent struct {
	Amount     int64 // smallest currency unit
	CampaignID string
	DonorID    string
	Anonymous  bool
	Message    string
}

// CreatePaymentIntent creates a payment intent for a donation and returns
// its id and client secret.
func (c *Client) CreatePaymentIntent(d DonationIntent) (id, clientSecret string, err error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(d.Amount),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata(MetaCampaignID, d.CampaignID)
	params.AddMetadata(MetaDonorID, d.DonorID)
	if d.Anonymous {
		params.AddMetadata(MetaAnonymous, "true")
	}
	if d.Message != "" {
		params.AddMetadata(MetaMessage, d.Message)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ID, pi.ClientSecret, nil
}

// GetPaymentIntent fetches a payment intent by id so callers can
// confirm its status server side instead of trusting the client.
func (c *Client) GetPaymentIntent(id string) (*stripe.PaymentIntent, error) {
	pi, err := paymentintent.Get(id, nil)
	if err != nil {
		return nil, fmt.Errorf("get payment intent: %w", err)
	}
	return pi, nil
}

// VerifyWebhook checks the provider signature over the raw payload and
// returns the parsed event. Payloads that fail verification must not be
// trusted.
func (c *Client) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.cfg.WebhookSecret)
}
