package stripewebhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"membership-app/internal/billing"
	"membership-app/internal/domain/memberships"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

// stubLedger records writes so tests can assert nothing reached the ledger.
type stubLedger struct {
	writes int
}

func (s *stubLedger) Transaction(ctx context.Context, fn func(billing.Ledger) error) error {
	return fn(s)
}
func (s *stubLedger) MembershipExists(context.Context, string) (bool, error) { return false, nil }
func (s *stubLedger) InsertMembership(context.Context, *memberships.Membership) error {
	s.writes++
	return nil
}
func (s *stubLedger) CancelCurrentMemberships(context.Context, uint, time.Time) (int64, error) {
	s.writes++
	return 0, nil
}
func (s *stubLedger) ApplySubscriptionUpdate(context.Context, string, billing.MembershipUpdate) (int64, error) {
	s.writes++
	return 0, nil
}
func (s *stubLedger) MarkMembershipCancelled(context.Context, string, time.Time) (int64, error) {
	s.writes++
	return 0, nil
}
func (s *stubLedger) MarkMembershipPendingPayment(context.Context, string) (int64, error) {
	s.writes++
	return 0, nil
}
func (s *stubLedger) PaymentExists(context.Context, string) (bool, error) { return false, nil }
func (s *stubLedger) InsertPayment(context.Context, *memberships.Payment) error {
	s.writes++
	return nil
}
func (s *stubLedger) MemberIDForCustomer(context.Context, string) (uint, bool, error) {
	return 0, false, nil
}
func (s *stubLedger) CustomerIDForMember(context.Context, uint) (string, bool, error) {
	return "", false, nil
}
func (s *stubLedger) SaveCustomerMapping(ctx context.Context, memberID uint, customerID string) (string, error) {
	s.writes++
	return customerID, nil
}

func newTestRouter(ledger *stubLedger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(testSecret, billing.NewReconciler(ledger, nil))
	r := gin.New()
	r.POST("/webhook", h.HandleWebhook)
	return r
}

// signPayload builds a Stripe-Signature header for payload: HMAC-SHA256 of
// "<ts>.<payload>" keyed by the endpoint secret.
func signPayload(payload, secret string, at time.Time) string {
	ts := fmt.Sprint(at.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + payload))
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func postEvent(t *testing.T, r *gin.Engine, payload, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	ledger := &stubLedger{}
	r := newTestRouter(ledger)

	payload := `{"id": "evt_1", "type": "invoice.paid", "data": {"object": {"id": "in_1"}}}`
	w := postEvent(t, r, payload, signPayload(payload, "whsec_wrong", time.Now()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, ledger.writes)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	ledger := &stubLedger{}
	r := newTestRouter(ledger)

	w := postEvent(t, r, `{"id": "evt_1", "type": "invoice.paid"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, ledger.writes)
}

func TestWebhookAcknowledgesUnknownEventType(t *testing.T) {
	ledger := &stubLedger{}
	r := newTestRouter(ledger)

	payload := `{"id": "evt_1", "type": "charge.refunded", "data": {"object": {"id": "ch_1"}}}`
	w := postEvent(t, r, payload, signPayload(payload, testSecret, time.Now()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, ledger.writes)
}

func TestWebhookProcessesSubscriptionDeleted(t *testing.T) {
	ledger := &stubLedger{}
	r := newTestRouter(ledger)

	payload := `{"id": "evt_1", "type": "customer.subscription.deleted", "data": {"object": {"id": "sub_1"}}}`
	w := postEvent(t, r, payload, signPayload(payload, testSecret, time.Now()))

	assert.Equal(t, http.StatusOK, w.Code)
	// the delete matched zero rows (out-of-order edge case) but still wrote
	// through the ledger call path
	assert.Equal(t, 1, ledger.writes)
}

func TestWebhookAcknowledgesUnmappedInvoice(t *testing.T) {
	ledger := &stubLedger{}
	r := newTestRouter(ledger)

	payload := `{"id": "evt_1", "type": "invoice.paid", "data": {"object": {"id": "in_1", "amount_paid": 100, "customer": {"id": "cus_x"}}}}`
	w := postEvent(t, r, payload, signPayload(payload, testSecret, time.Now()))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, ledger.writes)
}
