package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"effects-store/internal/domain"
	"effects-store/internal/domain/model"
	"effects-store/internal/infra/adapters/payment"
	"effects-store/internal/infra/logging"
	"effects-store/internal/infra/metrics"
	"effects-store/internal/usecase"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinels to the HTTP taxonomy. Upstream
// failures reach the client as a generic message only; the detail was logged
// where it happened.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrEmptyBundle):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrAlreadyOwned):
		writeError(w, http.StatusBadRequest, "You already own this product")
	case errors.Is(err, domain.ErrInvalidCoupon):
		writeError(w, http.StatusBadRequest, "Invalid or already used coupon")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "Invalid request")
	default:
		writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

// ----- Checkout -----

type checkoutRequest struct {
	ProductID  string `json:"productId"`
	BundleID   string `json:"bundleId"`
	CouponCode string `json:"couponCode"`
}

func (s *Server) createCheckout(w http.ResponseWriter, r *http.Request, urlField string, withOrderID bool) {
	claims := ClaimsFrom(r.Context())

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	gw := s.mercadoPago
	if withOrderID {
		gw = s.payPal
	}
	res, err := s.checkoutUC.Create(r.Context(), gw, claims.UserID(), usecase.CheckoutTarget{
		ProductID: req.ProductID,
		BundleID:  req.BundleID,
	}, req.CouponCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body := map[string]any{
		urlField:       res.HostedURL,
		"purchase_ids": res.PurchaseIDs,
	}
	if withOrderID {
		body["order_id"] = res.OrderID
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	s.createCheckout(w, r, "init_point", false)
}

func (s *Server) handleCreateCheckoutPayPal(w http.ResponseWriter, r *http.Request) {
	s.createCheckout(w, r, "approve_url", true)
}

// ----- Async callback reconciler -----

// handleMercadoPagoWebhook is hit by the processor's own infrastructure. The
// notification is untrusted: it only names a payment id to re-fetch. Anything
// that is not a payment event is acknowledged and dropped; non-200 responses
// are reserved for signature failure and a missing payment id, so the
// processor's retry loop is never fed by application-level mismatches.
func (s *Server) handleMercadoPagoWebhook(w http.ResponseWriter, r *http.Request) {
	log := logging.With(r.Context(), s.log)

	// Raw bytes first: signature verification and parsing both need them.
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable body")
		return
	}

	q := r.URL.Query()
	dataID := q.Get("data.id")
	eventType := q.Get("type")

	// data.id arrives as a string or a bare number depending on the
	// notification version.
	var note struct {
		Type string `json:"type"`
		Data struct {
			ID json.RawMessage `json:"id"`
		} `json:"data"`
	}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &note)
	}
	if dataID == "" {
		dataID = strings.Trim(string(note.Data.ID), `"`)
	}
	if eventType == "" {
		eventType = note.Type
	}

	if s.verifier.Enabled() {
		if err := s.verifier.Verify(r.Header.Get("x-signature"), r.Header.Get("x-request-id"), dataID); err != nil {
			metrics.IncWebhookRejection(s.mercadoPago.Name(), "signature")
			log.Warn().Str("data_id", dataID).Msg("webhook signature rejected")
			writeError(w, http.StatusUnauthorized, "Invalid signature")
			return
		}
	}

	if eventType != "payment" {
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}
	if dataID == "" {
		metrics.IncWebhookRejection(s.mercadoPago.Name(), "missing_payment_id")
		writeError(w, http.StatusBadRequest, "Missing payment id")
		return
	}

	if _, _, err := s.reconcileUC.ApplyConfirmation(r.Context(), s.mercadoPago, dataID); err != nil {
		// A 5xx here makes the processor retry, which is what we want when
		// the detail fetch itself failed.
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ----- Synchronous capture reconciler -----

func (s *Server) handlePayPalCapture(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "Missing orderId")
		return
	}

	c, applied, err := s.reconcileUC.ApplyConfirmation(r.Context(), s.payPal, req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body := map[string]any{"status": string(c.Status)}
	if c.Status == model.PurchaseStatusCompleted {
		body["purchase_ids"] = applied
	}
	writeJSON(w, http.StatusOK, body)
}

// ----- Legacy postback -----

// handlePaytPostback accepts form-encoded or JSON payloads with flexible
// field names and no signature. It acknowledges 200 even when no user could
// be matched; the legacy processor retries on anything else.
func (s *Server) handlePaytPostback(w http.ResponseWriter, r *http.Request) {
	fields, err := flattenPostback(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unparseable payload")
		return
	}

	pb := payment.ParsePaytPostback(fields)
	status := payment.MapPaytStatus(pb.RawStatus)
	if err := s.reconcileUC.ApplyPostback(r.Context(), pb.TransactionID, pb.ProductID, pb.Email, status); err != nil {
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func flattenPostback(r *http.Request) (map[string]string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	fields := map[string]string{}

	if ct == "application/json" {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, err
		}
		for k, v := range raw {
			switch t := v.(type) {
			case string:
				fields[strings.ToLower(k)] = t
			case float64:
				fields[strings.ToLower(k)] = strconv.FormatFloat(t, 'f', -1, 64)
			case json.Number:
				fields[strings.ToLower(k)] = t.String()
			}
		}
		return fields, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			fields[strings.ToLower(k)] = vs[0]
		}
	}
	return fields, nil
}

// ----- Download gate -----

func (s *Server) serveDownload(w http.ResponseWriter, r *http.Request, adminOverride bool) {
	claims := ClaimsFrom(r.Context())
	productID := r.URL.Query().Get("productId")
	log := logging.With(r.Context(), s.log)

	product, err := s.downloadUC.Authorize(r.Context(), claims.UserID(), productID, adminOverride)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			metrics.IncDownload("none", "denied")
		}
		writeDomainError(w, err)
		return
	}

	source, meta, rc, err := s.downloadUC.Open(r.Context(), product)
	if err != nil {
		log.Error().Err(err).Str("product_id", product.ID).Msg("asset open failed")
		// Degrade to the direct link when the product carries one rather than
		// hard-failing the buyer.
		if product.FallbackURL != "" {
			metrics.IncDownload(source, "fallback")
			writeJSON(w, http.StatusOK, map[string]string{"fallback_url": product.FallbackURL})
			return
		}
		metrics.IncDownload(source, "error")
		writeError(w, http.StatusInternalServerError, "Download unavailable")
		return
	}
	defer rc.Close()

	filename := meta.Filename
	if filename == "" {
		filename = product.ID
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if meta.ContentType != "" {
		w.Header().Set("Content-Type", meta.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if meta.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	}

	n, err := io.Copy(w, rc)
	metrics.AddDownloadBytes(source, n)
	if err != nil {
		// Headers are gone; nothing left to do but log.
		log.Warn().Err(err).Str("product_id", product.ID).Msg("download stream interrupted")
		return
	}
	metrics.IncDownload(source, "ok")
}

func (s *Server) handleSecureDownload(w http.ResponseWriter, r *http.Request) {
	s.serveDownload(w, r, false)
}

func (s *Server) handleAdminDownload(w http.ResponseWriter, r *http.Request) {
	s.serveDownload(w, r, true)
}

// ----- Admin: users -----

func (s *Server) handleAdminUsersList(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := s.userUC.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Data   []*model.User `json:"data"`
		Total  int           `json:"total"`
		Limit  int           `json:"limit"`
		Offset int           `json:"offset"`
	}{Data: users, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) handleAdminUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.userUC.UpdateRole(r.Context(), req.UserID, model.Role(req.Role)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ----- Admin: coupons -----

func (s *Server) handleAdminCouponsList(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	coupons, err := s.couponUC.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list coupons")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Coupon `json:"data"`
	}{Data: coupons})
}

func (s *Server) handleAdminCouponCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code            string `json:"code"`
		DiscountPercent int    `json:"discountPercent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	c, err := s.couponUC.Create(r.Context(), req.Code, req.DiscountPercent)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
