package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/darahtanyoe/mitra-dashboard/internal/models"
)

// ErrLoginFailed covers every rejected credential pair. The human-readable
// message from the API rides along in the returned error when present.
var ErrLoginFailed = errors.New("upstream: login failed")

// ErrCodeRejected means the unique donor code did not match.
var ErrCodeRejected = errors.New("upstream: unique code rejected")

type statusEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Login exchanges credentials for a profile and token pair. It deliberately
// bypasses the bearer/retry path: there is no session yet to refresh.
func (c *Client) Login(ctx context.Context, email, password string) (models.UserProfile, models.Session, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return models.UserProfile{}, models.Session{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/masuk-web", bytes.NewReader(payload))
	if err != nil {
		return models.UserProfile{}, models.Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.UserProfile{}, models.Session{}, err
	}
	defer resp.Body.Close()

	var body struct {
		statusEnvelope
		User    models.UserProfile `json:"user"`
		Session models.Session     `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.UserProfile{}, models.Session{}, ErrLoginFailed
	}
	if resp.StatusCode != http.StatusOK || body.Status != "SUCCESS" {
		if body.Message != "" {
			return models.UserProfile{}, models.Session{}, fmt.Errorf("%w: %s", ErrLoginFailed, body.Message)
		}
		return models.UserProfile{}, models.Session{}, ErrLoginFailed
	}
	return body.User, body.Session, nil
}

// DonationsByPartner lists every donation booked against the partner.
func (c *Client) DonationsByPartner(ctx context.Context, sid, partnerID string) ([]models.DonationRecord, error) {
	var body struct {
		Data []models.DonationRecord `json:"data"`
	}
	if err := c.do(ctx, sid, http.MethodGet, "/donor/partner/"+partnerID, nil, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// UpdateDonationStatus moves a donation to completed or cancelled.
func (c *Client) UpdateDonationStatus(ctx context.Context, sid, donationID, status string) error {
	return c.do(ctx, sid, http.MethodPatch, "/donor/"+donationID+"/status", map[string]string{"status": status}, nil)
}

// VerifyDonationCode checks the code the donor brought to the counter.
func (c *Client) VerifyDonationCode(ctx context.Context, sid, donationID, code string) error {
	var body statusEnvelope
	if err := c.do(ctx, sid, http.MethodPost, "/donor/verifyUniqueCode/"+donationID, map[string]string{"unique_code": code}, &body); err != nil {
		return err
	}
	if body.Status != "SUCCESS" {
		return ErrCodeRejected
	}
	return nil
}

// RequestsByPartner lists every blood request assigned to the partner.
func (c *Client) RequestsByPartner(ctx context.Context, sid, partnerID string) ([]models.BloodRequestRecord, error) {
	var body struct {
		Data []models.BloodRequestRecord `json:"data"`
	}
	if err := c.do(ctx, sid, http.MethodGet, "/bloodReq/partner/"+partnerID, nil, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// ConfirmRequest records the partner's accept or reject decision.
func (c *Client) ConfirmRequest(ctx context.Context, sid, requestID, status string) error {
	return c.do(ctx, sid, http.MethodPatch, "/partners/confirm/"+requestID, map[string]string{"status": status}, nil)
}

// VerifyRequestCode checks the pickup code for a fulfilled request.
func (c *Client) VerifyRequestCode(ctx context.Context, sid, requestID, code string) error {
	var body statusEnvelope
	if err := c.do(ctx, sid, http.MethodPost, "/bloodReq/verifyUniqueCode/"+requestID, map[string]string{"unique_code": code}, &body); err != nil {
		return err
	}
	if body.Status != "SUCCESS" {
		return ErrCodeRejected
	}
	return nil
}

// UpdateRequestStatus moves a request along the fulfilment leg, to
// ready or completed.
func (c *Client) UpdateRequestStatus(ctx context.Context, sid, requestID, status string) error {
	return c.do(ctx, sid, http.MethodPatch, "/bloodReq/status/"+requestID, map[string]string{"status": status}, nil)
}
