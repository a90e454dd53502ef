// Package dispatch calls the otp-mailer function to deliver verification codes.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Request is the otp-mailer request body.
type Request struct {
	Email   string `json:"email"`
	OTP     string `json:"otp"`
	Purpose string `json:"purpose,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string) *Client {
	return &Client{url: url, http: &http.Client{Timeout: 15 * time.Second}}
}

func (c *Client) SendOTP(ctx context.Context, email, code, purpose string) error {
	body, err := json.Marshal(Request{Email: email, OTP: code, Purpose: purpose})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("otp dispatch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return fmt.Errorf("otp dispatch: status %d: %s", resp.StatusCode, eb.Error)
	}
	return nil
}
