// game-session-service/services/credit_service_client.go
package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"game-session-service/utils"
)

// ErrNoPlaysRemaining means the external credit service refused to consume a
// play for the user.
var ErrNoPlaysRemaining = errors.New("no plays remaining")

// CreditServiceClient talks to the external play-credit service. Credits
// (how many plays a user bought/earned) live outside this service; we only
// consume and read them.
type CreditServiceClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

type creditResponse struct {
	UserID         string `json:"user_id"`
	PlaysRemaining int    `json:"plays_remaining"`
}

func NewCreditServiceClient(baseURL, token string) *CreditServiceClient {
	return &CreditServiceClient{
		BaseURL: baseURL,
		Token:   token,
		Client:  utils.HTTPClient,
	}
}

// Consume decrements the user's play-credit balance and returns the remainder.
// A 402/409 from the credit service maps to ErrNoPlaysRemaining.
func (c *CreditServiceClient) Consume(userID string) (int, error) {
	reqBody, _ := json.Marshal(map[string]string{"user_id": userID})

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/credits/consume", c.BaseURL), bytes.NewBuffer(reqBody))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call credit service: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusPaymentRequired, http.StatusConflict:
		return 0, ErrNoPlaysRemaining
	default:
		log.Printf("CreditService /credits/consume returned %d: %s", resp.StatusCode, string(body))
		return 0, fmt.Errorf("credit consume failed: %d", resp.StatusCode)
	}

	var out creditResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, err
	}
	return out.PlaysRemaining, nil
}

// Remaining reads the user's current play-credit balance.
func (c *CreditServiceClient) Remaining(userID string) (int, error) {
	u, err := url.Parse(fmt.Sprintf("%s/credits", c.BaseURL))
	if err != nil {
		return 0, err
	}
	q := u.Query()
	q.Set("user_id", userID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequest("GET", u.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call credit service: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		log.Printf("CreditService /credits returned %d: %s", resp.StatusCode, string(body))
		return 0, fmt.Errorf("credit lookup failed: %d", resp.StatusCode)
	}

	var out creditResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, err
	}
	return out.PlaysRemaining, nil
}
