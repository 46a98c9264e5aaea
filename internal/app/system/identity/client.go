package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

const listPageSize = 100

// HTTPClient talks to the provider's REST API with a bearer secret key.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a client for the provider API at baseURL. The secret
// key is carried on every request via an oauth2 static token transport.
func NewHTTPClient(baseURL, secretKey string) *HTTPClient {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: secretKey})
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    oauth2.NewClient(context.Background(), src),
	}
}

// membershipPage matches the provider's paginated list envelope.
type membershipPage struct {
	Data       []Membership `json:"data"`
	TotalCount int          `json:"total_count"`
}

func (c *HTTPClient) ListMemberships(ctx context.Context, userID string) ([]Membership, error) {
	var all []Membership
	for offset := 0; ; offset += listPageSize {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(listPageSize))
		q.Set("offset", strconv.Itoa(offset))
		path := fmt.Sprintf("/v1/users/%s/organization_memberships?%s", url.PathEscape(userID), q.Encode())

		var page membershipPage
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if len(page.Data) < listPageSize || len(all) >= page.TotalCount {
			return all, nil
		}
	}
}

func (c *HTTPClient) GetOrganization(ctx context.Context, orgID string) (Organization, error) {
	var org Organization
	err := c.do(ctx, http.MethodGet, "/v1/organizations/"+url.PathEscape(orgID), nil, &org)
	return org, err
}

func (c *HTTPClient) CreateOrganization(ctx context.Context, name, slug, createdBy string) (Organization, error) {
	body := map[string]string{"name": name, "slug": slug, "created_by": createdBy}
	var org Organization
	err := c.do(ctx, http.MethodPost, "/v1/organizations", body, &org)
	return org, err
}

func (c *HTTPClient) CreateMembership(ctx context.Context, orgID, userID, role string) error {
	body := map[string]string{"user_id": userID, "role": role}
	path := "/v1/organizations/" + url.PathEscape(orgID) + "/memberships"
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// do issues one request and decodes the JSON response into out (if non-nil).
// Non-2xx responses become *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
