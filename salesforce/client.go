// Package salesforce exports object data from a Salesforce org through the
// REST API: login, SOQL query with pagination, object describes, and
// plan-driven bulk export to CSV or JSON files.
package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const apiVersion = "v59.0"

// Credentials holds the settings needed to authenticate against an org.
// A session ID takes priority over a username/password login when both
// are present.
type Credentials struct {
	Username       string `env:"SF_USERNAME"`
	Password       string `env:"SF_PASSWORD"`
	SecurityToken  string `env:"SF_SECURITY_TOKEN"`
	ConsumerKey    string `env:"SF_CONSUMER_KEY"`
	ConsumerSecret string `env:"SF_CONSUMER_SECRET"`
	InstanceURL    string `env:"SF_INSTANCE_URL"`
	SessionID      string `env:"SF_SESSION_ID"`
	Domain         string `env:"SF_DOMAIN" env-default:"login"`
}

// CredentialsFromEnv reads credentials from SF_* environment variables.
func CredentialsFromEnv() (Credentials, error) {
	var creds Credentials
	if err := cleanenv.ReadEnv(&creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to read salesforce credentials: %w", err)
	}
	return creds, nil
}

// hasSession reports whether the credentials carry a pre-established session.
func (c Credentials) hasSession() bool {
	return c.SessionID != "" && c.InstanceURL != ""
}

// hasPasswordGrant reports whether the credentials support the OAuth2
// password grant through a connected app.
func (c Credentials) hasPasswordGrant() bool {
	return c.Username != "" && c.Password != "" && c.ConsumerKey != "" && c.ConsumerSecret != ""
}

// Client talks to the Salesforce REST API for one org.
type Client struct {
	// LoginURL is the OAuth2 token host. Overridable in tests.
	LoginURL string

	creds       Credentials
	httpClient  *http.Client
	accessToken string
	instanceURL string
}

// NewClient builds a client from credentials. Call Login before issuing
// queries unless the credentials carry a session ID.
func NewClient(creds Credentials) *Client {
	return &Client{
		LoginURL:   fmt.Sprintf("https://%s.salesforce.com", creds.Domain),
		creds:      creds,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Login establishes an API session. A session ID in the credentials is
// used as-is; otherwise the OAuth2 password grant is performed against
// the login host.
func (c *Client) Login(ctx context.Context) error {
	if c.creds.hasSession() {
		c.accessToken = c.creds.SessionID
		c.instanceURL = strings.TrimSuffix(c.creds.InstanceURL, "/")
		return nil
	}
	if !c.creds.hasPasswordGrant() {
		return fmt.Errorf("no usable salesforce credentials: set SF_SESSION_ID and SF_INSTANCE_URL, or SF_USERNAME, SF_PASSWORD, SF_CONSUMER_KEY and SF_CONSUMER_SECRET")
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.creds.ConsumerKey)
	form.Set("client_secret", c.creds.ConsumerSecret)
	form.Set("username", c.creds.Username)
	form.Set("password", c.creds.Password+c.creds.SecurityToken)

	endpoint := c.LoginURL + "/services/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to login to salesforce: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("salesforce login failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	c.accessToken = token.AccessToken
	c.instanceURL = strings.TrimSuffix(token.InstanceURL, "/")
	return nil
}

// get issues an authenticated GET against a path or absolute URL on the
// instance and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.accessToken == "" {
		return fmt.Errorf("not logged in")
	}
	endpoint := path
	if !strings.HasPrefix(path, "http") {
		endpoint = c.instanceURL + path
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErrs []apiError
		if json.Unmarshal(body, &apiErrs) == nil && len(apiErrs) > 0 {
			return fmt.Errorf("salesforce api error %s: %s", apiErrs[0].ErrorCode, apiErrs[0].Message)
		}
		return fmt.Errorf("salesforce request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Query runs a SOQL query and returns the first page of results.
func (c *Client) Query(ctx context.Context, soql string) (*QueryResult, error) {
	path := fmt.Sprintf("/services/data/%s/query?q=%s", apiVersion, url.QueryEscape(soql))
	var result QueryResult
	if err := c.get(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return &result, nil
}

// QueryAll runs a SOQL query and follows nextRecordsUrl until all pages
// are consumed. The per-record "attributes" metadata key is stripped.
func (c *Client) QueryAll(ctx context.Context, soql string) ([]map[string]any, error) {
	page, err := c.Query(ctx, soql)
	if err != nil {
		return nil, err
	}

	records := make([]map[string]any, 0, page.TotalSize)
	for {
		for _, rec := range page.Records {
			delete(rec, "attributes")
			records = append(records, rec)
		}
		if page.Done || page.NextRecordsURL == "" {
			break
		}
		next := &QueryResult{}
		if err := c.get(ctx, page.NextRecordsURL, next); err != nil {
			return nil, fmt.Errorf("failed to fetch next page: %w", err)
		}
		page = next
	}
	return records, nil
}

// Describe fetches the field metadata of one object.
func (c *Client) Describe(ctx context.Context, object string) (*ObjectDescription, error) {
	path := fmt.Sprintf("/services/data/%s/sobjects/%s/describe", apiVersion, url.PathEscape(object))
	var desc ObjectDescription
	if err := c.get(ctx, path, &desc); err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", object, err)
	}
	return &desc, nil
}
