package hass

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"zones2mqtt/internal/log"
)

const requestTimeout = 30 * time.Second

// ErrNotFound is returned when Home Assistant does not know the requested
// entity. Callers treat it as a soft failure for optional selector entities.
var ErrNotFound = errors.New("entity not found")

// State is an entity state as returned by the Home Assistant REST API.
type State struct {
	EntityID   string                 `json:"entity_id"`
	State      string                 `json:"state"`
	Attributes map[string]interface{} `json:"attributes"`
}

// Client talks to the Home Assistant REST API using a long-lived access token.
type Client struct {
	baseURL    string
	token      string
	log        *log.Logger
	httpClient *http.Client
}

func NewClient(baseURL, token string, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		log:     logger,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// State fetches the current state of an entity.
func (c *Client) State(entityID string) (State, error) {
	var state State
	if err := c.do(http.MethodGet, "/api/states/"+entityID, nil, &state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Call invokes a Home Assistant service and waits for it to complete. The REST
// API only returns once the service call has finished, which gives the
// coordinator the blocking semantics it relies on.
func (c *Client) Call(domain, service string, data map[string]interface{}) error {
	path := fmt.Sprintf("/api/services/%s/%s", domain, service)
	return c.do(http.MethodPost, path, data, nil)
}

// Platform resolves the integration platform that owns an entity. The REST API
// has no registry endpoint, so we probe the known vacuum integrations via the
// template endpoint's integration_entities function.
func (c *Client) Platform(entityID string) (string, error) {
	for _, platform := range []string{"dreame_vacuum", "xiaomi_miio", "roborock"} {
		tmpl := fmt.Sprintf("{{ %q in integration_entities(%q) }}", entityID, platform)
		result, err := c.renderTemplate(tmpl)
		if err != nil {
			return "", fmt.Errorf("failed to probe platform %s: %v", platform, err)
		}
		if result == "True" {
			return platform, nil
		}
	}
	return "", fmt.Errorf("no known platform owns %s", entityID)
}

func (c *Client) renderTemplate(tmpl string) (string, error) {
	body := map[string]interface{}{"template": tmpl}
	var rendered string
	if err := c.doRaw(http.MethodPost, "/api/template", body, &rendered); err != nil {
		return "", err
	}
	return strings.TrimSpace(rendered), nil
}

func (c *Client) do(method, path string, body map[string]interface{}, dest interface{}) error {
	var rendered string
	if err := c.doRaw(method, path, body, &rendered); err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(rendered), dest); err != nil {
		return fmt.Errorf("failed to decode response from %s: %v", path, err)
	}
	return nil
}

func (c *Client) doRaw(method, path string, body map[string]interface{}, raw *string) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.log.Trace("Home Assistant request: %s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %v", path, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if raw != nil {
		*raw = string(payload)
	}
	return nil
}
