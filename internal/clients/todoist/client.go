package todoist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	BaseURL = "https://api.todoist.com/rest/v2"
)

// Client is a Todoist API client used as a read-only activity source.
type Client struct {
	token      string
	httpClient *http.Client
	projectID  string // Optional: specific project to import from
}

// NewClient creates a new Todoist client.
func NewClient(token string) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured returns true if the client has a token.
func (c *Client) IsConfigured() bool {
	return c.token != ""
}

// SetProjectID limits imports to one project.
func (c *Client) SetProjectID(id string) {
	c.projectID = id
}

// doRequest performs an HTTP request with auth.
func (c *Client) doRequest(method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// GetTasks returns all active tasks, optionally filtered by project.
func (c *Client) GetTasks(projectID string) ([]Task, error) {
	path := "/tasks"
	if projectID != "" {
		path += "?project_id=" + projectID
	} else if c.projectID != "" {
		path += "?project_id=" + c.projectID
	}

	data, err := c.doRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("unmarshal tasks: %w", err)
	}

	return tasks, nil
}

// CloseTask marks a task as complete.
func (c *Client) CloseTask(id string) error {
	_, err := c.doRequest("POST", "/tasks/"+id+"/close", nil)
	return err
}
