// Package central is the client for the ODK Central API the sync pipeline
// ingests from. Authentication is a black box: POST the stored credentials to
// /v1/sessions and carry the returned bearer token on every later request.
package central

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"fieldwatch/internal/bootstrap/config"
	"fieldwatch/internal/bootstrap/logging"
	"fieldwatch/internal/errs"
)

// Forms and dataset served by the monitored project.
const (
	FormAddressProblem = "address_problem"
	FormReportProblem  = "report_problem"
	datasetProblems    = "problems"
)

// maxErrorBodySize caps how much of a failed response body is kept for
// diagnostics.
const maxErrorBodySize = 64 * 1024

// Client issues authenticated requests against one ODK Central project.
//
// Login must succeed before any fetch; the orchestrator calls it at the start
// of every sync cycle and serializes cycles, so the token field needs no
// locking of its own.
type Client struct {
	baseURL    *url.URL
	email      string
	password   string
	projectID  int
	httpClient *http.Client
	token      string
}

func NewClient(cfg config.CentralConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errs.Wrapf(err, "parse central base url %q", cfg.BaseURL)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("central base url %q is not absolute", cfg.BaseURL)
	}

	return &Client{
		baseURL:   base,
		email:     cfg.Email,
		password:  cfg.Password,
		projectID: cfg.ProjectID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Login exchanges the stored credentials for a bearer token. A transport
// failure or a response without a token is fatal to the sync cycle.
func (c *Client) Login(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "central.client"))

	body, err := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})
	if err != nil {
		return errs.Wrap(err, "encode credentials")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("v1/sessions"), bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(err, "build login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(err, "login request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("login failed: status %d: %s", resp.StatusCode, readBodyForError(resp.Body))
	}

	var session struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return errs.Wrap(err, "decode session response")
	}
	if session.Token == "" {
		return errors.New("authentication failed: no token in session response")
	}

	c.token = session.Token
	logging.Info(logCtx, "logged in to central")
	return nil
}

// Entities fetches the raw issue entities of the problems dataset.
func (c *Client) Entities(ctx context.Context) ([]Entity, error) {
	path := fmt.Sprintf("v1/projects/%d/datasets/%s.svc/Entities", c.projectID, datasetProblems)
	var env envelope[Entity]
	if err := c.getJSON(ctx, path, &env); err != nil {
		return nil, errs.Wrap(err, "fetch entities")
	}
	return env.Value, nil
}

// ResponseSubmissions fetches the raw address_problem submissions.
func (c *Client) ResponseSubmissions(ctx context.Context) ([]ResponseSubmission, error) {
	path := fmt.Sprintf("v1/projects/%d/forms/%s.svc/Submissions", c.projectID, FormAddressProblem)
	var env envelope[ResponseSubmission]
	if err := c.getJSON(ctx, path, &env); err != nil {
		return nil, errs.Wrap(err, "fetch response submissions")
	}
	return env.Value, nil
}

// ReportSubmissions fetches the raw report_problem submissions.
func (c *Client) ReportSubmissions(ctx context.Context) ([]ReportSubmission, error) {
	path := fmt.Sprintf("v1/projects/%d/forms/%s.svc/Submissions", c.projectID, FormReportProblem)
	var env envelope[ReportSubmission]
	if err := c.getJSON(ctx, path, &env); err != nil {
		return nil, errs.Wrap(err, "fetch report submissions")
	}
	return env.Value, nil
}

// Attachment downloads one submission attachment as raw bytes.
func (c *Client) Attachment(ctx context.Context, form, submissionID, filename string) ([]byte, error) {
	// endpoint() escapes the path when rendering the URL, so the raw id and
	// filename go in as-is.
	path := fmt.Sprintf(
		"v1/projects/%d/forms/%s/submissions/%s/attachments/%s",
		c.projectID, form, submissionID, filename,
	)

	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(err, "read attachment body")
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(err, "decode response body")
	}
	return nil
}

// get issues one bearer-authenticated GET. Any non-2xx status is an error
// carrying a truncated copy of the response body for diagnostics.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if c.token == "" {
		return nil, errors.New("not logged in")
	}

	target := c.endpoint(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errs.Wrapf(err, "build request for %s", path)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrapf(err, "request %s", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := readBodyForError(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("request %s: status %d: %s", path, resp.StatusCode, body)
	}
	return resp, nil
}

func (c *Client) endpoint(path string) string {
	ref := &url.URL{Path: path}
	return c.baseURL.ResolveReference(ref).String()
}

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize+1))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) > maxErrorBodySize {
		body = append(body[:maxErrorBodySize], []byte("... (truncated)")...)
	}
	return body
}
