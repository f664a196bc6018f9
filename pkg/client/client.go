package client

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
	"time"

	"github.com/google/uuid"
)

const sessionCookieName = "gamenight_session"

// Client is a Go client for the tracker REST API. It is safe for concurrent
// use; the session cookie is set once by Login (or WithSessionCookie) and
// read-only afterwards.
type Client struct {
	baseURL       string
	http          *http.Client
	sessionCookie string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

func WithSessionCookie(value string) Option {
	return func(c *Client) {
		c.sessionCookie = value
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SessionCookie returns the current login cookie value, for persisting a
// login across client instances.
func (c *Client) SessionCookie() string {
	return c.sessionCookie
}

// auth

func (c *Client) Register(ctx context.Context, firstName, lastName, email, password string) error {
	body := map[string]string{
		"firstName": firstName,
		"lastName":  lastName,
		"email":     email,
		"password":  password,
	}

	_, err := c.do(ctx, http.MethodPost, "/auth/register", body)
	return err
}

// Login authenticates and captures the session cookie for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (UserRef, error) {
	body := map[string]string{"email": email, "password": password}

	raw, resp, err := c.doRaw(ctx, http.MethodPost, "/auth/login", body)
	if err != nil {
		return UserRef{}, err
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookieName {
			c.sessionCookie = cookie.Value
		}
	}

	response, _, err := unwrap[LoginResponse](raw)
	if err != nil {
		return UserRef{}, err
	}

	return response.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil)
	if err == nil {
		c.sessionCookie = ""
	}

	return err
}

// sessions

func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	raw, err := c.do(ctx, http.MethodGet, "/sessions", nil)
	if err != nil {
		return nil, err
	}

	sessions, _, err := unwrap[[]Session](raw)
	return sessions, err
}

func (c *Client) Session(ctx context.Context, id uuid.UUID) (Session, error) {
	raw, err := c.do(ctx, http.MethodGet, "/sessions/"+id.String(), nil)
	if err != nil {
		return Session{}, err
	}

	session, _, err := unwrap[Session](raw)
	return session, err
}

func (c *Client) CreateSession(ctx context.Context, request CreateSessionRequest) (Session, error) {
	raw, err := c.do(ctx, http.MethodPost, "/sessions", request)
	if err != nil {
		return Session{}, err
	}

	session, _, err := unwrap[Session](raw)
	return session, err
}

func (c *Client) EditSession(ctx context.Context, id uuid.UUID, request EditSessionRequest) (Session, error) {
	raw, err := c.do(ctx, http.MethodPut, "/sessions/"+id.String(), request)
	if err != nil {
		return Session{}, err
	}

	session, _, err := unwrap[Session](raw)
	return session, err
}

func (c *Client) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := c.do(ctx, http.MethodDelete, "/sessions/"+id.String(), nil)
	return err
}

func (c *Client) ConfirmSession(ctx context.Context, id uuid.UUID) (Session, error) {
	raw, err := c.do(ctx, http.MethodPost, "/sessions/"+id.String()+"/confirm", nil)
	if err != nil {
		return Session{}, err
	}

	session, _, err := unwrap[Session](raw)
	return session, err
}

func (c *Client) DeclineSession(ctx context.Context, id uuid.UUID) (Session, error) {
	raw, err := c.do(ctx, http.MethodPost, "/sessions/"+id.String()+"/decline", nil)
	if err != nil {
		return Session{}, err
	}

	session, _, err := unwrap[Session](raw)
	return session, err
}

func (c *Client) RemindPlayers(ctx context.Context, id uuid.UUID) (RemindResponse, error) {
	raw, err := c.do(ctx, http.MethodPost, "/sessions/"+id.String()+"/remind", nil)
	if err != nil {
		return RemindResponse{}, err
	}

	response, _, err := unwrap[RemindResponse](raw)
	return response, err
}

// notifications

type NotificationFilter struct {
	Status string
	Page   int
	Limit  int
}

func (c *Client) Notifications(ctx context.Context, filter NotificationFilter) (NotificationPage, error) {
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status", filter.Status)
	}
	if filter.Page > 0 {
		params.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}

	path := "/friends/notifications"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return NotificationPage{}, err
	}

	notifications, meta, err := unwrap[[]Notification](raw)
	if err != nil {
		return NotificationPage{}, err
	}

	page := NotificationPage{Notifications: notifications}
	if meta != nil {
		page.Meta = *meta
	}

	return page, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	_, err := c.do(ctx, http.MethodPost, "/friends/notifications/"+id.String()+"/read", nil)
	return err
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/friends/notifications/read-all", nil)
	return err
}

// friends

func (c *Client) SendFriendRequest(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/friends/send", map[string]string{"email": email})
	return err
}

func (c *Client) RespondFriendRequest(ctx context.Context, senderID uuid.UUID, action FriendAction) error {
	body := map[string]interface{}{"senderId": senderID, "action": action}

	_, err := c.do(ctx, http.MethodPost, "/friends/respond", body)
	return err
}

func (c *Client) Friends(ctx context.Context, userID uuid.UUID) ([]UserRef, error) {
	raw, err := c.do(ctx, http.MethodGet, "/friends/list/"+userID.String(), nil)
	if err != nil {
		return nil, err
	}

	friends, _, err := unwrap[[]UserRef](raw)
	return friends, err
}

func (c *Client) PendingFriendRequests(ctx context.Context) ([]UserRef, error) {
	raw, err := c.do(ctx, http.MethodGet, "/friends/requests", nil)
	if err != nil {
		return nil, err
	}

	requests, _, err := unwrap[[]UserRef](raw)
	return requests, err
}

func (c *Client) SentFriendRequests(ctx context.Context) ([]SentRequest, error) {
	raw, err := c.do(ctx, http.MethodGet, "/friends/sent", nil)
	if err != nil {
		return nil, err
	}

	requests, _, err := unwrap[[]SentRequest](raw)
	return requests, err
}

// transport

func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	raw, _, err := c.doRaw(ctx, method, path, body)
	return raw, err
}

func (c *Client) doRaw(ctx context.Context, method, path string, body interface{}) ([]byte, *http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.sessionCookie != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: c.sessionCookie})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		message := ""
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			message = env.Message
		}

		return nil, nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	return raw, resp, nil
}
