package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Submitter 发送单个进度事件
type Submitter interface {
	Submit(ctx context.Context, event Event) (*Result, error)
}

// SubmitError 服务端返回非 2xx
type SubmitError struct {
	Status  int
	Message string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("progress endpoint returned %d: %s", e.Status, e.Message)
}

type HTTPSubmitter struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPSubmitter(baseURL, token string) *HTTPSubmitter {
	return &HTTPSubmitter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type envelope struct {
	Code  int    `json:"code"`
	Data  Result `json:"data"`
	Error string `json:"error"`
}

func (s *HTTPSubmitter) Submit(ctx context.Context, event Event) (*Result, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/progress", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode progress response: %w", err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &SubmitError{Status: resp.StatusCode, Message: msg}
	}
	return &env.Data, nil
}
