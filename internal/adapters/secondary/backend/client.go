package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
)

const maxResponseSize = 10 << 20

// ErrInvalidPayload : la réponse ne respecte pas le schéma attendu.
var ErrInvalidPayload = errors.New("backend returned an invalid payload")

// Error porte le statut HTTP et le message renvoyé par le backend (affiché tel quel au client).
type Error struct {
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("backend error %d: %s: %v", e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) HTTPStatus() int       { return e.Status }
func (e *Error) PublicMessage() string { return e.Message }

// Is rattache les statuts d'auth aux erreurs du domaine.
func (e *Error) Is(target error) bool {
	switch target {
	case domain.ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	case domain.ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type validator interface {
	Validate() error
}

type tokenKey struct{}

// WithToken attache le token de session aux appels sortants faits avec ctx.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// Client est l'adapter REST vers l'API Cheffy (source de vérité).
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// doJSON encode body en JSON (si non nil) puis délègue à do.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, reader, contentType, out)
}

// do : 1. requête + bearer, 2. lecture de l'enveloppe, 3. décodage et validation de data.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := tokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 300 && len(bytes.TrimSpace(raw)) == 0 && out == nil {
		return nil // 204
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 300 || (decodeErr == nil && !env.Success) {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		status := resp.StatusCode
		if status < 300 {
			// success:false avec un 2xx : le backend signale une erreur métier
			status = http.StatusBadRequest
		}
		slog.DebugContext(ctx, "backend call failed", "method", method, "path", path, "status", status, "message", msg)
		return &Error{Status: status, Message: msg}
	}
	if decodeErr != nil {
		return invalidPayload(decodeErr)
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return invalidPayload(errors.New("missing data"))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return invalidPayload(err)
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return invalidPayload(err)
		}
	}
	return nil
}

func invalidPayload(err error) error {
	return &Error{
		Status:  http.StatusBadGateway,
		Message: "unexpected response from the Cheffy API",
		cause:   fmt.Errorf("%w: %v", ErrInvalidPayload, err),
	}
}

// notFound remplace un 404 du backend par l'erreur du domaine.
func notFound(err, sentinel error) error {
	var be *Error
	if errors.As(err, &be) && be.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", sentinel, be.Message)
	}
	return err
}
