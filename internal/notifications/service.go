package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bindery/internal/config"
)

const userAgent = "Bindery/0.1.0"

// Service defines the notification surface exposed to the resolver.
type Service interface {
	NotifyBatchResolved(ctx context.Context, processed, failed int) error
	NotifyBatchDisambiguated(ctx context.Context, processed, failed, skipped int) error
	NotifyEntryApplied(ctx context.Context, title, targetDir string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyBatchResolved(ctx context.Context, processed, failed int) error {
	var title string
	var message string
	if failed == 0 {
		title = "Bindery - Resolution Complete"
		message = fmt.Sprintf("Resolved metadata for %d entries", processed)
	} else {
		title = "Bindery - Resolution Complete (with errors)"
		message = fmt.Sprintf("Resolved metadata for %d entries, %d failed", processed, failed)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"bindery", "resolve", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchDisambiguated(ctx context.Context, processed, failed, skipped int) error {
	message := fmt.Sprintf("Consulted model for %d entries", processed)
	if failed > 0 || skipped > 0 {
		message = fmt.Sprintf("Consulted model for %d entries, %d failed, %d skipped", processed, failed, skipped)
	}

	data := payload{
		title:   "Bindery - Disambiguation Complete",
		message: message,
		tags:    []string{"bindery", "disambiguate", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEntryApplied(ctx context.Context, title, targetDir string) error {
	title = strings.TrimSpace(title)
	targetDir = strings.TrimSpace(targetDir)
	message := fmt.Sprintf("📚 Added to library: %s", title)
	if targetDir != "" {
		message = fmt.Sprintf("%s\nLocation: %s", message, targetDir)
	}

	data := payload{
		title:    "Bindery - Entry Applied",
		message:  message,
		tags:     []string{"bindery", "apply", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Bindery - Error",
		message:  builder.String(),
		tags:     []string{"bindery", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Bindery - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"bindery", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyBatchResolved(context.Context, int, int) error           { return nil }
func (noopService) NotifyBatchDisambiguated(context.Context, int, int, int) error { return nil }
func (noopService) NotifyEntryApplied(context.Context, string, string) error      { return nil }
func (noopService) NotifyError(context.Context, error, string) error              { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
