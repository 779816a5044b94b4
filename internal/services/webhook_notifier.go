package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"safeguard/internal/models"
)

const (
	webhookTimeout  = 10 * time.Second
	webhookCooldown = 5 * time.Minute
)

// WebhookNotifier POSTs notifications to a configured HTTP endpoint, e.g. an
// emergency-contact relay. After a delivery failure the endpoint is put on a
// cooldown so a dead receiver does not stall every alert.
type WebhookNotifier struct {
	url      string
	client   *http.Client
	cooldown *gocache.Cache
	logger   *logrus.Logger
}

// NewWebhookNotifier creates a webhook notifier for the given URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &WebhookNotifier{
		url:      url,
		client:   &http.Client{Timeout: webhookTimeout},
		cooldown: gocache.New(webhookCooldown, 10*time.Minute),
		logger:   logger,
	}
}

// Notify delivers the notification as a JSON POST. Failures are logged and
// never retried; the endpoint is skipped for the cooldown window afterwards.
func (w *WebhookNotifier) Notify(ctx context.Context, n models.Notification) {
	if _, onCooldown := w.cooldown.Get(w.url); onCooldown {
		w.logger.WithField("url", w.url).Debug("webhook on cooldown, delivery skipped")
		return
	}

	body, err := json.Marshal(n)
	if err != nil {
		w.logger.WithError(err).Error("failed to encode webhook payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.logger.WithError(err).Error("failed to build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.cooldown.Set(w.url, true, gocache.DefaultExpiration)
		w.logger.WithError(err).WithField("url", w.url).Warn("webhook delivery failed, endpoint on cooldown")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		w.cooldown.Set(w.url, true, gocache.DefaultExpiration)
		w.logger.WithFields(logrus.Fields{
			"url":    w.url,
			"status": resp.StatusCode,
		}).Warn("webhook rejected notification, endpoint on cooldown")
		return
	}

	w.logger.WithFields(logrus.Fields{
		"url":  w.url,
		"kind": string(n.Kind),
	}).Info("webhook notification delivered")
}
