package dispatch

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// WebhookNotifier posts events to an external endpoint (e.g. an SMS gateway
// bridge that actually texts the driver). Delivery is best-effort.
type WebhookNotifier struct {
	Endpoint string
	Client   *http.Client
}

func NewWebhookNotifier(endpoint string) *WebhookNotifier {
	return &WebhookNotifier{Endpoint: endpoint, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (n *WebhookNotifier) Notify(ev Event) error {
	if n.Endpoint == "" {
		return nil
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	resp, err := n.Client.Post(n.Endpoint, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
