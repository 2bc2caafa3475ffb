package gateway

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripgate/tripgate/entity"
	"github.com/tripgate/tripgate/logger"
)

// upstreamUnavailableMsg is the only thing a client sees when a backend
// fails; the underlying error stays in the server log, keyed by request id.
const upstreamUnavailableMsg = "upstream service unavailable"

// Relay forwards authenticated requests to the backend services and
// classifies their outcomes. It never touches the backends' stores.
type Relay struct {
	client         *http.Client
	identityURL    string
	destinationURL string
}

func NewRelay(identityURL, destinationURL string, timeout time.Duration) *Relay {
	return &Relay{
		client:         &http.Client{Timeout: timeout},
		identityURL:    identityURL,
		destinationURL: destinationURL,
	}
}

// Forward proxies the inbound GET to baseURL+path, re-attaching the bearer
// token so the backend can run its own check. Backend 2xx and most non-2xx
// statuses relay verbatim; transport failures and timeouts become one fixed
// 502. A 401 or 403 from a backend the gateway already authenticated
// against means the enforcement points disagree, which is an upstream
// fault, not the client's, so it also maps to 502.
func (r *Relay) Forward(c *gin.Context, baseURL, path string) {
	requestId := uuid.NewString()
	c.Header("X-Request-Id", requestId)

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, baseURL+path, nil)
	if err != nil {
		logger.Errorf("relay %s: building request for %s%s failed: %v", requestId, baseURL, path, err)
		entity.JSONMsg(c, http.StatusBadGateway, false, upstreamUnavailableMsg)
		return
	}
	if auth := c.GetHeader("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("X-Request-Id", requestId)

	resp, err := r.client.Do(req)
	if err != nil {
		logger.Warningf("relay %s: %s%s unreachable: %v", requestId, baseURL, path, err)
		entity.JSONMsg(c, http.StatusBadGateway, false, upstreamUnavailableMsg)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		logger.Warningf("relay %s: %s%s returned %d for a request the gateway authenticated", requestId, baseURL, path, resp.StatusCode)
		entity.JSONMsg(c, http.StatusBadGateway, false, upstreamUnavailableMsg)
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warningf("relay %s: reading %s%s response failed: %v", requestId, baseURL, path, err)
		entity.JSONMsg(c, http.StatusBadGateway, false, upstreamUnavailableMsg)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, body)
}
