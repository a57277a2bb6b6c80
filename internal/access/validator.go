// internal/access/validator.go
package access

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// affirmation is the exact token the validation service returns for a
// granted credential. Anything else, including transport errors and
// timeouts, means denied.
const affirmation = "yes"

// Validator checks scanned identifiers against the remote validation
// service. One shot per scan; denials are never retried automatically.
type Validator struct {
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

// NewValidator creates a validator for the given service endpoint.
func NewValidator(endpoint string, timeout time.Duration, log *zap.Logger) *Validator {
	return &Validator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Validate reports whether the service affirms the identifier.
func (v *Validator) Validate(ctx context.Context, uid string) bool {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		v.endpoint+"?uid="+url.QueryEscape(uid),
		nil,
	)
	if err != nil {
		v.log.Error("validation request build failed", zap.Error(err))
		return false
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Warn("validation request failed, treating as denied",
			zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.log.Warn("validation rejected",
			zap.Int("status", resp.StatusCode))
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		v.log.Warn("validation response read failed, treating as denied",
			zap.Error(err))
		return false
	}

	return strings.TrimSpace(string(body)) == affirmation
}
