package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-doc-keeper/models"
)

// mapHTTPError returns nil for 2xx responses and a *models.RemoteError
// carrying the status and server message otherwise.
func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))

	var errResp models.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &errResp); err == nil && errResp.Error != "" {
		body = errResp.Error
	}
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	return models.NewRemoteError(resp.StatusCode(), errors.New(body))
}

// mapTransportError classifies a failure to obtain any response: deadline
// expiry becomes models.ErrTimeout, everything else a remote fault.
func mapTransportError(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %w: %w", op, models.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, models.NewRemoteError(0, err))
}
