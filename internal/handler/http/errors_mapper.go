package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/service"
	"github.com/MKhiriev/go-doc-keeper/internal/utils"
	"github.com/MKhiriev/go-doc-keeper/models"
)

var errorStatusMap = map[error]int{
	errMethodNotAllowed:        http.StatusMethodNotAllowed,
	service.ErrClientRequired: http.StatusForbidden,

	models.ErrInvalidArgument: http.StatusBadRequest,
	models.ErrForbidden:       http.StatusForbidden,
	models.ErrGone:            http.StatusGone,
	models.ErrNotFound:        http.StatusNotFound,
	models.ErrStorageFault:    http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with a JSON error body. Server faults are logged and
// their details hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)
	if status >= http.StatusInternalServerError {
		logger.FromRequest(r).Err(err).Int("status", status).Msg("request failed")
		utils.WriteError(w, "", status)
		return
	}
	utils.WriteError(w, err.Error(), status)
}
