package handlers

import (
	"net/http"

	httperrors "github.com/Sazoks/apptrix-test/internal/transport/http/errors"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Get(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}
