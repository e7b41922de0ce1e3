package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
)

const (
	fixedWindowRejectMessage = "Too many requests"
	slidingLogRejectMessage  = "Too many requests, please try again later."
	internalErrorMessage     = "Internal Server Error"
)

// WriteJSON escreve body como JSON com o status informado.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteTooManyRequests responde 429 com o payload da estratégia que rejeitou.
func WriteTooManyRequests(w http.ResponseWriter, strategy domain.Strategy) {
	if strategy == domain.StrategySlidingLog {
		WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": slidingLogRejectMessage})
		return
	}
	WriteJSON(w, http.StatusTooManyRequests, map[string]string{"message": fixedWindowRejectMessage})
}

func WriteInternalError(w http.ResponseWriter) {
	WriteJSON(w, http.StatusInternalServerError, map[string]string{"message": internalErrorMessage})
}
