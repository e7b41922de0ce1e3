// Package handlers agrupa handlers HTTP utilizados para testes e exemplo.
package handlers

import (
	"net/http"
)

// TestHandler responde com uma mensagem simples para verificar o limiter.
func TestHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Rate-limited API route."})
}

// HealthHandler não passa pelo limiter.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
