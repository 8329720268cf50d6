package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
)

// все ответы об ошибках имеют форму {"message": "..."}
type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// handleError логирует детали на сервере, клиенту уходит только generic-сообщение
func handleError(w http.ResponseWriter, logger *log.Logger, err error, message string, status int) {
	logger.Printf("%s: %v", message, err)
	writeMessage(w, status, message)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

// parseIDParam читает числовой {id} из пути запроса
func parseIDParam(r *http.Request) (uint, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
