package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/airchat/airchat/internal/airquality"
	"github.com/airchat/airchat/internal/api/models"
	"github.com/airchat/airchat/internal/api/response"
	"github.com/airchat/airchat/internal/assist"
	"github.com/airchat/airchat/internal/geocode/nominatim"
)

// AssistHandler handles assistant chat endpoints.
type AssistHandler struct {
	service *assist.Service
}

// NewAssistHandler creates a new AssistHandler.
func NewAssistHandler(service *assist.Service) *AssistHandler {
	return &AssistHandler{service: service}
}

// Chat handles POST /v1/assist/chat - answer an air quality question.
func (h *AssistHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var input models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if strings.TrimSpace(input.Message) == "" {
		response.BadRequest(w, r, "invalid request", []models.FieldError{
			{Field: "message", Message: "must not be empty"},
		})
		return
	}

	reply, err := h.service.Chat(r.Context(), assist.ChatRequest{
		Message:  input.Message,
		Location: input.Location,
		Lat:      input.Lat,
		Lon:      input.Lon,
	})
	if err != nil {
		switch {
		case errors.Is(err, assist.ErrNoLocation):
			response.BadRequest(w, r, "provide either a location name or lat/lon", nil)
		case errors.Is(err, nominatim.ErrNotFound):
			response.NotFound(w, r, "location could not be resolved")
		case errors.Is(err, airquality.ErrNoStations),
			errors.Is(err, airquality.ErrInsufficientData):
			response.NotFound(w, r, "no air quality data near that location")
		default:
			response.ServiceUnavailable(w, r, "assistant is unavailable")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, reply)
}
