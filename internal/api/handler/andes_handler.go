package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/recetar/recetar-api/internal/api/middleware"
)

// AndesHandler serves the routes the Andes platform calls.
type AndesHandler struct {
	log zerolog.Logger
}

func NewAndesHandler(log zerolog.Logger) *AndesHandler {
	return &AndesHandler{log: log}
}

// CreatePrescription acknowledges a prescription pushed by Andes and echoes
// the payload back.
//
// @Summary      Receive an Andes prescription
// @Tags         andes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      object  true  "Prescription payload"
// @Success      200   {object}  andesResponse
// @Failure      417   {object}  map[string]string
// @Router       /andes/prescriptions [post]
func (h *AndesHandler) CreatePrescription(c echo.Context) error {
	var body any
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	h.log.Info().Str("user_id", middleware.UserIDFrom(c)).Msg("andes prescription received")
	return c.JSON(http.StatusOK, andesResponse{Msg: "Success", Body: body})
}
