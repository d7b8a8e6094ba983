package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/recetar/recetar-api/internal/api/metrics"
	"github.com/recetar/recetar-api/internal/core/ports"
)

type SupplyHandler struct {
	supplyService ports.SupplyService
}

func NewSupplyHandler(supplyService ports.SupplyService) *SupplyHandler {
	return &SupplyHandler{supplyService: supplyService}
}

// List returns the whole catalog.
//
// @Summary      List supplies
// @Tags         supplies
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  supplyListResponse
// @Router       /supplies [get]
func (h *SupplyHandler) List(c echo.Context) error {
	supplies, err := h.supplyService.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, supplyListResponse{Supplies: supplies})
}

// Create adds a supply to the catalog.
//
// @Summary      Create a supply
// @Tags         supplies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      supplyRequest  true  "Supply"
// @Success      200   {object}  newSupplyResponse
// @Failure      422   {object}  map[string]any
// @Router       /supplies [post]
func (h *SupplyHandler) Create(c echo.Context) error {
	var req supplyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	supply, err := h.supplyService.Create(c.Request().Context(), ports.SupplyInput{
		Name:               req.Name,
		ActivePrinciple:    req.ActivePrinciple,
		Power:              req.Power,
		Unity:              req.Unity,
		FirstPresentation:  req.FirstPresentation,
		SecondPresentation: req.SecondPresentation,
		Description:        req.Description,
		Observation:        req.Observation,
		PharmaceuticalForm: req.PharmaceuticalForm,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSupplyResponse{NewSupply: supply})
}

// Show returns one supply.
//
// @Summary      Get a supply
// @Tags         supplies
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Supply id"
// @Success      200  {object}  domain.Supply
// @Failure      404  {object}  map[string]string
// @Router       /supplies/{id} [get]
func (h *SupplyHandler) Show(c echo.Context) error {
	supply, err := h.supplyService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, supply)
}

// Update patches a supply.
//
// @Summary      Update a supply
// @Tags         supplies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Supply id"
// @Param        body  body      object  true  "Fields to change"
// @Success      200   {object}  domain.Supply
// @Failure      404   {object}  map[string]string
// @Router       /supplies/{id} [patch]
func (h *SupplyHandler) Update(c echo.Context) error {
	patch, err := bindPatch(c)
	if err != nil {
		return err
	}

	supply, err := h.supplyService.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, supply)
}

// Delete removes a supply.
//
// @Summary      Delete a supply
// @Tags         supplies
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Supply id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  map[string]string
// @Router       /supplies/{id} [delete]
func (h *SupplyHandler) Delete(c echo.Context) error {
	if err := h.supplyService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "deleted"})
}

// SearchByName looks supplies up by name.
//
// @Summary      Search supplies by name
// @Tags         supplies
// @Produce      json
// @Security     BearerAuth
// @Param        supplyName  query     string  true  "Name or words of the name"
// @Success      200         {array}   domain.SupplyMatch
// @Router       /supplies/get-by-name [get]
func (h *SupplyHandler) SearchByName(c echo.Context) error {
	query := c.QueryParam("supplyName")

	matches, err := h.supplyService.SearchByName(c.Request().Context(), query)
	if err != nil {
		return err
	}

	metrics.SupplySearchesTotal.WithLabelValues(searchMode(query)).Inc()
	return c.JSON(http.StatusOK, matches)
}

func searchMode(query string) string {
	switch n := len(strings.Fields(query)); {
	case n == 0:
		return "empty"
	case n == 1:
		return "regex"
	default:
		return "text"
	}
}
