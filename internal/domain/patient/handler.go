package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const deletedMessage = "Patient deleted successfully"

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/patients", h.CreatePatient)
	g.GET("/patients", h.ListPatients)
	g.GET("/patients/:ci", h.GetPatient)
	g.PUT("/patients/:ci", h.UpdatePatient)
	g.DELETE("/patients/:ci", h.DeletePatient)
}

// messageResponse is the body of non-record 200 responses.
type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return bindError(err)
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return h.fail(err, "failed to create patient")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	patients, err := h.svc.ListPatients(c.Request().Context())
	if errors.Is(err, ErrEmptyList) {
		h.logger.Error().Err(err).Msg("there are no patients in the list")
		return c.JSON(http.StatusOK, messageResponse{Message: err.Error()})
	}
	if err != nil {
		return h.fail(err, "failed to retrieve patients")
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.GetPatient(c.Request().Context(), c.Param("ci"))
	if err != nil {
		return h.fail(err, "failed to retrieve patient by CI")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), c.Param("ci"), req)
	if err != nil {
		return h.fail(err, "failed to update patient")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	if err := h.svc.DeletePatient(c.Request().Context(), c.Param("ci")); err != nil {
		return h.fail(err, "failed to delete patient")
	}
	return c.JSON(http.StatusOK, messageResponse{Message: deletedMessage})
}

// bindError keeps HTTP errors raised while reading the body, such as 413
// from the body limit, and turns everything else into a 400.
func bindError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code != http.StatusBadRequest {
		return httpErr
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
}

// fail maps a service error to an HTTP error. Domain errors are logged at
// info; anything else is a 500 that echoes the raw error message.
func (h *Handler) fail(err error, msg string) error {
	var validErr *ValidationError
	switch {
	case errors.As(err, &validErr):
		h.logger.Info().Err(err).Msg(msg)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmptyList):
		h.logger.Info().Err(err).Msg(msg)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		h.logger.Error().Err(err).Msg(msg)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
