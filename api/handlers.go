package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Unknownuser10132/shiptivitas-2/domain"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, board Board, auth Authenticator, deduper Deduper, logger *log.Logger) {
	e.GET("/api/v1/clients", getClients(board, auth, logger))
	e.GET("/api/v1/clients/:id", getClient(board, auth))
	e.POST("/api/v1/clients", createClient(board, auth, deduper))
	e.PUT("/api/v1/clients/:id", updateClient(board, auth, deduper))
	e.DELETE("/api/v1/clients/:id", deleteClient(board, auth))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getClients(board Board, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newClientRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		var lane *domain.Status
		if raw := c.QueryParam("status"); raw != "" {
			lane, err = parseStatus(&raw)
			if err != nil {
				metrics.SetErrorStage("invalid_status_filter")
				err = c.String(http.StatusBadRequest, err.Error())
				return err
			}
			metrics.SetStatusFilter(raw)
		}

		fetchStart := time.Now()
		clients, fetchErr := board.ListClients(ctx, userID)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.String(http.StatusInternalServerError, fetchErr.Error())
			return err
		}
		if lane != nil {
			filtered := clients[:0:0]
			for _, cl := range clients {
				if cl.Status == *lane {
					filtered = append(filtered, cl)
				}
			}
			clients = filtered
		}
		metrics.SetClientsReturned(len(clients))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, clientsResponse{Clients: clients})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getClient(board Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		id, err := parseClientID(c.Param("id"))
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		client, err := board.GetClient(ctx, userID, id)
		if err != nil {
			return boardError(c, err)
		}
		return c.JSON(http.StatusOK, client)
	}
}

func createClient(board Board, auth Authenticator, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		lr := io.LimitReader(c.Request().Body, writeBodyMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()
		var req createClientRequest
		if err := dec.Decode(&req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if req.Name == "" {
			return c.String(http.StatusBadRequest, "missing name")
		}
		status, err := parseStatus(req.Status)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		if replayed, done := dedupe(c, deduper, userID); done {
			return replayed
		}
		client, err := board.CreateClient(ctx, userID, req.Name, req.Description, status)
		if err != nil {
			rollbackDedupe(c, deduper, userID)
			return boardError(c, err)
		}
		return c.JSON(http.StatusCreated, client)
	}
}

func updateClient(board Board, auth Authenticator, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		id, err := parseClientID(c.Param("id"))
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		lr := io.LimitReader(c.Request().Body, writeBodyMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()
		var req updateClientRequest
		if err := dec.Decode(&req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		status, err := parseStatus(req.Status)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		if err := validatePriority(req.Priority); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		if replayed, done := dedupe(c, deduper, userID); done {
			return replayed
		}
		clients, err := board.MoveClient(ctx, userID, id, status, req.Priority)
		if err != nil {
			rollbackDedupe(c, deduper, userID)
			return boardError(c, err)
		}
		return c.JSON(http.StatusOK, clientsResponse{Clients: clients})
	}
}

func deleteClient(board Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		id, err := parseClientID(c.Param("id"))
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		clients, err := board.DeleteClient(ctx, userID, id)
		if err != nil {
			return boardError(c, err)
		}
		return c.JSON(http.StatusOK, clientsResponse{Clients: clients})
	}
}

// dedupe consumes the request's idempotency key, if any. When the key was
// seen before the write is acknowledged with a 200 and no board mutation.
// Deduper outages fail open: the write proceeds as if the key were fresh.
func dedupe(c echo.Context, deduper Deduper, userID string) (error, bool) {
	key := c.Request().Header.Get(idempotencyKeyHeader)
	if key == "" || deduper == nil {
		return nil, false
	}
	fresh, err := deduper.Add(c.Request().Context(), userID, key)
	if err != nil || fresh {
		return nil, false
	}
	return c.NoContent(http.StatusOK), true
}

// rollbackDedupe releases the request's idempotency key after a failed write
// so the caller may retry with the same key.
func rollbackDedupe(c echo.Context, deduper Deduper, userID string) {
	key := c.Request().Header.Get(idempotencyKeyHeader)
	if key == "" || deduper == nil {
		return
	}
	_ = deduper.Remove(c.Request().Context(), userID, key)
}

func boardError(c echo.Context, err error) error {
	var unknownErr domain.UnknownTargetError
	if errors.As(err, &unknownErr) {
		return c.String(http.StatusNotFound, err.Error())
	}
	var statusErr domain.InvalidStatusError
	if errors.As(err, &statusErr) {
		return c.String(http.StatusBadRequest, err.Error())
	}
	c.Logger().Error(err)
	return c.String(http.StatusInternalServerError, "internal error")
}
