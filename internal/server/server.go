// Package server is a local stand-in for the /comments endpoint, with knobs
// for latency and forced failures so optimistic rollbacks can be watched.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	pkgerrors "github.com/pkg/errors"

	"github.com/idilsaglam/comments/internal/model"
	"github.com/idilsaglam/comments/internal/store/jsonstore"
)

// Operations that can be forced to fail.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

type Options struct {
	Latency time.Duration
	Fail    []string
	Quiet   bool // no request log
}

type Handler struct {
	store   *jsonstore.Store
	latency time.Duration
	fail    map[string]bool
}

func NewHandler(store *jsonstore.Store, opt Options) (*Handler, error) {
	fail := map[string]bool{}
	for _, op := range opt.Fail {
		op = strings.ToLower(strings.TrimSpace(op))
		if op == "" {
			continue
		}
		switch op {
		case OpList, OpCreate, OpUpdate, OpDelete:
			fail[op] = true
		default:
			return nil, pkgerrors.Errorf("unknown operation %q (want list, create, update or delete)", op)
		}
	}
	return &Handler{store: store, latency: opt.Latency, fail: fail}, nil
}

// New builds the echo instance with middleware and routes.
func New(h *Handler, opt Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if !opt.Quiet {
		e.Use(middleware.Logger())
	}
	h.RegisterRoutes(e)
	return e
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/comments", h.simulate)
	g.GET("", h.handleList)
	g.POST("", h.handleCreate)
	g.GET("/:id", h.handleGet)
	g.PATCH("/:id", h.handlePatch)
	g.DELETE("/:id", h.handleDelete)
}

// simulate delays every request and answers 500 for operations set to fail.
func (h *Handler) simulate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.latency > 0 {
			select {
			case <-time.After(h.latency):
			case <-c.Request().Context().Done():
				return c.Request().Context().Err()
			}
		}
		if h.fail[operation(c.Request().Method)] {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "forced failure"})
		}
		return next(c)
	}
}

func operation(method string) string {
	switch method {
	case http.MethodPost:
		return OpCreate
	case http.MethodPatch, http.MethodPut:
		return OpUpdate
	case http.MethodDelete:
		return OpDelete
	default:
		return OpList
	}
}

func (h *Handler) handleList(c echo.Context) error {
	postID := 0
	if q := c.QueryParam("postId"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid postId"})
		}
		postID = n
	}
	return c.JSON(http.StatusOK, h.store.List(postID))
}

func (h *Handler) handleGet(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	cm, err := h.store.Get(id)
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusOK, cm)
}

func (h *Handler) handleCreate(c echo.Context) error {
	var cm model.Comment
	if err := c.Bind(&cm); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	created, err := h.store.Create(cm)
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) handlePatch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var patch model.Comment
	if err := (&echo.DefaultBinder{}).BindBody(c, &patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	updated, err := h.store.Patch(id, patch)
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) handleDelete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.store.Delete(id); err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{})
}

func (h *Handler) storeError(c echo.Context, err error) error {
	if errors.Is(err, jsonstore.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("store: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, pkgerrors.Errorf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

// Serve runs e on addr until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return pkgerrors.Wrap(err, "serve")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return pkgerrors.Wrap(err, "shutdown")
		}
		return nil
	}
}
