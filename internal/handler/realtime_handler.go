package handler

import (
	"strings"

	"marketplace-service/internal/realtime"
	"marketplace-service/internal/service"
	"marketplace-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var knownTables = map[string]bool{
	realtime.TableProfiles:   true,
	realtime.TableSuppliers:  true,
	realtime.TableProducts:   true,
	realtime.TableOrders:     true,
	realtime.TableOrderItems: true,
	realtime.TableFavorites:  true,
	realtime.TableMessages:   true,
}

var defaultTables = []string{realtime.TableOrders, realtime.TableProducts}

// RealtimeHandler upgrades requests to the change feed websocket
type RealtimeHandler struct {
	bridge   *realtime.Bridge
	profiles *service.ProfileResolver
}

func NewRealtimeHandler(bridge *realtime.Bridge, profiles *service.ProfileResolver) *RealtimeHandler {
	return &RealtimeHandler{bridge: bridge, profiles: profiles}
}

// Stream subscribes the client to ?tables= (comma separated) for ?events=.
// Order, message and favorite changes only reach the profiles they concern.
func (h *RealtimeHandler) Stream(c echo.Context) error {
	tables := defaultTables
	if raw := c.QueryParam("tables"); raw != "" {
		tables = nil
		seen := make(map[string]bool)
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			if !knownTables[t] {
				return respondError(c, badRequest("tables", "unknown table "+t))
			}
			if !seen[t] {
				seen[t] = true
				tables = append(tables, t)
			}
		}
	}

	mask, err := realtime.ParseEvents(c.QueryParam("events"))
	if err != nil {
		return respondError(c, badRequest("events", err.Error()))
	}

	viewer, err := h.profiles.Resolve(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	log := logger.FromContext(c)
	if err := h.bridge.Serve(c.Response(), c.Request(), tables, mask, viewer.ID, log); err != nil {
		// the upgrader already wrote the HTTP error
		log.Warn("Websocket upgrade failed", zap.Error(err))
	}
	return nil
}
