// Package api exposes the inventory over JSON/HTTP with gin.
package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Spok95/school-supply/internal/access"
)

type handler struct {
	Deps
	log  *slog.Logger
	auth AuthService
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	cfg.AddExposeHeaders("Content-Length", "Content-Disposition", "X-Request-ID")
	return cfg
}

// NewRouter wires every route. metricsEnabled exposes /metrics on the same listener.
func NewRouter(d Deps, metricsEnabled bool) *gin.Engine {
	registerValidators()

	h := &handler{Deps: d, log: d.Log, auth: d.Auth}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.ServiceName))
	r.Use(requestLog(d.Log))
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	r.GET("/health", h.health)
	if metricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.POST("/auth/login", h.login)

	authed := api.Group("", h.authenticate)
	authed.GET("/auth/me", h.me)
	authed.POST("/auth/logout", h.logout)
	authed.GET("/dashboard/stats", h.allow(access.ViewDashboard), h.dashboardStats)

	m := authed.Group("/materials")
	m.GET("", h.allow(access.ViewCatalog), h.listMaterials)
	m.GET("/search", h.allow(access.ViewCatalog), h.searchMaterials)
	m.GET("/low-stock", h.allow(access.ViewStock), h.lowStockMaterials)
	m.GET("/:id", h.allow(access.ViewCatalog), h.getMaterial)
	m.GET("/:id/movements", h.allow(access.ViewStock), h.materialMovements)
	m.POST("", h.allow(access.ManageCatalog), h.createMaterial)
	m.PUT("/:id", h.allow(access.ManageCatalog), h.updateMaterial)
	m.DELETE("/:id", h.allow(access.ManageCatalog), h.deleteMaterial)

	s := authed.Group("/suppliers")
	s.GET("", h.allow(access.ViewCatalog), h.listSuppliers)
	s.GET("/:id", h.allow(access.ViewCatalog), h.getSupplier)
	s.POST("", h.allow(access.ManageCatalog), h.createSupplier)
	s.PUT("/:id", h.allow(access.ManageCatalog), h.updateSupplier)
	s.DELETE("/:id", h.allow(access.ManageCatalog), h.deleteSupplier)

	e := authed.Group("/stock-entries")
	e.GET("", h.allow(access.ViewStock), h.listEntries)
	e.GET("/:id", h.allow(access.ViewStock), h.getEntry)
	e.POST("", h.allow(access.ReceiveStock), h.createEntry)
	e.POST("/import", h.allow(access.ReceiveStock), h.importEntries)
	e.PUT("/:id", h.allow(access.AdjustStock), h.updateEntry)
	e.DELETE("/:id", h.allow(access.AdjustStock), h.deleteEntry)

	q := authed.Group("/requests")
	q.GET("", h.allow(access.ViewRequests), h.listRequests)
	q.GET("/:id", h.allow(access.ViewRequests), h.getRequest)
	q.POST("", h.allow(access.CreateRequest), h.createRequest)
	q.PUT("/:id", h.allow(access.CreateRequest), h.updateRequest)
	q.PUT("/:id/approve", h.allow(access.DecideRequests), h.approveRequest)
	q.PUT("/:id/dispatch", h.allow(access.DecideRequests), h.dispatchRequest)
	q.PUT("/:id/reject", h.allow(access.DecideRequests), h.rejectRequest)
	q.PUT("/:id/cancel", h.allow(access.CreateRequest), h.cancelRequest)

	u := authed.Group("/users", h.allow(access.ManageUsers))
	u.GET("", h.listUsers)
	u.GET("/:id", h.getUser)
	u.POST("", h.createUser)
	u.PUT("/:id", h.updateUser)
	u.DELETE("/:id", h.deleteUser)

	rep := authed.Group("/reports", h.allow(access.ExportReports))
	rep.GET("/stock.xlsx", h.stockReport)
	rep.GET("/stock-entries.xlsx", h.entriesReport)

	return r
}

func (h *handler) health(c *gin.Context) {
	if h.Ready != nil {
		if err := h.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// pathID parses :id, answering 400 itself when it is not a positive integer.
func (h *handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, "id inválido")
		return 0, false
	}
	return id, true
}

func created(c *gin.Context, id int64, msg string) {
	c.JSON(http.StatusCreated, gin.H{"id": id, "message": msg})
}

func message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
