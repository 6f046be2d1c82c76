// Package statusapi serves the local operator HTTP API: readiness,
// door/server status, recent events, manual override and the PDF access
// report. It binds to localhost by default and performs no
// authentication; exposure beyond the device is a deployment decision.
package statusapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OpelShniopel/doorctl/internal/audit"
)

// Service is what the handlers need from the rest of the system. The
// service wires an adapter over the door controller, the audit log and
// the reachability probe; tests inject fakes.
type Service interface {
	DoorState() string
	Override(source string)
	ServerReachable() (reachable bool, lastCheck time.Time)
	Recent(n int) []audit.Entry
	Counters() (granted, denied, overrides int)
}

type handler struct {
	svc        Service
	deviceUUID string
}

// New builds the gin engine with all routes registered.
func New(svc Service, deviceUUID string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	h := &handler{svc: svc, deviceUUID: deviceUUID}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthcheck", h.healthcheck)
	r.GET("/status", h.status)
	r.GET("/events", h.events)
	r.POST("/override", h.override)
	r.GET("/report.pdf", h.report)
	return r
}

func (h *handler) healthcheck(c *gin.Context) {
	reachable, _ := h.svc.ServerReachable()
	status := http.StatusOK
	if !reachable {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ready": reachable})
}

func (h *handler) status(c *gin.Context) {
	reachable, lastCheck := h.svc.ServerReachable()
	granted, denied, overrides := h.svc.Counters()
	c.JSON(http.StatusOK, gin.H{
		"device":          h.deviceUUID,
		"door":            h.svc.DoorState(),
		"serverReachable": reachable,
		"lastProbe":       lastCheck.UTC().Format(time.RFC3339),
		"granted":         granted,
		"denied":          denied,
		"overrides":       overrides,
	})
}

func (h *handler) events(c *gin.Context) {
	n := 50
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		n = parsed
	}
	c.JSON(http.StatusOK, gin.H{"events": h.svc.Recent(n)})
}

func (h *handler) override(c *gin.Context) {
	source := c.Query("source")
	if source == "" {
		source = "api"
	}
	h.svc.Override(source)
	c.JSON(http.StatusOK, gin.H{"door": h.svc.DoorState()})
}

func (h *handler) report(c *gin.Context) {
	entries := h.svc.Recent(0)
	pdf, err := audit.Report(entries, h.deviceUUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="access-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
