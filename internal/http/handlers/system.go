package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	intconfig "seatengine/internal/config"
	intdb "seatengine/internal/db"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
	driver   = "memory"
)

// SetRouter stores the active gin engine for later inspection (e.g., /api/routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

// SetStorageDriver records which store backs the engine.
func SetStorageDriver(name string) {
	routerMu.Lock()
	defer routerMu.Unlock()
	driver = name
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "seat engine running"})
}

func DBCheck(c *gin.Context) {
	routerMu.RLock()
	d := driver
	routerMu.RUnlock()
	if d == "memory" {
		c.JSON(http.StatusOK, gin.H{"message": "in-memory store active", "driver": d})
		return
	}
	if err := intconfig.EnsureDB(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "database unreachable", "error": err.Error(), "retryable": true})
		return
	}
	missing := intdb.MissingTables(c.Request.Context(), intconfig.DB)
	if len(missing) > 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "schema incomplete", "missing_tables": missing})
		return
	}
	if cols := intdb.MissingColumns(c.Request.Context(), intconfig.DB); len(cols) > 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "schema outdated", "missing_columns": cols})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK", "driver": d})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "router not ready"})
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
