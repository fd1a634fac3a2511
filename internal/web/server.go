// Package web assembles the map app's HTTP surface: the page, the JSON API,
// the admin endpoints and the live-refresh socket.
package web

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scholarmap/internal/auth"
	"scholarmap/internal/live"
	"scholarmap/internal/locations"
	"scholarmap/internal/logging"
	"scholarmap/pkg/config"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static/*
var staticFiles embed.FS

// Deps is everything the router needs. DB is only used by /ready.
type Deps struct {
	Config config.Config
	DB     *sql.DB
	Store  *locations.Store
	Repo   *locations.Repo
	Hub    *live.Hub
	Log    *zap.Logger
}

type pageData struct {
	SiteTitle    string
	ContactEmail string
	TypeChoices  []string
	AllTypes     string
}

// NewRouter builds the gin engine. It does not start listening.
func NewRouter(d Deps) (*gin.Engine, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("static files: %w", err)
	}

	r := gin.New()
	r.Use(logging.GinMiddleware(d.Log), gin.Recovery())
	if d.Config.Map.TrustedProxy != "" {
		if err := r.SetTrustedProxies([]string{d.Config.Map.TrustedProxy}); err != nil {
			return nil, fmt.Errorf("trusted proxies: %w", err)
		}
	}
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(static))

	page := pageData{
		SiteTitle:    d.Config.Map.SiteTitle,
		ContactEmail: d.Config.Map.ContactEmail,
		TypeChoices:  locations.TypeChoices,
		AllTypes:     locations.AllTypes,
	}
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", page)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "locations": d.Store.Len()})
	})
	r.GET("/ready", ready(d))
	r.GET("/ws", live.WSHandler(d.Hub))

	tokens := auth.TokenService{
		Secret:   []byte(d.Config.Auth.JWTSecret),
		Issuer:   d.Config.Auth.JWTIssuer,
		Duration: d.Config.Auth.JWTDuration,
	}
	auth.NewHandler(d.Config.Auth.AdminPasswordHash, tokens, d.Log).RegisterRoutes(r.Group("/auth"))

	mapOpts := locations.MapOptions{
		Fallback: locations.LatLng{d.Config.Map.DefaultLat, d.Config.Map.DefaultLng},
		Zoom:     d.Config.Map.Zoom,
	}
	h := locations.NewHandler(d.Store, d.Repo, d.Hub, mapOpts, d.Log)

	api := r.Group("/api")
	h.RegisterRoutes(api)
	h.RegisterAdminRoutes(api.Group("", auth.AdminMiddleware(tokens)))

	return r, nil
}

func ready(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := d.Hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := d.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	}
}
