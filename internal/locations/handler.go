package locations

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scholarmap/internal/live"
	"scholarmap/pkg/models"
)

// Notifier fans change events out to connected pages. *live.Hub
// implements it.
type Notifier interface {
	Broadcast(ev live.Event) live.Event
}

type Handler struct {
	Store *Store
	Repo  *Repo
	Live  Notifier
	Map   MapOptions
	Log   *zap.Logger
}

func NewHandler(store *Store, repo *Repo, notifier Notifier, mapOpts MapOptions, log *zap.Logger) *Handler {
	return &Handler{Store: store, Repo: repo, Live: notifier, Map: mapOpts, Log: log}
}

// RegisterRoutes mounts the public read endpoints. All of them accept
// ?type= and ?q= filters.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/locations", h.list)
	rg.GET("/locations/:name", h.getByName)
	rg.GET("/map", h.mapView) // ?view=dc|other
	rg.GET("/table", h.table)
}

// RegisterAdminRoutes mounts the write endpoints. rg must already carry
// the auth middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/locations", h.create)
	rg.PUT("/locations/:name", h.update)
	rg.DELETE("/locations/:name", h.remove)
}

func queryFrom(c *gin.Context) Query {
	return Query{Type: c.DefaultQuery("type", AllTypes), Text: c.Query("q")}
}

func (h *Handler) filtered(c *gin.Context) []models.Location {
	return Filter(h.Store.Snapshot(), queryFrom(c))
}

func (h *Handler) list(c *gin.Context) {
	items := h.filtered(c)
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) getByName(c *gin.Context) {
	l, ok := h.Store.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *Handler) mapView(c *gin.Context) {
	view := View(strings.ToLower(c.DefaultQuery("view", string(ViewDC))))
	if view != ViewDC && view != ViewOther {
		c.JSON(http.StatusBadRequest, gin.H{"error": "view must be dc or other"})
		return
	}
	mv, err := BuildMap(view, h.filtered(c), h.Map)
	if err != nil {
		h.Log.Error("build map", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "map failed"})
		return
	}
	c.JSON(http.StatusOK, mv)
}

func (h *Handler) table(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"columns": TableColumns,
		"rows":    TableRows(h.filtered(c)),
	})
}

type locationReq struct {
	Name        string  `json:"loc_name"`
	City        string  `json:"city_name"`
	Type        string  `json:"loc_type"`
	TypeSpecial string  `json:"type_special"`
	Address     string  `json:"loc_address"`
	Vibe        string  `json:"loc_vibe"`
	Rating      string  `json:"loc_rating"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Tags        *string `json:"loc_tags"`
	Description string  `json:"loc_descr"`
}

func (r locationReq) toModel() models.Location {
	l := models.Location{
		Name:        strings.TrimSpace(r.Name),
		City:        strings.TrimSpace(r.City),
		Type:        NormalizeType(r.Type),
		TypeSpecial: strings.TrimSpace(r.TypeSpecial),
		Address:     strings.TrimSpace(r.Address),
		Vibe:        strings.TrimSpace(r.Vibe),
		Rating:      strings.TrimSpace(r.Rating),
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Description: strings.TrimSpace(r.Description),
	}
	if r.Tags != nil {
		if t := strings.TrimSpace(*r.Tags); t != "" {
			l.Tags = &t
		}
	}
	return l
}

// validate enforces the declared column widths and coordinate ranges.
func validate(l models.Location) string {
	switch {
	case l.Name == "" || len(l.Name) > 60:
		return "loc_name must be 1-60 chars"
	case l.City == "" || len(l.City) > 30:
		return "city_name must be 1-30 chars"
	case l.Type == "" || len(l.Type) > 30:
		return "loc_type must be 1-30 chars"
	case len(l.TypeSpecial) > 30:
		return "type_special must be at most 30 chars"
	case l.Address == "" || len(l.Address) > 120:
		return "loc_address must be 1-120 chars"
	case len(l.Vibe) > 30:
		return "loc_vibe must be at most 30 chars"
	case len(l.Rating) > 60:
		return "loc_rating must be at most 60 chars"
	case l.Tags != nil && len(*l.Tags) > 60:
		return "loc_tags must be at most 60 chars"
	case len(l.Description) > 50:
		return "loc_descr must be at most 50 chars"
	case l.Latitude < -90 || l.Latitude > 90:
		return "latitude out of range"
	case l.Longitude < -180 || l.Longitude > 180:
		return "longitude out of range"
	}
	return ""
}

func (h *Handler) create(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	l := req.toModel()
	if msg := validate(l); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	existing, err := h.Repo.Get(c.Request.Context(), l.Name)
	if err != nil {
		h.Log.Error("get location", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "location already exists"})
		return
	}

	if !h.write(c, l) {
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *Handler) update(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Name = c.Param("name")
	l := req.toModel()
	if msg := validate(l); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	existing, err := h.Repo.Get(c.Request.Context(), l.Name)
	if err != nil {
		h.Log.Error("get location", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if !h.write(c, l) {
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *Handler) write(c *gin.Context, l models.Location) bool {
	if err := h.Repo.Upsert(c.Request.Context(), l); err != nil {
		h.Log.Error("upsert location", zap.String("name", l.Name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return false
	}
	h.changed(c, "upsert", l.Name)
	return true
}

func (h *Handler) remove(c *gin.Context) {
	name := c.Param("name")
	ok, err := h.Repo.Delete(c.Request.Context(), name)
	if err != nil {
		h.Log.Error("delete location", zap.String("name", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.changed(c, "delete", name)
	c.Status(http.StatusNoContent)
}

// changed refreshes the store and tells open pages to re-query.
func (h *Handler) changed(c *gin.Context, op, name string) {
	if err := h.Store.Reload(c.Request.Context()); err != nil {
		h.Log.Error("reload locations", zap.Error(err))
	}
	if h.Live == nil {
		h.Log.Info("location changed", zap.String("op", op), zap.String("name", name))
		return
	}
	ev := h.Live.Broadcast(live.Event{
		Type: live.LocationsChanged,
		Op:   op,
		Name: name,
		At:   time.Now().UTC(),
	})
	h.Log.Info("location changed", zap.String("op", op), zap.String("name", name), zap.Uint64("seq", ev.Seq))
}
