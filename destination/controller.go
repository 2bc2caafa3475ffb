package destination

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tripgate/tripgate/entity"
	"github.com/tripgate/tripgate/token"
)

type createReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Location    string `json:"location" binding:"required"`
}

type updateReq struct {
	Description *string `json:"description"`
	Location    *string `json:"location"`
}

// Controller exposes the destination collection. Reads are public;
// mutations pass through AdminGuard.
type Controller struct {
	svc *Service
}

func NewController(g *gin.RouterGroup, codec *token.Codec) *Controller {
	c := &Controller{svc: &Service{}}

	g.GET("/destinations", c.list)
	g.GET("/healthz", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"ok": true}) })

	guarded := g.Group("/destinations")
	guarded.Use(AdminGuard(codec))
	{
		guarded.POST("", c.create)
		guarded.PUT("/:key", c.update)
		guarded.DELETE("/:id", c.delete)
	}

	return c
}

func (c *Controller) list(ctx *gin.Context) {
	destinations, err := c.svc.List()
	if err != nil {
		entity.JSONErr(ctx, http.StatusInternalServerError, "failed to list destinations", err)
		return
	}
	ctx.JSON(http.StatusOK, destinations)
}

func (c *Controller) create(ctx *gin.Context) {
	var req createReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		entity.JSONMsg(ctx, http.StatusBadRequest, false, "name, description and location are required")
		return
	}

	dest, err := c.svc.Create(req.Name, req.Description, req.Location)
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			entity.JSONMsg(ctx, http.StatusBadRequest, false, err.Error())
			return
		}
		entity.JSONErr(ctx, http.StatusInternalServerError, "failed to create destination", err)
		return
	}

	ctx.JSON(http.StatusCreated, entity.Msg{Success: true, Msg: "Destination added", Obj: dest})
}

func (c *Controller) update(ctx *gin.Context) {
	var req updateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		entity.JSONMsg(ctx, http.StatusBadRequest, false, "invalid request body")
		return
	}
	if req.Description == nil && req.Location == nil {
		entity.JSONMsg(ctx, http.StatusBadRequest, false, "at least one of description or location is required")
		return
	}

	dest, err := c.svc.Update(ctx.Param("key"), req.Description, req.Location)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			entity.JSONMsg(ctx, http.StatusNotFound, false, err.Error())
			return
		}
		entity.JSONErr(ctx, http.StatusInternalServerError, "failed to update destination", err)
		return
	}

	ctx.JSON(http.StatusOK, entity.Msg{Success: true, Msg: "Destination updated", Obj: dest})
}

func (c *Controller) delete(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		entity.JSONMsg(ctx, http.StatusNotFound, false, ErrNotFound.Error())
		return
	}

	if err := c.svc.Delete(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			entity.JSONMsg(ctx, http.StatusNotFound, false, err.Error())
			return
		}
		entity.JSONErr(ctx, http.StatusInternalServerError, "failed to delete destination", err)
		return
	}

	entity.JSONMsg(ctx, http.StatusOK, true, "Destination deleted")
}
