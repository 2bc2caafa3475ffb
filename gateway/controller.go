package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripgate/tripgate/database/model"
	"github.com/tripgate/tripgate/middleware"
	"github.com/tripgate/tripgate/token"
)

// Controller wires the gateway's protected routes: authenticate, check the
// per-route role allow-list, then hand off to the relay.
type Controller struct {
	relay  *Relay
	health *HealthJob
}

func NewController(g *gin.RouterGroup, relay *Relay, health *HealthJob, codec *token.Codec) *Controller {
	c := &Controller{relay: relay, health: health}

	// Any authenticated role may read its own profile.
	g.GET("/profile", middleware.BearerAuth(codec), c.profile)

	// The listing is role-gated; both provisioned roles qualify today but
	// the allow-list is the contract.
	g.GET("/destinations",
		middleware.BearerAuth(codec),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
		c.destinations,
	)

	g.GET("/healthz", c.healthz)

	return c
}

func (c *Controller) profile(ctx *gin.Context) {
	c.relay.Forward(ctx, c.relay.identityURL, "/profile")
}

func (c *Controller) destinations(ctx *gin.Context) {
	c.relay.Forward(ctx, c.relay.destinationURL, "/destinations")
}

func (c *Controller) healthz(ctx *gin.Context) {
	backends := c.health.Snapshot()
	status := "ok"
	for _, st := range backends {
		if !st.Up {
			status = "degraded"
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"status": status, "backends": backends})
}
