package identity

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tripgate/tripgate/entity"
	"github.com/tripgate/tripgate/middleware"
	"github.com/tripgate/tripgate/token"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("strongpw", func(fl validator.FieldLevel) bool {
			return StrongPassword(fl.Field().String())
		})
	}
}

type registerReq struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,strongpw"`
	Role      string `json:"role"`
	SecretKey string `json:"secret_key"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Controller exposes the credential issuer over HTTP.
type Controller struct {
	svc *Service
}

func NewController(g *gin.RouterGroup, svc *Service, codec *token.Codec) *Controller {
	c := &Controller{svc: svc}

	g.POST("/register", c.register)
	g.POST("/login", middleware.RateLimit(middleware.DefaultRateLimitConfig()), c.login)
	g.GET("/profile", middleware.BearerAuth(codec), c.profile)
	g.GET("/healthz", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"ok": true}) })

	return c
}

func (c *Controller) register(ctx *gin.Context) {
	var req registerReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		entity.JSONMsg(ctx, http.StatusBadRequest, false, bindErrMsg(err))
		return
	}

	role, err := c.svc.Register(req.Name, req.Email, req.Password, req.Role, req.SecretKey)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrBadAdminSecret) {
			status = http.StatusForbidden
		}
		entity.JSONMsg(ctx, status, false, err.Error())
		return
	}

	entity.JSONMsg(ctx, http.StatusCreated, true, fmt.Sprintf("%s registered successfully as %s", req.Name, role))
}

func (c *Controller) login(ctx *gin.Context) {
	var req loginReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		entity.JSONMsg(ctx, http.StatusBadRequest, false, "email and password are required")
		return
	}

	tok, err := c.svc.Login(req.Email, req.Password)
	if err != nil {
		// One message for unknown email and wrong password alike.
		entity.JSONMsg(ctx, http.StatusUnauthorized, false, ErrInvalidCredentials.Error())
		return
	}

	entity.JSONObj(ctx, http.StatusOK, gin.H{"token": tok})
}

func (c *Controller) profile(ctx *gin.Context) {
	claims := middleware.GetClaims(ctx)

	view, err := c.svc.Profile(claims.Email)
	if err != nil {
		if errors.Is(err, ErrUnknownSubject) {
			entity.JSONMsg(ctx, http.StatusNotFound, false, err.Error())
			return
		}
		entity.JSONErr(ctx, http.StatusInternalServerError, "failed to load profile", err)
		return
	}

	ctx.JSON(http.StatusOK, view)
}

// bindErrMsg turns binding failures into the validation messages the API
// promises, keeping weak-password and bad-email reasons recognizable.
func bindErrMsg(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "strongpw":
				return "password must be at least 8 characters with an uppercase letter, a lowercase letter, a digit and a symbol"
			case "email":
				return "invalid email address"
			}
		}
		return "name, email and password are required"
	}
	return "invalid request body"
}
