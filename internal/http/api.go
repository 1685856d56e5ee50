package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"comment-board/internal/auth"
	"comment-board/internal/domain"
	"comment-board/internal/metrics"
	"comment-board/internal/repository"
	"comment-board/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users         service.UserService
	comments      service.CommentService
	tokens        *auth.TokenManager
	secureCookies bool
	logger        *logrus.Logger
}

func NewHandler(users service.UserService, comments service.CommentService, tokens *auth.TokenManager, secureCookies bool, logger *logrus.Logger) *Handler {
	return &Handler{
		users:         users,
		comments:      comments,
		tokens:        tokens,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(metrics.GinMiddleware())
	router.Use(h.routeGuard())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// page routes the guard acts on; the board itself is public
	router.GET("/", h.listComments)
	router.GET("/login", pageInfo("login"))
	router.GET("/register", pageInfo("register"))
	router.GET("/dashboard", h.dashboard)

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.POST("/auth/logout", h.logout)
		api.GET("/me", h.me)

		api.GET("/comments", h.listComments)
		api.POST("/comments", h.createComment)
		api.PUT("/comments/:id", h.updateComment)
		api.DELETE("/comments/:id", h.deleteComment)

		api.GET("/dashboard", h.dashboard)
		api.PUT("/profile", h.updateProfile)
		api.DELETE("/account", h.deleteAccount)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func pageInfo(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"page": name})
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, username and password are required"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Username, req.Password)
	if err != nil {
		metrics.AuthOps.WithLabelValues("register", "error").Inc()
		h.writeError(c, err)
		return
	}

	metrics.AuthOps.WithLabelValues("register", "ok").Inc()
	c.JSON(http.StatusCreated, userToResponse(user))
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		metrics.AuthOps.WithLabelValues("login", "denied").Inc()
		h.writeError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		metrics.AuthOps.WithLabelValues("login", "error").Inc()
		h.writeError(c, err)
		return
	}

	h.setAuthCookie(c, token)
	metrics.AuthOps.WithLabelValues("login", "ok").Inc()
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) logout(c *gin.Context) {
	h.clearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) me(c *gin.Context) {
	identity := h.currentUser(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, identityToResponse(identity))
}

func (h *Handler) listComments(c *gin.Context) {
	comments, err := h.comments.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]CommentResponse, len(comments))
	for i := range comments {
		resp[i] = commentToResponse(comments[i])
	}
	c.JSON(http.StatusOK, resp)
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) createComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), h.currentUser(c), req.Text)
	if err != nil {
		metrics.CommentOps.WithLabelValues("create", outcomeLabel(err)).Inc()
		h.writeError(c, err)
		return
	}

	metrics.CommentOps.WithLabelValues("create", "ok").Inc()
	c.JSON(http.StatusCreated, commentToResponse(*comment))
}

func (h *Handler) updateComment(c *gin.Context) {
	id, ok := commentID(c)
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	if err := h.comments.Update(c.Request.Context(), h.currentUser(c), id, req.Text); err != nil {
		metrics.CommentOps.WithLabelValues("update", outcomeLabel(err)).Inc()
		h.writeError(c, err)
		return
	}

	metrics.CommentOps.WithLabelValues("update", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"updated": id})
}

func (h *Handler) deleteComment(c *gin.Context) {
	id, ok := commentID(c)
	if !ok {
		return
	}

	if err := h.comments.Delete(c.Request.Context(), h.currentUser(c), id); err != nil {
		metrics.CommentOps.WithLabelValues("delete", outcomeLabel(err)).Inc()
		h.writeError(c, err)
		return
	}

	metrics.CommentOps.WithLabelValues("delete", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) dashboard(c *gin.Context) {
	identity := h.currentUser(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	profile, err := h.users.GetProfile(c.Request.Context(), identity.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileToResponse(profile))
}

type updateProfileRequest struct {
	Name            string `json:"name" binding:"required"`
	Username        string `json:"username" binding:"required"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	identity := h.currentUser(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and username are required"})
		return
	}

	err := h.users.UpdateProfile(c.Request.Context(), identity.ID, service.UpdateProfileInput{
		Name:            req.Name,
		Username:        req.Username,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) deleteAccount(c *gin.Context) {
	identity := h.currentUser(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := h.users.DeleteAccount(c.Request.Context(), identity.ID); err != nil {
		h.writeError(c, err)
		return
	}

	h.clearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"deleted": identity.ID})
}

func commentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return 0, false
	}
	return id, true
}

// writeError maps service/repository errors onto HTTP statuses. Anything
// outside the known taxonomy is logged and reported as a generic failure
// so storage details never reach the client.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only modify your own comments"})
	case errors.Is(err, service.ErrWrongPassword):
		c.JSON(http.StatusForbidden, gin.H{"error": "current password is incorrect"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
	default:
		h.logger.Errorf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrUnauthenticated):
		return "denied"
	default:
		return "error"
	}
}

type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type IdentityResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type ProfileResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	CreatedAt    string `json:"created_at"`
	CommentCount int    `json:"comment_count"`
}

type CommentResponse struct {
	ID        int64          `json:"id"`
	Text      string         `json:"text"`
	Author    AuthorResponse `json:"author"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

type AuthorResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func identityToResponse(identity *domain.Identity) IdentityResponse {
	return IdentityResponse{
		ID:       identity.ID,
		Username: identity.Username,
		Role:     identity.Role,
	}
}

func profileToResponse(profile *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:           profile.ID,
		Name:         profile.Name,
		Username:     profile.Username,
		Role:         profile.Role,
		CreatedAt:    profile.CreatedAt.Format(time.RFC3339),
		CommentCount: profile.CommentCount,
	}
}

func commentToResponse(comment domain.Comment) CommentResponse {
	return CommentResponse{
		ID:   comment.ID,
		Text: comment.Text,
		Author: AuthorResponse{
			ID:       comment.Author.ID,
			Name:     comment.Author.Name,
			Username: comment.Author.Username,
		},
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
		UpdatedAt: comment.UpdatedAt.Format(time.RFC3339),
	}
}
