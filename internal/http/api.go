package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-backend/internal/auth"
	"todo-backend/internal/domain"
	"todo-backend/internal/service"
	"todo-backend/internal/storage"
)

// TokenValidator turns a bearer token into the identity it asserts.
type TokenValidator interface {
	Validate(token string) (domain.Identity, error)
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	todos   service.TodoService
	exports service.ExportService
	tokens  TokenValidator
	logger  logrus.FieldLogger
}

func NewHandler(users service.UserService, todos service.TodoService, exports service.ExportService, tokens TokenValidator, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		users:   users,
		todos:   todos,
		exports: exports,
		tokens:  tokens,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/", h.register)
		authGroup.POST("/token", h.login)
	}

	secured := router.Group("", h.authenticate())
	{
		secured.GET("/", h.listTodos)
		secured.POST("/todos", h.createTodo)
		secured.GET("/todos/:id", h.getTodo)
		secured.PUT("/todos/:id", h.updateTodo)
		secured.DELETE("/todos/:id", h.deleteTodo)

		secured.GET("/user/", h.currentUser)
		secured.PUT("/user/update_password", h.updatePassword)
	}

	admin := secured.Group("/admin", requireAdmin())
	{
		admin.GET("/todos", h.listAllTodos)
		admin.DELETE("/todos/:id", h.adminDeleteTodo)
		admin.POST("/todos/export", h.exportTodos)
		admin.GET("/exports", h.listExports)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, WWW-Authenticate")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type createUserRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" binding:"required"`
	Role      string `json:"role" binding:"required"`
}

type loginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type todoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Completed   bool   `json:"completed"`
}

func (r todoRequest) input() service.TodoInput {
	return service.TodoInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Completed:   r.Completed,
	}
}

type updatePasswordRequest struct {
	Password    string `json:"password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindingError(err))
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.writeError(c, bindingError(err))
		return
	}

	token, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: token.AccessToken, TokenType: token.TokenType})
}

func (h *Handler) listTodos(c *gin.Context) {
	todos, err := h.todos.List(c.Request.Context(), auth.IdentityFromContext(c.Request.Context()))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todosToResponse(todos))
}

func (h *Handler) getTodo(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	todo, err := h.todos.Get(c.Request.Context(), auth.IdentityFromContext(c.Request.Context()), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(*todo))
}

func (h *Handler) createTodo(c *gin.Context) {
	var req todoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindingError(err))
		return
	}

	todo, err := h.todos.Create(c.Request.Context(), auth.IdentityFromContext(c.Request.Context()), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todoToResponse(*todo))
}

func (h *Handler) updateTodo(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	var req todoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindingError(err))
		return
	}

	if _, err := h.todos.Update(c.Request.Context(), auth.IdentityFromContext(c.Request.Context()), id, req.input()); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteTodo(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.todos.Delete(c.Request.Context(), auth.IdentityFromContext(c.Request.Context()), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) currentUser(c *gin.Context) {
	user, err := h.users.Current(c.Request.Context(), auth.IdentityFromContext(c.Request.Context()))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) updatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindingError(err))
		return
	}

	err := h.users.ChangePassword(c.Request.Context(), auth.IdentityFromContext(c.Request.Context()), req.Password, req.NewPassword)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listAllTodos(c *gin.Context) {
	todos, err := h.todos.ListAll(c.Request.Context(), auth.IdentityFromContext(c.Request.Context()))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todosToResponse(todos))
}

func (h *Handler) adminDeleteTodo(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.todos.AdminDelete(c.Request.Context(), auth.IdentityFromContext(c.Request.Context()), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) exportTodos(c *gin.Context) {
	if h.exports == nil {
		h.writeError(c, domain.ErrStorageUnavailable)
		return
	}

	location, err := h.exports.Export(c.Request.Context(), auth.IdentityFromContext(c.Request.Context()))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"location": location})
}

func (h *Handler) listExports(c *gin.Context) {
	if h.exports == nil {
		h.writeError(c, domain.ErrStorageUnavailable)
		return
	}

	objects, err := h.exports.ListExports(c.Request.Context(), auth.IdentityFromContext(c.Request.Context()))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `json:"is_active"`
	Role      string `json:"role"`
}

type TodoResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Completed   bool   `json:"completed"`
	OwnerID     int64  `json:"owner_id"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsActive:  user.IsActive,
		Role:      user.Role,
	}
}

func todoToResponse(todo domain.Todo) TodoResponse {
	return TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Priority:    todo.Priority,
		Completed:   todo.Completed,
		OwnerID:     todo.OwnerID,
	}
}

func todosToResponse(todos []domain.Todo) []TodoResponse {
	resp := make([]TodoResponse, len(todos))
	for i := range todos {
		resp[i] = todoToResponse(todos[i])
	}
	return resp
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
