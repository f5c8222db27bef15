package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"doozy-api/domain"
	"doozy-api/storage"
)

const (
	bcryptCost       = 10
	requestBodyLimit = 1 << 20
)

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type signupResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth Authenticator, logger *log.Logger) {
	e.Use(RequestMetrics(logger))

	e.GET("/", root)
	e.GET("/healthz", healthz(store))

	e.POST("/auth/signup", signup(store, auth, logger))
	e.POST("/auth/login", login(store, auth, logger))

	tasks := e.Group("/tasks", RequireAuth(auth))
	tasks.POST("", createTask(store, logger))
	tasks.GET("", listTasks(store, logger))
	tasks.GET("/:id", getTask(store, logger))
	tasks.PUT("/:id", updateTask(store, logger))
	tasks.DELETE("/:id", deleteTask(store, logger))
}

func root(c echo.Context) error {
	return c.String(http.StatusOK, "Doozy API is running.")
}

func healthz(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.Ping(c.Request().Context()); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func signup(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var req signupRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}

		// Uniqueness is a pre-insert lookup, not a store constraint; two
		// concurrent signups with the same email can race past it.
		_, err := store.FindUserByEmail(ctx, req.Email)
		if err == nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "User already exists"})
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return internalError(c, logger, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			return internalError(c, logger, err)
		}
		id, err := store.InsertUser(ctx, domain.User{
			Username: req.Username,
			Email:    req.Email,
			Password: string(hash),
		})
		if err != nil {
			return internalError(c, logger, err)
		}

		token, err := auth.Issue(id.Hex())
		if err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusCreated, signupResponse{Message: "User registered successfully", Token: token})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func login(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}

		user, err := store.FindUserByEmail(ctx, req.Email)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.JSON(http.StatusBadRequest, messageResponse{Message: "Email not registered, Please Sign Up"})
			}
			return internalError(c, logger, err)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "Incorrect Password"})
		}

		token, err := auth.Issue(user.ID.Hex())
		if err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, tokenResponse{Token: token})
	}
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func createTask(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := ownerFromContext(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid Token"})
		}

		var req taskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}

		// Owner is always the authenticated subject; any owner-like field in
		// the request body is ignored.
		task := domain.Task{
			UserID:      owner,
			Title:       req.Title,
			Description: req.Description,
			Completed:   req.Completed,
		}
		id, err := store.InsertTask(ctx, task)
		if err != nil {
			return internalError(c, logger, err)
		}
		task.ID = id
		return c.JSON(http.StatusCreated, task)
	}
}

func listTasks(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := ownerFromContext(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid Token"})
		}

		tasks, err := store.FetchTasks(ctx, owner)
		if err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

func getTask(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := ownerFromContext(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid Token"})
		}
		taskID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			return taskNotFound(c)
		}

		task, err := store.FindTask(ctx, owner, taskID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return taskNotFound(c)
			}
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func updateTask(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := ownerFromContext(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid Token"})
		}
		taskID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			return taskNotFound(c)
		}

		var update domain.TaskUpdate
		if err := decodeBody(c, &update); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}

		task, err := store.UpdateTask(ctx, owner, taskID, update)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return taskNotFound(c)
			}
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := ownerFromContext(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid Token"})
		}
		taskID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			return taskNotFound(c)
		}

		if _, err := store.DeleteTask(ctx, owner, taskID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return taskNotFound(c)
			}
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Task deleted"})
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyLimit)
	return sonic.ConfigStd.NewDecoder(lr).Decode(v)
}

// ownerFromContext converts the subject established by RequireAuth into a
// store-level owner id. A non-hex subject can only come from a token issued
// outside this system, which verification already rejects.
func ownerFromContext(c echo.Context) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(subjectID(c))
}

// taskNotFound is the single miss response: an absent task and a task owned
// by someone else are indistinguishable to the requester.
func taskNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, messageResponse{Message: "Task not found"})
}

func internalError(c echo.Context, logger *log.Logger, err error) error {
	logger.WithError(err).Error("request failed")
	return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
}
