package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskman/internal/auth"
	"taskman/internal/handler"
	"taskman/internal/model"
	"taskman/internal/repository"
	"taskman/internal/service"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Task{}))

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	jwtService := auth.NewJWTService("test-secret")
	authService := service.NewAuthService(userRepo, jwtService)
	userService := service.NewUserService(userRepo)
	taskService := service.NewTaskService(taskRepo, nil)

	e := echo.New()
	Register(e,
		jwtService,
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService),
		handler.NewTaskHandler(taskService),
	)
	return e
}

func doJSON(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, e *echo.Echo, username, email, password string) (userID uint, token string) {
	t.Helper()

	rec := doJSON(e, http.MethodPost, "/api/auth/register", "",
		fmt.Sprintf(`{"username":%q,"email":%q,"password":%q}`, username, email, password))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		User  struct{ ID uint }
		Token string
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotZero(t, resp.User.ID)
	require.NotEmpty(t, resp.Token)
	return resp.User.ID, resp.Token
}

func TestRegisterLoginFlow(t *testing.T) {
	e := newTestServer(t)

	aliceID, _ := register(t, e, "alice", "alice@x.com", "secret1")
	assert.NotZero(t, aliceID)

	t.Run("duplicate email rejected", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/auth/register", "",
			`{"username":"alice2","email":"alice@x.com","password":"secret1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/auth/register", "",
			`{"username":"alice","email":"alice2@x.com","password":"secret1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short username rejected before the store", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/auth/register", "",
			`{"username":"ab","email":"ab@x.com","password":"secret1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("login issues a verifiable token", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/auth/login", "",
			`{"email":"alice@x.com","password":"secret1"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"token"`)
		// The password hash never appears in responses.
		assert.NotContains(t, rec.Body.String(), "PasswordHash")
		assert.NotContains(t, rec.Body.String(), "passwordHash")
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		wrongPassword := doJSON(e, http.MethodPost, "/api/auth/login", "",
			`{"email":"alice@x.com","password":"nope123"}`)
		unknownEmail := doJSON(e, http.MethodPost, "/api/auth/login", "",
			`{"email":"ghost@x.com","password":"secret1"}`)

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
		assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	})
}

func TestAuthGateway(t *testing.T) {
	e := newTestServer(t)
	_, token := register(t, e, "alice", "alice@x.com", "secret1")

	tests := []struct {
		name  string
		token string
		code  int
	}{
		{name: "missing token", token: "", code: http.StatusUnauthorized},
		{name: "garbage token", token: "garbage", code: http.StatusUnauthorized},
		{name: "valid token", token: token, code: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodGet, "/api/tasks", tt.token, "")
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	t.Run("me resolves the token's identity", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/api/me", token, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	})
}

func TestTaskCRUDFlow(t *testing.T) {
	e := newTestServer(t)
	aliceID, aliceToken := register(t, e, "alice", "alice@x.com", "secret1")
	bobID, bobToken := register(t, e, "bob", "bob@x.com", "secret2")

	var taskID uint

	t.Run("create stamps owner from the token, not the body", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/tasks", aliceToken,
			fmt.Sprintf(`{"title":"buy milk","ownerId":%d}`, bobID))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Task model.Task
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, aliceID, resp.Task.OwnerID)
		assert.Equal(t, model.TaskStatusTodo, resp.Task.Status)
		taskID = resp.Task.ID
	})

	t.Run("create without title rejected", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/tasks", aliceToken, `{"description":"no title"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create with unknown status rejected", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/tasks", aliceToken, `{"title":"x","status":"DONE"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("status filter returns the created task", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/api/tasks?status=TODO", aliceToken, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			TotalItems int64 `json:"totalItems"`
			Tasks      []model.Task
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.TotalItems)
		require.Len(t, resp.Tasks, 1)
		assert.Equal(t, "buy milk", resp.Tasks[0].Title)
	})

	t.Run("filter excludes other statuses", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/api/tasks?status=COMPLETED", aliceToken, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"totalItems":0`)
	})

	t.Run("get by id", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, fmt.Sprintf("/api/tasks/%d", taskID), aliceToken, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"title":"buy milk"`)
	})

	t.Run("partial update", func(t *testing.T) {
		rec := doJSON(e, http.MethodPut, fmt.Sprintf("/api/tasks/%d", taskID), aliceToken,
			`{"status":"IN_PROGRESS"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			UpdatedTask model.Task `json:"updatedTask"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, model.TaskStatusInProgress, resp.UpdatedTask.Status)
		assert.Equal(t, "buy milk", resp.UpdatedTask.Title)
		assert.Equal(t, aliceID, resp.UpdatedTask.OwnerID)
	})

	// Listing and updates are not scoped to the owner today; this pins the
	// current behavior so tightening it later is a conscious change.
	t.Run("another user can update the task", func(t *testing.T) {
		rec := doJSON(e, http.MethodPut, fmt.Sprintf("/api/tasks/%d", taskID), bobToken,
			`{"title":"bob was here"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("update of missing task is 404", func(t *testing.T) {
		rec := doJSON(e, http.MethodPut, "/api/tasks/99999", aliceToken, `{"title":"x"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-numeric id is 400", func(t *testing.T) {
		rec := doJSON(e, http.MethodPut, "/api/tasks/abc", aliceToken, `{"title":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete then 404", func(t *testing.T) {
		rec := doJSON(e, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", taskID), aliceToken, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", taskID), aliceToken, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListPaginationEndToEnd(t *testing.T) {
	e := newTestServer(t)
	_, token := register(t, e, "alice", "alice@x.com", "secret1")

	for i := 1; i <= 25; i++ {
		rec := doJSON(e, http.MethodPost, "/api/tasks", token,
			fmt.Sprintf(`{"title":"task %02d"}`, i))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(e, http.MethodGet, "/api/tasks?page=3&limit=10", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TotalItems  int64 `json:"totalItems"`
		TotalPages  int   `json:"totalPages"`
		CurrentPage int   `json:"currentPage"`
		PageSize    int   `json:"pageSize"`
		Tasks       []model.Task
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(25), resp.TotalItems)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 3, resp.CurrentPage)
	assert.Equal(t, 10, resp.PageSize)
	assert.Len(t, resp.Tasks, 5)
}
