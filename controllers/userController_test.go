package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"kam-backend/helpers"
	"kam-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingRevoker struct {
	tokens map[string]time.Duration
}

func (r *recordingRevoker) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	r.tokens[token] = ttl
	return nil
}

func register(t *testing.T, env *testEnv, body gin.H) int {
	t.Helper()
	return env.do(t, http.MethodPost, "/api/users/register", body).Code
}

func TestRegister_ConcurrentAdminsYieldOneAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	const attempts = 8

	bodies := make([][]byte, attempts)
	for i := range bodies {
		body, err := json.Marshal(gin.H{
			"name": "Root", "email": fmt.Sprintf("root%d@x.com", i), "password": "secret1",
			"role": "admin", "number": fmt.Sprintf("900000000%d", i),
		})
		require.NoError(t, err)
		bodies[i] = body
	}

	codes := make(chan int, attempts)
	var wg sync.WaitGroup
	for _, body := range bodies {
		wg.Add(1)
		go func(body []byte) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)
			codes <- w.Code
		}(body)
	}
	wg.Wait()
	close(codes)

	created := 0
	for code := range codes {
		if code == http.StatusCreated {
			created++
			continue
		}
		assert.Equal(t, http.StatusConflict, code)
	}
	assert.Equal(t, 1, created)
}

func TestRegister_DuplicateNumber(t *testing.T) {
	env := newTestEnv(t, nil)
	first := gin.H{"name": "Sam", "email": "sam@x.com", "password": "secret1", "role": "staff", "number": "4444444444"}
	require.Equal(t, http.StatusCreated, register(t, env, first))

	second := gin.H{"name": "Kim", "email": "kim@x.com", "password": "secret1", "role": "staff", "number": "4444444444"}
	w := env.do(t, http.MethodPost, "/api/users/register", second)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "phone number")
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := gin.H{"name": "Root", "email": "root@x.com", "password": "secret1", "role": "admin", "number": "9999999999"}

	w := env.do(t, http.MethodPost, "/api/users/register", admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret1")

	second := gin.H{"name": "Root2", "email": "root2@x.com", "password": "secret1", "role": "admin", "number": "8888888888"}
	assert.Equal(t, http.StatusConflict, register(t, env, second), "only one admin")

	dupEmail := gin.H{"name": "Staff", "email": "root@x.com", "password": "secret1", "role": "staff", "number": "7777777777"}
	assert.Equal(t, http.StatusConflict, register(t, env, dupEmail))

	for name, body := range map[string]gin.H{
		"bad role":       {"name": "X", "email": "x@x.com", "password": "secret1", "role": "owner", "number": "1111111111"},
		"short password": {"name": "X", "email": "x@x.com", "password": "12345", "role": "staff", "number": "1111111111"},
		"no password":    {"name": "X", "email": "x@x.com", "role": "manager", "number": "1111111111"},
		"bad number":     {"name": "X", "email": "x@x.com", "password": "secret1", "role": "staff", "number": "12ab"},
	} {
		assert.Equal(t, http.StatusBadRequest, register(t, env, body), name)
	}

	w = env.do(t, http.MethodGet, "/api/users/admin-id", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		AdminUserID primitive.ObjectID `json:"adminUserId"`
	}
	decode(t, w, &out)

	w = env.do(t, http.MethodGet, "/api/users/"+out.AdminUserID.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "root@x.com")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestGetAdminUserID_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/users/admin-id", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/users/"+primitive.NewObjectID().Hex(), nil).Code)
}

func TestLoginLogout_TracksLeadStatus(t *testing.T) {
	revoker := &recordingRevoker{tokens: map[string]time.Duration{}}
	env := newTestEnv(t, nil, WithRevoker(revoker))
	ctx := context.Background()
	created := env.createLead(t, "Test Diner", "A", "a@x.com", "1234567890")

	w := env.do(t, http.MethodPost, "/api/users/login", gin.H{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodPost, "/api/users/login", gin.H{"email": "nobody@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/users/login", gin.H{"email": "a@x.com", "password": created.Credentials.Password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
		User  struct {
			ID   primitive.ObjectID `json:"id"`
			Role models.Role        `json:"role"`
		} `json:"user"`
	}
	decode(t, w, &login)
	assert.Equal(t, models.RoleLead, login.User.Role)

	claims, err := helpers.ValidateToken(login.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, created.Lead.ID.Hex(), claims.RestaurantID)

	lead, err := env.store.FindLeadByID(ctx, created.Lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusActive, lead.Status)
	require.NotNil(t, lead.LastLoginTime)
	assert.True(t, lead.LastLoginTime.Equal(testNow))

	w = env.do(t, http.MethodPost, "/api/users/logout", gin.H{"userId": login.User.ID.Hex()}, "Authorization", "Bearer "+login.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	lead, err = env.store.FindLeadByID(ctx, created.Lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusInactive, lead.Status)
	assert.Contains(t, revoker.tokens, login.Token)
	assert.Greater(t, revoker.tokens[login.Token], time.Duration(0))

	w = env.do(t, http.MethodPost, "/api/users/logout", gin.H{"userId": primitive.NewObjectID().Hex()})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodPost, "/api/users/logout", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPortalLoginLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	created := env.createLead(t, "Test Diner", "Ann Bell", "ann@x.com", "1234567890")

	w := env.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "ghost", "password": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "ann_bell", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "ann_bell", "password": created.Credentials.Password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
		Lead  struct {
			Status models.LeadStatus `json:"status"`
		} `json:"lead"`
	}
	decode(t, w, &out)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, models.LeadStatusActive, out.Lead.Status)

	w = env.do(t, http.MethodPost, "/api/auth/logout", gin.H{"username": "ann_bell"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	lead, err := env.store.FindLeadByID(ctx, created.Lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusInactive, lead.Status)
}
