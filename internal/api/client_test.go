package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/mockapi"
	"github.com/safar/go-storefront/internal/models"
)

func newMockClient(t *testing.T) (*Client, *mockapi.Server, *string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Discard()

	mock := mockapi.New(mockapi.Config{JWTSecret: "test-secret", FixedOTP: "112233"})
	srv := httptest.NewServer(mock.Router())
	t.Cleanup(srv.Close)

	token := new(string)
	c := New(srv.URL+"/api", WithTokenSource(func() string { return *token }))
	return c, mock, token
}

func register(t *testing.T, c *Client) *models.AuthResult {
	t.Helper()
	res, err := c.Register(context.Background(), RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "secret1", Mobile: "9999999999",
	})
	require.NoError(t, err)
	return res
}

func TestAuthRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newMockClient(t)

	reg := register(t, c)
	require.NotEmpty(t, reg.Token)

	res, err := c.Login(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	user, err := c.Profile(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)

	name := "Asha Rao"
	user, err = c.UpdateProfile(ctx, res.Token, ProfilePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", user.Name)

	require.NoError(t, c.Logout(ctx, res.Token))
	_, err = c.Profile(ctx, res.Token)
	assert.True(t, IsUnauthorized(err))
}

func TestStatusErrorCarriesMessageVerbatim(t *testing.T) {
	c, _, _ := newMockClient(t)
	register(t, c)

	_, err := c.Register(context.Background(), RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "secret1", Mobile: "8888888888",
	})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.Equal(t, "User already exists", se.Message)
	assert.True(t, IsConflict(err))
	assert.Equal(t, "User already exists", Message(err))
}

func TestPasswordResetEndpoints(t *testing.T) {
	ctx := context.Background()
	c, mock, _ := newMockClient(t)
	register(t, c)

	require.NoError(t, c.ForgotPassword(ctx, "9999999999"))
	assert.Equal(t, "112233", mock.LastOTP("9999999999"))

	err := c.VerifyOTP(ctx, "9999999999", "000000")
	assert.True(t, IsStatus(err, http.StatusBadRequest))

	require.NoError(t, c.VerifyOTP(ctx, "9999999999", "112233"))
	require.NoError(t, c.ResetPassword(ctx, "9999999999", "112233", "changed1"))

	_, err = c.Login(ctx, "asha@example.com", "changed1")
	assert.NoError(t, err)
}

func TestOrdersUseTokenSource(t *testing.T) {
	ctx := context.Background()
	c, _, token := newMockClient(t)

	_, err := c.MyOrders(ctx)
	require.True(t, IsUnauthorized(err))

	*token = register(t, c).Token

	placed, err := c.PlaceOrder(ctx, models.CreateOrderRequest{
		Items:           []models.OrderItem{{ProductID: "p4", Quantity: 1}},
		ShippingAddress: models.ShippingAddress{Address: "1 Main St", City: "Pune", PostalCode: "411001"},
		PaymentMethod:   "upi",
	})
	require.NoError(t, err)
	assert.Equal(t, "649", placed.TotalPrice.String())

	got, err := c.GetOrder(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.OrderNumber, got.OrderNumber)

	mine, err := c.MyOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = c.GetOrder(ctx, "missing")
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestProducts(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newMockClient(t)

	page, err := c.ListProducts(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.TotalPages)

	p, err := c.GetProduct(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "899.5", p.Price.String())
}

func TestErrorBodyFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message", http.StatusBadRequest, `{"message":"Bad input"}`, "Bad input"},
		{"msg", http.StatusBadRequest, `{"msg":"Token is not valid"}`, "Token is not valid"},
		{"error", http.StatusForbidden, `{"error":"forbidden"}`, "forbidden"},
		{"empty body", http.StatusInternalServerError, ``, "Request failed with status 500"},
		{"no known field", http.StatusTeapot, `{"detail":"x"}`, "Request failed with status 418"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Login(context.Background(), "a@b.c", "secret1")

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, tt.want, se.Message)
		})
	}
}

func TestNonJSONBodyIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), "a@b.c", "secret1")

	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "POST /login", ne.Op)
}

func TestUnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, WithTimeout(time.Second)).Profile(context.Background(), "tok")

	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
}

func TestCancelledContextIsReturnedAsIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL).MyOrders(ctx)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestBearerHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"user":{"id":"u1"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(func() string { return "from-source" }))

	_, err := c.Profile(context.Background(), "explicit")
	require.NoError(t, err)
	assert.Equal(t, "Bearer explicit", got)

	_, err = c.Profile(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer from-source", got)
}

func TestLogoutWithoutTokenFails(t *testing.T) {
	assert.Error(t, New("http://127.0.0.1:1").Logout(context.Background(), ""))
}
