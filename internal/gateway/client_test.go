package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangled.org/lewlew.social/lewctl/internal/models"
)

// memCreds is an in-memory CredentialStore for tests.
type memCreds struct {
	token string
}

func (m *memCreds) Token() (string, error)      { return m.token, nil }
func (m *memCreds) SetToken(token string) error { m.token = token; return nil }

func newTestClient(t *testing.T, handler http.Handler, creds *memCreds) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, creds, WithHTTPClient(srv.Client()))
}

func TestLogin_Success(t *testing.T) {
	creds := &memCreds{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/admin/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin@lewlew.social", body["login"])
		assert.Equal(t, "hunter2", body["password"])

		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-123",
			"user": map[string]string{
				"id":    "u1",
				"email": "admin@lewlew.social",
				"role":  "admin",
			},
		})
	}), creds)

	result, err := client.Login(context.Background(), "admin@lewlew.social", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", result.Token)
	assert.Equal(t, models.RoleAdmin, result.User.Role)

	// The token must be persisted before Login returns.
	assert.Equal(t, "tok-123", creds.token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	creds := &memCreds{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
	}), creds)

	_, err := client.Login(context.Background(), "admin@lewlew.social", "wrong")
	require.Error(t, err)
	assert.True(t, IsAuth(err))
	assert.Equal(t, "Invalid credentials", Message(err))
	assert.Empty(t, creds.token)
}

func TestLogin_FallbackMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}), &memCreds{})

	_, err := client.Login(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Equal(t, "Admin login failed. Please check your credentials or admin permissions.", Message(err))
	assert.False(t, IsAuth(err))
}

func TestDo_MissingCredential(t *testing.T) {
	called := false
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}), &memCreds{})

	_, err := client.ListReports(context.Background(), ReportListQuery{Page: 1, Limit: 10})
	require.Error(t, err)
	assert.True(t, IsAuth(err))
	assert.Equal(t, "Admin token not found. Please login again.", Message(err))
	assert.False(t, called, "no request may be issued without a token")
}

func TestDo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := New(srv.URL, &memCreds{token: "tok"}, WithHTTPClient(srv.Client()))
	srv.Close()

	_, err := client.ListReports(context.Background(), ReportListQuery{Page: 1, Limit: 10})
	require.Error(t, err)
	assert.Equal(t, "Network error. Please check your connection.", Message(err))

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindTransport, gerr.Kind)
}

func TestDo_MalformedSuccessBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}), &memCreds{token: "tok"})

	_, err := client.ListReports(context.Background(), ReportListQuery{Page: 1, Limit: 10})
	require.Error(t, err)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindTransport, gerr.Kind)
}

func TestDo_BearerAndRequestID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		json.NewEncoder(w).Encode(models.WireReportsPage{})
	}), &memCreds{token: "tok-abc"})

	_, err := client.ListReports(context.Background(), ReportListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
}

func TestListReports_QueryEncoding(t *testing.T) {
	t.Run("status and reason included when set", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "2", q.Get("page"))
			assert.Equal(t, "10", q.Get("limit"))
			assert.Equal(t, "pending", q.Get("status"))
			assert.Equal(t, "spam", q.Get("reason"))
			json.NewEncoder(w).Encode(models.WireReportsPage{})
		}), &memCreds{token: "tok"})

		_, err := client.ListReports(context.Background(), ReportListQuery{
			Page: 2, Limit: 10, Status: "pending", Reason: "spam",
		})
		require.NoError(t, err)
	})

	t.Run("empty filters omitted", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.False(t, q.Has("status"))
			assert.False(t, q.Has("reason"))
			json.NewEncoder(w).Encode(models.WireReportsPage{})
		}), &memCreds{token: "tok"})

		_, err := client.ListReports(context.Background(), ReportListQuery{Page: 1, Limit: 10})
		require.NoError(t, err)
	})
}

func TestListReports_Normalizes(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"reports": [
				{"id": "r1", "postId": null, "reporterId": null, "reason": "spam", "status": "pending"}
			],
			"pagination": {"current": 1, "total": 3, "count": 27, "limit": 10}
		}`))
	}), &memCreds{token: "tok"})

	page, err := client.ListReports(context.Background(), ReportListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Reports, 1)

	r := page.Reports[0]
	assert.Equal(t, models.FallbackReporterName, r.Reporter.FullName)
	assert.Equal(t, models.FallbackCaption, r.Post.Caption)
	assert.False(t, r.AutoResolved)
	assert.Equal(t, 27, page.Pagination.Count)
}

func TestUpdateReportStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/reports/r1/status", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "resolved", body["status"])
		assert.Equal(t, "looks fine", body["reviewComment"])

		w.Write([]byte(`{}`))
	}), &memCreds{token: "tok"})

	err := client.UpdateReportStatus(context.Background(), "r1", models.ReportStatusResolved, "looks fine")
	require.NoError(t, err)
}

func TestDeletePost(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/admin/posts/p1", r.URL.Path)
		w.Write([]byte(`{}`))
	}), &memCreds{token: "tok"})

	err := client.DeletePost(context.Background(), "p1")
	require.NoError(t, err)
}

func TestLocationGrowth_PeriodValidation(t *testing.T) {
	called := false
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "30d", r.URL.Query().Get("period"))
		w.Write([]byte(`[]`))
	}), &memCreds{token: "tok"})

	t.Run("empty period defaults to 30d", func(t *testing.T) {
		_, err := client.LocationGrowth(context.Background(), "")
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("invalid period rejected locally", func(t *testing.T) {
		called = false
		_, err := client.LocationGrowth(context.Background(), "365d")
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.False(t, called)
	})
}
