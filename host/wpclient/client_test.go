package wpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Options{BaseURL: srv.URL + "/", Username: "admin", AppPassword: "app pass", RetryMax: 2})
	require.NoError(t, err)
	client.retry.RetryWaitMin = 0
	client.retry.RetryWaitMax = 0
	return client
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(Options{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestListMedia(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "app pass", pass)
		assert.Equal(t, "/wp-json/wp/v2/media", r.URL.Path)
		assert.Equal(t, "edit", r.URL.Query().Get("context"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))

		w.Header().Set("X-WP-TotalPages", "3")
		_, _ = w.Write([]byte(`[{"id":7,"alt_text":"","title":{"raw":"red_car","rendered":"red_car"}},{"id":8,"alt_text":"Boat","title":{"rendered":"boat"}}]`))
	})

	items, pages, err := client.ListMedia(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, pages)
	require.Len(t, items, 2)
	assert.Equal(t, 7, items[0].ID)
	assert.Equal(t, "red_car", items[0].TitleText())
	assert.Equal(t, "boat", items[1].TitleText())
	assert.Equal(t, "Boat", items[1].AltText)
}

func TestListMediaPastLastPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"rest_post_invalid_page_number","message":"The page number requested is larger than the number of pages available."}`))
	})

	items, _, err := client.ListMedia(context.Background(), 9, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateAltText(t *testing.T) {
	var got map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wp/v2/media/42", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":42}`))
	})

	require.NoError(t, client.UpdateAltText(context.Background(), 42, "Red Car"))
	assert.Equal(t, map[string]string{"alt_text": "Red Car"}, got)
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"rest_cannot_edit","message":"Sorry, you are not allowed to edit this post."}`))
	})

	err := client.UpdateAltText(context.Background(), 1, "x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "rest_cannot_edit", apiErr.Code)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":1}`))
	})

	require.NoError(t, client.UpdateAltText(context.Background(), 1, "x"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestBreakerOpensOnRepeatedFailures(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	client.retry.RetryMax = 0

	for i := 0; i < 6; i++ {
		err := client.UpdateAltText(context.Background(), 1, "x")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	}
	err := client.UpdateAltText(context.Background(), 1, "x")
	assert.Error(t, err)

	before := atomic.LoadInt32(&calls)
	err = client.UpdateAltText(context.Background(), 1, "x")
	assert.Error(t, err)
	assert.Equal(t, before, atomic.LoadInt32(&calls), "open breaker short-circuits requests")
}
