package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-console-api/internal/models"
	"github.com/noah-isme/student-console-api/pkg/config"
	appErrors "github.com/noah-isme/student-console-api/pkg/errors"
)

// docServer is a minimal in-memory document service used to exercise
// the gateway against real HTTP round trips.
type docServer struct {
	mu   sync.Mutex
	next int
	docs map[string]map[string]any
}

func newDocServer() *docServer {
	return &docServer{docs: make(map[string]map[string]any)}
}

func (s *docServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		prefix := "/v1/collections/users/documents"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")

		switch {
		case r.Method == http.MethodGet && id == "":
			docs := make([]map[string]any, 0, len(s.docs))
			for docID, fields := range s.docs {
				doc := map[string]any{"id": docID}
				for k, v := range fields {
					doc[k] = v
				}
				docs = append(docs, doc)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"documents": docs})
		case r.Method == http.MethodGet:
			fields, ok := s.docs[id]
			if !ok {
				http.NotFound(w, r)
				return
			}
			doc := map[string]any{"id": id}
			for k, v := range fields {
				doc[k] = v
			}
			_ = json.NewEncoder(w).Encode(doc)
		case r.Method == http.MethodPost:
			var fields map[string]any
			_ = json.NewDecoder(r.Body).Decode(&fields)
			s.next++
			newID := fmt.Sprintf("doc-%d", s.next)
			s.docs[newID] = fields
			_ = json.NewEncoder(w).Encode(map[string]string{"id": newID})
		case r.Method == http.MethodPatch:
			existing, ok := s.docs[id]
			if !ok {
				http.NotFound(w, r)
				return
			}
			var fields map[string]any
			_ = json.NewDecoder(r.Body).Decode(&fields)
			for k, v := range fields {
				existing[k] = v
			}
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete:
			if _, ok := s.docs[id]; !ok {
				http.NotFound(w, r)
				return
			}
			delete(s.docs, id)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func newTestClient(t *testing.T) (*Client, *docServer) {
	t.Helper()
	server := newDocServer()
	ts := httptest.NewServer(server.handler())
	t.Cleanup(ts.Close)
	client := NewClient(config.StoreConfig{
		BaseURL:    ts.URL,
		Collection: "users",
		Timeout:    2 * time.Second,
	}, nil, nil)
	return client, server
}

func draftRecord() models.Record {
	return models.Record{
		AdmissionDate:  "2023-01-01",
		BloodGroup:     "O+",
		RollNo:         "12",
		Section:        "A",
		Class:          "5",
		Name:           "Jo",
		ContactNumber:  "1234567890",
		GuardianName:   "Pat Doe",
		GuardianNumber: "0987654321",
		DateOfBirth:    "2015-01-01",
		Email:          "a@b.com",
	}
}

func TestClientCreateThenFetchRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	draft := draftRecord()

	created, err := client.Create(context.Background(), draft)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := client.FetchByID(context.Background(), created.ID)
	require.NoError(t, err)

	// every submitted field survives the round trip
	want := draft
	want.ID = created.ID
	assert.Equal(t, want, fetched)
}

func TestClientFetchMissingRecord(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.FetchByID(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestClientUpdateMergesOnlySuppliedFields(t *testing.T) {
	client, server := newTestClient(t)

	created, err := client.Create(context.Background(), draftRecord())
	require.NoError(t, err)

	err = client.Update(context.Background(), created.ID, map[string]any{"name": "Joanna"})
	require.NoError(t, err)

	doc := server.docs[created.ID]
	assert.Equal(t, "Joanna", doc["name"])
	assert.Equal(t, "5", doc["class"], "untouched fields stay intact")
}

func TestClientDelete(t *testing.T) {
	client, server := newTestClient(t)

	created, err := client.Create(context.Background(), draftRecord())
	require.NoError(t, err)

	require.NoError(t, client.Delete(context.Background(), created.ID))
	assert.NotContains(t, server.docs, created.ID)

	err = client.Delete(context.Background(), created.ID)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestClientList(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Create(context.Background(), draftRecord())
	require.NoError(t, err)
	second := draftRecord()
	second.Name = "Sam"
	_, err = client.Create(context.Background(), second)
	require.NoError(t, err)

	records, err := client.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestClientUnreachableStore(t *testing.T) {
	client := NewClient(config.StoreConfig{
		BaseURL:    "http://127.0.0.1:1",
		Collection: "users",
		Timeout:    200 * time.Millisecond,
	}, nil, nil)

	_, err := client.List(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStoreUnavailable))
}

func TestClientServerErrorIsStoreError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(config.StoreConfig{BaseURL: ts.URL, Collection: "users", Timeout: time.Second}, nil, nil)
	_, err := client.FetchByID(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStoreUnavailable))
}
