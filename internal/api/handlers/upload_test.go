package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/session"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

func setupUploadHandler(t *testing.T, maxBytes int64) (*UploadHandler, *session.Session, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sess := testutil.NewTestSession(t, testutil.NewMockQuoteFetcher())
	us := testutil.NewTestUploadService(t, db, sess)
	return NewUploadHandler(us, maxBytes), sess, db
}

// TestUploadHandler_Upload tests POST /api/portfolio/upload.
// WHY: the upload is the only way a portfolio gets loaded, and its status codes
// tell the client whether to fix the file or retry.
func TestUploadHandler_Upload(t *testing.T) {
	t.Run("loads holdings from a valid workbook", func(t *testing.T) {
		// Setup
		handler, sess, db := setupUploadHandler(t, 1<<20)
		data := testutil.BuildWorkbook(t, testutil.SampleSheet())
		req := testutil.NewMultipartRequest(t, "/api/portfolio/upload", "file", "portfolio.xlsx", data)
		w := httptest.NewRecorder()

		// Execute
		handler.Upload(w, req)

		// Assert
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var body struct {
			Message  string            `json:"message"`
			UploadID string            `json:"uploadId"`
			Stocks   []json.RawMessage `json:"stocks"`
			Skipped  []json.RawMessage `json:"skipped"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "File uploaded successfully", body.Message)
		assert.NotEmpty(t, body.UploadID)
		assert.Len(t, body.Stocks, 7)
		assert.Empty(t, body.Skipped)
		assert.Len(t, sess.Snapshot().Holdings, 7)
		assert.Equal(t, 1, testutil.CountRows(t, db, "upload"))
	})

	t.Run("returns 400 when no file part is sent", func(t *testing.T) {
		handler, sess, _ := setupUploadHandler(t, 1<<20)
		req := testutil.NewMultipartRequest(t, "/api/portfolio/upload", "file", "", nil)
		w := httptest.NewRecorder()

		handler.Upload(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "no file provided")
		assert.Empty(t, sess.Snapshot().Holdings)
	})

	t.Run("returns 400 for a non-Excel file", func(t *testing.T) {
		handler, _, db := setupUploadHandler(t, 1<<20)
		req := testutil.NewMultipartRequest(t, "/api/portfolio/upload", "file", "portfolio.csv", []byte("a,b,c"))
		w := httptest.NewRecorder()

		handler.Upload(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid file type")
		assert.Equal(t, 0, testutil.CountRows(t, db, "upload"))
	})

	t.Run("returns 400 for a workbook without holdings", func(t *testing.T) {
		handler, _, _ := setupUploadHandler(t, 1<<20)
		data := testutil.BuildWorkbook(t, [][]any{{"No", "Particulars"}, {nil, "Tech Sector"}})
		req := testutil.NewMultipartRequest(t, "/api/portfolio/upload", "file", "portfolio.xlsx", data)
		w := httptest.NewRecorder()

		handler.Upload(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 400 for an oversized file", func(t *testing.T) {
		handler, _, _ := setupUploadHandler(t, 16)
		data := testutil.BuildWorkbook(t, testutil.SampleSheet())
		req := testutil.NewMultipartRequest(t, "/api/portfolio/upload", "file", "portfolio.xlsx", data)
		w := httptest.NewRecorder()

		handler.Upload(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "file too large")
	})

	t.Run("zero limit accepts any size", func(t *testing.T) {
		handler, sess, _ := setupUploadHandler(t, 0)
		data := testutil.BuildWorkbook(t, testutil.SampleSheet())
		req := testutil.NewMultipartRequest(t, "/api/portfolio/upload", "file", "portfolio.xlsx", data)
		w := httptest.NewRecorder()

		handler.Upload(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Len(t, sess.Snapshot().Holdings, 7)
	})

	t.Run("returns 400 for a body that is not multipart", func(t *testing.T) {
		handler, _, _ := setupUploadHandler(t, 1<<20)
		req := httptest.NewRequest(http.MethodPost, "/api/portfolio/upload", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.Upload(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUploadHandler_ListAndRestore(t *testing.T) {
	upload := func(t *testing.T, handler *UploadHandler) string {
		t.Helper()
		data := testutil.BuildWorkbook(t, testutil.SampleSheet())
		w := httptest.NewRecorder()
		handler.Upload(w, testutil.NewMultipartRequest(t, "/api/portfolio/upload", "file", "portfolio.xlsx", data))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		return body["uploadId"].(string)
	}

	t.Run("lists archived uploads", func(t *testing.T) {
		handler, _, _ := setupUploadHandler(t, 1<<20)
		id := upload(t, handler)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/api/uploads", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var list []map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
		require.Len(t, list, 1)
		assert.Equal(t, id, list[0]["id"])
		assert.Equal(t, "portfolio.xlsx", list[0]["filename"])
	})

	t.Run("lists an empty archive as an empty array", func(t *testing.T) {
		handler, _, _ := setupUploadHandler(t, 1<<20)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/api/uploads", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("returns 400 for invalid list filters", func(t *testing.T) {
		handler, _, _ := setupUploadHandler(t, 1<<20)
		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/uploads", map[string]string{"limit": "0"})

		w := httptest.NewRecorder()
		handler.List(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("restores an archived upload", func(t *testing.T) {
		handler, sess, _ := setupUploadHandler(t, 1<<20)
		id := upload(t, handler)
		sess.Replace(nil)

		req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/uploads/"+id+"/restore", map[string]string{"uuid": id})
		w := httptest.NewRecorder()
		handler.Restore(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Len(t, sess.Snapshot().Holdings, 7)
	})

	t.Run("returns 404 for an unknown upload", func(t *testing.T) {
		handler, _, _ := setupUploadHandler(t, 1<<20)
		id := testutil.MakeID()

		req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/uploads/"+id+"/restore", map[string]string{"uuid": id})
		w := httptest.NewRecorder()
		handler.Restore(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
