package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-web/game"
	"github.com/hoshinonyaruko/snake-web/sqlite"
	"github.com/hoshinonyaruko/snake-web/structs"
)

func setup(t *testing.T) (*gin.Engine, *game.Manager, *sql.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	StaticDir = t.TempDir()

	db, err := sqlite.Open()
	if err != nil {
		t.Fatal(err)
	}
	m := game.NewManager(context.Background(), RecordResults(db))
	t.Cleanup(func() {
		m.Shutdown()
		db.Close()
	})
	return SetupRouter(m, db), m, db
}

func get(t *testing.T, router *gin.Engine, url string, out interface{}) int {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding %s: %v (%s)", url, err, w.Body.String())
		}
	}
	return w.Code
}

func newGame(t *testing.T, router *gin.Engine) string {
	t.Helper()
	var resp struct {
		SessionID string            `json:"session_id"`
		State     structs.GameState `json:"state"`
	}
	if code := get(t, router, "/new-game", &resp); code != http.StatusOK {
		t.Fatalf("new-game status = %d", code)
	}
	if resp.SessionID == "" || resp.State.Status != "running" {
		t.Fatalf("unexpected new-game response %+v", resp)
	}
	return resp.SessionID
}

func TestNewGameAndState(t *testing.T) {
	router, _, _ := setup(t)
	id := newGame(t, router)

	var st structs.GameState
	if code := get(t, router, "/state?sessionid="+id, &st); code != http.StatusOK {
		t.Fatalf("state status = %d", code)
	}
	if st.SessionID != id || st.Width != 40 || st.Height != 30 || len(st.Body) < 7 {
		t.Fatalf("unexpected state %+v", st)
	}

	// restarting an existing session keeps its id
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if code := get(t, router, "/new-game?sessionid="+id, &resp); code != http.StatusOK || resp.SessionID != id {
		t.Fatalf("restart: code=%d id=%s", code, resp.SessionID)
	}
	if code := get(t, router, "/new-game?sessionid=missing", nil); code != http.StatusNotFound {
		t.Fatalf("restart unknown session status = %d", code)
	}
}

func TestUpdateDirection(t *testing.T) {
	router, _, _ := setup(t)
	id := newGame(t, router)

	cases := []struct {
		url  string
		code int
	}{
		{"/update-direction?sessionid=" + id, http.StatusBadRequest},
		{"/update-direction?sessionid=" + id + "&direction=sideways", http.StatusBadRequest},
		{"/update-direction?direction=up", http.StatusBadRequest},
		{"/update-direction?sessionid=nope&direction=up", http.StatusNotFound},
		{"/update-direction?sessionid=" + id + "&direction=up", http.StatusOK},
	}
	for _, c := range cases {
		if code := get(t, router, c.url, nil); code != c.code {
			t.Errorf("%s: status = %d, want %d", c.url, code, c.code)
		}
	}
}

func TestPauseResume(t *testing.T) {
	router, _, _ := setup(t)
	id := newGame(t, router)

	var st structs.GameState
	if code := get(t, router, "/pause?sessionid="+id, &st); code != http.StatusOK || st.Status != "paused" {
		t.Fatalf("pause: code=%d status=%s", code, st.Status)
	}
	if code := get(t, router, "/update-direction?sessionid="+id+"&direction=up", nil); code != http.StatusConflict {
		t.Fatalf("direction while paused status = %d", code)
	}
	if code := get(t, router, "/pause?sessionid="+id, nil); code != http.StatusConflict {
		t.Fatalf("double pause status = %d", code)
	}
	if code := get(t, router, "/resume?sessionid="+id, &st); code != http.StatusOK || st.Status != "running" {
		t.Fatalf("resume: code=%d status=%s", code, st.Status)
	}
	var failure struct {
		Error string `json:"error"`
	}
	if code := get(t, router, "/resume?sessionid="+id, &failure); code != http.StatusConflict || failure.Error != game.ErrNotPaused.Error() {
		t.Fatalf("double resume: code=%d error=%q", code, failure.Error)
	}
}

func TestRenderMap(t *testing.T) {
	router, _, _ := setup(t)
	id := newGame(t, router)

	var resp struct {
		ImageURL string `json:"image_url"`
	}
	if code := get(t, router, "/render-map?sessionid="+id, &resp); code != http.StatusOK {
		t.Fatalf("render-map status = %d", code)
	}
	if resp.ImageURL == "" {
		t.Fatal("missing image_url")
	}
	if _, err := os.Stat(filepath.Join(StaticDir, id+".png")); err != nil {
		t.Fatalf("rendered board not written: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/"+id+".png", nil))
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("static png: code=%d type=%s", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestDeleteMap(t *testing.T) {
	router, m, _ := setup(t)
	id := newGame(t, router)

	if code := get(t, router, "/delete-map?sessionid="+id, nil); code != http.StatusOK {
		t.Fatalf("delete status = %d", code)
	}
	if _, ok := m.Get(id); ok {
		t.Fatal("session still registered")
	}
	if code := get(t, router, "/delete-map?sessionid="+id, nil); code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", code)
	}
	if code := get(t, router, "/state?sessionid="+id, nil); code != http.StatusNotFound {
		t.Fatalf("state after delete status = %d", code)
	}
}

func TestScoresRecordedWhenGameEnds(t *testing.T) {
	router, m, _ := setup(t)

	// a snake filling its whole row runs into its own tail on the first tick
	opts := game.DefaultOptions()
	opts.Width, opts.Height = 4, 3
	opts.StartingLength = 4
	opts.StartingHead = structs.Coordinate{X: 3, Y: 0}
	opts.TickInterval = 5 * time.Millisecond
	s := m.Create(opts)
	s.Start()

	deadline := time.Now().Add(3 * time.Second)
	for {
		var resp struct {
			Scores []structs.Result `json:"scores"`
		}
		if code := get(t, router, "/scores?limit=100", &resp); code != http.StatusOK {
			t.Fatalf("scores status = %d", code)
		}
		for _, r := range resp.Scores {
			if r.SessionID == s.ID() {
				if r.Outcome != "over" || r.Length != 4 {
					t.Fatalf("unexpected result %+v", r)
				}
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("finished game was not recorded")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestIndexPage(t *testing.T) {
	router, _, _ := setup(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("index: code=%d len=%d", w.Code, w.Body.Len())
	}
}

func TestScoresLimitValidation(t *testing.T) {
	router, _, _ := setup(t)
	if code := get(t, router, "/scores?limit=ten", nil); code != http.StatusBadRequest {
		t.Fatalf("non-numeric limit status = %d", code)
	}
	var resp struct {
		Scores []structs.Result `json:"scores"`
	}
	if code := get(t, router, "/scores?limit=100000", &resp); code != http.StatusOK {
		t.Fatalf("large limit status = %d", code)
	}
}

func TestConcurrentRenderMapServesWholeImages(t *testing.T) {
	router, _, _ := setup(t)
	id := newGame(t, router)
	if code := get(t, router, "/render-map?sessionid="+id, nil); code != http.StatusOK {
		t.Fatalf("render-map status = %d", code)
	}
	path := filepath.Join(StaticDir, id+".png")

	for round := 0; round < 10; round++ {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.NewRecorder()
				router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/render-map?sessionid="+id, nil))
				if w.Code != http.StatusOK {
					t.Errorf("render-map status = %d", w.Code)
				}
			}()
		}
		for i := 0; i < 8; i++ {
			f, err := os.Open(path)
			if err != nil {
				wg.Wait()
				t.Fatal(err)
			}
			_, err = png.Decode(f)
			f.Close()
			if err != nil {
				wg.Wait()
				t.Fatalf("round %d: torn read: %v", round, err)
			}
		}
		wg.Wait()
	}
}
