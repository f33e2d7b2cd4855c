package api

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/hoshinonyaruko/snake-web/config"
	"github.com/hoshinonyaruko/snake-web/game"
	"github.com/hoshinonyaruko/snake-web/render"
	"github.com/hoshinonyaruko/snake-web/sqlite"
	"github.com/hoshinonyaruko/snake-web/structs"
)

//go:embed index.html
var indexPage []byte

// StaticDir is where rendered boards are written and served from.
var StaticDir = "./static"

// SetupRouter wires every handler onto a new gin engine.
func SetupRouter(m *game.Manager, db *sql.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
	})
	// 开始新游戏，带sessionid时重开
	router.GET("/new-game", NewGameHandler(m))
	// 处理玩家改变方向
	router.GET("/update-direction", UpdateDirection(m))
	router.GET("/state", StateHandler(m))
	router.GET("/pause", PauseHandler(m))
	router.GET("/resume", ResumeHandler(m))
	// 渲染函数 返回静态地址
	router.GET("/render-map", RenderMapHandler(m))
	// 删除地图
	router.GET("/delete-map", DeleteMapHandler(m))
	router.GET("/scores", ScoresHandler(db))
	router.Static("/static", StaticDir)
	return router
}

// SessionOptions builds game options from the loaded configuration.
func SessionOptions() game.Options {
	opts := game.DefaultOptions()
	opts.Width = config.GetConfigValue("width").(int)
	opts.Height = config.GetConfigValue("height").(int)
	opts.StartingLength = config.GetConfigValue("startinglength").(int)
	opts.StartingHead = structs.Coordinate{
		X: config.GetConfigValue("startx").(int),
		Y: config.GetConfigValue("starty").(int),
	}
	opts.TickInterval = time.Duration(config.GetConfigValue("tickms").(int)) * time.Millisecond
	if seed := config.GetConfigValue("seed").(int64); seed != 0 {
		opts.Seed = uint64(seed)
	}
	return opts
}

// RecordResults returns a session hook that stores every finished game.
func RecordResults(db *sql.DB) func(*game.Session) {
	return func(s *game.Session) {
		s.OnFinish(func(st structs.GameState) {
			r := structs.Result{
				SessionID:  st.SessionID,
				Score:      st.Score,
				Ticks:      st.Ticks,
				Length:     len(st.Body),
				Outcome:    st.Status,
				FinishedAt: time.Now().Unix(),
			}
			if err := sqlite.RecordResult(db, r); err != nil {
				glog.Errorf("session %s: recording result: %v", st.SessionID, err)
			}
		})
	}
}

func lookupSession(c *gin.Context, m *game.Manager) (*game.Session, bool) {
	sessionID := c.Query("sessionid")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: sessionid"})
		return nil, false
	}
	s, ok := m.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No game found for the specified sessionid"})
		return nil, false
	}
	return s, true
}

func NewGameHandler(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var s *game.Session
		if sessionID := c.Query("sessionid"); sessionID != "" {
			var ok bool
			if s, ok = m.Get(sessionID); !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "No game found for the specified sessionid"})
				return
			}
		} else {
			s = m.Create(SessionOptions())
		}
		s.Start()
		c.JSON(http.StatusOK, gin.H{"session_id": s.ID(), "state": s.State()})
	}
}

func UpdateDirection(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		newDirection := c.Query("direction")
		if newDirection == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: direction"})
			return
		}
		d, err := structs.ParseDirection(newDirection)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}
		if s.Status() != game.StatusRunning {
			c.JSON(http.StatusConflict, gin.H{"error": "Game is not running"})
			return
		}
		s.Input.Publish(d)
		c.JSON(http.StatusOK, gin.H{"message": "Direction updated successfully"})
	}
}

func StateHandler(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, s.State())
	}
}

func PauseHandler(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}
		if err := s.Pause(); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, s.State())
	}
}

func ResumeHandler(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}
		if err := s.Resume(); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, s.State())
	}
}

func RenderMapHandler(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}
		st := s.State()
		img := render.Board(st, render.Options{
			BlockSize: config.GetConfigValue("blocksize").(int),
			FoodName:  config.GetConfigValue("foodname").(string),
		})
		fileName := filepath.Join(StaticDir, s.ID()+".png")
		if err := render.SavePNG(img, fileName); err != nil {
			glog.Errorf("session %s: saving board: %v", s.ID(), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to render game map"})
			return
		}

		imageURL := fmt.Sprintf("http://%s/static/%s.png", config.GetConfigValue("selfpath").(string), s.ID())
		c.JSON(http.StatusOK, gin.H{"image_url": imageURL, "status": st.Status, "score": st.Score})
	}
}

func DeleteMapHandler(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("sessionid")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: sessionid"})
			return
		}
		if !m.Delete(sessionID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No game found for the specified sessionid"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Game deleted successfully"})
	}
}

func ScoresHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
			return
		}
		results, err := sqlite.TopScores(db, limit)
		if err != nil {
			glog.Errorf("reading scores: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch scores"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"scores": results})
	}
}
