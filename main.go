package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/hoshinonyaruko/snake-web/api"
	"github.com/hoshinonyaruko/snake-web/config"
	"github.com/hoshinonyaruko/snake-web/game"
	"github.com/hoshinonyaruko/snake-web/memimg"
	"github.com/hoshinonyaruko/snake-web/sqlite"
)

func main() {
	configPath := flag.String("config", "./config.json", "path to the JSON config file")
	flag.Parse()
	defer glog.Flush()

	EnsureFoldersExist()
	// Initialize the configuration
	config.LoadConfig(*configPath)
	blockSize := config.GetConfigValue("blocksize").(int)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 加载食物图标
	if err := memimg.LoadFoods("./foods", blockSize); err != nil {
		glog.Fatalf("Failed to load food sprites: %v", err)
	}
	// 检测并热更新到内存 加速绘图
	go func() {
		if err := memimg.WatchFoods(ctx, "./foods", blockSize); err != nil {
			glog.Errorf("food sprite watcher stopped: %v", err)
		}
	}()

	db, err := sqlite.Open()
	if err != nil {
		glog.Fatalf("Failed to open results database: %v", err)
	}
	defer db.Close()

	manager := game.NewManager(ctx, api.RecordResults(db))
	defer manager.Shutdown()

	gin.SetMode(gin.ReleaseMode)
	router := api.SetupRouter(manager, db)
	srv := &http.Server{
		Addr:    ":" + config.GetConfigValue("port").(string),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	glog.Infof("listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		glog.Fatalf("server: %v", err)
	}
}

// EnsureFoldersExist 检查并创建必需的文件夹
func EnsureFoldersExist() {
	folders := []string{"foods", api.StaticDir}

	for _, folder := range folders {
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			// 文件夹不存在，尝试创建它
			if err := os.MkdirAll(folder, 0755); err != nil {
				glog.Fatalf("Failed to create %s directory: %s", folder, err)
			}
			glog.Infof("Created %s directory", folder)
		}
	}
}
