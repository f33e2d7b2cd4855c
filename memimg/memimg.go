// Package memimg keeps the food sprites in memory, scaled to one board cell.
package memimg

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
)

var (
	foods      = make(map[string]image.Image)
	foodsMutex sync.RWMutex
)

var supportedExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true}

// LoadFoods loads every image in directory, scaled to blockSize, keyed by its
// name without extension ("apple.png" -> "apple").
func LoadFoods(directory string, blockSize int) error {
	loaded := make(map[string]image.Image)
	err := filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !supportedExt[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		img, err := LoadImage(path, blockSize)
		if err != nil {
			glog.Warningf("skipping food sprite %s: %v", path, err)
			return nil
		}
		loaded[spriteName(path)] = img
		return nil
	})
	if err != nil {
		return err
	}

	foodsMutex.Lock()
	foods = loaded
	foodsMutex.Unlock()
	glog.Infof("loaded %d food sprites from %s", len(loaded), directory)
	return nil
}

// LoadImage decodes path and scales it to a blockSize square.
func LoadImage(path string, blockSize int) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	if blockSize > 0 {
		img = imaging.Fill(img, blockSize, blockSize, imaging.Center, imaging.Lanczos)
	}
	return img, nil
}

func spriteName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WatchFoods reloads sprites as files in directory are written, created or
// removed. It blocks until ctx is done.
func WatchFoods(ctx context.Context, directory string, blockSize int) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(directory); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !supportedExt[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}
			name := spriteName(event.Name)
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				img, err := LoadImage(event.Name, blockSize)
				if err != nil {
					glog.V(1).Infof("food sprite %s not ready: %v", event.Name, err)
					continue
				}
				foodsMutex.Lock()
				foods[name] = img
				foodsMutex.Unlock()
				glog.Infof("food sprite %s reloaded", name)
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				foodsMutex.Lock()
				delete(foods, name)
				foodsMutex.Unlock()
				glog.Infof("food sprite %s removed", name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			glog.Errorf("watching %s: %v", directory, err)
		}
	}
}

func GetFoodFromMemory(name string) (image.Image, bool) {
	foodsMutex.RLock()
	img, exists := foods[name]
	foodsMutex.RUnlock()
	return img, exists
}
