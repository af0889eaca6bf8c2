// Package storage implements the local media directory pair used for
// uploaded images and generated videos.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalFileStore serves uploads/images and uploads/videos under a root
// directory and hands out public URLs that resolve through the media
// endpoints.
type LocalFileStore struct {
	imageDir string
	videoDir string
	baseURL  string
}

func NewLocalFileStore(root, baseURL string) (*LocalFileStore, error) {
	imageDir := filepath.Join(root, "images")
	videoDir := filepath.Join(root, "videos")
	for _, dir := range []string{imageDir, videoDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create media directory %s: %w", dir, err)
		}
	}
	return &LocalFileStore{
		imageDir: imageDir,
		videoDir: videoDir,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalFileStore) ImageExists(filename string) bool {
	return fileExists(s.ImagePath(filename))
}

func (s *LocalFileStore) ImagePath(filename string) string {
	return filepath.Join(s.imageDir, filepath.Base(filename))
}

func (s *LocalFileStore) ImageURL(filename string) string {
	return s.baseURL + "/api/images/" + filepath.Base(filename)
}

func (s *LocalFileStore) VideoExists(filename string) bool {
	return fileExists(s.VideoPath(filename))
}

func (s *LocalFileStore) VideoPath(filename string) string {
	return filepath.Join(s.videoDir, filepath.Base(filename))
}

func (s *LocalFileStore) VideoURL(filename string) string {
	return s.baseURL + "/api/videos/" + filepath.Base(filename)
}

func (s *LocalFileStore) WriteVideo(filename string, data []byte) error {
	return os.WriteFile(s.VideoPath(filename), data, 0o644)
}

func (s *LocalFileStore) CopyVideo(srcFilename, dstFilename string) error {
	src, err := os.Open(s.VideoPath(srcFilename))
	if err != nil {
		return fmt.Errorf("open source video: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(s.VideoPath(dstFilename))
	if err != nil {
		return fmt.Errorf("create video copy: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy video: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
