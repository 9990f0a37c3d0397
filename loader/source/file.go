package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// File 本地文件获取器
type File struct {
	root string
}

// NewFile 创建以 root 为相对路径根目录的获取器
func NewFile(root string) *File {
	return &File{root: root}
}

// Path 将定位符解析为本地路径
func (f *File) Path(locator string) (string, error) {
	if Scheme(locator) == "file" {
		u, err := url.Parse(locator)
		if err != nil {
			return "", fmt.Errorf("source: invalid file locator %q: %w", locator, err)
		}
		return filepath.FromSlash(u.Path), nil
	}
	p := filepath.FromSlash(trimQuery(locator))
	if filepath.IsAbs(p) || f.root == "" {
		return filepath.Clean(p), nil
	}
	return filepath.Join(f.root, p), nil
}

// Fetch 实现 Fetcher
func (f *File) Fetch(ctx context.Context, locator string, progress ProgressFunc) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := f.Path(locator)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var size int64
	if info, err := fh.Stat(); err == nil {
		size = info.Size()
	}
	return readAll(fh, size, progress)
}
