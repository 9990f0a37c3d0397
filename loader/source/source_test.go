package source

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestScheme(t *testing.T) {
	assert.Equal(t, "", Scheme("models/car.glb"))
	assert.Equal(t, "file", Scheme("file:///tmp/a"))
	assert.Equal(t, "https", Scheme("HTTPS://cdn/a.png"))
	assert.Equal(t, "s3", Scheme("s3://bucket/key"))
	assert.Equal(t, "", Scheme("://broken"))
}

func TestFileFetchRelativeToRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "models/car.gltf", []byte(`{"asset":{}}`))

	var loaded, total int64
	m := NewMux(dir)
	data, err := m.Fetch(context.Background(), "models/car.gltf", func(l, tot int64) {
		loaded, total = l, tot
	})
	require.NoError(t, err)
	assert.Equal(t, `{"asset":{}}`, string(data))
	assert.Equal(t, int64(len(data)), loaded)
	assert.Equal(t, int64(len(data)), total)

	abs := "file://" + filepath.ToSlash(filepath.Join(dir, "models/car.gltf"))
	data, err = m.Fetch(context.Background(), abs, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestFileFetchMissing(t *testing.T) {
	_, err := NewMux(t.TempDir()).Fetch(context.Background(), "nope.png", nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetchDecompressesZstd(t *testing.T) {
	plain := bytes.Repeat([]byte("wheel "), 64)
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll(plain, nil)
	require.NoError(t, enc.Close())

	dir := t.TempDir()
	writeFile(t, dir, "data.json.zst", compressed)

	data, err := NewMux(dir).Fetch(context.Background(), "data.json.zst", nil)
	require.NoError(t, err)
	assert.Equal(t, plain, data)
}

func TestFetchDecompressesLZ4(t *testing.T) {
	plain := bytes.Repeat([]byte("tyre "), 64)
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := w.Write(plain)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	dir := t.TempDir()
	writeFile(t, dir, "mesh.bin.lz4", buf.Bytes())

	data, err := NewMux(dir).Fetch(context.Background(), "mesh.bin.lz4", nil)
	require.NoError(t, err)
	assert.Equal(t, plain, data)
}

func TestFetchRejectsOversizedDecompression(t *testing.T) {
	plain := bytes.Repeat([]byte{0}, 64<<10)
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll(plain, nil)
	require.NoError(t, enc.Close())

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err = w.Write(plain)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	dir := t.TempDir()
	writeFile(t, dir, "bomb.json.zst", compressed)
	writeFile(t, dir, "bomb.bin.lz4", buf.Bytes())

	m := NewMux(dir)
	m.SetMaxDecodedSize(4 << 10)
	_, err = m.Fetch(context.Background(), "bomb.json.zst", nil)
	assert.ErrorIs(t, err, ErrDecodedTooLarge)
	_, err = m.Fetch(context.Background(), "bomb.bin.lz4", nil)
	assert.ErrorIs(t, err, ErrDecodedTooLarge)

	// 上限恰好等于内容大小时通过，解码器回池后仍可复用
	m.SetMaxDecodedSize(int64(len(plain)))
	data, err := m.Fetch(context.Background(), "bomb.json.zst", nil)
	require.NoError(t, err)
	assert.Len(t, data, len(plain))
}

func TestHTTPDefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultHTTPTimeout, NewHTTP(nil).Timeout())
	assert.Equal(t, DefaultHTTPTimeout, NewHTTPWithTimeout(0).Timeout())

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPWithTimeout(50*time.Millisecond).Fetch(context.Background(), srv.URL+"/slow.png", nil)
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("texture-bytes"))
	}))
	defer srv.Close()

	m := NewMux("")
	data, err := m.Fetch(context.Background(), srv.URL+"/a.png", nil)
	require.NoError(t, err)
	assert.Equal(t, "texture-bytes", string(data))

	_, err = m.Fetch(context.Background(), srv.URL+"/missing", nil)
	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusNotFound, status.StatusCode)
}

func TestUnsupportedScheme(t *testing.T) {
	_, err := NewMux("").Fetch(context.Background(), "ftp://host/a", nil)
	var unsupported *UnsupportedSchemeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "ftp", unsupported.Scheme)
}

func TestHandleOverridesScheme(t *testing.T) {
	m := NewMux("")
	m.Handle("mem", FetcherFunc(func(ctx context.Context, locator string, progress ProgressFunc) ([]byte, error) {
		return []byte(locator), nil
	}))
	data, err := m.Fetch(context.Background(), "mem://x", nil)
	require.NoError(t, err)
	assert.Equal(t, "mem://x", string(data))
}

func TestRedisKey(t *testing.T) {
	r := NewRedis(nil, "assets:")
	assert.Equal(t, "assets:scenes/garage.json", r.Key("redis://scenes/garage.json"))
}

func TestOptionsValidate(t *testing.T) {
	assert.Error(t, S3Options{}.Validate())
	assert.NoError(t, S3Options{Endpoint: "localhost:9000"}.Validate())
	assert.Error(t, RedisOptions{}.Validate())
	assert.Error(t, RedisOptions{Addr: "x", DB: -1}.Validate())
	assert.NoError(t, RedisOptions{Addr: "localhost:6379"}.Validate())

	_, err := DialS3(S3Options{Endpoint: "localhost:9000"})
	assert.NoError(t, err)
}
