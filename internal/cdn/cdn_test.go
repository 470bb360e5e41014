package cdn_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/brellorand/memento-mori-client/internal/cache"
	"github.com/brellorand/memento-mori-client/internal/cdn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `{"m_LocatorId":"AddressablesMainContentCatalog","m_InternalIds":["0#/a.bundle"],"m_InternalIdPrefixes":["{Ortega.Common.Manager.GameManager.AssetFullUrl}"]}`

// assetServer serves /asset/{system}/{name} from files and counts requests.
type assetServer struct {
	*httptest.Server
	files    map[string]string
	requests atomic.Int32
}

func newAssetServer(t *testing.T, files map[string]string) *assetServer {
	t.Helper()
	s := &assetServer{files: files}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		body, ok := s.files[strings.TrimPrefix(r.URL.Path, "/asset/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *assetServer) client(system string) *cdn.Client {
	return cdn.NewClient(s.URL+"/asset/{0}", system, s.Client())
}

func TestConstructURL(t *testing.T) {
	assert.Equal(t,
		"https://cdn-mememori.akamaized.net/asset/MementoMori/Android/2.15.0.json",
		cdn.ConstructURL("https://cdn-mememori.akamaized.net/asset/MementoMori/{0}", "Android", "2.15.0.json"))

	c := cdn.NewClient("https://example.com/{0}?v=1", "iOS", nil)
	assert.Equal(t, "https://example.com/iOS/abc.bundle?v=1", c.URL("abc.bundle"))
}

func TestFetchCatalog(t *testing.T) {
	srv := newAssetServer(t, map[string]string{"Android/2.15.0.json": catalogJSON})

	data, err := srv.client("Android").FetchCatalog(context.Background(), "2.15.0")
	require.NoError(t, err)
	assert.Equal(t, catalogJSON, string(data))

	_, err = srv.client("Windows").FetchCatalog(context.Background(), "2.15.0")
	assert.ErrorContains(t, err, "bad status")
}

func TestDownloadBundles(t *testing.T) {
	files := map[string]string{}
	var names []string
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		name := n + ".bundle"
		names = append(names, name)
		files["Android/"+name] = "UnityFS " + n
	}
	srv := newAssetServer(t, files)
	dir := t.TempDir()
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bundle"), []byte("old"), 0o644))

	stats, err := srv.client("Android").DownloadBundles(ctx, names, cdn.DownloadOptions{Dir: dir, Workers: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Downloaded)
	assert.Equal(t, 1, stats.Cached)
	assert.Equal(t, int64(4*len("UnityFS b")), stats.Bytes)

	for _, n := range names[1:] {
		data, err := os.ReadFile(filepath.Join(dir, n))
		require.NoError(t, err)
		assert.Equal(t, files["Android/"+n], string(data))
	}
	data, _ := os.ReadFile(filepath.Join(dir, "a.bundle"))
	assert.Equal(t, "old", string(data), "existing bundle kept without force")

	t.Run("force downloads again", func(t *testing.T) {
		stats, err := srv.client("Android").DownloadBundles(ctx, names[:1], cdn.DownloadOptions{Dir: dir, Workers: 1, Force: true})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Downloaded)
		data, _ := os.ReadFile(filepath.Join(dir, "a.bundle"))
		assert.Equal(t, "UnityFS a", string(data))
	})

	t.Run("nothing to do", func(t *testing.T) {
		before := srv.requests.Load()
		stats, err := srv.client("Android").DownloadBundles(ctx, names, cdn.DownloadOptions{Dir: dir, Workers: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, stats.Cached)
		assert.Equal(t, before, srv.requests.Load())
	})

	t.Run("missing bundle fails with its name", func(t *testing.T) {
		_, err := srv.client("Android").DownloadBundles(ctx, []string{"missing.bundle"}, cdn.DownloadOptions{Dir: t.TempDir(), Workers: 2})
		assert.ErrorContains(t, err, "missing.bundle")
	})
}

func TestSource(t *testing.T) {
	srv := newAssetServer(t, map[string]string{"Android/2.15.0.json": catalogJSON})
	ctx := context.Background()

	t.Run("fetches once and reuses the cache", func(t *testing.T) {
		src := &cdn.Source{Client: srv.client("Android"), Cache: cache.New(t.TempDir(), true)}

		raw, err := src.Catalog(ctx, "2.15.0")
		require.NoError(t, err)
		assert.Equal(t, "AddressablesMainContentCatalog", raw.LocatorID)
		assert.True(t, cache.FileExists(src.Cache.CatalogPath("2.15.0", "Android")))
		assert.True(t, cache.FileExists(src.Cache.SnapshotPath("2.15.0", "Android")))

		before := srv.requests.Load()
		again, err := src.Catalog(ctx, "2.15.0")
		require.NoError(t, err)
		assert.Equal(t, raw, again)
		assert.Equal(t, before, srv.requests.Load())

		data, err := src.Raw(ctx, "2.15.0")
		require.NoError(t, err)
		assert.Equal(t, catalogJSON, string(data))
		assert.Equal(t, before, srv.requests.Load())
	})

	t.Run("disabled cache always fetches", func(t *testing.T) {
		src := &cdn.Source{Client: srv.client("Android"), Cache: cache.New(t.TempDir(), false)}
		before := srv.requests.Load()
		_, err := src.Catalog(ctx, "2.15.0")
		require.NoError(t, err)
		_, err = src.Catalog(ctx, "2.15.0")
		require.NoError(t, err)
		assert.Equal(t, before+2, srv.requests.Load())
	})

	t.Run("local file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.json")
		require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o644))

		before := srv.requests.Load()
		src := &cdn.Source{Client: srv.client("Android"), Cache: cache.New(t.TempDir(), true), Path: path}
		raw, err := src.Catalog(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"0#/a.bundle"}, raw.InternalIDs)
		assert.Equal(t, before, srv.requests.Load())
	})
}
