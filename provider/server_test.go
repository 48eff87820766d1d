package provider_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/sashell/go-libsap/provider"
	"github.com/sashell/go-libsap/rcache"
	"github.com/sashell/go-libsap/saobject"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T) *rcache.Runner {
	t.Helper()
	src := rcache.SourceFunc("employees", func(ctx context.Context) ([]any, error) {
		return []any{
			saobject.Make("emp_001", []string{"person"}, "hr", map[string]any{"name": "Alice"}),
			saobject.Make("emp_001", []string{"person"}, "hr", nil), // duplicate
			saobject.Make("emp_002", []string{"person"}, "hr", map[string]any{"name": "Bob"}),
		}, nil
	})
	r, err := rcache.New(rcache.WithSource(src), rcache.WithInterval(time.Hour))
	require.NoError(t, err)
	return r
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out))
	}
	return resp.StatusCode
}

func TestServerEndpoints(t *testing.T) {
	runner := newTestRunner(t)
	srv, err := provider.New(provider.Info{Name: "Employees", Description: "HR data"}, runner,
		provider.WithListenAddr("127.0.0.1:0"),
		provider.WithRequireInitialFetch(5*time.Second),
	)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	defer func() {
		require.NoError(t, srv.Close())
	}()
	base := srv.URL()
	require.NotEmpty(t, base)

	var hello provider.Info
	require.Equal(t, http.StatusOK, getJSON(t, base+"/hello", &hello))
	require.Equal(t, "Employees", hello.Name)
	require.Equal(t, "0.1.0", hello.Version)
	require.Equal(t, provider.ModeAllAtOnce, hello.Mode)

	var objects []map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, base+"/all_data", &objects))
	require.Len(t, objects, 2)
	require.Equal(t, "emp_001", objects[0][saobject.IDKey])
	require.Equal(t, "emp_002", objects[1][saobject.IDKey])

	var health map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, base+"/health", &health))
	require.Equal(t, "ok", health["status"])
	require.Equal(t, float64(2), health["count"])

	var status map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, base+"/status", &status))
	require.Equal(t, float64(2), status["count"])
	require.Equal(t, true, status["is_running"])
	require.Nil(t, status["last_error"])
	require.NotNil(t, status["last_completed_at"])
	require.Equal(t, float64(3600), status["interval_seconds"])

	var root map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, base+"/", &root))
	require.Equal(t, "Employees", root["service"])

	var refresh map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, base+"/refresh", &refresh))
	require.Equal(t, "refresh_started", refresh["status"])
}

func TestRefreshToken(t *testing.T) {
	runner := newTestRunner(t)
	srv, err := provider.New(provider.Info{Name: "Employees"}, runner,
		provider.WithListenAddr("127.0.0.1:0"),
		provider.WithRefreshToken("s3cret"),
	)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	defer srv.Close()
	base := srv.URL()

	var errResp map[string]any
	require.Equal(t, http.StatusUnauthorized, getJSON(t, base+"/refresh", &errResp))
	require.Equal(t, "unauthorized", errResp["error"])

	require.Equal(t, http.StatusUnauthorized, getJSON(t, base+"/refresh?token=wrong", nil))
	require.Equal(t, http.StatusOK, getJSON(t, base+"/refresh?token=s3cret", nil))
}

type memorySink struct {
	urls []string
}

func (s *memorySink) Register(url string) error {
	s.urls = append(s.urls, url)
	return nil
}

func TestRegistrySink(t *testing.T) {
	runner := newTestRunner(t)
	sink := &memorySink{}
	srv, err := provider.New(provider.Info{Name: "Employees"}, runner,
		provider.WithListenAddr("127.0.0.1:0"),
		provider.WithRegistry(sink),
	)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	defer srv.Close()

	require.Equal(t, []string{srv.URL()}, sink.urls)
}

func TestAutoPort(t *testing.T) {
	// Occupy a port, then ask a server to bind it with auto-port on.
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()
	addr := taken.Addr().(*net.TCPAddr)

	runner := newTestRunner(t)
	srv, err := provider.New(provider.Info{Name: "Employees"}, runner,
		provider.WithListenAddr(addr.String()),
		provider.WithAutoPort(true),
	)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	defer srv.Close()

	bound := srv.Addr().(*net.TCPAddr)
	require.NotEqual(t, addr.Port, bound.Port)

	// Without auto-port the same bind fails.
	srv2, err := provider.New(provider.Info{Name: "Employees"}, newTestRunner(t),
		provider.WithListenAddr(addr.String()),
	)
	require.NoError(t, err)
	require.Error(t, srv2.Start())
}
