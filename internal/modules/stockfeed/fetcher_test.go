package stockfeed

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func portal(t *testing.T, csvStatus int, body string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("login_email") != "dealer@example.com" || r.PostForm.Get("login_password") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok", Path: "/"})
	})
	mux.HandleFunc("/available/csv/", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "ok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(csvStatus)
		w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newPortalFetcher(t *testing.T, srv *httptest.Server, password string) *HTTPFetcher {
	t.Helper()
	f, err := NewHTTPFetcher(HTTPOptions{
		LoginURL:    srv.URL + "/login/",
		DownloadURL: srv.URL + "/available/csv/",
		Email:       "dealer@example.com",
		Password:    password,
	})
	require.NoError(t, err)
	return f
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := portal(t, http.StatusOK, "Article;Size;Color Code;Units available\nM1;M;K1;2\n")

	feed, err := newPortalFetcher(t, srv, "secret").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SchemaComposite, feed.Schema)
	assert.Equal(t, []Row{{JoinKey: "M1", Size: "M", ColorCode: "K1", Units: "2"}}, feed.Rows)
}

func TestHTTPFetcher_LoginRejected(t *testing.T) {
	srv := portal(t, http.StatusOK, "")

	_, err := newPortalFetcher(t, srv, "wrong").Fetch(context.Background())
	assert.ErrorContains(t, err, "login")
}

func TestHTTPFetcher_DownloadNotOK(t *testing.T) {
	srv := portal(t, http.StatusBadGateway, "")

	_, err := newPortalFetcher(t, srv, "secret").Fetch(context.Background())
	assert.ErrorContains(t, err, "502")
	assert.NotErrorIs(t, err, ErrInvalidReport)
}

func TestHTTPFetcher_InvalidReport(t *testing.T) {
	srv := portal(t, http.StatusOK, "<html>maintenance</html>")

	_, err := newPortalFetcher(t, srv, "secret").Fetch(context.Background())
	assert.ErrorIs(t, err, ErrInvalidReport)
}

func TestNewFTPFetcher_Defaults(t *testing.T) {
	f, err := NewFTPFetcher(FTPOptions{Host: "ftp.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ftp.example.com:21", f.opts.Host)
	assert.Equal(t, "STOCKS_simpl_Izaro.csv", f.opts.Path)

	_, err = NewFTPFetcher(FTPOptions{})
	assert.Error(t, err)
}

type fakeFTP struct {
	user, password string
	files          map[string]string
	retrieved      []string
	quit           bool
}

func (f *fakeFTP) Login(user, password string) error {
	if user != f.user || password != f.password {
		return errors.New("530 login incorrect")
	}
	return nil
}

func (f *fakeFTP) Retr(path string) (io.ReadCloser, error) {
	f.retrieved = append(f.retrieved, path)
	body, ok := f.files[path]
	if !ok {
		return nil, errors.New("550 no such file")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeFTP) Quit() error {
	f.quit = true
	return nil
}

func newFakeFTPFetcher(t *testing.T, server *fakeFTP, password string) *FTPFetcher {
	t.Helper()
	f, err := NewFTPFetcher(FTPOptions{Host: "ftp.example.com", User: "dealer", Password: password})
	require.NoError(t, err)
	f.dial = func(ctx context.Context, opts FTPOptions) (ftpSession, error) {
		assert.Equal(t, "ftp.example.com:21", opts.Host)
		return server, nil
	}
	return f
}

func TestFTPFetcher_Fetch(t *testing.T) {
	server := &fakeFTP{user: "dealer", password: "secret", files: map[string]string{
		"STOCKS_simpl_Izaro.csv": "M10020K12;4;x;2024-01-01;8434446000001;\n" +
			"M10020K13;2+;x;2024-01-01;8434446000002;\n",
	}}

	feed, err := newFakeFTPFetcher(t, server, "secret").Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SchemaEAN, feed.Schema)
	assert.Equal(t, []Row{
		{EAN: "8434446000001", Units: "4"},
		{EAN: "8434446000002", Units: "2+"},
	}, feed.Rows)
	assert.Equal(t, []string{"STOCKS_simpl_Izaro.csv"}, server.retrieved)
	assert.True(t, server.quit)
}

func TestFTPFetcher_LoginFails(t *testing.T) {
	server := &fakeFTP{user: "dealer", password: "secret"}

	_, err := newFakeFTPFetcher(t, server, "wrong").Fetch(context.Background())
	assert.ErrorContains(t, err, "ftp login")
	assert.Empty(t, server.retrieved)
	assert.True(t, server.quit)
}

func TestFTPFetcher_MissingFileAndBadReport(t *testing.T) {
	server := &fakeFTP{user: "dealer", password: "secret", files: map[string]string{}}
	_, err := newFakeFTPFetcher(t, server, "secret").Fetch(context.Background())
	assert.ErrorContains(t, err, "ftp retr")
	assert.NotErrorIs(t, err, ErrInvalidReport)

	server.files["STOCKS_simpl_Izaro.csv"] = "truncated;1\n"
	_, err = newFakeFTPFetcher(t, server, "secret").Fetch(context.Background())
	assert.ErrorIs(t, err, ErrInvalidReport)
}

func TestFTPFetcher_DialFails(t *testing.T) {
	f, err := NewFTPFetcher(FTPOptions{Host: "ftp.example.com"})
	require.NoError(t, err)
	f.dial = func(ctx context.Context, opts FTPOptions) (ftpSession, error) {
		return nil, errors.New("connection refused")
	}

	_, err = f.Fetch(context.Background())
	assert.ErrorContains(t, err, "ftp dial")
}
