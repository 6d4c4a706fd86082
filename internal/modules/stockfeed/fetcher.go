package stockfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// Fetcher downloads and parses one fresh stock report.
type Fetcher interface {
	Fetch(ctx context.Context) (Feed, error)
}

// ErrInvalidReport wraps parse failures. They are not retried: a second
// download of the same report will not parse any better.
var ErrInvalidReport = errors.New("invalid stock report")

// ── Dealer portal (login + CSV download) ──────────────────────────────────────

// HTTPOptions configures the dealer-portal fetcher.
type HTTPOptions struct {
	LoginURL    string
	DownloadURL string
	Email       string
	Password    string
	Timeout     time.Duration
}

// HTTPFetcher logs into the dealer portal and downloads the availability CSV.
type HTTPFetcher struct {
	opts HTTPOptions
}

func NewHTTPFetcher(opts HTTPOptions) (*HTTPFetcher, error) {
	if opts.LoginURL == "" || opts.DownloadURL == "" {
		return nil, errors.New("login and download URLs are required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &HTTPFetcher{opts: opts}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (Feed, error) {
	// Fresh session per attempt so a half-authenticated cookie never leaks into a retry.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return Feed{}, err
	}
	client := &http.Client{Jar: jar, Timeout: f.opts.Timeout}

	if err := f.login(ctx, client); err != nil {
		return Feed{}, err
	}
	data, err := f.download(ctx, client)
	if err != nil {
		return Feed{}, err
	}
	feed, err := ParseComposite(data)
	if err != nil {
		return Feed{}, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	return feed, nil
}

func (f *HTTPFetcher) login(ctx context.Context, client *http.Client) error {
	form := url.Values{
		"login_email":    {f.opts.Email},
		"login_password": {f.opts.Password},
		"from":           {""},
		"login":          {""},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.opts.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("login: http status %d", resp.StatusCode)
	}
	return nil
}

func (f *HTTPFetcher) download(ctx context.Context, client *http.Client) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.opts.DownloadURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: csv returned status code [%d], expected 200", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	return data, nil
}

// ── FTP report ────────────────────────────────────────────────────────────────

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Host     string
	User     string
	Password string
	Path     string
	Timeout  time.Duration
}

// ftpSession is the part of *ftp.ServerConn used by FTPFetcher.
type ftpSession interface {
	Login(user, password string) error
	Retr(path string) (io.ReadCloser, error)
	Quit() error
}

type serverConn struct{ *ftp.ServerConn }

func (c serverConn) Retr(path string) (io.ReadCloser, error) {
	r, err := c.ServerConn.Retr(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func dialFTP(ctx context.Context, opts FTPOptions) (ftpSession, error) {
	conn, err := ftp.Dial(opts.Host, ftp.DialWithContext(ctx), ftp.DialWithTimeout(opts.Timeout))
	if err != nil {
		return nil, err
	}
	return serverConn{conn}, nil
}

// FTPFetcher retrieves the EAN-keyed report from the supplier's FTP server.
type FTPFetcher struct {
	opts FTPOptions
	dial func(ctx context.Context, opts FTPOptions) (ftpSession, error)
}

func NewFTPFetcher(opts FTPOptions) (*FTPFetcher, error) {
	if opts.Host == "" {
		return nil, errors.New("ftp host is required")
	}
	if _, _, err := net.SplitHostPort(opts.Host); err != nil {
		opts.Host = net.JoinHostPort(opts.Host, "21")
	}
	if opts.Path == "" {
		opts.Path = "STOCKS_simpl_Izaro.csv"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &FTPFetcher{opts: opts, dial: dialFTP}, nil
}

func (f *FTPFetcher) Fetch(ctx context.Context) (Feed, error) {
	conn, err := f.dial(ctx, f.opts)
	if err != nil {
		return Feed{}, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login(f.opts.User, f.opts.Password); err != nil {
		return Feed{}, fmt.Errorf("ftp login: %w", err)
	}
	r, err := conn.Retr(f.opts.Path)
	if err != nil {
		return Feed{}, fmt.Errorf("ftp retr %s: %w", f.opts.Path, err)
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return Feed{}, fmt.Errorf("ftp read %s: %w", f.opts.Path, err)
	}

	feed, err := ParseEAN(data)
	if err != nil {
		return Feed{}, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	return feed, nil
}
