package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/templui/lanchat/internal/autherr"
)

type callback struct {
	code string
	err  error
}

// Loopback returns a CodeFunc for command-line clients. It listens on the
// host and path of redirectURL, hands the consent URL to open and waits for
// the browser to come back.
func Loopback(redirectURL string, open func(authURL string) error) CodeFunc {
	return func(ctx context.Context, authURL, state string) (string, error) {
		u, err := url.Parse(redirectURL)
		if err != nil {
			return "", fmt.Errorf("invalid redirect url: %w", err)
		}

		ln, err := net.Listen("tcp", u.Host)
		if err != nil {
			return "", fmt.Errorf("failed to listen for oauth callback: %w", err)
		}

		results := make(chan callback, 1)
		mux := http.NewServeMux()
		mux.HandleFunc(pathOrRoot(u.Path), func(w http.ResponseWriter, r *http.Request) {
			res := parseCallback(r.URL.Query(), state)
			if res.err != nil {
				http.Error(w, "Sign-in failed. You can close this window.", http.StatusBadRequest)
			} else {
				fmt.Fprintln(w, "Signed in. You can close this window.")
			}
			select {
			case results <- res:
			default:
			}
		})

		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			err := srv.Serve(ln)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("oauth callback server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		err = open(authURL)
		if err != nil {
			return "", autherr.Wrap(autherr.PopupBlocked, err)
		}

		select {
		case res := <-results:
			return res.code, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func parseCallback(q url.Values, state string) callback {
	if e := q.Get("error"); e != "" {
		if e == "access_denied" {
			return callback{err: autherr.New(autherr.PopupClosedByUser)}
		}
		return callback{err: fmt.Errorf("oauth error: %s", e)}
	}
	if q.Get("state") != state {
		return callback{err: autherr.Wrap(autherr.InvalidCredential, errors.New("oauth state mismatch"))}
	}
	code := q.Get("code")
	if code == "" {
		return callback{err: autherr.Wrap(autherr.InvalidCredential, errors.New("oauth callback missing code"))}
	}
	return callback{code: code}
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
