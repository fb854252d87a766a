package app

import (
	"context"
	"fmt"

	"github.com/templui/lanchat/internal/localstore"
	"github.com/templui/lanchat/internal/navigation"
	"github.com/templui/lanchat/internal/oauth"
	"github.com/templui/lanchat/internal/session"
)

// Client is one device: a session coordinator persisting to device-local
// storage, with the navigation guard following it.
type Client struct {
	Session *session.Coordinator
	Router  *navigation.Router
	device  localstore.Store
	detach  func()
}

// NewClient restores the device session and starts listening for auth-state
// changes. openBrowser receives the Google consent URL.
func (a *App) NewClient(ctx context.Context, openBrowser func(url string) error) (*Client, error) {
	device, err := localstore.Open(ctx, localstore.Config{
		Driver:   a.Cfg.LocalStoreDriver,
		Path:     a.Cfg.LocalStorePath,
		RedisURL: a.Cfg.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open device storage: %w", err)
	}

	cfg := session.Config{
		StorageKey:  a.Cfg.AuthStorageKey,
		AuthTimeout: a.Cfg.AuthTimeout,
		Sender:      a.EmailService,
	}
	if a.Cfg.GoogleEnabled() {
		cfg.Provider = oauth.NewGoogle(oauth.GoogleConfig{
			ClientID:     a.Cfg.GoogleClientID,
			ClientSecret: a.Cfg.GoogleClientSecret,
			RedirectURL:  a.Cfg.GoogleRedirectURL,
		}, oauth.Loopback(a.Cfg.GoogleRedirectURL, openBrowser))
	}

	coordinator := session.New(a.Store, device, cfg)
	coordinator.Load(ctx)

	router := navigation.NewRouter(navigation.RegionNone)
	guard := navigation.NewGuard(router, navigation.DefaultCooldown)
	detach := guard.Attach(coordinator)
	coordinator.Start()

	return &Client{
		Session: coordinator,
		Router:  router,
		device:  device,
		detach:  detach,
	}, nil
}

func (c *Client) Close() error {
	c.detach()
	c.Session.Stop()
	return c.device.Close()
}
