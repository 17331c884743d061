package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/viant/storefront/client/auth"
	"github.com/viant/storefront/client/auth/store"
	"github.com/viant/storefront/client/auth/transport"
	"github.com/viant/storefront/internal/config"
)

// Run parses args and executes the selected command, writing results to out.
func Run(ctx context.Context, args []string, out io.Writer) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	service, err := newService(options)
	if err != nil {
		return err
	}
	switch options.Args.Command {
	case "login":
		if err = service.SendOTP(ctx, options.Phone); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "OTP sent to %s\n", options.Phone)
		return err
	case "verify":
		session, err := service.VerifyOTP(ctx, options.Phone, options.OTP)
		if err != nil {
			return err
		}
		return printJSON(out, session.User)
	case "status":
		return status(service.Store(), out)
	case "refresh":
		if options.Force {
			_, err = service.Coordinator().Refresh(ctx)
		} else {
			err = service.ProactiveRefresh(ctx)
		}
		if err != nil {
			return err
		}
		return status(service.Store(), out)
	case "request":
		return request(ctx, service.Requester(), options, out)
	case "logout":
		if err = service.Logout(ctx); err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, "logged out")
		return err
	}
	return fmt.Errorf("unknown command: %q", options.Args.Command)
}

func newService(options *Options) (*auth.Service, error) {
	cfg, err := config.Load(options.Config)
	if err != nil {
		return nil, err
	}
	if options.URL != "" {
		cfg.BaseURL = options.URL
	}
	if options.Session != "" {
		cfg.Session.URL = options.Session
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	tokens := store.New(
		store.WithStorage(store.NewFileStorage(cfg.Session.URL)),
		store.WithCodec(store.NewXORCodec(cfg.Session.ObfuscationKey)),
		store.WithExpiryBuffer(cfg.Session.ExpiryBuffer),
	)
	return auth.New(cfg.BaseURL,
		auth.WithStore(tokens),
		auth.WithLogger(cfg.Logger(os.Stderr)),
		auth.WithHTTPClient(&http.Client{Timeout: cfg.HTTP.Timeout}),
	)
}

type statusView struct {
	Authenticated bool           `json:"authenticated"`
	NeedsRefresh  bool           `json:"needsRefresh"`
	HasSession    bool           `json:"hasSession"`
	Expiry        string         `json:"expiry,omitempty"`
	User          map[string]any `json:"user,omitempty"`
}

func status(tokens *store.Store, out io.Writer) error {
	view := &statusView{
		Authenticated: tokens.IsAuthenticated(),
		NeedsRefresh:  tokens.NeedsRefresh(),
		HasSession:    tokens.HasSession(),
		User:          tokens.UserRecord(),
	}
	if token := tokens.Token(); token != nil && !token.Expiry.IsZero() {
		view.Expiry = token.Expiry.UTC().Format("2006-01-02T15:04:05Z")
	}
	return printJSON(out, view)
}

func request(ctx context.Context, requester *transport.Requester, options *Options, out io.Writer) error {
	if options.Args.Path == "" {
		return errors.New("request requires an API path")
	}
	requestOptions := &transport.Options{Method: strings.ToUpper(options.Method)}
	if options.Data != "" {
		if !json.Valid([]byte(options.Data)) {
			return fmt.Errorf("--data is not valid JSON")
		}
		requestOptions.Body = strings.NewReader(options.Data)
	}
	resp, err := requester.Request(ctx, options.Args.Path, requestOptions)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err = fmt.Fprintf(out, "%d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode)); err != nil {
		return err
	}
	_, err = io.Copy(out, resp.Body)
	return err
}

func printJSON(out io.Writer, value interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
