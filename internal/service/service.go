// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/vorlif/spreak"

	"github.com/wneessen/gotta-go/internal/config"
	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/geocode"
	"github.com/wneessen/gotta-go/internal/http"
	"github.com/wneessen/gotta-go/internal/identity"
	"github.com/wneessen/gotta-go/internal/locator"
	"github.com/wneessen/gotta-go/internal/logger"
	"github.com/wneessen/gotta-go/internal/presenter"
	"github.com/wneessen/gotta-go/internal/region"
	"github.com/wneessen/gotta-go/internal/restroom"
	"github.com/wneessen/gotta-go/internal/session"
	"github.com/wneessen/gotta-go/internal/storage/sqlite"
	"github.com/wneessen/gotta-go/internal/view"
)

const (
	cacheHitTTL    = time.Minute * 30
	cacheMissTTL   = time.Minute * 5
	geocodeTimeout = time.Second * 5
	promptPrefix   = "> "
)

type Service struct {
	config *config.Config
	logger *logger.Logger
	t      *spreak.Localizer

	accuracy    locator.Accuracy
	auth        session.Authenticator
	coordinator *region.Coordinator
	gate        *session.Gate
	geobus      *geobus.GeoBus
	geocoder    geocode.Geocoder
	locator     *locator.Locator
	presenter   *presenter.Presenter
	selector    *view.Selector
	signals     signalSource
	store       *sqlite.Store

	in      io.Reader
	lines   <-chan string
	outLock sync.Mutex
	out     io.Writer
	fetches sync.WaitGroup

	locationLock sync.RWMutex
	position     geobus.Coordinate
	hasPosition  bool
	address      geocode.Address
}

func New(conf *config.Config, log *logger.Logger, t *spreak.Localizer) (*Service, error) {
	bus, err := geobus.New(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create geobus: %w", err)
	}
	pres, err := presenter.New(conf, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}
	mode, err := view.ParseMode(conf.View.Mode)
	if err != nil {
		return nil, err
	}
	icon, err := view.ParseIcon(conf.View.Icon)
	if err != nil {
		return nil, err
	}
	accuracy, err := locator.ParseAccuracy(conf.GeoLocation.Accuracy)
	if err != nil {
		return nil, err
	}

	service := &Service{
		config:    conf,
		logger:    log,
		t:         t,
		accuracy:  accuracy,
		geobus:    bus,
		presenter: pres,
		selector:  view.NewSelector(mode, icon),
		signals:   stdLibSignalSource{},
		in:        os.Stdin,
		out:       os.Stdout,
	}

	service.geocoder, err = service.selectGeocodeProvider(conf, log, t.Language())
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode provider: %w", err)
	}
	providers, err := service.selectGeobusProviders(accuracy)
	if err != nil {
		return nil, fmt.Errorf("failed to create geolocation providers: %w", err)
	}
	service.locator, err = locator.New(bus.NewOrchestrator(providers), locator.Policy(conf.GeoLocation.Permission),
		service.promptPermission, conf.GeoLocation.Timeout, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create locator: %w", err)
	}

	httpClient := http.New(log)
	client, err := restroom.New(httpClient, conf.Restrooms.Endpoint, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create restroom client: %w", err)
	}
	if err = service.setFetcher(client); err != nil {
		return nil, err
	}

	if conf.Identity.ClientID != "" {
		service.auth, err = identity.New(identity.Config{
			ClientID:     conf.Identity.ClientID,
			ClientSecret: conf.Identity.ClientSecret,
			AuthURL:      conf.Identity.AuthURL,
			TokenURL:     conf.Identity.TokenURL,
			Scopes:       conf.Identity.Scopes,
			ListenAddr:   conf.Identity.ListenAddr,
			Timeout:      conf.Identity.Timeout,
		}, service.presentAuthURL, httpClient.Client, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create identity provider: %w", err)
		}
	}

	service.store, err = sqlite.Open(conf.Session.StorageFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}
	service.gate, err = session.NewGate(service.store, log)
	if err != nil {
		_ = service.store.Close()
		return nil, fmt.Errorf("failed to create session gate: %w", err)
	}

	return service, nil
}

// setFetcher replaces the restroom coordinator with one that uses fetcher.
func (s *Service) setFetcher(fetcher region.Fetcher) error {
	coordinator, err := region.NewCoordinator(fetcher, s.logger, s.config.Restrooms.DiscardStaleResponses)
	if err != nil {
		return fmt.Errorf("failed to create region coordinator: %w", err)
	}
	coordinator.OnChange(func(region.Snapshot) { s.render() })
	s.coordinator = coordinator
	return nil
}

// Run shows the login if required, determines the user's position and then serves the
// interactive main view until the user quits, logs out or ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.fetches.Wait()
		if err := s.Close(); err != nil {
			s.logger.Error("failed to close session storage", logger.Err(err))
		}
	}()
	s.lines = s.readLines(ctx)

	ok, err := s.ensureSession(ctx)
	if err != nil || !ok {
		return err
	}

	// The signal handler may start fetches, so it has to be gone before the fetches are awaited.
	var handlers sync.WaitGroup
	sigChan := make(chan os.Signal, 1)
	s.signals.Notify(sigChan, syscall.SIGUSR1)
	handlers.Go(func() { s.HandleRefreshSignal(ctx, sigChan) })
	defer func() {
		s.signals.Stop(sigChan)
		cancel()
		handlers.Wait()
	}()

	s.locateUser(ctx)
	s.render()
	s.printf("%s", s.t.Get("Type 'help' for a list of commands.")+"\n")

	for {
		s.printf("%s", promptPrefix)
		line, ok := s.readLine(ctx)
		if !ok {
			return nil
		}
		quit, err := s.handleCommand(ctx, line)
		if err != nil {
			s.alert(err.Error())
		}
		if quit {
			return nil
		}
	}
}

// Logout removes the stored session token.
func (s *Service) Logout(ctx context.Context) error {
	return s.gate.Logout(ctx)
}

// Close releases the session storage.
func (s *Service) Close() error {
	return s.store.Close()
}

// ensureSession returns true once the user is logged in. It returns false if the user gave
// up on the login.
func (s *Service) ensureSession(ctx context.Context) (bool, error) {
	status, err := s.gate.Check(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	if status == session.StatusAuthenticated {
		return true, nil
	}
	if s.auth == nil {
		return false, errors.New("login required, but no identity client ID is configured")
	}

	for {
		s.printf("%s\n", s.t.Get("Please log in to continue."))
		err = s.gate.Login(ctx, s.auth)
		if err == nil {
			s.printf("%s\n", s.t.Get("Login successful."))
			return true, nil
		}

		s.logger.Error("login failed", logger.Err(err))
		if errors.Is(err, identity.ErrAuthCancelled) {
			s.alert(s.t.Get("The login was cancelled."))
		} else {
			s.alert(s.t.Getf("The login failed: %s", err))
		}
		s.printf("%s", s.t.Get("Press enter to try again or type 'quit' to exit: "))
		line, ok := s.readLine(ctx)
		if !ok || isQuit(line) {
			return false, nil
		}
	}
}

// locateUser asks for the location permission, takes a single position reading and sets the
// initial region. Without a position the map stays empty.
func (s *Service) locateUser(ctx context.Context) {
	perm, err := s.locator.RequestPermission(ctx)
	if err != nil {
		s.logger.Error("failed to request location permission", logger.Err(err))
		s.alert(s.t.Get("Permission to access location was denied"))
		return
	}
	if perm != locator.PermissionGranted {
		s.alert(s.t.Get("Permission to access location was denied"))
		return
	}

	coord, err := s.locator.CurrentPosition(ctx, s.accuracy)
	if err != nil {
		s.logger.Error("failed to determine current position", logger.Err(err))
		if errors.Is(err, locator.ErrPermissionDenied) {
			s.alert(s.t.Get("Permission to access location was denied"))
			return
		}
		s.alert(s.t.Get("Your location could not be determined."))
		return
	}

	s.locationLock.Lock()
	s.position = coord
	s.hasPosition = true
	s.locationLock.Unlock()
	s.logger.Debug("current position determined", slog.Float64("lat", coord.Lat),
		slog.Float64("lon", coord.Lon), slog.Float64("accuracy", coord.Acc))

	d := s.coordinator.SetInitialRegion(coord)
	s.updateAddress(ctx, d.Region.Center())
	s.apply(ctx, d)
}

// apply runs the fetch of a Decision in the background. The coordinator renders the view once
// the fetch completes. Nothing is started once ctx is done.
func (s *Service) apply(ctx context.Context, d region.Decision) {
	if !d.Fetch || ctx.Err() != nil {
		return
	}
	s.fetches.Add(1)
	go func() {
		defer s.fetches.Done()
		if err := s.coordinator.Apply(ctx, d); errors.Is(err, region.ErrStaleResponse) {
			s.logger.Debug("restroom response was superseded", logger.Err(err))
		}
	}()
}

// updateAddress resolves the place name shown in the header for coord.
func (s *Service) updateAddress(ctx context.Context, coord geobus.Coordinate) {
	var address geocode.Address
	if s.geocoder != nil {
		ctxGeo, cancel := context.WithTimeout(ctx, geocodeTimeout)
		defer cancel()
		addr, err := s.geocoder.Reverse(ctxGeo, coord)
		if err != nil {
			s.logger.Debug("failed to reverse geocode region center", logger.Err(err))
		} else {
			address = addr
		}
	}
	s.locationLock.Lock()
	s.address = address
	s.locationLock.Unlock()
}

// render prints the current view.
func (s *Service) render() {
	snap := s.coordinator.Snapshot()
	s.locationLock.RLock()
	position, hasPosition, address := s.position, s.hasPosition, s.address
	s.locationLock.RUnlock()

	tplCtx := s.presenter.BuildContext(snap, position, hasPosition, address, view.IconAsset(s.selector.Icon()))
	out, err := s.presenter.Render(s.selector.Mode(), tplCtx)
	if err != nil {
		s.logger.Error("failed to render view", logger.Err(err))
		return
	}
	s.printf("\n%s", out)
}

func (s *Service) promptPermission(ctx context.Context) (bool, error) {
	s.printf("%s", s.t.Get("gotta-go wants to use your location to find restrooms nearby. Allow? [y/N] "))
	line, ok := s.readLine(ctx)
	if !ok {
		return false, errors.New("no answer received")
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "j", "ja":
		return true, nil
	default:
		return false, nil
	}
}

func (s *Service) presentAuthURL(authURL string) error {
	s.printf("%s\n\n  %s\n\n", s.t.Get("Open the following URL in your browser to log in:"), authURL)
	return nil
}

// readLines scans the input in the background. The channel is closed at the end of the input.
func (s *Service) readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.logger.Error("failed to read input", logger.Err(err))
		}
	}()
	return lines
}

func (s *Service) readLine(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-s.lines:
		return line, ok
	}
}

func (s *Service) alert(msg string) {
	s.printf("! %s\n", msg)
}

func (s *Service) printf(format string, args ...any) {
	s.outLock.Lock()
	defer s.outLock.Unlock()
	if _, err := fmt.Fprintf(s.out, format, args...); err != nil {
		s.logger.Error("failed to write output", logger.Err(err))
	}
}

func isQuit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "q", "quit", "exit":
		return true
	}
	return false
}
