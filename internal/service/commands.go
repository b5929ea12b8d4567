// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/logger"
	"github.com/wneessen/gotta-go/internal/presenter"
	"github.com/wneessen/gotta-go/internal/region"
	"github.com/wneessen/gotta-go/internal/restroom"
	"github.com/wneessen/gotta-go/internal/view"
)

// handleCommand executes a single line of user input. It returns true if the main view
// should be closed.
func (s *Service) handleCommand(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "map":
		s.selector.SetMode(view.ModeMap)
		s.render()
	case "list":
		s.selector.SetMode(view.ModeList)
		s.render()
	case "icon":
		if len(args) != 1 {
			return false, errors.New(s.t.Get("usage: icon <default|toilet>"))
		}
		icon, err := view.ParseIcon(args[0])
		if err != nil {
			return false, err
		}
		s.selector.SetIcon(icon)
		s.render()
	case "refresh":
		return false, s.refresh(ctx)
	case "pan":
		return false, s.pan(ctx, args)
	case "goto":
		rec, err := s.restroomArg(args)
		if err != nil {
			return false, err
		}
		d := s.selector.ShowOnMap(s.coordinator, rec.Coordinate())
		s.updateAddress(ctx, d.Region.Center())
		s.render()
	case "show":
		rec, err := s.restroomArg(args)
		if err != nil {
			return false, err
		}
		return false, s.showDetail(rec)
	case "status":
		s.printStatus(ctx)
	case "logout":
		if err := s.gate.Logout(ctx); err != nil {
			return false, err
		}
		s.printf("%s\n", s.t.Get("You have been logged out."))
		return true, nil
	case "help", "?":
		s.printHelp()
	case "quit", "exit", "q":
		return true, nil
	default:
		return false, errors.New(s.t.Getf("unknown command %q, type 'help' for a list of commands", fields[0]))
	}
	return false, nil
}

// refresh fetches the restrooms of the current region, regardless of a pending fetch.
func (s *Service) refresh(ctx context.Context) error {
	d := s.coordinator.ManualRefresh()
	if !d.Fetch {
		return errors.New(s.t.Get("There is nothing to refresh, the map has no region yet."))
	}
	s.printf("%s\n", s.t.Get("Refreshing…"))
	s.apply(ctx, d)
	return nil
}

// pan moves the viewport. Only significant moves are adopted. Without a region there is no
// viewport to move.
func (s *Service) pan(ctx context.Context, args []string) error {
	if len(args) != 2 && len(args) != 4 {
		return errors.New(s.t.Get("usage: pan <lat> <lng> [<latDelta> <lngDelta>]"))
	}
	values := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", s.t.Getf("invalid number %q", arg), err)
		}
		values[i] = v
	}
	center := geobus.Coordinate{Lat: values[0], Lon: values[1]}
	if !center.Valid() {
		return errors.New(s.t.Getf("invalid coordinates %f,%f", center.Lat, center.Lon))
	}

	current, ok := s.coordinator.Region()
	if !ok {
		return errors.New(s.t.Get("There is nothing to refresh, the map has no region yet."))
	}

	proposed := region.Region{
		Latitude:       center.Lat,
		Longitude:      center.Lon,
		LatitudeDelta:  current.LatitudeDelta,
		LongitudeDelta: current.LongitudeDelta,
	}
	if len(values) == 4 {
		proposed.LatitudeDelta, proposed.LongitudeDelta = values[2], values[3]
	}
	d := s.coordinator.OnViewportChanged(proposed)
	if !d.Fetch {
		s.printf("%s\n", s.t.Get("The map moved only slightly, the restrooms were not reloaded."))
		return nil
	}
	s.updateAddress(ctx, d.Region.Center())
	s.apply(ctx, d)
	return nil
}

func (s *Service) restroomArg(args []string) (restroom.Record, error) {
	if len(args) != 1 {
		return restroom.Record{}, errors.New(s.t.Get("usage: goto|show <id>"))
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return restroom.Record{}, errors.New(s.t.Getf("invalid restroom id %q", args[0]))
	}
	rec, ok := s.coordinator.Restroom(id)
	if !ok {
		return restroom.Record{}, errors.New(s.t.Getf("restroom %d is not in the current results", id))
	}
	return rec, nil
}

func (s *Service) showDetail(rec restroom.Record) error {
	origin, ok := s.origin()
	entry := presenter.Entry{Record: rec}
	if ok {
		entry.Meters = origin.DistanceTo(rec.Coordinate())
	}
	out, err := s.presenter.RenderDetail(entry)
	if err != nil {
		return err
	}
	s.printf("\n%s", out)
	return nil
}

// origin returns the user's position, or the region center if the position is unknown.
func (s *Service) origin() (geobus.Coordinate, bool) {
	s.locationLock.RLock()
	position, hasPosition := s.position, s.hasPosition
	s.locationLock.RUnlock()
	if hasPosition {
		return position, true
	}
	r, ok := s.coordinator.Region()
	return r.Center(), ok
}

func (s *Service) printStatus(ctx context.Context) {
	sessionStatus, err := s.gate.Check(ctx)
	if err != nil {
		s.logger.Debug("failed to check session for status output", logger.Err(err))
	}
	snap := s.coordinator.Snapshot()

	position := s.t.Get("unknown")
	s.locationLock.RLock()
	if s.hasPosition {
		position = fmt.Sprintf("%.4f, %.4f (±%.0f m)", s.position.Lat, s.position.Lon, s.position.Acc)
	}
	s.locationLock.RUnlock()

	regionInfo := s.t.Get("none")
	if snap.HasRegion {
		regionInfo = fmt.Sprintf("%.4f, %.4f (Δ %.4f/%.4f)", snap.Region.Latitude, snap.Region.Longitude,
			snap.Region.LatitudeDelta, snap.Region.LongitudeDelta)
	}

	lines := []string{
		s.t.Getf("Session: %s", sessionStatus),
		s.t.Getf("Location permission: %s", s.locator.Permission()),
		s.t.Getf("Position: %s", position),
		s.t.Getf("Region: %s", regionInfo),
		s.t.Getf("Restrooms: %d (%s, %d in flight)", len(snap.Restrooms), snap.State, snap.InFlight),
		s.t.Getf("View: %s, icon %s", s.selector.Mode(), s.selector.Icon()),
	}
	s.printf("%s\n", strings.Join(lines, "\n"))
}

func (s *Service) printHelp() {
	commands := [][2]string{
		{"map", s.t.Get("show the restrooms as map markers")},
		{"list", s.t.Get("show the restrooms as a list")},
		{"icon <default|toilet>", s.t.Get("change the map marker icon")},
		{"refresh", s.t.Get("reload the restrooms of the current region")},
		{"pan <lat> <lng> [<latDelta> <lngDelta>]", s.t.Get("move the map")},
		{"goto <id>", s.t.Get("center the map on a restroom")},
		{"show <id>", s.t.Get("show the details of a restroom")},
		{"status", s.t.Get("show the session, location and fetch state")},
		{"logout", s.t.Get("remove the stored login and quit")},
		{"quit", s.t.Get("quit gotta-go")},
	}
	buf := strings.Builder{}
	for _, c := range commands {
		buf.WriteString(fmt.Sprintf("  %-42s %s\n", c[0], c[1]))
	}
	s.printf("%s", buf.String())
}
