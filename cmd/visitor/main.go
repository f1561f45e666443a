// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Command waypoint-visitor plays one visit against a running server: meta
// bootstrap, fingerprint, client IP lookup, location consent, submission and
// redirect.
//
//	waypoint-visitor -base http://localhost:8080 -slug abc12345 -lat 40.7128 -lng -74.0060
//	waypoint-visitor -base http://localhost:8080 -slug abc12345 -deny -max-retries 2
//
// Exit status: 0 when the redirect target was reached, 1 on errors, 2 when
// the visitor ended in the denied state.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tomtom215/waypoint/internal/fingerprint"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/visitor"
)

const defaultUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

// Exit codes
const (
	exitOK     = 0
	exitError  = 1
	exitDenied = 2
)

type options struct {
	base       string
	slug       string
	lat        float64
	lng        float64
	deny       bool
	maxRetries int
	ua         string
	providers  string
	delay      time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("waypoint-visitor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.base, "base", "http://localhost:8080", "server base URL")
	fs.StringVar(&o.slug, "slug", "", "shortlink slug to visit (required)")
	fs.Float64Var(&o.lat, "lat", 40.7128, "latitude the visitor reports when it allows location")
	fs.Float64Var(&o.lng, "lng", -74.0060, "longitude the visitor reports when it allows location")
	fs.BoolVar(&o.deny, "deny", false, "deny every location request")
	fs.IntVar(&o.maxRetries, "max-retries", 3, "retries after a denial (0 = unbounded)")
	fs.StringVar(&o.ua, "ua", defaultUA, "user agent of the simulated browser")
	fs.StringVar(&o.providers, "providers", "ipapi.co,ipwho.is", "client IP lookup providers, primary first (empty disables)")
	fs.DurationVar(&o.delay, "redirect-delay", visitor.DefaultRedirectDelay, "delay between submission and redirect")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.slug == "" {
		return nil, errors.New("-slug is required")
	}
	if o.deny && o.maxRetries == 0 {
		return nil, errors.New("-deny with unbounded -max-retries would never finish")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitError
	}

	logging.Init(logging.Config{Level: "warn", Format: "console"})

	flow, nav, err := buildFlow(o)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	env := fingerprint.StaticEnvironment{
		UA:     o.ua,
		Lang:   "en-US",
		Width:  1920,
		Height: 1080,
		TZ:     "America/New_York",
	}

	res, err := flow.Run(ctx, o.slug, env)
	switch {
	case errors.Is(err, visitor.ErrDenied):
		fmt.Fprintf(stdout, "denied after %d attempts\n", res.Attempts)
		return exitDenied
	case err != nil:
		fmt.Fprintln(stderr, err)
		return exitError
	}

	if res.Submission != nil {
		select {
		case subErr := <-res.Submission:
			if subErr != nil {
				fmt.Fprintf(stderr, "submission failed: %v\n", subErr)
			}
		case <-time.After(5 * time.Second):
			fmt.Fprintln(stderr, "submission still pending")
		}
	}

	fmt.Fprintf(stdout, "shortlink %d -> %s (attempts %d)\n", res.Meta.ShortlinkID, nav.Reached, res.Attempts)
	return exitOK
}

func buildFlow(o *options) (*visitor.Flow, *visitor.HTTPNavigator, error) {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	client := visitor.NewClient(o.base, o.ua, httpClient)
	nav := &visitor.HTTPNavigator{Client: httpClient, UserAgent: o.ua}

	var resolver *visitor.IPResolver
	if names := splitList(o.providers); len(names) > 0 {
		r, err := visitor.NewIPResolver(nil, names...)
		if err != nil {
			return nil, nil, err
		}
		resolver = r
	}

	source := visitor.PositionFunc(func(ctx context.Context, _ visitor.PositionOptions) (visitor.Position, error) {
		if o.deny {
			return visitor.Position{}, errors.New("user denied geolocation")
		}
		return visitor.Position{Latitude: o.lat, Longitude: o.lng}, nil
	})

	return &visitor.Flow{
		Meta:       client,
		Collector:  fingerprint.NewCollector(fingerprint.DefaultProbeTimeout),
		IPResolver: resolver,
		Negotiator: visitor.NewNegotiator(source, visitor.WithMaxRetries(o.maxRetries)),
		Sequencer:  visitor.NewSequencer(client, nav, o.delay),
	}, nav, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
