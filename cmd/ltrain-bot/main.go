// Command ltrain-bot drives the bot action endpoint from the command line.
//
//	ltrain-bot [flags] register|heartbeat|discover|propose|respond|matches|proposals|watch
//
// The credential comes from --bot-key (or LTRAIN_BOT_KEY), falling back to
// --token (or LTRAIN_TOKEN). Results are written to stdout as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/tbourn/ltrain-backend/internal/bridge"
	"github.com/tbourn/ltrain-backend/internal/domain"
	"github.com/tbourn/ltrain-backend/internal/sysutil"
)

type options struct {
	api       string
	token     string
	botKey    string
	station   string
	direction string
	limit     int
	target    string
	key       string
	match     string
	accept    bool
	reject    bool
	interval  time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var o options
	fs := pflag.NewFlagSet("ltrain-bot", pflag.ContinueOnError)
	fs.StringVar(&o.api, "api", sysutil.EnvOr("http://localhost:8080/api", "LTRAIN_API_URL"), "API base URL")
	fs.StringVar(&o.token, "token", os.Getenv("LTRAIN_TOKEN"), "user session token (Bearer)")
	fs.StringVar(&o.botKey, "bot-key", os.Getenv("LTRAIN_BOT_KEY"), "bot API key")
	fs.StringVarP(&o.station, "station", "s", "", "station id")
	fs.StringVarP(&o.direction, "direction", "d", "", "travel direction (north|south)")
	fs.IntVarP(&o.limit, "limit", "n", 0, "discover result limit (0 = server default)")
	fs.StringVarP(&o.target, "target", "t", "", "target user id for propose")
	fs.StringVar(&o.key, "key", "", "explicit idempotency key for propose (generated when empty)")
	fs.StringVarP(&o.match, "match", "m", "", "match id for respond")
	fs.BoolVar(&o.accept, "accept", false, "accept the proposal")
	fs.BoolVar(&o.reject, "reject", false, "reject the proposal")
	fs.DurationVar(&o.interval, "interval", 10*time.Second, "watch polling interval (clamped to 5s..30s)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: ltrain-bot [flags] <register|heartbeat|discover|propose|respond|matches|proposals|watch>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if sysutil.IsTruthy(os.Getenv("LTRAIN_DEBUG")) {
		sysutil.SetupLogger(os.Stderr, "ltrain-bot", "debug", true)
	} else {
		sysutil.SetupLogger(os.Stderr, "ltrain-bot", "warn", true)
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("exactly one command is required")
	}

	var cred bridge.Credential
	switch {
	case o.botKey != "":
		cred = bridge.BotKey(o.botKey)
	case o.token != "":
		cred = bridge.BearerToken(o.token)
	default:
		return errors.New("--bot-key or --token is required")
	}
	c := bridge.New(o.api, cred)

	cmd := fs.Arg(0)
	log.Debug().Str("cmd", cmd).Str("api", o.api).Msg("ltrain-bot")
	return dispatch(ctx, c, cmd, o, out)
}

func dispatch(ctx context.Context, c *bridge.Client, cmd string, o options, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	switch cmd {
	case "register":
		if o.station == "" {
			return errors.New("--station is required")
		}
		s, err := c.Register(ctx, o.station, o.direction)
		if err != nil {
			return err
		}
		return enc.Encode(s)

	case "heartbeat":
		if err := c.Heartbeat(ctx, o.station, o.direction); err != nil {
			return err
		}
		return enc.Encode(map[string]bool{"success": true})

	case "discover":
		if o.station == "" {
			return errors.New("--station is required")
		}
		bots, err := c.Discover(ctx, o.station, o.limit)
		if err != nil {
			return err
		}
		return enc.Encode(bots)

	case "propose":
		if o.target == "" || o.station == "" {
			return errors.New("--target and --station are required")
		}
		key := o.key
		if key == "" {
			key = c.NewProposeKey(o.target)
		}
		res, err := c.ProposeWithKey(ctx, key, o.target, o.station, o.direction)
		if err != nil {
			return err
		}
		return enc.Encode(res)

	case "respond":
		if o.match == "" || o.accept == o.reject {
			return errors.New("--match and exactly one of --accept/--reject are required")
		}
		m, err := c.Respond(ctx, o.match, o.accept)
		if err != nil {
			return err
		}
		return enc.Encode(m)

	case "matches":
		ms, err := c.Matches(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(ms)

	case "proposals":
		ps, err := c.Proposals(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(ps)

	case "watch":
		err := c.Watch(ctx, o.interval, func(ps []domain.Match) {
			for _, p := range ps {
				if err := enc.Encode(p); err != nil {
					log.Warn().Err(err).Msg("write proposal")
				}
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown command %q", cmd)
}
