// Package courtctl is the command-line client for the court and token
// services.
package courtctl

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"

	entrypoint "github.com/louisbranch/decicourt/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/decicourt/internal/platform/grpc"
	"github.com/louisbranch/decicourt/internal/platform/id"
	"github.com/louisbranch/decicourt/internal/platform/timeouts"
	courtservice "github.com/louisbranch/decicourt/internal/services/court/api/grpc/court"
	grpcmeta "github.com/louisbranch/decicourt/internal/services/court/api/grpc/metadata"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/rpc"
)

// Config holds courtctl defaults read from the environment.
type Config struct {
	Addr     string        `env:"DECICOURT_COURTCTL_ADDR" envDefault:"localhost:8090"`
	Account  string        `env:"DECICOURT_ACCOUNT"`
	Token    string        `env:"DECICOURT_TOKEN"`
	Language string        `env:"DECICOURT_LANG"`
	Timeout  time.Duration `env:"DECICOURT_COURTCTL_TIMEOUT" envDefault:"5s"`
}

// DialFunc connects to the court server at addr.
type DialFunc func(ctx context.Context, addr string) (*grpc.ClientConn, error)

// Options configures the command tree.
type Options struct {
	Config Config
	Dial   DialFunc
	Out    io.Writer
}

type client struct {
	opts Options
	cfg  *Config
}

// Execute runs courtctl with args.
func Execute(ctx context.Context, args []string, out io.Writer) error {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return err
	}
	cmd := NewCommand(Options{Config: cfg, Out: out})
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewCommand builds the courtctl command tree.
func NewCommand(opts Options) *cobra.Command {
	if opts.Dial == nil {
		opts.Dial = dialCourt
	}
	cfg := opts.Config
	c := &client{opts: opts, cfg: &cfg}

	root := &cobra.Command{
		Use:           "courtctl",
		Short:         "Talk to a decicourt server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if opts.Out != nil {
		root.SetOut(opts.Out)
		root.SetErr(opts.Out)
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.cfg.Addr, "addr", cfg.Addr, "Court server address")
	flags.StringVar(&c.cfg.Account, "account", cfg.Account, "Account to act as (unverified servers)")
	flags.StringVar(&c.cfg.Token, "token", cfg.Token, "Bearer token for verified servers")
	flags.StringVar(&c.cfg.Language, "lang", cfg.Language, "Preferred language for error messages")
	flags.DurationVar(&c.cfg.Timeout, "timeout", cfg.Timeout, "Request timeout")

	root.AddCommand(c.courtCommands()...)
	root.AddCommand(c.tokenCommands()...)
	root.AddCommand(saltCommand(), commitmentCommand())
	return root
}

func dialCourt(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	return platformgrpc.Dial(ctx, addr, courtservice.ServiceName, timeouts.GRPCDial, nil)
}

// invoke calls service/method and prints the response as JSON.
func (c *client) invoke(cmd *cobra.Command, service, method string, fields map[string]any) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.GRPCRequest
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := c.opts.Dial(ctx, c.cfg.Addr)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ctx, err = c.outgoing(ctx)
	if err != nil {
		return err
	}
	out, err := rpc.Invoke(ctx, conn, service, method, fields)
	if err != nil {
		return describe(err)
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func (c *client) outgoing(ctx context.Context) (context.Context, error) {
	requestID, err := id.NewID()
	if err != nil {
		return nil, err
	}
	pairs := []string{grpcmeta.RequestIDHeader, requestID}
	if account := strings.TrimSpace(c.cfg.Account); account != "" {
		pairs = append(pairs, grpcmeta.AccountHeader, account)
	}
	if token := strings.TrimSpace(c.cfg.Token); token != "" {
		pairs = append(pairs, grpcmeta.AuthorizationHeader, "Bearer "+token)
	}
	if lang := strings.TrimSpace(c.cfg.Language); lang != "" {
		pairs = append(pairs, grpcmeta.AcceptLanguageHeader, lang)
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...), nil
}
