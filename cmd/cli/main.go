// Command histctl is a CLI client for the content history service.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	grpcserver "github.com/and161185/content-history/internal/server/grpc"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	SessionID   string    `json:"session_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "content-history")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "content-history")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tf tokenFile) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tf)
}

func loadToken() (tokenFile, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return tokenFile{}, err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return tokenFile{}, err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return tokenFile{}, errors.New("no valid token (run histctl token)")
	}
	return tf, nil
}

// ---- grpc dial ----

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil //nolint:gosec // dev only
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

type globalFlags struct {
	addr       string
	caPath     string
	skipVerify bool
	plaintext  bool
	typeAlias  string
	timeout    time.Duration
}

var global globalFlags

// dialFn is replaced in tests.
var dialFn = dial

func dial(ctx context.Context, g globalFlags, bearer string) (*grpc.ClientConn, error) {
	var creds credentials.TransportCredentials
	if g.plaintext {
		creds = insecure.NewCredentials()
	} else {
		var err error
		if creds, err = loadTLS(g.caPath, g.skipVerify); err != nil {
			return nil, err
		}
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if bearer != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(bearerCreds{token: bearer, secure: !g.plaintext}))
	}
	//nolint:staticcheck // DialContext is supported through 1.x; migrate when grpc.NewClient is stable
	return grpc.DialContext(ctx, g.addr, opts...)
}

// withClient dials with the stored token and runs fn.
func withClient(ctx context.Context, fn func(context.Context, *grpcserver.HistoryClient) error) error {
	tf, err := loadToken()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, global.timeout)
	defer cancel()

	cc, err := dialFn(ctx, global, tf.AccessToken)
	if err != nil {
		return err
	}
	defer cc.Close()
	return fn(ctx, grpcserver.NewHistoryClient(cc))
}

// ---- utils ----

var stdout io.Writer = os.Stdout

func printJSON(v any) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "histctl",
		Short:         "Inspect and prune content version history",
		Version:       fmt.Sprintf("%s (%s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&global.addr, "addr", "localhost:8443", "server address")
	pf.StringVar(&global.caPath, "cacert", "", "CA cert (PEM)")
	pf.BoolVar(&global.skipVerify, "insecure", false, "skip cert verify (dev)")
	pf.BoolVar(&global.plaintext, "plaintext", false, "connect without TLS")
	pf.StringVarP(&global.typeAlias, "type", "t", "com_content.article", "content type alias")
	pf.DurationVar(&global.timeout, "timeout", 30*time.Second, "per command timeout")

	rootCmd.AddCommand(
		newListCmd(),
		newShowCmd(),
		newDeleteCmd(),
		newKeepCmd(),
		newHashCmd(),
		newTokenCmd(),
	)
	return rootCmd
}

func run(ctx context.Context, args []string) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
