package cmd

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Azunyan1111/go-webm-relay/internal/relay"
	"github.com/Azunyan1111/go-webm-relay/internal/relayhttp"
)

var serveCmd = &cobra.Command{
	Use:   "serve <listen-addr>",
	Short: "Host the HTTP relay server",
	Args:  cobra.ExactArgs(1),
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addrs, err := resolveListenAddrs(args[0])
	if err != nil {
		return err
	}

	registry := relay.NewRegistry()
	handler := relayhttp.New(registry, logger).Handler()

	logger.Info("binding", zap.Strings("addrs", addrs))
	errCh := make(chan error, len(addrs))
	for _, addr := range addrs {
		server := &http.Server{Addr: addr, Handler: handler}
		go func() {
			errCh <- server.ListenAndServe()
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		return nil
	}
}

// resolveListenAddrs expands a host:port string into one listen address per
// IP the host resolves to.
func resolveListenAddrs(listen string) ([]string, error) {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", listen, err)
	}
	if host == "" {
		return []string{listen}, nil
	}

	ips, err := net.LookupHost(host)
	if err != nil {
		return nil, fmt.Errorf("listen address %q did not resolve: %w", listen, err)
	}
	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, net.JoinHostPort(ip, port))
	}
	return addrs, nil
}
