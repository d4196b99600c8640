package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MarkoPoloResearchLab/billing/internal/billingd"
	"github.com/MarkoPoloResearchLab/billing/internal/config"
	"github.com/MarkoPoloResearchLab/billing/internal/orderrpc"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	flagListenAddr       = "listen-addr"
	flagSlotURL          = "slot-url"
	flagSlotKey          = "slot-key"
	flagSlotTTL          = "slot-ttl"
	flagTaxRate          = "tax-rate"
	flagSessionTTL       = "session-ttl"
	flagOrderAddr        = "order-addr"
	flagOrderInsecure    = "order-insecure"
	flagOrderTimeout     = "order-timeout"
	flagLocalOrderAPI    = "local-order-api"
	flagLocalCredits     = "local-credits"
	flagAllowedOrigins   = "allowed-origins"
	flagBreakerThreshold = "breaker-threshold"
	flagBreakerTimeout   = "breaker-timeout"
	flagOrdersListenAddr = "listen-addr"
	flagOrdersCredits    = "credits"
	envPrefix            = "BILLINGD"
	defaultOrdersAddr    = ":7070"
)

var serveFlags = []string{
	flagListenAddr,
	flagSlotURL,
	flagSlotKey,
	flagSlotTTL,
	flagTaxRate,
	flagSessionTTL,
	flagOrderAddr,
	flagOrderInsecure,
	flagOrderTimeout,
	flagLocalOrderAPI,
	flagLocalCredits,
	flagAllowedOrigins,
	flagBreakerThreshold,
	flagBreakerTimeout,
}

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "billingd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.Config{}
	cmd := &cobra.Command{
		Use:           "billingd",
		Short:         "Cart and checkout HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("logger init: %w", err)
			}
			defer func() { _ = logger.Sync() }()
			return billingd.Run(ctx, cfg, logger)
		},
	}

	cmd.Flags().String(flagListenAddr, "", "HTTP listen address (default :9090)")
	cmd.Flags().String(flagSlotURL, "", "cart slot URL: sqlite://, postgres://, redis://, file:// or a bare SQLite path")
	cmd.Flags().String(flagSlotKey, "", "cart slot key (default hyble-cart)")
	cmd.Flags().Duration(flagSlotTTL, 0, "expiry of the redis cart slot; 0 keeps it forever")
	cmd.Flags().String(flagTaxRate, "", "tax rate applied after discounts (default 0.20)")
	cmd.Flags().Duration(flagSessionTTL, 0, "checkout session lifetime (default 30m)")
	cmd.Flags().String(flagOrderAddr, "", "order API gRPC address")
	cmd.Flags().Bool(flagOrderInsecure, false, "connect to the order API without TLS")
	cmd.Flags().Duration(flagOrderTimeout, 0, "order API call timeout (default 3s)")
	cmd.Flags().Bool(flagLocalOrderAPI, false, "run an in-memory order API inside the process")
	cmd.Flags().String(flagLocalCredits, "", "starting wallet of the in-memory order API")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	cmd.Flags().Uint32(flagBreakerThreshold, 0, "consecutive order API failures before the breaker opens")
	cmd.Flags().Duration(flagBreakerTimeout, 0, "how long the open breaker refuses calls")

	cmd.AddCommand(newServeOrdersCommand())
	return cmd
}

func newServeOrdersCommand() *cobra.Command {
	var (
		listenAddr string
		wallet     decimal.Decimal
	)
	cmd := &cobra.Command{
		Use:   "serve-orders",
		Short: "Serve the in-memory order API over gRPC",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			v.SetEnvPrefix(envPrefix + "_ORDERS")
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()
			for _, flagName := range []string{flagOrdersListenAddr, flagOrdersCredits} {
				if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
					return err
				}
			}
			listenAddr = strings.TrimSpace(v.GetString(flagOrdersListenAddr))
			parsed, err := decimal.NewFromString(strings.TrimSpace(v.GetString(flagOrdersCredits)))
			if err != nil || parsed.IsNegative() {
				return fmt.Errorf("%s must be a non-negative amount", flagOrdersCredits)
			}
			wallet = parsed
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("logger init: %w", err)
			}
			defer func() { _ = logger.Sync() }()
			return billingd.ServeOrders(ctx, listenAddr, orderrpc.NewLocalOrderService(wallet), logger)
		},
	}
	cmd.Flags().String(flagOrdersListenAddr, defaultOrdersAddr, "gRPC listen address")
	cmd.Flags().String(flagOrdersCredits, "0", "starting credits wallet")
	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *config.Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, flagName := range serveFlags {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	cfg.ListenAddr = strings.TrimSpace(v.GetString(flagListenAddr))
	cfg.SlotURL = strings.TrimSpace(v.GetString(flagSlotURL))
	cfg.SlotKey = strings.TrimSpace(v.GetString(flagSlotKey))
	cfg.SlotTTL = v.GetDuration(flagSlotTTL)
	cfg.TaxRate = strings.TrimSpace(v.GetString(flagTaxRate))
	cfg.SessionTTL = v.GetDuration(flagSessionTTL)
	cfg.OrderAddress = strings.TrimSpace(v.GetString(flagOrderAddr))
	cfg.OrderInsecure = v.GetBool(flagOrderInsecure)
	cfg.OrderTimeout = v.GetDuration(flagOrderTimeout)
	cfg.LocalOrderAPI = v.GetBool(flagLocalOrderAPI)
	cfg.LocalCredits = strings.TrimSpace(v.GetString(flagLocalCredits))
	cfg.AllowedOrigins = config.ParseAllowedOrigins(v.GetString(flagAllowedOrigins))
	cfg.BreakerThreshold = v.GetUint32(flagBreakerThreshold)
	cfg.BreakerTimeout = v.GetDuration(flagBreakerTimeout)

	return cfg.Validate()
}
