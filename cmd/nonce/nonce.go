// Package nonce implements the nonce sub-command.
package nonce

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/litentry/enclave-client/cmd/common"
	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/config"
	"github.com/litentry/enclave-client/log"
)

var (
	// Path to the configuration file.
	configFile string

	// Signer identity, as <kind>:<value>.
	signer string

	nonceCmd = &cobra.Command{
		Use:   "nonce",
		Short: "Print the next trusted call nonce of a signer",
		Run:   runNonce,
	}
)

func runNonce(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	cfg, err := config.InitConfig(configFile)
	if err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}
	if err = common.Init(ctx, cfg); err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}
	logger := common.RootLogger()

	nonce, err := fetchNonce(ctx, cfg)
	if err != nil {
		logger.Error("failed to fetch nonce", "signer", signer, "err", err)
		os.Exit(1)
	}
	fmt.Fprintln(cmd.OutOrStdout(), nonce)
}

func fetchNonce(ctx context.Context, cfg *config.Config) (uint32, error) {
	id, err := codec.ParseIdentity(signer)
	if err != nil {
		return 0, err
	}
	c, closer, err := common.NewClient(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer closer()
	return c.GetEnclaveNonce(ctx, id)
}

// Register registers the nonce sub-command.
func Register(parentCmd *cobra.Command) {
	nonceCmd.Flags().StringVar(&configFile, "config", "./config/local.yml", "path to the config.yml file")
	nonceCmd.Flags().StringVar(&signer, "signer", "", "signer identity, e.g. evm:0x1234..")
	_ = nonceCmd.MarkFlagRequired("signer")
	parentCmd.AddCommand(nonceCmd)
}
