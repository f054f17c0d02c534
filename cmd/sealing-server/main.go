package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/tee-sealing-service/api/sealhandler"
	"github.com/ruteri/tee-sealing-service/api/server"
	"github.com/ruteri/tee-sealing-service/cmd/flags"
	"github.com/ruteri/tee-sealing-service/common"
	"github.com/ruteri/tee-sealing-service/cryptoutils"
	"github.com/ruteri/tee-sealing-service/kms"
	"github.com/ruteri/tee-sealing-service/metrics"
	"github.com/ruteri/tee-sealing-service/sealing"
	"github.com/urfave/cli/v2"
)

var SealingServiceLogFlag = flags.LogServiceFlagFn("sealing")

func main() {
	app := &cli.App{
		Name:  "sealing-server",
		Usage: "Seal a secp256k1 key pair from a KMS key agreement, once",
		Flags: append([]cli.Flag{
			flags.ListenHostFlag,
			flags.PortFlag,
			flags.KmsEndpointFlag,
			flags.AwsRegionFlag,
			flags.AttestationTypeFlag,
			flags.RemoteAttestationProviderFlag,
			SealingServiceLogFlag,
		}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			listenAddr, err := flags.ListenAddr(cCtx)
			if err != nil {
				logger.Error("Invalid listen address", "err", err)
				return err
			}

			// The NUMS key is fixed before any request can be served.
			nums, err := cryptoutils.GenerateNumsKey(cryptoutils.NumsSeed)
			if errors.Is(err, cryptoutils.ErrCounterOverflow) {
				logger.Error("No NUMS key exists for the seed", "seed", cryptoutils.NumsSeed, "err", err)
				return err
			} else if err != nil {
				logger.Error("Failed to generate NUMS key", "err", err)
				return err
			}
			logger.Info("NUMS key generated",
				"seed", nums.Seed,
				"counter", nums.Counter,
				"publicKeyDer", nums.DERBase64())

			attestationType := cCtx.String(flags.AttestationTypeFlag.Name)
			if attestationType == "dcap" {
				attestationType = string(cryptoutils.DCAPAttestation)
			}
			at, err := cryptoutils.AttestationTypeFromString(attestationType)
			if err != nil {
				logger.Error("Invalid attestation type", "err", err)
				return err
			}
			attester, err := cryptoutils.AttestationProviderFor(at, cCtx.String(flags.RemoteAttestationProviderFlag.Name))
			if err != nil {
				logger.Error("Failed to set up attestation", "err", err)
				return err
			}

			oracle, err := kms.NewAWSOracle(cCtx.String(flags.AwsRegionFlag.Name), cCtx.String(flags.KmsEndpointFlag.Name), logger)
			if err != nil {
				logger.Error("Failed to create KMS client", "err", err)
				return err
			}

			cfg := flags.ConfigureServer(cCtx, logger, listenAddr)
			metricsSrv, err := metrics.New(common.PackageName, cfg.MetricsAddr)
			if err != nil {
				logger.Error("Failed to create metrics server", "err", err)
				return err
			}
			m := metricsSrv.Metrics()
			m.SetNumsCounter(nums.Counter)

			acquirer := kms.NewSecretAcquirer(oracle, nums, m, logger)
			sealer := sealing.NewSealer(acquirer, m, logger)

			srv, err := server.New(cfg, metricsSrv, sealhandler.NewHandler(sealer, nums, attester, logger))
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			srv.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			srv.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
