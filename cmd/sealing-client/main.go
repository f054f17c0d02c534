package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ruteri/tee-sealing-service/api/sealhandler"
	"github.com/ruteri/tee-sealing-service/cmd/flags"
	"github.com/ruteri/tee-sealing-service/cryptoutils"
	"github.com/ruteri/tee-sealing-service/interfaces"
	"github.com/urfave/cli/v2"
)

var flagKeyID = &cli.StringFlag{
	Name:     "key-id",
	Required: true,
	EnvVars:  []string{"KMS_KEY_ID"},
	Usage:    "KMS key identifier (key id, ARN or alias) to seal with",
}

var flagRetries = &cli.IntFlag{
	Name:  "retries",
	Value: 0,
	Usage: "retry oracle failures this many times",
}

var flagVerifyDCAP = &cli.BoolFlag{
	Name:  "verify-dcap",
	Usage: "verify the attestation as a TDX DCAP quote",
}

var flagTimeout = &cli.DurationFlag{
	Name:  "timeout",
	Value: 30 * time.Second,
	Usage: "request timeout",
}

func newClient(cCtx *cli.Context) (*sealhandler.Client, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration(flagTimeout.Name))
	return sealhandler.NewClient(cCtx.String(flags.ServerAddrFlag.Name), nil), ctx, cancel
}

func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func main() {
	app := &cli.App{
		Name:           "sealing-client",
		Usage:          "Interact with a sealing service",
		DefaultCommand: "public-key",
		Flags: []cli.Flag{
			flags.ServerAddrFlag,
			flagTimeout,
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "seal the service's key pair with a KMS key",
				Flags: []cli.Flag{flagKeyID, flagRetries},
				Action: func(cCtx *cli.Context) error {
					keyID, err := interfaces.NewKeyID(cCtx.String(flagKeyID.Name))
					if err != nil {
						return err
					}

					client, ctx, cancel := newClient(cCtx)
					defer cancel()

					for attempt := 0; ; attempt++ {
						err = client.GenerateSecret(ctx, keyID)
						if err == nil || !sealhandler.IsRetryable(err) || attempt >= cCtx.Int(flagRetries.Name) {
							break
						}
						time.Sleep(time.Second)
					}
					if errors.Is(err, interfaces.ErrAlreadySealed) {
						fmt.Println("Service was already sealed.")
					} else if err != nil {
						return err
					}

					pubkey, err := client.PublicKey(ctx)
					if err != nil {
						return err
					}
					address, err := pubkey.Address()
					if err != nil {
						return err
					}
					return printJSON(map[string]string{
						"public-key-base64": pubkey.Base64(),
						"address":           address.Hex(),
					})
				},
			},
			{
				Name:  "public-key",
				Usage: "print the sealed public key",
				Action: func(cCtx *cli.Context) error {
					client, ctx, cancel := newClient(cCtx)
					defer cancel()

					pubkey, err := client.PublicKey(ctx)
					if err != nil {
						return err
					}
					address, err := pubkey.Address()
					if err != nil {
						return err
					}
					return printJSON(map[string]string{
						"public-key-base64": pubkey.Base64(),
						"public-key-hex":    hex.EncodeToString(pubkey),
						"address":           address.Hex(),
					})
				},
			},
			{
				Name:  "nums",
				Usage: "fetch the service's NUMS key and check it against a local recomputation",
				Action: func(cCtx *cli.Context) error {
					client, ctx, cancel := newClient(cCtx)
					defer cancel()

					nums, err := client.NumsKey(ctx)
					if err != nil {
						return err
					}
					if err := nums.Verify(); err != nil {
						return err
					}
					return printJSON(map[string]any{
						"seed":                  nums.Seed,
						"counter":               nums.Counter,
						"public-key-der-base64": nums.DERBase64(),
						"verified":              true,
					})
				},
			},
			{
				Name:  "attested-public-key",
				Usage: "fetch the sealed public key with its attestation",
				Flags: []cli.Flag{flagVerifyDCAP},
				Action: func(cCtx *cli.Context) error {
					client, ctx, cancel := newClient(cCtx)
					defer cancel()

					resp, err := client.AttestedPublicKey(ctx)
					if err != nil {
						return err
					}

					pubkey, err := resp.SealedPubkey()
					if err != nil {
						return err
					}
					nums, err := resp.NumsKey.NumsKey()
					if err != nil {
						return err
					}
					if err := nums.Verify(); err != nil {
						return err
					}

					out := map[string]any{
						"public-key-base64": pubkey.Base64(),
						"address":           resp.Address,
						"attestation-type":  resp.AttestationType,
						"attestation":       hex.EncodeToString(resp.Attestation),
					}

					if cCtx.Bool(flagVerifyDCAP.Name) {
						reportData := cryptoutils.SealedKeyReportData(pubkey, nums.DER())
						measurements, err := cryptoutils.VerifyDCAPAttestation(reportData, resp.Attestation)
						if err != nil {
							return fmt.Errorf("attestation verification failed: %w", err)
						}
						out["measurements"] = measurements
					}
					return printJSON(out)
				},
			},
			{
				Name:  "health",
				Usage: "check that the service is up",
				Action: func(cCtx *cli.Context) error {
					client, ctx, cancel := newClient(cCtx)
					defer cancel()

					if err := client.Health(ctx); err != nil {
						return err
					}
					fmt.Println("OK")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
