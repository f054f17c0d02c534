package flags

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/tee-sealing-service/api"
	"github.com/ruteri/tee-sealing-service/common"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// ListenAddr joins --listen-host and --port.
func ListenAddr(cCtx *cli.Context) (string, error) {
	port := cCtx.Int(PortFlag.Name)
	if port <= 0 || port > 65535 {
		return "", fmt.Errorf("invalid port %d", port)
	}
	return net.JoinHostPort(cCtx.String(ListenHostFlag.Name), strconv.Itoa(port)), nil
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	cfg := api.DefaultHTTPServerConfig(listenAddr, logger)
	cfg.MetricsAddr = cCtx.String(MetricsAddrFlag.Name)
	cfg.EnablePprof = cCtx.Bool(PprofFlag.Name)
	cfg.DrainDuration = time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second
	return cfg
}

var ListenHostFlag = &cli.StringFlag{
	Name:  "listen-host",
	Value: "0.0.0.0",
	Usage: "host to listen on for API",
}
var PortFlag = &cli.IntFlag{
	Name:    "port",
	Value:   8000,
	EnvVars: []string{"PORT"},
	Usage:   "port to listen on for API",
}

var KmsEndpointFlag = &cli.StringFlag{
	Name:    "kms-endpoint",
	EnvVars: []string{"AWS_KMS_ENDPOINT"},
	Usage:   "override the AWS KMS endpoint, e.g. to route through a local proxy",
}
var AwsRegionFlag = &cli.StringFlag{
	Name:    "aws-region",
	EnvVars: []string{"AWS_REGION", "AWS_DEFAULT_REGION"},
	Usage:   "AWS region of the KMS key",
}

var AttestationTypeFlag = &cli.StringFlag{
	Name:  "attestation-type",
	Value: "dummy",
	Usage: "attestation for the sealed public key: 'dummy' or 'dcap'",
}
var RemoteAttestationProviderFlag = &cli.StringFlag{
	Name:  "remote-attestation-provider",
	Usage: "address of a remote DCAP quote provider, overrides --attestation-type",
}

var ServerAddrFlag = &cli.StringFlag{
	Name:    "server-addr",
	Value:   "http://127.0.0.1:8000",
	EnvVars: []string{"SEALING_SERVER_ADDR"},
	Usage:   "sealing service address",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
