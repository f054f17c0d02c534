package common

// PackageName is used as the metrics namespace and in the user agent of the client.
const PackageName = "tee-sealing-service"

// Version is overridden at build time with -ldflags "-X .../common.Version=..."
var Version = "dev"
