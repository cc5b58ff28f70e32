package version

// Version is the current version of rtcshare.
// It is stamped at release time with:
//   go build -ldflags="-X 'github.com/BioHazard786/rtcshare/internal/version.Version=v1.0.0'"
var Version = "dev"
