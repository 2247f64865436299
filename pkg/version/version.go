package version

// Build information, overridden at link time with -ldflags "-X".
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// UserAgent returns the client identifier sent with every remote request
func UserAgent() string {
	return "gnome-l10n/" + Version
}
