package wayfarer

// Version is the library version string. Release builds may override it
// via -ldflags "-X github.com/seranno/wayfarer.Version=...".
var Version = "0.4.0"
