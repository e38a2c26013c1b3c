package config

// Version is the build version injected via ldflags:
//
//	go build -ldflags "-X 'github.com/wraithsoul/tinythis/internal/config.Version=0.3.1'"
var Version = "0.0.0"
