// Package shell describes and boots the desktop wrapper around the admin: the
// window and menus, the local database file, runtime limits and the
// connectivity check run at start-up.
package shell

import "time"

// Config holds the desktop shell settings.
type Config struct {
	AppName      string        `yaml:"app_name" json:"app_name"`
	Window       Window        `yaml:"window" json:"window"`
	About        About         `yaml:"about" json:"about"`
	Runtime      Runtime       `yaml:"runtime" json:"runtime"`
	ProbeURL     string        `yaml:"probe_url" json:"probe_url"`
	ProbeTimeout time.Duration `yaml:"probe_timeout" json:"probe_timeout"`
}

// Window is the main window geometry and chrome.
type Window struct {
	Title       string `yaml:"title" json:"title"`
	Fullscreen  bool   `yaml:"fullscreen" json:"fullscreen"`
	Resizable   bool   `yaml:"resizable" json:"resizable"`
	Width       int    `yaml:"width" json:"width"`
	Height      int    `yaml:"height" json:"height"`
	MinWidth    int    `yaml:"min_width" json:"min_width"`
	MinHeight   int    `yaml:"min_height" json:"min_height"`
	MaxWidth    int    `yaml:"max_width" json:"max_width"`
	MaxHeight   int    `yaml:"max_height" json:"max_height,omitempty"`
	DevTools    bool   `yaml:"dev_tools" json:"dev_tools"`
	Maximizable bool   `yaml:"maximizable" json:"maximizable"`
}

// About holds the links shown in the About menu.
type About struct {
	Github string `yaml:"github" json:"github"`
	Docs   string `yaml:"docs" json:"docs"`
}

// Runtime mirrors the interpreter directives the desktop build ships with.
type Runtime struct {
	MemoryLimit       string        `yaml:"memory_limit" json:"memory_limit"`
	MaxExecutionTime  time.Duration `yaml:"max_execution_time" json:"max_execution_time"`
	PostMaxSize       string        `yaml:"post_max_size" json:"post_max_size"`
	UploadMaxFilesize string        `yaml:"upload_max_filesize" json:"upload_max_filesize"`
	MaxFileUploads    int           `yaml:"max_file_uploads" json:"max_file_uploads"`
	DefaultCharset    string        `yaml:"default_charset" json:"default_charset"`
	Timezone          string        `yaml:"timezone" json:"timezone"`
}

// DefaultProbeURL is fetched to decide whether the machine is online.
const DefaultProbeURL = "https://www.google.com"

// Defaults returns the stock desktop settings.
func Defaults() Config {
	return Config{
		AppName: "StockMaster",
		Window: Window{
			Title:       "StockMaster",
			Fullscreen:  true,
			Resizable:   true,
			Width:       1080,
			Height:      900,
			MinWidth:    1080,
			MinHeight:   900,
			MaxWidth:    1080,
			DevTools:    false,
			Maximizable: false,
		},
		About: About{
			Github: "https://github.com/zakarialabib/mystockmaster",
			Docs:   "https://github.com/zakarialabib/mystockmaster/docs",
		},
		Runtime: Runtime{
			MemoryLimit:       "512M",
			MaxExecutionTime:  36000 * time.Second,
			PostMaxSize:       "20M",
			UploadMaxFilesize: "20M",
			MaxFileUploads:    20,
			DefaultCharset:    "UTF-8",
			Timezone:          "America/New_York",
		},
		ProbeURL:     DefaultProbeURL,
		ProbeTimeout: time.Second,
	}
}
