package shell

// MenuItem is a link, an event trigger or a separator.
type MenuItem struct {
	Label     string `json:"label,omitempty"`
	URL       string `json:"url,omitempty"`
	Event     string `json:"event,omitempty"`
	Separator bool   `json:"separator,omitempty"`
}

// Menu is a top-level menu. Role names a platform-provided menu (app, edit, view).
type Menu struct {
	Label string     `json:"label,omitempty"`
	Role  string     `json:"role,omitempty"`
	Items []MenuItem `json:"items,omitempty"`
}

// MenuBar is the tray entry showing connectivity.
type MenuBar struct {
	Label        string `json:"label"`
	ShowDockIcon bool   `json:"show_dock_icon"`
}

// Layout is everything the native wrapper needs to draw the application.
type Layout struct {
	AppName string   `json:"app_name"`
	Window  Window   `json:"window"`
	Menus   []Menu   `json:"menus"`
	MenuBar *MenuBar `json:"menu_bar,omitempty"`
}

// Menu-bar labels and the menu added when online.
const (
	LabelOnline       = "Connected to Internet"
	LabelOffline      = "Connection Lost"
	MenuUnsavedData   = "Check Unsaved data"
	EventUnsavedCheck = "unsaved-data.check"
)

// BuildLayout returns the window and menus for cfg.
func BuildLayout(cfg Config) Layout {
	win := cfg.Window
	if win.Title == "" {
		win.Title = cfg.AppName
	}
	about := Menu{Label: "About"}
	if cfg.About.Github != "" {
		about.Items = append(about.Items, MenuItem{Label: "Github", URL: cfg.About.Github})
	}
	if cfg.About.Github != "" && cfg.About.Docs != "" {
		about.Items = append(about.Items, MenuItem{Separator: true})
	}
	if cfg.About.Docs != "" {
		about.Items = append(about.Items, MenuItem{Label: "Docs", URL: cfg.About.Docs})
	}
	return Layout{
		AppName: cfg.AppName,
		Window:  win,
		Menus:   []Menu{{Role: "app"}, {Role: "edit"}, {Role: "view"}, about},
	}
}

// SetConnectivity sets the menu-bar label and, when online, adds the unsaved data menu.
func (l *Layout) SetConnectivity(online bool) {
	if !online {
		l.MenuBar = &MenuBar{Label: LabelOffline, ShowDockIcon: true}
		return
	}
	l.MenuBar = &MenuBar{Label: LabelOnline, ShowDockIcon: true}
	for _, m := range l.Menus {
		if m.Label == MenuUnsavedData {
			return
		}
	}
	l.Menus = append(l.Menus, Menu{
		Label: MenuUnsavedData,
		Items: []MenuItem{{Label: "Trigger sync check", Event: EventUnsavedCheck}},
	})
}
