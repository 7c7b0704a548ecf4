package negotiate

// Player is an opaque handle produced by a Source. The registry never
// inspects it.
type Player any

// Source is one independently-loaded installation of the library.
// Implementations live outside this package; the registry only reads the
// version and triggers the capabilities below.
type Source interface {
	// Version reports the installation's semantic version.
	Version() string

	// Polyfill performs the installation's page integration. The registry
	// calls it at most once, on the winning source.
	Polyfill() error

	// CreatePlayer builds a new player instance.
	CreatePlayer() (Player, error)
}

// PluginPolyfiller is implemented by sources that must install plugin
// detection shims immediately at registration, before negotiation has
// picked a winner. Detection scripts on a page often probe for the plugin as
// soon as they load.
type PluginPolyfiller interface {
	PluginPolyfill() error
}

// LocalSourceName is the name under which the embedding page registers its
// own bundled installation. Local and LocalCompatible prefer it.
const LocalSourceName = "local"
